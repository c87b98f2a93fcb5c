package coinsrequests

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/evergreen-games/ecocity/internal/ledger"
	"github.com/evergreen-games/ecocity/internal/models"
	"github.com/evergreen-games/ecocity/internal/sqlutil"
)

// Repository implements coins request data access on Postgres. The
// settle path moves balances and decrements the request in one
// transaction, so the repository holds the ledger repository for
// transactional reuse.
type Repository struct {
	db       sqlutil.DBTX
	pool     *pgxpool.Pool
	balances *ledger.Repository
}

// NewRepository creates a new coins requests repository.
func NewRepository(pool *pgxpool.Pool, balances *ledger.Repository) *Repository {
	return &Repository{db: pool, pool: pool, balances: balances}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx pgx.Tx) *Repository {
	return &Repository{db: tx, pool: r.pool, balances: r.balances}
}

const requestColumns = `id, league_id, user_id, electricity_requested, water_requested, money_requested, is_accepted, created_at`

// InsertRequest persists a new coins request.
func (r *Repository) InsertRequest(ctx context.Context, req models.CoinsRequest) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO coins_requests (id, league_id, user_id, electricity_requested, water_requested, money_requested, is_accepted, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		req.ID, req.LeagueID, req.UserID,
		req.CoinsRequested.Electricity, req.CoinsRequested.Water, req.CoinsRequested.Money,
		req.IsAccepted, req.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert coins request: %w", err)
	}
	return nil
}

// GetRequest fetches a coins request by id.
func (r *Repository) GetRequest(ctx context.Context, id uuid.UUID) (*models.CoinsRequest, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+requestColumns+`
		FROM coins_requests
		WHERE id = $1`, id)

	req, err := scanRequest(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get coins request: %w", err)
	}
	return req, nil
}

// ListPending returns the league's unaccepted requests, oldest first.
func (r *Repository) ListPending(ctx context.Context, leagueID uuid.UUID) ([]models.CoinsRequest, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+requestColumns+`
		FROM coins_requests
		WHERE league_id = $1 AND is_accepted = false
		ORDER BY created_at`, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending coins requests: %w", err)
	}
	defer rows.Close()

	var requests []models.CoinsRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan coins request: %w", err)
		}
		requests = append(requests, *req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return requests, nil
}

// SettleTransfer moves the sent amounts from the sender to the
// requester and decrements the outstanding request, all in one
// transaction. The request flips to accepted when every outstanding
// dimension reaches zero or below. Returns the accepted flag after the
// transfer.
func (r *Repository) SettleTransfer(ctx context.Context, req models.CoinsRequest, senderID string, amounts models.ResourceAmounts) (bool, error) {
	delta := ledger.Delta{
		Coins:       amounts.Money,
		Electricity: amounts.Electricity,
		Water:       amounts.Water,
	}

	var accepted bool
	err := sqlutil.Run(ctx, r.pool, func(tx pgx.Tx) error {
		balances := r.balances.WithTx(tx)
		requesterScope := models.LeagueScope(req.UserID, req.LeagueID)
		senderScope := models.LeagueScope(senderID, req.LeagueID)

		if err := balances.ApplyDelta(ctx, requesterScope, delta); err != nil {
			return err
		}
		if err := balances.ApplyDelta(ctx, senderScope, delta.Inverse()); err != nil {
			return err
		}

		row := tx.QueryRow(ctx, `
			UPDATE coins_requests SET
				electricity_requested = electricity_requested - $2,
				water_requested       = water_requested - $3,
				money_requested       = money_requested - $4,
				is_accepted = (electricity_requested - $2 <= 0
					AND water_requested - $3 <= 0
					AND money_requested - $4 <= 0)
			WHERE id = $1 AND is_accepted = false
			RETURNING is_accepted`,
			req.ID, amounts.Electricity, amounts.Water, amounts.Money)
		return row.Scan(&accepted)
	})
	if err != nil {
		return false, fmt.Errorf("failed to settle coins transfer: %w", err)
	}
	return accepted, nil
}

func scanRequest(row pgx.Row) (*models.CoinsRequest, error) {
	var req models.CoinsRequest
	err := row.Scan(
		&req.ID, &req.LeagueID, &req.UserID,
		&req.CoinsRequested.Electricity, &req.CoinsRequested.Water, &req.CoinsRequested.Money,
		&req.IsAccepted, &req.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}
