package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/evergreen-games/ecocity/internal/apperrors"
	"github.com/evergreen-games/ecocity/internal/models"
)

// LedgerRepository defines what the app layer needs from the repository
type LedgerRepository interface {
	GetBalance(ctx context.Context, scope models.Scope) (*models.Balance, error)
	CreateBalance(ctx context.Context, scope models.Scope) (*models.Balance, error)
	ApplyDelta(ctx context.Context, scope models.Scope, d Delta) error
	UpdateFields(ctx context.Context, scope models.Scope, req UpdateBalanceRequest) error
	TouchLastLogined(ctx context.Context, scope models.Scope) error
	ListForUser(ctx context.Context, userID string) ([]models.Balance, error)
	DeleteByLeague(ctx context.Context, leagueID uuid.UUID) error
}

// App owns resource balances and delta application. It never clamps:
// negative balances are a data-integrity concern for callers, not an
// error at this layer.
type App struct {
	repo LedgerRepository
}

// NewApp creates a new ledger App
func NewApp(repo LedgerRepository) *App {
	return &App{repo: repo}
}

// GetOrCreate returns the scope's balance, lazily initializing it with
// the fixed defaults on first need.
func (a *App) GetOrCreate(ctx context.Context, scope models.Scope) (*models.Balance, error) {
	balance, err := a.repo.GetBalance(ctx, scope)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}

	balance, err = a.repo.CreateBalance(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to init balance: %w", err)
	}

	log.Info().
		Str("user_id", scope.UserID).
		Msg("initialized balance with defaults")
	return balance, nil
}

// Get returns the scope's balance or ErrNotFound.
func (a *App) Get(ctx context.Context, scope models.Scope) (*models.Balance, error) {
	balance, err := a.repo.GetBalance(ctx, scope)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundf("balance for user %s", scope.UserID)
		}
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

// ApplyDelta applies a signed delta to the scope's balance. The scope
// must already have a balance row; callers needing lazy init call
// GetOrCreate first.
func (a *App) ApplyDelta(ctx context.Context, scope models.Scope, d Delta) error {
	if d.IsZero() {
		return nil
	}
	if err := a.repo.ApplyDelta(ctx, scope, d); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFoundf("balance for user %s", scope.UserID)
		}
		return fmt.Errorf("failed to apply delta: %w", err)
	}
	return nil
}

// UpdateFields overwrites individual balance fields for a scope.
func (a *App) UpdateFields(ctx context.Context, scope models.Scope, req UpdateBalanceRequest) error {
	if err := a.repo.UpdateFields(ctx, scope, req); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFoundf("balance for user %s", scope.UserID)
		}
		return fmt.Errorf("failed to update balance: %w", err)
	}
	return nil
}

// StatsForUser returns every league-scoped balance of a user, stamping
// each scope's last login time on the way out. Empty is ErrNotFound.
func (a *App) StatsForUser(ctx context.Context, userID string) ([]models.Balance, error) {
	balances, err := a.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list league stats: %w", err)
	}
	if len(balances) == 0 {
		return nil, apperrors.NotFoundf("league stats for user %s", userID)
	}

	for _, b := range balances {
		if err := a.repo.TouchLastLogined(ctx, models.Scope{UserID: b.UserID, LeagueID: b.LeagueID}); err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("failed to stamp last login")
		}
	}
	return balances, nil
}
