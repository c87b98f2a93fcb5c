package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/evergreen-games/ecocity/internal/apperrors"
	"github.com/evergreen-games/ecocity/internal/models"
)

type fakeLedgerRepo struct {
	balances map[string]*models.Balance
	created  int
	deltas   []Delta
	touched  []models.Scope
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{balances: make(map[string]*models.Balance)}
}

func scopeKey(scope models.Scope) string {
	if scope.LeagueID == nil {
		return scope.UserID
	}
	return scope.UserID + "|" + scope.LeagueID.String()
}

func (f *fakeLedgerRepo) GetBalance(_ context.Context, scope models.Scope) (*models.Balance, error) {
	b, ok := f.balances[scopeKey(scope)]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *b
	return &copied, nil
}

func (f *fakeLedgerRepo) CreateBalance(_ context.Context, scope models.Scope) (*models.Balance, error) {
	f.created++
	b := &models.Balance{
		ID:          uuid.New(),
		UserID:      scope.UserID,
		LeagueID:    scope.LeagueID,
		Coins:       models.DefaultCoins,
		EcoPoints:   models.DefaultEcoPoints,
		Electricity: models.DefaultElectricity,
		Water:       models.DefaultWater,
	}
	f.balances[scopeKey(scope)] = b
	copied := *b
	return &copied, nil
}

func (f *fakeLedgerRepo) ApplyDelta(_ context.Context, scope models.Scope, d Delta) error {
	b, ok := f.balances[scopeKey(scope)]
	if !ok {
		return pgx.ErrNoRows
	}
	*b = d.Apply(*b)
	f.deltas = append(f.deltas, d)
	return nil
}

func (f *fakeLedgerRepo) UpdateFields(_ context.Context, scope models.Scope, req UpdateBalanceRequest) error {
	b, ok := f.balances[scopeKey(scope)]
	if !ok {
		return pgx.ErrNoRows
	}
	if req.Coins != nil {
		b.Coins = *req.Coins
	}
	if req.EcoPoints != nil {
		b.EcoPoints = *req.EcoPoints
	}
	return nil
}

func (f *fakeLedgerRepo) TouchLastLogined(_ context.Context, scope models.Scope) error {
	f.touched = append(f.touched, scope)
	return nil
}

func (f *fakeLedgerRepo) ListForUser(_ context.Context, userID string) ([]models.Balance, error) {
	var out []models.Balance
	for _, b := range f.balances {
		if b.UserID == userID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeLedgerRepo) DeleteByLeague(_ context.Context, leagueID uuid.UUID) error {
	for k, b := range f.balances {
		if b.LeagueID != nil && *b.LeagueID == leagueID {
			delete(f.balances, k)
		}
	}
	return nil
}

func TestGetOrCreateInitializesDefaultsOnce(t *testing.T) {
	t.Parallel()

	repo := newFakeLedgerRepo()
	app := NewApp(repo)
	scope := models.GlobalScope("user-1")

	first, err := app.GetOrCreate(context.Background(), scope)
	if err != nil {
		t.Fatalf("first GetOrCreate failed: %v", err)
	}
	if first.Coins != models.DefaultCoins || first.EcoPoints != models.DefaultEcoPoints {
		t.Fatalf("unexpected defaults: coins=%d ecoPoints=%d", first.Coins, first.EcoPoints)
	}

	second, err := app.GetOrCreate(context.Background(), scope)
	if err != nil {
		t.Fatalf("second GetOrCreate failed: %v", err)
	}
	if repo.created != 1 {
		t.Fatalf("expected one initialization, got %d", repo.created)
	}
	if second.ID != first.ID {
		t.Fatal("second call returned a different balance row")
	}
}

func TestGetMapsMissingRowToNotFound(t *testing.T) {
	t.Parallel()

	app := NewApp(newFakeLedgerRepo())

	_, err := app.Get(context.Background(), models.GlobalScope("nobody"))
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestApplyDeltaSkipsZero(t *testing.T) {
	t.Parallel()

	repo := newFakeLedgerRepo()
	app := NewApp(repo)

	if err := app.ApplyDelta(context.Background(), models.GlobalScope("user-1"), Delta{}); err != nil {
		t.Fatalf("zero delta should be a no-op, got %v", err)
	}
	if len(repo.deltas) != 0 {
		t.Fatalf("zero delta reached the repository: %v", repo.deltas)
	}
}

func TestApplyDeltaMissingBalance(t *testing.T) {
	t.Parallel()

	app := NewApp(newFakeLedgerRepo())

	err := app.ApplyDelta(context.Background(), models.GlobalScope("nobody"), Delta{Coins: 10})
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStatsForUserStampsLastLogin(t *testing.T) {
	t.Parallel()

	repo := newFakeLedgerRepo()
	app := NewApp(repo)
	leagueID := uuid.New()

	if _, err := app.GetOrCreate(context.Background(), models.GlobalScope("user-1")); err != nil {
		t.Fatalf("seed global scope: %v", err)
	}
	if _, err := app.GetOrCreate(context.Background(), models.LeagueScope("user-1", leagueID)); err != nil {
		t.Fatalf("seed league scope: %v", err)
	}

	balances, err := app.StatsForUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("StatsForUser failed: %v", err)
	}
	if len(balances) != 2 {
		t.Fatalf("expected 2 balances, got %d", len(balances))
	}
	if len(repo.touched) != 2 {
		t.Fatalf("expected 2 last-login stamps, got %d", len(repo.touched))
	}
}

func TestStatsForUserEmptyIsNotFound(t *testing.T) {
	t.Parallel()

	app := NewApp(newFakeLedgerRepo())

	_, err := app.StatsForUser(context.Background(), "nobody")
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
