package users

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jonboulle/clockwork"

	"github.com/evergreen-games/ecocity/internal/apperrors"
	"github.com/evergreen-games/ecocity/internal/models"
)

type fakeUsersRepo struct {
	profiles map[string]*models.UserProfile
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{profiles: make(map[string]*models.UserProfile)}
}

func (f *fakeUsersRepo) InsertProfile(_ context.Context, p models.UserProfile) error {
	copied := p
	f.profiles[p.UserID] = &copied
	return nil
}

func (f *fakeUsersRepo) GetProfile(_ context.Context, userID string) (*models.UserProfile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *p
	return &copied, nil
}

func (f *fakeUsersRepo) SearchProfiles(_ context.Context, term string) ([]models.UserProfile, error) {
	var out []models.UserProfile
	lowered := strings.ToLower(term)
	for _, p := range f.profiles {
		if strings.Contains(strings.ToLower(p.UserName), lowered) ||
			strings.Contains(strings.ToLower(p.Email), lowered) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeUsersRepo) UpdateGameMap(_ context.Context, userID, gameInitMap string) error {
	p, ok := f.profiles[userID]
	if !ok {
		return pgx.ErrNoRows
	}
	p.GameInitMap = gameInitMap
	return nil
}

func (f *fakeUsersRepo) ListUserIDs(_ context.Context) ([]string, error) {
	var out []string
	for id := range f.profiles {
		out = append(out, id)
	}
	return out, nil
}

type trackingLedger struct {
	created []models.Scope
}

func (t *trackingLedger) GetOrCreate(_ context.Context, scope models.Scope) (*models.Balance, error) {
	t.created = append(t.created, scope)
	return &models.Balance{UserID: scope.UserID, Coins: models.DefaultCoins}, nil
}

func newUsersFixture() (*App, *fakeUsersRepo, *trackingLedger) {
	repo := newFakeUsersRepo()
	balances := &trackingLedger{}
	return NewApp(repo, balances, clockwork.NewFakeClock()), repo, balances
}

func TestRegisterProfile(t *testing.T) {
	t.Parallel()

	app, repo, _ := newUsersFixture()

	profile, err := app.RegisterProfile(context.Background(), RegisterProfileRequest{
		UserID:   "user-1",
		UserName: "Robin",
		Email:    "robin@example.com",
	})
	if err != nil {
		t.Fatalf("RegisterProfile failed: %v", err)
	}
	if profile.GameInitMap != "" {
		t.Fatal("fresh profile should start with an empty game map")
	}
	if _, ok := repo.profiles["user-1"]; !ok {
		t.Fatal("profile was not stored")
	}

	_, err = app.RegisterProfile(context.Background(), RegisterProfileRequest{UserID: "user-2"})
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected ErrValidation for incomplete profile, got %v", err)
	}
}

func TestGetProfileMissing(t *testing.T) {
	t.Parallel()

	app, _, _ := newUsersFixture()

	_, err := app.GetProfile(context.Background(), "nobody")
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSearchUsers(t *testing.T) {
	t.Parallel()

	app, _, _ := newUsersFixture()
	seed := []RegisterProfileRequest{
		{UserID: "a", UserName: "Robin Green", Email: "robin@example.com"},
		{UserID: "b", UserName: "Sam", Email: "sam@green.city"},
		{UserID: "c", UserName: "Taylor", Email: "taylor@example.com"},
	}
	for _, req := range seed {
		if _, err := app.RegisterProfile(context.Background(), req); err != nil {
			t.Fatalf("seed %s: %v", req.UserID, err)
		}
	}

	found, err := app.SearchUsers(context.Background(), "green")
	if err != nil {
		t.Fatalf("SearchUsers failed: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("found %d profiles, want 2", len(found))
	}

	_, err = app.SearchUsers(context.Background(), "nomatch")
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for no matches, got %v", err)
	}

	_, err = app.SearchUsers(context.Background(), "")
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty term, got %v", err)
	}
}

func TestUpdateGameMap(t *testing.T) {
	t.Parallel()

	app, repo, _ := newUsersFixture()
	if _, err := app.RegisterProfile(context.Background(), RegisterProfileRequest{
		UserID: "user-1", UserName: "Robin", Email: "r@example.com",
	}); err != nil {
		t.Fatalf("seed profile: %v", err)
	}

	if err := app.UpdateGameMap(context.Background(), "user-1", `{"tiles":[]}`); err != nil {
		t.Fatalf("UpdateGameMap failed: %v", err)
	}
	if repo.profiles["user-1"].GameInitMap != `{"tiles":[]}` {
		t.Fatal("game map was not stored")
	}

	if err := app.UpdateGameMap(context.Background(), "user-1", ""); !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty map, got %v", err)
	}
	if err := app.UpdateGameMap(context.Background(), "ghost", "x"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}
}

func TestUserDetailsInitializesGlobalBalance(t *testing.T) {
	t.Parallel()

	app, _, balances := newUsersFixture()
	if _, err := app.RegisterProfile(context.Background(), RegisterProfileRequest{
		UserID: "user-1", UserName: "Robin", Email: "r@example.com",
	}); err != nil {
		t.Fatalf("seed profile: %v", err)
	}

	details, err := app.UserDetails(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("UserDetails failed: %v", err)
	}
	if details.UserName != "Robin" {
		t.Fatalf("user name = %q", details.UserName)
	}
	if len(balances.created) != 1 || balances.created[0].LeagueID != nil {
		t.Fatalf("expected one global balance init, got %v", balances.created)
	}
}
