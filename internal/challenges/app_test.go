package challenges

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonboulle/clockwork"

	"github.com/evergreen-games/ecocity/internal/ledger"
	"github.com/evergreen-games/ecocity/internal/models"
	"github.com/evergreen-games/ecocity/internal/notifications"
)

type fakeChallengesRepo struct {
	challenges map[uuid.UUID]*models.Challenge
	progress   map[uuid.UUID]*models.ChallengeProgress
	batchSizes []int
	events     []string
}

func newFakeChallengesRepo() *fakeChallengesRepo {
	return &fakeChallengesRepo{
		challenges: make(map[uuid.UUID]*models.Challenge),
		progress:   make(map[uuid.UUID]*models.ChallengeProgress),
	}
}

func (f *fakeChallengesRepo) InsertChallengeWithEvent(_ context.Context, c models.Challenge, eventType string, _ []byte) error {
	copied := c
	f.challenges[c.ID] = &copied
	f.events = append(f.events, eventType)
	return nil
}

func (f *fakeChallengesRepo) GetChallenge(_ context.Context, id uuid.UUID) (*models.Challenge, error) {
	c, ok := f.challenges[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *c
	return &copied, nil
}

func (f *fakeChallengesRepo) ListUnended(_ context.Context) ([]models.Challenge, error) {
	var out []models.Challenge
	for _, c := range f.challenges {
		if !c.IsEnded {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeChallengesRepo) ListActiveByBuilding(_ context.Context, buildingID string) ([]models.Challenge, error) {
	var out []models.Challenge
	for _, c := range f.challenges {
		if !c.IsEnded && c.Required.BuildingID == buildingID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeChallengesRepo) EndExpiredBefore(_ context.Context, cutoff time.Time) (int64, error) {
	var ended int64
	for _, c := range f.challenges {
		if !c.IsEnded && c.EndTime.Before(cutoff) {
			c.IsEnded = true
			ended++
		}
	}
	return ended, nil
}

func progressKey(scope models.Scope) string {
	if scope.LeagueID == nil {
		return scope.UserID
	}
	return scope.UserID + "|" + scope.LeagueID.String()
}

func (f *fakeChallengesRepo) GetProgress(_ context.Context, challengeID uuid.UUID, scope models.Scope) (*models.ChallengeProgress, error) {
	for _, p := range f.progress {
		if p.ChallengeID == challengeID && progressKey(models.Scope{UserID: p.UserID, LeagueID: p.LeagueID}) == progressKey(scope) {
			copied := *p
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeChallengesRepo) InsertProgress(_ context.Context, p models.ChallengeProgress) error {
	copied := p
	f.progress[p.ID] = &copied
	return nil
}

func (f *fakeChallengesRepo) InsertProgressBatch(_ context.Context, rows []models.ChallengeProgress) error {
	f.batchSizes = append(f.batchSizes, len(rows))
	for _, p := range rows {
		copied := p
		f.progress[p.ID] = &copied
	}
	return nil
}

func (f *fakeChallengesRepo) UpdateProgress(_ context.Context, id uuid.UUID, count int, isCompleted bool) (bool, error) {
	p, ok := f.progress[id]
	if !ok || p.IsCompleted {
		return false, nil
	}
	p.Progress.Count = count
	p.IsCompleted = isCompleted
	return true, nil
}

func (f *fakeChallengesRepo) ListProgressForScope(_ context.Context, scope models.Scope, completedOnly bool) ([]models.ChallengeProgress, error) {
	var out []models.ChallengeProgress
	for _, p := range f.progress {
		if progressKey(models.Scope{UserID: p.UserID, LeagueID: p.LeagueID}) != progressKey(scope) {
			continue
		}
		if completedOnly && !p.IsCompleted {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

type fakeCatalog struct {
	buildings map[string]models.Building
}

func (f *fakeCatalog) GetBuilding(_ context.Context, id string) (*models.Building, error) {
	b, ok := f.buildings[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &b, nil
}

type fakeCoinLedger struct {
	credits []ledger.Delta
	scopes  []models.Scope
}

func (f *fakeCoinLedger) ApplyDelta(_ context.Context, scope models.Scope, d ledger.Delta) error {
	f.credits = append(f.credits, d)
	f.scopes = append(f.scopes, scope)
	return nil
}

type fakeNotifier struct {
	created []notifications.CreateNotificationRequest
}

func (f *fakeNotifier) Create(_ context.Context, req notifications.CreateNotificationRequest) (*models.Notification, error) {
	f.created = append(f.created, req)
	return &models.Notification{ID: uuid.New(), Message: req.Message, IsGlobal: req.IsGlobal}, nil
}

type fakeUserDirectory struct{ ids []string }

func (f *fakeUserDirectory) ListUserIDs(_ context.Context) ([]string, error) {
	return f.ids, nil
}

type fakeLeagueDirectory struct{ ids []uuid.UUID }

func (f *fakeLeagueDirectory) ListLeagueIDs(_ context.Context) ([]uuid.UUID, error) {
	return f.ids, nil
}

func fullCatalog() *fakeCatalog {
	c := &fakeCatalog{buildings: make(map[string]models.Building)}
	for _, entry := range Catalog() {
		c.buildings[entry.BuildingID] = models.Building{ID: entry.BuildingID, Title: entry.Description}
	}
	return c
}

func newTestApp(repo *fakeChallengesRepo, coins *fakeCoinLedger, notifier *fakeNotifier, users *fakeUserDirectory, leagues *fakeLeagueDirectory, clock clockwork.Clock) *App {
	return NewApp(repo, fullCatalog(), coins, notifier, users, leagues, clock)
}

func TestCreateChallengeSeedsProgressAndAnnounces(t *testing.T) {
	t.Parallel()

	repo := newFakeChallengesRepo()
	coins := &fakeCoinLedger{}
	notifier := &fakeNotifier{}
	users := &fakeUserDirectory{ids: []string{"user-1", "user-2", "user-3"}}
	leagues := &fakeLeagueDirectory{ids: []uuid.UUID{uuid.New(), uuid.New()}}
	clock := clockwork.NewFakeClock()

	app := newTestApp(repo, coins, notifier, users, leagues, clock)

	challenge, err := app.CreateChallenge(context.Background())
	if err != nil {
		t.Fatalf("CreateChallenge failed: %v", err)
	}

	if challenge.Points != RewardPoints {
		t.Fatalf("points = %d, want %d", challenge.Points, RewardPoints)
	}
	if challenge.Required.Count < 1 || challenge.Required.Count > MaxCount {
		t.Fatalf("required count %d outside [1, %d]", challenge.Required.Count, MaxCount)
	}
	if got := challenge.EndTime.Sub(challenge.StartTime); got != Duration {
		t.Fatalf("window = %v, want %v", got, Duration)
	}
	if !strings.HasPrefix(challenge.Message, "Build ") {
		t.Fatalf("unexpected message %q", challenge.Message)
	}

	// 3 users in the global scope plus 3 users in each of 2 leagues.
	if len(repo.progress) != 9 {
		t.Fatalf("seeded %d progress rows, want 9", len(repo.progress))
	}
	for _, p := range repo.progress {
		if p.Progress.Count != 0 || p.IsCompleted {
			t.Fatalf("progress row not zeroed: %+v", p)
		}
	}

	if len(notifier.created) != 1 {
		t.Fatalf("expected 1 announcement, got %d", len(notifier.created))
	}
	if !notifier.created[0].IsGlobal {
		t.Fatal("announcement should be global")
	}
	if notifier.created[0].Message != "New eco challenge! Complete the challenge to get 200 coins reward" {
		t.Fatalf("unexpected announcement %q", notifier.created[0].Message)
	}
	if len(repo.events) != 1 {
		t.Fatalf("expected 1 outbox event, got %d", len(repo.events))
	}
}

func TestCreateChallengeChunksFanOut(t *testing.T) {
	t.Parallel()

	ids := make([]string, 1200)
	for i := range ids {
		ids[i] = uuid.NewString()
	}

	repo := newFakeChallengesRepo()
	app := newTestApp(repo, &fakeCoinLedger{}, &fakeNotifier{}, &fakeUserDirectory{ids: ids}, &fakeLeagueDirectory{}, clockwork.NewFakeClock())

	if _, err := app.CreateChallenge(context.Background()); err != nil {
		t.Fatalf("CreateChallenge failed: %v", err)
	}

	if len(repo.batchSizes) != 3 {
		t.Fatalf("expected 3 batches, got %d: %v", len(repo.batchSizes), repo.batchSizes)
	}
	for i, size := range repo.batchSizes {
		if size > fanOutChunk {
			t.Fatalf("batch %d has %d rows, chunk limit is %d", i, size, fanOutChunk)
		}
	}
	if len(repo.progress) != 1200 {
		t.Fatalf("seeded %d rows, want 1200", len(repo.progress))
	}
}

func TestOnBuildingPlacedAwardsExactlyOnce(t *testing.T) {
	t.Parallel()

	repo := newFakeChallengesRepo()
	coins := &fakeCoinLedger{}
	clock := clockwork.NewFakeClock()
	scope := models.GlobalScope("user-1")

	app := newTestApp(repo, coins, &fakeNotifier{}, &fakeUserDirectory{ids: []string{"user-1"}}, &fakeLeagueDirectory{}, clock)

	now := clock.Now().UTC()
	challenge := models.Challenge{
		ID:        uuid.New(),
		StartTime: now,
		EndTime:   now.Add(Duration),
		Message:   "Build 2 Factory",
		Required:  models.ChallengeRequirement{BuildingID: "7", Count: 2},
		Points:    RewardPoints,
	}
	repo.challenges[challenge.ID] = &challenge

	for i := 0; i < 4; i++ {
		if err := app.OnBuildingPlaced(context.Background(), scope, "7"); err != nil {
			t.Fatalf("placement %d failed: %v", i+1, err)
		}
	}

	if len(coins.credits) != 1 {
		t.Fatalf("expected exactly one reward, got %d", len(coins.credits))
	}
	if coins.credits[0].Coins != RewardPoints {
		t.Fatalf("reward = %d coins, want %d", coins.credits[0].Coins, RewardPoints)
	}
	if coins.scopes[0].UserID != "user-1" {
		t.Fatalf("reward went to %q", coins.scopes[0].UserID)
	}

	p, err := repo.GetProgress(context.Background(), challenge.ID, scope)
	if err != nil {
		t.Fatalf("GetProgress failed: %v", err)
	}
	if !p.IsCompleted {
		t.Fatal("progress should be completed")
	}
}

func TestOnBuildingPlacedIgnoresOtherBuildings(t *testing.T) {
	t.Parallel()

	repo := newFakeChallengesRepo()
	coins := &fakeCoinLedger{}
	clock := clockwork.NewFakeClock()

	app := newTestApp(repo, coins, &fakeNotifier{}, &fakeUserDirectory{}, &fakeLeagueDirectory{}, clock)

	now := clock.Now().UTC()
	challenge := models.Challenge{
		ID:       uuid.New(),
		EndTime:  now.Add(Duration),
		Required: models.ChallengeRequirement{BuildingID: "7", Count: 1},
		Points:   RewardPoints,
	}
	repo.challenges[challenge.ID] = &challenge

	if err := app.OnBuildingPlaced(context.Background(), models.GlobalScope("user-1"), "6"); err != nil {
		t.Fatalf("OnBuildingPlaced failed: %v", err)
	}
	if len(coins.credits) != 0 {
		t.Fatalf("unrelated building produced %d rewards", len(coins.credits))
	}
}

func TestOnBuildingPlacedStartsLateJoinerAtOne(t *testing.T) {
	t.Parallel()

	repo := newFakeChallengesRepo()
	coins := &fakeCoinLedger{}
	clock := clockwork.NewFakeClock()
	scope := models.GlobalScope("late-user")

	app := newTestApp(repo, coins, &fakeNotifier{}, &fakeUserDirectory{}, &fakeLeagueDirectory{}, clock)

	now := clock.Now().UTC()
	challenge := models.Challenge{
		ID:       uuid.New(),
		EndTime:  now.Add(Duration),
		Required: models.ChallengeRequirement{BuildingID: "6", Count: 1},
		Points:   RewardPoints,
	}
	repo.challenges[challenge.ID] = &challenge

	if err := app.OnBuildingPlaced(context.Background(), scope, "6"); err != nil {
		t.Fatalf("OnBuildingPlaced failed: %v", err)
	}

	p, err := repo.GetProgress(context.Background(), challenge.ID, scope)
	if err != nil {
		t.Fatalf("GetProgress failed: %v", err)
	}
	if p.Progress.Count != 1 || !p.IsCompleted {
		t.Fatalf("late joiner progress = %+v, want count 1 completed", p)
	}
	if len(coins.credits) != 1 {
		t.Fatalf("expected one reward, got %d", len(coins.credits))
	}
}

// racingChallengesRepo completes the stored progress row between the
// read and the update, the way a second placement landing on another
// connection would.
type racingChallengesRepo struct {
	*fakeChallengesRepo
}

func (r *racingChallengesRepo) GetProgress(ctx context.Context, challengeID uuid.UUID, scope models.Scope) (*models.ChallengeProgress, error) {
	p, err := r.fakeChallengesRepo.GetProgress(ctx, challengeID, scope)
	if err != nil {
		return nil, err
	}
	stored := r.progress[p.ID]
	stored.Progress.Count = p.Progress.Count + 1
	stored.IsCompleted = true
	return p, nil
}

func TestOnBuildingPlacedLostRaceSkipsAward(t *testing.T) {
	t.Parallel()

	repo := &racingChallengesRepo{fakeChallengesRepo: newFakeChallengesRepo()}
	coins := &fakeCoinLedger{}
	clock := clockwork.NewFakeClock()
	scope := models.GlobalScope("user-1")

	app := NewApp(repo, fullCatalog(), coins, &fakeNotifier{}, &fakeUserDirectory{}, &fakeLeagueDirectory{}, clock)

	now := clock.Now().UTC()
	challenge := models.Challenge{
		ID:       uuid.New(),
		EndTime:  now.Add(Duration),
		Required: models.ChallengeRequirement{BuildingID: "7", Count: 2},
		Points:   RewardPoints,
	}
	repo.challenges[challenge.ID] = &challenge
	progressID := uuid.New()
	repo.progress[progressID] = &models.ChallengeProgress{
		ID:          progressID,
		ChallengeID: challenge.ID,
		UserID:      scope.UserID,
		Progress:    models.ChallengeRequirement{BuildingID: "7", Count: 1},
	}

	if err := app.OnBuildingPlaced(context.Background(), scope, "7"); err != nil {
		t.Fatalf("OnBuildingPlaced failed: %v", err)
	}
	if len(coins.credits) != 0 {
		t.Fatalf("losing writer credited %d rewards, want 0", len(coins.credits))
	}
}

func TestActiveChallengesKeepsChallengeEndingNow(t *testing.T) {
	t.Parallel()

	repo := newFakeChallengesRepo()
	clock := clockwork.NewFakeClock()

	app := newTestApp(repo, &fakeCoinLedger{}, &fakeNotifier{}, &fakeUserDirectory{}, &fakeLeagueDirectory{}, clock)

	endingNow := models.Challenge{ID: uuid.New(), EndTime: clock.Now().UTC(), Required: models.ChallengeRequirement{BuildingID: "7", Count: 1}}
	repo.challenges[endingNow.ID] = &endingNow

	active, err := app.ActiveChallenges(context.Background())
	if err != nil {
		t.Fatalf("ActiveChallenges failed: %v", err)
	}
	if len(active) != 1 {
		t.Fatal("challenge ending exactly now should still be live")
	}
}

func TestActiveChallengesSweepsExpiry(t *testing.T) {
	t.Parallel()

	repo := newFakeChallengesRepo()
	clock := clockwork.NewFakeClock()

	app := newTestApp(repo, &fakeCoinLedger{}, &fakeNotifier{}, &fakeUserDirectory{}, &fakeLeagueDirectory{}, clock)

	now := clock.Now().UTC()
	expired := models.Challenge{ID: uuid.New(), EndTime: now.Add(-time.Minute), Required: models.ChallengeRequirement{BuildingID: "7", Count: 1}}
	running := models.Challenge{ID: uuid.New(), EndTime: now.Add(Duration), Required: models.ChallengeRequirement{BuildingID: "6", Count: 1}}
	repo.challenges[expired.ID] = &expired
	repo.challenges[running.ID] = &running

	active, err := app.ActiveChallenges(context.Background())
	if err != nil {
		t.Fatalf("ActiveChallenges failed: %v", err)
	}
	if len(active) != 1 || active[0].ID != running.ID {
		t.Fatalf("active = %+v, want only the running challenge", active)
	}
	if !repo.challenges[expired.ID].IsEnded {
		t.Fatal("expired challenge was not ended")
	}
}

func TestProgressViewsCarryChallengeDetail(t *testing.T) {
	t.Parallel()

	repo := newFakeChallengesRepo()
	clock := clockwork.NewFakeClock()
	scope := models.GlobalScope("user-1")

	app := newTestApp(repo, &fakeCoinLedger{}, &fakeNotifier{}, &fakeUserDirectory{}, &fakeLeagueDirectory{}, clock)

	now := clock.Now().UTC()
	challenge := models.Challenge{
		ID:       uuid.New(),
		EndTime:  now.Add(Duration),
		Required: models.ChallengeRequirement{BuildingID: "7", Count: 3},
		Points:   RewardPoints,
	}
	repo.challenges[challenge.ID] = &challenge
	repo.progress[uuid.New()] = &models.ChallengeProgress{
		ID:          uuid.New(),
		ChallengeID: challenge.ID,
		UserID:      "user-1",
		Progress:    models.ChallengeRequirement{BuildingID: "7", Count: 3},
		IsCompleted: true,
	}

	views, err := app.CompletedChallenges(context.Background(), scope)
	if err != nil {
		t.Fatalf("CompletedChallenges failed: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 view, got %d", len(views))
	}
	if views[0].Message != "Build 3 Factory" {
		t.Fatalf("message = %q, want %q", views[0].Message, "Build 3 Factory")
	}
	if views[0].Points != RewardPoints || views[0].RequiredCount != 3 {
		t.Fatalf("unexpected view detail: %+v", views[0])
	}
}
