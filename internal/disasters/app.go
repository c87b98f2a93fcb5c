package disasters

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/evergreen-games/ecocity/internal/apperrors"
	"github.com/evergreen-games/ecocity/internal/events"
	"github.com/evergreen-games/ecocity/internal/models"
	"github.com/evergreen-games/ecocity/internal/notifications"
)

// disasterTypes is the pool a strike's type is drawn from, per strike.
var disasterTypes = []string{"earthquake", "flood", "fire outbreak", "hurricane"}

// houseSuffix folds house variants (houseA, houseB, ...) into one
// histogram bucket.
var houseSuffix = regexp.MustCompile(`house[a-z]*$`)

// DisastersRepository defines what the disaster workflows need from
// storage.
type DisastersRepository interface {
	InsertDisasterWithEvent(ctx context.Context, d models.Disaster, eventType string, payload []byte) error
	ListDisasters(ctx context.Context) ([]models.Disaster, error)
}

// AssetBoard lists and destroys placed assets.
type AssetBoard interface {
	ListActive(ctx context.Context) ([]models.Asset, error)
	MarkDestroyed(ctx context.Context, ids []uuid.UUID) error
}

// BuildingCatalog resolves building definitions in bulk.
type BuildingCatalog interface {
	GetBuildingsByIDs(ctx context.Context, ids []string) ([]models.Building, error)
}

// Notifier announces disasters to players.
type Notifier interface {
	Create(ctx context.Context, req notifications.CreateNotificationRequest) (*models.Notification, error)
}

// App implements the disaster engine workflows.
type App struct {
	repo      DisastersRepository
	assets    AssetBoard
	buildings BuildingCatalog
	notifier  Notifier
	clock     clockwork.Clock
	rng       *rand.Rand
}

// NewApp creates a new disasters App with its own seeded RNG.
func NewApp(repo DisastersRepository, assetBoard AssetBoard, buildingCatalog BuildingCatalog, notifier Notifier, clock clockwork.Clock) *App {
	src := rand.NewSource(time.Now().UnixNano())
	return &App{
		repo:      repo,
		assets:    assetBoard,
		buildings: buildingCatalog,
		notifier:  notifier,
		clock:     clock,
		rng:       rand.New(src),
	}
}

// TriggerDisaster destroys one or two random assets on every occupied
// board, records the strike and posts a global warning. Balances are
// left untouched; rebuilding is the player's problem.
func (a *App) TriggerDisaster(ctx context.Context) (*models.Disaster, error) {
	active, err := a.assets.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	victims := a.selectVictims(active)
	if len(victims) == 0 {
		return nil, apperrors.NotFoundf("no assets to destroy")
	}

	ids := make([]uuid.UUID, len(victims))
	buildingIDSet := make(map[string]struct{})
	for i, v := range victims {
		ids[i] = v.ID
		buildingIDSet[v.BuildingID] = struct{}{}
	}
	if err := a.assets.MarkDestroyed(ctx, ids); err != nil {
		return nil, err
	}

	buildingIDs := make([]string, 0, len(buildingIDSet))
	for id := range buildingIDSet {
		buildingIDs = append(buildingIDs, id)
	}
	buildings, err := a.buildings.GetBuildingsByIDs(ctx, buildingIDs)
	if err != nil {
		return nil, err
	}
	titles := make(map[string]string, len(buildings))
	for _, b := range buildings {
		titles[b.ID] = b.Title
	}

	disasterType := disasterTypes[a.rng.Intn(len(disasterTypes))]
	disaster := models.Disaster{
		ID:                      uuid.New(),
		DisasterType:            disasterType,
		AffectedUsersList:       buildImpacts(victims, titles),
		DestroyedBuildingsCount: len(victims),
		CreatedAt:               a.clock.Now().UTC(),
	}

	payload, err := json.Marshal(events.DisasterStruckPayload{
		DisasterID:     disaster.ID.String(),
		DisasterType:   disaster.DisasterType,
		DestroyedCount: disaster.DestroyedBuildingsCount,
		StruckAt:       disaster.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal disaster payload: %w", err)
	}
	if err := a.repo.InsertDisasterWithEvent(ctx, disaster, events.TypeDisasterStruck, payload); err != nil {
		return nil, err
	}

	if _, err := a.notifier.Create(ctx, notifications.CreateNotificationRequest{
		Message:          "There have been a disaster! Run back to your city and save your civilians",
		NotificationType: models.NotificationTypeDisaster,
		IsGlobal:         true,
	}); err != nil {
		log.Warn().Err(err).
			Str("disaster_id", disaster.ID.String()).
			Msg("failed to announce disaster")
	}

	log.Info().
		Str("disaster_id", disaster.ID.String()).
		Str("disaster_type", disasterType).
		Int("destroyed", disaster.DestroyedBuildingsCount).
		Int("affected_scopes", len(disaster.AffectedUsersList)).
		Msg("disaster struck")

	return &disaster, nil
}

// selectVictims samples one or two assets per occupied scope without
// replacement.
func (a *App) selectVictims(active []models.Asset) []models.Asset {
	byScope := make(map[string][]models.Asset)
	var order []string
	for _, asset := range active {
		key := scopeKey(asset)
		if _, ok := byScope[key]; !ok {
			order = append(order, key)
		}
		byScope[key] = append(byScope[key], asset)
	}

	var victims []models.Asset
	for _, key := range order {
		pool := byScope[key]
		count := a.rng.Intn(2) + 1
		if count > len(pool) {
			count = len(pool)
		}
		for i := 0; i < count; i++ {
			idx := a.rng.Intn(len(pool))
			victims = append(victims, pool[idx])
			pool[idx] = pool[len(pool)-1]
			pool = pool[:len(pool)-1]
		}
	}
	return victims
}

// buildImpacts groups the destroyed assets per scope into a histogram
// keyed by normalized building title.
func buildImpacts(victims []models.Asset, titles map[string]string) []models.DisasterImpact {
	impacts := make(map[string]*models.DisasterImpact)
	var order []string
	for _, v := range victims {
		title, ok := titles[v.BuildingID]
		if !ok {
			log.Warn().
				Str("building_id", v.BuildingID).
				Msg("no building found for destroyed asset")
			continue
		}
		normalized := houseSuffix.ReplaceAllString(strings.ToLower(title), "house")

		key := scopeKey(v)
		impact, ok := impacts[key]
		if !ok {
			impact = &models.DisasterImpact{
				UserID:      v.UserID,
				LeagueID:    v.LeagueID,
				Destruction: make(map[string]int),
			}
			impacts[key] = impact
			order = append(order, key)
		}
		impact.Destruction[normalized]++
	}

	out := make([]models.DisasterImpact, 0, len(order))
	for _, key := range order {
		out = append(out, *impacts[key])
	}
	return out
}

func scopeKey(a models.Asset) string {
	if a.LeagueID == nil {
		return a.UserID
	}
	return a.UserID + "|" + a.LeagueID.String()
}

// ListDisasters returns every recorded strike, newest first.
func (a *App) ListDisasters(ctx context.Context) ([]models.Disaster, error) {
	return a.repo.ListDisasters(ctx)
}
