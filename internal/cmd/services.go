package main

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/evergreen-games/ecocity/internal/assets"
	"github.com/evergreen-games/ecocity/internal/buildings"
	"github.com/evergreen-games/ecocity/internal/challenges"
	"github.com/evergreen-games/ecocity/internal/coinsrequests"
	"github.com/evergreen-games/ecocity/internal/disasters"
	"github.com/evergreen-games/ecocity/internal/leagues"
	"github.com/evergreen-games/ecocity/internal/ledger"
	"github.com/evergreen-games/ecocity/internal/notifications"
	"github.com/evergreen-games/ecocity/internal/outbox"
	"github.com/evergreen-games/ecocity/internal/users"
)

// Services bundles the wired application layer.
type Services struct {
	Ledger        *ledger.App
	Buildings     *buildings.App
	Assets        *assets.App
	Challenges    *challenges.App
	Leagues       *leagues.App
	Disasters     *disasters.App
	CoinsRequests *coinsrequests.App
	Users         *users.App
	Notifications *notifications.App

	AssetsRepo *assets.Repository
}

// setupServices wires repositories and apps on top of the pool.
// Pool -> repository -> app, domain by domain.
func setupServices(pool *pgxpool.Pool, clock clockwork.Clock) *Services {
	outboxRepo := outbox.NewRepository(pool)

	notificationsRepo := notifications.NewRepository(pool, outboxRepo)
	notificationsApp := notifications.NewApp(notificationsRepo, clock)

	ledgerRepo := ledger.NewRepository(pool)
	ledgerApp := ledger.NewApp(ledgerRepo)

	buildingsRepo := buildings.NewRepository(pool)
	buildingsApp := buildings.NewApp(buildingsRepo)

	usersRepo := users.NewRepository(pool)
	usersApp := users.NewApp(usersRepo, ledgerApp, clock)

	assetsRepo := assets.NewRepository(pool)

	leaguesRepo := leagues.NewRepository(pool, ledgerRepo, assetsRepo)
	leaguesApp := leagues.NewApp(leaguesRepo, ledgerApp, clock)

	challengesRepo := challenges.NewRepository(pool, outboxRepo)
	challengesApp := challenges.NewApp(challengesRepo, buildingsApp, ledgerApp, notificationsApp, usersApp, leaguesApp, clock)

	assetsApp := assets.NewApp(assetsRepo, buildingsApp, ledgerApp, challengesApp, clock)

	disastersRepo := disasters.NewRepository(pool, outboxRepo)
	disastersApp := disasters.NewApp(disastersRepo, assetsRepo, buildingsApp, notificationsApp, clock)

	coinsRequestsRepo := coinsrequests.NewRepository(pool, ledgerRepo)
	coinsRequestsApp := coinsrequests.NewApp(coinsRequestsRepo, ledgerApp, usersApp, notificationsApp, clock)

	return &Services{
		Ledger:        ledgerApp,
		Buildings:     buildingsApp,
		Assets:        assetsApp,
		Challenges:    challengesApp,
		Leagues:       leaguesApp,
		Disasters:     disastersApp,
		CoinsRequests: coinsRequestsApp,
		Users:         usersApp,
		Notifications: notificationsApp,

		AssetsRepo: assetsRepo,
	}
}
