package coinsrequests

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/evergreen-games/ecocity/internal/apperrors"
	"github.com/evergreen-games/ecocity/internal/models"
	"github.com/evergreen-games/ecocity/internal/notifications"
)

// CoinsRequestsRepository defines what the request workflows need from
// storage.
type CoinsRequestsRepository interface {
	InsertRequest(ctx context.Context, req models.CoinsRequest) error
	GetRequest(ctx context.Context, id uuid.UUID) (*models.CoinsRequest, error)
	ListPending(ctx context.Context, leagueID uuid.UUID) ([]models.CoinsRequest, error)
	SettleTransfer(ctx context.Context, req models.CoinsRequest, senderID string, amounts models.ResourceAmounts) (bool, error)
}

// BalanceReader checks league balances ahead of a transfer.
type BalanceReader interface {
	Get(ctx context.Context, scope models.Scope) (*models.Balance, error)
}

// ProfileReader resolves the sender's display name.
type ProfileReader interface {
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
}

// Notifier tells the requester resources arrived.
type Notifier interface {
	Create(ctx context.Context, req notifications.CreateNotificationRequest) (*models.Notification, error)
}

// App implements the coins request protocol.
type App struct {
	repo     CoinsRequestsRepository
	ledger   BalanceReader
	profiles ProfileReader
	notifier Notifier
	clock    clockwork.Clock
}

// NewApp creates a new coins requests App.
func NewApp(repo CoinsRequestsRepository, balanceReader BalanceReader, profiles ProfileReader, notifier Notifier, clock clockwork.Clock) *App {
	return &App{
		repo:     repo,
		ledger:   balanceReader,
		profiles: profiles,
		notifier: notifier,
		clock:    clock,
	}
}

// RequestCoins opens a standing resource ask inside a league. Every
// wanted quantity must be positive; a zero quantity reads as missing.
func (a *App) RequestCoins(ctx context.Context, leagueID uuid.UUID, requesterID string, wanted models.ResourceAmounts) (*models.CoinsRequest, error) {
	if leagueID == uuid.Nil || requesterID == "" ||
		wanted.Electricity <= 0 || wanted.Water <= 0 || wanted.Money <= 0 {
		return nil, apperrors.Validationf("missing or invalid required fields")
	}

	request := models.CoinsRequest{
		ID:             uuid.New(),
		LeagueID:       leagueID,
		UserID:         requesterID,
		CoinsRequested: wanted,
		IsAccepted:     false,
		CreatedAt:      a.clock.Now().UTC(),
	}
	if err := a.repo.InsertRequest(ctx, request); err != nil {
		return nil, err
	}

	log.Info().
		Str("request_id", request.ID.String()).
		Str("league_id", leagueID.String()).
		Str("user_id", requesterID).
		Msg("created coins request")

	return &request, nil
}

// SendCoins fulfills a request, partially or fully. The transfer is
// symmetric and atomic; the request flips to accepted only once every
// outstanding dimension is covered. Senders may over-pay a dimension.
func (a *App) SendCoins(ctx context.Context, requestID uuid.UUID, senderID string, amounts models.ResourceAmounts) (*models.CoinsRequest, error) {
	if senderID == "" {
		return nil, apperrors.Validationf("senderID is required")
	}
	if amounts.Electricity < 0 || amounts.Water < 0 || amounts.Money < 0 {
		return nil, apperrors.Validationf("amounts must not be negative")
	}

	request, err := a.repo.GetRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundf("coins request not found")
		}
		return nil, err
	}
	if request.IsAccepted {
		return nil, apperrors.Conflictf("request already accepted")
	}

	if _, err := a.ledger.Get(ctx, models.LeagueScope(request.UserID, request.LeagueID)); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFoundf("requesting user's league stats not found")
		}
		return nil, err
	}
	sender, err := a.ledger.Get(ctx, models.LeagueScope(senderID, request.LeagueID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFoundf("sender's league stats not found")
		}
		return nil, err
	}

	if sender.Electricity < amounts.Electricity ||
		sender.Water < amounts.Water ||
		sender.Coins < amounts.Money {
		return nil, fmt.Errorf("sender does not have enough coins: %w", apperrors.ErrInsufficientResources)
	}

	accepted, err := a.repo.SettleTransfer(ctx, *request, senderID, amounts)
	if err != nil {
		return nil, err
	}

	a.notifyRequester(ctx, request.UserID, senderID, amounts)

	request.CoinsRequested.Electricity -= amounts.Electricity
	request.CoinsRequested.Water -= amounts.Water
	request.CoinsRequested.Money -= amounts.Money
	request.IsAccepted = accepted

	log.Info().
		Str("request_id", request.ID.String()).
		Str("sender_id", senderID).
		Bool("accepted", accepted).
		Msg("coins transferred")

	return request, nil
}

// notifyRequester is best effort; the transfer already committed.
func (a *App) notifyRequester(ctx context.Context, requesterID, senderID string, amounts models.ResourceAmounts) {
	senderName := senderID
	profile, err := a.profiles.GetProfile(ctx, senderID)
	if err != nil {
		log.Warn().Err(err).Str("sender_id", senderID).Msg("failed to resolve sender profile")
	} else {
		senderName = profile.UserName
	}

	message := fmt.Sprintf("Resources received: %d GOLD, %dKW, %d LITER, from %s",
		amounts.Money, amounts.Electricity, amounts.Water, senderName)
	if _, err := a.notifier.Create(ctx, notifications.CreateNotificationRequest{
		Message:          message,
		NotificationType: models.NotificationTypeResourcesReceived,
		IsGlobal:         false,
		UserID:           &requesterID,
	}); err != nil {
		log.Warn().Err(err).Str("user_id", requesterID).Msg("failed to notify requester")
	}
}

// PendingRequests returns the league's unaccepted requests.
func (a *App) PendingRequests(ctx context.Context, leagueID uuid.UUID) ([]models.CoinsRequest, error) {
	if leagueID == uuid.Nil {
		return nil, apperrors.Validationf("leagueID is required")
	}

	requests, err := a.repo.ListPending(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	if len(requests) == 0 {
		return nil, apperrors.NotFoundf("no pending requests found")
	}
	return requests, nil
}
