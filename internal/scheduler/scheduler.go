package scheduler

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/evergreen-games/ecocity/internal/models"
)

// ChallengeCreator issues a new random challenge.
type ChallengeCreator interface {
	CreateChallenge(ctx context.Context) (*models.Challenge, error)
}

// DisasterTrigger strikes the boards.
type DisasterTrigger interface {
	TriggerDisaster(ctx context.Context) (*models.Disaster, error)
}

// Config tunes the periodic game events.
type Config struct {
	// MinChallengesPerDay and MaxChallengesPerDay bound the number of
	// challenges rolled each day at random times.
	MinChallengesPerDay int
	MaxChallengesPerDay int

	// DisasterInterval is the fixed period between disaster strikes.
	DisasterInterval time.Duration
}

// DefaultConfig returns the default event cadence.
func DefaultConfig() Config {
	return Config{
		MinChallengesPerDay: 2,
		MaxChallengesPerDay: 3,
		DisasterInterval:    6 * time.Hour,
	}
}

// Scheduler drives the periodic challenge and disaster triggers. All
// trigger failures are logged and the cadence continues; the request
// path owns user-visible errors.
type Scheduler struct {
	challenges ChallengeCreator
	disasters  DisasterTrigger
	config     Config
	clock      clockwork.Clock
	rng        *rand.Rand
}

// New creates a scheduler with its own seeded RNG.
func New(challenges ChallengeCreator, disasters DisasterTrigger, config Config, clock clockwork.Clock) *Scheduler {
	src := rand.NewSource(time.Now().UnixNano())
	return &Scheduler{
		challenges: challenges,
		disasters:  disasters,
		config:     config,
		clock:      clock,
		rng:        rand.New(src),
	}
}

// Run blocks until the context is cancelled, firing challenges at
// random times each day and disasters on a fixed interval.
func (s *Scheduler) Run(ctx context.Context) {
	log.Info().
		Int("min_challenges_per_day", s.config.MinChallengesPerDay).
		Int("max_challenges_per_day", s.config.MaxChallengesPerDay).
		Dur("disaster_interval", s.config.DisasterInterval).
		Msg("scheduler started")

	done := make(chan struct{})
	go func() {
		s.runChallenges(ctx)
		close(done)
	}()
	s.runDisasters(ctx)
	<-done

	log.Info().Msg("scheduler stopped")
}

// runChallenges fires the day's planned challenge times in order, then
// plans the next day.
func (s *Scheduler) runChallenges(ctx context.Context) {
	for {
		delays := s.planDay()
		dayStart := s.clock.Now()

		for _, delay := range delays {
			wait := dayStart.Add(delay).Sub(s.clock.Now())
			if wait < 0 {
				wait = 0
			}
			if !s.sleep(ctx, wait) {
				return
			}
			if _, err := s.challenges.CreateChallenge(ctx); err != nil {
				log.Error().Err(err).Msg("scheduled challenge creation failed")
			}
		}

		rest := dayStart.Add(24 * time.Hour).Sub(s.clock.Now())
		if !s.sleep(ctx, rest) {
			return
		}
	}
}

// planDay rolls the number of challenges for the day and their offsets
// within the 24h window, sorted.
func (s *Scheduler) planDay() []time.Duration {
	span := s.config.MaxChallengesPerDay - s.config.MinChallengesPerDay
	count := s.config.MinChallengesPerDay
	if span > 0 {
		count += s.rng.Intn(span + 1)
	}

	delays := make([]time.Duration, count)
	for i := range delays {
		delays[i] = time.Duration(s.rng.Int63n(int64(24 * time.Hour)))
	}
	sort.Slice(delays, func(i, j int) bool { return delays[i] < delays[j] })
	return delays
}

func (s *Scheduler) runDisasters(ctx context.Context) {
	ticker := s.clock.NewTicker(s.config.DisasterInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if _, err := s.disasters.TriggerDisaster(ctx); err != nil {
				log.Error().Err(err).Msg("scheduled disaster failed")
			}
		}
	}
}

// sleep waits for d on the injected clock. Returns false when the
// context was cancelled first.
func (s *Scheduler) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := s.clock.NewTimer(d)
	defer func() {
		if !timer.Stop() {
			select {
			case <-timer.Chan():
			default:
			}
		}
	}()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
