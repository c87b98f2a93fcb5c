package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/evergreen-games/ecocity/internal/models"
)

type countingCreator struct {
	mu    sync.Mutex
	count int
}

func (c *countingCreator) CreateChallenge(_ context.Context) (*models.Challenge, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
	return &models.Challenge{}, nil
}

func (c *countingCreator) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

type countingTrigger struct {
	mu    sync.Mutex
	count int
}

func (c *countingTrigger) TriggerDisaster(_ context.Context) (*models.Disaster, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
	return &models.Disaster{}, nil
}

func (c *countingTrigger) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

func TestPlanDayBounds(t *testing.T) {
	t.Parallel()

	s := New(&countingCreator{}, &countingTrigger{}, Config{
		MinChallengesPerDay: 2,
		MaxChallengesPerDay: 3,
		DisasterInterval:    time.Hour,
	}, clockwork.NewFakeClock())

	for run := 0; run < 100; run++ {
		delays := s.planDay()
		if len(delays) < 2 || len(delays) > 3 {
			t.Fatalf("planned %d challenges, want 2 or 3", len(delays))
		}
		for i, d := range delays {
			if d < 0 || d >= 24*time.Hour {
				t.Fatalf("delay %v outside the day window", d)
			}
			if i > 0 && delays[i-1] > d {
				t.Fatalf("delays not sorted: %v", delays)
			}
		}
	}
}

func TestPlanDayFixedCount(t *testing.T) {
	t.Parallel()

	s := New(&countingCreator{}, &countingTrigger{}, Config{
		MinChallengesPerDay: 2,
		MaxChallengesPerDay: 2,
		DisasterInterval:    time.Hour,
	}, clockwork.NewFakeClock())

	if got := len(s.planDay()); got != 2 {
		t.Fatalf("planned %d challenges, want exactly 2", got)
	}
}

func TestSleepCancellation(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	s := New(&countingCreator{}, &countingTrigger{}, DefaultConfig(), clock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if s.sleep(ctx, time.Hour) {
		t.Fatal("sleep should report cancellation")
	}
	if s.sleep(ctx, 0) {
		t.Fatal("zero sleep on a cancelled context should report cancellation")
	}
}

func TestRunDisastersFiresOnInterval(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	trigger := &countingTrigger{}
	s := New(&countingCreator{}, trigger, Config{
		MinChallengesPerDay: 1,
		MaxChallengesPerDay: 1,
		DisasterInterval:    time.Hour,
	}, clock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.runDisasters(ctx)
		close(done)
	}()

	clock.BlockUntilContext(ctx, 1)
	clock.Advance(time.Hour)

	deadline := time.After(2 * time.Second)
	for trigger.calls() < 1 {
		select {
		case <-deadline:
			t.Fatal("disaster did not fire after one interval")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	cancel()
	<-done
}
