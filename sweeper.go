package authkit

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/MrEthical07/authkit/refresh"
)

// sweeper periodically purges expired refresh-token records. It is hygiene,
// not correctness: validation rejects expired tokens on its own, the sweeper
// only bounds storage growth. A failed run is logged and the loop continues.
type sweeper struct {
	interval  time.Duration
	manager   *refresh.Manager
	afterRun  func(removed int)
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func newSweeper(interval time.Duration, manager *refresh.Manager, afterRun func(removed int)) *sweeper {
	s := &sweeper{
		interval: interval,
		manager:  manager,
		afterRun: afterRun,
		done:     make(chan struct{}),
	}

	s.wg.Add(1)
	go s.run()

	return s
}

func (s *sweeper) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(context.Background())
		case <-s.done:
			return
		}
	}
}

func (s *sweeper) sweep(ctx context.Context) {
	removed, err := s.manager.SweepExpired(ctx)
	if err != nil {
		log.Print("authkit: refresh token sweep failed")
		return
	}

	if s.afterRun != nil {
		s.afterRun(removed)
	}
}

// Close stops the loop. A sweep already in flight finishes first. Safe to
// call more than once.
func (s *sweeper) Close() {
	if s == nil {
		return
	}
	s.closeOnce.Do(func() {
		close(s.done)
		s.wg.Wait()
	})
}
