/*
scheduler.go - Automated lesson promotion scheduler

PURPOSE:
  Periodically promotes upcoming lessons whose date has arrived to
  "scheduled", so the day view shows them as due without waiting for a
  client to trigger the transition.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Delegates the actual promotion to the service (one partial update per
    institution that has due lessons)
  - A pass that finds nothing due writes nothing

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewLessonScheduler(svc)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - tutor/service.go: PromoteDueLessons
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/warp/studio-ledger/tutor"
)

// LessonScheduler promotes due lessons on a timer.
type LessonScheduler struct {
	Service       *tutor.Service
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewLessonScheduler creates a new scheduler over the service.
func NewLessonScheduler(svc *tutor.Service) *LessonScheduler {
	return &LessonScheduler{
		Service:       svc,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (ls *LessonScheduler) Start() {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if !ls.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	ls.ticker = time.NewTicker(ls.CheckInterval)
	ls.wg.Add(1)

	go ls.run()

	log.Printf("[Scheduler] Started with check interval: %v", ls.CheckInterval)
}

// Stop stops the scheduler.
func (ls *LessonScheduler) Stop() {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if ls.ticker != nil {
		ls.ticker.Stop()
		close(ls.stop)
		ls.wg.Wait()
		log.Println("[Scheduler] Stopped")
	}
}

func (ls *LessonScheduler) run() {
	defer ls.wg.Done()

	// Run immediately on start
	ls.promote()

	for {
		select {
		case <-ls.ticker.C:
			ls.promote()
		case <-ls.stop:
			return
		}
	}
}

func (ls *LessonScheduler) promote() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	moved, err := ls.Service.PromoteDueLessons(ctx)
	if err != nil {
		log.Printf("[Scheduler] Promotion pass failed: %v", err)
		return
	}
	if moved > 0 {
		log.Printf("[Scheduler] Promoted %d due lessons", moved)
	}
}
