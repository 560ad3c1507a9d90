package worker

import (
	"sync"

	"github.com/glimpse-app/glimpse/internal/logger"
)

// Group tracks detached goroutines so the engine can drain them on shutdown.
// Tasks are fire-and-forget once spawned: nothing cancels them, Wait only
// blocks until they return. A panicking task is recovered and logged so a
// single bad action sequence cannot take the process down.
type Group struct {
	wg sync.WaitGroup
}

// Go runs fn on a new goroutine tracked by the group.
func (g *Group) Go(name string, fn func()) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				logger.L().Error("Task panicked", "task", name, "panic", r)
			}
		}()
		fn()
	}()
}

// Wait blocks until all tracked tasks have returned.
func (g *Group) Wait() {
	g.wg.Wait()
}
