package app

import (
	"log"
	"time"
)

// Start starts hand tracking and the tick loop. If tracking cannot start the
// loop still runs with no hands, so the HTTP and tray controls keep working.
func (a *App) Start() {
	a.mu.Lock()
	if a.stopCh != nil {
		a.mu.Unlock()
		return
	}
	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	stop, done := a.stopCh, a.done
	a.mu.Unlock()

	if err := a.SetTracking(true); err != nil {
		log.Printf("app: tracking disabled: %v", err)
	}

	go a.runLoop(stop, done)
	log.Printf("app: tick loop started at %d Hz", a.cfg.TickHz)
}

// Stop halts the tick loop and tracking. Safe to call more than once.
func (a *App) Stop() {
	a.mu.Lock()
	if a.stopCh == nil {
		a.mu.Unlock()
		return
	}
	close(a.stopCh)
	done := a.done
	a.stopCh = nil
	a.done = nil
	a.mu.Unlock()

	<-done
	if err := a.SetTracking(false); err != nil {
		log.Printf("app: stop tracking: %v", err)
	}
	log.Println("app: tick loop stopped")
}

func (a *App) runLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(time.Second / time.Duration(a.cfg.TickHz))
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			a.Tick()
		}
	}
}
