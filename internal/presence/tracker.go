// Package presence tracks which actors are rendering pages.
//
// The server records every page render against its actor. A background
// reaper marks actors idle once they stop rendering and later forgets them,
// so the roster only reflects recent activity.
package presence

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Entry is one actor's render activity.
type Entry struct {
	Actor       string    `json:"actor"`
	FirstSeen   time.Time `json:"first_seen"`
	LastSeen    time.Time `json:"last_seen"`
	LastPageID  string    `json:"last_page_id"`
	RenderCount int64     `json:"render_count"`
	IdleSecs    float64   `json:"idle_secs"`
	Idle        bool      `json:"idle,omitempty"`
}

// ReaperConfig configures the background idle reaper.
type ReaperConfig struct {
	// IdleAfter is how long an actor may go without rendering before it is
	// marked idle. Default: 15 minutes.
	IdleAfter time.Duration

	// EvictAfter is how long an idle actor is kept before it is dropped.
	// Default: 1 hour.
	EvictAfter time.Duration

	// SweepInterval is how often the reaper scans. Default: 1 minute.
	SweepInterval time.Duration

	// OnIdle is called, outside the lock, for each actor newly marked idle.
	OnIdle func(actor string)

	Logger *slog.Logger
}

// Tracker is an in-memory roster of rendering actors. The zero value is not
// usable; call New.
type Tracker struct {
	mu     sync.RWMutex
	actors map[string]*actorState
	now    func() time.Time

	stop chan struct{}
	done chan struct{}
}

type actorState struct {
	firstSeen time.Time
	lastSeen  time.Time
	lastPage  string
	renders   int64
	idleSince time.Time
}

// New returns an empty tracker.
func New() *Tracker {
	return &Tracker{
		actors: make(map[string]*actorState),
		now:    time.Now,
	}
}

// RecordRender notes that actor rendered pageID. Anonymous renders are not
// tracked.
func (t *Tracker) RecordRender(actor, pageID string) {
	if actor == "" {
		return
	}
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.actors[actor]
	if !ok {
		st = &actorState{firstSeen: now}
		t.actors[actor] = st
	}
	st.lastSeen = now
	st.lastPage = pageID
	st.renders++
	st.idleSince = time.Time{}
}

// Roster returns every tracked actor, most recently active first. When
// within is positive, actors last seen longer ago are left out.
func (t *Tracker) Roster(within time.Duration) []Entry {
	now := t.now()

	t.mu.RLock()
	entries := make([]Entry, 0, len(t.actors))
	for actor, st := range t.actors {
		idle := now.Sub(st.lastSeen)
		if within > 0 && idle > within {
			continue
		}
		entries = append(entries, Entry{
			Actor:       actor,
			FirstSeen:   st.firstSeen,
			LastSeen:    st.lastSeen,
			LastPageID:  st.lastPage,
			RenderCount: st.renders,
			IdleSecs:    idle.Seconds(),
			Idle:        !st.idleSince.IsZero(),
		})
	}
	t.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].LastSeen.Equal(entries[j].LastSeen) {
			return entries[i].Actor < entries[j].Actor
		}
		return entries[i].LastSeen.After(entries[j].LastSeen)
	})
	return entries
}

// StartReaper launches the idle reaper. Call Stop to shut it down.
func (t *Tracker) StartReaper(cfg ReaperConfig) {
	if cfg.IdleAfter <= 0 {
		cfg.IdleAfter = 15 * time.Minute
	}
	if cfg.EvictAfter <= 0 {
		cfg.EvictAfter = time.Hour
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	t.stop = make(chan struct{})
	t.done = make(chan struct{})
	go t.reapLoop(cfg)
	cfg.Logger.Info("presence: reaper started", "idle_after", cfg.IdleAfter, "sweep_interval", cfg.SweepInterval)
}

// Stop shuts down the reaper, if running.
func (t *Tracker) Stop() {
	if t.stop == nil {
		return
	}
	close(t.stop)
	<-t.done
	t.stop, t.done = nil, nil
}

func (t *Tracker) reapLoop(cfg ReaperConfig) {
	defer close(t.done)

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			t.sweep(cfg)
		}
	}
}

func (t *Tracker) sweep(cfg ReaperConfig) {
	now := t.now()
	var newlyIdle []string

	t.mu.Lock()
	for actor, st := range t.actors {
		if !st.idleSince.IsZero() {
			if now.Sub(st.idleSince) > cfg.EvictAfter {
				delete(t.actors, actor)
			}
			continue
		}
		if now.Sub(st.lastSeen) > cfg.IdleAfter {
			st.idleSince = now
			newlyIdle = append(newlyIdle, actor)
		}
	}
	t.mu.Unlock()

	for _, actor := range newlyIdle {
		cfg.Logger.Debug("presence: actor idle", "actor", actor)
		if cfg.OnIdle != nil {
			cfg.OnIdle(actor)
		}
	}
}
