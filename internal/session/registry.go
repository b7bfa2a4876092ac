// Package session hosts live games. Each game runs in its own actor
// goroutine; the registry maps game codes to those actors.
package session

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/KirkDiggler/megapoly/internal/common/apperr"
	"github.com/KirkDiggler/megapoly/internal/common/clock"
	"github.com/KirkDiggler/megapoly/internal/common/uuid"
	"github.com/KirkDiggler/megapoly/internal/engine"
	"github.com/KirkDiggler/megapoly/internal/models"
)

const (
	// CodeLength is the number of characters in a game code
	CodeLength = 6

	defaultCodeAttempts = 10
)

// Config holds the collaborators of a Registry
type Config struct {
	Engine        *engine.Engine
	Clock         clock.Clock
	UUIDGenerator uuid.UUID

	// Logger defaults to a no-op logger
	Logger *zap.SugaredLogger

	// Hooks run after every committed change, in order
	Hooks []Hook

	// CodeAttempts bounds retries when a generated code collides
	CodeAttempts int
}

// Registry tracks every live game instance by code
type Registry struct {
	engine   *engine.Engine
	clock    clock.Clock
	uuid     uuid.UUID
	log      *zap.SugaredLogger
	attempts int

	mu     sync.RWMutex
	games  map[string]*Instance
	hooks  []Hook
	closed bool
}

// NewRegistry creates an empty registry
func NewRegistry(cfg *Config) (*Registry, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if cfg.Engine == nil {
		return nil, ErrNilEngine
	}
	if cfg.Clock == nil {
		return nil, ErrNilClock
	}
	if cfg.UUIDGenerator == nil {
		return nil, ErrNilUUIDGenerator
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	attempts := cfg.CodeAttempts
	if attempts <= 0 {
		attempts = defaultCodeAttempts
	}

	return &Registry{
		engine:   cfg.Engine,
		clock:    cfg.Clock,
		uuid:     cfg.UUIDGenerator,
		log:      log,
		attempts: attempts,
		games:    make(map[string]*Instance),
		hooks:    append([]Hook(nil), cfg.Hooks...),
	}, nil
}

// OnEvent registers a hook for every game, including ones already running
func (r *Registry) OnEvent(h Hook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, h)
}

func (r *Registry) currentHooks() []Hook {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hooks
}

// Create starts a new lobby under a fresh code. The first player hosts.
func (r *Registry) Create(ctx context.Context, players []engine.PlayerSpec, channelID string) (*Instance, *models.Game, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, nil, ErrRegistryClosed
	}

	code := ""
	for n := 0; n < r.attempts; n++ {
		candidate := uuid.ShortCode(r.uuid, CodeLength)
		if _, taken := r.games[candidate]; !taken {
			code = candidate
			break
		}
		r.log.Debugw("Game code collision", "code", candidate)
	}
	if code == "" {
		r.mu.Unlock()
		return nil, nil, ErrCodeExhausted
	}

	g, err := r.engine.NewGame(code, channelID, players)
	if err != nil {
		r.mu.Unlock()
		return nil, nil, err
	}
	inst := newInstance(g, r.engine, r.clock, r.log, r.currentHooks)
	r.games[code] = inst
	r.mu.Unlock()

	var snap *models.Game
	if err := inst.do(ctx, func() {
		snap = inst.game.Clone()
		inst.publish(Event{Kind: EventCreated, Game: snap, PlayerID: g.HostPlayerID})
	}); err != nil {
		return nil, nil, err
	}

	r.log.Infow("Created game", "game_id", code, "players", len(players), "channel_id", channelID)
	return inst, snap, nil
}

// Restore resumes a persisted game under its existing code. No hooks run.
func (r *Registry) Restore(g *models.Game) (*Instance, error) {
	if g == nil || g.ID == "" {
		return nil, apperr.InvalidIntent("cannot restore a game without an id")
	}
	if err := engine.CheckInvariants(g); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrRegistryClosed
	}
	if _, exists := r.games[g.ID]; exists {
		return nil, apperr.InvalidIntent("game %s is already running", g.ID)
	}

	inst := newInstance(g.Clone(), r.engine, r.clock, r.log, r.currentHooks)
	r.games[g.ID] = inst
	r.log.Infow("Restored game", "game_id", g.ID, "version", g.Version)
	return inst, nil
}

// Lookup finds a live game by code
func (r *Registry) Lookup(code string) (*Instance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.games[code]
	if !ok {
		return nil, apperr.NotFound("game %s not found", code)
	}
	return inst, nil
}

// Destroy stops a game and removes it, returning its final state
func (r *Registry) Destroy(ctx context.Context, code string) (*models.Game, error) {
	r.mu.Lock()
	inst, ok := r.games[code]
	if ok {
		delete(r.games, code)
	}
	r.mu.Unlock()
	if !ok {
		return nil, apperr.NotFound("game %s not found", code)
	}

	snap, err := inst.Snapshot(ctx)
	inst.close()
	if err != nil {
		return nil, err
	}
	r.log.Infow("Destroyed game", "game_id", code)
	return snap, nil
}

// List returns every live instance ordered by code
func (r *Registry) List() []*Instance {
	r.mu.RLock()
	out := make([]*Instance, 0, len(r.games))
	for _, inst := range r.games {
		out = append(out, inst)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(a, b int) bool { return out[a].code < out[b].code })
	return out
}

// Close stops every instance. The registry accepts no new games afterwards.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	games := r.games
	r.games = make(map[string]*Instance)
	r.mu.Unlock()

	for _, inst := range games {
		inst.close()
	}
}
