package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/choiway/photoguess/internal/game"
	"github.com/choiway/photoguess/internal/storage"
)

// Session owns the single game. Every transition runs under mu and is
// followed by saving a snapshot, so concurrent requests see whole
// transitions only.
type Session struct {
	mu     sync.Mutex
	game   *game.Game
	store  storage.Store
	logger *slog.Logger
}

// NewSession wraps g and resumes the snapshot in store, if any. A snapshot
// that no longer matches the loaded photos is discarded.
func NewSession(ctx context.Context, g *game.Game, store storage.Store, logger *slog.Logger) *Session {
	s := &Session{game: g, store: store, logger: logger}
	if store == nil {
		return s
	}

	raw, ok, err := store.Get(ctx, game.StorageKey)
	switch {
	case err != nil:
		logger.Warn("loading saved game failed, starting fresh", "error", err)
	case !ok:
	default:
		var snap game.Snapshot
		if err := json.Unmarshal([]byte(raw), &snap); err != nil {
			logger.Warn("saved game unreadable, starting fresh", "error", err)
			break
		}
		if err := g.Restore(snap); err != nil {
			logger.Warn("saved game discarded", "error", err)
			break
		}
		logger.Info("resumed saved game", "phase", snap.Phase, "session", snap.SessionID)
	}
	return s
}

// State returns the current view.
func (s *Session) State() game.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.State()
}

// Do applies fn to the game and persists the result. The returned state is
// taken under the same lock as fn.
func (s *Session) Do(ctx context.Context, fn func(*game.Game) error) (game.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(s.game); err != nil {
		return s.game.State(), err
	}
	if err := s.save(ctx); err != nil {
		s.logger.Error("saving game failed", "error", err)
	}
	return s.game.State(), nil
}

func (s *Session) save(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	data, err := json.Marshal(s.game.Snapshot())
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	// The snapshot is saved even if the request has gone away.
	return s.store.Set(context.WithoutCancel(ctx), game.StorageKey, string(data))
}
