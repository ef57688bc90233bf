package game

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Notifier receives engine-initiated pushes. The transport layer implements
// it; the registry only calls it from the timer path, outside any lock.
type Notifier interface {
	SessionUpdated(sessionID string)
	RoundClosed(sessionID string, round Round)
}

// Registry tracks all live sessions and the connection-id -> session-id
// mapping, so the engine never holds transport-layer connection objects.
// Lock order is always registry before session, never the reverse.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	byPlayer map[string]string

	betTimeout time.Duration
	notify     Notifier
	newID      func() string
}

const idRetries = 10

func NewRegistry(betTimeout time.Duration, newID func() string) *Registry {
	return &Registry{
		sessions:   make(map[string]*Session),
		byPlayer:   make(map[string]string),
		betTimeout: betTimeout,
		newID:      newID,
	}
}

func (r *Registry) SetNotifier(n Notifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notify = n
}

// Create registers a new waiting session. The id generator is not
// collision-free; taken ids are retried and, past that, suffixed with a
// uuid fragment rather than overwriting the existing entry.
func (r *Registry) Create() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.newID()
	for i := 0; i < idRetries && r.sessions[id] != nil; i++ {
		id = r.newID()
	}
	for r.sessions[id] != nil {
		id = r.newID() + uuid.NewString()[:8]
	}

	s := newSession(id, r.betTimeout, r.resolveDeadline)
	r.sessions[id] = s
	log.Info().Str("session", id).Msg("session created")
	return s
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := r.sessions[id]
	if s == nil {
		return nil, ErrUnknownSession
	}
	return s, nil
}

// SessionFor resolves the session a connection currently belongs to.
func (r *Registry) SessionFor(playerID string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byPlayer[playerID]
	if !ok {
		return nil, ErrNotInSession
	}
	s := r.sessions[id]
	if s == nil {
		return nil, ErrUnknownSession
	}
	return s, nil
}

// Join adds a connection to a session and records the membership mapping.
func (r *Registry) Join(playerID, sessionID string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byPlayer[playerID]; ok {
		return nil, ErrAlreadyInSession
	}
	s := r.sessions[sessionID]
	if s == nil {
		return nil, ErrUnknownSession
	}
	if _, err := s.Join(playerID); err != nil {
		return nil, err
	}
	r.byPlayer[playerID] = sessionID
	return s, nil
}

// Leave removes a connection from its session. A session left empty is
// destroyed on the spot, whatever its lifecycle state.
func (r *Registry) Leave(playerID string) (*Session, LeaveResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byPlayer[playerID]
	if !ok {
		return nil, LeaveResult{}, ErrNotInSession
	}
	delete(r.byPlayer, playerID)
	s := r.sessions[id]
	if s == nil {
		return nil, LeaveResult{}, ErrUnknownSession
	}
	res := s.Leave(playerID)
	if res.Empty {
		delete(r.sessions, id)
		log.Info().Str("session", id).Msg("session destroyed, no players left")
	}
	return s, res, nil
}

// ListJoinable returns the lobby view: waiting sessions with a free seat.
func (r *Registry) ListJoinable() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.sessions))
	for id, s := range r.sessions {
		if s.Joinable() {
			ids = append(ids, id)
		}
	}
	return ids
}

// resolveDeadline is the autoplay timer callback. The session is re-fetched
// by id; a session torn down since arming is simply gone and the fire is a
// no-op, as is a fire that lost the race against a natural close.
func (r *Registry) resolveDeadline(sessionID string, roundID int) {
	s, err := r.Get(sessionID)
	if err != nil {
		return
	}
	closed, _ := s.resolveDeadline(roundID)
	if closed == nil {
		return
	}
	log.Info().Str("session", sessionID).Int("round", closed.ID).Msg("round closed by deadline")

	r.mu.RLock()
	n := r.notify
	r.mu.RUnlock()
	if n != nil {
		n.RoundClosed(sessionID, *closed)
		n.SessionUpdated(sessionID)
	}
}
