package interview

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultPassPercentage applies when setup supplies no threshold.
const DefaultPassPercentage = 50

// Registry is the single source of truth for live sessions. The map itself is
// guarded by mu; every per-session mutation goes through update, which locks
// only the affected session so sessions never block each other.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*session

	maxDuration time.Duration
	now         func() time.Time
	logger      *slog.Logger
}

// NewRegistry creates an empty registry. maxDuration bounds every session's
// lifetime (expiresAt = createdAt + maxDuration).
func NewRegistry(maxDuration time.Duration, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		sessions:    make(map[string]*session),
		maxDuration: maxDuration,
		now:         time.Now,
		logger:      logger,
	}
}

// Create allocates a new session in Dialing. callSID may be supplied by the
// telephony provider; when empty a fresh SID is generated and can never
// collide. A caller-supplied SID that already exists fails with
// DuplicateSession.
func (r *Registry) Create(callSID, phoneNumber string, queue []string, passPercentage int) (Snapshot, error) {
	if callSID == "" {
		callSID = generateSID()
	}
	if passPercentage <= 0 || passPercentage > 100 {
		passPercentage = DefaultPassPercentage
	}
	q := make([]string, len(queue))
	copy(q, queue)

	now := r.now()
	s := &session{
		callSID:        callSID,
		phoneNumber:    phoneNumber,
		status:         StatusDialing,
		queue:          q,
		scores:         make([]int, 0, len(q)),
		passPercentage: passPercentage,
		createdAt:      now,
		updatedAt:      now,
		expiresAt:      now.Add(r.maxDuration),
	}

	r.mu.Lock()
	if _, exists := r.sessions[callSID]; exists {
		r.mu.Unlock()
		return Snapshot{}, &Error{Type: ErrDuplicateSession, Message: "session " + callSID + " already exists"}
	}
	r.sessions[callSID] = s
	r.mu.Unlock()

	r.logger.Info("session created", "call_sid", callSID, "questions", len(q), "expires_at", s.expiresAt)
	return s.snapshot(), nil
}

// Get returns a consistent snapshot of one session.
func (r *Registry) Get(callSID string) (Snapshot, error) {
	s, err := r.lookup(callSID)
	if err != nil {
		return Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(), nil
}

// ListActive returns lightweight summaries of all non-terminal sessions,
// ordered by creation-recency-independent SID for stable dashboard rendering.
// Each summary is internally consistent; the list as a whole is assembled
// session by session.
func (r *Registry) ListActive() []Summary {
	r.mu.RLock()
	live := make([]*session, 0, len(r.sessions))
	for _, s := range r.sessions {
		live = append(live, s)
	}
	r.mu.RUnlock()

	out := make([]Summary, 0, len(live))
	for _, s := range live {
		s.mu.Lock()
		if !s.status.Terminal() {
			out = append(out, s.summary())
		}
		s.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CallSID < out[j].CallSID })
	return out
}

// Transition applies one state-machine step atomically.
func (r *Registry) Transition(callSID string, to Status) error {
	return r.update(callSID, func(s *session) error {
		if !s.status.canTransition(to) {
			return invalidTransition(callSID, s.status, to)
		}
		s.status = to
		return nil
	})
}

// Fail force-transitions a non-terminal session to Failed with the given
// reason and logs a system entry.
func (r *Registry) Fail(callSID, reason string) error {
	return r.update(callSID, func(s *session) error {
		if !s.status.canTransition(StatusFailed) {
			return invalidTransition(callSID, s.status, StatusFailed)
		}
		s.status = StatusFailed
		s.failReason = reason
		s.pendingPrompt = ""
		s.appendEntry(RoleSystem, "call failed: "+reason, r.now())
		r.logger.Warn("session failed", "call_sid", callSID, "reason", reason)
		return nil
	})
}

// Append adds one transcript entry to a live session. Terminal sessions are
// immutable.
func (r *Registry) Append(callSID string, role Role, text string) error {
	return r.update(callSID, func(s *session) error {
		if s.status.Terminal() {
			return invalidTransition(callSID, s.status, s.status)
		}
		s.appendEntry(role, text, r.now())
		return nil
	})
}

// Remove deletes a terminal session; no-op if absent, InvalidTransition if the
// session is still live.
func (r *Registry) Remove(callSID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[callSID]
	if !ok {
		return nil
	}
	s.mu.Lock()
	terminal := s.status.Terminal()
	s.mu.Unlock()
	if !terminal {
		return &Error{Type: ErrInvalidTransition, Message: "session " + callSID + " is not terminal"}
	}
	delete(r.sessions, callSID)
	return nil
}

// Len reports the number of tracked sessions, terminal included.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// update is the single mutation entry point: it serializes writes per session
// and bumps updatedAt on success so snapshots are immediately consistent.
func (r *Registry) update(callSID string, fn func(*session) error) error {
	s, err := r.lookup(callSID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(s); err != nil {
		return err
	}
	s.updatedAt = r.now()
	return nil
}

func (r *Registry) lookup(callSID string) (*session, error) {
	r.mu.RLock()
	s, ok := r.sessions[callSID]
	r.mu.RUnlock()
	if !ok {
		return nil, notFound(callSID)
	}
	return s, nil
}

// sweep fails expired live sessions and evicts terminal sessions whose
// retention window has elapsed. Used by the reaper.
func (r *Registry) sweep(now time.Time, retention time.Duration) (failed, evicted int) {
	r.mu.RLock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	var stale []string
	for _, id := range ids {
		s, err := r.lookup(id)
		if err != nil {
			continue
		}
		s.mu.Lock()
		switch {
		case !s.status.Terminal() && now.After(s.expiresAt):
			s.status = StatusFailed
			s.failReason = "timeout"
			s.pendingPrompt = ""
			s.appendEntry(RoleSystem, "call failed: timeout", now)
			s.updatedAt = now
			failed++
			r.logger.Warn("session expired", "call_sid", id, "expired_at", s.expiresAt)
		case s.status.Terminal() && now.Sub(s.updatedAt) > retention:
			stale = append(stale, id)
		}
		s.mu.Unlock()
	}

	if len(stale) > 0 {
		r.mu.Lock()
		for _, id := range stale {
			delete(r.sessions, id)
			evicted++
		}
		r.mu.Unlock()
	}
	return failed, evicted
}

// generateSID mints a provider-style call SID. Internally generated SIDs are
// UUID-backed and never collide within a process.
func generateSID() string {
	return "CA" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
