// Package store is the in-memory session collection. It is the single
// owner of session data: every accessor returns deep copies, and every
// mutation happens under the store's lock through a narrow update surface.
// Media attachments arriving after a session changed underneath them are
// rejected by revision check rather than racing.
package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"conceptlens/internal/logging"
	"conceptlens/internal/types"
)

// Store holds all sessions for one client run. Sessions live only in
// memory; a restart starts empty.
type Store struct {
	mu        sync.RWMutex
	sessions  []types.Session
	currentID string
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// Create adds a new session from a finished analysis and selects it.
// Returns a copy of the created session.
func (s *Store) Create(input types.TopicInput, level types.EducationLevel, result types.AnalysisResult) types.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := types.Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		Level:     level,
		Input:     input,
		Result:    result,
	}
	s.sessions = append(s.sessions, session)
	s.currentID = session.ID

	logging.Store("created session %s level=%q title=%q", session.ID, level, result.SummaryTitle)
	return session.Clone()
}

// Select makes the given session current. Returns false if it does not
// exist, leaving the selection unchanged.
func (s *Store) Select(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, session := range s.sessions {
		if session.ID == id {
			s.currentID = id
			return true
		}
	}
	return false
}

// ClearSelection deselects the current session without deleting anything.
func (s *Store) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentID = ""
}

// CurrentID returns the selected session's ID, or empty.
func (s *Store) CurrentID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentID
}

// Current returns a copy of the selected session.
func (s *Store) Current() (types.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findLocked(s.currentID)
}

// Get returns a copy of the session with the given ID.
func (s *Store) Get(id string) (types.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findLocked(id)
}

func (s *Store) findLocked(id string) (types.Session, bool) {
	if id == "" {
		return types.Session{}, false
	}
	for _, session := range s.sessions {
		if session.ID == id {
			return session.Clone(), true
		}
	}
	return types.Session{}, false
}

// Delete removes a session. Deleting the current session clears the
// selection; nothing is auto-selected in its place. Returns false if the
// session does not exist.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, session := range s.sessions {
		if session.ID == id {
			s.sessions = append(s.sessions[:i], s.sessions[i+1:]...)
			if s.currentID == id {
				s.currentID = ""
			}
			logging.Store("deleted session %s", id)
			return true
		}
	}
	return false
}

// List returns copies of all sessions in creation order.
func (s *Store) List() []types.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Session, len(s.sessions))
	for i, session := range s.sessions {
		out[i] = session.Clone()
	}
	return out
}

// ListNewestFirst returns copies of all sessions, most recent first, for
// history display.
func (s *Store) ListNewestFirst() []types.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Session, len(s.sessions))
	for i, session := range s.sessions {
		out[len(s.sessions)-1-i] = session.Clone()
	}
	return out
}

// ResultPatch atomically replaces a session's analysis at a new level.
// Applying it bumps the revision, clears generated media, and resets the
// chat thread, since all of those were derived from the replaced analysis.
type ResultPatch struct {
	Level  types.EducationLevel
	Result types.AnalysisResult
}

// Patch describes one atomic session update. Nil fields are untouched.
type Patch struct {
	Result   *ResultPatch
	ImageURL *string
	VideoURL *string

	// RequireRev, when set, makes the whole patch conditional: it applies
	// only if the session's ResultRev still equals this value. Stale async
	// media writes are dropped this way.
	RequireRev *int
}

// Update applies a patch to the session with the given ID. Returns false
// when the session is gone or the revision check fails; both are silent
// no-ops by design of the callers.
func (s *Store) Update(id string, p Patch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.sessions {
		if s.sessions[i].ID != id {
			continue
		}
		session := &s.sessions[i]

		if p.RequireRev != nil && session.ResultRev != *p.RequireRev {
			logging.Store("dropped stale update for session %s (rev %d != %d)", id, *p.RequireRev, session.ResultRev)
			return false
		}

		if p.Result != nil {
			session.Level = p.Result.Level
			session.Result = p.Result.Result
			session.ResultRev++
			session.GeneratedImageURL = ""
			session.GeneratedVideoURL = ""
			session.ChatHistory = nil
			logging.Store("session %s re-analyzed at level %q (rev %d)", id, p.Result.Level, session.ResultRev)
		}
		if p.ImageURL != nil {
			session.GeneratedImageURL = *p.ImageURL
		}
		if p.VideoURL != nil {
			session.GeneratedVideoURL = *p.VideoURL
		}
		return true
	}
	return false
}

// AppendMessage adds a message to a session's transcript and returns its
// index for later amendment. Returns ok=false if the session is gone.
func (s *Store) AppendMessage(id string, msg types.ChatMessage) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.sessions {
		if s.sessions[i].ID == id {
			s.sessions[i].ChatHistory = append(s.sessions[i].ChatHistory, msg)
			return len(s.sessions[i].ChatHistory) - 1, true
		}
	}
	return 0, false
}

// MessageAmend describes the single allowed post-hoc edit of a model
// message: resolving its pending media state.
type MessageAmend struct {
	MediaURL   string
	AppendText string

	// ClearGenerating drops the in-flight marker. Always set by callers;
	// a message is amended at most once.
	ClearGenerating bool
}

// AmendMessage applies an amend to the message at index idx. Returns false
// when the session is gone or the index is out of range (the chat thread
// was reset underneath the pending media job). Either way the caller just
// drops the result.
func (s *Store) AmendMessage(id string, idx int, amend MessageAmend) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.sessions {
		if s.sessions[i].ID != id {
			continue
		}
		history := s.sessions[i].ChatHistory
		if idx < 0 || idx >= len(history) {
			logging.Store("dropped message amend for session %s (index %d gone)", id, idx)
			return false
		}
		if amend.MediaURL != "" {
			history[idx].MediaURL = amend.MediaURL
		}
		if amend.AppendText != "" {
			history[idx].Text += amend.AppendText
		}
		if amend.ClearGenerating {
			history[idx].IsGeneratingMedia = false
		}
		return true
	}
	return false
}

// HasPendingMedia reports whether any message in the session still has
// media generation in flight. Chat input is gated on this.
func (s *Store) HasPendingMedia(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.sessions {
		if s.sessions[i].ID != id {
			continue
		}
		for _, msg := range s.sessions[i].ChatHistory {
			if msg.IsGeneratingMedia {
				return true
			}
		}
		return false
	}
	return false
}

// Len returns the number of sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
