// Package session runs analyses in the background and keeps their results
// available for polling.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/access-log-analyzer/backend/internal/artifacts"
	"github.com/access-log-analyzer/backend/internal/logging"
	"github.com/access-log-analyzer/backend/internal/models"
	"github.com/access-log-analyzer/backend/internal/pipeline"
)

// ErrTooManySessions is returned when MaxSessions sessions exist and none of
// them has finished.
var ErrTooManySessions = errors.New("too many active analysis sessions")

// DefaultMaxSessions limits retained sessions to prevent memory exhaustion
const DefaultMaxSessions = 10

// SessionKeepAliveWindow is how long to keep sessions that are actively being used
const SessionKeepAliveWindow = 5 * time.Minute

// Config configures a Manager.
type Config struct {
	// Pipeline is the template for every run; OnProgress is replaced.
	Pipeline pipeline.Options
	// OutputDir receives report and chart files.
	OutputDir string
	Charts    bool
	// MaxSessions bounds retained sessions, DefaultMaxSessions when zero.
	MaxSessions int
	// MaxConcurrent bounds analyses running at once, unlimited when zero.
	MaxConcurrent int
	// OnDone is called once a session reaches a terminal state.
	OnDone func(models.AnalysisSession)
	Logger *slog.Logger
}

// Manager handles analysis sessions.
type Manager struct {
	cfg    Config
	log    *slog.Logger
	writer *artifacts.Writer
	slots  chan struct{}

	mu       sync.RWMutex
	sessions map[string]*sessionState

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type sessionState struct {
	Session      *models.AnalysisSession
	LastAccessed time.Time
}

// NewManager creates a session manager.
func NewManager(cfg Config) *Manager {
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = DefaultMaxSessions
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Discard()
	}
	if cfg.Pipeline.Logger == nil {
		cfg.Pipeline.Logger = log
	}

	m := &Manager{
		cfg: cfg,
		log: log.With("component", "session"),
		writer: &artifacts.Writer{
			Dir:    cfg.OutputDir,
			Charts: cfg.Charts,
			Logger: log,
		},
		sessions: make(map[string]*sessionState),
	}
	if cfg.MaxConcurrent > 0 {
		m.slots = make(chan struct{}, cfg.MaxConcurrent)
	}
	m.ctx, m.cancel = context.WithCancel(context.Background())
	return m
}

// StartSession registers a session for the file at filePath and analyzes it
// in a background goroutine.
func (m *Manager) StartSession(fileID, fileName, filePath string) (*models.AnalysisSession, error) {
	sess, err := m.register(fileID, fileName)
	if err != nil {
		return nil, err
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.run(m.ctx, sess.ID, filePath)
	}()
	return sess, nil
}

// AnalyzeNow registers a session and analyzes the file before returning.
// The returned error is the analysis error, for callers that map it onto a
// response; the session records it too.
func (m *Manager) AnalyzeNow(ctx context.Context, fileID, fileName, filePath string) (*models.AnalysisSession, error) {
	sess, err := m.register(fileID, fileName)
	if err != nil {
		return nil, err
	}

	runErr := m.run(ctx, sess.ID, filePath)
	final, _ := m.GetSession(sess.ID)
	return final, runErr
}

func (m *Manager) register(fileID, fileName string) (*models.AnalysisSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) >= m.cfg.MaxSessions {
		m.evictFinishedLocked(len(m.sessions) - m.cfg.MaxSessions + 1)
	}
	if len(m.sessions) >= m.cfg.MaxSessions {
		return nil, ErrTooManySessions
	}

	id := uuid.New().String()
	sess := models.NewAnalysisSession(id, fileID, fileName)
	m.sessions[id] = &sessionState{Session: sess, LastAccessed: time.Now()}

	cp := *sess
	return &cp, nil
}

func (m *Manager) run(ctx context.Context, id, filePath string) (err error) {
	log := m.log.With("session", shortID(id))

	// Recover from panics to prevent backend crash
	defer func() {
		if r := recover(); r != nil {
			log.Error("analysis_panic", "panic", r)
			err = fmt.Errorf("analysis panicked: %v", r)
			m.fail(id, err, nil)
		}
	}()

	if m.slots != nil {
		select {
		case m.slots <- struct{}{}:
			defer func() { <-m.slots }()
		case <-ctx.Done():
			m.fail(id, ctx.Err(), nil)
			return ctx.Err()
		}
	}

	start := time.Now()
	m.update(id, func(s *models.AnalysisSession) {
		s.Status = models.SessionStatusAnalyzing
		s.StartTime = start.UnixMilli()
		s.Progress = 10
	})

	opts := m.cfg.Pipeline
	opts.Logger = log
	opts.OnProgress = func(p pipeline.Progress) {
		progress := 10.0
		if pct := p.Percent(); pct >= 0 {
			progress = 10 + pct*0.8
		}
		m.update(id, func(s *models.AnalysisSession) {
			s.Progress = progress
			s.LinesProcessed = p.Lines
		})
	}

	snap, err := pipeline.Run(ctx, filePath, opts)
	if err != nil {
		m.fail(id, err, snap)
		return err
	}

	arts, _, err := m.writer.Write(snap, shortID(id))
	if err != nil {
		log.Error("artifacts_failed", "error", err)
		m.fail(id, err, snap)
		return err
	}

	end := time.Now()
	m.finish(id, func(s *models.AnalysisSession) {
		s.Status = models.SessionStatusComplete
		s.Progress = 100
		s.LinesProcessed = snap.Reading.TotalLines
		s.Snapshot = snap
		s.Artifacts = arts
		s.EndTime = end.UnixMilli()
		s.ProcessingTimeMs = end.Sub(start).Milliseconds()
	})
	return nil
}

func (m *Manager) fail(id string, err error, snap *models.Snapshot) {
	m.log.Warn("analysis_failed", "session", shortID(id), "error", err)
	m.finish(id, func(s *models.AnalysisSession) {
		s.Status = models.SessionStatusError
		s.Error = err.Error()
		s.Snapshot = snap
		s.EndTime = time.Now().UnixMilli()
		if s.StartTime > 0 {
			s.ProcessingTimeMs = s.EndTime - s.StartTime
		}
	})
}

func (m *Manager) update(id string, fn func(*models.AnalysisSession)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if state, ok := m.sessions[id]; ok {
		fn(state.Session)
	}
}

// finish applies fn and then notifies OnDone outside the lock.
func (m *Manager) finish(id string, fn func(*models.AnalysisSession)) {
	m.mu.Lock()
	state, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	fn(state.Session)
	done := *state.Session
	m.mu.Unlock()

	if m.cfg.OnDone != nil {
		m.cfg.OnDone(done)
	}
}

// evictFinishedLocked drops up to n finished sessions, least recently
// accessed first.
func (m *Manager) evictFinishedLocked(n int) {
	for ; n > 0; n-- {
		var oldestID string
		var oldest time.Time
		for id, state := range m.sessions {
			if !state.Session.Done() {
				continue
			}
			if oldestID == "" || state.LastAccessed.Before(oldest) {
				oldestID, oldest = id, state.LastAccessed
			}
		}
		if oldestID == "" {
			return
		}
		delete(m.sessions, oldestID)
		m.log.Info("session_evicted", "session", shortID(oldestID))
	}
}

// CleanupOldSessions removes finished sessions not accessed within maxAge.
// Sessions accessed within SessionKeepAliveWindow are always kept.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-maxAge)
	keepAliveCutoff := now.Add(-SessionKeepAliveWindow)

	removed := 0
	for id, state := range m.sessions {
		if !state.Session.Done() {
			continue
		}
		if state.LastAccessed.After(keepAliveCutoff) || !state.LastAccessed.Before(cutoff) {
			continue
		}
		delete(m.sessions, id)
		removed++
		m.log.Info("session_expired", "session", shortID(id),
			"idle", now.Sub(state.LastAccessed).Round(time.Second))
	}
	return removed
}

// StartCleanupRoutine runs CleanupOldSessions every interval until ctx ends.
func (m *Manager) StartCleanupRoutine(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.CleanupOldSessions(maxAge)
			}
		}
	}()
}

// GetSession returns a copy of the session.
func (m *Manager) GetSession(id string) (*models.AnalysisSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	cp := *state.Session
	return &cp, true
}

// TouchSession marks a session as recently used.
func (m *Manager) TouchSession(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if ok {
		state.LastAccessed = time.Now()
	}
	return ok
}

// Len returns the number of retained sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Shutdown cancels running analyses and waits for them to stop or for ctx
// to end.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.cancel()
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
