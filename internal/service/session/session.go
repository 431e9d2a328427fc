package session

import (
	"sync"

	"gocv.io/x/gocv"

	"crowdwatch/internal/logger"
	"crowdwatch/internal/service/vision"
)

type uploadSession struct {
	source       FrameSource
	currentFrame int
	totalFrames  int
	tracker      *vision.Tracker
}

// Manager owns per-user upload analysis sessions: at most one per user,
// each with its own frame cursor and its own tracker instance. The single
// mutex is held for the full read-and-advance step, not just the lookup,
// so a concurrent replacement or teardown can never race an in-flight
// read.
type Manager struct {
	mu         sync.Mutex
	sessions   map[int64]*uploadSession
	openSource func(path string) (FrameSource, error)
	newTracker func() *vision.Tracker
	onReset    func(userID int64)
	logger     *logger.Logger
}

// NewManager creates a session manager. onReset is invoked (under the
// session lock) whenever a user's session is created or torn down, so
// occupancy state is invalidated atomically with session lifecycle.
func NewManager(newTracker func() *vision.Tracker, onReset func(userID int64), log *logger.Logger) *Manager {
	return &Manager{
		sessions:   make(map[int64]*uploadSession),
		openSource: OpenVideoFile,
		newTracker: newTracker,
		onReset:    onReset,
		logger:     log,
	}
}

// StartUpload opens mediaPath and replaces any prior session for the user.
// Returns the total frame count of the opened media.
func (m *Manager) StartUpload(userID int64, mediaPath string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.teardownLocked(userID)

	source, err := m.openSource(mediaPath)
	if err != nil {
		return 0, err
	}

	m.sessions[userID] = &uploadSession{
		source:      source,
		totalFrames: source.TotalFrames(),
		tracker:     m.newTracker(),
	}
	m.onReset(userID)

	m.logger.Info("Analysis session started for user %d: %d frames", userID, source.TotalFrames())
	return source.TotalFrames(), nil
}

// NextFrame pulls the next frame of the user's session and advances the
// cursor. Returns the frame, its 1-based number and the session's tracker.
// When the cursor reaches the total, or the underlying read fails, the
// session is torn down and ErrEndOfStream is returned. On error the frame
// is a zero placeholder holding no native resources.
func (m *Manager) NextFrame(userID int64) (gocv.Mat, int, *vision.Tracker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[userID]
	if !ok {
		return gocv.Mat{}, 0, nil, ErrNoActiveSession
	}

	if sess.currentFrame >= sess.totalFrames {
		m.teardownLocked(userID)
		return gocv.Mat{}, 0, nil, ErrEndOfStream
	}

	frame, ok := sess.source.Read()
	if !ok {
		// Media can legitimately truncate; treat as normal termination.
		m.logger.Warning("Frame read failed for user %d at frame %d, ending session", userID, sess.currentFrame)
		m.teardownLocked(userID)
		return gocv.Mat{}, 0, nil, ErrEndOfStream
	}

	sess.currentFrame++
	return frame, sess.currentFrame, sess.tracker, nil
}

// Stop tears down the user's session if one exists. Idempotent.
func (m *Manager) Stop(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teardownLocked(userID)
}

// Active reports whether the user has a running session.
func (m *Manager) Active(userID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[userID]
	return ok
}

// teardownLocked releases the media handle and removes the session entry.
// Caller holds m.mu.
func (m *Manager) teardownLocked(userID int64) {
	sess, ok := m.sessions[userID]
	if !ok {
		return
	}

	if err := sess.source.Close(); err != nil {
		m.logger.Error("Failed to release media handle for user %d: %v", userID, err)
	}
	delete(m.sessions, userID)
	m.onReset(userID)

	m.logger.Info("Analysis session torn down for user %d", userID)
}
