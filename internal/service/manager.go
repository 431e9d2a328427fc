package service

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/hybridgroup/mjpeg"
	"gocv.io/x/gocv"

	"crowdwatch/internal/dto"
	"crowdwatch/internal/logger"
	"crowdwatch/internal/model"
	"crowdwatch/internal/repository"
	"crowdwatch/internal/service/hub"
	"crowdwatch/internal/service/session"
	"crowdwatch/internal/service/storage"
	"crowdwatch/internal/service/vision"
	"crowdwatch/internal/service/zone"
)

// PersonDetector runs person detection on one frame. *vision.Pool
// implements it.
type PersonDetector interface {
	DetectPersons(frame gocv.Mat) ([]vision.Detection, error)
}

// HeatmapRenderer composites a density field over a frame. *vision.Heatmap
// implements it.
type HeatmapRenderer interface {
	Render(base gocv.Mat, centroids []image.Point) (gocv.Mat, error)
}

// OverlayRenderer annotates a frame with tracks and zones. *vision.Overlay
// implements it.
type OverlayRenderer interface {
	Render(base gocv.Mat, tracks []vision.Track, zones []model.Zone, counts map[int64]int) (gocv.Mat, error)
}

// UploadSessions is the per-user session surface the pipeline consumes.
// *session.Manager implements it.
type UploadSessions interface {
	StartUpload(userID int64, mediaPath string) (int, error)
	NextFrame(userID int64) (gocv.Mat, int, *vision.Tracker, error)
	Stop(userID int64)
}

// LiveSession is the shared camera surface. *session.Live implements it.
type LiveSession interface {
	Start() error
	Stop()
	Running() bool
	Read() (gocv.Mat, error)
	Tracker() *vision.Tracker
}

// Manager sequences the frame pipeline — detect, track, zone occupancy,
// heatmap, overlay, persist — and coordinates the live and upload session
// paths. Each analysis request runs the pipeline synchronously to
// completion; the detector pool bounds how many run at once.
type Manager struct {
	detectors     PersonDetector
	heatmap       HeatmapRenderer
	overlay       OverlayRenderer
	engine        *zone.Engine
	sessions      UploadSessions
	live          LiveSession
	uploads       *storage.UploadStore
	viewers       *hub.Hub
	zoneRepo      repository.ZoneRepository
	analyticsRepo repository.AnalyticsRepository
	logger        *logger.Logger

	previewStream *mjpeg.Stream
	previewFPS    int
	previewMu     sync.Mutex
	previewOn     bool
}

// NewManager wires the pipeline components together.
func NewManager(
	detectors PersonDetector,
	heatmap HeatmapRenderer,
	overlay OverlayRenderer,
	engine *zone.Engine,
	sessions UploadSessions,
	live LiveSession,
	uploads *storage.UploadStore,
	viewers *hub.Hub,
	zoneRepo repository.ZoneRepository,
	analyticsRepo repository.AnalyticsRepository,
	previewFPS int,
	log *logger.Logger,
) *Manager {
	if previewFPS < 1 {
		previewFPS = 30
	}
	return &Manager{
		detectors:     detectors,
		heatmap:       heatmap,
		overlay:       overlay,
		engine:        engine,
		sessions:      sessions,
		live:          live,
		uploads:       uploads,
		viewers:       viewers,
		zoneRepo:      zoneRepo,
		analyticsRepo: analyticsRepo,
		previewStream: mjpeg.NewStream(),
		previewFPS:    previewFPS,
		logger:        log,
	}
}

// StartLive starts the shared camera session and the preview pump.
func (m *Manager) StartLive() error {
	if err := m.live.Start(); err != nil {
		return err
	}

	m.previewMu.Lock()
	defer m.previewMu.Unlock()
	if !m.previewOn {
		m.previewOn = true
		go m.pumpPreview()
	}
	return nil
}

// StopLive stops the shared camera session; the preview pump notices the
// stop on its next read and terminates cleanly.
func (m *Manager) StopLive() {
	m.live.Stop()
}

// PreviewStream returns the multipart MJPEG handler for the raw live feed.
func (m *Manager) PreviewStream() *mjpeg.Stream {
	return m.previewStream
}

// pumpPreview reads raw frames at the configured pace and pushes them to
// the MJPEG stream. The exit decision is taken under previewMu with a
// liveness re-check: if the session was restarted between a failed read and
// this point, the pump keeps serving it instead of leaving a running
// session with no preview.
func (m *Manager) pumpPreview() {
	interval := time.Second / time.Duration(m.previewFPS)
	for {
		frame, err := m.live.Read()
		if err != nil {
			if err == session.ErrSessionStopped {
				m.logger.Info("Preview pump observed live session stop")
			} else {
				m.logger.Error("Preview read failed: %v", err)
				m.live.Stop()
			}

			m.previewMu.Lock()
			if m.live.Running() {
				m.previewMu.Unlock()
				continue
			}
			m.previewOn = false
			m.previewMu.Unlock()
			m.logger.Info("Preview stream ended")
			return
		}

		jpeg, err := vision.EncodeJPEG(frame)
		frame.Close()
		if err != nil {
			m.logger.Error("Preview frame encode failed: %v", err)
			continue
		}

		m.previewStream.UpdateJPEG(jpeg)
		time.Sleep(interval)
	}
}

// AnalyzeLive runs the pipeline on one frame from the live camera and
// broadcasts the resulting counts to websocket viewers.
func (m *Manager) AnalyzeLive(userID int64) (*dto.AnalysisResult, error) {
	if !m.live.Running() {
		return nil, session.ErrSessionStopped
	}

	frame, err := m.live.Read()
	if err != nil {
		return nil, err
	}
	defer frame.Close()

	result, err := m.analyzeFrame(userID, frame, m.live.Tracker())
	if err != nil {
		return nil, err
	}

	if msg, err := json.Marshal(map[string]interface{}{
		"zone_counts": result.ZoneCounts,
		"timestamp":   time.Now().Unix(),
	}); err == nil {
		m.viewers.Broadcast(msg)
	}

	return result, nil
}

// StartUploadAnalysis opens an analysis session over the user's uploaded
// video and returns its total frame count.
func (m *Manager) StartUploadAnalysis(userID int64) (int, error) {
	path := m.uploads.PathFor(userID)
	if path == "" {
		return 0, fmt.Errorf("%w: no uploaded video for user", session.ErrMediaOpen)
	}
	return m.sessions.StartUpload(userID, path)
}

// StopUploadAnalysis tears down the user's session if one exists.
func (m *Manager) StopUploadAnalysis(userID int64) {
	m.sessions.Stop(userID)
}

// NextUploadFrame advances the user's session by one frame and runs the
// pipeline on it. End of stream yields a finished=true result with the
// session already torn down server-side.
func (m *Manager) NextUploadFrame(userID int64) (*dto.AnalysisResult, error) {
	frame, frameNumber, tracker, err := m.sessions.NextFrame(userID)
	if err == session.ErrEndOfStream {
		return &dto.AnalysisResult{Finished: true}, nil
	}
	if err != nil {
		return nil, err
	}
	defer frame.Close()

	result, err := m.analyzeFrame(userID, frame, tracker)
	if err != nil {
		return nil, err
	}

	result.FrameNumber = frameNumber
	return result, nil
}

// analyzeFrame is the per-frame pipeline. Failures that would deny the
// caller a response (zones unreadable, model unavailable) propagate;
// secondary failures (overlay, heatmap, persistence) degrade to a
// counts-only response and are logged.
func (m *Manager) analyzeFrame(userID int64, frame gocv.Mat, tracker *vision.Tracker) (*dto.AnalysisResult, error) {
	zones, err := m.zoneRepo.GetByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load zones: %w", err)
	}

	detections, err := m.detectors.DetectPersons(frame)
	if err != nil {
		return nil, err
	}

	tracks := tracker.Update(detections)

	var confirmed []vision.Track
	var centroids []image.Point
	for _, tr := range tracks {
		if !tr.Confirmed {
			continue
		}
		confirmed = append(confirmed, tr)
		centroids = append(centroids, tr.Centroid())
	}

	stats := m.engine.Compute(userID, zones, centroids)
	counts := make(map[int64]int, len(stats))
	for zoneID, st := range stats {
		counts[zoneID] = st.Count
	}

	result := &dto.AnalysisResult{ZoneCounts: counts}

	if heat, err := m.heatmap.Render(frame, centroids); err != nil {
		m.logger.Error("Heatmap rendering failed: %v", err)
	} else {
		if jpeg, err := vision.EncodeJPEG(heat); err != nil {
			m.logger.Error("Heatmap encode failed: %v", err)
		} else {
			result.HeatmapFrame = base64.StdEncoding.EncodeToString(jpeg)
		}
		heat.Close()
	}

	if annotated, err := m.overlay.Render(frame, confirmed, zones, counts); err != nil {
		m.logger.Error("Overlay rendering failed: %v", err)
	} else {
		if jpeg, err := vision.EncodeJPEG(annotated); err != nil {
			m.logger.Error("Overlay encode failed: %v", err)
		} else {
			result.OverlayFrame = base64.StdEncoding.EncodeToString(jpeg)
		}
		annotated.Close()
	}

	now := time.Now()
	for _, z := range zones {
		st := stats[z.ID]
		rec := &model.AnalyticsRecord{
			UserID:      userID,
			Timestamp:   now,
			ZoneID:      z.ID,
			PeopleCount: st.Count,
			Entries:     st.Entries,
			Exits:       st.Exits,
		}
		if err := m.analyticsRepo.Insert(rec); err != nil {
			m.logger.Error("Failed to persist analytics for zone %d: %v", z.ID, err)
		}
	}

	return result, nil
}
