package workflow

import (
	"log/slog"
	"sync"
	"time"

	"inkcap/internal/config"
	"inkcap/internal/logging"
	"inkcap/internal/queue"
	"inkcap/internal/stage"
)

// Manager coordinates queue processing using registered stage handlers.
type Manager struct {
	cfg          *config.Config
	store        *queue.Store
	logger       *slog.Logger
	pollInterval time.Duration

	heartbeat *HeartbeatMonitor

	stages             []pipelineStage
	stageByStart       map[queue.Status]pipelineStage
	statusOrder        []queue.Status
	processingStatuses []queue.Status

	mu      sync.RWMutex
	running bool
	cancel  func()
	wg      sync.WaitGroup
	lastErr error
	lastJob *queue.Job
}

// StageSet bundles the concrete workflow handlers the manager orchestrates.
type StageSet struct {
	Transcriber stage.Handler
	Renderer    stage.Handler
}

type pipelineStage struct {
	name             string
	handler          stage.Handler
	startStatus      queue.Status
	processingStatus queue.Status
	doneStatus       queue.Status
}

type loggerAware interface {
	SetLogger(*slog.Logger)
}

// NewManager constructs a new workflow manager.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		cfg:          cfg,
		store:        store,
		logger:       logger,
		pollInterval: time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		heartbeat: NewHeartbeatMonitor(
			store,
			logger,
			time.Duration(cfg.Workflow.HeartbeatInterval)*time.Second,
			time.Duration(cfg.Workflow.HeartbeatTimeout)*time.Second,
		),
	}
}

// ConfigureStages registers the concrete stage handlers the workflow will run.
// Jobs created with a transcript already attached enter the queue at
// StatusTranscribed and skip the transcription stage entirely.
func (m *Manager) ConfigureStages(set StageSet) {
	stages := make([]pipelineStage, 0, 2)
	if set.Transcriber != nil {
		stages = append(stages, pipelineStage{
			name:             "transcribe",
			handler:          set.Transcriber,
			startStatus:      queue.StatusPending,
			processingStatus: queue.StatusTranscribing,
			doneStatus:       queue.StatusTranscribed,
		})
	}
	if set.Renderer != nil {
		stages = append(stages, pipelineStage{
			name:             "render",
			handler:          set.Renderer,
			startStatus:      queue.StatusTranscribed,
			processingStatus: queue.StatusRendering,
			doneStatus:       queue.StatusCompleted,
		})
	}

	stageByStart := make(map[queue.Status]pipelineStage, len(stages))
	statusOrder := make([]queue.Status, 0, len(stages))
	processing := make([]queue.Status, 0, len(stages))
	seenProcessing := make(map[queue.Status]struct{}, len(stages))
	for _, stg := range stages {
		stageByStart[stg.startStatus] = stg
		statusOrder = append(statusOrder, stg.startStatus)
		if stg.processingStatus != "" {
			if _, ok := seenProcessing[stg.processingStatus]; !ok {
				processing = append(processing, stg.processingStatus)
				seenProcessing[stg.processingStatus] = struct{}{}
			}
		}
	}

	m.mu.Lock()
	m.stages = stages
	m.stageByStart = stageByStart
	m.statusOrder = statusOrder
	m.processingStatuses = processing
	m.mu.Unlock()
}

func (m *Manager) stageForStatus(status queue.Status) (pipelineStage, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stg, ok := m.stageByStart[status]
	return stg, ok
}
