package workflow_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"inkcap/internal/config"
	"inkcap/internal/logging"
	"inkcap/internal/queue"
	"inkcap/internal/services"
	"inkcap/internal/stage"
	"inkcap/internal/testsupport"
	"inkcap/internal/workflow"
)

type stubStage struct {
	name        string
	prepareHook func(*queue.Job)
	executeHook func(*queue.Job)
	prepareErr  error
	executeErr  error
	health      stage.Health
	executions  atomic.Int64
}

func newStubStage(name string) *stubStage {
	return &stubStage{name: name, health: stage.Healthy(name)}
}

func (s *stubStage) Prepare(_ context.Context, job *queue.Job) error {
	if s.prepareHook != nil {
		s.prepareHook(job)
	}
	return s.prepareErr
}

func (s *stubStage) Execute(_ context.Context, job *queue.Job) error {
	s.executions.Add(1)
	if s.executeHook != nil {
		s.executeHook(job)
	}
	return s.executeErr
}

func (s *stubStage) HealthCheck(context.Context) stage.Health {
	return s.health
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 1
	cfg.Workflow.ErrorRetryInterval = 1
	return cfg
}

func startManager(t *testing.T, mgr *workflow.Manager) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(mgr.Stop)
}

func waitForStatus(t *testing.T, store *queue.Store, id int64, want queue.Status) *queue.Job {
	t.Helper()
	deadline := time.After(30 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for status %s", want)
		default:
		}
		job, err := store.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if job.Status == want {
			return job
		}
		time.Sleep(25 * time.Millisecond)
	}
}

func TestManagerProcessesJobs(t *testing.T) {
	cfg := testConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	base := testsupport.BaseDir(cfg)
	transcriptPath := filepath.Join(base, "clip.json")

	transcriber := newStubStage("transcribe")
	transcriber.executeHook = func(job *queue.Job) {
		testsupport.WriteTranscript(t, transcriptPath, testsupport.SampleTranscript())
		job.TranscriptPath = transcriptPath
	}
	renderer := newStubStage("render")
	renderer.executeHook = func(job *queue.Job) {
		job.FinalFile = filepath.Join(base, "subtitled_clip.mp4")
	}

	mgr := workflow.NewManager(cfg, store, logging.NewNop())
	mgr.ConfigureStages(workflow.StageSet{Transcriber: transcriber, Renderer: renderer})

	job := testsupport.NewJob(t, store, filepath.Join(base, "clip.mp4"))
	startManager(t, mgr)

	updated := waitForStatus(t, store, job.ID, queue.StatusCompleted)
	if updated.TranscriptPath != transcriptPath {
		t.Fatalf("expected transcript path %q, got %q", transcriptPath, updated.TranscriptPath)
	}
	if updated.FinalFile == "" {
		t.Fatal("expected final file to be recorded")
	}
	if updated.ProgressPercent != 100 {
		t.Fatalf("expected progress 100, got %v", updated.ProgressPercent)
	}
	if updated.ProgressStage != "Completed" {
		t.Fatalf("expected progress stage Completed, got %q", updated.ProgressStage)
	}
	if updated.LastHeartbeat != nil {
		t.Fatal("expected heartbeat to be cleared on completion")
	}
	if got := transcriber.executions.Load(); got != 1 {
		t.Fatalf("expected one transcribe execution, got %d", got)
	}
	if got := renderer.executions.Load(); got != 1 {
		t.Fatalf("expected one render execution, got %d", got)
	}
}

func TestManagerSkipsTranscriptionWhenTranscriptProvided(t *testing.T) {
	cfg := testConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	base := testsupport.BaseDir(cfg)
	transcriptPath := filepath.Join(base, "clip.json")
	testsupport.WriteTranscript(t, transcriptPath, testsupport.SampleTranscript())

	transcriber := newStubStage("transcribe")
	renderer := newStubStage("render")

	mgr := workflow.NewManager(cfg, store, logging.NewNop())
	mgr.ConfigureStages(workflow.StageSet{Transcriber: transcriber, Renderer: renderer})

	job, err := store.NewJob(context.Background(), queue.NewJobParams{
		SourcePath:     filepath.Join(base, "clip.mp4"),
		TranscriptPath: transcriptPath,
	})
	if err != nil {
		t.Fatalf("NewJob failed: %v", err)
	}
	if job.Status != queue.StatusTranscribed {
		t.Fatalf("expected job to start transcribed, got %s", job.Status)
	}

	startManager(t, mgr)

	waitForStatus(t, store, job.ID, queue.StatusCompleted)
	if got := transcriber.executions.Load(); got != 0 {
		t.Fatalf("expected transcription to be skipped, got %d executions", got)
	}
	if got := renderer.executions.Load(); got != 1 {
		t.Fatalf("expected one render execution, got %d", got)
	}
}

func TestManagerFailureRoutesToReview(t *testing.T) {
	cfg := testConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	base := testsupport.BaseDir(cfg)
	transcriptPath := filepath.Join(base, "clip.json")
	testsupport.WriteTranscript(t, transcriptPath, testsupport.SampleTranscript())

	renderer := newStubStage("render")
	renderer.executeErr = services.Wrap(
		services.ErrValidation, "render", "parse style",
		"Stored style payload is invalid", nil)

	mgr := workflow.NewManager(cfg, store, logging.NewNop())
	mgr.ConfigureStages(workflow.StageSet{Renderer: renderer})

	job, err := store.NewJob(context.Background(), queue.NewJobParams{
		SourcePath:     filepath.Join(base, "clip.mp4"),
		TranscriptPath: transcriptPath,
	})
	if err != nil {
		t.Fatalf("NewJob failed: %v", err)
	}

	startManager(t, mgr)

	updated := waitForStatus(t, store, job.ID, queue.StatusReview)
	if !updated.NeedsReview {
		t.Fatal("expected needs_review to be set")
	}
	if updated.ProgressStage != "Needs review" {
		t.Fatalf("expected progress stage 'Needs review', got %q", updated.ProgressStage)
	}
	if !strings.Contains(updated.ReviewReason, "Stored style payload is invalid") {
		t.Fatalf("expected review reason to describe the failure, got %q", updated.ReviewReason)
	}
	if updated.ErrorMessage == "" {
		t.Fatal("expected error message to be populated")
	}
}

func TestManagerFailureDefaultsToFailed(t *testing.T) {
	cfg := testConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	base := testsupport.BaseDir(cfg)
	transcriber := newStubStage("transcribe")
	transcriber.executeErr = errors.New("boom")

	mgr := workflow.NewManager(cfg, store, logging.NewNop())
	mgr.ConfigureStages(workflow.StageSet{Transcriber: transcriber})

	job := testsupport.NewJob(t, store, filepath.Join(base, "clip.mp4"))
	startManager(t, mgr)

	updated := waitForStatus(t, store, job.ID, queue.StatusFailed)
	if updated.ProgressStage != "Failed" {
		t.Fatalf("expected progress stage Failed, got %q", updated.ProgressStage)
	}
	if updated.ErrorMessage != "boom" {
		t.Fatalf("expected error message 'boom', got %q", updated.ErrorMessage)
	}
	if updated.NeedsReview {
		t.Fatal("unexpected review flag on plain failure")
	}
}

func TestManagerStatusIncludesStageHealth(t *testing.T) {
	cfg := testConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	renderer := newStubStage("render")
	renderer.health = stage.Unhealthy(renderer.name, "ffmpeg not found")

	mgr := workflow.NewManager(cfg, store, logging.NewNop())
	mgr.ConfigureStages(workflow.StageSet{Renderer: renderer})

	status := mgr.Status(context.Background())
	health, ok := status.StageHealth[renderer.name]
	if !ok {
		t.Fatalf("expected stage health entry for %s", renderer.name)
	}
	if health.Ready {
		t.Fatalf("expected not ready health, got %+v", health)
	}
	if health.Detail != "ffmpeg not found" {
		t.Fatalf("expected detail to carry diagnostics, got %q", health.Detail)
	}
	if status.Running {
		t.Fatal("expected manager to report not running before Start")
	}
}

func TestManagerStartRequiresStages(t *testing.T) {
	cfg := testConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	mgr := workflow.NewManager(cfg, store, logging.NewNop())
	if err := mgr.Start(context.Background()); err == nil {
		mgr.Stop()
		t.Fatal("expected Start to fail without configured stages")
	}
}
