package transcribe_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"inkcap/internal/logging"
	"inkcap/internal/queue"
	"inkcap/internal/services"
	"inkcap/internal/testsupport"
	"inkcap/internal/transcribe"
	"inkcap/internal/transcript"
)

// transcriptWritingHandler mimics the engine by dropping <basename>.json into
// the directory named by --output_dir.
func transcriptWritingHandler(t *testing.T, tr *transcript.Transcript) func(ctx context.Context, name string, args ...string) error {
	return func(ctx context.Context, name string, args ...string) error {
		outputDir := ""
		for i, arg := range args {
			if arg == "--output_dir" && i+1 < len(args) {
				outputDir = args[i+1]
			}
		}
		if outputDir == "" {
			t.Fatal("expected --output_dir argument")
		}
		source := args[0]
		base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
		testsupport.WriteTranscript(t, filepath.Join(outputDir, base+".json"), tr)
		return nil
	}
}

func TestTranscriberWritesTranscript(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	source := filepath.Join(testsupport.BaseDir(cfg), "clip.mp4")
	testsupport.WriteFile(t, source, 2048)

	job := testsupport.NewJob(t, store, source)
	job.Status = queue.StatusTranscribing
	if err := store.Update(context.Background(), job); err != nil {
		t.Fatalf("Update: %v", err)
	}

	recorder := &testsupport.CommandRecorder{Handler: transcriptWritingHandler(t, testsupport.SampleTranscript())}
	handler := transcribe.NewTranscriber(cfg, store, logging.NewNop())
	handler.WithCommandRunner(recorder.Runner)

	if err := handler.Prepare(context.Background(), job); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := handler.Execute(context.Background(), job); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if job.TranscriptPath == "" {
		t.Fatal("expected transcript path on job")
	}
	tr, err := transcript.LoadFile(job.TranscriptPath)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(tr.Segments) != 2 {
		t.Fatalf("unexpected segment count: %d", len(tr.Segments))
	}
	if job.Language != "en" {
		t.Fatalf("expected language from engine output, got %q", job.Language)
	}
	if !strings.Contains(job.ProgressMessage, "Transcribed 2 segments") {
		t.Fatalf("unexpected progress message: %q", job.ProgressMessage)
	}

	calls := recorder.CallsFor(cfg.TranscribeBinary())
	if len(calls) != 1 {
		t.Fatalf("expected one engine invocation, got %d", len(calls))
	}
	args := strings.Join(calls[0].Args, " ")
	if !strings.Contains(args, "--word_timestamps True") {
		t.Fatalf("expected word timestamps flag, got %q", args)
	}
	if !strings.Contains(args, "--model "+cfg.Transcribe.Model) {
		t.Fatalf("expected model flag, got %q", args)
	}

	persisted, err := store.GetByID(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if persisted.ProgressPercent != 100 {
		t.Fatalf("expected persisted progress, got %v", persisted.ProgressPercent)
	}
}

func TestTranscriberPassesLanguageHint(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	source := filepath.Join(testsupport.BaseDir(cfg), "clip.mp4")
	testsupport.WriteFile(t, source, 1024)

	job, err := store.NewJob(context.Background(), queue.NewJobParams{SourcePath: source, Language: "spa"})
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}

	recorder := &testsupport.CommandRecorder{Handler: transcriptWritingHandler(t, testsupport.SampleTranscript())}
	handler := transcribe.NewTranscriber(cfg, store, logging.NewNop())
	handler.WithCommandRunner(recorder.Runner)

	if err := handler.Execute(context.Background(), job); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	calls := recorder.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected one engine invocation, got %d", len(calls))
	}
	args := strings.Join(calls[0].Args, " ")
	if !strings.Contains(args, "--language es") {
		t.Fatalf("expected normalized language hint, got %q", args)
	}
}

func TestTranscriberMissingSource(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	job := testsupport.NewJob(t, store, filepath.Join(testsupport.BaseDir(cfg), "absent.mp4"))
	handler := transcribe.NewTranscriber(cfg, store, logging.NewNop())
	recorder := &testsupport.CommandRecorder{}
	handler.WithCommandRunner(recorder.Runner)

	err := handler.Execute(context.Background(), job)
	if err == nil {
		t.Fatal("expected error for missing source")
	}
	if services.FailureStatus(err) != queue.StatusReview {
		t.Fatalf("expected review classification, got %v", services.FailureStatus(err))
	}
	if len(recorder.Calls()) != 0 {
		t.Fatal("engine should not run for missing source")
	}
}

func TestTranscriberWrapsEngineFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	source := filepath.Join(testsupport.BaseDir(cfg), "clip.mp4")
	testsupport.WriteFile(t, source, 1024)
	job := testsupport.NewJob(t, store, source)

	recorder := &testsupport.CommandRecorder{
		Handler: func(ctx context.Context, name string, args ...string) error {
			return errors.New("model download failed")
		},
	}
	handler := transcribe.NewTranscriber(cfg, store, logging.NewNop())
	handler.WithCommandRunner(recorder.Runner)

	err := handler.Execute(context.Background(), job)
	if err == nil {
		t.Fatal("expected error when engine fails")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if services.FailureStatus(err) != queue.StatusFailed {
		t.Fatalf("expected failed classification, got %v", services.FailureStatus(err))
	}
}

func TestTranscriberMissingOutput(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	source := filepath.Join(testsupport.BaseDir(cfg), "clip.mp4")
	testsupport.WriteFile(t, source, 1024)
	job := testsupport.NewJob(t, store, source)

	recorder := &testsupport.CommandRecorder{}
	handler := transcribe.NewTranscriber(cfg, store, logging.NewNop())
	handler.WithCommandRunner(recorder.Runner)

	err := handler.Execute(context.Background(), job)
	if err == nil {
		t.Fatal("expected error when engine produces no output")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestTranscriberHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	store := testsupport.MustOpenStore(t, cfg)

	handler := transcribe.NewTranscriber(cfg, store, logging.NewNop())
	health := handler.HealthCheck(context.Background())
	if !health.Ready {
		t.Fatalf("expected ready health, got %+v", health)
	}

	cfg.Transcribe.Binary = "definitely-not-installed-engine"
	health = transcribe.NewTranscriber(cfg, store, logging.NewNop()).HealthCheck(context.Background())
	if health.Ready {
		t.Fatalf("expected not ready health, got %+v", health)
	}
	if !strings.Contains(health.Detail, "not found") {
		t.Fatalf("expected detail to mention missing binary, got %q", health.Detail)
	}
}
