package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"inkcap/internal/api"
	"inkcap/internal/config"
	"inkcap/internal/logging"
	"inkcap/internal/queue"
	"inkcap/internal/stage"
	"inkcap/internal/testsupport"
	"inkcap/internal/transcribe"
	"inkcap/internal/transcript"
	"inkcap/internal/workflow"
)

type serverFixture struct {
	cfg    *config.Config
	store  *queue.Store
	server *api.Server
}

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

func newTestServer(t *testing.T, status api.StatusFunc, opts ...testsupport.ConfigOption) *serverFixture {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenStore(t, cfg)

	transcriber := transcribe.NewTranscriber(cfg, store, logging.NewNop())
	recorder := &testsupport.CommandRecorder{Handler: transcriptWritingHandler(t, testsupport.SampleTranscript())}
	transcriber.WithCommandRunner(recorder.Runner)

	server := api.NewServer(cfg, store, transcriber, status, logging.NewNop())
	return &serverFixture{cfg: cfg, store: store, server: server}
}

func perform(t *testing.T, fx *serverFixture, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	fx.server.Router().ServeHTTP(rec, req)
	return rec
}

func performJSON(t *testing.T, fx *serverFixture, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return perform(t, fx, method, path, bytes.NewReader(data), "application/json")
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func uploadVideo(t *testing.T, fx *serverFixture, name string) api.UploadResponse {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(bytes.Repeat([]byte{0xFF}, 2048)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	rec := perform(t, fx, http.MethodPost, "/api/upload", &buf, mw.FormDataContentType())
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload returned %d: %s", rec.Code, rec.Body.String())
	}
	return decodeJSON[api.UploadResponse](t, rec)
}

func TestUploadStoresFile(t *testing.T) {
	fx := newTestServer(t, nil)

	resp := uploadVideo(t, fx, "My Clip.mp4")
	if resp.Size != 2048 {
		t.Fatalf("expected size 2048, got %d", resp.Size)
	}
	if !strings.HasSuffix(resp.FileName, ".mp4") {
		t.Fatalf("expected mp4 name, got %q", resp.FileName)
	}
	if resp.FileName == "My Clip.mp4" {
		t.Fatalf("expected uniqued name, got %q", resp.FileName)
	}

	stored := filepath.Join(fx.cfg.Paths.UploadDir, resp.FileName)
	info, err := os.Stat(stored)
	if err != nil {
		t.Fatalf("stat stored upload: %v", err)
	}
	if info.Size() != 2048 {
		t.Fatalf("stored size mismatch: %d", info.Size())
	}
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	fx := newTestServer(t, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "notes.txt")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fmt.Fprint(part, "not a video")
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	rec := perform(t, fx, http.MethodPost, "/api/upload", &buf, mw.FormDataContentType())
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeJSON[api.ErrorResponse](t, rec)
	if !strings.Contains(resp.Error, "unsupported file type") {
		t.Fatalf("unexpected error: %q", resp.Error)
	}
}

func TestUploadRequiresFileField(t *testing.T) {
	fx := newTestServer(t, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("other", "value"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	rec := perform(t, fx, http.MethodPost, "/api/upload", &buf, mw.FormDataContentType())
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestTranscribeReturnsSegments(t *testing.T) {
	fx := newTestServer(t, nil)
	upload := uploadVideo(t, fx, "clip.mp4")

	rec := performJSON(t, fx, http.MethodPost, "/api/transcribe", api.TranscribeRequest{FileName: upload.FileName})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeJSON[api.TranscribeResponse](t, rec)
	if resp.Language != "en" {
		t.Fatalf("expected language en, got %q", resp.Language)
	}
	if len(resp.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(resp.Segments))
	}
	if resp.TranscriptFile == "" {
		t.Fatal("expected transcript file name")
	}

	stored := filepath.Join(fx.cfg.Paths.UploadDir, resp.TranscriptFile)
	if _, err := os.Stat(stored); err != nil {
		t.Fatalf("expected transcript next to upload: %v", err)
	}
}

func TestTranscribeUnknownFile(t *testing.T) {
	fx := newTestServer(t, nil)

	rec := performJSON(t, fx, http.MethodPost, "/api/transcribe", api.TranscribeRequest{FileName: "missing.mp4"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestTranscribeRejectsPathTraversal(t *testing.T) {
	fx := newTestServer(t, nil)

	rec := performJSON(t, fx, http.MethodPost, "/api/transcribe", api.TranscribeRequest{FileName: "../../etc/passwd.mp4"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestExportSRTAndDownload(t *testing.T) {
	fx := newTestServer(t, nil)

	rec := performJSON(t, fx, http.MethodPost, "/api/export/srt", api.ExportRequest{
		Segments: testsupport.SampleTranscript().Segments,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeJSON[api.ExportResponse](t, rec)
	if resp.Entries != 2 {
		t.Fatalf("expected 2 entries, got %d", resp.Entries)
	}
	if !strings.HasSuffix(resp.FileName, ".srt") {
		t.Fatalf("expected srt name, got %q", resp.FileName)
	}
	if resp.DownloadURL != "/downloads/"+resp.FileName {
		t.Fatalf("unexpected download url %q", resp.DownloadURL)
	}

	data, err := os.ReadFile(filepath.Join(fx.cfg.Paths.OutputDir, resp.FileName))
	if err != nil {
		t.Fatalf("read exported srt: %v", err)
	}
	if !strings.Contains(string(data), "Hello world.") {
		t.Fatalf("srt missing caption text: %q", string(data))
	}
	if !strings.Contains(string(data), " --> ") {
		t.Fatalf("srt missing timing arrow: %q", string(data))
	}

	download := perform(t, fx, http.MethodGet, resp.DownloadURL, nil, "")
	if download.Code != http.StatusOK {
		t.Fatalf("download returned %d", download.Code)
	}
	if download.Body.String() != string(data) {
		t.Fatal("download body does not match exported file")
	}
}

func TestExportASSUsesStyleAndResolution(t *testing.T) {
	fx := newTestServer(t, nil)

	rec := performJSON(t, fx, http.MethodPost, "/api/export/ass", api.ExportRequest{
		Segments: testsupport.SampleTranscript().Segments,
		Style:    json.RawMessage(`{"fontFamily":"Verdana"}`),
		Width:    1280,
		Height:   720,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeJSON[api.ExportResponse](t, rec)

	data, err := os.ReadFile(filepath.Join(fx.cfg.Paths.OutputDir, resp.FileName))
	if err != nil {
		t.Fatalf("read exported ass: %v", err)
	}
	script := string(data)
	if !strings.Contains(script, "PlayResX: 1280") || !strings.Contains(script, "PlayResY: 720") {
		t.Fatalf("ass missing play resolution: %q", script)
	}
	if !strings.Contains(script, "Verdana") {
		t.Fatalf("ass missing requested font: %q", script)
	}
}

func TestExportRequiresSegments(t *testing.T) {
	fx := newTestServer(t, nil)

	rec := performJSON(t, fx, http.MethodPost, "/api/export/srt", api.ExportRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestExportRejectsBadStyle(t *testing.T) {
	fx := newTestServer(t, nil)

	rec := performJSON(t, fx, http.MethodPost, "/api/export/srt", api.ExportRequest{
		Segments: testsupport.SampleTranscript().Segments,
		Style:    json.RawMessage(`{"displayMode":"sparkle"}`),
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRenderEnqueuesJobWithSegments(t *testing.T) {
	fx := newTestServer(t, nil)
	upload := uploadVideo(t, fx, "clip.mp4")

	rec := performJSON(t, fx, http.MethodPost, "/api/render", api.RenderRequest{
		FileName: upload.FileName,
		Segments: testsupport.SampleTranscript().Segments,
		Style:    json.RawMessage(`{"displayMode":"word"}`),
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeJSON[api.Job](t, rec)
	if resp.Kind != string(queue.KindBurn) {
		t.Fatalf("expected burn job, got %q", resp.Kind)
	}
	if resp.Status != string(queue.StatusTranscribed) {
		t.Fatalf("expected transcribed status (segments provided), got %q", resp.Status)
	}
	if resp.TranscriptPath == "" {
		t.Fatal("expected transcript path on job")
	}

	tr, err := transcript.LoadFile(resp.TranscriptPath)
	if err != nil {
		t.Fatalf("load stored segments: %v", err)
	}
	if len(tr.Segments) != 2 {
		t.Fatalf("expected 2 stored segments, got %d", len(tr.Segments))
	}

	job, err := fx.store.GetByID(context.Background(), resp.ID)
	if err != nil || job == nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !strings.Contains(job.StyleJSON, `"displayMode":"word"`) {
		t.Fatalf("expected merged style stored, got %q", job.StyleJSON)
	}
}

func TestRenderWithoutTranscriptStartsPending(t *testing.T) {
	fx := newTestServer(t, nil)
	upload := uploadVideo(t, fx, "clip.mp4")

	rec := performJSON(t, fx, http.MethodPost, "/api/render", api.RenderRequest{FileName: upload.FileName})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeJSON[api.Job](t, rec)
	if resp.Status != string(queue.StatusPending) {
		t.Fatalf("expected pending status, got %q", resp.Status)
	}
}

func TestMuxDefaultsToMKV(t *testing.T) {
	fx := newTestServer(t, nil)
	upload := uploadVideo(t, fx, "clip.mp4")

	rec := performJSON(t, fx, http.MethodPost, "/api/mux", api.RenderRequest{
		FileName: upload.FileName,
		Segments: testsupport.SampleTranscript().Segments,
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeJSON[api.Job](t, rec)
	if resp.Kind != string(queue.KindMux) {
		t.Fatalf("expected mux job, got %q", resp.Kind)
	}
	if resp.Container != "mkv" {
		t.Fatalf("expected mkv container, got %q", resp.Container)
	}
}

func TestMuxRejectsUnsupportedContainer(t *testing.T) {
	fx := newTestServer(t, nil)
	upload := uploadVideo(t, fx, "clip.mp4")

	rec := performJSON(t, fx, http.MethodPost, "/api/mux", api.RenderRequest{
		FileName:  upload.FileName,
		Container: "avi",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestJobEndpoints(t *testing.T) {
	fx := newTestServer(t, nil)
	upload := uploadVideo(t, fx, "clip.mp4")

	created := decodeJSON[api.Job](t, performJSON(t, fx, http.MethodPost, "/api/render", api.RenderRequest{
		FileName: upload.FileName,
	}))

	list := decodeJSON[api.JobList](t, perform(t, fx, http.MethodGet, "/api/jobs", nil, ""))
	if len(list.Jobs) != 1 || list.Jobs[0].ID != created.ID {
		t.Fatalf("unexpected job list: %+v", list.Jobs)
	}

	filtered := decodeJSON[api.JobList](t, perform(t, fx, http.MethodGet, "/api/jobs?status=pending", nil, ""))
	if len(filtered.Jobs) != 1 {
		t.Fatalf("expected pending filter to match, got %d", len(filtered.Jobs))
	}

	badFilter := perform(t, fx, http.MethodGet, "/api/jobs?status=bogus", nil, "")
	if badFilter.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", badFilter.Code)
	}

	got := perform(t, fx, http.MethodGet, fmt.Sprintf("/api/jobs/%d", created.ID), nil, "")
	if got.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", got.Code)
	}

	missing := perform(t, fx, http.MethodGet, "/api/jobs/9999", nil, "")
	if missing.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", missing.Code)
	}

	invalid := perform(t, fx, http.MethodGet, "/api/jobs/abc", nil, "")
	if invalid.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", invalid.Code)
	}
}

func TestJobRetryEndpoint(t *testing.T) {
	fx := newTestServer(t, nil)
	upload := uploadVideo(t, fx, "clip.mp4")

	created := decodeJSON[api.Job](t, performJSON(t, fx, http.MethodPost, "/api/render", api.RenderRequest{
		FileName: upload.FileName,
	}))

	// Retrying a pending job is a conflict.
	conflict := perform(t, fx, http.MethodPost, fmt.Sprintf("/api/jobs/%d/retry", created.ID), nil, "")
	if conflict.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", conflict.Code, conflict.Body.String())
	}

	ctx := context.Background()
	job, err := fx.store.GetByID(ctx, created.ID)
	if err != nil || job == nil {
		t.Fatalf("GetByID: %v", err)
	}
	job.SetFailed("boom")
	if err := fx.store.Update(ctx, job); err != nil {
		t.Fatalf("Update: %v", err)
	}

	rec := perform(t, fx, http.MethodPost, fmt.Sprintf("/api/jobs/%d/retry", created.ID), nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeJSON[api.Job](t, rec)
	if resp.Status != string(queue.StatusPending) {
		t.Fatalf("expected pending after retry, got %q", resp.Status)
	}
	if resp.ErrorMessage != "" {
		t.Fatalf("expected error cleared, got %q", resp.ErrorMessage)
	}
}

func TestJobRemoveEndpoint(t *testing.T) {
	fx := newTestServer(t, nil)
	upload := uploadVideo(t, fx, "clip.mp4")

	created := decodeJSON[api.Job](t, performJSON(t, fx, http.MethodPost, "/api/render", api.RenderRequest{
		FileName: upload.FileName,
	}))

	ctx := context.Background()
	job, err := fx.store.GetByID(ctx, created.ID)
	if err != nil || job == nil {
		t.Fatalf("GetByID: %v", err)
	}
	job.Status = queue.StatusTranscribing
	if err := fx.store.Update(ctx, job); err != nil {
		t.Fatalf("Update: %v", err)
	}

	busy := perform(t, fx, http.MethodDelete, fmt.Sprintf("/api/jobs/%d", created.ID), nil, "")
	if busy.Code != http.StatusConflict {
		t.Fatalf("expected 409 while processing, got %d", busy.Code)
	}

	job.Status = queue.StatusFailed
	if err := fx.store.Update(ctx, job); err != nil {
		t.Fatalf("Update: %v", err)
	}

	rec := perform(t, fx, http.MethodDelete, fmt.Sprintf("/api/jobs/%d", created.ID), nil, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	gone := perform(t, fx, http.MethodGet, fmt.Sprintf("/api/jobs/%d", created.ID), nil, "")
	if gone.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", gone.Code)
	}
}

func TestDownloadRejectsTraversal(t *testing.T) {
	fx := newTestServer(t, nil)

	rec := perform(t, fx, http.MethodGet, "/downloads/..%2Fsecret.srt", nil, "")
	if rec.Code != http.StatusBadRequest && rec.Code != http.StatusNotFound {
		t.Fatalf("expected rejection, got %d", rec.Code)
	}
}

func TestHealthReportsWorkflowAndDependencies(t *testing.T) {
	summary := workflow.StatusSummary{
		Running:    true,
		QueueStats: map[queue.Status]int{queue.StatusPending: 2},
		StageHealth: map[string]stage.Health{
			"transcriber": stage.Healthy("transcriber"),
			"renderer":    stage.Healthy("renderer"),
		},
	}
	fx := newTestServer(t, func(context.Context) workflow.StatusSummary { return summary },
		testsupport.WithStubbedBinaries())

	rec := perform(t, fx, http.MethodGet, "/healthz", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeJSON[api.HealthResponse](t, rec)
	if resp.Status != "ok" {
		t.Fatalf("expected ok status, got %q (deps %+v)", resp.Status, resp.Dependencies)
	}
	if !resp.Workflow.Running {
		t.Fatal("expected workflow running")
	}
	if resp.Workflow.QueueStats["pending"] != 2 {
		t.Fatalf("unexpected queue stats: %+v", resp.Workflow.QueueStats)
	}
	if len(resp.Workflow.StageHealth) != 2 {
		t.Fatalf("expected 2 stage health entries, got %d", len(resp.Workflow.StageHealth))
	}
	if len(resp.Dependencies) == 0 {
		t.Fatal("expected dependency statuses")
	}
	if len(resp.Checks) == 0 {
		t.Fatal("expected workspace checks")
	}
	for _, check := range resp.Checks {
		if !check.Passed {
			t.Fatalf("check %q failed: %s", check.Name, check.Detail)
		}
	}
}

func TestHealthDegradedWhenBinaryMissing(t *testing.T) {
	fx := newTestServer(t, nil)
	fx.cfg.Transcribe.Binary = "definitely-not-installed-engine"

	rec := perform(t, fx, http.MethodGet, "/healthz", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeJSON[api.HealthResponse](t, rec)
	if resp.Status != "degraded" {
		t.Fatalf("expected degraded status, got %q", resp.Status)
	}
}
