package ffprobe

import (
	"math"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video", Width: 1920, Height: 1080},
			{CodecType: "audio"},
			{CodecType: "audio"},
		},
		Format: Format{
			Duration: "123.45",
			Size:     "1000",
		},
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("expected 1 video stream, got %d", result.VideoStreamCount())
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 1000 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
	width, height, ok := result.VideoDimensions()
	if !ok || width != 1920 || height != 1080 {
		t.Fatalf("unexpected dimensions: %dx%d ok=%v", width, height, ok)
	}
}

func TestVideoDimensionsSkipsDimensionlessStreams(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video"},
			{CodecType: "video", Width: 1280, Height: 720},
		},
	}
	width, height, ok := result.VideoDimensions()
	if !ok || width != 1280 || height != 720 {
		t.Fatalf("unexpected dimensions: %dx%d ok=%v", width, height, ok)
	}

	audioOnly := Result{Streams: []Stream{{CodecType: "audio"}}}
	if _, _, ok := audioOnly.VideoDimensions(); ok {
		t.Fatal("expected no dimensions for audio-only container")
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{
		Format: Format{
			Duration: "bad",
			Size:     "-1",
		},
	}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
}
