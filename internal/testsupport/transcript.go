package testsupport

import (
	"testing"

	"inkcap/internal/transcript"
)

// SampleTranscript returns a small two-segment transcript with word timing,
// shaped like real speech-to-text output.
func SampleTranscript() *transcript.Transcript {
	return &transcript.Transcript{
		Language: "en",
		Segments: []transcript.Segment{
			{
				Text:  " Hello world.",
				Start: 0.0,
				End:   1.5,
				Words: []transcript.Word{
					{Word: " Hello", Start: 0.0, End: 0.6},
					{Word: " world.", Start: 0.7, End: 1.4},
				},
			},
			{
				Text:  " Captions are fun.",
				Start: 2.0,
				End:   4.0,
				Words: []transcript.Word{
					{Word: " Captions", Start: 2.0, End: 2.6},
					{Word: " are", Start: 2.7, End: 2.9},
					{Word: " fun.", Start: 3.0, End: 3.8},
				},
			},
		},
	}
}

// WriteTranscript saves the transcript as JSON at path and fails the test on
// error.
func WriteTranscript(t testing.TB, path string, tr *transcript.Transcript) {
	t.Helper()

	if err := tr.SaveFile(path); err != nil {
		t.Fatalf("save transcript %s: %v", path, err)
	}
}
