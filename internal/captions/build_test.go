package captions_test

import (
	"testing"

	"inkcap/internal/captions"
	"inkcap/internal/transcript"
)

func styleWithMode(mode captions.Mode) captions.Style {
	style := captions.DefaultStyle()
	style.DisplayMode = mode
	return style
}

func TestSentenceModeOneEntryPerSegment(t *testing.T) {
	segments := []transcript.Segment{
		{Text: " Hello world.", Start: 0, End: 2.5},
		{Text: "Second thought.", Start: 2.5, End: 5},
	}

	entries := captions.Build(segments, styleWithMode(captions.ModeSentence))
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Text != " Hello world." {
		t.Fatalf("expected verbatim segment text, got %q", entries[0].Text)
	}
	if entries[0].Start != 0 || entries[0].End != 2.5 {
		t.Fatalf("unexpected timing: %+v", entries[0])
	}
	if entries[1].Start != 2.5 || entries[1].End != 5 {
		t.Fatalf("unexpected timing: %+v", entries[1])
	}
}

func TestWordAndPhraseModesFallBackWithoutWords(t *testing.T) {
	segments := []transcript.Segment{{Text: "No timing here.", Start: 1, End: 3}}

	for _, mode := range []captions.Mode{captions.ModeWord, captions.ModePhrase} {
		entries := captions.Build(segments, styleWithMode(mode))
		if len(entries) != 1 {
			t.Fatalf("%s: expected sentence fallback, got %d entries", mode, len(entries))
		}
		if entries[0].Text != "No timing here." || entries[0].Start != 1 || entries[0].End != 3 {
			t.Fatalf("%s: unexpected fallback entry: %+v", mode, entries[0])
		}
	}
}

func TestWordModeGapFilling(t *testing.T) {
	segments := []transcript.Segment{{
		Text:  "hello world foo",
		Start: 0.0,
		End:   4.0,
		Words: []transcript.Word{
			{Word: "hello", Start: 0.0, End: 1.0},
			{Word: "world", Start: 1.0, End: 2.0},
			{Word: "foo", Start: 2.0, End: 3.5},
		},
	}}

	entries := captions.Build(segments, styleWithMode(captions.ModeWord))
	want := []captions.Entry{
		{Text: "hello", Start: 0.0, End: 1.0},
		{Text: "world", Start: 1.0, End: 2.0},
		{Text: "foo", Start: 2.0, End: 4.0},
	}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Fatalf("entry %d: got %+v want %+v", i, entries[i], want[i])
		}
	}
}

func TestWordModeEntriesNeverOverlapOrEscapeSegment(t *testing.T) {
	seg := transcript.Segment{
		Text:  "a b c d",
		Start: 0,
		End:   3.0,
		Words: []transcript.Word{
			{Word: "a", Start: 0.0, End: 0.8},
			{Word: "b", Start: 0.5, End: 1.2},
			{Word: "c", Start: 1.5, End: 2.0},
			{Word: "d", Start: 2.2, End: 3.4},
		},
	}

	entries := captions.Build([]transcript.Segment{seg}, styleWithMode(captions.ModeWord))
	for i := 0; i < len(entries)-1; i++ {
		if entries[i].End > entries[i+1].Start {
			t.Fatalf("entry %d end %.2f overlaps entry %d start %.2f", i, entries[i].End, i+1, entries[i+1].Start)
		}
		if entries[i].End > seg.End {
			t.Fatalf("entry %d end %.2f escapes segment end %.2f", i, entries[i].End, seg.End)
		}
	}
	if last := entries[len(entries)-1]; last.End != seg.End {
		t.Fatalf("last entry should extend to segment end, got %.2f", last.End)
	}
}

func TestPhraseModeWordBudget(t *testing.T) {
	seg := transcript.Segment{
		Text:  "one two three four",
		Start: 0,
		End:   4.0,
		Words: []transcript.Word{
			{Word: "one", Start: 0.0, End: 0.9},
			{Word: "two", Start: 1.0, End: 1.9},
			{Word: "three", Start: 2.0, End: 2.9},
			{Word: "four", Start: 3.0, End: 3.9},
		},
	}

	entries := captions.Build([]transcript.Segment{seg}, styleWithMode(captions.ModePhrase))
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d: %+v", len(entries), entries)
	}
	if entries[0].Text != "one two three" {
		t.Fatalf("unexpected first chunk: %q", entries[0].Text)
	}
	if entries[0].Start != 0.0 || entries[0].End != 3.0 {
		t.Fatalf("first chunk timing: %+v", entries[0])
	}
	if entries[1].Text != "four" {
		t.Fatalf("unexpected second chunk: %q", entries[1].Text)
	}
	if entries[1].Start != 3.0 || entries[1].End != 4.0 {
		t.Fatalf("second chunk timing: %+v", entries[1])
	}
}

func TestPhraseModePunctuationNeedsCompany(t *testing.T) {
	style := styleWithMode(captions.ModePhrase)
	style.WordsPerLine = 5

	seg := transcript.Segment{
		Text:  "Wait, there is more",
		Start: 0,
		End:   5.0,
		Words: []transcript.Word{
			{Word: "Wait,", Start: 0.0, End: 0.5},
			{Word: "there", Start: 0.6, End: 1.0},
			{Word: "is", Start: 1.1, End: 1.4},
			{Word: "more", Start: 1.5, End: 2.0},
		},
	}

	entries := captions.Build([]transcript.Segment{seg}, style)
	// "Wait," alone must not close a chunk; the whole segment stays together.
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d: %+v", len(entries), entries)
	}
	if entries[0].Text != "Wait, there is more" {
		t.Fatalf("unexpected chunk text: %q", entries[0].Text)
	}
}

func TestPhraseModePunctuationBreaksAfterSecondWord(t *testing.T) {
	style := styleWithMode(captions.ModePhrase)
	style.WordsPerLine = 5

	seg := transcript.Segment{
		Text:  "Yes sir, okay",
		Start: 0,
		End:   3.0,
		Words: []transcript.Word{
			{Word: "Yes", Start: 0.0, End: 0.4},
			{Word: "sir,", Start: 0.5, End: 1.0},
			{Word: "okay", Start: 1.5, End: 2.0},
		},
	}

	entries := captions.Build([]transcript.Segment{seg}, style)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d: %+v", len(entries), entries)
	}
	if entries[0].Text != "Yes sir," {
		t.Fatalf("unexpected first chunk: %q", entries[0].Text)
	}
	if entries[0].End != 1.5 {
		t.Fatalf("expected first chunk to extend to next word start, got %.2f", entries[0].End)
	}
	if entries[1].Text != "okay" || entries[1].End != 3.0 {
		t.Fatalf("unexpected second chunk: %+v", entries[1])
	}
}

func TestPhraseModeCustomPunctuation(t *testing.T) {
	style := styleWithMode(captions.ModePhrase)
	style.WordsPerLine = 10

	seg := transcript.Segment{
		Text:  "uno dos | tres",
		Start: 0,
		End:   3.0,
		Words: []transcript.Word{
			{Word: "uno", Start: 0.0, End: 0.4},
			{Word: "dos|", Start: 0.5, End: 1.0},
			{Word: "tres", Start: 1.5, End: 2.0},
		},
	}

	builder := captions.NewBuilder(captions.WithBreakPunctuation("|"))
	entries := builder.Build([]transcript.Segment{seg}, style)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d: %+v", len(entries), entries)
	}
	if entries[0].Text != "uno dos|" {
		t.Fatalf("unexpected first chunk: %q", entries[0].Text)
	}
}

func TestBuildKeepsEmptyTextEntries(t *testing.T) {
	segments := []transcript.Segment{{Text: "   ", Start: 0, End: 1}}

	entries := captions.Build(segments, styleWithMode(captions.ModeSentence))
	if len(entries) != 1 {
		t.Fatalf("expected empty entry to pass through, got %d entries", len(entries))
	}
}

func TestBuildOrderedAcrossSegments(t *testing.T) {
	segments := []transcript.Segment{
		{
			Text: "first bit", Start: 0, End: 2,
			Words: []transcript.Word{
				{Word: "first", Start: 0, End: 0.9},
				{Word: "bit", Start: 1.0, End: 1.8},
			},
		},
		{
			Text: "second bit", Start: 2, End: 4,
			Words: []transcript.Word{
				{Word: "second", Start: 2.0, End: 2.9},
				{Word: "bit", Start: 3.0, End: 3.8},
			},
		},
	}

	entries := captions.Build(segments, styleWithMode(captions.ModeWord))
	for i := 0; i < len(entries)-1; i++ {
		if entries[i].Start > entries[i+1].Start {
			t.Fatalf("entries out of order at %d: %+v then %+v", i, entries[i], entries[i+1])
		}
	}
}
