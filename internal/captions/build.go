package captions

import (
	"strings"

	"inkcap/internal/transcript"
)

// Entry is one displayed caption: a span of text with absolute start and end
// times in seconds. Entries come out of Build in non-decreasing start order.
type Entry struct {
	Text  string
	Start float64
	End   float64
}

// DefaultBreakPunctuation closes a phrase chunk early when a word carries any
// of these characters.
const DefaultBreakPunctuation = ".?!,;:"

// Builder turns transcript segments into display entries.
type Builder struct {
	punctuation string
}

// BuilderOption customizes a Builder.
type BuilderOption func(*Builder)

// WithBreakPunctuation overrides the phrase break punctuation set.
func WithBreakPunctuation(punctuation string) BuilderOption {
	return func(b *Builder) {
		if strings.TrimSpace(punctuation) != "" {
			b.punctuation = punctuation
		}
	}
}

// NewBuilder returns a Builder with the default punctuation set.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{punctuation: DefaultBreakPunctuation}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build converts segments into display entries per the style's display mode.
//
// Sentence mode emits one entry per segment with the segment's verbatim text.
// Word and phrase modes need word timing; segments without words degrade to
// their sentence entry. Empty-text entries are not filtered here; renderers
// decide what an empty caption means.
func (b *Builder) Build(segments []transcript.Segment, style Style) []Entry {
	entries := make([]Entry, 0, len(segments))
	for _, seg := range segments {
		switch style.DisplayMode {
		case ModeWord:
			if !seg.HasWords() {
				entries = append(entries, sentenceEntry(seg))
				continue
			}
			entries = append(entries, wordEntries(seg)...)
		case ModePhrase:
			if !seg.HasWords() {
				entries = append(entries, sentenceEntry(seg))
				continue
			}
			entries = append(entries, b.phraseEntries(seg, style.WordsPerLine)...)
		default:
			entries = append(entries, sentenceEntry(seg))
		}
	}
	return entries
}

// Build converts segments using a default Builder.
func Build(segments []transcript.Segment, style Style) []Entry {
	return NewBuilder().Build(segments, style)
}

func sentenceEntry(seg transcript.Segment) Entry {
	return Entry{Text: seg.Text, Start: seg.Start, End: seg.End}
}

// wordEntries emits one entry per word. Each entry's end extends to the next
// word's start so captions do not blink out during micro-pauses, bounded by
// the owning segment's end.
func wordEntries(seg transcript.Segment) []Entry {
	out := make([]Entry, 0, len(seg.Words))
	for i, word := range seg.Words {
		out = append(out, Entry{
			Text:  strings.TrimSpace(word.Word),
			Start: word.Start,
			End:   entryEnd(seg, i),
		})
	}
	return out
}

// phraseEntries accumulates words into chunks. A chunk closes when it reaches
// wordsPerLine words, when a word past the first carries break punctuation,
// or at the segment's last word. Chunk timing follows the word-mode
// gap-filling rule.
func (b *Builder) phraseEntries(seg transcript.Segment, wordsPerLine int) []Entry {
	var out []Entry
	var chunk []transcript.Word
	for i, word := range seg.Words {
		chunk = append(chunk, word)

		last := i == len(seg.Words)-1
		budgetReached := len(chunk) >= wordsPerLine
		punctuationBreak := len(chunk) > 1 && strings.ContainsAny(word.Word, b.punctuation)
		if !last && !budgetReached && !punctuationBreak {
			continue
		}

		out = append(out, Entry{
			Text:  joinWords(chunk),
			Start: chunk[0].Start,
			End:   entryEnd(seg, i),
		})
		chunk = nil
	}
	return out
}

// entryEnd bounds an entry ending at word index i by the following word's
// start and the segment's end.
func entryEnd(seg transcript.Segment, i int) float64 {
	end := seg.End
	if i+1 < len(seg.Words) {
		if next := seg.Words[i+1].Start; next < end {
			end = next
		}
	}
	return end
}

func joinWords(words []transcript.Word) string {
	parts := make([]string, 0, len(words))
	for _, word := range words {
		if text := strings.TrimSpace(word.Word); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}
