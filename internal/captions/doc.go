// Package captions turns timed transcript segments into display entries and
// translates visual style settings into the encodings each renderer needs.
//
// The Builder implements three display granularities: whole sentences, single
// words, and punctuation-aware phrases. Word and phrase entries gap-fill
// their end times up to the next word's start (bounded by the owning segment)
// so captions persist through natural pauses instead of flickering.
//
// The translator functions are pure: hex+opacity to ASS color tokens, yAlign
// percentages to bottom-anchored margins, CSS font weights to bold flags.
package captions
