// Package burnin renders captions into video. The pipeline tries strategies
// in fidelity order with fallback: browser-rendered images composited over
// the picture, a styled ASS burn, then a plain SRT burn. Every attempt works
// in its own scratch directory that is removed on success and failure alike.
// The Burner type adapts the pipeline to the workflow's stage contract and
// also handles soft-mux jobs.
package burnin
