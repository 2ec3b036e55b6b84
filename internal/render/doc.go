// Package render rasterizes caption entries into transparent PNG overlays
// with a headless browser. Each entry is typeset on an HTML page styled from
// the caption style, shrunk until it fits the video frame, and captured with
// an alpha channel so ffmpeg can composite it over the source video.
package render
