// Package encoding wraps the ffmpeg binary behind the four media operations
// the render pipeline needs: compositing a duration-tagged image sequence
// into an alpha video track, overlaying that track onto source video, burning
// a subtitle file into the video stream, and muxing a subtitle file as a soft
// track. The command runner is injectable so tests can assert on exact
// argument lists without a real ffmpeg install.
package encoding
