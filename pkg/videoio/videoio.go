package videoio

// Package videoio reads and writes video files as sequences of RGBA frames.
// The interfaces here are the capability boundary of the annotation pipeline,
// so that it can be driven by fakes in tests. The production implementation
// shells out to ffmpeg/ffprobe.

import "image"

// Metadata of a video stream, read once when the stream is opened
type Metadata struct {
	FrameRate  string // Rational frame rate, eg "30000/1001"
	Width      int
	Height     int
	FrameCount int // Total number of frames, or 0 if the container doesn't say
}

// FrameRateFloat returns the frame rate as frames per second
func (m *Metadata) FrameRateFloat() float64 {
	return parseFrameRate(m.FrameRate)
}

// VideoSource yields the frames of one video file, in order
type VideoSource interface {
	// Metadata remains constant for the life of the source
	Metadata() *Metadata

	// NextFrame returns the next frame, or io.EOF when the video is exhausted.
	// The caller owns the returned frame and may mutate it.
	NextFrame() (*image.RGBA, error)

	// Close releases the source. Safe to call more than once.
	Close()
}

// VideoSink consumes frames and encodes them into one video file
type VideoSink interface {
	// WriteFrame appends a frame. Frames must have the dimensions that the
	// sink was created with.
	WriteFrame(frame *image.RGBA) error

	// Close flushes and finalizes the output file
	Close() error
}
