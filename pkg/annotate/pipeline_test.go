package annotate

import (
	"errors"
	"fmt"
	"image"
	"io"
	"testing"

	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/markvideo/pkg/nn"
	"github.com/cyclopcam/markvideo/pkg/videoio"
	"github.com/stretchr/testify/require"
)

// fakeSource yields a fixed number of deterministic frames
type fakeSource struct {
	meta      videoio.Metadata
	nextFrame int
	produced  [][]byte // copy of every frame's pixels, in production order
	closed    bool
}

func newFakeSource(width, height, frameCount int) *fakeSource {
	return &fakeSource{
		meta: videoio.Metadata{
			FrameRate:  "10/1",
			Width:      width,
			Height:     height,
			FrameCount: frameCount,
		},
	}
}

func (s *fakeSource) Metadata() *videoio.Metadata {
	return &s.meta
}

func (s *fakeSource) NextFrame() (*image.RGBA, error) {
	if s.nextFrame >= s.meta.FrameCount {
		return nil, io.EOF
	}
	frame := image.NewRGBA(image.Rect(0, 0, s.meta.Width, s.meta.Height))
	for i := range frame.Pix {
		frame.Pix[i] = byte(s.nextFrame) + byte(i%100)
	}
	s.nextFrame++
	saved := make([]byte, len(frame.Pix))
	copy(saved, frame.Pix)
	s.produced = append(s.produced, saved)
	return frame, nil
}

func (s *fakeSource) Close() {
	s.closed = true
}

// fakeSink records every frame written to it
type fakeSink struct {
	filename string
	written  [][]byte
	closed   bool
	writeErr error
}

func (s *fakeSink) WriteFrame(frame *image.RGBA) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	saved := make([]byte, len(frame.Pix))
	copy(saved, frame.Pix)
	s.written = append(s.written, saved)
	return nil
}

func (s *fakeSink) Close() error {
	s.closed = true
	return nil
}

// fakeDetector returns canned objects, keyed by frame index
type fakeDetector struct {
	objects map[int][]nn.ObjectDetection
	nCalls  int
}

func (d *fakeDetector) Close() {
}

func (d *fakeDetector) DetectObjects(img *image.RGBA, params *nn.DetectionParams) ([]nn.ObjectDetection, error) {
	objects := d.objects[d.nCalls]
	d.nCalls++
	return objects, nil
}

func (d *fakeDetector) Config() *nn.ModelConfig {
	return &nn.ModelConfig{
		Architecture: "yolov8",
		Width:        320,
		Height:       256,
		Classes:      []string{"person", "car"},
	}
}

func testConfig(src *fakeSource, sink *fakeSink, openErr error) *Config {
	cfg := &Config{
		OutputDir: "out",
		Classes:   nn.Classes{"person", "car"},
		OpenSource: func(filename string) (videoio.VideoSource, error) {
			if openErr != nil {
				return nil, openErr
			}
			return src, nil
		},
		CreateSink: func(filename string, meta *videoio.Metadata) (videoio.VideoSink, error) {
			if sink == nil {
				return nil, fmt.Errorf("unexpected sink creation for %v", filename)
			}
			sink.filename = filename
			return sink, nil
		},
	}
	cfg.setDefaults()
	return cfg
}

func TestProcessVideo(t *testing.T) {
	src := newFakeSource(64, 48, 5)
	sink := &fakeSink{}
	detector := &fakeDetector{
		objects: map[int][]nn.ObjectDetection{
			// Frame 1 has two detections, the rest have none
			1: {
				{Class: 0, Confidence: 0.91, Box: nn.MakeRect(5, 5, 20, 20)},
				{Class: 1, Confidence: 0.42, Box: nn.MakeRect(30, 1, 60, 40)},
			},
		},
	}
	cfg := testConfig(src, sink, nil)

	result, err := ProcessVideo(logs.NewTestingLog(t), cfg, detector, "in/clip.mp4", "clip.mp4")
	require.NoError(t, err)
	require.True(t, result.OK())
	require.Equal(t, "out/clip_processed.mp4", result.Output)
	require.Equal(t, sink.filename, result.Output)
	require.Equal(t, 5, result.Frames)
	require.Equal(t, 5, detector.nCalls)
	require.True(t, src.closed)
	require.True(t, sink.closed)

	// Same number of frames out as in
	require.Equal(t, len(src.produced), len(sink.written))

	// Frames without detections are written pixel-identical, in order
	for i, original := range src.produced {
		if i == 1 {
			require.NotEqual(t, original, sink.written[i], "annotated frame must differ from the original")
		} else {
			require.Equal(t, original, sink.written[i], "frame %v has no detections and must pass through unmodified", i)
		}
	}
}

func TestProcessVideoOpenFailure(t *testing.T) {
	cfg := testConfig(nil, nil, errors.New("moov atom not found"))
	detector := &fakeDetector{}

	result, err := ProcessVideo(logs.NewTestingLog(t), cfg, detector, "in/bad.mp4", "bad.mp4")
	require.NoError(t, err, "an open failure must not abort the batch")
	require.False(t, result.OK())
	require.Error(t, result.Err)
	require.Equal(t, "", result.Output, "no output file may be created when the source fails to open")
	require.Equal(t, 0, detector.nCalls)
}

func TestProcessVideoWriteFailure(t *testing.T) {
	src := newFakeSource(64, 48, 3)
	sink := &fakeSink{writeErr: errors.New("disk full")}
	cfg := testConfig(src, sink, nil)

	_, err := ProcessVideo(logs.NewTestingLog(t), cfg, &fakeDetector{}, "in/clip.mp4", "clip.mp4")
	require.Error(t, err, "a write failure is not recovered, it aborts the batch")
	require.True(t, src.closed)
	require.True(t, sink.closed)
}
