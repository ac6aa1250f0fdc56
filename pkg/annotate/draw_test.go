package annotate

import (
	"image"
	"testing"

	"github.com/cyclopcam/markvideo/pkg/nn"
	"github.com/stretchr/testify/require"
)

func TestLabelBaseline(t *testing.T) {
	// Normal case: baseline sits labelGap pixels above the box
	require.Equal(t, 96, labelBaseline(100))
	// Box at or near the frame top: clamp so the text never renders above y=0
	require.Equal(t, fontAscent, labelBaseline(0))
	require.Equal(t, fontAscent, labelBaseline(5))
	require.Equal(t, fontAscent, labelBaseline(-20))
}

func TestDrawNothing(t *testing.T) {
	frame := makeTestFrame(64, 48, 7)
	original := make([]byte, len(frame.Pix))
	copy(original, frame.Pix)

	DrawDetections(frame, nil, nn.Classes{"person"})
	require.Equal(t, original, frame.Pix, "a frame with zero detections must pass through unmodified")
}

func TestDrawDetections(t *testing.T) {
	frame := makeTestFrame(64, 48, 7)
	original := make([]byte, len(frame.Pix))
	copy(original, frame.Pix)

	objects := []nn.ObjectDetection{
		{Class: 0, Confidence: 0.91, Box: nn.MakeRect(10, 10, 30, 30)},
		{Class: 1, Confidence: 0.42, Box: nn.MakeRect(35, 2, 60, 40)}, // label position must clamp
	}
	DrawDetections(frame, objects, nn.Classes{"person", "car"})
	require.NotEqual(t, original, frame.Pix, "drawing detections must modify the frame")

	// The box outline color must be present on the box's top edge
	foundGreen := false
	for x := 10; x < 30; x++ {
		r, g, b, _ := frame.At(x, 10).RGBA()
		if g > r && g > b {
			foundGreen = true
			break
		}
	}
	require.True(t, foundGreen, "expected green outline pixels on the box edge")
}

// A detection hanging over the frame edge is drawn as given, and must not panic
func TestDrawOutOfBounds(t *testing.T) {
	frame := makeTestFrame(64, 48, 7)
	objects := []nn.ObjectDetection{
		{Class: 0, Confidence: 0.5, Box: nn.MakeRect(-10, -10, 100, 100)},
	}
	DrawDetections(frame, objects, nn.Classes{"person"})
}

func makeTestFrame(width, height int, seed byte) *image.RGBA {
	frame := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := range frame.Pix {
		frame.Pix[i] = seed + byte(i%200)
	}
	// Opaque alpha, like frames decoded from video
	for i := 3; i < len(frame.Pix); i += 4 {
		frame.Pix[i] = 255
	}
	return frame
}
