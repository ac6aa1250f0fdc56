package annotate

import (
	"fmt"
	"image"

	"github.com/cyclopcam/markvideo/pkg/nn"
	"github.com/fogleman/gg"
)

const boxThickness = 2

// Vertical gap between the top of a box and the label's baseline
const labelGap = 4

// Ascent of gg's default font (basicfont.Face7x13). The label baseline may
// never come closer than this to the top of the frame, otherwise the text
// would be clipped above y=0.
const fontAscent = 11

// DrawDetections renders boxes and labels onto the frame, in place.
// Boxes are drawn exactly as the detector reported them, even if they hang
// over the frame edge. Only the label position is clamped.
// A frame with zero detections is left untouched.
func DrawDetections(frame *image.RGBA, objects []nn.ObjectDetection, classes nn.Classes) {
	if len(objects) == 0 {
		return
	}
	dc := gg.NewContextForRGBA(frame)
	dc.SetLineWidth(boxThickness)
	for _, obj := range objects {
		dc.SetRGB255(0, 255, 0)
		dc.DrawRectangle(float64(obj.Box.X), float64(obj.Box.Y), float64(obj.Box.Width), float64(obj.Box.Height))
		dc.Stroke()

		label := fmt.Sprintf("%v %.2f", classes.Name(obj.Class), obj.Confidence)
		dc.SetRGB255(255, 255, 0)
		dc.DrawString(label, float64(obj.Box.X), float64(labelBaseline(obj.Box.Y)))
	}
}

// labelBaseline places the label just above the top-left corner of a box,
// clamped so the text never renders above the top edge of the frame
func labelBaseline(boxY int) int {
	return max(boxY-labelGap, fontAscent)
}
