// Package nnremote implements nn.ObjectDetector against a detector server,
// over a websocket. The model itself (eg a YOLO variant) runs inside the
// server; we send it JPEG frames and get JSON detections back.
package nnremote

import (
	"encoding/json"
	"fmt"
	"image"
	"net/url"

	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/markvideo/pkg/nn"
	"github.com/gorilla/websocket"
)

// Sent once, immediately after connecting
type helloMessage struct {
	ProbabilityThreshold float32 `json:"probabilityThreshold"`
	NmsIouThreshold      float32 `json:"nmsIouThreshold"`
}

// RemoteDetector is a connection to a detector server.
// It is not safe for concurrent use, which is fine for a synchronous
// pipeline that detects one frame at a time.
type RemoteDetector struct {
	conn        *websocket.Conn
	modelConfig *nn.ModelConfig
	jpegQuality int
}

// NewRemoteDetector dials the detector server (eg "localhost:8080"), sends
// the detection parameters, and reads the server's model config.
func NewRemoteDetector(host string, params *nn.DetectionParams) (*RemoteDetector, error) {
	if params == nil {
		params = nn.NewDetectionParams()
	}
	u := url.URL{Scheme: "ws", Host: host, Path: "/detect"}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to detector at %v: %w", u.String(), err)
	}
	hello := helloMessage{
		ProbabilityThreshold: params.ProbabilityThreshold,
		NmsIouThreshold:      params.NmsIouThreshold,
	}
	if err := conn.WriteJSON(&hello); err != nil {
		conn.Close()
		return nil, err
	}
	modelConfig := &nn.ModelConfig{}
	if err := conn.ReadJSON(modelConfig); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to read model config from detector: %w", err)
	}
	return &RemoteDetector{
		conn:        conn,
		modelConfig: modelConfig,
		jpegQuality: 85,
	}, nil
}

func (d *RemoteDetector) Close() {
	if d.conn != nil {
		d.conn.Close()
		d.conn = nil
	}
}

func (d *RemoteDetector) Config() *nn.ModelConfig {
	return d.modelConfig
}

// DetectObjects sends one frame and waits for its detections.
// params were fixed at connection time, so they are ignored here.
func (d *RemoteDetector) DetectObjects(img *image.RGBA, params *nn.DetectionParams) ([]nn.ObjectDetection, error) {
	jpg, err := compressFrame(img, d.jpegQuality)
	if err != nil {
		return nil, err
	}
	if err := d.conn.WriteMessage(websocket.BinaryMessage, jpg); err != nil {
		return nil, fmt.Errorf("failed to send frame to detector: %w", err)
	}
	objects := []nn.ObjectDetection{}
	_, message, err := d.conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("failed to read detections: %w", err)
	}
	if err := json.Unmarshal(message, &objects); err != nil {
		return nil, fmt.Errorf("failed to decode detections: %w", err)
	}
	return objects, nil
}

func compressFrame(img *image.RGBA, quality int) ([]byte, error) {
	width := img.Rect.Dx()
	height := img.Rect.Dy()
	rgb := cimg.NewImage(width, height, cimg.PixelFormatRGB)
	for y := 0; y < height; y++ {
		src := img.Pix[y*img.Stride:]
		dst := rgb.Pixels[y*width*3:]
		for x := 0; x < width; x++ {
			dst[x*3] = src[x*4]
			dst[x*3+1] = src[x*4+1]
			dst[x*3+2] = src[x*4+2]
		}
	}
	return cimg.Compress(rgb, cimg.MakeCompressParams(cimg.Sampling420, quality, 0))
}
