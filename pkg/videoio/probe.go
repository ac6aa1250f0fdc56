package videoio

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Subset of ffprobe's -show_streams output that we care about
type probeOutput struct {
	Streams []probeStream `json:"streams"`
}

type probeStream struct {
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	RFrameRate string `json:"r_frame_rate"`
	NbFrames   string `json:"nb_frames"`
}

// Probe reads video metadata with ffprobe
func Probe(filename string) (*Metadata, error) {
	out, err := runApp("ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate,nb_frames",
		"-of", "json",
		filename)
	if err != nil {
		return nil, fmt.Errorf("ffprobe %v: %w", filename, err)
	}
	return parseProbeOutput([]byte(out))
}

func parseProbeOutput(raw []byte) (*Metadata, error) {
	probe := probeOutput{}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, err
	}
	if len(probe.Streams) == 0 {
		return nil, fmt.Errorf("no video stream found")
	}
	stream := probe.Streams[0]
	if stream.Width <= 0 || stream.Height <= 0 {
		return nil, fmt.Errorf("invalid video dimensions %vx%v", stream.Width, stream.Height)
	}
	meta := &Metadata{
		FrameRate: stream.RFrameRate,
		Width:     stream.Width,
		Height:    stream.Height,
	}
	// Some containers (eg mkv) don't store a frame count, and ffprobe says "N/A"
	if n, err := strconv.Atoi(stream.NbFrames); err == nil {
		meta.FrameCount = n
	}
	return meta, nil
}

// parseFrameRate parses an ffprobe rational such as "30000/1001".
// Returns 0 if the string is malformed.
func parseFrameRate(rate string) float64 {
	num, den, hasDen := strings.Cut(rate, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !hasDen {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}
