// Package annotate is the batch video annotation pipeline: read frames from a
// video, run them through an object detector, draw the detections, and encode
// the annotated frames into a new video.
package annotate

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/markvideo/pkg/nn"
	"github.com/cyclopcam/markvideo/pkg/videoio"
)

// Recognized video container extensions (lower case)
var DefaultExtensions = []string{".mp4", ".avi", ".mov", ".mkv"}

type SourceOpener func(filename string) (videoio.VideoSource, error)
type SinkCreator func(filename string, meta *videoio.Metadata) (videoio.VideoSink, error)

// Config is everything the batch driver needs.
// OpenSource/CreateSink exist so that tests can drive the pipeline with fake
// videos; production uses the ffmpeg implementations.
type Config struct {
	InputDir             string
	OutputDir            string
	Classes              nn.Classes // Class id -> name table for labels
	Extensions           []string   // Allowed input extensions. Empty means DefaultExtensions.
	ProbabilityThreshold float32    // Zero means nn.DefaultProbabilityThreshold
	StdOutProgress       bool       // Emit per-frame progress to stdout
	OpenSource           SourceOpener
	CreateSink           SinkCreator
}

func (c *Config) setDefaults() {
	if len(c.Extensions) == 0 {
		c.Extensions = DefaultExtensions
	}
	for i, ext := range c.Extensions {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.Extensions[i] = ext
	}
	if c.OpenSource == nil {
		c.OpenSource = func(filename string) (videoio.VideoSource, error) {
			return videoio.OpenFFmpegSource(filename)
		}
	}
	if c.CreateSink == nil {
		c.CreateSink = func(filename string, meta *videoio.Metadata) (videoio.VideoSink, error) {
			return videoio.NewFFmpegSink(filename, meta)
		}
	}
}

// IsVideoFile tells whether a filename has one of the allowed extensions.
// The comparison is case insensitive, so "CLIP.MP4" is a video.
func IsVideoFile(name string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range extensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// RunBatch annotates every recognized video in cfg.InputDir, writing the
// results into cfg.OutputDir. The detector is reused across videos.
// Files that fail to open are recorded in their FileResult and do not stop
// the batch. Any other fault stops the batch, and the results accumulated so
// far are returned along with the error.
func RunBatch(log logs.Log, cfg *Config, detector nn.ObjectDetector) ([]FileResult, error) {
	cfg.setDefaults()

	if err := os.MkdirAll(cfg.OutputDir, 0777); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(cfg.InputDir)
	if err != nil {
		return nil, err
	}

	results := []FileResult{}
	for _, entry := range entries {
		if entry.IsDir() || !IsVideoFile(entry.Name(), cfg.Extensions) {
			continue
		}
		videoPath := filepath.Join(cfg.InputDir, entry.Name())
		result, err := ProcessVideo(log, cfg, detector, videoPath, entry.Name())
		results = append(results, result)
		if err != nil {
			return results, err
		}
	}
	return results, nil
}
