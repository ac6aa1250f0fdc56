package annotate

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/markvideo/pkg/nn"
)

// Suffix appended to the input filename stem. The container is always mp4,
// regardless of the input container.
const OutputSuffix = "_processed.mp4"

// FileResult is the outcome of processing one input video.
// Err is only ever an open failure. Open failures skip the file and the
// batch carries on; every other fault aborts the batch.
type FileResult struct {
	Input  string // Input video path
	Output string // Output video path ("" if the input could not be opened)
	Frames int    // Number of frames written
	Err    error  // Open failure, or nil
}

func (r *FileResult) OK() bool {
	return r.Err == nil
}

// ProcessVideo annotates one video.
//
// The only defended failure is an unopenable source: that is reported in
// FileResult.Err, no output file is created, and the returned error is nil so
// the caller can continue with other videos. Faults after the source is open
// (detector failure, encoder failure, disk full) are returned as an error,
// and abort the batch.
func ProcessVideo(log logs.Log, cfg *Config, detector nn.ObjectDetector, videoPath, name string) (FileResult, error) {
	result := FileResult{Input: videoPath}

	src, err := cfg.OpenSource(videoPath)
	if err != nil {
		log.Errorf("Failed to open video %v: %v", videoPath, err)
		result.Err = err
		return result, nil
	}
	defer src.Close()
	meta := src.Metadata()

	stem := strings.TrimSuffix(name, filepath.Ext(name))
	result.Output = filepath.Join(cfg.OutputDir, stem+OutputSuffix)

	sink, err := cfg.CreateSink(result.Output, meta)
	if err != nil {
		return result, fmt.Errorf("failed to create output video %v: %w", result.Output, err)
	}

	params := nn.NewDetectionParams()
	if cfg.ProbabilityThreshold != 0 {
		params.ProbabilityThreshold = cfg.ProbabilityThreshold
	}

	// Frames go out in the order they came in. That's not optional, the
	// output is a video stream.
	for {
		frame, err := src.NextFrame()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			sink.Close()
			return result, fmt.Errorf("failed to decode %v: %w", videoPath, err)
		}
		objects, err := detector.DetectObjects(frame, params)
		if err != nil {
			sink.Close()
			return result, fmt.Errorf("detector failed on %v: %w", videoPath, err)
		}
		DrawDetections(frame, objects, cfg.Classes)
		if err := sink.WriteFrame(frame); err != nil {
			sink.Close()
			return result, fmt.Errorf("failed to write output video %v: %w", result.Output, err)
		}
		result.Frames++
		if cfg.StdOutProgress {
			if meta.FrameCount > 0 {
				fmt.Printf("Frames processed %v/%v\n", result.Frames, meta.FrameCount)
			} else {
				fmt.Printf("Frames processed %v\n", result.Frames)
			}
		}
	}

	if err := sink.Close(); err != nil {
		return result, fmt.Errorf("failed to finalize output video %v: %w", result.Output, err)
	}
	log.Infof("Saved %v (%v frames)", result.Output, result.Frames)
	return result, nil
}
