package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/akamensky/argparse"
	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/markvideo/pkg/annotate"
	"github.com/cyclopcam/markvideo/pkg/nn"
	"github.com/cyclopcam/markvideo/pkg/nnremote"
)

func check(err error) {
	if err != nil {
		panic(err)
	}
}

func main() {
	parser := argparse.NewParser("markvideo", "Draw object detections onto videos")
	inputDir := parser.String("i", "input", &argparse.Options{Help: "Directory containing input videos", Required: true})
	outputDir := parser.String("o", "output", &argparse.Options{Help: "Directory for annotated output videos", Required: true})
	detectorAddr := parser.String("d", "detector", &argparse.Options{Help: "Address of detector server", Required: false, Default: "localhost:8080"})
	classFile := parser.String("c", "classes", &argparse.Options{Help: "Class name file (one name per line). Default is the classes announced by the detector.", Required: false, Default: ""})
	threshold := parser.Float("t", "threshold", &argparse.Options{Help: "Object detection probability threshold", Required: false, Default: float64(nn.DefaultProbabilityThreshold)})
	extensions := parser.String("e", "extensions", &argparse.Options{Help: "Comma-separated list of recognized video extensions", Required: false, Default: strings.Join(annotate.DefaultExtensions, ",")})
	quiet := parser.Flag("q", "quiet", &argparse.Options{Help: "Suppress per-frame progress output", Default: false})
	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	logger, _ := logs.NewLog()

	params := nn.NewDetectionParams()
	params.ProbabilityThreshold = float32(*threshold)

	detector, err := nnremote.NewRemoteDetector(*detectorAddr, params)
	check(err)
	defer detector.Close()

	var classes nn.Classes
	if *classFile != "" {
		classes, err = nn.LoadClassFile(*classFile)
		check(err)
	} else if len(detector.Config().Classes) != 0 {
		classes = nn.Classes(detector.Config().Classes)
	} else {
		classes = nn.COCOClasses
	}

	cfg := annotate.Config{
		InputDir:             *inputDir,
		OutputDir:            *outputDir,
		Classes:              classes,
		Extensions:           strings.Split(strings.ToLower(*extensions), ","),
		ProbabilityThreshold: float32(*threshold),
		StdOutProgress:       !*quiet,
	}

	results, err := annotate.RunBatch(logger, &cfg, detector)
	check(err)

	nFailed := 0
	for _, r := range results {
		if !r.OK() {
			nFailed++
		}
	}
	logger.Infof("Processing complete. %v videos annotated, %v failed to open", len(results)-nFailed, nFailed)
}
