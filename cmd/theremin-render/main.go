package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/cwbudde/algo-theremin/analysis"
	"github.com/cwbudde/algo-theremin/internal/audioio"
	"github.com/cwbudde/algo-theremin/preset"
	"github.com/cwbudde/algo-theremin/theremin"
	"github.com/cwbudde/algo-theremin/tracking"
)

func main() {
	framesPath := flag.String("frames", "", "Tracker JSONL replay (default: built-in gesture sweep)")
	demoDuration := flag.Float64("demo-duration", 6.0, "Length of the built-in gesture sweep in seconds")
	demoFPS := flag.Float64("demo-fps", 30, "Frame rate of the built-in gesture sweep")
	tail := flag.Float64("tail", 1.5, "Extra render time after the last frame in seconds")
	sampleRate := flag.Int("sample-rate", 48000, "Render sample rate in Hz")
	blockSize := flag.Int("block", 128, "Render block size in frames")
	presetPath := flag.String("preset", "", "Preset JSON file path (optional)")
	irPath := flag.String("ir", "", "Reverb IR WAV path override (optional)")
	output := flag.String("output", "theremin.wav", "Output WAV file path")
	jsonReport := flag.Bool("json", false, "Print the analysis report as JSON")
	flag.Parse()

	params := theremin.NewDefaultParams()
	if *presetPath != "" {
		p, err := preset.LoadJSON(*presetPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading preset %q: %v\n", *presetPath, err)
			os.Exit(1)
		}
		params = p
	}
	if *irPath != "" {
		params.ReverbIRWavPath = *irPath
	}
	if *blockSize < 1 {
		*blockSize = 128
	}

	frames, source, err := loadFrames(*framesPath, *demoDuration, *demoFPS)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading frames: %v\n", err)
		os.Exit(1)
	}

	th := theremin.NewTheremin(*sampleRate, params)
	if err := th.InitAudio(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Rendering %d frames from %s at %d Hz...\n", len(frames), source, *sampleRate)
	samples := render(th, frames, *tail, *blockSize)

	if err := audioio.WriteStereoInterleaved(*output, samples, *sampleRate); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing WAV file: %v\n", err)
		os.Exit(1)
	}

	report := analysis.Analyze(samples, *sampleRate)
	if *jsonReport {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding report: %v\n", err)
			os.Exit(1)
		}
	} else {
		fmt.Println(report.String())
	}
	fmt.Printf("Successfully wrote %s (%d frames)\n", *output, len(samples)/2)
}

func loadFrames(path string, demoDuration float64, fps float64) ([]tracking.Frame, string, error) {
	if path == "" {
		d := time.Duration(demoDuration * float64(time.Second))
		return tracking.DemoScript(d, fps), "gesture sweep", nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	frames, err := tracking.ReadAll(f)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	return frames, path, nil
}

// render replays frames on the audio clock: each frame is delivered at the
// first block boundary at or after its timestamp.
func render(th *theremin.Theremin, frames []tracking.Frame, tail float64, blockSize int) []float32 {
	sr := th.SampleRate()
	var end time.Duration
	if len(frames) > 0 {
		end = frames[len(frames)-1].Offset()
	}
	totalFrames := int((end.Seconds() + tail) * float64(sr))
	if totalFrames < blockSize {
		totalFrames = blockSize
	}

	epoch := time.Unix(0, 0)
	samples := make([]float32, 0, totalFrames*2)
	next := 0
	for rendered := 0; rendered < totalFrames; {
		now := time.Duration(float64(rendered) / float64(sr) * float64(time.Second))
		for next < len(frames) && frames[next].Offset() <= now {
			th.HandleResults(frames[next].Hands, epoch.Add(frames[next].Offset()))
			next++
		}
		n := blockSize
		if rendered+n > totalFrames {
			n = totalFrames - rendered
		}
		samples = append(samples, th.Process(n)...)
		rendered += n
	}
	return samples
}
