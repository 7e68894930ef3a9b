//go:build !js

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"

	"gochip8/pkg/beep"
	"gochip8/pkg/chip8"
	"gochip8/pkg/config"
	"gochip8/pkg/host"
	"gochip8/pkg/utils"
)

var log = commonlog.GetLogger("chip8.headless")

// runOptions configures one headless run.
type runOptions struct {
	frames  int
	pngPath string
	wavPath string
}

type runResult struct {
	cycles uint64
	frames uint64
	lit    int
	halt   error
}

func main() {
	romPath := flag.String("rom", "", "ROM image to run")
	configPath := flag.String("config", "", "configuration file (default: "+config.FileName+" next to the ROM)")
	frames := flag.Int("frames", 600, "number of 60 Hz frames to run")
	pngPath := flag.String("png", "", "write the final display to this PNG file")
	wavPath := flag.String("wav", "", "record the buzzer to this WAV file")
	verbose := flag.Int("v", -1, "log verbosity, overrides the configuration file")
	flag.Parse()

	if *romPath == "" {
		fmt.Fprintln(os.Stderr, "nothing to do: provide -rom <file>")
		flag.Usage()
		os.Exit(2)
	}
	if *frames < 0 {
		fmt.Fprintln(os.Stderr, "-frames must not be negative")
		os.Exit(2)
	}

	path, err := utils.ConfigPath(*romPath, *configPath, config.FileName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolving configuration: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.LoadOptional(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration: %v\n", err)
		os.Exit(1)
	}
	if *verbose >= 0 {
		cfg.Log.Verbosity = *verbose
	}
	utils.ConfigureLogging(cfg.Log.Verbosity, cfg.Log.File)

	session, err := host.Open(*romPath, cfg.Emulation)
	if err != nil {
		fmt.Fprintf(os.Stderr, "run failed for %q: %v\n", *romPath, err)
		os.Exit(1)
	}

	res, err := runHeadless(session, cfg, runOptions{
		frames:  *frames,
		pngPath: *pngPath,
		wavPath: *wavPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "run failed for %q: %v\n", *romPath, err)
		os.Exit(1)
	}

	fmt.Printf("run complete (%s): frames=%d cycles=%d lit=%d\n", *romPath, res.frames, res.cycles, res.lit)
	if res.halt != nil {
		fmt.Fprintf(os.Stderr, "halted: %v\n", res.halt)
		os.Exit(1)
	}
}

// runHeadless runs up to opts.frames frames with no keys pressed, stopping at
// the first fault, then writes the requested artefacts. A halt is reported in
// the result rather than as an error so artefacts still get written.
func runHeadless(session *host.Session, cfg config.Config, opts runOptions) (runResult, error) {
	var rec *beep.Recorder
	if opts.wavPath != "" {
		rec = beep.NewRecorder(cfg.Audio.SampleRate, cfg.Audio.ToneHz, cfg.Emulation.TimerHz, cfg.Audio.Volume)
	}

	var res runResult
	var idle [chip8.KeyCount]bool
	for i := 0; i < opts.frames; i++ {
		if err := session.Frame(idle); err != nil {
			res.halt = err
			break
		}
		if rec != nil {
			rec.Frame(session.SoundActive())
		}
	}

	fb := session.Snapshot()
	res.cycles = session.Cycles()
	res.frames = session.Frames()
	res.lit = fb.Lit()

	if opts.pngPath != "" {
		on, off, err := cfg.Display.Colors()
		if err != nil {
			return res, err
		}
		if err := fb.SaveScreenshot(opts.pngPath, cfg.Display.Scale, on, off); err != nil {
			return res, fmt.Errorf("writing screenshot: %w", err)
		}
		log.Info("screenshot written", "path", opts.pngPath)
	}

	if rec != nil {
		if err := writeRecording(opts.wavPath, rec); err != nil {
			return res, fmt.Errorf("writing recording: %w", err)
		}
		log.Info("recording written", "path", opts.wavPath, "duration", rec.Duration().String())
	}
	return res, nil
}

func writeRecording(path string, rec *beep.Recorder) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := rec.WriteWAV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
