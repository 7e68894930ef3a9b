package main

import (
	"errors"
	"flag"
	"fmt"
	"image/color"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/tliron/commonlog"

	"gochip8/pkg/beep"
	"gochip8/pkg/chip8"
	"gochip8/pkg/config"
	"gochip8/pkg/host"
	"gochip8/pkg/keymap"
	"gochip8/pkg/utils"
)

var log = commonlog.GetLogger("chip8.desktop")

// hostKeys is the ebiten key for each position of keymap.Layout.
var hostKeys = [keymap.KeyCount]ebiten.Key{
	ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4,
	ebiten.KeyQ, ebiten.KeyW, ebiten.KeyE, ebiten.KeyR,
	ebiten.KeyA, ebiten.KeyS, ebiten.KeyD, ebiten.KeyF,
	ebiten.KeyZ, ebiten.KeyX, ebiten.KeyC, ebiten.KeyV,
}

// readPad builds the keypad state from a key predicate.
func readPad(pressed func(ebiten.Key) bool) [chip8.KeyCount]bool {
	var keys [chip8.KeyCount]bool
	for i, k := range hostKeys {
		if pressed(k) {
			keys[keymap.Pad[i]] = true
		}
	}
	return keys
}

type Game struct {
	session *host.Session
	tone    *beep.Tone // nil when audio is disabled

	on, off color.RGBA
	scale   int

	canvas *ebiten.Image // reused 64×32 bitmap
	paused bool
	fault  error
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		g.session.Reset()
		g.fault = nil
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		g.paused = !g.paused
	}

	if g.paused || g.fault != nil {
		g.gate(false)
		return nil
	}

	// One Update is one 60 Hz frame; the session runs the cycle budget and
	// ticks the timers.
	if err := g.session.Frame(readPad(ebiten.IsKeyPressed)); err != nil {
		g.fault = err
		g.gate(false)
		return nil
	}
	g.gate(g.session.SoundActive())
	return nil
}

func (g *Game) gate(on bool) {
	if g.tone != nil {
		g.tone.SetGate(on)
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.canvas == nil {
		g.canvas = ebiten.NewImage(chip8.DisplayWidth, chip8.DisplayHeight)
	}

	fb := g.session.Snapshot()
	g.canvas.WritePixels(fb.RGBA(g.on, g.off))

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(g.scale), float64(g.scale))
	screen.DrawImage(g.canvas, op)

	switch {
	case g.fault != nil:
		ebitenutil.DebugPrint(screen, fmt.Sprintf("halted: %v\nF5 to reset", g.fault))
	case g.paused:
		ebitenutil.DebugPrint(screen, "paused")
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return chip8.DisplayWidth * g.scale, chip8.DisplayHeight * g.scale
}

func newGame(session *host.Session, cfg config.Config) (*Game, error) {
	on, off, err := cfg.Display.Colors()
	if err != nil {
		return nil, err
	}
	return &Game{
		session: session,
		on:      on,
		off:     off,
		scale:   cfg.Display.Scale,
	}, nil
}

// startAudio plays the buzzer tone through ebiten for the lifetime of the
// process.
func startAudio(cfg config.Audio) (*beep.Tone, *audio.Player, error) {
	ctx := audio.NewContext(cfg.SampleRate)
	tone := beep.NewTone(cfg.SampleRate, cfg.ToneHz, cfg.Volume)
	player, err := ctx.NewPlayer(tone)
	if err != nil {
		return nil, nil, err
	}
	player.SetBufferSize(50 * time.Millisecond)
	player.Play()
	return tone, player, nil
}

func run() error {
	configPath := flag.String("config", "", "configuration file (default: "+config.FileName+" next to the ROM)")
	verbose := flag.Int("v", -1, "log verbosity, overrides the configuration file")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] rom.ch8\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	romPath := flag.Arg(0)

	path, err := utils.ConfigPath(romPath, *configPath, config.FileName)
	if err != nil {
		return err
	}
	cfg, err := config.LoadOptional(path)
	if err != nil {
		return err
	}
	if *verbose >= 0 {
		cfg.Log.Verbosity = *verbose
	}
	utils.ConfigureLogging(cfg.Log.Verbosity, cfg.Log.File)
	if cfg.Path != "" {
		log.Info("configuration loaded", "path", cfg.Path)
	}

	session, err := host.Open(romPath, cfg.Emulation)
	if err != nil {
		return err
	}
	game, err := newGame(session, cfg)
	if err != nil {
		return err
	}

	if cfg.Audio.Enabled {
		tone, player, err := startAudio(cfg.Audio)
		if err != nil {
			log.Warning("audio unavailable", "error", err.Error())
		} else {
			defer player.Close()
			game.tone = tone
		}
	}

	w, h := game.Layout(0, 0)
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowTitle("CHIP-8 - " + utils.RomName(romPath))
	ebiten.SetTPS(cfg.Emulation.TimerHz)

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	log.Info("exiting", "cycles", session.Cycles(), "frames", session.Frames())
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
