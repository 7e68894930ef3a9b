package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/term"
	"github.com/tliron/commonlog"

	"gochip8/pkg/chip8"
	"gochip8/pkg/config"
	"gochip8/pkg/host"
	"gochip8/pkg/keymap"
	"gochip8/pkg/utils"
)

var log = commonlog.GetLogger("chip8.console")

const (
	keyEscape = 0x1b
	keyCtrlC  = 0x03
	keyCtrlR  = 0x12

	ansiHome       = "\x1b[H"
	ansiClear      = "\x1b[2J"
	ansiHideCursor = "\x1b[?25l"
	ansiShowCursor = "\x1b[?25h"
	ansiClearLine  = "\x1b[K"
)

// renderHalfBlocks draws the display two pixel rows per terminal line. Raw
// mode does not translate newlines, so lines end in CRLF.
func renderHalfBlocks(fb chip8.Framebuffer) string {
	var b strings.Builder
	b.Grow(chip8.DisplayHeight / 2 * (chip8.DisplayWidth*3 + 2))
	for y := 0; y < chip8.DisplayHeight; y += 2 {
		for x := 0; x < chip8.DisplayWidth; x++ {
			top, bottom := fb[y][x], fb[y+1][x]
			switch {
			case top && bottom:
				b.WriteRune('█')
			case top:
				b.WriteRune('▀')
			case bottom:
				b.WriteRune('▄')
			default:
				b.WriteByte(' ')
			}
		}
		b.WriteString("\r\n")
	}
	return b.String()
}

// readKeys forwards each terminal read until the read fails or done is
// closed. Keeping reads whole lets a lone ESC be told apart from the escape
// sequences sent by arrow and function keys.
func readKeys(r io.Reader, out chan<- []byte, done <-chan struct{}) {
	defer close(out)
	buf := make([]byte, 16)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			select {
			case out <- chunk:
			case <-done:
				return
			}
		}
		if err != nil {
			return
		}
	}
}

type console struct {
	session *host.Session
	latch   *keymap.Latch
	out     io.Writer
	romName string

	sounding bool
}

// frame advances the session by one frame and redraws.
func (c *console) frame() {
	err := c.session.Frame(c.latch.Advance())

	var status string
	if err != nil {
		status = fmt.Sprintf("halted: %v  (Ctrl-R reset, Esc quit)", err)
	} else {
		status = fmt.Sprintf("%s  cycles %d  (Ctrl-R reset, Esc quit)", c.romName, c.session.Cycles())
	}

	sound := err == nil && c.session.SoundActive()
	bell := ""
	if sound && !c.sounding {
		bell = "\a"
	}
	c.sounding = sound

	fmt.Fprint(c.out, ansiHome, renderHalfBlocks(c.session.Snapshot()), status, ansiClearLine, bell)
}

// input handles one terminal read. It reports false when the user asked to
// quit. A read that starts with ESC and carries more bytes is a key sequence
// with no keypad meaning and is dropped.
func (c *console) input(chunk []byte) bool {
	if len(chunk) > 1 && chunk[0] == keyEscape {
		return true
	}
	for _, b := range chunk {
		if !c.key(rune(b)) {
			return false
		}
	}
	return true
}

// key handles one input byte. It reports false when the user asked to quit.
func (c *console) key(r rune) bool {
	switch r {
	case keyEscape, keyCtrlC:
		return false
	case keyCtrlR:
		c.latch.Release()
		c.session.Reset()
	default:
		c.latch.Press(r)
	}
	return true
}

func (c *console) run(ctx context.Context, input <-chan []byte, hz int) {
	ticker := time.NewTicker(time.Second / time.Duration(hz))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case chunk, ok := <-input:
			if !ok || !c.input(chunk) {
				return
			}
		case <-ticker.C:
			c.frame()
		}
	}
}

func run() error {
	configPath := flag.String("config", "", "configuration file (default: "+config.FileName+" next to the ROM)")
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
	// stderr shares the screen, so only log when a file is configured.
	if cfg.Log.File == "" {
		utils.ConfigureLogging(utils.Quiet, "")
	} else {
		utils.ConfigureLogging(cfg.Log.Verbosity, cfg.Log.File)
	}

	session, err := host.Open(romPath, cfg.Emulation)
	if err != nil {
		return err
	}

	tty, err := term.Open("/dev/tty", term.RawMode)
	if err != nil {
		return fmt.Errorf("opening terminal: %w", err)
	}
	defer func() {
		fmt.Fprint(os.Stdout, ansiShowCursor, "\r\n")
		if err := tty.Restore(); err != nil {
			log.Error("restoring terminal", "error", err.Error())
		}
		tty.Close()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	input := make(chan []byte, 16)
	done := make(chan struct{})
	defer close(done)
	go readKeys(tty, input, done)

	fmt.Fprint(os.Stdout, ansiHideCursor, ansiClear)
	c := &console{
		session: session,
		latch:   keymap.NewLatch(cfg.Keys.LatchFrames),
		out:     os.Stdout,
		romName: utils.RomName(romPath),
	}
	c.run(ctx, input, cfg.Emulation.TimerHz)

	log.Info("exiting", "cycles", session.Cycles(), "frames", session.Frames())
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
