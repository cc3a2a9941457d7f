// Command galaxy-view renders a rotating galaxy in the terminal. Parameter
// keys edit the galaxy live; edits are debounced and regenerated in the
// background so the current galaxy stays on screen until its successor is
// ready.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"galaxy-server/internal/galaxy"
	"galaxy-server/internal/preview"
	"galaxy-server/internal/shared/config"
	"galaxy-server/internal/shared/logger"

	"github.com/gdamore/tcell/v2"
)

const (
	frameInterval = 50 * time.Millisecond
	editDebounce  = 300 * time.Millisecond
)

var (
	logFlag   = flag.String("log", "", "write logs to this file instead of discarding them")
	scaleFlag = flag.Float64("scale", 0, "columns per world unit, 0 fits the galaxy to the window")
)

type viewer struct {
	screen     tcell.Screen
	controller *galaxy.Controller
	debouncer  *galaxy.Debouncer
	logger     *slog.Logger

	// params holds edits not yet regenerated; touched only by the event loop.
	params  galaxy.Parameters
	current atomic.Pointer[galaxy.Buffer]
	lastErr atomic.Pointer[string]
	start   time.Time
}

// Adopt and Release make the viewer the controller's rendering sink.
func (v *viewer) Adopt(buf *galaxy.Buffer) {
	v.current.Store(buf)
}

// Release has nothing to free: the old buffer is collected once the frame
// being drawn from it is done.
func (v *viewer) Release(*galaxy.Buffer) {}

func main() {
	flag.Parse()

	galaxyCfg, logCfg, err := config.LoadStandalone()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	var logOut io.Writer = io.Discard
	if *logFlag != "" {
		f, err := os.OpenFile(*logFlag, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	log := logger.New(logOut, logCfg).With("component", "galaxy_view")

	params, err := galaxy.DefaultParameters(galaxyCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid galaxy parameters: %v\n", err)
		os.Exit(1)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create screen: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize terminal: %v\n", err)
		os.Exit(1)
	}
	defer screen.Fini()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	v := &viewer{screen: screen, logger: log, params: params, start: time.Now()}
	v.controller = galaxy.NewController(nil, log, v)
	v.debouncer = galaxy.NewDebouncer(editDebounce, func(p galaxy.Parameters) {
		v.regenerate(ctx, p)
	})
	defer v.debouncer.Stop()

	if err := v.controller.OnParametersFinalized(params); err != nil {
		screen.Fini()
		fmt.Fprintf(os.Stderr, "Failed to generate galaxy: %v\n", err)
		os.Exit(1)
	}

	v.run()
}

func (v *viewer) regenerate(ctx context.Context, p galaxy.Parameters) {
	done := v.controller.Submit(ctx, p)
	go func() {
		err := <-done
		switch {
		case err == nil:
			v.lastErr.Store(nil)
		case errors.Is(err, galaxy.ErrSuperseded), errors.Is(err, context.Canceled):
		default:
			v.logger.Warn("Galaxy regeneration failed", "error", err)
			msg := err.Error()
			v.lastErr.Store(&msg)
		}
	}()
}

func (v *viewer) run() {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	for {
		select {
		case ev := <-events:
			if !v.handleEvent(ev) {
				return
			}
		case <-ticker.C:
			v.draw()
		}
	}
}

func (v *viewer) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyEscape, ev.Key() == tcell.KeyCtrlC:
			return false
		case ev.Key() == tcell.KeyEnter:
			v.debouncer.Flush()
		case ev.Key() == tcell.KeyRune && ev.Rune() == 'q':
			return false
		case ev.Key() == tcell.KeyRune:
			if next, ok := preview.KeyEdit(v.params, galaxy.DefaultControls, ev.Rune()); ok {
				v.params = next
				v.debouncer.Push(next)
			}
		}
	case *tcell.EventResize:
		v.screen.Sync()
	}
	return true
}

func (v *viewer) draw() {
	width, height := v.screen.Size()
	if height < 2 {
		return
	}

	buf := v.current.Load()
	if buf != nil {
		scale := *scaleFlag
		if scale <= 0 {
			scale = float64(width) / (2 * (buf.Params.Radius + 2))
		}
		angle := preview.Angle(time.Since(v.start).Seconds())
		preview.Draw(v.screen, preview.Project(buf, width, height-1, angle, scale), buf.Params.ParticleSize)
	}

	status := fmt.Sprintf(" %s | count %d  branches %d  spin %.1f  radius %.1f  power %.1f  size %.3f | c/b/s/r/p/z edit  q quit",
		v.controller.State(), v.params.Count, v.params.Branches, v.params.Spin,
		v.params.Radius, v.params.RandomnessPower, v.params.ParticleSize)
	if msg := v.lastErr.Load(); msg != nil {
		status = " error: " + *msg
	}
	statusStyle := tcell.StyleDefault.Background(tcell.ColorDarkSlateGray).Foreground(tcell.ColorWhite)
	for x := 0; x < width; x++ {
		v.screen.SetContent(x, height-1, ' ', nil, statusStyle)
	}
	preview.DrawText(v.screen, 0, height-1, statusStyle, status)

	v.screen.Show()
}
