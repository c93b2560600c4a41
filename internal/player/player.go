// Package player plays a converted frame sequence in the terminal.
package player

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"charcoal/internal/frame"
)

// Options controls playback.
type Options struct {
	FPS int
	// Loop restarts from the first frame after the last.
	Loop bool
}

// Play renders the sequence on a real terminal screen. It returns when the
// sequence ends (without Loop) or the user quits with q, ESC or Ctrl-C.
// Space pauses.
func Play(seq *frame.Sequence, opts Options) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("opening terminal screen: %v", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing terminal screen: %v", err)
	}
	defer screen.Fini()
	return playOn(screen, seq, opts)
}

func playOn(screen tcell.Screen, seq *frame.Sequence, opts Options) error {
	if len(seq.Frames) == 0 {
		return fmt.Errorf("sequence has no frames")
	}
	if opts.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", opts.FPS)
	}

	events := make(chan tcell.Event, 8)
	quit := make(chan struct{})
	go screen.ChannelEvents(events, quit)
	defer close(quit)

	ticker := time.NewTicker(time.Second / time.Duration(opts.FPS))
	defer ticker.Stop()

	idx := 0
	paused := false
	drawFrame(screen, seq.Frames[idx].Frame)
	screen.Show()

	for {
		select {
		case <-ticker.C:
			if paused {
				continue
			}
			idx++
			if idx >= len(seq.Frames) {
				if !opts.Loop {
					return nil
				}
				idx = 0
			}
			drawFrame(screen, seq.Frames[idx].Frame)
			screen.Show()

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev := ev.(type) {
			case *tcell.EventKey:
				switch {
				case ev.Key() == tcell.KeyEscape,
					ev.Key() == tcell.KeyCtrlC,
					ev.Rune() == 'q':
					return nil
				case ev.Rune() == ' ':
					paused = !paused
				}
			case *tcell.EventResize:
				screen.Sync()
			}
		}
	}
}

// drawFrame paints one frame into the top-left corner of the screen,
// clipping to the screen size.
func drawFrame(screen tcell.Screen, f *frame.Frame) {
	screen.Clear()
	maxX, maxY := screen.Size()
	for y := 0; y < f.Height && y < maxY; y++ {
		for x := 0; x < f.Width && x < maxX; x++ {
			cell := f.At(x, y)
			style := tcell.StyleDefault
			if cell.Colored {
				style = style.Foreground(tcell.NewRGBColor(
					int32(cell.Color.R), int32(cell.Color.G), int32(cell.Color.B)))
			}
			screen.SetContent(x, y, rune(cell.Char), nil, style)
		}
	}
}
