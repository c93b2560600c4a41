package player

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"charcoal/internal/frame"
)

func newSimScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatal(err)
	}
	screen.SetSize(40, 10)
	return screen
}

func testFrame(t *testing.T, rows []string) *frame.Frame {
	t.Helper()
	f, err := frame.New(len(rows[0]), len(rows))
	if err != nil {
		t.Fatal(err)
	}
	for y, row := range rows {
		for x := 0; x < len(row); x++ {
			if row[x] != ' ' {
				f.Set(x, y, frame.Cell{Char: row[x]})
			}
		}
	}
	return f
}

func TestDrawFrame(t *testing.T) {
	screen := newSimScreen(t)
	defer screen.Fini()

	drawFrame(screen, testFrame(t, []string{"ab", " c"}))
	screen.Show()

	checks := []struct {
		x, y int
		want rune
	}{
		{0, 0, 'a'},
		{1, 0, 'b'},
		{0, 1, ' '},
		{1, 1, 'c'},
	}
	for _, c := range checks {
		got, _, _, _ := screen.GetContent(c.x, c.y)
		if got != c.want {
			t.Errorf("cell (%d,%d) = %q, want %q", c.x, c.y, got, c.want)
		}
	}
}

func TestDrawFrameColor(t *testing.T) {
	screen := newSimScreen(t)
	defer screen.Fini()

	f, err := frame.New(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	f.Set(0, 0, frame.Cell{Char: '#', Color: frame.RGB{R: 255, G: 0, B: 0}, Colored: true})
	drawFrame(screen, f)
	screen.Show()

	_, _, style, _ := screen.GetContent(0, 0)
	fg, _, _ := style.Decompose()
	if fg != tcell.NewRGBColor(255, 0, 0) {
		t.Errorf("foreground = %v, want red", fg)
	}
}

func TestDrawFrameClipsToScreen(t *testing.T) {
	screen := newSimScreen(t)
	defer screen.Fini()
	screen.SetSize(2, 1)

	rows := []string{"abcdef", "ghijkl", "mnopqr"}
	// Must not panic writing outside the 2x1 screen.
	drawFrame(screen, testFrame(t, rows))
	screen.Show()

	got, _, _, _ := screen.GetContent(0, 0)
	if got != 'a' {
		t.Errorf("cell (0,0) = %q, want 'a'", got)
	}
}

func TestPlayOnRunsToCompletion(t *testing.T) {
	screen := newSimScreen(t)
	defer screen.Fini()

	seq := &frame.Sequence{Width: 2, Height: 1}
	for i := 0; i < 3; i++ {
		seq.Frames = append(seq.Frames, frame.Indexed{
			Index: i + 1,
			Frame: testFrame(t, []string{"ab"}),
		})
	}

	done := make(chan error, 1)
	go func() {
		done <- playOn(screen, seq, Options{FPS: 60})
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("playOn: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("playback did not finish")
	}
}

func TestPlayOnQuitKey(t *testing.T) {
	screen := newSimScreen(t)
	defer screen.Fini()

	seq := &frame.Sequence{Width: 2, Height: 1}
	seq.Frames = append(seq.Frames, frame.Indexed{Index: 1, Frame: testFrame(t, []string{"ab"})})

	done := make(chan error, 1)
	go func() {
		// Loop mode never ends on its own; only the key press stops it.
		done <- playOn(screen, seq, Options{FPS: 60, Loop: true})
	}()

	time.Sleep(50 * time.Millisecond)
	screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("playOn: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("quit key ignored")
	}
}

func TestPlayOnValidation(t *testing.T) {
	screen := newSimScreen(t)
	defer screen.Fini()

	if err := playOn(screen, &frame.Sequence{}, Options{FPS: 10}); err == nil {
		t.Error("empty sequence accepted")
	}
	seq := &frame.Sequence{Width: 2, Height: 1}
	seq.Frames = append(seq.Frames, frame.Indexed{Index: 1, Frame: testFrame(t, []string{"ab"})})
	if err := playOn(screen, seq, Options{FPS: 0}); err == nil {
		t.Error("zero fps accepted")
	}
}
