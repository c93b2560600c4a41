package render

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"charcoal/internal/ffmpeg"
	"charcoal/internal/frame"
	"charcoal/internal/video"
)

func testOptions() Options {
	o := DefaultOptions()
	// Native face geometry keeps tests free of resampling artifacts.
	o.FontSize = 13
	o.FontRatio = 7.0 / 13.0
	return o
}

func glyphFrame(t *testing.T, rows []string) *frame.Frame {
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

func TestGlyphSize(t *testing.T) {
	tests := []struct {
		size  int
		ratio float64
		wantW int
		wantH int
	}{
		{14, 0.5, 7, 14},
		{13, 7.0 / 13.0, 7, 13},
		{10, 0.7, 7, 10},
		{1, 0.1, 1, 1},
	}

	for _, tt := range tests {
		o := Options{FontSize: tt.size, FontRatio: tt.ratio}
		w, h := o.GlyphSize()
		if w != tt.wantW || h != tt.wantH {
			t.Errorf("GlyphSize(%d, %g) = %dx%d, want %dx%d",
				tt.size, tt.ratio, w, h, tt.wantW, tt.wantH)
		}
	}
}

func TestImageDimensions(t *testing.T) {
	f := glyphFrame(t, []string{"##", "  ", "##"})

	opts := DefaultOptions()
	opts.FontSize = 14
	opts.FontRatio = 0.5

	img, err := Image(f, opts)
	if err != nil {
		t.Fatalf("Image: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 2*7 || bounds.Dy() != 3*14 {
		t.Errorf("bounds = %dx%d, want %dx%d", bounds.Dx(), bounds.Dy(), 14, 42)
	}
}

func TestImageBlankFrameIsBackground(t *testing.T) {
	f, err := frame.New(4, 2)
	if err != nil {
		t.Fatal(err)
	}
	opts := testOptions()
	opts.Background = color.NRGBA{R: 10, G: 20, B: 30, A: 255}

	img, err := Image(f, opts)
	if err != nil {
		t.Fatalf("Image: %v", err)
	}
	for y := 0; y < img.Bounds().Dy(); y++ {
		for x := 0; x < img.Bounds().Dx(); x++ {
			got := img.NRGBAAt(x, y)
			if got != opts.Background {
				t.Fatalf("pixel (%d,%d) = %v, want background %v", x, y, got, opts.Background)
			}
		}
	}
}

func TestImageDrawsGlyphInk(t *testing.T) {
	f := glyphFrame(t, []string{"#"})
	opts := testOptions()

	img, err := Image(f, opts)
	if err != nil {
		t.Fatalf("Image: %v", err)
	}
	found := false
	for y := 0; y < img.Bounds().Dy() && !found; y++ {
		for x := 0; x < img.Bounds().Dx(); x++ {
			if img.NRGBAAt(x, y) == opts.Foreground {
				found = true
				break
			}
		}
	}
	if !found {
		t.Error("no foreground pixel drawn for '#'")
	}
}

func TestImageUsesCellColor(t *testing.T) {
	f, err := frame.New(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	f.Set(0, 0, frame.Cell{Char: '#', Color: frame.RGB{R: 250, G: 10, B: 10}, Colored: true})

	img, err := Image(f, testOptions())
	if err != nil {
		t.Fatalf("Image: %v", err)
	}
	want := color.NRGBA{R: 250, G: 10, B: 10, A: 255}
	found := false
	for y := 0; y < img.Bounds().Dy() && !found; y++ {
		for x := 0; x < img.Bounds().Dx(); x++ {
			if img.NRGBAAt(x, y) == want {
				found = true
				break
			}
		}
	}
	if !found {
		t.Error("cell color never appears in output")
	}
}

func TestImageDeterministic(t *testing.T) {
	f := glyphFrame(t, []string{"ab", "cd"})
	opts := DefaultOptions()

	a, err := Image(f, opts)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Image(f, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Pix) != len(b.Pix) {
		t.Fatalf("pixel buffers differ in size")
	}
	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			t.Fatalf("pixel data diverges at byte %d", i)
		}
	}
}

func TestImageValidation(t *testing.T) {
	f := glyphFrame(t, []string{"x"})
	if _, err := Image(f, Options{FontSize: 0, FontRatio: 0.5}); err == nil {
		t.Error("zero font size accepted")
	}
	if _, err := Image(f, Options{FontSize: 12, FontRatio: 0}); err == nil {
		t.Error("zero font ratio accepted")
	}
}

func testSequence(t *testing.T, n int) *frame.Sequence {
	t.Helper()
	seq := &frame.Sequence{Width: 3, Height: 2}
	for i := 0; i < n; i++ {
		f := glyphFrame(t, []string{"###", "###"})
		seq.Frames = append(seq.Frames, frame.Indexed{Index: i + 1, Frame: f})
	}
	return seq
}

func TestSequenceWritesNumberedFrames(t *testing.T) {
	dir := t.TempDir()
	seq := testSequence(t, 3)

	var last int
	err := Sequence(seq, dir, testOptions(), 2, func(done, total int) {
		if done > last {
			last = done
		}
		if total != 3 {
			t.Errorf("total = %d, want 3", total)
		}
	})
	if err != nil {
		t.Fatalf("Sequence: %v", err)
	}
	for i := 1; i <= 3; i++ {
		p := filepath.Join(dir, fmt.Sprintf("frame_%04d.png", i))
		if _, err := os.Stat(p); err != nil {
			t.Errorf("missing %s: %v", p, err)
		}
	}
	if last != 3 {
		t.Errorf("progress reached %d, want 3", last)
	}
}

func TestSequenceEmpty(t *testing.T) {
	err := Sequence(&frame.Sequence{}, t.TempDir(), testOptions(), 1, nil)
	if err == nil {
		t.Error("empty sequence accepted")
	}
}

// stubToolkit records the encode request instead of running anything.
type stubToolkit struct {
	available bool
	encoded   *ffmpeg.EncodeRequest
	encodeErr error
}

func (s *stubToolkit) Available() bool                              { return s.available }
func (s *stubToolkit) ExtractFrames(ffmpeg.ExtractRequest) error    { return nil }
func (s *stubToolkit) Probe(string) (*video.Info, error)            { return nil, nil }
func (s *stubToolkit) ExtractAudio(string, string) error            { return nil }
func (s *stubToolkit) Encode(req ffmpeg.EncodeRequest) error {
	s.encoded = &req
	return s.encodeErr
}

func TestVideoEncodesRenderedFrames(t *testing.T) {
	tk := &stubToolkit{available: true}
	seq := testSequence(t, 2)
	out := filepath.Join(t.TempDir(), "out.mp4")

	err := Video(tk, seq, VideoOptions{Output: out, FPS: 24, Quality: 20}, testOptions(), nil)
	if err != nil {
		t.Fatalf("Video: %v", err)
	}
	if tk.encoded == nil {
		t.Fatal("Encode never called")
	}
	if tk.encoded.FPS != 24 || tk.encoded.Quality != 20 || tk.encoded.Output != out {
		t.Errorf("unexpected encode request %+v", tk.encoded)
	}
	if filepath.Base(tk.encoded.Pattern) != "frame_%04d.png" {
		t.Errorf("pattern = %q", tk.encoded.Pattern)
	}
}

func TestVideoToolkitMissing(t *testing.T) {
	tk := &stubToolkit{available: false}
	err := Video(tk, testSequence(t, 1), VideoOptions{Output: "o.mp4", FPS: 24}, testOptions(), nil)
	if !errors.Is(err, ffmpeg.ErrToolNotFound) {
		t.Errorf("got %v, want ErrToolNotFound", err)
	}
}

func TestVideoValidation(t *testing.T) {
	tk := &stubToolkit{available: true}
	seq := testSequence(t, 1)
	if err := Video(tk, seq, VideoOptions{Output: "", FPS: 24}, testOptions(), nil); err == nil {
		t.Error("empty output accepted")
	}
	if err := Video(tk, seq, VideoOptions{Output: "o.mp4", FPS: 0}, testOptions(), nil); err == nil {
		t.Error("zero fps accepted")
	}
}
