// Package render rasterizes character frames back into pixels and, with the
// external toolkit, into video.
package render

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"charcoal/internal/ffmpeg"
	"charcoal/internal/frame"
)

// Options controls how a frame is rasterized.
type Options struct {
	// FontSize is the glyph cell height in pixels.
	FontSize int
	// FontRatio is the glyph width:height ratio.
	FontRatio float64
	// Foreground is used for cells that carry no color of their own.
	Foreground color.NRGBA
	// Background fills the canvas behind every glyph.
	Background color.NRGBA
}

// DefaultOptions renders light-on-dark at a 14px cell.
func DefaultOptions() Options {
	return Options{
		FontSize:   14,
		FontRatio:  0.5,
		Foreground: color.NRGBA{R: 204, G: 204, B: 204, A: 255},
		Background: color.NRGBA{R: 16, G: 16, B: 16, A: 255},
	}
}

// Validate reports the first invalid field.
func (o Options) Validate() error {
	if o.FontSize <= 0 {
		return fmt.Errorf("font size must be positive, got %d", o.FontSize)
	}
	if o.FontRatio <= 0 {
		return fmt.Errorf("font ratio must be positive, got %g", o.FontRatio)
	}
	return nil
}

// GlyphSize reports the output pixel cell per character, at least 1x1.
func (o Options) GlyphSize() (w, h int) {
	h = o.FontSize
	w = int(float64(o.FontSize)*o.FontRatio + 0.5)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// glyph metrics of the bitmap face used for drawing.
const (
	faceWidth  = 7
	faceHeight = 13
	faceAscent = 11
)

// Image rasterizes one frame. Glyphs are drawn at the bitmap face's native
// size, then the whole canvas is resized to the requested cell geometry, so
// the output is deterministic for a given frame and options.
func Image(f *frame.Frame, opts Options) (*image.NRGBA, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if f.Width == 0 || f.Height == 0 {
		return nil, fmt.Errorf("cannot render an empty frame")
	}

	canvas := imaging.New(f.Width*faceWidth, f.Height*faceHeight, opts.Background)

	drawer := &font.Drawer{
		Dst:  canvas,
		Face: basicfont.Face7x13,
	}
	buf := make([]byte, 1)
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			cell := f.At(x, y)
			if cell.IsBlank() || cell.Char == ' ' {
				continue
			}
			fg := opts.Foreground
			if cell.Colored {
				fg = color.NRGBA{R: cell.Color.R, G: cell.Color.G, B: cell.Color.B, A: 255}
			}
			drawer.Src = image.NewUniform(fg)
			drawer.Dot = fixed.P(x*faceWidth, y*faceHeight+faceAscent)
			buf[0] = cell.Char
			drawer.DrawString(string(buf))
		}
	}

	gw, gh := opts.GlyphSize()
	if gw == faceWidth && gh == faceHeight {
		return canvas, nil
	}
	return imaging.Resize(canvas, f.Width*gw, f.Height*gh, imaging.Lanczos), nil
}

// VideoOptions controls sequence-to-video rendering.
type VideoOptions struct {
	Output string
	FPS    int
	// Quality is the x264 CRF passed through to the encoder.
	Quality int
	// AudioPath optionally muxes a previously extracted audio track.
	AudioPath string
	// Workers bounds rasterization parallelism; 0 means GOMAXPROCS.
	Workers int
}

// Progress is invoked after each frame is rasterized.
type Progress func(done, total int)

func defaultWorkers() int { return runtime.NumCPU() }

// Sequence rasterizes every frame of seq into dir as numbered PNGs, in
// parallel, preserving sequence order in the file numbering.
func Sequence(seq *frame.Sequence, dir string, opts Options, workers int, progress Progress) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	if len(seq.Frames) == 0 {
		return fmt.Errorf("sequence has no frames")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating render directory: %v", err)
	}
	if workers <= 0 {
		workers = defaultWorkers()
	}
	if workers > len(seq.Frames) {
		workers = len(seq.Frames)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	jobs := make(chan int)
	errSlot := make([]error, len(seq.Frames))
	var done atomic.Int64
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				img, err := Image(seq.Frames[i].Frame, opts)
				if err == nil {
					name := fmt.Sprintf("frame_%04d.png", i+1)
					err = imaging.Save(img, filepath.Join(dir, name))
				}
				if err != nil {
					errSlot[i] = fmt.Errorf("frame %d: %v", seq.Frames[i].Index, err)
					cancel()
					return
				}
				if progress != nil {
					progress(int(done.Add(1)), len(seq.Frames))
				}
			}
		}()
	}

dispatch:
	for i := range seq.Frames {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	var failed []int
	for i, err := range errSlot {
		if err != nil {
			failed = append(failed, i)
		}
	}
	if len(failed) > 0 {
		sort.Ints(failed)
		return errSlot[failed[0]]
	}
	return nil
}

// Video rasterizes the sequence into a temp directory and hands the numbered
// frames to the toolkit for encoding. Container work stays in the toolkit.
func Video(tk ffmpeg.Toolkit, seq *frame.Sequence, vopts VideoOptions, ropts Options, progress Progress) error {
	if vopts.Output == "" {
		return fmt.Errorf("output path required")
	}
	if vopts.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", vopts.FPS)
	}
	if !tk.Available() {
		return ffmpeg.ErrToolNotFound
	}

	tmp, err := os.MkdirTemp("", "charcoal_render_")
	if err != nil {
		return fmt.Errorf("creating temp directory: %v", err)
	}
	defer os.RemoveAll(tmp)

	if err := Sequence(seq, tmp, ropts, vopts.Workers, progress); err != nil {
		return err
	}

	return tk.Encode(ffmpeg.EncodeRequest{
		Pattern:   filepath.Join(tmp, "frame_%04d.png"),
		FPS:       vopts.FPS,
		Quality:   vopts.Quality,
		AudioPath: vopts.AudioPath,
		Output:    vopts.Output,
	})
}
