// Package ascii implements the pixel-to-character mapping at the heart of
// the converter: luminance-weighted palette lookup plus whole-image
// conversion into character frames.
package ascii

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"charcoal/internal/frame"
)

// DefaultCharset is the built-in palette, darkest to lightest.
const DefaultCharset = " .'`^,:;Il!i><~+_-?][}{1)(|/tfjrxnuvczXYUJCLQ0OZmwqpdbkhao*#MW&8%B@$"

// Palette is an ordered set of display characters, index 0 darkest. It is
// immutable once constructed and safe to share across workers.
type Palette struct {
	chars []byte
}

// NewPalette validates and builds a palette. The charset must be non-empty,
// printable ASCII, with no duplicate characters.
func NewPalette(charset string) (Palette, error) {
	if len(charset) == 0 {
		return Palette{}, fmt.Errorf("palette cannot be empty")
	}
	seen := [256]bool{}
	for i := 0; i < len(charset); i++ {
		ch := charset[i]
		if ch < 0x20 || ch > 0x7e {
			return Palette{}, fmt.Errorf("palette contains non-printable or non-ASCII byte 0x%02x at position %d", ch, i)
		}
		if seen[ch] {
			return Palette{}, fmt.Errorf("palette contains duplicate character %q at position %d", ch, i)
		}
		seen[ch] = true
	}
	return Palette{chars: []byte(charset)}, nil
}

// DefaultPalette returns the built-in charset as a palette.
func DefaultPalette() Palette {
	p, err := NewPalette(DefaultCharset)
	if err != nil {
		panic("default charset invalid: " + err.Error())
	}
	return p
}

// Len returns the number of characters in the palette.
func (p Palette) Len() int { return len(p.chars) }

// String returns the palette characters darkest to lightest.
func (p Palette) String() string { return string(p.chars) }

// Options configures a conversion. Values are read-only once built and are
// shared by reference across the whole pipeline.
type Options struct {
	// Columns is the target character width; 0 means derive from the
	// source width.
	Columns int
	// FontRatio is the display width:height ratio of one character cell.
	FontRatio float64
	// Threshold is the luminance below which a pixel becomes a blank
	// cell.
	Threshold uint8
	// Palette maps luminance to characters.
	Palette Palette
	// Color keeps the source color of every non-blank cell.
	Color bool
}

// Validate checks option invariants shared by every entry point.
func (o *Options) Validate() error {
	if o.Columns < 0 {
		return fmt.Errorf("columns must be positive, got %d", o.Columns)
	}
	if o.FontRatio <= 0 {
		return fmt.Errorf("font ratio must be positive, got %g", o.FontRatio)
	}
	if o.Palette.Len() == 0 {
		return fmt.Errorf("palette cannot be empty")
	}
	return nil
}

// Luminance computes the integer-truncated perceptual luminance
// 0.2126r + 0.7152g + 0.0722b. Fixed-point arithmetic keeps the truncation
// exact; the weights sum to one so the result stays in [0,255].
func Luminance(r, g, b uint8) uint8 {
	return uint8((2126*int(r) + 7152*int(g) + 722*int(b)) / 10000)
}

// MapPixel converts one pixel sample to a cell. Below the threshold the
// result is the blank cell; otherwise the remaining luminance range is
// spread linearly over the palette. In color mode the original sample is
// kept unmodified so the renderer can reproduce the exact hue.
//
// The function is pure and allocation-free; it runs once per pixel.
func MapPixel(r, g, b uint8, opts *Options) frame.Cell {
	l := Luminance(r, g, b)
	if l < opts.Threshold {
		return frame.Blank
	}

	span := 255 - int(opts.Threshold)
	if span < 1 {
		span = 1
	}
	idx := int(l-opts.Threshold) * (opts.Palette.Len() - 1) / span
	if idx > opts.Palette.Len()-1 {
		idx = opts.Palette.Len() - 1
	}

	cell := frame.Cell{Char: opts.Palette.chars[idx]}
	// A space draws the same in every color, so it never carries one; this
	// keeps palette-index-0 spaces identical to threshold blanks.
	if opts.Color && cell.Char != ' ' {
		cell.Color = frame.RGB{R: r, G: g, B: b}
		cell.Colored = true
	}
	return cell
}

// TargetSize computes the character grid for a source of the given pixel
// dimensions: width from Columns (or the source width) and height scaled by
// the aspect ratio and font ratio, matching how terminal glyphs are taller
// than they are wide.
func TargetSize(srcWidth, srcHeight int, opts *Options) (int, int, error) {
	if srcWidth <= 0 || srcHeight <= 0 {
		return 0, 0, fmt.Errorf("invalid source dimensions %dx%d", srcWidth, srcHeight)
	}
	cols := opts.Columns
	if cols == 0 {
		cols = srcWidth
	}
	rows := int(float64(srcHeight)/float64(srcWidth)*float64(cols)*opts.FontRatio + 0.5)
	if rows < 1 {
		rows = 1
	}
	return cols, rows, nil
}

// ConvertImage maps an image onto a cols×rows character frame. The source is
// Lanczos-resampled to the grid size first so one pixel feeds one cell.
func ConvertImage(img image.Image, cols, rows int, opts *Options) (*frame.Frame, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	f, err := frame.New(cols, rows)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	if bounds.Dx() != cols || bounds.Dy() != rows {
		img = imaging.Resize(img, cols, rows, imaging.Lanczos)
	}
	rgba := imaging.Clone(img) // *image.NRGBA with zero-based bounds

	for y := 0; y < rows; y++ {
		row := rgba.Pix[y*rgba.Stride : y*rgba.Stride+cols*4]
		for x := 0; x < cols; x++ {
			px := row[x*4 : x*4+4]
			f.Set(x, y, MapPixel(px[0], px[1], px[2], opts))
		}
	}
	return f, nil
}
