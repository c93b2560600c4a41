// Package frame holds the character-art data model: cells, frames and the
// on-disk codecs used for frame files.
package frame

import "fmt"

// RGB is a raw 8-bit color sample carried by a colored cell.
type RGB struct {
	R, G, B uint8
}

// Cell is one grid position: a display character plus an optional color.
// A blank cell is a space with no color and stands for "background".
type Cell struct {
	Char    byte
	Color   RGB
	Colored bool
}

// Blank is the transparent cell produced for pixels below the luminance
// threshold.
var Blank = Cell{Char: ' '}

// IsBlank reports whether the cell is the background cell.
func (c Cell) IsBlank() bool {
	return c.Char == ' ' && !c.Colored
}

// Frame is an immutable W×H grid of cells stored row-major.
type Frame struct {
	Width  int
	Height int
	Cells  []Cell
}

// New allocates an empty frame of the given dimensions.
func New(width, height int) (*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame dimensions %dx%d", width, height)
	}
	return &Frame{
		Width:  width,
		Height: height,
		Cells:  make([]Cell, width*height),
	}, nil
}

// At returns the cell at column x, row y.
func (f *Frame) At(x, y int) Cell {
	return f.Cells[y*f.Width+x]
}

// Set stores a cell at column x, row y. Only frame constructors should call
// this; frames are treated as immutable once built.
func (f *Frame) Set(x, y int, c Cell) {
	f.Cells[y*f.Width+x] = c
}

// Colored reports whether any cell in the frame carries color. It decides
// which codec form Encode picks.
func (f *Frame) Colored() bool {
	for _, c := range f.Cells {
		if c.Colored {
			return true
		}
	}
	return false
}

// Equal reports exact structural equality: same dimensions and the same
// cell at every position.
func (f *Frame) Equal(other *Frame) bool {
	if f.Width != other.Width || f.Height != other.Height {
		return false
	}
	for i := range f.Cells {
		if f.Cells[i] != other.Cells[i] {
			return false
		}
	}
	return true
}

// Trim returns a new frame with the given number of columns removed from the
// left and right edges and rows removed from the top and bottom edges.
// Trimming nothing returns an identical copy.
func (f *Frame) Trim(left, right, top, bottom int) (*Frame, error) {
	if left < 0 || right < 0 || top < 0 || bottom < 0 {
		return nil, &DimensionError{
			Reason: fmt.Sprintf("negative trim (left=%d right=%d top=%d bottom=%d)", left, right, top, bottom),
		}
	}
	if left+right >= f.Width {
		return nil, &DimensionError{
			Reason: fmt.Sprintf("trim columns %d+%d exceed or equal frame width %d", left, right, f.Width),
		}
	}
	if top+bottom >= f.Height {
		return nil, &DimensionError{
			Reason: fmt.Sprintf("trim rows %d+%d exceed or equal frame height %d", top, bottom, f.Height),
		}
	}

	w := f.Width - left - right
	h := f.Height - top - bottom
	out := &Frame{Width: w, Height: h, Cells: make([]Cell, w*h)}
	for y := 0; y < h; y++ {
		src := (y+top)*f.Width + left
		copy(out.Cells[y*w:(y+1)*w], f.Cells[src:src+w])
	}
	return out, nil
}
