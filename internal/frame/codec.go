package frame

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	// PlainExt is the extension of plain text frame files.
	PlainExt = ".txt"
	// ColorExt is the extension of run-length color frame files.
	ColorExt = ".cframe"

	colorMagic = "CFR1"

	// maxDimension bounds decoded frame dimensions so a corrupt header
	// cannot trigger a huge allocation.
	maxDimension = 1 << 16
)

// Encode serializes the frame in whichever form fits: plain text when no
// cell carries color, the run-length color form otherwise. It returns the
// encoded bytes and the matching file extension.
func Encode(f *Frame) ([]byte, string, error) {
	if f.Colored() {
		data, err := EncodeColor(f)
		return data, ColorExt, err
	}
	data, err := EncodePlain(f)
	return data, PlainExt, err
}

// EncodePlain renders the frame as Height lines of Width characters each.
// Frames carrying color cannot use the plain form.
func EncodePlain(f *Frame) ([]byte, error) {
	if f.Colored() {
		return nil, fmt.Errorf("frame carries color, plain form would lose it")
	}
	var buf bytes.Buffer
	buf.Grow((f.Width + 1) * f.Height)
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			buf.WriteByte(f.At(x, y).Char)
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// DecodePlain parses the plain text form. Every line must have the same
// width and at least one line must be present.
func DecodePlain(data []byte) (*Frame, error) {
	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return nil, &DecodeError{Reason: "empty frame"}
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		// Tolerate CRLF output from other tooling.
		lines[i] = strings.TrimSuffix(line, "\r")
	}

	width := len(lines[0])
	if width == 0 {
		return nil, &DecodeError{Row: 1, Reason: "row is empty"}
	}
	f := &Frame{Width: width, Height: len(lines), Cells: make([]Cell, width*len(lines))}
	for y, line := range lines {
		if len(line) != width {
			return nil, &DecodeError{
				Row:    y + 1,
				Reason: fmt.Sprintf("row %d has %d columns, expected %d", y+1, len(line), width),
			}
		}
		for x := 0; x < width; x++ {
			f.Cells[y*width+x] = Cell{Char: line[x]}
		}
	}
	return f, nil
}

// EncodeColor serializes the frame in the run-length color form: a
// self-describing header followed by per-row runs of cells sharing both
// character and color. Blank cells encode as space runs with zero color.
//
// The form requires the color-mapper convention: every non-blank cell is
// colored and no blank cell is. Frames violating it are rejected since they
// could not be reconstructed exactly.
func EncodeColor(f *Frame) ([]byte, error) {
	for i, c := range f.Cells {
		if c.Char == ' ' && c.Colored {
			return nil, fmt.Errorf("cell %d is a colored space, not representable in color form", i)
		}
		if c.Char != ' ' && !c.Colored {
			return nil, fmt.Errorf("cell %d (%q) has no color, not representable in color form", i, c.Char)
		}
	}

	var buf bytes.Buffer
	buf.WriteString(colorMagic)
	binary.Write(&buf, binary.LittleEndian, uint32(f.Width))
	binary.Write(&buf, binary.LittleEndian, uint32(f.Height))

	run := make([]byte, 8)
	for y := 0; y < f.Height; y++ {
		row := f.Cells[y*f.Width : (y+1)*f.Width]

		var runs []Cell
		var counts []uint32
		for x := 0; x < len(row); x++ {
			if x > 0 && row[x] == runs[len(runs)-1] {
				counts[len(counts)-1]++
				continue
			}
			runs = append(runs, row[x])
			counts = append(counts, 1)
		}

		binary.Write(&buf, binary.LittleEndian, uint32(len(runs)))
		for i, c := range runs {
			binary.LittleEndian.PutUint32(run[:4], counts[i])
			run[4] = c.Char
			run[5] = c.Color.R
			run[6] = c.Color.G
			run[7] = c.Color.B
			buf.Write(run)
		}
	}
	return buf.Bytes(), nil
}

// DecodeColor parses the run-length color form back into a full grid.
func DecodeColor(data []byte) (*Frame, error) {
	r := bytes.NewReader(data)

	magic := make([]byte, 4)
	if _, err := io.ReadFull(r, magic); err != nil || string(magic) != colorMagic {
		return nil, &DecodeError{Reason: "missing CFR1 header"}
	}
	var w32, h32 uint32
	if err := binary.Read(r, binary.LittleEndian, &w32); err != nil {
		return nil, &DecodeError{Reason: "truncated header"}
	}
	if err := binary.Read(r, binary.LittleEndian, &h32); err != nil {
		return nil, &DecodeError{Reason: "truncated header"}
	}
	if w32 == 0 || h32 == 0 || w32 > maxDimension || h32 > maxDimension {
		return nil, &DecodeError{Reason: fmt.Sprintf("unreasonable dimensions %dx%d", w32, h32)}
	}

	width, height := int(w32), int(h32)
	f := &Frame{Width: width, Height: height, Cells: make([]Cell, width*height)}
	run := make([]byte, 8)
	for y := 0; y < height; y++ {
		var nruns uint32
		if err := binary.Read(r, binary.LittleEndian, &nruns); err != nil {
			return nil, &DecodeError{Row: y + 1, Reason: "truncated row header, fewer rows than header declares"}
		}
		x := 0
		for i := uint32(0); i < nruns; i++ {
			if _, err := io.ReadFull(r, run); err != nil {
				return nil, &DecodeError{Row: y + 1, Reason: "truncated run"}
			}
			count := int(binary.LittleEndian.Uint32(run[:4]))
			if count <= 0 || x+count > width {
				return nil, &DecodeError{
					Row:    y + 1,
					Reason: fmt.Sprintf("row %d runs cover %d columns, expected %d", y+1, x+count, width),
				}
			}
			cell := Cell{Char: run[4]}
			if cell.Char != ' ' {
				cell.Color = RGB{R: run[5], G: run[6], B: run[7]}
				cell.Colored = true
			}
			for j := 0; j < count; j++ {
				f.Cells[y*width+x+j] = cell
			}
			x += count
		}
		if x != width {
			return nil, &DecodeError{
				Row:    y + 1,
				Reason: fmt.Sprintf("row %d runs cover %d columns, expected %d", y+1, x, width),
			}
		}
	}
	if r.Len() != 0 {
		return nil, &DecodeError{Reason: fmt.Sprintf("%d trailing bytes after final row", r.Len())}
	}
	return f, nil
}

// Decode dispatches on the file extension of path.
func Decode(data []byte, path string) (*Frame, error) {
	var f *Frame
	var err error
	switch filepath.Ext(path) {
	case ColorExt:
		f, err = DecodeColor(data)
	case PlainExt:
		f, err = DecodePlain(data)
	default:
		return nil, &DecodeError{Path: path, Reason: fmt.Sprintf("unknown frame extension %q", filepath.Ext(path))}
	}
	if err != nil {
		if de, ok := err.(*DecodeError); ok && de.Path == "" {
			de.Path = path
		}
		return nil, err
	}
	return f, nil
}

// ReadFile loads and decodes a single frame file.
func ReadFile(path string) (*Frame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading frame: %v", err)
	}
	return Decode(data, path)
}

// WriteFile encodes the frame and writes it as frame_NNNN in dir, picking
// the extension from the chosen form. It returns the written path.
func WriteFile(dir string, index int, f *Frame) (string, error) {
	data, ext, err := Encode(f)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName(index, ext))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing frame %d: %v", index, err)
	}
	return path, nil
}

// FileName formats the canonical frame file name for an index.
func FileName(index int, ext string) string {
	return fmt.Sprintf("frame_%04d%s", index, ext)
}
