package frame

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Indexed pairs a decoded frame with its sequence index and source path.
type Indexed struct {
	Index int
	Path  string
	Frame *Frame
}

// Sequence is an ordered, contiguous series of frames sharing one W×H.
type Sequence struct {
	Dir    string
	Frames []Indexed
	Width  int
	Height int
	// Color reports whether the sequence was loaded from color-form files.
	Color bool
}

// Len returns the number of frames.
func (s *Sequence) Len() int { return len(s.Frames) }

// ListFrameFiles returns the frame_NNNN files of dir with the given
// extension, sorted by index. The returned map keys paths by index.
func ListFrameFiles(dir, ext string) (map[int]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %v", dir, err)
	}
	files := make(map[int]string)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		idx, ok := parseFrameName(e.Name(), ext)
		if !ok {
			continue
		}
		files[idx] = filepath.Join(dir, e.Name())
	}
	return files, nil
}

func parseFrameName(name, ext string) (int, bool) {
	if !strings.HasPrefix(name, "frame_") || !strings.HasSuffix(name, ext) {
		return 0, false
	}
	num := strings.TrimSuffix(strings.TrimPrefix(name, "frame_"), ext)
	idx, err := strconv.Atoi(num)
	if err != nil {
		return 0, false
	}
	return idx, true
}

// LoadSequence reads every frame_NNNN file in dir, in index order. When both
// plain and color files are present the color form wins, matching the
// convention that .cframe presence signals color mode. The sequence must be
// contiguous and all frames must share the same dimensions.
func LoadSequence(dir string) (*Sequence, error) {
	ext := ColorExt
	files, err := ListFrameFiles(dir, ColorExt)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		ext = PlainExt
		files, err = ListFrameFiles(dir, PlainExt)
		if err != nil {
			return nil, err
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no frame_*%s or frame_*%s files found in %s", ColorExt, PlainExt, dir)
	}

	indices := make([]int, 0, len(files))
	for idx := range files {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	seq := &Sequence{Dir: dir, Color: ext == ColorExt}
	for i, idx := range indices {
		if i > 0 && idx != indices[i-1]+1 {
			return nil, &IndexGapError{Expected: indices[i-1] + 1, Found: idx, Dir: dir}
		}
		f, err := ReadFile(files[idx])
		if err != nil {
			return nil, err
		}
		if i == 0 {
			seq.Width, seq.Height = f.Width, f.Height
		} else if f.Width != seq.Width || f.Height != seq.Height {
			return nil, &DimensionError{
				Path:   files[idx],
				Reason: fmt.Sprintf("frame is %dx%d, sequence is %dx%d", f.Width, f.Height, seq.Width, seq.Height),
			}
		}
		seq.Frames = append(seq.Frames, Indexed{Index: idx, Path: files[idx], Frame: f})
	}
	return seq, nil
}

// TrimSequence trims every frame of a directory uniformly and re-encodes the
// results, preserving frame indices. With inPlace set the source files are
// overwritten; otherwise results go to outDir and the source stays intact.
func TrimSequence(dir string, left, right, top, bottom int, inPlace bool, outDir string) (*Sequence, error) {
	seq, err := LoadSequence(dir)
	if err != nil {
		return nil, err
	}

	dst := outDir
	if inPlace {
		dst = dir
	} else {
		if dst == "" {
			return nil, fmt.Errorf("output directory required when not trimming in place")
		}
		if err := os.MkdirAll(dst, 0755); err != nil {
			return nil, fmt.Errorf("creating output directory: %v", err)
		}
	}

	out := &Sequence{Dir: dst, Color: seq.Color}
	for _, fr := range seq.Frames {
		trimmed, err := fr.Frame.Trim(left, right, top, bottom)
		if err != nil {
			if de, ok := err.(*DimensionError); ok {
				de.Path = fr.Path
			}
			return nil, err
		}
		path, err := WriteFile(dst, fr.Index, trimmed)
		if err != nil {
			return nil, err
		}
		if inPlace && path != fr.Path {
			// The form changed extension; drop the stale file.
			os.Remove(fr.Path)
		}
		out.Frames = append(out.Frames, Indexed{Index: fr.Index, Path: path, Frame: trimmed})
	}
	out.Width = seq.Width - left - right
	out.Height = seq.Height - top - bottom
	return out, nil
}
