package frame

import "fmt"

// DecodeError reports malformed frame data. Path and Row are filled in when
// known so the caller can point at the offending file and line.
type DecodeError struct {
	Path   string
	Row    int // 1-based, 0 when the error is not tied to a row
	Reason string
}

func (e *DecodeError) Error() string {
	switch {
	case e.Path != "" && e.Row > 0:
		return fmt.Sprintf("decode %s: row %d: %s", e.Path, e.Row, e.Reason)
	case e.Path != "":
		return fmt.Sprintf("decode %s: %s", e.Path, e.Reason)
	case e.Row > 0:
		return fmt.Sprintf("decode: row %d: %s", e.Row, e.Reason)
	default:
		return "decode: " + e.Reason
	}
}

// DimensionError reports a grid-shape violation: inconsistent frame sizes in
// a sequence, or a trim that would empty the grid.
type DimensionError struct {
	Path   string
	Reason string
}

func (e *DimensionError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Reason)
	}
	return e.Reason
}

// IndexGapError reports a hole in the numbered frame files of a sequence.
type IndexGapError struct {
	Expected int
	Found    int
	Dir      string
}

func (e *IndexGapError) Error() string {
	return fmt.Sprintf("frame sequence in %s has a gap: expected frame %d, found %d", e.Dir, e.Expected, e.Found)
}
