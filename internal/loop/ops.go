package loop

import (
	"fmt"
	"os"
	"path/filepath"

	"charcoal/internal/frame"
)

// Export writes one full cycle of the detected loop, plus the repeated
// closing frame, into outDir numbered from 1. The closing frame makes the
// exported segment visibly seamless when looped.
func Export(seq *frame.Sequence, res Result, outDir string) error {
	if err := checkRegion(seq, res); err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating export directory: %v", err)
	}

	counter := 1
	for i := res.Start; i <= res.Start+res.Period; i++ {
		if _, err := frame.WriteFile(outDir, counter, seq.Frames[i].Frame); err != nil {
			return fmt.Errorf("writing exported frame %d: %v", counter, err)
		}
		counter++
	}
	return nil
}

// ExportDirName names the export directory next to the source directory,
// after the loop's frame range.
func ExportDirName(dir string, res Result) string {
	base := filepath.Base(dir)
	return filepath.Join(filepath.Dir(dir),
		fmt.Sprintf("%s_loop_%d_%d", base, res.Start+1, res.End))
}

// Repeat inserts one extra cycle of the loop after its run and rewrites the
// whole sequence back to dir with fresh sequential numbering.
func Repeat(seq *frame.Sequence, res Result, dir string) error {
	if err := checkRegion(seq, res); err != nil {
		return err
	}

	var order []*frame.Frame
	for i := 0; i < res.End; i++ {
		order = append(order, seq.Frames[i].Frame)
	}
	for i := res.Start; i < res.Start+res.Period; i++ {
		order = append(order, seq.Frames[i].Frame)
	}
	for i := res.End; i < len(seq.Frames); i++ {
		order = append(order, seq.Frames[i].Frame)
	}

	// Stale files must go first: the rewritten sequence is longer and
	// renumbered.
	for _, f := range seq.Frames {
		if f.Path != "" {
			if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("removing %s: %v", f.Path, err)
			}
		}
	}

	for i, f := range order {
		if _, err := frame.WriteFile(dir, i+1, f); err != nil {
			return fmt.Errorf("writing frame %d: %v", i+1, err)
		}
	}
	return nil
}

func checkRegion(seq *frame.Sequence, res Result) error {
	if res.Period < 1 || res.Start < 0 {
		return fmt.Errorf("invalid loop region start=%d period=%d", res.Start, res.Period)
	}
	if res.End > len(seq.Frames) || res.Start+res.Period >= len(seq.Frames) {
		return fmt.Errorf("loop region %d..%d exceeds sequence of %d frames",
			res.Start, res.End, len(seq.Frames))
	}
	return nil
}
