package loop

import (
	"os"
	"path/filepath"
	"testing"

	"charcoal/internal/frame"
)

// diskSequence writes the pattern to dir as plain frame files and loads it
// back, so ops tests run against real sequence state.
func diskSequence(t *testing.T, dir, pattern string) *frame.Sequence {
	t.Helper()
	for i := 0; i < len(pattern); i++ {
		if _, err := frame.WriteFile(dir, i+1, glyphFrame(pattern[i])); err != nil {
			t.Fatal(err)
		}
	}
	seq, err := frame.LoadSequence(dir)
	if err != nil {
		t.Fatal(err)
	}
	return seq
}

func pattern(t *testing.T, seq *frame.Sequence) string {
	t.Helper()
	out := make([]byte, len(seq.Frames))
	for i, f := range seq.Frames {
		out[i] = f.Frame.At(0, 0).Char
	}
	return string(out)
}

func TestExport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "frames")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	seq := diskSequence(t, dir, "XYABABAB")

	res, err := Detect(framesOf(seq))
	if err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(t.TempDir(), "export")
	if err := Export(seq, res, out); err != nil {
		t.Fatalf("Export: %v", err)
	}

	exported, err := frame.LoadSequence(out)
	if err != nil {
		t.Fatal(err)
	}
	// One cycle plus the repeated closing frame: A B A.
	if got := pattern(t, exported); got != "ABA" {
		t.Errorf("exported pattern = %q, want %q", got, "ABA")
	}

	// Source directory is untouched.
	src, err := frame.LoadSequence(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got := pattern(t, src); got != "XYABABAB" {
		t.Errorf("source pattern = %q after export", got)
	}
}

func TestExportDirName(t *testing.T) {
	res := Result{Start: 2, Period: 2, End: 8}
	got := ExportDirName(filepath.Join("work", "frames"), res)
	want := filepath.Join("work", "frames_loop_3_8")
	if got != want {
		t.Errorf("ExportDirName = %q, want %q", got, want)
	}
}

func TestRepeat(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "frames")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	seq := diskSequence(t, dir, "ABCDABCDX")

	res, err := Detect(framesOf(seq))
	if err != nil {
		t.Fatal(err)
	}

	if err := Repeat(seq, res, dir); err != nil {
		t.Fatalf("Repeat: %v", err)
	}

	got, err := frame.LoadSequence(dir)
	if err != nil {
		t.Fatal(err)
	}
	// One extra cycle spliced in after the run, tail preserved.
	if p := pattern(t, got); p != "ABCDABCDABCDX" {
		t.Errorf("repeated pattern = %q, want %q", p, "ABCDABCDABCDX")
	}
	// Renumbering starts back at 1 with no holes.
	if got.Frames[0].Index != 1 || got.Frames[len(got.Frames)-1].Index != 13 {
		t.Errorf("indices = %d..%d, want 1..13",
			got.Frames[0].Index, got.Frames[len(got.Frames)-1].Index)
	}
}

func TestExportInvalidRegion(t *testing.T) {
	dir := t.TempDir()
	seq := diskSequence(t, dir, "ABAB")

	if err := Export(seq, Result{Start: 0, Period: 0, End: 4}, t.TempDir()); err == nil {
		t.Error("zero period accepted")
	}
	if err := Export(seq, Result{Start: 3, Period: 2, End: 9}, t.TempDir()); err == nil {
		t.Error("out-of-range region accepted")
	}
}

func framesOf(seq *frame.Sequence) []*frame.Frame {
	out := make([]*frame.Frame, len(seq.Frames))
	for i, f := range seq.Frames {
		out[i] = f.Frame
	}
	return out
}
