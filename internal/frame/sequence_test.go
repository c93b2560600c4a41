package frame

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSequence(t *testing.T, dir string, frames map[int]*Frame) {
	t.Helper()
	for idx, f := range frames {
		if _, err := WriteFile(dir, idx, f); err != nil {
			t.Fatalf("writing frame %d: %v", idx, err)
		}
	}
}

func TestLoadSequenceOrdersByIndex(t *testing.T) {
	dir := t.TempDir()
	writeSequence(t, dir, map[int]*Frame{
		3: plainFrame(t, "cc", "cc"),
		1: plainFrame(t, "aa", "aa"),
		2: plainFrame(t, "bb", "bb"),
	})

	seq, err := LoadSequence(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if seq.Len() != 3 {
		t.Fatalf("expected 3 frames, got %d", seq.Len())
	}
	for i, want := range []byte{'a', 'b', 'c'} {
		if got := seq.Frames[i].Frame.At(0, 0).Char; got != want {
			t.Errorf("frame %d: got %q, want %q", i, got, want)
		}
	}
	if seq.Width != 2 || seq.Height != 2 {
		t.Errorf("expected 2x2 sequence, got %dx%d", seq.Width, seq.Height)
	}
}

func TestLoadSequenceDetectsGap(t *testing.T) {
	dir := t.TempDir()
	writeSequence(t, dir, map[int]*Frame{
		1: plainFrame(t, "aa"),
		2: plainFrame(t, "bb"),
		4: plainFrame(t, "dd"),
	})

	_, err := LoadSequence(dir)
	if err == nil {
		t.Fatal("expected gap error")
	}
	gap, ok := err.(*IndexGapError)
	if !ok {
		t.Fatalf("expected *IndexGapError, got %T: %v", err, err)
	}
	if gap.Expected != 3 || gap.Found != 4 {
		t.Errorf("expected gap at 3 (found 4), got expected=%d found=%d", gap.Expected, gap.Found)
	}
}

func TestLoadSequenceDetectsDimensionMismatch(t *testing.T) {
	dir := t.TempDir()
	writeSequence(t, dir, map[int]*Frame{
		1: plainFrame(t, "aa", "aa"),
		2: plainFrame(t, "bbb", "bbb"),
	})

	_, err := LoadSequence(dir)
	if err == nil {
		t.Fatal("expected dimension error")
	}
	if _, ok := err.(*DimensionError); !ok {
		t.Fatalf("expected *DimensionError, got %T: %v", err, err)
	}
}

func TestLoadSequencePrefersColorForm(t *testing.T) {
	dir := t.TempDir()
	// A leftover plain frame next to color frames must not win.
	writeSequence(t, dir, map[int]*Frame{
		1: colorFrame(2, 1, '@', RGB{R: 1}),
		2: colorFrame(2, 1, '#', RGB{R: 2}),
	})
	if err := os.WriteFile(filepath.Join(dir, "frame_0001.txt"), []byte("zz\n"), 0644); err != nil {
		t.Fatal(err)
	}

	seq, err := LoadSequence(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !seq.Color {
		t.Error("expected color sequence")
	}
	if got := seq.Frames[0].Frame.At(0, 0).Char; got != '@' {
		t.Errorf("expected color frame content, got %q", got)
	}
}

func TestLoadSequenceIgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	writeSequence(t, dir, map[int]*Frame{1: plainFrame(t, "aa")})
	for _, name := range []string{"details.md", "frame_abcd.txt", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	seq, err := LoadSequence(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if seq.Len() != 1 {
		t.Errorf("expected 1 frame, got %d", seq.Len())
	}
}

func TestTrimSequenceToNewDirectory(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(t.TempDir(), "trimmed")
	writeSequence(t, dir, map[int]*Frame{
		1: plainFrame(t, "abcd", "efgh", "ijkl"),
		2: plainFrame(t, "mnop", "qrst", "uvwx"),
	})

	seq, err := TrimSequence(dir, 1, 1, 1, 0, false, out)
	if err != nil {
		t.Fatalf("trim sequence: %v", err)
	}
	if seq.Width != 2 || seq.Height != 2 {
		t.Errorf("expected 2x2 output, got %dx%d", seq.Width, seq.Height)
	}

	// Source untouched.
	orig, err := LoadSequence(dir)
	if err != nil {
		t.Fatalf("reloading source: %v", err)
	}
	if orig.Width != 4 {
		t.Errorf("source sequence was modified")
	}

	// Output decodes to the trimmed content with indices preserved.
	got, err := LoadSequence(out)
	if err != nil {
		t.Fatalf("loading output: %v", err)
	}
	want := plainFrame(t, "fg", "jk")
	if !got.Frames[0].Frame.Equal(want) {
		t.Errorf("trimmed frame 1 has wrong content")
	}
	if got.Frames[0].Index != 1 || got.Frames[1].Index != 2 {
		t.Errorf("trim should preserve frame indices")
	}
}

func TestTrimSequenceInPlace(t *testing.T) {
	dir := t.TempDir()
	writeSequence(t, dir, map[int]*Frame{
		1: plainFrame(t, "abcd", "efgh"),
	})

	if _, err := TrimSequence(dir, 1, 0, 0, 0, true, ""); err != nil {
		t.Fatalf("trim in place: %v", err)
	}
	got, err := LoadSequence(dir)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Width != 3 {
		t.Errorf("expected width 3 after in-place trim, got %d", got.Width)
	}
}

func TestTrimSequenceRangeError(t *testing.T) {
	dir := t.TempDir()
	writeSequence(t, dir, map[int]*Frame{1: plainFrame(t, "ab")})

	if _, err := TrimSequence(dir, 1, 1, 0, 0, true, ""); err == nil {
		t.Fatal("expected range error trimming entire width")
	}
}
