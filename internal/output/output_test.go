package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriter_Status_PrintsIconAndMessage(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Statusf("🔍", "Searching %s", "people")
	w.Status("", "indented")

	assert.Equal(t, "🔍 Searching people\n   indented\n", buf.String())
}

func TestWriter_Messages_HaveIcons(t *testing.T) {
	tests := []struct {
		name  string
		print func(w *Writer)
		icon  string
		text  string
	}{
		{"success", func(w *Writer) { w.Successf("Registered %d entities", 3) }, "✅", "Registered 3 entities"},
		{"warning", func(w *Writer) { w.Warning("No matches") }, "⚠️", "No matches"},
		{"error", func(w *Writer) { w.Errorf("index %q missing", "people") }, "❌", `index "people" missing`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			tt.print(New(buf))

			assert.Contains(t, buf.String(), tt.icon)
			assert.Contains(t, buf.String(), tt.text)
		})
	}
}

func TestNew_BufferIsPlain(t *testing.T) {
	// Given: a non-terminal writer
	buf := &bytes.Buffer{}
	w := New(buf)

	// When: rendering styled text
	w.Header("Results")

	// Then: no ANSI escapes are emitted
	assert.False(t, w.Color())
	assert.Equal(t, "Results\n", buf.String())
	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestIsTTY_NonFile(t *testing.T) {
	assert.False(t, IsTTY(&bytes.Buffer{}))
}

func TestWriter_Fields_SortedAndAligned(t *testing.T) {
	buf := &bytes.Buffer{}
	New(buf).Fields(map[string]string{"backend": "sqlite", "data_dir": "/tmp/x"})

	assert.Equal(t, "  backend   sqlite\n  data_dir  /tmp/x\n", buf.String())
}

func TestWriter_Numbered(t *testing.T) {
	buf := &bytes.Buffer{}
	New(buf).Numbered([]string{"p1", "p2"})

	assert.Equal(t, "  1. p1\n  2. p2\n", buf.String())
}

func TestWriter_Code_IndentsLines(t *testing.T) {
	buf := &bytes.Buffer{}
	New(buf).Code("a\nb")

	assert.Equal(t, "\n  a\n  b\n\n", buf.String())
}

func TestWriter_Progress_PlainPrintsOnlyCompletion(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Progress(1, 2, "Importing")
	assert.Empty(t, buf.String())

	w.Progress(2, 2, "Importing")
	assert.Contains(t, buf.String(), "100%")
	assert.Contains(t, buf.String(), "Importing")
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
}

func TestWriter_Progress_ZeroTotal_NoOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	New(buf).Progress(0, 0, "Processing")
	assert.Empty(t, buf.String())
}

func TestProgressBar_Render(t *testing.T) {
	tests := []struct {
		name     string
		current  int
		total    int
		width    int
		wantFull int
	}{
		{"0 percent", 0, 100, 10, 0},
		{"50 percent", 50, 100, 10, 5},
		{"100 percent", 100, 100, 10, 10},
		{"over total", 150, 100, 10, 10},
		{"25 percent", 25, 100, 20, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := renderProgressBar(tt.current, tt.total, tt.width)

			assert.Equal(t, tt.wantFull, strings.Count(bar, "█"))
			assert.Equal(t, tt.width, len([]rune(bar)))
		})
	}
}

func TestWriter_Newline_PrintsEmptyLine(t *testing.T) {
	buf := &bytes.Buffer{}
	New(buf).Newline()
	assert.Equal(t, "\n", buf.String())
}
