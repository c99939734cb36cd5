package display

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixStr(t *testing.T) {
	assert.Equal(t, "ab  ", fixStr("ab", 4))
	assert.Equal(t, "abcd", fixStr("abcd", 4))
	assert.Equal(t, "abc…", fixStr("abcde", 4))
	assert.Equal(t, "", fixStr("", 0))

	// Only the first line survives.
	assert.Equal(t, "one  ", fixStr("one\ntwo", 5))

	// Wide runes count as two cells; a cut that cannot land on a rune
	// boundary is padded back out to the exact width.
	assert.Equal(t, "日本", fixStr("日本", 4))
	assert.Equal(t, "日… ", fixStr("日本語", 4))
}

func TestTableRender(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)

	tbl := NewTable(40, "ID", "Summary")
	tbl.AddRow(RowStyle{}, "1", "feed the cat")
	tbl.AddRow(RowStyle{Fg: fgPriorityCritical}, "2", "feed the dog")
	require.False(t, tbl.Empty())

	var buf bytes.Buffer
	tbl.Render(&buf)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "ID")
	assert.Contains(t, lines[1], "feed the cat")
	assert.Contains(t, lines[2], "feed the dog")

	// Every rendered line is padded to the same display width.
	assert.Equal(t, len(lines[1]), len(lines[2]))
}

func TestTableShrinksWidestColumn(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)

	tbl := NewTable(24, "ID", "Summary")
	tbl.AddRow(RowStyle{}, "1", strings.Repeat("long summary ", 10))

	var buf bytes.Buffer
	tbl.Render(&buf)

	// The header line carries its underline escape codes, so measure the
	// data rows only.
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Greater(t, len(lines), 1)
	for _, line := range lines[1:] {
		assert.LessOrEqual(t, len([]rune(line)), 24)
	}
}

func TestTableEmpty(t *testing.T) {
	tbl := NewTable(80, "Name", "Value")
	assert.True(t, tbl.Empty())
}
