package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTempPattern(t *testing.T) {
	assert.Equal(t, "dit.*.12-fix-the-thing.md", TempPattern(12, "Fix the thing!", "md"))
	assert.Equal(t, "dit.*.3-pay-2024-invoice.yml", TempPattern(3, "pay 2024 invoice", "yml"))
	assert.Equal(t, "dit.*.1-.md", TempPattern(1, "???", "md"))

	// Long summaries are capped so the filename stays readable.
	long := TempPattern(7, "a very long summary that keeps going and going", "md")
	assert.LessOrEqual(t, len(long), len("dit.*.7-.md")+21)
}

func TestEditUsesEditorCommand(t *testing.T) {
	// `true` exits zero without touching the file, so the edit is a no-op.
	out, err := Edit("true", []byte("unchanged\n"), "dit.*.test.md")
	require.NoError(t, err)
	assert.Equal(t, "unchanged\n", string(out))

	_, err = Edit("false", []byte("x"), "dit.*.test.md")
	assert.Error(t, err)

	_, err = Edit("", nil, "dit.*.test.md")
	assert.Error(t, err)
}
