// Package editor runs the user's external editor over a temp file and reads
// the result back. The call blocks until the editor exits; a non-zero exit
// aborts the edit.
package editor

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Edit writes data to a temp file matching pattern, opens it in the given
// editor command and returns the edited bytes.
func Edit(editorCmd string, data []byte, pattern string) ([]byte, error) {
	parts := strings.Fields(editorCmd)
	if len(parts) == 0 {
		return nil, fmt.Errorf("EDITOR is empty")
	}

	tmp, err := os.CreateTemp("", pattern)
	if err != nil {
		return nil, err
	}
	path := tmp.Name()
	defer os.Remove(path)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}

	args := append(parts[1:], path)
	cmd := exec.Command(parts[0], args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("editor %q failed: %w", parts[0], err)
	}

	return os.ReadFile(path)
}

// TempPattern builds a readable temp-file pattern from a task's ID and
// summary, e.g. "dit.*.12-fix-the-thing.md".
func TempPattern(id int, summary, ext string) string {
	var b strings.Builder
	prevHyphen := true

	for _, r := range summary {
		if b.Len() >= 21 {
			break
		}
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevHyphen = false
		default:
			if !prevHyphen {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}

	slug := strings.Trim(strings.ToLower(b.String()), "-")
	return fmt.Sprintf("dit.*.%d-%s.%s", id, slug, ext)
}
