package logs

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
)

// Exporter writes a logger's retained entries to a text file.
type Exporter struct{}

// Export writes one line per entry to path, creating parent directories.
func (Exporter) Export(l *Logger, path string) (int, error) {
	if l == nil {
		return 0, fmt.Errorf("export: logger is nil")
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("create export dir: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create export file: %w", err)
	}
	defer func() { _ = file.Close() }()

	w := bufio.NewWriter(file)
	snap := l.Snapshot()
	for _, e := range snap.Items {
		if _, err := fmt.Fprintln(w, e.String()); err != nil {
			return 0, fmt.Errorf("write export: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return 0, fmt.Errorf("flush export: %w", err)
	}
	return len(snap.Items), nil
}
