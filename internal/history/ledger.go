package history

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Ledger records delivered source URLs in a newline-delimited file.
type Ledger struct {
	path string
}

// NewLedger returns a ledger backed by the file at path. The file is not
// touched until Load or Append is called.
func NewLedger(path string) *Ledger {
	return &Ledger{path: path}
}

// Path returns the backing file location.
func (l *Ledger) Path() string {
	return l.path
}

// Load reads the full ledger into a set. A missing file yields an empty
// set, not an error. Duplicate and blank lines collapse on read, so a
// ledger damaged by a redundant append stays harmless.
func (l *Ledger) Load() (map[string]struct{}, error) {
	file, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]struct{}{}, nil
		}
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer file.Close()

	seen := make(map[string]struct{})
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		seen[line] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	return seen, nil
}

// Append records the given source URLs, skipping any already present on
// disk and duplicates within the call. The write is a single append so
// concurrent readers never observe a torn entry.
func (l *Ledger) Append(ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	existing, err := l.Load()
	if err != nil {
		return err
	}

	var builder strings.Builder
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := existing[id]; ok {
			continue
		}
		existing[id] = struct{}{}
		builder.WriteString(id)
		builder.WriteByte('\n')
	}
	if builder.Len() == 0 {
		return nil
	}

	if dir := filepath.Dir(l.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create ledger directory: %w", err)
		}
	}

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger for append: %w", err)
	}
	defer file.Close()

	if _, err := file.WriteString(builder.String()); err != nil {
		return fmt.Errorf("append ledger: %w", err)
	}
	return file.Close()
}
