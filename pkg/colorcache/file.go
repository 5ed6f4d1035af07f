package colorcache

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// FileStore keeps one append-only text log per polygon id.
//
// Each line holds "attribute,color". Attributes may contain commas, so the
// color is taken from after the last comma. Reads scan the whole log and the
// last matching line wins; malformed lines are skipped.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates a file store in dir. The directory will be created
// if it doesn't exist.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("file store: empty directory")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create color cache directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Get returns the last color recorded for id under attribute.
func (s *FileStore) Get(ctx context.Context, id int64, attribute string) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path(id))
	if os.IsNotExist(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	defer f.Close()

	want := sanitize(attribute)
	color, found := 0, false
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		attr, c, ok := parseRecord(scanner.Text())
		if !ok || attr != want {
			continue
		}
		color, found = c, true
	}
	if err := scanner.Err(); err != nil {
		return 0, false, err
	}
	return color, found, nil
}

// Append adds a record to the polygon's log.
func (s *FileStore) Append(ctx context.Context, id int64, attribute string, color int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path(id), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(f, "%s,%d\n", sanitize(attribute), color); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Close does nothing for file store.
func (s *FileStore) Close() error {
	return nil
}

// path returns the log file for a polygon id.
func (s *FileStore) path(id int64) string {
	return filepath.Join(s.dir, strconv.FormatInt(id, 10)+".txt")
}

// parseRecord splits "attribute,color" at the last comma.
func parseRecord(line string) (string, int, bool) {
	i := strings.LastIndexByte(line, ',')
	if i < 0 {
		return "", 0, false
	}
	c, err := strconv.Atoi(strings.TrimSpace(line[i+1:]))
	if err != nil {
		return "", 0, false
	}
	return line[:i], c, true
}

// sanitize keeps an attribute on one line.
func sanitize(attribute string) string {
	return strings.NewReplacer("\n", " ", "\r", " ").Replace(attribute)
}

// Ensure FileStore implements Store.
var _ Store = (*FileStore)(nil)
