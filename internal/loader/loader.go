package loader

import (
	"bytes"
	"crypto/sha1"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/KaramelBytes/autoanalyst/internal/table"
)

// LoadError reports an input file that could not be turned into a table:
// unsupported extension, malformed content, or an unreadable workbook. The
// caller keeps whatever table was active before the failed load.
type LoadError struct {
	Name string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Name, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ErrUnsupported indicates a file extension outside the accepted set.
var ErrUnsupported = errors.New("unsupported file format (accepted: .csv, .xlsx)")

// Load parses an uploaded file into a table, dispatching on the filename
// suffix: .csv through the delimited-text parser, .xlsx through the
// spreadsheet parser (first sheet). The first row is the header in both
// formats. Any failure is a *LoadError and no table is produced.
func Load(name string, data []byte) (*table.Table, error) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".csv"):
		t, err := loadCSV(name, data)
		if err != nil {
			return nil, &LoadError{Name: name, Err: err}
		}
		return t, nil
	case strings.HasSuffix(lower, ".xlsx"):
		t, err := loadXLSX(name, data)
		if err != nil {
			return nil, &LoadError{Name: name, Err: err}
		}
		return t, nil
	default:
		return nil, &LoadError{Name: name, Err: ErrUnsupported}
	}
}

func loadCSV(name string, data []byte) (*table.Table, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty file")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}
		cp := make([]string, len(rec))
		copy(cp, rec)
		rows = append(rows, cp)
	}
	return table.New(name, header, rows), nil
}

func loadXLSX(name string, data []byte) (*table.Table, error) {
	header, rows, err := readFirstSheet(data)
	if err != nil {
		return nil, err
	}
	if len(header) == 0 {
		return nil, errors.New("empty workbook")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	return table.New(name, header, rows), nil
}

// Cache memoizes Load results per distinct input file, keyed by a SHA-1
// fingerprint of the filename and content. A new file is a cache miss by
// construction; failed loads are not cached.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*table.Table
}

// NewCache returns an empty load cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*table.Table)}
}

// Load returns the memoized table for this exact file, parsing it on first
// sight.
func (c *Cache) Load(name string, data []byte) (*table.Table, error) {
	key := Fingerprint(name, data)
	c.mu.Lock()
	if t, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return t, nil
	}
	c.mu.Unlock()

	t, err := Load(name, data)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.entries[key] = t
	c.mu.Unlock()
	return t, nil
}

// Len reports how many distinct files are memoized.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Fingerprint derives the cache identity of an uploaded file.
func Fingerprint(name string, data []byte) string {
	h := sha1.New()
	h.Write([]byte(name))
	h.Write([]byte{0})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
