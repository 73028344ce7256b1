package db

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

var (
	ErrPersistence       = errors.New("persistence failure")
	ErrMalformedDocument = errors.New("malformed data document")
)

// timestamps written by older builds carry no zone
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// every stored business must carry these keys, even if empty
var requiredBusinessKeys = []string{"id", "name", "category", "address"}

type DealRecord struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Expires     string `json:"expires"`
}

type ReviewRecord struct {
	UserName string `json:"user_name"`
	Rating   int    `json:"rating"`
	Comment  string `json:"comment"`
	Verified bool   `json:"verified"`
	Date     string `json:"date"`
}

// BusinessRecord is the on-disk shape of one business. Optional fields may be
// absent in older documents and decode to their zero value.
type BusinessRecord struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Category    string         `json:"category"`
	Address     string         `json:"address"`
	Phone       string         `json:"phone"`
	Description string         `json:"description"`
	Deals       []DealRecord   `json:"deals"`
	Reviews     []ReviewRecord `json:"reviews"`
	CreatedAt   string         `json:"created_at"`
}

// Document is the whole persisted store.
type Document struct {
	Businesses    []BusinessRecord    `json:"businesses"`
	UserFavorites map[string][]string `json:"user_favorites"`
}

// checkRequiredKeys rejects documents whose businesses lack a required key.
// Values are not judged here; odd values are the loader's concern.
func checkRequiredKeys(raw []byte) error {
	var shape struct {
		Businesses []map[string]json.RawMessage `json:"businesses"`
	}
	if err := json.Unmarshal(raw, &shape); err != nil {
		return err
	}

	for i, b := range shape.Businesses {
		for _, key := range requiredBusinessKeys {
			if _, ok := b[key]; !ok {
				return fmt.Errorf("business #%d: missing %q", i, key)
			}
		}
	}
	return nil
}

// FileDB reads and writes the JSON document at a single path.
type FileDB struct {
	path   string
	logger *zap.SugaredLogger
}

// New sets up a file-backed document store. The parent directory is created
// when missing; the file itself is only created by the first Write.
func New(path string, logger *zap.SugaredLogger) (*FileDB, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty data file path", ErrPersistence)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create data dir: %v", ErrPersistence, err)
		}
	}

	return &FileDB{path: path, logger: logger}, nil
}

func (f *FileDB) Path() string {
	return f.path
}

func (f *FileDB) Exists() (bool, error) {
	_, err := os.Stat(f.path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("%w: stat %s: %v", ErrPersistence, f.path, err)
}

// Read decodes the document. Missing optional fields are defaulted to empty.
func (f *FileDB) Read() (*Document, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrPersistence, f.path, err)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if err := checkRequiredKeys(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	for i := range doc.Businesses {
		if doc.Businesses[i].Deals == nil {
			doc.Businesses[i].Deals = []DealRecord{}
		}
		if doc.Businesses[i].Reviews == nil {
			doc.Businesses[i].Reviews = []ReviewRecord{}
		}
	}
	if doc.UserFavorites == nil {
		doc.UserFavorites = map[string][]string{}
	}

	f.logger.Debugw("data document loaded", "path", f.path, "businesses", len(doc.Businesses))
	return &doc, nil
}

// Write replaces the document. Data goes to a temp file in the same directory
// first and is renamed over the target.
func (f *FileDB) Write(doc *Document) error {
	if doc.Businesses == nil {
		doc.Businesses = []BusinessRecord{}
	}
	if doc.UserFavorites == nil {
		doc.UserFavorites = map[string][]string{}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode document: %v", ErrPersistence, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", ErrPersistence, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: write temp file: %v", ErrPersistence, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: close temp file: %v", ErrPersistence, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: replace %s: %v", ErrPersistence, f.path, err)
	}

	f.logger.Debugw("data document written", "path", f.path, "businesses", len(doc.Businesses))
	return nil
}

// FormatTimestamp is the single format used when writing.
func FormatTimestamp(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

// ParseTimestamp accepts RFC3339, the zone-less ISO-8601 form and a bare
// date. Zone-less values are read as local time.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if layout == time.RFC3339Nano {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
			continue
		}
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
