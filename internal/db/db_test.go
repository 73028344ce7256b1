package db

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newFileDB(t *testing.T) *FileDB {
	t.Helper()

	f, err := New(filepath.Join(t.TempDir(), "nested", "data.json"), zap.NewNop().Sugar())
	require.NoError(t, err)
	return f
}

func TestNew_EmptyPath(t *testing.T) {
	_, err := New("", zap.NewNop().Sugar())
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestFileDB_WriteRead(t *testing.T) {
	f := newFileDB(t)

	exists, err := f.Exists()
	require.NoError(t, err)
	assert.False(t, exists)

	doc := &Document{
		Businesses: []BusinessRecord{{
			ID:        "abc12345",
			Name:      "Corner Bakery",
			Category:  "food",
			Address:   "1 Main St",
			Deals:     []DealRecord{{Title: "Free roll", Description: "with coffee", Expires: "2024-12-31"}},
			Reviews:   []ReviewRecord{{UserName: "Ann", Rating: 5, Comment: "great", Verified: true, Date: "2025-03-14T09:30:00Z"}},
			CreatedAt: "2025-03-14T09:00:00Z",
		}},
		UserFavorites: map[string][]string{"ann": {"abc12345"}},
	}
	require.NoError(t, f.Write(doc))

	exists, err = f.Exists()
	require.NoError(t, err)
	assert.True(t, exists)

	got, err := f.Read()
	require.NoError(t, err)
	assert.Equal(t, doc, got)

	entries, err := os.ReadDir(filepath.Dir(f.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files are left behind")
}

func TestFileDB_WriteEmptyDocument(t *testing.T) {
	f := newFileDB(t)

	require.NoError(t, f.Write(&Document{}))

	raw, err := os.ReadFile(f.Path())
	require.NoError(t, err)
	assert.JSONEq(t, `{"businesses": [], "user_favorites": {}}`, string(raw))
}

func TestFileDB_ReadDefaultsMissingFields(t *testing.T) {
	f := newFileDB(t)
	require.NoError(t, os.WriteFile(f.Path(), []byte(`{"businesses": [{"id": "a", "name": "n", "category": "c", "address": "x"}]}`), 0o644))

	doc, err := f.Read()
	require.NoError(t, err)

	require.Len(t, doc.Businesses, 1)
	assert.NotNil(t, doc.Businesses[0].Deals)
	assert.NotNil(t, doc.Businesses[0].Reviews)
	assert.NotNil(t, doc.UserFavorites)
	assert.Empty(t, doc.Businesses[0].CreatedAt)
}

func TestFileDB_ReadMalformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", `{"businesses": [`},
		{"missing id", `{"businesses": [{"name": "n", "category": "c", "address": "x"}]}`},
		{"missing category", `{"businesses": [{"id": "a", "name": "n", "address": "x"}]}`},
		{"missing address", `{"businesses": [{"id": "a", "name": "n", "category": "c"}]}`},
		{"null business", `{"businesses": [null]}`},
		{"wrong type", `{"businesses": [{"id": 7, "name": "n", "category": "c", "address": "x"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFileDB(t)
			require.NoError(t, os.WriteFile(f.Path(), []byte(tt.content), 0o644))

			_, err := f.Read()
			assert.ErrorIs(t, err, ErrMalformedDocument)
		})
	}
}

func TestFileDB_ReadKeepsValues(t *testing.T) {
	f := newFileDB(t)
	content := `{"businesses": [{"id": "a", "name": "", "category": "c", "address": "",
		"created_at": "someday", "reviews": [{"rating": 0}, {"rating": 6}]}]}`
	require.NoError(t, os.WriteFile(f.Path(), []byte(content), 0o644))

	doc, err := f.Read()
	require.NoError(t, err)

	require.Len(t, doc.Businesses, 1)
	b := doc.Businesses[0]
	assert.Empty(t, b.Name)
	assert.Equal(t, "someday", b.CreatedAt)
	require.Len(t, b.Reviews, 2)
	assert.Equal(t, 0, b.Reviews[0].Rating)
	assert.Equal(t, 6, b.Reviews[1].Rating)
}

func TestFileDB_ReadMissingFile(t *testing.T) {
	f := newFileDB(t)

	_, err := f.Read()
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestFileDB_WriteUnwritableDir(t *testing.T) {
	dir := t.TempDir()
	f, err := New(filepath.Join(dir, "data.json"), zap.NewNop().Sugar())
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(dir))

	err = f.Write(&Document{})
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2025-03-14T09:30:00Z", time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)},
		{"2025-03-14T09:30:00.5+02:00", time.Date(2025, 3, 14, 7, 30, 0, 500000000, time.UTC)},
		{"2024-01-02T03:04:05.123456", time.Date(2024, 1, 2, 3, 4, 5, 123456000, time.Local)},
		{"2024-01-02T03:04:05", time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local)},
		{"2024-05-01", time.Date(2024, 5, 1, 0, 0, 0, 0, time.Local)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimestamp(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %v, got %v", tt.want, got)
		})
	}

	_, err := ParseTimestamp("14/03/2025")
	assert.Error(t, err)
}

func TestFormatTimestamp_RoundTrip(t *testing.T) {
	ts := time.Date(2025, 3, 14, 9, 30, 0, 123, time.UTC)

	got, err := ParseTimestamp(FormatTimestamp(ts))
	require.NoError(t, err)
	assert.True(t, ts.Equal(got))
}
