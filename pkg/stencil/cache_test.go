package stencil

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjaminschreck/go-coverletter/internal/testutil"
)

// countingCache wraps the real scanner and counts how often it runs
func countingCache(config CacheConfig) (*ScanCache, *int) {
	cache := NewScanCache(config)
	calls := 0
	cache.scan = func(path string) (*TemplateScan, error) {
		calls++
		return InspectTemplate(path)
	}
	return cache, &calls
}

func TestScanCache_Hit(t *testing.T) {
	path := testutil.WriteTemplate(t, filepath.Join(t.TempDir(), "a.docx"), "Dear {COMPANY NAME}", "{FIRST NAME}")
	cache, calls := countingCache(CacheConfig{MaxSize: 4})

	first, err := cache.Scan(path)
	require.NoError(t, err)
	second, err := cache.Scan(path)
	require.NoError(t, err)

	assert.Equal(t, []string{TokenCompanyName, TokenFirstName}, first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, *calls)
	assert.Equal(t, 1, cache.Size())

	// callers own the returned slice
	second[0] = "changed"
	third, err := cache.Scan(path)
	require.NoError(t, err)
	assert.Equal(t, TokenCompanyName, third[0])
}

func TestScanCache_Inspect(t *testing.T) {
	path := testutil.WriteTemplate(t, filepath.Join(t.TempDir(), "a.docx"), "Dear {COMPANY NAME},", "{FIRST NAME} {LAST NAME}")
	cache, calls := countingCache(CacheConfig{MaxSize: 4})

	first, err := cache.Inspect(path)
	require.NoError(t, err)
	assert.Equal(t, "Dear {COMPANY NAME},\n{FIRST NAME} {LAST NAME}", first.Text)

	first.Tokens[0] = "changed"
	second, err := cache.Inspect(path)
	require.NoError(t, err)
	assert.Equal(t, []string{TokenCompanyName, TokenFirstName, TokenLastName}, second.Tokens)
	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, 1, *calls)

	assert.Empty(t, second.Missing([]string{"{FIRST NAME} {LAST NAME}"}))
	assert.Equal(t, []string{"{LAST NAME},"}, second.Missing([]string{"{LAST NAME},"}))
}

func TestScanCache_InvalidatedByEdit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.docx")
	testutil.WriteTemplate(t, path, "{FIRST NAME}")
	cache, calls := countingCache(CacheConfig{MaxSize: 4})

	_, err := cache.Scan(path)
	require.NoError(t, err)

	testutil.WriteTemplate(t, path, "{FIRST NAME} {LAST NAME} at {COMPANY NAME}")
	tokens, err := cache.Scan(path)
	require.NoError(t, err)

	assert.Equal(t, []string{TokenFirstName, TokenLastName, TokenCompanyName}, tokens)
	assert.Equal(t, 2, *calls)
}

func TestScanCache_Eviction(t *testing.T) {
	dir := t.TempDir()
	a := testutil.WriteTemplate(t, filepath.Join(dir, "a.docx"), "{FIRST NAME}")
	b := testutil.WriteTemplate(t, filepath.Join(dir, "b.docx"), "{LAST NAME}")
	c := testutil.WriteTemplate(t, filepath.Join(dir, "c.docx"), "{JOB TITLE}")
	cache, calls := countingCache(CacheConfig{MaxSize: 2})

	for _, path := range []string{a, b, a, c} {
		_, err := cache.Scan(path)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, cache.Size())
	assert.Equal(t, 3, *calls)

	// b was least recently used
	_, err := cache.Scan(a)
	require.NoError(t, err)
	assert.Equal(t, 3, *calls)
	_, err = cache.Scan(b)
	require.NoError(t, err)
	assert.Equal(t, 4, *calls)
}

func TestScanCache_TTL(t *testing.T) {
	path := testutil.WriteTemplate(t, filepath.Join(t.TempDir(), "a.docx"), "{FIRST NAME}")
	cache, calls := countingCache(CacheConfig{MaxSize: 4, TTL: time.Minute})
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	_, err := cache.Scan(path)
	require.NoError(t, err)
	now = now.Add(30 * time.Second)
	_, err = cache.Scan(path)
	require.NoError(t, err)
	assert.Equal(t, 1, *calls)

	now = now.Add(time.Minute)
	_, err = cache.Scan(path)
	require.NoError(t, err)
	assert.Equal(t, 2, *calls)
}

func TestScanCache_Disabled(t *testing.T) {
	path := testutil.WriteTemplate(t, filepath.Join(t.TempDir(), "a.docx"), "{FIRST NAME}")
	cache, calls := countingCache(CacheConfig{})

	for i := 0; i < 3; i++ {
		_, err := cache.Scan(path)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, *calls)
	assert.Equal(t, 0, cache.Size())
}

func TestScanCache_Errors(t *testing.T) {
	cache := NewScanCache(CacheConfig{MaxSize: 4})

	_, err := cache.Scan(filepath.Join(t.TempDir(), "missing.docx"))
	assert.Error(t, err)

	failing := testutil.WriteTemplate(t, filepath.Join(t.TempDir(), "a.docx"), "{FIRST NAME}")
	cache.scan = func(string) (*TemplateScan, error) { return nil, errors.New("boom") }
	_, err = cache.Scan(failing)
	assert.EqualError(t, err, "boom")
	assert.Equal(t, 0, cache.Size(), "failed scans are not cached")
}

func TestScanCache_RemoveAndClear(t *testing.T) {
	dir := t.TempDir()
	a := testutil.WriteTemplate(t, filepath.Join(dir, "a.docx"), "{FIRST NAME}")
	b := testutil.WriteTemplate(t, filepath.Join(dir, "b.docx"), "{LAST NAME}")
	cache := NewScanCache(CacheConfig{MaxSize: 4})

	for _, path := range []string{a, b} {
		_, err := cache.Scan(path)
		require.NoError(t, err)
	}
	cache.Remove(a)
	assert.Equal(t, 1, cache.Size())
	cache.Clear()
	assert.Equal(t, 0, cache.Size())
}

func TestScanCache_Concurrent(t *testing.T) {
	path := testutil.WriteTemplate(t, filepath.Join(t.TempDir(), "a.docx"), "{FIRST NAME}")
	cache := NewScanCache(CacheConfig{MaxSize: 4})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tokens, err := cache.Scan(path)
			assert.NoError(t, err)
			assert.Equal(t, []string{TokenFirstName}, tokens)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, cache.Size())
}
