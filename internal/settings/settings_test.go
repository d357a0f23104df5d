package settings

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjaminschreck/go-coverletter/pkg/stencil"
)

func validSettings(t *testing.T) stencil.Settings {
	t.Helper()
	root := t.TempDir()
	templates := filepath.Join(root, "templates")
	output := filepath.Join(root, "letters")
	require.NoError(t, os.MkdirAll(templates, 0o755))
	require.NoError(t, os.MkdirAll(output, 0o755))
	return stencil.Settings{
		TemplatesRoot: templates,
		OutputRoot:    output,
		FirstName:     "Ada",
		LastName:      "Lovelace",
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "nested", "settings.yaml"))

	empty, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, stencil.Settings{}, empty)

	want := validSettings(t)
	padded := want
	padded.FirstName = "  Ada "
	require.NoError(t, store.Save(padded))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}

func TestFileStoreLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("first_name: [unterminated"), 0o600))

	_, err := NewFileStore(path).Load()
	assert.ErrorContains(t, err, "failed to parse settings")
}

func TestFileStoreYAMLKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
templates_root: /srv/templates
output_root: /srv/letters
first_name: Ada
last_name: Lovelace
`), 0o600))

	got, err := NewFileStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, stencil.Settings{
		TemplatesRoot: "/srv/templates",
		OutputRoot:    "/srv/letters",
		FirstName:     "Ada",
		LastName:      "Lovelace",
	}, got)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*stencil.Settings)
		wantFields []string
		createRoot bool
	}{
		{
			name:   "valid",
			mutate: func(*stencil.Settings) {},
		},
		{
			name:       "blank names",
			mutate:     func(s *stencil.Settings) { s.FirstName = " "; s.LastName = "" },
			wantFields: []string{"first_name", "last_name"},
		},
		{
			name:       "relative templates directory",
			mutate:     func(s *stencil.Settings) { s.TemplatesRoot = "templates" },
			wantFields: []string{"templates_root"},
		},
		{
			name:       "missing templates directory",
			mutate:     func(s *stencil.Settings) { s.TemplatesRoot = filepath.Join(s.TemplatesRoot, "gone") },
			wantFields: []string{"templates_root"},
		},
		{
			name:       "missing output directory is only a warning",
			mutate:     func(s *stencil.Settings) { s.OutputRoot = filepath.Join(s.OutputRoot, "new") },
			createRoot: true,
		},
		{
			name:       "relative output directory",
			mutate:     func(s *stencil.Settings) { s.OutputRoot = "letters" },
			wantFields: []string{"output_root"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings(t)
			tt.mutate(&s)
			report := Validate(s)

			var fields []string
			for _, issue := range report.Issues {
				fields = append(fields, issue.Field)
			}
			assert.Equal(t, tt.wantFields, fields)
			assert.Equal(t, tt.createRoot, report.CreateOutputRoot)
			assert.Equal(t, tt.createRoot, len(report.Warnings) == 1)
		})
	}
}

func TestApply(t *testing.T) {
	answer := func(ok bool, err error) stencil.ConfirmFunc {
		return func(ctx context.Context, title, message string) (bool, error) {
			return ok, err
		}
	}

	t.Run("saves valid settings", func(t *testing.T) {
		store := NewFileStore(filepath.Join(t.TempDir(), "settings.yaml"))
		report, err := Apply(context.Background(), store, validSettings(t), nil)
		require.NoError(t, err)
		assert.True(t, report.Saved)
		assert.FileExists(t, store.Path())
	})

	t.Run("invalid settings are not saved", func(t *testing.T) {
		store := NewFileStore(filepath.Join(t.TempDir(), "settings.yaml"))
		s := validSettings(t)
		s.LastName = ""
		report, err := Apply(context.Background(), store, s, nil)
		require.NoError(t, err)
		assert.False(t, report.Saved)
		assert.NoFileExists(t, store.Path())
	})

	t.Run("creates output directory after confirmation", func(t *testing.T) {
		store := NewFileStore(filepath.Join(t.TempDir(), "settings.yaml"))
		s := validSettings(t)
		s.OutputRoot = filepath.Join(s.OutputRoot, "new")
		report, err := Apply(context.Background(), store, s, answer(true, nil))
		require.NoError(t, err)
		assert.True(t, report.Saved)
		assert.DirExists(t, s.OutputRoot)
	})

	t.Run("declined confirmation saves nothing", func(t *testing.T) {
		store := NewFileStore(filepath.Join(t.TempDir(), "settings.yaml"))
		s := validSettings(t)
		s.OutputRoot = filepath.Join(s.OutputRoot, "new")
		report, err := Apply(context.Background(), store, s, answer(false, nil))
		require.NoError(t, err)
		assert.True(t, report.Declined)
		assert.False(t, report.Saved)
		assert.NoDirExists(t, s.OutputRoot)
		assert.NoFileExists(t, store.Path())
	})

	t.Run("missing confirmer does not create output directory", func(t *testing.T) {
		store := NewFileStore(filepath.Join(t.TempDir(), "settings.yaml"))
		s := validSettings(t)
		s.OutputRoot = filepath.Join(s.OutputRoot, "new")
		report, err := Apply(context.Background(), store, s, nil)
		require.NoError(t, err)
		assert.True(t, report.Declined)
		assert.False(t, report.Saved)
		assert.NoDirExists(t, s.OutputRoot)
		assert.NoFileExists(t, store.Path())
	})

	t.Run("prompt error", func(t *testing.T) {
		store := NewFileStore(filepath.Join(t.TempDir(), "settings.yaml"))
		s := validSettings(t)
		s.OutputRoot = filepath.Join(s.OutputRoot, "new")
		_, err := Apply(context.Background(), store, s, answer(false, errors.New("no tty")))
		assert.EqualError(t, err, "no tty")
		assert.NoFileExists(t, store.Path())
	})
}

func TestWatcher(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "settings.yaml"))
	require.NoError(t, store.Save(stencil.Settings{FirstName: "Ada"}))

	changes := make(chan stencil.Settings, 4)
	w, err := NewWatcher(store, 20*time.Millisecond, func(s stencil.Settings, err error) {
		if err == nil {
			changes <- s
		}
	})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(func() { _ = w.Stop() })

	require.NoError(t, store.Save(stencil.Settings{FirstName: "Grace"}))

	select {
	case s := <-changes:
		assert.Equal(t, "Grace", s.FirstName)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after settings change")
	}

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop(), "stop is idempotent")
}
