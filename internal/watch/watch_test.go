package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu      sync.Mutex
	batches [][]Change
}

func (r *recorder) handle(_ context.Context, changes []Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, changes)
}

func (r *recorder) paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, b := range r.batches {
		for _, c := range b {
			out = append(out, filepath.Base(c.Path))
		}
	}
	return out
}

func TestWatcher_DebouncesNoteChanges(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}

	w, err := New([]string{dir}, rec.handle, Options{Debounce: 50 * time.Millisecond}, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	note := filepath.Join(dir, "kr.md")
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(note, []byte("# Chapter 1\n"), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "diagram.png"), []byte{1}, 0o644))

	assert.Eventually(t, func() bool {
		return len(rec.paths()) > 0
	}, 2*time.Second, 20*time.Millisecond)

	for _, p := range rec.paths() {
		assert.Equal(t, "kr.md", p, "unsupported files are ignored")
	}
}

func TestWatcher_ExplicitFile(t *testing.T) {
	dir := t.TempDir()
	followed := filepath.Join(dir, "ccia.md")
	require.NoError(t, os.WriteFile(followed, []byte("# A\n"), 0o644))

	rec := &recorder{}
	w, err := New([]string{followed}, rec.handle, Options{Debounce: 30 * time.Millisecond}, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.md"), []byte("# B\n"), 0o644))
	require.NoError(t, os.WriteFile(followed, []byte("# A changed\n"), 0o644))

	assert.Eventually(t, func() bool {
		return len(rec.paths()) > 0
	}, 2*time.Second, 20*time.Millisecond)
	for _, p := range rec.paths() {
		assert.Equal(t, "ccia.md", p)
	}
}

func TestNew_MissingPath(t *testing.T) {
	_, err := New([]string{filepath.Join(t.TempDir(), "missing")}, nil, DefaultOptions(), slog.New(slog.DiscardHandler))
	assert.Error(t, err)
}

func TestDedupe_KeepsLastPerPath(t *testing.T) {
	in := []Change{
		{Path: "a.md", Op: "create"},
		{Path: "b.md", Op: "write"},
		{Path: "a.md", Op: "write"},
	}
	out := dedupe(in)
	require.Len(t, out, 2)
	assert.Equal(t, "a.md", out[0].Path)
	assert.Equal(t, "write", out[0].Op)
	assert.Equal(t, "b.md", out[1].Path)
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w, err := New([]string{t.TempDir()}, nil, DefaultOptions(), slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	w.Stop()
	w.Stop()
}

func TestWatcher_StartFailureReleasesWatcher(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	note := filepath.Join(sub, "note.md")
	require.NoError(t, os.WriteFile(note, []byte("# Chapter 1\n"), 0o644))

	w, err := New([]string{note}, nil, DefaultOptions(), slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(sub))

	require.Error(t, w.Start(context.Background()))
	assert.ErrorIs(t, w.fsw.Add(dir), fsnotify.ErrClosed)

	stopped := make(chan struct{})
	go func() {
		w.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after a failed Start")
	}
}
