package session

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanq16/pulldown/internal/controller"
	"github.com/tanq16/pulldown/internal/output"
	"github.com/tanq16/pulldown/internal/transfer"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	release := make(chan struct{})
	var once sync.Once
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/gated.bin":
			w.Header().Set("Content-Length", "1000")
			io.WriteString(w, strings.Repeat("g", 400))
			w.(http.Flusher).Flush()
			select {
			case <-release:
			case <-r.Context().Done():
				return
			}
			io.WriteString(w, strings.Repeat("h", 600))
		case strings.HasSuffix(r.URL.Path, ".bin"):
			w.Header().Set("Content-Length", "2000")
			io.WriteString(w, strings.Repeat("f", 2000))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(func() {
		once.Do(func() { close(release) })
		ts.Close()
	})
	return ts
}

func newSession(t *testing.T, opts Options) (*Session, *controller.Controller, *bytes.Buffer, string) {
	t.Helper()
	dir := t.TempDir()
	ctrl := controller.New(context.Background(), transfer.Config{Dir: dir, ProgressInterval: time.Nanosecond})
	t.Cleanup(ctrl.Shutdown)
	var buf bytes.Buffer
	if opts.Refresh == 0 {
		opts.Refresh = 5 * time.Millisecond
	}
	return New(ctrl, output.NewRenderer(&buf), opts), ctrl, &buf, dir
}

func lookup(ctrl *controller.Controller, id transfer.ID, check func(controller.Record) bool) func() bool {
	return func() bool {
		rec, err := ctrl.Lookup(id)
		return err == nil && check(rec)
	}
}

func TestRunExitsWhenDone(t *testing.T) {
	ts := newServer(t)
	s, ctrl, buf, dir := newSession(t, Options{ExitWhenDone: true})

	err := s.Run(context.Background(), []string{
		ts.URL + "/one.bin",
		"ftp://x.test/skipped.bin",
		ts.URL + "/two.bin",
	})
	require.NoError(t, err)

	records := ctrl.Records()
	require.Len(t, records, 2)
	for _, rec := range records {
		assert.True(t, rec.Done, "record %d", rec.ID)
		data, err := os.ReadFile(filepath.Join(dir, rec.FileName))
		require.NoError(t, err)
		assert.Len(t, data, 2000)
	}
	assert.Contains(t, buf.String(), "Completed 2 of 2")
}

func TestRunExitsImmediatelyWithNothingToDo(t *testing.T) {
	s, ctrl, buf, _ := newSession(t, Options{ExitWhenDone: true})
	require.NoError(t, s.Run(context.Background(), []string{"not a url"}))
	assert.Empty(t, ctrl.Records())
	assert.Contains(t, buf.String(), "Completed 0 of 0")
}

func TestRunReportsFailures(t *testing.T) {
	ts := newServer(t)
	s, ctrl, buf, _ := newSession(t, Options{ExitWhenDone: true})

	require.NoError(t, s.Run(context.Background(), []string{ts.URL + "/missing.txt", ts.URL + "/ok.bin"}))
	rec, err := ctrl.Lookup(1)
	require.NoError(t, err)
	assert.True(t, rec.Failed)
	assert.Contains(t, buf.String(), "Failed 1 of 2")
	assert.Contains(t, buf.String(), "404")
}

func TestRunInteractiveCommands(t *testing.T) {
	ts := newServer(t)
	pr, pw := io.Pipe()
	t.Cleanup(func() { pw.Close() })
	s, ctrl, buf, dir := newSession(t, Options{Input: pr})

	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(context.Background(), nil) }()

	send := func(line string) {
		t.Helper()
		_, err := io.WriteString(pw, line+"\n")
		require.NoError(t, err)
	}
	wait := func(cond func() bool) {
		t.Helper()
		require.Eventually(t, cond, 5*time.Second, 5*time.Millisecond)
	}

	send("a " + ts.URL + "/gated.bin")
	wait(lookup(ctrl, 1, func(r controller.Record) bool { return r.Downloaded == 400 }))
	assert.Equal(t, transfer.ID(1), s.Selected())

	send("p")
	wait(lookup(ctrl, 1, func(r controller.Record) bool { return r.Paused }))
	send("r 1")
	wait(lookup(ctrl, 1, func(r controller.Record) bool { return !r.Paused }))
	send("c 1")
	wait(lookup(ctrl, 1, func(r controller.Record) bool { return r.Cancelled }))
	send("q")

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("session did not quit")
	}
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Contains(t, buf.String(), "Cancelled 1 of 1")
}

func TestRunStopsOnContextCancel(t *testing.T) {
	ts := newServer(t)
	s, ctrl, _, dir := newSession(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx, []string{ts.URL + "/gated.bin"}) }()
	require.Eventually(t, lookup(ctrl, 1, func(r controller.Record) bool { return r.Downloaded == 400 }), 5*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("session did not stop")
	}
	rec, err := ctrl.Lookup(1)
	require.NoError(t, err)
	assert.True(t, rec.Cancelled)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExecuteWithoutSelection(t *testing.T) {
	s, _, _, _ := newSession(t, Options{Input: strings.NewReader("")})
	assert.False(t, s.execute("p"))
	assert.Contains(t, s.hint(), "no download selected")
	assert.False(t, s.execute("bogus"))
	assert.Contains(t, s.hint(), "unknown command")
	assert.True(t, s.execute("q"))
}

func TestMoveSelection(t *testing.T) {
	ts := newServer(t)
	s, ctrl, _, _ := newSession(t, Options{})
	for _, name := range []string{"/a.bin", "/b.bin", "/c.bin"} {
		s.add(ts.URL + name)
	}
	require.Len(t, ctrl.Records(), 3)
	assert.Equal(t, transfer.ID(1), s.Selected())
	s.moveSelection(1)
	s.moveSelection(1)
	s.moveSelection(1)
	assert.Equal(t, transfer.ID(3), s.Selected())
	s.moveSelection(-1)
	assert.Equal(t, transfer.ID(2), s.Selected())
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("terminal gone") }

func TestReadLinesStopsOnInputError(t *testing.T) {
	lines := make(chan string)
	done := make(chan struct{})
	go func() {
		defer close(done)
		readLines(context.Background(), io.MultiReader(strings.NewReader("p 1\n"), failingReader{}), lines, zerolog.Nop())
	}()

	assert.Equal(t, "p 1", <-lines)
	select {
	case _, ok := <-lines:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("line reader did not stop")
	}
	<-done
}
