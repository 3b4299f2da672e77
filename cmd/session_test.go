package cmd

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanq16/pulldown/internal/config"
)

func TestInteractiveBatchExitsWhenDone(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "300")
		io.WriteString(w, strings.Repeat("b", 300))
	}))
	t.Cleanup(ts.Close)

	cfg = config.Default()
	cfg.Dir = t.TempDir()
	cfg.Refresh = 5 * time.Millisecond
	t.Cleanup(func() { cfg = config.Config{} })

	// stdin that stays open, as a terminal would
	pr, pw := io.Pipe()
	t.Cleanup(func() { pw.Close() })

	done := make(chan struct{})
	var out bytes.Buffer
	go func() {
		defer close(done)
		records, err := downloadAll(context.Background(), []string{ts.URL + "/one.bin", ts.URL + "/two.bin"}, pr, &out, true)
		assert.NoError(t, err)
		assert.Len(t, records, 2)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("interactive batch did not exit after its downloads finished")
	}
	for _, name := range []string{"one.bin", "two.bin"} {
		info, err := os.Stat(filepath.Join(cfg.Dir, name))
		require.NoError(t, err)
		assert.EqualValues(t, 300, info.Size())
	}
	assert.Contains(t, out.String(), "Completed 2 of 2")
}
