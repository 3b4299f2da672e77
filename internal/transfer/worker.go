package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/tanq16/pulldown/internal/utils"
)

const (
	DefaultProgressInterval = 100 * time.Millisecond
	DefaultSpeedInterval    = time.Second
	DefaultControlBuffer    = 16
)

var ErrControlBusy = errors.New("control channel is full")

var errCancelled = errors.New("transfer cancelled")

type Config struct {
	Dir              string
	Client           utils.HTTPDoer
	BufferSize       int
	ProgressInterval time.Duration
	SpeedInterval    time.Duration
	ControlBuffer    int
	Now              func() time.Time
}

func (c Config) withDefaults() Config {
	if c.Dir == "" {
		c.Dir = "."
	}
	if c.Client == nil {
		c.Client = utils.NewPulldownHTTPClient(utils.HTTPClientConfig{})
	}
	if c.BufferSize <= 0 {
		c.BufferSize = utils.DefaultBufferSize
	}
	if c.ProgressInterval <= 0 {
		c.ProgressInterval = DefaultProgressInterval
	}
	if c.SpeedInterval <= 0 {
		c.SpeedInterval = DefaultSpeedInterval
	}
	if c.ControlBuffer <= 0 {
		c.ControlBuffer = DefaultControlBuffer
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Handle is the controller's side of a running worker.
type Handle struct {
	ID       ID
	URL      string
	FileName string
	control  chan Signal
	done     chan struct{}
}

// Send queues sig for the worker without blocking.
func (h *Handle) Send(sig Signal) error {
	select {
	case h.control <- sig:
		return nil
	default:
		return ErrControlBusy
	}
}

// Done is closed once the worker goroutine has returned.
func (h *Handle) Done() <-chan struct{} { return h.done }

type worker struct {
	id       ID
	url      string
	fileName string
	cfg      Config
	ctx      context.Context
	events   chan<- Event
	control  <-chan Signal
	log      zerolog.Logger
}

type chunk struct {
	n   int
	err error
}

// Start validates rawURL, then runs the transfer in its own goroutine and
// returns immediately. Cancelling ctx stops the worker like SignalCancel.
func Start(ctx context.Context, id ID, rawURL string, events chan<- Event, cfg Config) (*Handle, error) {
	fileName, err := FileName(rawURL)
	if err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	h := &Handle{
		ID:       id,
		URL:      rawURL,
		FileName: fileName,
		control:  make(chan Signal, cfg.ControlBuffer),
		done:     make(chan struct{}),
	}
	w := &worker{
		id:       id,
		url:      rawURL,
		fileName: fileName,
		cfg:      cfg,
		ctx:      ctx,
		events:   events,
		control:  h.control,
		log:      utils.GetLogger("transfer").With().Uint64("id", uint64(id)).Str("file", fileName).Logger(),
	}
	go w.run(h.done)
	return h, nil
}

func (w *worker) run(done chan<- struct{}) {
	defer close(done)
	w.log.Debug().Str("url", w.url).Msg("transfer started")
	err := w.transfer()
	switch {
	case err == nil:
		w.log.Info().Msg("download complete")
	case errors.Is(err, errCancelled):
		w.log.Info().Msg("download cancelled")
		w.emit(Cancelled{ID: w.id})
	default:
		w.log.Error().Err(err).Msg("download failed")
		w.emit(Failed{ID: w.id, Err: err})
	}
}

// emit gives up only when the whole session is shutting down, and even then
// still hands the event over if the channel has room.
func (w *worker) emit(ev Event) {
	select {
	case w.events <- ev:
	case <-w.ctx.Done():
		select {
		case w.events <- ev:
		default:
			w.log.Debug().Type("event", ev).Msg("event dropped on shutdown")
		}
	}
}

func (w *worker) transfer() error {
	reqCtx, cancel := context.WithCancel(w.ctx)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, w.url, nil)
	if err != nil {
		return fmt.Errorf("error creating GET request: %w", err)
	}
	resp, paused, err := w.connect(req, cancel)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	total := resp.ContentLength
	if total >= 0 {
		w.emit(Total{ID: w.id, Bytes: total})
	} else {
		w.log.Debug().Msg("server did not declare a content length")
	}

	tempPath := filepath.Join(w.cfg.Dir, utils.TempName(w.fileName))
	finalPath := filepath.Join(w.cfg.Dir, w.fileName)
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("error creating temp file: %w", err)
	}

	if err := w.stream(reqCtx, resp.Body, file, total, paused); err != nil {
		file.Close()
		if errors.Is(err, errCancelled) {
			if rmErr := os.Remove(tempPath); rmErr != nil {
				w.log.Warn().Err(rmErr).Str("path", tempPath).Msg("could not remove temp file")
			}
			return err
		}
		w.keepTemp()
		return err
	}
	if err := file.Sync(); err != nil {
		file.Close()
		w.keepTemp()
		return fmt.Errorf("error syncing temp file: %w", err)
	}
	if err := file.Close(); err != nil {
		w.keepTemp()
		return fmt.Errorf("error closing temp file: %w", err)
	}
	if err := os.Rename(tempPath, finalPath); err != nil {
		w.keepTemp()
		return fmt.Errorf("error renaming (finalizing) output file: %w", err)
	}
	w.emit(Done{ID: w.id})
	return nil
}

type reply struct {
	resp *http.Response
	err  error
}

// connect waits for the response headers while still serving control
// signals. A pause requested meanwhile is returned so streaming starts
// paused; a cancel aborts the request.
func (w *worker) connect(req *http.Request, cancel context.CancelFunc) (*http.Response, bool, error) {
	replies := make(chan reply, 1)
	go func() {
		resp, err := w.cfg.Client.Do(req)
		replies <- reply{resp: resp, err: err}
	}()
	abandon := func() error {
		cancel()
		go func() {
			if r := <-replies; r.resp != nil {
				r.resp.Body.Close()
			}
		}()
		return errCancelled
	}

	paused := false
	for {
		select {
		case r := <-replies:
			if r.err != nil {
				if w.ctx.Err() != nil {
					return nil, false, errCancelled
				}
				return nil, false, fmt.Errorf("error executing GET request: %w", r.err)
			}
			return r.resp, paused, nil
		case sig := <-w.control:
			switch {
			case sig == SignalCancel:
				w.log.Debug().Msg("cancelled while connecting")
				return nil, false, abandon()
			case !paused && (sig == SignalToggle || sig == SignalPause):
				paused = true
				w.emit(Paused{ID: w.id, Paused: true})
			case paused && (sig == SignalToggle || sig == SignalResume):
				paused = false
				w.emit(Paused{ID: w.id, Paused: false})
			}
		case <-w.ctx.Done():
			return nil, false, abandon()
		}
	}
}

// keepTemp records the temp file of a failed transfer so that clean can
// find it later.
func (w *worker) keepTemp() {
	if err := utils.RecordTemp(w.cfg.Dir, utils.TempName(w.fileName)); err != nil {
		w.log.Warn().Err(err).Msg("could not record temp file")
	}
}

// stream runs the active/paused state machine until the body is exhausted,
// an error occurs, or the transfer is cancelled.
func (w *worker) stream(ctx context.Context, body io.Reader, file *os.File, total int64, paused bool) error {
	buf := make([]byte, w.cfg.BufferSize)
	demand := make(chan struct{}, 1)
	results := make(chan chunk)
	go pump(ctx, body, buf, demand, results)
	defer close(demand)

	var (
		downloaded, speedMark int64
		reported              int64 = -1
		window                speedWindow
		pending               bool
		lastProgress          = w.cfg.Now()
		lastSpeed             = lastProgress
	)
	for {
		if paused {
			select {
			case sig := <-w.control:
				switch sig {
				case SignalToggle, SignalResume:
					paused = false
					w.log.Debug().Int64("downloaded", downloaded).Msg("resumed")
					w.emit(Paused{ID: w.id, Paused: false})
				case SignalCancel:
					return errCancelled
				}
			case <-w.ctx.Done():
				return errCancelled
			}
			continue
		}

		if !pending {
			demand <- struct{}{}
			pending = true
		}
		select {
		case c := <-results:
			pending = false
			if c.n > 0 {
				if _, err := file.Write(buf[:c.n]); err != nil {
					return fmt.Errorf("error writing to temp file: %w", err)
				}
				downloaded += int64(c.n)
				now := w.cfg.Now()
				if now.Sub(lastProgress) >= w.cfg.ProgressInterval || downloaded == total {
					w.emit(Downloaded{ID: w.id, Bytes: downloaded})
					reported = downloaded
					lastProgress = now
				}
				if now.Sub(lastSpeed) >= w.cfg.SpeedInterval {
					w.emit(Speed{ID: w.id, BytesPerSecond: window.push(downloaded - speedMark)})
					speedMark = downloaded
					lastSpeed = now
				}
			}
			if errors.Is(c.err, io.EOF) {
				if reported != downloaded {
					w.emit(Downloaded{ID: w.id, Bytes: downloaded})
				}
				return nil
			}
			if c.err != nil {
				if ctx.Err() != nil {
					return errCancelled
				}
				return fmt.Errorf("error reading response body: %w", c.err)
			}
		case sig := <-w.control:
			switch sig {
			case SignalToggle, SignalPause:
				paused = true
				w.log.Debug().Int64("downloaded", downloaded).Msg("paused")
				w.emit(Paused{ID: w.id, Paused: true})
			case SignalCancel:
				return errCancelled
			}
		case <-w.ctx.Done():
			return errCancelled
		}
	}
}

// pump performs one body read per demand token, so nothing is pulled from
// the network while the worker is paused. buf is reused; the worker is done
// with it before it sends the next token.
func pump(ctx context.Context, body io.Reader, buf []byte, demand <-chan struct{}, results chan<- chunk) {
	for range demand {
		n, err := body.Read(buf)
		select {
		case results <- chunk{n: n, err: err}:
		case <-ctx.Done():
			return
		}
		if err != nil {
			return
		}
	}
}
