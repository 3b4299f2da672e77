package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/tanq16/pulldown/internal/transfer"
	"github.com/tanq16/pulldown/internal/utils"
	"github.com/tanq16/pulldown/internal/validation"
)

const DefaultEventBuffer = 256

var (
	ErrUnknownDownload = errors.New("unknown download id")
	ErrFinished        = errors.New("download already finished")
	ErrDuplicateFile   = errors.New("file is already being downloaded")
	ErrClosed          = errors.New("controller is shut down")
)

// Controller owns the download registry and the status channel shared by
// all of its workers. Event-derived record fields are only changed by Apply,
// which is meant to be called from the single goroutine draining Events.
type Controller struct {
	mu      sync.RWMutex
	ctx     context.Context
	cancel  context.CancelFunc
	cfg     transfer.Config
	events  chan transfer.Event
	records []*Record
	index   map[transfer.ID]*Record
	handles map[transfer.ID]*transfer.Handle
	nextID  transfer.ID
	log     zerolog.Logger
}

// New creates a controller whose workers live until ctx is cancelled or
// Shutdown is called.
func New(ctx context.Context, cfg transfer.Config) *Controller {
	ctx, cancel := context.WithCancel(ctx)
	return &Controller{
		ctx:     ctx,
		cancel:  cancel,
		cfg:     cfg,
		events:  make(chan transfer.Event, DefaultEventBuffer),
		index:   make(map[transfer.ID]*Record),
		handles: make(map[transfer.ID]*transfer.Handle),
		nextID:  1,
		log:     utils.GetLogger("controller"),
	}
}

// Request validates rawURL, starts a worker for it and registers its record.
// It returns as soon as the worker goroutine is started.
func (c *Controller) Request(rawURL string) (transfer.ID, error) {
	if err := validation.ValidateURL(rawURL); err != nil {
		return 0, err
	}
	fileName, err := transfer.FileName(rawURL)
	if err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ctx.Err() != nil {
		return 0, ErrClosed
	}
	for _, rec := range c.records {
		if rec.FileName == fileName && !rec.Terminal() {
			return 0, fmt.Errorf("%w: %s (download %d)", ErrDuplicateFile, fileName, rec.ID)
		}
	}
	id := c.nextID
	h, err := transfer.Start(c.ctx, id, rawURL, c.events, c.cfg)
	if err != nil {
		return 0, err
	}
	c.nextID++
	rec := &Record{ID: id, URL: rawURL, FileName: h.FileName}
	c.records = append(c.records, rec)
	c.index[id] = rec
	c.handles[id] = h
	c.log.Info().Uint64("id", uint64(id)).Str("url", rawURL).Str("file", h.FileName).Msg("download requested")
	return id, nil
}

// Events is the receive side of the status channel.
func (c *Controller) Events() <-chan transfer.Event {
	return c.events
}

// Apply folds one status event into its record. An event for an id this
// controller never issued is a programming error.
func (c *Controller) Apply(ev transfer.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.index[ev.DownloadID()]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownDownload, ev.DownloadID())
	}
	switch e := ev.(type) {
	case transfer.Total:
		rec.TotalSize = e.Bytes
	case transfer.Downloaded:
		rec.Downloaded = e.Bytes
	case transfer.Paused:
		rec.Paused = e.Paused
	case transfer.Speed:
		rec.Speed = e.BytesPerSecond
	case transfer.Done:
		rec.Done = true
		c.log.Info().Uint64("id", uint64(rec.ID)).Int64("bytes", rec.Downloaded).Msg("download done")
	case transfer.Failed:
		rec.Failed = true
		if e.Err != nil {
			rec.Err = e.Err.Error()
		}
		c.log.Warn().Uint64("id", uint64(rec.ID)).Str("error", rec.Err).Msg("download failed")
	case transfer.Cancelled:
		rec.Cancelled = true
		c.log.Info().Uint64("id", uint64(rec.ID)).Msg("download cancelled")
	default:
		return fmt.Errorf("unsupported event type %T", ev)
	}
	return nil
}

// Lookup returns a copy of the record for id.
func (c *Controller) Lookup(id transfer.ID) (Record, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.index[id]
	if !ok {
		return Record{}, fmt.Errorf("%w: %d", ErrUnknownDownload, id)
	}
	return *rec, nil
}

// Records returns copies of all records in request order.
func (c *Controller) Records() []Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Record, 0, len(c.records))
	for _, rec := range c.records {
		out = append(out, *rec)
	}
	return out
}

// Pending counts records whose worker has not reported a terminal event yet.
func (c *Controller) Pending() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, rec := range c.records {
		if !rec.Terminal() {
			n++
		}
	}
	return n
}

func (c *Controller) Toggle(id transfer.ID) error { return c.signal(id, transfer.SignalToggle) }
func (c *Controller) Pause(id transfer.ID) error  { return c.signal(id, transfer.SignalPause) }
func (c *Controller) Resume(id transfer.ID) error { return c.signal(id, transfer.SignalResume) }
func (c *Controller) Cancel(id transfer.ID) error { return c.signal(id, transfer.SignalCancel) }

func (c *Controller) signal(id transfer.ID, sig transfer.Signal) error {
	c.mu.RLock()
	rec, ok := c.index[id]
	var terminal bool
	if ok {
		terminal = rec.Terminal()
	}
	h := c.handles[id]
	c.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownDownload, id)
	}
	if terminal {
		return fmt.Errorf("%w: %d", ErrFinished, id)
	}
	if err := h.Send(sig); err != nil {
		return fmt.Errorf("download %d: %w", id, err)
	}
	c.log.Debug().Uint64("id", uint64(id)).Str("signal", sig.String()).Msg("signal sent")
	return nil
}

// Wait blocks until every worker goroutine has returned. Workers only return
// once their last event is delivered, so Events must keep being drained or
// the controller's context must be cancelled.
func (c *Controller) Wait() {
	c.mu.RLock()
	handles := make([]*transfer.Handle, 0, len(c.handles))
	for _, h := range c.handles {
		handles = append(handles, h)
	}
	c.mu.RUnlock()
	for _, h := range handles {
		<-h.Done()
	}
}

// Shutdown cancels every worker, waits for them and applies whatever events
// are still buffered. Nothing else may be draining Events at that point.
func (c *Controller) Shutdown() {
	c.cancel()
	c.Wait()
	for {
		select {
		case ev := <-c.events:
			if err := c.Apply(ev); err != nil {
				c.log.Error().Err(err).Msg("dropping event during shutdown")
			}
		default:
			c.log.Debug().Int("unfinished", c.Pending()).Msg("controller shut down")
			return
		}
	}
}
