package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/tanq16/pulldown/internal/controller"
	"github.com/tanq16/pulldown/internal/output"
	"github.com/tanq16/pulldown/internal/transfer"
	"github.com/tanq16/pulldown/internal/utils"
	"golang.org/x/sync/errgroup"
)

const DefaultRefresh = 250 * time.Millisecond

type Options struct {
	Refresh time.Duration
	// ExitWhenDone ends the session once no download is left running.
	ExitWhenDone bool
	// Input is read line by line for commands; nil disables commands.
	Input io.Reader
}

// Session drives a controller: it drains status events into the registry,
// executes input commands and redraws the table on a ticker.
type Session struct {
	ctrl     *controller.Controller
	renderer *output.Renderer
	opts     Options
	selected atomic.Uint64
	noticeMu sync.Mutex
	notice   string
	log      zerolog.Logger
}

func New(ctrl *controller.Controller, renderer *output.Renderer, opts Options) *Session {
	if opts.Refresh <= 0 {
		opts.Refresh = DefaultRefresh
	}
	return &Session{
		ctrl:     ctrl,
		renderer: renderer,
		opts:     opts,
		log:      utils.GetLogger("session"),
	}
}

// Run requests urls, then runs until ctx is cancelled, a quit command is
// read, or ExitWhenDone applies. Invalid urls are skipped with a warning.
// On return every worker has stopped and the summary has been printed.
func (s *Session) Run(ctx context.Context, urls []string) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()
	for _, u := range urls {
		s.add(u)
	}
	if s.opts.Input != nil {
		s.renderer.SetHint(Help)
	}

	lines := make(chan string)
	if s.opts.Input != nil {
		go readLines(ctx, s.opts.Input, lines, s.log)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer stop()
		return s.eventLoop(gctx, lines)
	})
	g.Go(func() error {
		return s.displayLoop(gctx)
	})
	err := g.Wait()

	s.ctrl.Shutdown()
	records := s.ctrl.Records()
	s.renderer.SetHint("")
	s.renderer.Render(records, 0)
	s.renderer.ShowSummary(records)
	if err != nil {
		s.log.Error().Err(err).Msg("session ended with error")
	}
	return err
}

func (s *Session) eventLoop(ctx context.Context, lines <-chan string) error {
	if s.finished() {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-s.ctrl.Events():
			if err := s.ctrl.Apply(ev); err != nil {
				return err
			}
			if s.finished() {
				s.log.Info().Msg("all downloads finished")
				return nil
			}
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			if quit := s.execute(line); quit {
				s.log.Info().Msg("quit requested")
				return nil
			}
		}
	}
}

func (s *Session) displayLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.Refresh)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.renderer.SetHint(s.hint())
			s.renderer.Render(s.ctrl.Records(), transfer.ID(s.selected.Load()))
		case <-ctx.Done():
			return nil
		}
	}
}

func (s *Session) finished() bool {
	return s.opts.ExitWhenDone && s.ctrl.Pending() == 0
}

// execute runs one input line and reports whether the session should end.
func (s *Session) execute(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	cmd, err := parseCommand(line)
	if err != nil {
		s.setNotice(err.Error())
		return false
	}
	switch cmd.op {
	case opQuit:
		return true
	case opAdd:
		s.add(cmd.url)
		return false
	case opNext:
		s.moveSelection(1)
		return false
	case opPrev:
		s.moveSelection(-1)
		return false
	}

	id := cmd.id
	if id == 0 {
		id = transfer.ID(s.selected.Load())
	}
	if id == 0 {
		s.setNotice("no download selected")
		return false
	}
	switch cmd.op {
	case opToggle:
		err = s.ctrl.Toggle(id)
	case opPause:
		err = s.ctrl.Pause(id)
	case opResume:
		err = s.ctrl.Resume(id)
	case opCancel:
		err = s.ctrl.Cancel(id)
	}
	if err != nil {
		s.setNotice(err.Error())
		return false
	}
	s.setNotice("")
	return false
}

func (s *Session) add(rawURL string) {
	id, err := s.ctrl.Request(rawURL)
	if err != nil {
		s.log.Warn().Err(err).Str("url", rawURL).Msg("skipping download")
		s.setNotice(fmt.Sprintf("skipped %s: %v", rawURL, err))
		return
	}
	s.selected.CompareAndSwap(0, uint64(id))
	s.setNotice("")
}

// moveSelection steps the cursor through records in request order.
func (s *Session) moveSelection(delta int) {
	records := s.ctrl.Records()
	if len(records) == 0 {
		return
	}
	current := transfer.ID(s.selected.Load())
	idx := 0
	for i, rec := range records {
		if rec.ID == current {
			idx = i
			break
		}
	}
	idx = max(0, min(idx+delta, len(records)-1))
	s.selected.Store(uint64(records[idx].ID))
}

func (s *Session) Selected() transfer.ID {
	return transfer.ID(s.selected.Load())
}

func (s *Session) setNotice(msg string) {
	s.noticeMu.Lock()
	defer s.noticeMu.Unlock()
	s.notice = msg
}

func (s *Session) hint() string {
	if s.opts.Input == nil {
		return ""
	}
	s.noticeMu.Lock()
	defer s.noticeMu.Unlock()
	if s.notice == "" {
		return Help
	}
	return Help + "  " + output.FWarning(s.notice)
}

// readLines forwards input lines until EOF or ctx is cancelled. A read that
// is blocked on a terminal keeps the goroutine alive until the next line.
func readLines(ctx context.Context, r io.Reader, lines chan<- string, log zerolog.Logger) {
	defer close(lines)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		select {
		case lines <- scanner.Text():
		case <-ctx.Done():
			return
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.ErrClosedPipe) {
		log.Warn().Err(err).Msg("input closed")
	}
}
