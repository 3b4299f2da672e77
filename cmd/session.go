package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/tanq16/pulldown/internal/controller"
	"github.com/tanq16/pulldown/internal/output"
	"github.com/tanq16/pulldown/internal/session"
)

// runSession downloads urls with the live table on stdout, reading commands
// from stdin when interactive. It exits with status 1 if any download failed.
func runSession(ctx context.Context, urls []string, interactive, exitWhenDone bool) {
	var in io.Reader
	if interactive {
		in = os.Stdin
	}
	records, err := downloadAll(ctx, urls, in, os.Stdout, exitWhenDone)
	if err != nil {
		output.PrintError(err.Error())
		os.Exit(1)
	}
	for _, rec := range records {
		if rec.Failed {
			output.PrintError("Encountered failed download(s)")
			os.Exit(1)
		}
	}
}

func downloadAll(ctx context.Context, urls []string, in io.Reader, out io.Writer, exitWhenDone bool) ([]controller.Record, error) {
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("error creating download directory: %w", err)
	}
	ctrl := controller.New(ctx, cfg.TransferConfig())
	s := session.New(ctrl, output.NewRenderer(out), session.Options{
		Refresh:      cfg.Refresh,
		ExitWhenDone: exitWhenDone,
		Input:        in,
	})
	if err := s.Run(ctx, urls); err != nil {
		return ctrl.Records(), err
	}
	return ctrl.Records(), nil
}
