package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gubarz/surveymd/internal/config"
	"github.com/gubarz/surveymd/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch FILE...",
	Short: "Re-check survey files whenever they are saved",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

	p := newParser()
	for _, path := range args {
		_ = checkFile(out, errOut, p, path)
	}

	w, err := watch.New(args, config.GetWatchDebounce(), logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return w.Watch(ctx, func(path string) error {
		// checkFile already printed any parse error
		_ = checkFile(out, errOut, p, path)
		return nil
	})
}
