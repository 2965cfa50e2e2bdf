package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/itchan-dev/foro/frontend/internal/live"
	"github.com/itchan-dev/foro/frontend/internal/realtime"
	"github.com/itchan-dev/foro/shared/domain"
)

var escucharForum string

// escucharCmd prints realtime reply events
var escucharCmd = &cobra.Command{
	Use:   "escuchar",
	Short: "Print reply events from the realtime channel",
	Long: `Joins the configured realtime channel and prints every reply event
as one JSON line. With --foro only events that would refresh that forum's
page are printed.`,
	Args: cobra.NoArgs,
	RunE: runEscuchar,
}

func init() {
	escucharCmd.Flags().StringVar(&escucharForum, "foro", "", "only print events relevant to this forum id")
}

func runEscuchar(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Public.Realtime.URL == "" {
		return errors.New("realtime.url is not configured")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := realtime.NewHub(cfg.Public.Realtime.EventBuffer)
	client := realtime.NewClient(cfg.Public.Realtime, cfg.RealtimeAPIKey(), hub)
	sub := hub.Subscribe()
	defer sub.Close()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return client.Run(ctx) })
	g.Go(func() error {
		return printEvents(ctx, cmd, sub.Events(), domain.ForumId(escucharForum))
	})
	return g.Wait()
}

func printEvents(ctx context.Context, cmd *cobra.Command, events <-chan domain.ReplyEvent, forumID domain.ForumId) error {
	out := cmd.OutOrStdout()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if !forumID.IsZero() && !live.Relevant(ev, forumID) {
				continue
			}
			line, err := json.Marshal(ev)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(line))
		}
	}
}
