package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"example.com/posecoach/internal/replay"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := replay.DefaultConfig("ws://localhost:8085/v1/practice/tree/stream")
	var (
		file    string
		verbose bool
	)

	root := &cobra.Command{
		Use:           "replay",
		Short:         "Stream a recorded keypoint session to a practice endpoint",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.Token == "" {
				cfg.Token = os.Getenv("POSECOACH_TOKEN")
			}

			f, err := os.Open(file)
			if err != nil {
				return err
			}
			frames, err := replay.ParseRecording(f)
			_ = f.Close()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			var opts []replay.Option
			if verbose {
				opts = append(opts, replay.WithMessageHandler(func(raw []byte) {
					_, _ = fmt.Fprintln(out, string(raw))
				}))
			}

			started := time.Now()
			summary, err := replay.NewPlayer(cfg, opts...).Play(ctx, frames)
			_, _ = fmt.Fprintf(out, "frames sent: %d/%d in %s, status updates: %d\n",
				summary.FramesSent, len(frames), time.Since(started).Round(time.Millisecond), summary.StatusUpdates)
			for _, hold := range summary.Holds {
				_, _ = fmt.Fprintf(out, "hold: %s %ds accuracy=%d recorded=%t\n",
					hold.PoseName, hold.HoldTimeSeconds, hold.AccuracyScore, hold.Recorded)
			}
			return err
		},
	}

	flags := root.Flags()
	flags.StringVar(&cfg.URL, "url", cfg.URL, "practice stream URL")
	flags.StringVar(&cfg.Token, "token", "", "bearer token (defaults to $POSECOACH_TOKEN)")
	flags.StringVarP(&file, "file", "f", "", "JSONL recording, one detection per line")
	flags.Float64Var(&cfg.FPS, "fps", cfg.FPS, "frames per second")
	flags.DurationVar(&cfg.DialTimeout, "dial-timeout", cfg.DialTimeout, "total time spent retrying the connection")
	flags.BoolVarP(&verbose, "verbose", "v", false, "print every server message")
	_ = root.MarkFlagRequired("file")
	return root
}
