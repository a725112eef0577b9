package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/arloliu/smartplot/capture"
	"github.com/arloliu/smartplot/transport"
)

type replayOptions struct {
	to string
}

func newReplayCommand(a *app) *cobra.Command {
	opts := replayOptions{}

	cmd := &cobra.Command{
		Use:   "replay <capture-file>",
		Short: "Print a capture file or send it to a plotter again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), a, cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.to, "to", "", "plotter host:port or ws:// URL to re-send frames to")

	return cmd
}

func runReplay(ctx context.Context, a *app, out io.Writer, path string, opts replayOptions) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := capture.NewReader(f)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	codec := r.Codec()

	var link *transport.Link
	if opts.to != "" {
		target := *a.cfg
		target.Addr = opts.to
		link = transport.NewLink(target.Dialer(),
			transport.WithName("replay"),
			transport.WithLinkLogger(a.logger),
			transport.WithLinkCodec(codec),
		)
		defer link.Close()
	}

	frames := 0
	for frame, err := range r.Frames() {
		if err != nil {
			return fmt.Errorf("frame %d of %s: %w", frames, path, err)
		}
		frames++

		if link != nil {
			if err := link.Send(ctx, frame); err != nil {
				return err
			}

			continue
		}

		for msg, err := range codec.Split(frame) {
			if err != nil {
				return fmt.Errorf("frame %d of %s: %w", frames, path, err)
			}
			fmt.Fprintln(out, describe(codec.Engine(), msg))
		}
	}

	a.logger.Info("replay done", "path", path, "frames", frames, "compression", r.Header().Compression)

	return nil
}
