package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/arloliu/smartplot/capture"
	"github.com/arloliu/smartplot/message"
)

type listenOptions struct {
	addr   string
	ws     bool
	path   string
	record string
	quiet  bool
}

func newListenCommand(a *app) *cobra.Command {
	opts := listenOptions{}

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Receive plot messages and print or record them",
		Long: `listen accepts plot streams over TCP, or WebSocket with --ws, and prints
one line per message. With --record every received frame is appended to a
capture file that replay can read back.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runListen(cmd.Context(), a, cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "listen", ":2000", "address to listen on")
	cmd.Flags().BoolVar(&opts.ws, "ws", false, "accept WebSocket connections instead of raw TCP")
	cmd.Flags().StringVar(&opts.path, "path", "/", "WebSocket endpoint path")
	cmd.Flags().StringVar(&opts.record, "record", "", "capture file to append received frames to")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "do not print messages")

	return cmd
}

func runListen(ctx context.Context, a *app, out io.Writer, opts listenOptions) error {
	r := &receiver{codec: message.Native(), logger: a.logger}
	if !opts.quiet {
		r.out = out
	}

	if opts.record != "" {
		ct, err := a.cfg.CompressionType()
		if err != nil {
			return err
		}
		w, err := capture.Create(opts.record, capture.WithCompression(ct))
		if err != nil {
			return err
		}
		defer func() {
			if err := w.Close(); err != nil {
				a.logger.Error("close capture", "path", opts.record, "error", err)
			}
		}()
		r.rec = w
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", opts.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", opts.addr, err)
	}

	a.logger.Info("listening", "addr", ln.Addr().String(), "websocket", opts.ws)

	if opts.ws {
		err = serveWebSocket(ctx, ln, opts.path, r)
	} else {
		err = serveTCP(ctx, ln, r)
	}

	frames, messages := r.stats()
	a.logger.Info("receiver stopped", "frames", frames, "messages", messages)

	return err
}

// receiver handles frames from every plotter connection.
type receiver struct {
	mu       sync.Mutex
	codec    *message.Codec
	out      io.Writer
	rec      *capture.Writer
	logger   *slog.Logger
	maxFrame int // zero selects message.DefaultMaxFrameSize
	frames   int
	messages int
}

func (r *receiver) handle(frame []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.frames++
	if r.rec != nil {
		if err := r.rec.Record(frame); err != nil {
			return err
		}
	}

	for msg, err := range r.codec.Split(frame) {
		if err != nil {
			return err
		}
		r.messages++
		if r.out != nil {
			fmt.Fprintln(r.out, describe(r.codec.Engine(), msg))
		}
	}

	return nil
}

func (r *receiver) frameLimit() int {
	if r.maxFrame <= 0 {
		return message.DefaultMaxFrameSize
	}

	return r.maxFrame
}

func (r *receiver) stats() (frames, messages int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.frames, r.messages
}

// serveTCP reads frames from every accepted connection until ctx is done.
func serveTCP(ctx context.Context, ln net.Listener, r *receiver) error {
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	var g errgroup.Group
	for {
		conn, err := ln.Accept()
		if err != nil {
			_ = g.Wait()
			if ctx.Err() != nil {
				return nil
			}

			return err
		}

		g.Go(func() error {
			r.readStream(ctx, conn)
			return nil
		})
	}
}

func (r *receiver) readStream(ctx context.Context, conn net.Conn) {
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	defer conn.Close()

	remote := conn.RemoteAddr().String()
	r.logger.Debug("plotter connection opened", "remote", remote)

	for {
		frame, err := r.codec.ReadFrame(conn, r.maxFrame)
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				r.logger.Warn("read frame", "remote", remote, "error", err)
			}
			r.logger.Debug("plotter connection closed", "remote", remote)

			return
		}
		if err := r.handle(frame); err != nil {
			r.logger.Warn("bad frame", "remote", remote, "error", err)
		}
	}
}

// serveWebSocket accepts WebSocket connections on path; each binary message
// is one frame.
func serveWebSocket(ctx context.Context, ln net.Listener, path string, r *receiver) error {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  64 << 10,
		WriteBufferSize: 1 << 10,
		CheckOrigin: func(*http.Request) bool {
			return true
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, req *http.Request) {
		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			r.logger.Warn("websocket upgrade", "remote", req.RemoteAddr, "error", err)
			return
		}

		r.readMessages(ctx, conn)
	})

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	})
	defer stop()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (r *receiver) readMessages(ctx context.Context, conn *websocket.Conn) {
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	defer conn.Close()

	conn.SetReadLimit(int64(r.frameLimit()))

	remote := conn.RemoteAddr().String()
	for {
		typ, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) && ctx.Err() == nil {
				r.logger.Debug("websocket read", "remote", remote, "error", err)
			}

			return
		}
		if typ != websocket.BinaryMessage {
			continue
		}
		if err := r.handle(data); err != nil {
			r.logger.Warn("bad frame", "remote", remote, "error", err)
		}
	}
}
