package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/zeusync/gamecore/internal/config"
	"github.com/zeusync/gamecore/internal/console"
	"github.com/zeusync/gamecore/internal/console/remote"
	"github.com/zeusync/gamecore/internal/core/observability/log"
	"github.com/zeusync/gamecore/internal/injector"
	"github.com/zeusync/gamecore/internal/server"
)

func main() {
	configPath := flag.String("config", "", "yaml file layered over the built-in defaults")
	flag.Parse()

	if err := run(config.Path(*configPath)); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(path config.Path) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts []server.Option
	if term.IsTerminal(int(os.Stdout.Fd())) {
		opts = append(opts, server.WithStatusHook(setTitle))
	}

	app, cleanup, err := injector.InitializeApp(path, opts)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := app.Server
	if err := srv.Start(ctx); err != nil {
		return err
	}

	if app.Config.Console.Enabled {
		restore, err := startConsole(srv, app.Config.Console.Hinted)
		if err != nil {
			app.Logger.Error("Command input unavailable", log.Error(err))
		}
		defer restore()
	}

	g, gctx := errgroup.WithContext(ctx)
	remoteCtx, cancelRemote := context.WithCancel(gctx)
	defer cancelRemote()

	g.Go(func() error {
		select {
		case <-srv.Done():
		case <-gctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				cancelRemote()
				return err
			}
		}
		cancelRemote()
		return srv.Err()
	})

	if addr := app.Config.Remote.Addr; addr != "" {
		g.Go(func() error {
			return remote.Serve(remoteCtx, addr, srv, app.Logger.Named("remote"))
		})
	}

	return g.Wait()
}

// startConsole attaches operator input on stdin. The returned func restores
// the terminal.
func startConsole(srv *server.Server, hinted bool) (func(), error) {
	fd := int(os.Stdin.Fd())
	if !hinted || !term.IsTerminal(fd) {
		return func() {}, srv.StartCommandInput(console.NewPlain(os.Stdin, os.Stdout))
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return func() {}, fmt.Errorf("raw terminal: %w", err)
	}
	restore := func() { _ = term.Restore(fd, state) }

	rw := struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}
	frontEnd := stopOnEOF{FrontEnd: console.NewHinted(rw, srv.ListCommands), stop: srv.Stop}
	if err := srv.StartCommandInput(frontEnd); err != nil {
		restore()
		return func() {}, err
	}
	return restore, nil
}

// stopOnEOF stops the server when the operator closes a raw terminal with
// Ctrl-D, since raw mode swallows Ctrl-C.
type stopOnEOF struct {
	console.FrontEnd
	stop func()
}

func (s stopOnEOF) ReadLine() (string, error) {
	line, err := s.FrontEnd.ReadLine()
	if errors.Is(err, io.EOF) {
		s.stop()
	}
	return line, err
}

func setTitle(status string) {
	fmt.Fprintf(os.Stdout, "\033]0;%s\007", status)
}
