// Package console runs the interactive operator command loop.
package console

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/zeusync/gamecore/internal/core/observability/log"
)

type Executor interface {
	Execute(command string) any
}

// FrontEnd reads operator lines and displays results.
type FrontEnd interface {
	ReadLine() (string, error)
	io.Writer
}

type Loop struct {
	exec     Executor
	frontEnd FrontEnd
	logger   log.Log
}

func NewLoop(exec Executor, frontEnd FrontEnd, logger log.Log) *Loop {
	return &Loop{exec: exec, frontEnd: frontEnd, logger: logger}
}

type readResult struct {
	line string
	err  error
}

// Run executes lines until ctx is done or the front end reaches EOF.
//
// Reads happen on a helper goroutine so cancellation never waits on a
// blocked read; that goroutine exits after its pending read returns.
func (l *Loop) Run(ctx context.Context) error {
	next := make(chan struct{})
	lines := make(chan readResult)
	go func() {
		for {
			select {
			case <-next:
			case <-ctx.Done():
				return
			}
			line, err := l.frontEnd.ReadLine()
			select {
			case lines <- readResult{line: line, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case next <- struct{}{}:
		case <-ctx.Done():
			return nil
		}

		var r readResult
		select {
		case r = <-lines:
		case <-ctx.Done():
			return nil
		}

		if r.err != nil {
			if errors.Is(r.err, io.EOF) {
				l.logger.Info("Command input closed")
				return nil
			}
			return fmt.Errorf("read command: %w", r.err)
		}

		if output := l.exec.Execute(r.line); output != nil {
			if err := l.print(output); err != nil {
				return err
			}
		}
	}
}

func (l *Loop) print(output any) error {
	_, err := fmt.Fprintf(l.frontEnd, "< %s\n", Format(output))
	return err
}

// Format renders a command result: strings verbatim, anything else as
// indented JSON.
func Format(output any) string {
	if s, ok := output.(string); ok {
		return s
	}
	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", output)
	}
	return string(data)
}
