// Package telemetry records the debugger's per-window tick measurements to a
// CSV file.
package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/zeusync/gamecore/internal/components/debugger"
	"github.com/zeusync/gamecore/internal/core/events/bus"
	"github.com/zeusync/gamecore/internal/core/inject"
	"github.com/zeusync/gamecore/internal/core/observability/log"
	"github.com/zeusync/gamecore/internal/core/unit"
)

// PerfRecord is one CSV row.
type PerfRecord struct {
	Time      string  `csv:"time"`
	Server    string  `csv:"server"`
	Window    uint64  `csv:"window"`
	TPS       int     `csv:"tps"`
	DeltaTime float64 `csv:"delta_time"`
}

// Recorder is a service appending a PerfRecord per debugger window.
type Recorder struct {
	unit.Base

	// Debugger is injected; without it no windows are produced.
	Debugger *debugger.Debugger

	path string

	mu            sync.Mutex
	file          *os.File
	headerWritten bool
	rows          int
	subscription  bus.Subscription
}

var (
	_ unit.Service      = (*Recorder)(nil)
	_ inject.Injectable = (*Recorder)(nil)
)

func NewRecorder(path string) *Recorder {
	return &Recorder{path: path}
}

func (r *Recorder) Dependencies() []inject.Point {
	return []inject.Point{inject.Slot("Debugger", &r.Debugger)}
}

func (r *Recorder) Initialize(host unit.Host) error {
	if err := r.Base.Initialize(host); err != nil {
		return err
	}
	if r.Debugger == nil {
		r.Logger().Warn("Debugger not available, perf telemetry disabled")
		return nil
	}

	if dir := filepath.Dir(r.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating telemetry directory: %w", err)
		}
	}
	f, err := os.Create(r.path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", r.path, err)
	}
	r.file = f

	sub, err := host.Events().Subscribe(debugger.EventWindow, r.onWindow)
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("subscribing to %s: %w", debugger.EventWindow, err)
	}
	r.subscription = sub

	r.Logger().Info("Recording perf telemetry", log.String("path", r.path))
	return nil
}

func (r *Recorder) Shutdown() error {
	if r.subscription != nil {
		_ = r.subscription.Cancel()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	if err != nil {
		return fmt.Errorf("closing %s: %w", r.path, err)
	}
	r.Logger().Info("Perf telemetry closed", log.Int("rows", r.rows))
	return nil
}

// Rows reports how many records have been written.
func (r *Recorder) Rows() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows
}

func (r *Recorder) onWindow(e bus.Event) error {
	window, ok := e.Data().(debugger.Window)
	if !ok {
		return fmt.Errorf("unexpected %s payload %T", e.Type(), e.Data())
	}
	return r.write(PerfRecord{
		Time:      e.Timestamp().UTC().Format(time.RFC3339Nano),
		Server:    r.Host().Name(),
		Window:    window.Sequence,
		TPS:       window.TPS,
		DeltaTime: window.AverageDelta,
	})
}

func (r *Recorder) write(record PerfRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}

	records := []PerfRecord{record}
	if !r.headerWritten {
		if err := gocsv.Marshal(records, r.file); err != nil {
			return fmt.Errorf("writing perf: %w", err)
		}
		r.headerWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, r.file); err != nil {
			return fmt.Errorf("writing perf: %w", err)
		}
	}
	r.rows++
	return nil
}
