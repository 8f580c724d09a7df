// Package debugger provides the built-in component that measures the live
// tick rate and exposes it on the status line and as commands.
package debugger

import (
	"fmt"
	"math"
	"sync"

	"github.com/zeusync/gamecore/internal/core/command"
	"github.com/zeusync/gamecore/internal/core/events/bus"
	"github.com/zeusync/gamecore/internal/core/observability/log"
	"github.com/zeusync/gamecore/internal/core/unit"
)

// EventWindow carries a Window each time a full averaging window completes.
const EventWindow = "debugger.window"

// Window summarizes one second worth of ticks.
type Window struct {
	Sequence     uint64
	TPS          int
	AverageDelta float64
}

type Debugger struct {
	unit.BaseComponent

	mu        sync.RWMutex
	deltas    []float64
	filled    int
	cursor    int
	sequence  uint64
	variables map[string]any
}

var (
	_ unit.Component   = (*Debugger)(nil)
	_ command.Provider = (*Debugger)(nil)
)

func New() *Debugger {
	return &Debugger{variables: make(map[string]any)}
}

func (d *Debugger) Initialize(host unit.Host) error {
	if err := d.BaseComponent.Initialize(host); err != nil {
		return err
	}
	d.mu.Lock()
	d.deltas = make([]float64, host.TickRate())
	if d.variables == nil {
		d.variables = make(map[string]any)
	}
	d.mu.Unlock()

	host.SetStatus("Starting")
	return nil
}

func (d *Debugger) Shutdown() error {
	if host := d.Host(); host != nil {
		host.SetStatus("Shutting Down")
	}
	return nil
}

func (d *Debugger) Tick(deltaTime float64) {
	d.mu.Lock()
	d.deltas[d.cursor] = deltaTime
	d.cursor++
	if d.filled < len(d.deltas) {
		d.filled++
	}
	if d.cursor < len(d.deltas) {
		d.mu.Unlock()
		return
	}
	d.cursor = 0
	d.sequence++
	window := Window{Sequence: d.sequence, AverageDelta: d.averageLocked()}
	window.TPS = ratePerSecond(window.AverageDelta)
	d.mu.Unlock()

	host := d.Host()
	host.SetStatus(fmt.Sprintf("Online - TPS: %d - DeltaTime: %.4f", window.TPS, window.AverageDelta))
	if err := host.Events().Publish(bus.NewEvent(EventWindow, "debugger", window)); err != nil {
		d.Logger().Warn("Window subscriber failed", log.Error(err))
	}
}

// TPS is the tick rate measured over the current window.
func (d *Debugger) TPS() int {
	return ratePerSecond(d.DeltaTime())
}

// DeltaTime is the average delta over the current window, in seconds.
func (d *Debugger) DeltaTime() float64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.averageLocked()
}

func (d *Debugger) SetVariable(name string, value any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.variables[name] = value
}

func (d *Debugger) GetVariable(name string) any {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.variables[name]
}

func (d *Debugger) Commands() []command.Method {
	return []command.Method{
		command.Registered("tps", command.Func0(d.TPS)).
			Doc("Ticks per second measured over the last window."),
		command.Registered("deltaTime", command.Func0(d.DeltaTime)).
			Doc("Average seconds between ticks over the last window."),
		command.New("setVariable", command.Action2(d.SetVariable)).
			Doc("Stores a debugger variable.").
			Param("name", "Variable name.").
			Param("value", "Any script value."),
		command.New("getVariable", command.Func1(d.GetVariable)).
			Doc("Reads a debugger variable, nil when unset.").
			Param("name", "Variable name."),
	}
}

func (d *Debugger) averageLocked() float64 {
	if d.filled == 0 {
		return 0
	}
	sum := 0.0
	for _, dt := range d.deltas[:d.filled] {
		sum += dt
	}
	return sum / float64(d.filled)
}

func ratePerSecond(averageDelta float64) int {
	if averageDelta <= 0 {
		return 0
	}
	return int(math.Round(1 / averageDelta))
}
