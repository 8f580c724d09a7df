package command

import (
	"fmt"
	"strings"
	"sync"

	"github.com/zeusync/gamecore/internal/core/observability/log"
)

// Interpreter is the scripting runtime commands are exposed to.
type Interpreter interface {
	// Bind makes h callable from scripts under name.
	Bind(name string, h Handler) error
	// Eval runs src and returns its completion value as a host-native value.
	Eval(src string) (any, error)
}

// Bridge exposes registered commands to an Interpreter and runs snippets.
// Calls into the interpreter are serialized.
type Bridge struct {
	mu       sync.Mutex
	registry *Registry
	interp   Interpreter
	logger   log.Log
}

func NewBridge(registry *Registry, interp Interpreter, logger log.Log) *Bridge {
	return &Bridge{registry: registry, interp: interp, logger: logger}
}

func (b *Bridge) Registry() *Registry { return b.registry }

// Register binds handler under name. An empty or duplicate name fails
// before anything is bound and leaves existing bindings untouched.
func (b *Bridge) Register(name string, handler Handler, description *Description) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidCommand)
	}
	if b.registry.Has(name) {
		return fmt.Errorf("%w: %s", ErrDuplicateCommand, name)
	}
	if handler == nil {
		return fmt.Errorf("%w: %s has no handler", ErrInvalidCommand, name)
	}
	if err := b.interp.Bind(name, handler); err != nil {
		return fmt.Errorf("bind %s: %w", name, err)
	}
	return b.registry.Register(name, handler, description)
}

// RegisterMethods registers every command declared by owner. The first
// failure aborts the pass.
func (b *Bridge) RegisterMethods(owner string, methods []Method) error {
	logger := b.logger.With(log.String("unit", owner))
	for _, m := range methods {
		d, err := m.Describe()
		if err != nil {
			return fmt.Errorf("%s: %w", owner, err)
		}
		if _, deprecated := m.Name(); deprecated {
			logger.Warn("Command uses the deprecated RegisteredCommand form", log.String("command", d.Name))
		}
		if err := b.Register(d.Name, m.Callable.Handler, &d); err != nil {
			return fmt.Errorf("%s: %w", owner, err)
		}
		logger.Debug("Registered command", log.String("command", d.Name), log.String("signature", d.Signature()))
	}
	return nil
}

func (b *Bridge) Describe(name string) (Description, bool) {
	return b.registry.Describe(name)
}

func (b *Bridge) List() []string {
	return b.registry.List()
}

// Execute runs one line of operator input. `?` lists commands, `?name`
// shows help, a bare zero-parameter command name is called with no
// arguments, and anything else is evaluated verbatim. Failures of any kind
// yield nil.
func (b *Bridge) Execute(text string) (result any) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Command panicked", log.String("command", text), log.Any("panic", r))
			result = nil
		}
	}()

	if strings.HasPrefix(text, "?") {
		if text == "?" {
			return strings.Join(b.registry.List(), ", ")
		}
		name := strings.TrimSpace(text[1:])
		if d, ok := b.registry.Describe(name); ok {
			return d.String()
		}
		return fmt.Sprintf("Unable to find help for command '%s'", name)
	}

	if b.registry.IsZeroArg(text) {
		text += "();"
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	value, err := b.interp.Eval(text)
	if err != nil {
		b.logger.Warn("Command failed", log.String("command", text), log.Error(err))
		return nil
	}
	return value
}
