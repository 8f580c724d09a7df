package console

import (
	"io"
	"strings"

	"golang.org/x/term"
)

// Hinted is a raw-terminal front end with history and Tab completion over
// command names. The caller puts the terminal into raw mode.
type Hinted struct {
	terminal *term.Terminal
	names    func() []string
}

func NewHinted(rw io.ReadWriter, names func() []string) *Hinted {
	h := &Hinted{terminal: term.NewTerminal(rw, prompt), names: names}
	h.terminal.AutoCompleteCallback = h.complete
	return h
}

func (h *Hinted) ReadLine() (string, error) {
	return h.terminal.ReadLine()
}

func (h *Hinted) Write(b []byte) (int, error) {
	return h.terminal.Write(b)
}

func (h *Hinted) complete(line string, pos int, key rune) (string, int, bool) {
	if key != '\t' {
		return "", 0, false
	}
	suggestion, ok := Suggest(h.names(), line[:pos])
	if !ok {
		return "", 0, false
	}
	return suggestion + line[pos:], len(suggestion), true
}

// Suggest returns the first name that extends prefix.
func Suggest(names []string, prefix string) (string, bool) {
	if prefix == "" {
		return "", false
	}
	for _, name := range names {
		if len(name) > len(prefix) && strings.HasPrefix(name, prefix) {
			return name, true
		}
	}
	return "", false
}
