package command

import (
	"fmt"
	"strings"
)

// Method declares one command exposed by a unit.
//
// Command is the current declaration form. RegisteredCommand is the older
// form and behaves identically; when both are set, Command wins.
type Method struct {
	Command string
	// Deprecated: set Command instead.
	RegisteredCommand string

	Description string
	Params      []ParamDoc
	Callable    Callable
}

// ParamDoc names and documents one positional parameter.
type ParamDoc struct {
	Name        string
	Description string
}

// Provider is implemented by units that expose commands.
type Provider interface {
	Commands() []Method
}

// New declares a command in the current form.
func New(name string, c Callable) Method {
	return Method{Command: name, Callable: c}
}

// Registered declares a command in the deprecated form.
//
// Deprecated: use New.
func Registered(name string, c Callable) Method {
	return Method{RegisteredCommand: name, Callable: c}
}

func (m Method) Doc(description string) Method {
	m.Description = description
	return m
}

func (m Method) Param(name, description string) Method {
	m.Params = append(append([]ParamDoc(nil), m.Params...), ParamDoc{Name: name, Description: description})
	return m
}

// Name resolves the command name and whether the deprecated form supplied it.
func (m Method) Name() (name string, deprecated bool) {
	if m.Command != "" {
		return m.Command, false
	}
	return m.RegisteredCommand, m.RegisteredCommand != ""
}

// Describe builds the Description indexed for introspection.
func (m Method) Describe() (Description, error) {
	name, _ := m.Name()
	if strings.TrimSpace(name) == "" {
		return Description{}, fmt.Errorf("%w: missing name", ErrInvalidCommand)
	}
	if m.Callable.Handler == nil {
		return Description{}, fmt.Errorf("%w: %s has no handler", ErrInvalidCommand, name)
	}

	returnType := m.Callable.ReturnType
	if returnType == "" {
		returnType = voidType
	}
	d := Description{Name: name, Description: m.Description, ReturnType: returnType}

	for i, valueType := range m.Callable.ParamTypes {
		p := Param{Name: fmt.Sprintf("arg%d", i+1), ValueType: valueType}
		if i < len(m.Params) {
			p.Name = m.Params[i].Name
			p.Description = m.Params[i].Description
		}
		d.Parameters = append(d.Parameters, p)
	}
	return d, nil
}
