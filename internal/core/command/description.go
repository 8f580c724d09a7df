package command

import (
	"fmt"
	"strings"
)

const descriptionRule = "------------------------"

// Description documents a command for the `?` help surface.
type Description struct {
	Name        string
	Description string
	ReturnType  string
	Parameters  []Param
}

type Param struct {
	Name        string
	ValueType   string
	Description string
}

// Signature renders `<ReturnType> <Name>(<Type Name, ...>)`.
func (d Description) Signature() string {
	params := make([]string, len(d.Parameters))
	for i, p := range d.Parameters {
		params[i] = p.ValueType + " " + p.Name
	}
	return fmt.Sprintf("%s %s(%s)", d.ReturnType, d.Name, strings.Join(params, ", "))
}

// String renders the bordered help block shown by `?<name>`.
func (d Description) String() string {
	params := make([]string, len(d.Parameters))
	for i, p := range d.Parameters {
		params[i] = p.String()
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(descriptionRule + "\n")
	b.WriteString(d.Signature() + "\n")
	b.WriteString("- Description: " + d.Description + "\n")
	b.WriteString(descriptionRule + "\n")
	b.WriteString("Parameters:\n")
	b.WriteString(strings.Join(params, "\n\n") + "\n")
	b.WriteString(descriptionRule)
	return b.String()
}

func (p Param) String() string {
	return fmt.Sprintf("%s %s\n- Description: %s", p.ValueType, p.Name, p.Description)
}
