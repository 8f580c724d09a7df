package console

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

const prompt = "> "

// Plain is a line-buffered front end without editing support.
type Plain struct {
	in  *bufio.Reader
	out io.Writer
}

func NewPlain(in io.Reader, out io.Writer) *Plain {
	return &Plain{in: bufio.NewReader(in), out: out}
}

func (p *Plain) ReadLine() (string, error) {
	if _, err := io.WriteString(p.out, prompt); err != nil {
		return "", err
	}
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (p *Plain) Write(b []byte) (int, error) {
	return p.out.Write(b)
}
