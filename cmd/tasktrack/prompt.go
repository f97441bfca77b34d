package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter() *prompter {
	return &prompter{in: bufio.NewReader(os.Stdin), out: os.Stdout}
}

func (p *prompter) line(label string) (string, error) {
	fmt.Fprint(p.out, label)
	value, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || value == "") {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.ToLower(label), ": "), err)
	}
	return strings.TrimSpace(value), nil
}

// password reads without echo when stdin is a terminal and falls back to a
// plain line for piped input.
func (p *prompter) password(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return p.line(label)
	}

	fmt.Fprint(p.out, label)
	value, err := term.ReadPassword(fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(value), nil
}
