package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword reads a password without echo when stdin is a terminal, and
// a single line otherwise.
func readPassword(streams IO, prompt string) (string, error) {
	if f, ok := streams.Stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(streams.Stderr, prompt)
		pw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(streams.Stderr)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(pw), nil
	}
	if streams.Stdin == nil {
		return "", nil
	}
	line, err := bufio.NewReader(streams.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// printOpener shows the checkout link instead of launching a browser.
type printOpener struct {
	w io.Writer
}

func (o printOpener) Open(_ context.Context, url string) error {
	_, err := fmt.Fprintf(o.w, "Complete your purchase in the browser:\n  %s\n", url)
	return err
}
