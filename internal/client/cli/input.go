package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shackstack/shackstack/internal/cryptox"
	"golang.org/x/term"
)

// Test seams for the terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

// GetSecret prints prompt to w and reads a line without echo.
func GetSecret(w io.Writer, prompt string) (string, error) {
	if _, err := fmt.Fprint(w, prompt+": "); err != nil {
		return "", err
	}
	b, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	defer cryptox.Wipe(b)
	return strings.TrimSpace(string(b)), nil
}

// GetMultiline prints prompt to w and reads lines until an empty one.
// EOF ends input as well.
func GetMultiline(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprintln(w, prompt); err != nil {
		return "", err
	}

	var lines []string
	for {
		line, err := reader.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if line != "" {
			lines = append(lines, line)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return "", err
		}
		if line == "" {
			break
		}
	}

	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

// parsePayload reads text as JSON, or keeps it as a plain string when it
// is not JSON.
func parsePayload(text string) any {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return text
	}
	return v
}

// printJSON writes v indented when w is a terminal and compact otherwise,
// so output can be piped into other tools.
func printJSON(w io.Writer, v any) error {
	var (
		b   []byte
		err error
	)
	if f, ok := w.(*os.File); ok && isTerminal(int(f.Fd())) {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
