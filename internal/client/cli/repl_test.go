package cli

import (
	"bufio"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	calls []string
	args  [][]string
	err   error
}

func (f *fakeExec) record(name string, args []string) error {
	f.calls = append(f.calls, name)
	f.args = append(f.args, args)
	return f.err
}

func (f *fakeExec) Ping(context.Context) error { return f.record("ping", nil) }
func (f *fakeExec) Create(_ context.Context, args []string) error {
	return f.record("create", args)
}
func (f *fakeExec) Read(_ context.Context, args []string) error { return f.record("read", args) }
func (f *fakeExec) Status(_ context.Context, args []string) error {
	return f.record("status", args)
}
func (f *fakeExec) Update(_ context.Context, args []string) error {
	return f.record("update", args)
}
func (f *fakeExec) List(context.Context) error { return f.record("list", nil) }
func (f *fakeExec) Register(_ context.Context, args []string) error {
	return f.record("register", args)
}
func (f *fakeExec) Orphans(context.Context) error { return f.record("orphans", nil) }
func (f *fakeExec) Token(context.Context) error   { return f.record("token", nil) }

func capturePrintln(t *testing.T) *[]string {
	t.Helper()
	var out []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		parts := make([]string, 0, len(a))
		for _, v := range a {
			if s, ok := v.(string); ok {
				parts = append(parts, s)
			} else if e, ok := v.(error); ok {
				parts = append(parts, e.Error())
			}
		}
		out = append(out, strings.Join(parts, " "))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &out
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	capturePrintln(t)

	input := strings.Join([]string{
		"help",
		"",
		"ping",
		"create 0xabc -plain",
		"read Qm1 -raw",
		"status Qm1",
		"update Qm1 false 0xabc",
		"l",
		"register Qm1 0xabc",
		"orphans",
		"token",
		"exit",
		"list",
	}, "\n")

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "online" }, bufio.NewReader(strings.NewReader(input)))

	assert.Equal(t, []string{
		"ping", "create", "read", "status", "update", "list", "register", "orphans", "token",
	}, exec.calls)
	assert.Equal(t, []string{"0xabc", "-plain"}, exec.args[1])
	assert.Equal(t, []string{"Qm1", "false", "0xabc"}, exec.args[4])
}

func TestRunREPL_UsageAndQuit(t *testing.T) {
	out := capturePrintln(t)

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "s" },
		bufio.NewReader(strings.NewReader("read\nupdate Qm1 true\nfoobar\nquit\n")))

	assert.Empty(t, exec.calls)
	assert.Contains(t, *out, usage["read"].text)
	assert.Contains(t, *out, usage["update"].text)
	assert.Contains(t, *out, "Unknown command: foobar")
	assert.Contains(t, *out, "Bye!")
}

func TestRunREPL_PrintsErrorsAndStopsAtEOF(t *testing.T) {
	out := capturePrintln(t)

	exec := &fakeExec{err: errors.New("boom")}
	// last line has no newline
	runREPL(context.Background(), exec, func() string { return "offline" },
		bufio.NewReader(strings.NewReader("ping\nlist")))

	assert.Equal(t, []string{"ping", "list"}, exec.calls)
	assert.Contains(t, *out, "Error: boom")
	assert.Contains(t, *out, "ss offline > ")
}
