package seat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/colorprofile"
	"golang.org/x/term"

	"github.com/ehrlich-b/dixjudge/internal/wire"
)

// seatColors cycles a small ANSI palette across seat indices so a human
// watching a mixed terminal/bot table can tell seats apart at a glance;
// colorprofile downgrades these automatically on a dumb terminal or when
// NO_COLOR is set.
var seatColors = [4]string{"\x1b[36m", "\x1b[33m", "\x1b[35m", "\x1b[32m"}

const ansiReset = "\x1b[0m"

// Terminal is the human-facing seat: send prints a prefixed line to the
// console, receive blocks on one line of stdin, close is a no-op.
type Terminal struct {
	index int

	mu  sync.Mutex
	out *colorprofile.Writer

	scanMu  sync.Mutex
	scanner *bufio.Scanner
}

// NewTerminal builds a terminal seat reading from in and writing to out.
// Passing os.Stdin/os.Stdout lets colorprofile and golang.org/x/term
// detect whether out is an interactive TTY worth coloring.
func NewTerminal(index int, in io.Reader, out *os.File) *Terminal {
	cw := colorprofile.NewWriter(out, os.Environ())
	if !term.IsTerminal(int(out.Fd())) {
		cw.Profile = colorprofile.NoTTY
	}
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)
	return &Terminal{index: index, out: cw, scanner: scanner}
}

func (t *Terminal) String() string {
	return fmt.Sprintf("seat %d: terminal", t.index)
}

func (t *Terminal) Send(ctx context.Context, cmd wire.Command) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	prefix := seatColors[t.index%len(seatColors)]
	_, err := fmt.Fprintf(t.out, "%s[seat %d]%s %s\n", prefix, t.index, ansiReset, wire.WriteCommand(cmd))
	return err
}

func (t *Terminal) Receive(ctx context.Context) (string, error) {
	t.scanMu.Lock()
	defer t.scanMu.Unlock()
	if !t.scanner.Scan() {
		if err := t.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return t.scanner.Text(), nil
}

func (t *Terminal) Communicate(ctx context.Context, cmd wire.Command) (string, error) {
	return communicate(ctx,
		func(ctx context.Context) error { return t.Send(ctx, cmd) },
		t.Receive,
	)
}

func (t *Terminal) Close() error { return nil }
