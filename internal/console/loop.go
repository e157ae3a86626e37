package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// ErrQuit is returned by a CommandHandler to end the loop.
var ErrQuit = errors.New("quit")

// CommandHandler is called for each line the user enters. The reply, if any, is printed.
type CommandHandler func(ctx context.Context, command string) (string, error)

// Output serializes writes from the command loop and from background updates.
type Output struct {
	mu sync.Mutex
	w  io.Writer
}

func NewOutput(w io.Writer) *Output {
	return &Output{w: w}
}

// Print writes s followed by a newline if it lacks one.
func (o *Output) Print(s string) {
	if s == "" {
		return
	}
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	io.WriteString(o.w, s)
}

// Run reads commands from in until EOF, ErrQuit or ctx cancellation. Blank lines are
// ignored. A handler error other than ErrQuit is printed and the loop continues.
func Run(ctx context.Context, in io.Reader, out *Output, handler CommandHandler, log *zap.SugaredLogger) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Infof("console stopped")
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("read input: %w", err)
					}
				default:
				}
				log.Infof("console input closed")
				return nil
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}
			log.Debugf("received command: %s", text)
			reply, err := handler(ctx, text)
			if errors.Is(err, ErrQuit) {
				out.Print(reply)
				return nil
			}
			if err != nil {
				out.Print(FormatError(err))
				continue
			}
			out.Print(reply)
		}
	}
}
