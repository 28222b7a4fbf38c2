// Package console is the interactive terminal front end of the chat.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/smartfinance/smartfinance/internal/chat"
)

const (
	Prompt    = "Consulta... "
	SQLHeader = "🔎 SQL:"
)

// Submitter is the part of chat.Service the console drives.
type Submitter interface {
	NewSession() *chat.Session
	Submit(ctx context.Context, session *chat.Session, input string) (chat.Turn, error)
}

type Options struct {
	In      io.Reader
	Out     io.Writer
	Startup chat.Startup
	// Service may be nil when startup failed; only the status is printed then.
	Service Submitter
}

// Run prints the startup status and the greeting, then answers one line of
// input at a time until EOF, "salir" or context cancellation.
func Run(ctx context.Context, opts Options) error {
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	for _, line := range opts.Startup.Status {
		if _, err := fmt.Fprintln(out, line.Text); err != nil {
			return err
		}
	}
	if opts.Service == nil {
		return nil
	}
	if opts.In == nil {
		return errors.New("console input is required")
	}

	session := opts.Service.NewSession()
	_, _ = fmt.Fprintln(out)
	for _, turn := range session.Turns() {
		writeTurn(out, turn)
	}

	scanner := bufio.NewScanner(opts.In)
	scanner.Buffer(make([]byte, 0, 4096), 64<<10)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, _ = fmt.Fprint(out, Prompt)
		if !scanner.Scan() {
			_, _ = fmt.Fprintln(out)
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if isExit(input) {
			return nil
		}

		turn, err := opts.Service.Submit(ctx, session, input)
		if err != nil {
			if errors.Is(err, chat.ErrEmptyInput) {
				continue
			}
			return fmt.Errorf("submit: %w", err)
		}
		writeTurn(out, turn)
	}
}

func writeTurn(out io.Writer, turn chat.Turn) {
	_, _ = fmt.Fprintln(out, turn.Text)
	if turn.HasSQL() {
		_, _ = fmt.Fprintln(out, SQLHeader)
		_, _ = fmt.Fprintln(out, turn.SQL)
	}
	_, _ = fmt.Fprintln(out)
}

// ExitCommand ends the console loop. Any other input is a question.
const ExitCommand = "salir"

func isExit(input string) bool {
	return strings.EqualFold(input, ExitCommand)
}
