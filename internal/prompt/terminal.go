// =============================================================================
// Abstract Preprocessor - Operator Prompts
// =============================================================================
//
// Implementations of resolver.Prompter:
//   - Terminal : asks the operator on stdin/stdout
//   - Scripted : answers from a YAML file, for unattended runs
//
// Typing "-" or "skip" at the terminal leaves the field unresolved; it is
// then reported in the issue's problems file.
//
// =============================================================================

package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/ginjaninja78/abstract-preprocessor/internal/resolver"
)

var (
	questionColor = color.New(color.FgCyan, color.Bold)
	hintColor     = color.New(color.Faint)
	warnColor     = color.New(color.FgYellow)
)

// Terminal prompts on a line-oriented reader/writer pair.
// Once the input is exhausted every further question is skipped.
type Terminal struct {
	in     *bufio.Reader
	out    io.Writer
	closed bool
}

// NewTerminal creates a Terminal prompter.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out}
}

// RequestValue implements resolver.Prompter.
func (t *Terminal) RequestValue(req resolver.Request) (resolver.Response, error) {
	if req.Reason != "" {
		warnColor.Fprintf(t.out, "  %s\n", req.Reason)
	}

	for {
		t.printQuestion(req)

		line, ok, err := t.readLine()
		if err != nil {
			return resolver.Response{}, err
		}
		if !ok || isSkip(line) {
			return resolver.Response{Skip: true}, nil
		}
		if line == "" {
			if req.Previous != "" && req.Reason == "" {
				return resolver.Response{Value: req.Previous}, nil
			}
			continue
		}
		return resolver.Response{Value: line}, nil
	}
}

// OfferPersist implements resolver.Prompter.
func (t *Terminal) OfferPersist(journalID, field, value string) (bool, error) {
	return t.confirm(fmt.Sprintf("Save %q as the default %s for journal %s?", value, field, journalID))
}

// ConfirmSave implements resolver.Prompter.
func (t *Terminal) ConfirmSave(journalID string) (bool, error) {
	return t.confirm(fmt.Sprintf("Save these settings for journal %s?", journalID))
}

func (t *Terminal) printQuestion(req resolver.Request) {
	scope := req.JournalID
	if req.RecordID != "" {
		scope = req.RecordID
	}

	questionColor.Fprintf(t.out, "[%s] %s", scope, req.Question)
	switch {
	case req.Kind == resolver.AnswerYesNo:
		hintColor.Fprint(t.out, " [y/n]")
	case req.Previous != "" && req.Reason == "":
		hintColor.Fprintf(t.out, " [Enter = %s]", req.Previous)
	}
	hintColor.Fprint(t.out, " (- to skip)")
	fmt.Fprint(t.out, ": ")
}

func (t *Terminal) confirm(question string) (bool, error) {
	questionColor.Fprintf(t.out, "%s", question)
	hintColor.Fprint(t.out, " [y/N]")
	fmt.Fprint(t.out, ": ")

	line, ok, err := t.readLine()
	if err != nil || !ok {
		return false, err
	}
	switch strings.ToLower(line) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// readLine returns the next trimmed line. ok is false once the input is
// exhausted.
func (t *Terminal) readLine() (string, bool, error) {
	if t.closed {
		return "", false, nil
	}

	line, err := t.in.ReadString('\n')
	if errors.Is(err, io.EOF) {
		t.closed = true
		fmt.Fprintln(t.out)
		if strings.TrimSpace(line) == "" {
			return "", false, nil
		}
		return strings.TrimSpace(line), true, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read answer: %w", err)
	}
	return strings.TrimSpace(line), true, nil
}

func isSkip(answer string) bool {
	return answer == "-" || strings.EqualFold(answer, "skip")
}
