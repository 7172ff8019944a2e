// Package prompt asks the operator questions on a line-oriented terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrInputClosed is returned when input ends before an answer is given.
var ErrInputClosed = errors.New("input closed")

// Prompter reads answers from in and writes questions to out.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// New returns a Prompter over in and out.
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(p.out)
			return "", ErrInputClosed
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Ask prints question and returns the trimmed answer, or def when the answer
// is empty. A non-empty def is shown in brackets.
func (p *Prompter) Ask(question, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", question, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", question)
	}
	answer, err := p.readLine()
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// Confirm asks a yes/no question. Only an explicit "n"/"no" declines when
// defYes is set, and only "y"/"yes" accepts otherwise.
func (p *Prompter) Confirm(question string, defYes bool) (bool, error) {
	hint := "[y/N]"
	if defYes {
		hint = "[Y/n]"
	}
	fmt.Fprintf(p.out, "%s %s: ", question, hint)
	answer, err := p.readLine()
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	default:
		return defYes, nil
	}
}

// Choose asks for a number between 1 and n until a valid one is given. An
// empty answer selects def. It returns the zero-based index.
func (p *Prompter) Choose(question string, n, def int) (int, error) {
	if n < 1 {
		return 0, errors.New("nothing to choose from")
	}
	for {
		answer, err := p.Ask(question, strconv.Itoa(def))
		if err != nil {
			return 0, err
		}
		choice, err := strconv.Atoi(answer)
		if err != nil {
			fmt.Fprintln(p.out, "Please enter a valid number")
			continue
		}
		if choice < 1 || choice > n {
			fmt.Fprintf(p.out, "Please enter a number between 1 and %d\n", n)
			continue
		}
		return choice - 1, nil
	}
}

// Println writes a line to the prompt's output.
func (p *Prompter) Println(a ...any) {
	fmt.Fprintln(p.out, a...)
}

// Printf writes formatted text to the prompt's output.
func (p *Prompter) Printf(format string, a ...any) {
	fmt.Fprintf(p.out, format, a...)
}

// Out is the writer questions are printed to.
func (p *Prompter) Out() io.Writer {
	return p.out
}
