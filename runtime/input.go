package runtime

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// Prompter shows a prompt and reads one line of input without its line
// ending.  It returns io.EOF once the input is exhausted.  *liner.State
// satisfies it, which is what the interactive REPL hands the runtime.
type Prompter interface {
	Prompt(prompt string) (string, error)
}

// ReaderPrompter is a Prompter over a plain reader, used for piped input
// and in tests.
type ReaderPrompter struct {
	Out io.Writer
	In  *bufio.Reader
}

// NewReaderPrompter reads lines from in and writes prompts to out.  A nil
// out drops prompts.
func NewReaderPrompter(in io.Reader, out io.Writer) *ReaderPrompter {
	return &ReaderPrompter{Out: out, In: bufio.NewReader(in)}
}

func (p *ReaderPrompter) Prompt(prompt string) (string, error) {
	if prompt != "" && p.Out != nil {
		if _, err := io.WriteString(p.Out, prompt); err != nil {
			return "", err
		}
	}
	line, err := p.In.ReadString('\n')
	// A last line without a newline still counts
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
