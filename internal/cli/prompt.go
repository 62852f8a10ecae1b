package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
)

// Prompter asks for values on an interactive terminal.
type Prompter struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewPrompter reads answers from in and writes questions to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{reader: bufio.NewReader(in), out: out}
}

// Ask prompts for a value. Returns def if the user enters nothing or input
// cannot be read.
func (p *Prompter) Ask(label, def string) string {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}

	// A final line without a newline still counts.
	input, err := p.reader.ReadString('\n')
	if err != nil && input == "" {
		log.Warn().Err(err).Str("prompt", label).Msg("Failed to read input, using default")
		return def
	}

	input = strings.TrimSpace(input)
	if input == "" {
		return def
	}
	return input
}
