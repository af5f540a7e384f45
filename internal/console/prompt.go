package console

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/born-ml/rlconvert/internal/convert"
)

// Prompt texts.
const (
	ModePrompt   = "Enter mode ('to_cpp' or 'to_python'): "
	FolderPrompt = "Select the folder containing your checkpoint files..."
	NoFolderMsg  = "No folder selected. Exiting."
)

// Prompter asks the operator for the conversion mode and source folder.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter reads answers from in and writes prompts to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Mode asks for a mode until a valid token is entered. It only fails when
// the input ends.
func (p *Prompter) Mode() (convert.Mode, error) {
	for {
		fmt.Fprint(p.out, ModePrompt)
		line, err := p.readLine()
		if line != "" {
			if mode, parseErr := convert.ParseMode(line); parseErr == nil {
				return mode, nil
			}
		}
		if err != nil {
			return 0, errors.Wrap(err, "no mode entered")
		}
	}
}

// Folder asks for the source folder. An empty answer, or the end of the
// input, returns "".
func (p *Prompter) Folder() (string, error) {
	fmt.Fprintln(p.out, FolderPrompt)
	line, err := p.readLine()
	if err != nil && err != io.EOF {
		return "", errors.Wrap(err, "reading folder")
	}
	return line, nil
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	return strings.TrimSpace(line), err
}
