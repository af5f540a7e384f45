package console

import (
	"io"
	"os"

	"github.com/schollz/progressbar/v3"

	"github.com/born-ml/rlconvert/internal/convert"
)

// Progress shows a bar advancing once per written artifact.
type Progress struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

var _ convert.Observer = (*Progress)(nil)

// NewProgress returns a progress bar writing to w.
func NewProgress(w io.Writer) *Progress {
	return &Progress{w: w}
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	st, err := f.Stat()
	return err == nil && st.Mode()&os.ModeCharDevice != 0
}

// Begin implements convert.Observer.
func (p *Progress) Begin(total int) {
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.w),
		// Same value as progressbar.ThemeASCII (added in v3.17, which needs Go 1.22).
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: ".",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionSetDescription("writing"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionOnCompletion(func() { _, _ = io.WriteString(p.w, "\n") }),
	)
}

// Written implements convert.Observer.
func (p *Progress) Written(a convert.Artifact) {
	if p.bar == nil {
		return
	}
	p.bar.Describe(a.Name)
	_ = p.bar.Add(1)
}
