package console

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/born-ml/rlconvert/internal/convert"
	"github.com/born-ml/rlconvert/internal/params"
)

// ResultTable lists the artifacts written by a conversion.
func ResultTable(res *convert.Result) string {
	t := newTable(lipgloss.Left, lipgloss.Right)
	t.headers("Artifact", "Size")
	for _, a := range res.Artifacts {
		t.row(false, a.Name, humanize.Bytes(uint64(a.Size)))
	}
	return t.String()
}

// ShapeTable shows the shapes of the two reconstructed networks.
func ShapeTable(res *convert.Result) string {
	t := newTable(lipgloss.Left, lipgloss.Right, lipgloss.Right, lipgloss.Left)
	t.headers("Network", "Inputs", "Outputs", "Hidden")
	t.row(false, "policy", fmt.Sprint(res.PolicyShape.Inputs), fmt.Sprint(res.PolicyShape.Outputs), hiddenString(res.PolicyShape))
	t.row(false, "value", fmt.Sprint(res.ValueShape.Inputs), fmt.Sprint(res.ValueShape.Outputs), hiddenString(res.ValueShape))
	return t.String()
}

// InspectTable lists the checkpoint files found in a folder.
func InspectTable(entries []convert.Entry) string {
	t := newTable(lipgloss.Left, lipgloss.Left, lipgloss.Right, lipgloss.Left, lipgloss.Right)
	t.headers("File", "Kind", "Size", "Shape", "Parameters")
	for _, e := range entries {
		if !e.Exists {
			continue
		}
		kind := e.Kind
		if e.Compiled {
			kind += " (compiled)"
		}
		size := humanize.Bytes(uint64(e.Size))
		if e.Err != nil {
			t.row(true, e.Name, kind, size, e.Err.Error(), "-")
			continue
		}
		shape := "-"
		if e.Shape != nil {
			shape = fmt.Sprintf("%d → [%s] → %d", e.Shape.Inputs, hiddenString(*e.Shape), e.Shape.Outputs)
		}
		t.row(false, e.Name, kind, size, shape, humanize.Comma(int64(e.Parameters)))
	}
	return t.String()
}

func hiddenString(s params.ShapeDescriptor) string {
	parts := make([]string, len(s.Hidden))
	for i, h := range s.Hidden {
		parts[i] = fmt.Sprint(h)
	}
	return strings.Join(parts, ", ")
}
