package convert

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/born-ml/rlconvert/internal/onnx"
	"github.com/born-ml/rlconvert/internal/optim"
	"github.com/born-ml/rlconvert/internal/params"
	"github.com/born-ml/rlconvert/internal/serialization"
)

// Entry describes one known checkpoint file in a folder.
type Entry struct {
	Name       string
	Path       string
	Compiled   bool   // POLICY.LT / CRITIC.LT
	Kind       string // serialization.KindPolicy, KindValueNet or KindOptimizer
	Exists     bool
	Size       int64
	Shape      *params.ShapeDescriptor // Networks only
	Parameters int                     // Scalar count for networks, parameter tensors for optimizers
	Err        error                   // Set when the file exists but cannot be read
}

var knownFiles = []struct {
	name     string
	compiled bool
	kind     string
}{
	{PolicyFile, false, serialization.KindPolicy},
	{ValueFile, false, serialization.KindValueNet},
	{PolicyOptimizerFile, false, serialization.KindOptimizer},
	{ValueOptimizerFile, false, serialization.KindOptimizer},
	{CompiledPolicyFile, true, serialization.KindPolicy},
	{CompiledValueFile, true, serialization.KindValueNet},
}

// Inspect reports, for each fixed checkpoint file name, whether it exists in
// dir and what it holds. Unreadable files are reported through Entry.Err.
func Inspect(dir string) ([]Entry, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to os.Stat(%q)", dir)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("%q is not a directory", dir)
	}

	entries := make([]Entry, 0, len(knownFiles))
	for _, f := range knownFiles {
		e := Entry{Name: f.name, Path: filepath.Join(dir, f.name), Compiled: f.compiled, Kind: f.kind}
		if st, err := os.Stat(e.Path); err == nil && !st.IsDir() {
			e.Exists, e.Size = true, st.Size()
			e.Err = describe(&e)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func describe(e *Entry) error {
	if e.Kind == serialization.KindOptimizer {
		s, err := optim.LoadAdamState(e.Path)
		if err != nil {
			return err
		}
		e.Parameters = len(s.ParamNames)
		return nil
	}

	var d *params.Dict
	if e.Compiled {
		m, err := onnx.ReadFile(e.Path)
		if err != nil {
			return err
		}
		if d, err = onnx.Initializers(m); err != nil {
			return err
		}
	} else {
		f, err := serialization.ReadFile(e.Path)
		if err != nil {
			return err
		}
		d = f.Tensors
	}

	shape, err := params.InferShape(d)
	if err != nil {
		return err
	}
	e.Shape = &shape
	e.Parameters = d.NumParameters()
	return nil
}
