// Package convert drives checkpoint conversion between the native format
// (SafeTensors parameter dictionaries plus Adam optimizer files) and the
// compiled format (ONNX graphs).
//
// Both directions run in a fixed order: read and validate every input, then
// create the output folder, then write each artifact. A failure midway leaves
// the artifacts already written in place.
package convert

import (
	"context"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/rlconvert/internal/export"
	"github.com/born-ml/rlconvert/internal/nn"
	"github.com/born-ml/rlconvert/internal/onnx"
	"github.com/born-ml/rlconvert/internal/optim"
	"github.com/born-ml/rlconvert/internal/params"
	"github.com/born-ml/rlconvert/internal/serialization"
)

// DirPermMode is used when creating the output folder.
const DirPermMode = 0o755

// Artifact is one file written by a conversion.
type Artifact struct {
	Name string
	Path string
	Size int64
}

// Result summarizes a successful conversion.
type Result struct {
	Mode         Mode
	OutputDir    string
	ConversionID string
	Artifacts    []Artifact
	PolicyShape  params.ShapeDescriptor
	ValueShape   params.ShapeDescriptor
}

// Observer is notified as artifacts are written.
type Observer interface {
	// Begin is called once with the number of artifacts about to be written.
	Begin(total int)
	// Written is called after each artifact is on disk.
	Written(a Artifact)
}

// Converter converts checkpoint folders. The zero value writes under the
// current directory.
type Converter struct {
	// Root is the folder the output folder is created in.
	Root string
	// Observer, if set, receives progress notifications.
	Observer Observer
}

// Run converts the checkpoint in sourceDir according to mode.
func (c *Converter) Run(ctx context.Context, mode Mode, sourceDir string) (*Result, error) {
	res := &Result{
		Mode:         mode,
		OutputDir:    OutputDir(c.Root, mode),
		ConversionID: uuid.NewString(),
	}
	klog.V(1).Infof("conversion %s: %s from %q into %q", res.ConversionID, mode, sourceDir, res.OutputDir)

	var err error
	switch mode {
	case ToCompiled:
		err = c.toCompiled(ctx, sourceDir, res)
	case ToNative:
		err = c.toNative(ctx, sourceDir, res)
	default:
		err = errors.Errorf("unknown conversion mode %s", mode)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Converter) toCompiled(ctx context.Context, sourceDir string, res *Result) error {
	policyDict, err := readNative(filepath.Join(sourceDir, PolicyFile))
	if err != nil {
		return err
	}
	valueDict, err := readNative(filepath.Join(sourceDir, ValueFile))
	if err != nil {
		return err
	}

	models, err := nn.Reconstruct(policyDict, valueDict)
	if err != nil {
		return errors.Wrap(err, "failed to rebuild networks")
	}
	res.PolicyShape, res.ValueShape = models.PolicyShape, models.ValueShape
	klog.V(1).Infof("policy %s, value network %s", res.PolicyShape, res.ValueShape)

	policyGraph, err := export.TracePolicy(models.Policy, res.ConversionID)
	if err != nil {
		return errors.Wrap(err, "failed to compile policy")
	}
	valueGraph, err := export.TraceValue(models.Value, res.ConversionID)
	if err != nil {
		return errors.Wrap(err, "failed to compile value network")
	}

	if err := c.prepare(res, 2); err != nil {
		return err
	}
	writes := []struct {
		name  string
		model *onnx.ModelProto
	}{
		{CompiledPolicyFile, policyGraph},
		{CompiledValueFile, valueGraph},
	}
	for _, w := range writes {
		if err := ctx.Err(); err != nil {
			return errors.Wrapf(err, "conversion interrupted before %s", w.name)
		}
		path := filepath.Join(res.OutputDir, w.name)
		n, err := onnx.WriteFile(path, w.model)
		if err != nil {
			return errors.Wrapf(err, "failed to write %s", path)
		}
		c.written(res, Artifact{Name: w.name, Path: path, Size: n})
	}
	return nil
}

func (c *Converter) toNative(ctx context.Context, sourceDir string, res *Result) error {
	policyPath := filepath.Join(sourceDir, CompiledPolicyFile)
	valuePath := filepath.Join(sourceDir, CompiledValueFile)
	var missing []string
	for _, p := range []string{policyPath, valuePath} {
		if _, err := os.Stat(p); err != nil {
			missing = append(missing, filepath.Base(p))
		}
	}
	if len(missing) > 0 {
		return &MissingInputsError{Dir: sourceDir, Missing: missing}
	}

	policyDict, err := readCompiled(policyPath)
	if err != nil {
		return err
	}
	valueDict, err := readCompiled(valuePath)
	if err != nil {
		return err
	}
	policyDict, valueDict = params.Normalize(policyDict), params.Normalize(valueDict)

	models, err := nn.Reconstruct(policyDict, valueDict)
	if err != nil {
		return errors.Wrap(err, "failed to rebuild networks")
	}
	res.PolicyShape, res.ValueShape = models.PolicyShape, models.ValueShape
	klog.V(1).Infof("policy %s, value network %s", res.PolicyShape, res.ValueShape)

	policyOptim := optim.NewAdam(models.Policy, optim.DefaultAdamConfig())
	valueOptim := optim.NewAdam(models.Value, optim.DefaultAdamConfig())

	if err := c.prepare(res, 4); err != nil {
		return err
	}
	meta := func(kind string) map[string]string {
		return map[string]string{
			serialization.MetaFormat:       serialization.FormatNative,
			serialization.MetaKind:         kind,
			serialization.MetaProducer:     serialization.Producer,
			serialization.MetaConversionID: res.ConversionID,
		}
	}
	writes := []struct {
		name  string
		write func(path string) (int64, error)
	}{
		{PolicyFile, func(path string) (int64, error) {
			return serialization.WriteFile(path, policyDict, meta(serialization.KindPolicy))
		}},
		{ValueFile, func(path string) (int64, error) {
			return serialization.WriteFile(path, valueDict, meta(serialization.KindValueNet))
		}},
		{PolicyOptimizerFile, func(path string) (int64, error) {
			return optim.SaveAdamState(path, policyOptim, meta(serialization.KindOptimizer))
		}},
		{ValueOptimizerFile, func(path string) (int64, error) {
			return optim.SaveAdamState(path, valueOptim, meta(serialization.KindOptimizer))
		}},
	}
	for _, w := range writes {
		if err := ctx.Err(); err != nil {
			return errors.Wrapf(err, "conversion interrupted before %s", w.name)
		}
		path := filepath.Join(res.OutputDir, w.name)
		n, err := w.write(path)
		if err != nil {
			return errors.Wrapf(err, "failed to write %s", path)
		}
		c.written(res, Artifact{Name: w.name, Path: path, Size: n})
	}
	return nil
}

// prepare creates the output folder and announces the artifact count.
func (c *Converter) prepare(res *Result, total int) error {
	if err := os.MkdirAll(res.OutputDir, DirPermMode); err != nil {
		return errors.Wrapf(err, "trying to create dir %q", res.OutputDir)
	}
	if c.Observer != nil {
		c.Observer.Begin(total)
	}
	return nil
}

func (c *Converter) written(res *Result, a Artifact) {
	klog.V(1).Infof("wrote %s (%d bytes)", a.Path, a.Size)
	res.Artifacts = append(res.Artifacts, a)
	if c.Observer != nil {
		c.Observer.Written(a)
	}
}

func readNative(path string) (*params.Dict, error) {
	f, err := serialization.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load native checkpoint")
	}
	klog.V(1).Infof("read %s: %d tensors, %d bytes", path, f.Tensors.Len(), f.Size)
	return f.Tensors, nil
}

func readCompiled(path string) (*params.Dict, error) {
	m, err := onnx.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load compiled graph")
	}
	d, err := onnx.Initializers(m)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	klog.V(1).Infof("read %s: graph %q, %d initializers", path, m.Graph.Name, d.Len())
	return d, nil
}
