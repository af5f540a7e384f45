package nn

import (
	"fmt"
	"strings"

	"github.com/born-ml/rlconvert/internal/params"
	"github.com/born-ml/rlconvert/internal/tensor"
)

// SizeMismatch records a tensor whose shape disagrees with the module.
type SizeMismatch struct {
	Name     string
	Got      tensor.Shape // Shape found in the loaded dictionary
	Expected tensor.Shape // Shape of the module's parameter
}

// LoadError lists every problem found while loading a state dict.
type LoadError struct {
	Missing    []string // Keys the module has but the dictionary lacks
	Unexpected []string // Keys the dictionary has but the module lacks
	Mismatched []SizeMismatch
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing key(s): %s", quoteAll(e.Missing)))
	}
	if len(e.Unexpected) > 0 {
		parts = append(parts, fmt.Sprintf("unexpected key(s): %s", quoteAll(e.Unexpected)))
	}
	for _, m := range e.Mismatched {
		parts = append(parts, fmt.Sprintf("size mismatch for %s: copying a param with shape %v, the shape in current model is %v",
			m.Name, m.Got, m.Expected))
	}
	return "error(s) in loading state dict: " + strings.Join(parts, "; ")
}

func quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	return strings.Join(quoted, ", ")
}

// loadStrict copies src into the live tensors of dst.
//
// Nothing is copied unless the key sets match and every shape agrees, so a
// failed load leaves the module untouched.
func loadStrict(dst, src *params.Dict) error {
	loadErr := &LoadError{}
	dst.Range(func(name string, t *tensor.Tensor) bool {
		s, ok := src.Get(name)
		if !ok {
			loadErr.Missing = append(loadErr.Missing, name)
			return true
		}
		if !s.Shape().Equal(t.Shape()) {
			loadErr.Mismatched = append(loadErr.Mismatched, SizeMismatch{
				Name: name, Got: s.Shape(), Expected: t.Shape(),
			})
		}
		return true
	})
	src.Range(func(name string, _ *tensor.Tensor) bool {
		if !dst.Has(name) {
			loadErr.Unexpected = append(loadErr.Unexpected, name)
		}
		return true
	})
	if len(loadErr.Missing) > 0 || len(loadErr.Unexpected) > 0 || len(loadErr.Mismatched) > 0 {
		return loadErr
	}

	var copyErr error
	dst.Range(func(name string, t *tensor.Tensor) bool {
		s, _ := src.Get(name)
		if err := t.CopyFrom(s); err != nil {
			copyErr = fmt.Errorf("failed to copy %s: %w", name, err)
			return false
		}
		return true
	})
	return copyErr
}
