package params

import (
	"strings"

	"github.com/born-ml/rlconvert/internal/tensor"
)

// ModelPrefix is the namespace token training code expects in front of every
// parameter of a policy or value network.
const ModelPrefix = "model"

// Normalize returns a dictionary whose keys all start with "model.".
// See NormalizeWithPrefix.
func Normalize(d *Dict) *Dict {
	return NormalizeWithPrefix(d, ModelPrefix)
}

// NormalizeWithPrefix returns a new dictionary where every key carries
// prefix followed by ".". Keys that already do are kept unchanged, so the
// function is idempotent. Order is preserved and tensors are shared with d.
func NormalizeWithPrefix(d *Dict, prefix string) *Dict {
	token := prefix + "."
	out := NewDict()
	d.Range(func(name string, t *tensor.Tensor) bool {
		if !strings.HasPrefix(name, token) {
			name = token + name
		}
		out.Set(name, t)
		return true
	})
	return out
}
