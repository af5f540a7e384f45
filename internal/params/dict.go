// Package params implements the ordered parameter dictionary shared by every
// checkpoint format, together with the shape inference and key normalization
// applied to it during conversion.
package params

import (
	"github.com/born-ml/rlconvert/internal/tensor"
)

// Dict is an ordered mapping from dotted parameter names to tensors.
//
// Insertion order is significant: it reflects layer depth, with the first
// layer's weight and bias first and the output layer's last. Shape inference
// relies on it.
type Dict struct {
	keys    []string
	tensors map[string]*tensor.Tensor
}

// NewDict creates an empty dictionary.
func NewDict() *Dict {
	return &Dict{tensors: make(map[string]*tensor.Tensor)}
}

// Set stores t under name. Replacing an existing name keeps its position.
func (d *Dict) Set(name string, t *tensor.Tensor) {
	if _, ok := d.tensors[name]; !ok {
		d.keys = append(d.keys, name)
	}
	d.tensors[name] = t
}

// Get returns the tensor stored under name.
func (d *Dict) Get(name string) (*tensor.Tensor, bool) {
	t, ok := d.tensors[name]
	return t, ok
}

// Has reports whether name is present.
func (d *Dict) Has(name string) bool {
	_, ok := d.tensors[name]
	return ok
}

// Keys returns the names in insertion order. The slice is a copy.
func (d *Dict) Keys() []string {
	keys := make([]string, len(d.keys))
	copy(keys, d.keys)
	return keys
}

// Len returns the number of entries.
func (d *Dict) Len() int {
	return len(d.keys)
}

// Range calls fn for each entry in order until fn returns false.
func (d *Dict) Range(fn func(name string, t *tensor.Tensor) bool) {
	for _, name := range d.keys {
		if !fn(name, d.tensors[name]) {
			return
		}
	}
}

// Clone returns a dictionary with the same order and deep-copied tensors.
func (d *Dict) Clone() *Dict {
	out := NewDict()
	d.Range(func(name string, t *tensor.Tensor) bool {
		out.Set(name, t.Clone())
		return true
	})
	return out
}

// NumParameters returns the total number of scalar values held.
func (d *Dict) NumParameters() int {
	n := 0
	for _, t := range d.tensors {
		n += t.NumElements()
	}
	return n
}
