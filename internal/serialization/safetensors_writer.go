package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/born-ml/rlconvert/internal/params"
	"github.com/born-ml/rlconvert/internal/tensor"
)

// SafeTensorInfo describes a tensor in the SafeTensors header.
type SafeTensorInfo struct {
	DType       SafeTensorsDType `json:"dtype"`
	Shape       []int64          `json:"shape"`
	DataOffsets [2]int64         `json:"data_offsets"` // [start, end]
}

// Encode writes d to w in SafeTensors format and returns the number of bytes written.
//
// Tensors are laid out in dictionary order. The SHA-256 of the data section is
// added to the metadata under MetaChecksum, overriding any caller value.
func Encode(w io.Writer, d *params.Dict, metadata map[string]string) (int64, error) {
	header := make(map[string]any, d.Len()+1)

	meta := make(map[string]string, len(metadata)+1)
	for k, v := range metadata {
		meta[k] = v
	}

	var data bytes.Buffer
	var offset int64
	var nameErr error
	d.Range(func(name string, t *tensor.Tensor) bool {
		if err := ValidateTensorName(name); err != nil {
			nameErr = err
			return false
		}
		raw := t.Bytes()
		shape := make([]int64, len(t.Shape()))
		for i, dim := range t.Shape() {
			shape[i] = int64(dim)
		}
		header[name] = SafeTensorInfo{
			DType:       SafeTensorsF32,
			Shape:       shape,
			DataOffsets: [2]int64{offset, offset + int64(len(raw))},
		}
		data.Write(raw)
		offset += int64(len(raw))
		return true
	})
	if nameErr != nil {
		return 0, nameErr
	}

	meta[MetaChecksum] = ChecksumHex(data.Bytes())
	header["__metadata__"] = meta

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal header: %w", err)
	}

	// Header size (8 bytes, little-endian uint64)
	if err := binary.Write(w, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return 0, fmt.Errorf("failed to write header size: %w", err)
	}
	written := int64(8)

	n, err := w.Write(headerJSON)
	written += int64(n)
	if err != nil {
		return written, fmt.Errorf("failed to write header: %w", err)
	}

	m, err := data.WriteTo(w)
	written += m
	if err != nil {
		return written, fmt.Errorf("failed to write tensor data: %w", err)
	}
	return written, nil
}

// WriteFile writes d to path in SafeTensors format, creating or truncating the file.
// It returns the file size in bytes.
func WriteFile(path string, d *params.Dict, metadata map[string]string) (n int64, err error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for checkpoint saving
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return Encode(file, d, metadata)
}
