package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/born-ml/rlconvert/internal/params"
	"github.com/born-ml/rlconvert/internal/tensor"
)

// File is a decoded SafeTensors file.
type File struct {
	Tensors  *params.Dict      // Tensors in on-disk order
	Metadata map[string]string // "__metadata__" entries, never nil
	Size     int64             // Encoded size in bytes
}

// header is the JSON header in SafeTensors format.
type header struct {
	Metadata map[string]string
	Tensors  map[string]SafeTensorInfo
}

// UnmarshalJSON splits "__metadata__" from the tensor entries.
func (h *header) UnmarshalJSON(data []byte) error {
	var rawMap map[string]json.RawMessage
	if err := json.Unmarshal(data, &rawMap); err != nil {
		return err
	}

	if metadataRaw, ok := rawMap["__metadata__"]; ok {
		if err := json.Unmarshal(metadataRaw, &h.Metadata); err != nil {
			return fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	h.Tensors = make(map[string]SafeTensorInfo, len(rawMap))
	for key, value := range rawMap {
		if key == "__metadata__" {
			continue
		}
		var info SafeTensorInfo
		if err := json.Unmarshal(value, &info); err != nil {
			return fmt.Errorf("failed to unmarshal tensor %s: %w", key, err)
		}
		h.Tensors[key] = info
	}
	return nil
}

// Decode parses a SafeTensors file held in memory.
//
// The header is validated (size, tensor names, offsets, byte sizes) before any
// tensor is decoded, and the data checksum is verified when one is stored.
func Decode(data []byte) (*File, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("%w: %d bytes, need at least 8", ErrTruncated, len(data))
	}
	headerSize := binary.LittleEndian.Uint64(data[:8])
	if headerSize > MaxHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, headerSize)
	}
	if uint64(len(data)-8) < headerSize {
		return nil, fmt.Errorf("%w: header needs %d bytes, %d available", ErrTruncated, headerSize, len(data)-8)
	}

	var h header
	if err := json.Unmarshal(data[8:8+headerSize], &h); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHeaderJSON, err)
	}
	body := data[8+headerSize:]

	if err := validateHeader(&h, int64(len(body))); err != nil {
		return nil, err
	}

	if stored, ok := h.Metadata[MetaChecksum]; ok {
		if err := ValidateChecksum(body, stored); err != nil {
			return nil, err
		}
	}

	names := make([]string, 0, len(h.Tensors))
	for name := range h.Tensors {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		oi, oj := h.Tensors[names[i]].DataOffsets[0], h.Tensors[names[j]].DataOffsets[0]
		if oi != oj {
			return oi < oj
		}
		return names[i] < names[j]
	})

	dict := params.NewDict()
	for _, name := range names {
		info := h.Tensors[name]
		dt, err := toDataType(info.DType)
		if err != nil {
			return nil, fmt.Errorf("tensor %s: %w", name, err)
		}
		t, err := tensor.FromBytes(dt, toShape(info.Shape), body[info.DataOffsets[0]:info.DataOffsets[1]])
		if err != nil {
			return nil, fmt.Errorf("tensor %s: %w", name, err)
		}
		dict.Set(name, t)
	}

	meta := h.Metadata
	if meta == nil {
		meta = map[string]string{}
	}
	return &File{Tensors: dict, Metadata: meta, Size: int64(len(data))}, nil
}

// ReadFile reads and decodes a SafeTensors file.
func ReadFile(path string) (*File, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for checkpoint loading
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	f, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

func validateHeader(h *header, dataSize int64) error {
	if len(h.Tensors) > MaxTensorCount {
		return &ValidationError{
			Type:    "too_many_tensors",
			Details: fmt.Sprintf("got %d, max %d", len(h.Tensors), MaxTensorCount),
		}
	}

	metas := make([]TensorMeta, 0, len(h.Tensors))
	for name, info := range h.Tensors {
		if err := ValidateTensorName(name); err != nil {
			return err
		}
		for _, dim := range info.Shape {
			if dim < 0 {
				return &ValidationError{
					Type:    "invalid_shape",
					Tensor:  name,
					Details: fmt.Sprintf("negative dimension in %v", info.Shape),
				}
			}
		}
		dt, err := toDataType(info.DType)
		if err != nil {
			return fmt.Errorf("tensor %s: %w", name, err)
		}
		size := info.DataOffsets[1] - info.DataOffsets[0]
		want := int64(toShape(info.Shape).NumElements() * dt.Size())
		if size != want {
			return &ValidationError{
				Type:    "size_mismatch",
				Tensor:  name,
				Details: fmt.Sprintf("%s%v needs %d bytes, offsets span %d", info.DType, info.Shape, want, size),
			}
		}
		metas = append(metas, TensorMeta{Name: name, Offset: info.DataOffsets[0], Size: size})
	}
	return ValidateTensorOffsets(metas, dataSize)
}

func toShape(dims []int64) tensor.Shape {
	shape := make(tensor.Shape, len(dims))
	for i, d := range dims {
		shape[i] = int(d)
	}
	return shape
}
