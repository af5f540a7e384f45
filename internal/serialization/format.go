package serialization

import (
	"fmt"

	"github.com/born-ml/rlconvert/internal/tensor"
)

// Metadata keys written into "__metadata__".
const (
	MetaFormat       = "format"
	MetaKind         = "kind"
	MetaProducer     = "producer"
	MetaConversionID = "conversion_id"
	MetaChecksum     = "sha256"
)

// Values for MetaFormat and MetaKind.
const (
	FormatNative = "pt"

	KindPolicy    = "policy"
	KindValueNet  = "value_net"
	KindOptimizer = "optimizer"
)

// Producer is stamped into every file this module writes.
const Producer = "rlconvert"

// SafeTensorsDType represents supported SafeTensors data types.
type SafeTensorsDType string

// Supported SafeTensors dtypes.
const (
	SafeTensorsF16  SafeTensorsDType = "F16"
	SafeTensorsBF16 SafeTensorsDType = "BF16"
	SafeTensorsF32  SafeTensorsDType = "F32"
	SafeTensorsF64  SafeTensorsDType = "F64"
)

// toDataType converts SafeTensors dtype to tensor.DataType.
func toDataType(dtype SafeTensorsDType) (tensor.DataType, error) {
	switch dtype {
	case SafeTensorsF32:
		return tensor.Float32, nil
	case SafeTensorsF64:
		return tensor.Float64, nil
	case SafeTensorsF16:
		return tensor.Float16, nil
	case SafeTensorsBF16:
		return tensor.BFloat16, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedDType, dtype)
	}
}
