package convert

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Fixed checkpoint file names.
const (
	PolicyFile          = "PPO_POLICY.pt"
	ValueFile           = "PPO_VALUE_NET.pt"
	PolicyOptimizerFile = "PPO_POLICY_OPTIMIZER.pt"
	ValueOptimizerFile  = "PPO_VALUE_NET_OPTIMIZER.pt"
	CompiledPolicyFile  = "POLICY.LT"
	CompiledValueFile   = "CRITIC.LT"
)

// Output folder names, created under the output root.
const (
	CompiledOutputDir = "CPP_CHECKPOINT"
	NativeOutputDir   = "PYTHON_CHECKPOINT"
)

// Mode selects the conversion direction.
type Mode int

const (
	// ToCompiled converts native checkpoints into compiled graphs ("to_cpp").
	ToCompiled Mode = iota + 1
	// ToNative converts compiled graphs back into native checkpoints ("to_python").
	ToNative
)

// Mode tokens accepted by ParseMode.
const (
	ToCompiledToken = "to_cpp"
	ToNativeToken   = "to_python"
)

// String returns the mode's token.
func (m Mode) String() string {
	switch m {
	case ToCompiled:
		return ToCompiledToken
	case ToNative:
		return ToNativeToken
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses a mode token. Surrounding whitespace and case are ignored.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case ToCompiledToken:
		return ToCompiled, nil
	case ToNativeToken:
		return ToNative, nil
	default:
		return 0, fmt.Errorf("invalid mode %q: want %q or %q", s, ToCompiledToken, ToNativeToken)
	}
}

// OutputDir returns the folder a conversion in mode writes to.
func OutputDir(root string, mode Mode) string {
	if mode == ToCompiled {
		return filepath.Join(root, CompiledOutputDir)
	}
	return filepath.Join(root, NativeOutputDir)
}

// MissingInputsError reports that a compiled-to-native conversion cannot start
// because one of the compiled graphs is absent.
type MissingInputsError struct {
	Dir     string
	Missing []string
}

func (e *MissingInputsError) Error() string {
	return fmt.Sprintf("Missing '%s' or '%s' files in the selected folder.", CompiledPolicyFile, CompiledValueFile)
}
