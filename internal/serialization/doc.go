// Package serialization reads and writes the native checkpoint files: parameter
// dictionaries and optimizer state, stored as SafeTensors.
//
//	Format Structure:
//	  [8 bytes: Header Size (uint64 LE)]
//	  [Header: JSON object, tensor name -> {dtype, shape, data_offsets}, plus "__metadata__"]
//	  [Tensor data: raw little-endian bytes]
//
// Tensors are written in dictionary order with ascending data offsets, and the
// reader sorts them back by offset. JSON objects are unordered, so the offsets
// are what carries layer order through the file.
//
// The writer always emits F32. The reader accepts F32, F64, F16 and BF16 and
// widens everything to float32.
//
// The "__metadata__" entry holds string key/value pairs. Writers stamp the
// SHA-256 of the data section under "sha256"; readers verify it when present
// and return ErrChecksumMismatch on disagreement.
//
// Example usage:
//
//	n, err := serialization.WriteFile("PPO_POLICY.pt", policy.StateDict(), map[string]string{
//	    serialization.MetaKind: serialization.KindPolicy,
//	})
//
//	f, err := serialization.ReadFile("PPO_POLICY.pt")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = policy.LoadStateDict(f.Tensors)
package serialization
