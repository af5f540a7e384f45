// Package optim implements the optimizer that accompanies native checkpoints.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - Adam: Adaptive Moment Estimation with lazily created state
//   - SaveAdamState/LoadAdamState: optimizer files next to the networks
//
// Converted checkpoints always ship a freshly initialized optimizer, so a
// saved Adam without a completed Step holds hyperparameters and parameter
// names but no state tensors.
//
// Example usage:
//
//	optimizer := optim.NewAdam(policy, optim.DefaultAdamConfig())
//	if _, err := optim.SaveAdamState("PPO_POLICY_OPTIMIZER.pt", optimizer, nil); err != nil {
//	    return err
//	}
package optim

// Optimizer is the base interface for all optimization algorithms.
type Optimizer interface {
	// Step applies one update to every parameter that has a gradient.
	// Parameters without a gradient are skipped and get no state.
	Step() error

	// ZeroGrad clears all parameter gradients.
	ZeroGrad()

	// GetLR returns the current learning rate.
	GetLR() float32
}
