package optim

import (
	"fmt"
	"math"

	"github.com/born-ml/rlconvert/internal/nn"
	"github.com/born-ml/rlconvert/internal/tensor"
)

// Adam implements the Adam (Adaptive Moment Estimation) optimizer.
//
// Update rule, with step count t kept per parameter:
//
//	g     = grad + weight_decay * param
//	m_t   = beta1 * m_{t-1} + (1-beta1) * g
//	v_t   = beta2 * v_{t-1} + (1-beta2) * g²
//	m_hat = m_t / (1 - beta1^t)
//	v_hat = v_t / (1 - beta2^t)                  // max(v_hat) with AMSGrad
//	param = param - lr * m_hat / (sqrt(v_hat) + eps)
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
type Adam struct {
	params []*nn.Parameter
	names  []string
	config AdamConfig
	state  []*paramState // nil until the parameter's first update
}

// paramState is the per-parameter Adam state.
type paramState struct {
	step     float32
	expAvg   *tensor.Tensor
	expAvgSq *tensor.Tensor
	maxSq    *tensor.Tensor // AMSGrad only
}

// AdamConfig holds configuration for Adam optimizer.
type AdamConfig struct {
	LR          float32    // Learning rate (default: 0.001)
	Betas       [2]float32 // Coefficients for running averages (default: [0.9, 0.999])
	Eps         float32    // Term for numerical stability (default: 1e-8)
	WeightDecay float32    // L2 penalty (default: 0)
	AMSGrad     bool       // Use the AMSGrad variant (default: false)
}

// DefaultAdamConfig returns the standard Adam hyperparameters.
func DefaultAdamConfig() AdamConfig {
	return AdamConfig{LR: 0.001, Betas: [2]float32{0.9, 0.999}, Eps: 1e-8}
}

// NewAdam creates an Adam optimizer over m's parameters. Zero-valued
// LR, Betas and Eps take their defaults.
func NewAdam(m nn.Module, config AdamConfig) *Adam {
	def := DefaultAdamConfig()
	if config.LR == 0 {
		config.LR = def.LR
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = def.Betas[0]
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = def.Betas[1]
	}
	if config.Eps == 0 {
		config.Eps = def.Eps
	}

	params := m.Parameters()
	return &Adam{
		params: params,
		names:  nn.ParameterNames(m),
		config: config,
		state:  make([]*paramState, len(params)),
	}
}

// Config returns the optimizer's hyperparameters.
func (a *Adam) Config() AdamConfig {
	return a.config
}

// ParamNames returns the dotted names of the optimized parameters, in order.
func (a *Adam) ParamNames() []string {
	return append([]string(nil), a.names...)
}

// GetLR returns the learning rate.
func (a *Adam) GetLR() float32 {
	return a.config.LR
}

// Step performs a single Adam update.
func (a *Adam) Step() error {
	for i, param := range a.params {
		grad := param.Grad()
		if grad == nil {
			continue
		}
		if !grad.Shape().Equal(param.Tensor().Shape()) {
			return fmt.Errorf("parameter %s: gradient shape %v does not match %v",
				a.names[i], grad.Shape(), param.Tensor().Shape())
		}

		st := a.state[i]
		if st == nil {
			shape := param.Tensor().Shape()
			st = &paramState{expAvg: tensor.Zeros(shape), expAvgSq: tensor.Zeros(shape)}
			if a.config.AMSGrad {
				st.maxSq = tensor.Zeros(shape)
			}
			a.state[i] = st
		}
		st.step++
		a.update(param, grad, st)
	}
	return nil
}

func (a *Adam) update(param *nn.Parameter, grad *tensor.Tensor, st *paramState) {
	beta1, beta2 := a.config.Betas[0], a.config.Betas[1]
	biasCorrection1 := float32(1.0 - math.Pow(float64(beta1), float64(st.step)))
	biasCorrection2 := float32(1.0 - math.Pow(float64(beta2), float64(st.step)))

	gradData := grad.Data()
	mData := st.expAvg.Data()
	vData := st.expAvgSq.Data()
	paramData := param.Tensor().Data()

	for i := range paramData {
		g := gradData[i]
		if a.config.WeightDecay != 0 {
			g += a.config.WeightDecay * paramData[i]
		}

		mData[i] = beta1*mData[i] + (1.0-beta1)*g
		vData[i] = beta2*vData[i] + (1.0-beta2)*g*g

		v := vData[i]
		if st.maxSq != nil {
			st.maxSq.Data()[i] = max(st.maxSq.Data()[i], v)
			v = st.maxSq.Data()[i]
		}

		mHat := mData[i] / biasCorrection1
		vHat := v / biasCorrection2
		paramData[i] -= a.config.LR * mHat / (float32(math.Sqrt(float64(vHat))) + a.config.Eps)
	}
}

// ZeroGrad clears gradients for all parameters.
func (a *Adam) ZeroGrad() {
	for _, param := range a.params {
		param.ZeroGrad()
	}
}
