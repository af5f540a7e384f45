package optim

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/born-ml/rlconvert/internal/params"
	"github.com/born-ml/rlconvert/internal/serialization"
	"github.com/born-ml/rlconvert/internal/tensor"
)

// Metadata keys of an optimizer file, next to the serialization ones.
const (
	MetaOptimizer   = "optimizer"
	MetaParamGroups = "param_groups"
	MetaParamNames  = "param_names"

	// AdamName is the value of MetaOptimizer for Adam state files.
	AdamName = "Adam"
)

// ErrNotOptimizerFile is returned when a file lacks optimizer metadata.
var ErrNotOptimizerFile = errors.New("not an Adam optimizer file")

// State is a serializable snapshot of an Adam optimizer.
//
// Tensors holds "state.<i>.step", "state.<i>.exp_avg" and
// "state.<i>.exp_avg_sq" (plus "state.<i>.max_exp_avg_sq" with AMSGrad) for
// every parameter index i that has been updated at least once.
type State struct {
	Config     AdamConfig
	ParamNames []string
	Tensors    *params.Dict
}

// paramGroup is the JSON form of the single parameter group.
type paramGroup struct {
	LR             float64    `json:"lr"`
	Betas          [2]float64 `json:"betas"`
	Eps            float64    `json:"eps"`
	WeightDecay    float64    `json:"weight_decay"`
	AMSGrad        bool       `json:"amsgrad"`
	Maximize       bool       `json:"maximize"`
	Foreach        bool       `json:"foreach"`
	Capturable     bool       `json:"capturable"`
	Differentiable bool       `json:"differentiable"`
	Fused          bool       `json:"fused"`
	Params         []int      `json:"params"`
}

func stateKey(i int, field string) string {
	return "state." + strconv.Itoa(i) + "." + field
}

// StateDict snapshots the optimizer. Tensors are copies.
func (a *Adam) StateDict() *State {
	d := params.NewDict()
	for i, st := range a.state {
		if st == nil {
			continue
		}
		step, _ := tensor.New(tensor.Shape{}, []float32{st.step})
		d.Set(stateKey(i, "step"), step)
		d.Set(stateKey(i, "exp_avg"), st.expAvg.Clone())
		d.Set(stateKey(i, "exp_avg_sq"), st.expAvgSq.Clone())
		if st.maxSq != nil {
			d.Set(stateKey(i, "max_exp_avg_sq"), st.maxSq.Clone())
		}
	}
	return &State{Config: a.config, ParamNames: a.ParamNames(), Tensors: d}
}

// LoadStateDict restores a snapshot taken from an optimizer over the same
// parameters.
func (a *Adam) LoadStateDict(s *State) error {
	if strings.Join(s.ParamNames, "\x00") != strings.Join(a.names, "\x00") {
		return fmt.Errorf("optimizer parameters %v do not match %v", s.ParamNames, a.names)
	}

	state := make([]*paramState, len(a.params))
	seen := 0
	for i, param := range a.params {
		step, ok := s.Tensors.Get(stateKey(i, "step"))
		if !ok {
			continue
		}
		if step.NumElements() != 1 {
			return fmt.Errorf("optimizer state for %s: step has shape %v", a.names[i], step.Shape())
		}
		st := &paramState{step: step.Data()[0]}
		fields := []struct {
			name string
			dst  **tensor.Tensor
		}{
			{"exp_avg", &st.expAvg},
			{"exp_avg_sq", &st.expAvgSq},
			{"max_exp_avg_sq", &st.maxSq},
		}
		seen++
		for _, f := range fields {
			t, ok := s.Tensors.Get(stateKey(i, f.name))
			if !ok {
				if f.name == "max_exp_avg_sq" && !s.Config.AMSGrad {
					continue
				}
				return fmt.Errorf("optimizer state for %s: missing %s", a.names[i], f.name)
			}
			if !t.Shape().Equal(param.Tensor().Shape()) {
				return fmt.Errorf("optimizer state for %s: %s has shape %v, parameter has %v",
					a.names[i], f.name, t.Shape(), param.Tensor().Shape())
			}
			*f.dst = t.Clone()
			seen++
		}
		state[i] = st
	}
	if seen != s.Tensors.Len() {
		return fmt.Errorf("optimizer state has %d unexpected tensor(s)", s.Tensors.Len()-seen)
	}

	a.config = s.Config
	a.state = state
	return nil
}

// SaveAdamState writes a's state to path and returns the file size.
// Caller metadata is kept; the optimizer keys and kind are always set.
func SaveAdamState(path string, a *Adam, metadata map[string]string) (int64, error) {
	s := a.StateDict()

	group := paramGroup{
		LR:          widen(s.Config.LR),
		Betas:       [2]float64{widen(s.Config.Betas[0]), widen(s.Config.Betas[1])},
		Eps:         widen(s.Config.Eps),
		WeightDecay: widen(s.Config.WeightDecay),
		AMSGrad:     s.Config.AMSGrad,
		Params:      make([]int, len(s.ParamNames)),
	}
	for i := range group.Params {
		group.Params[i] = i
	}
	groups, err := json.Marshal([]paramGroup{group})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal param groups: %w", err)
	}
	names, err := json.Marshal(s.ParamNames)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal param names: %w", err)
	}

	meta := make(map[string]string, len(metadata)+4)
	for k, v := range metadata {
		meta[k] = v
	}
	meta[serialization.MetaKind] = serialization.KindOptimizer
	meta[MetaOptimizer] = AdamName
	meta[MetaParamGroups] = string(groups)
	meta[MetaParamNames] = string(names)

	return serialization.WriteFile(path, s.Tensors, meta)
}

// LoadAdamState reads an optimizer file written by SaveAdamState.
func LoadAdamState(path string) (*State, error) {
	f, err := serialization.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if f.Metadata[MetaOptimizer] != AdamName {
		return nil, fmt.Errorf("%s: %w", path, ErrNotOptimizerFile)
	}

	var groups []paramGroup
	if err := json.Unmarshal([]byte(f.Metadata[MetaParamGroups]), &groups); err != nil {
		return nil, fmt.Errorf("%s: invalid param groups: %w", path, err)
	}
	if len(groups) != 1 {
		return nil, fmt.Errorf("%s: expected 1 param group, got %d", path, len(groups))
	}
	var names []string
	if err := json.Unmarshal([]byte(f.Metadata[MetaParamNames]), &names); err != nil {
		return nil, fmt.Errorf("%s: invalid param names: %w", path, err)
	}

	g := groups[0]
	return &State{
		Config: AdamConfig{
			LR:          float32(g.LR),
			Betas:       [2]float32{float32(g.Betas[0]), float32(g.Betas[1])},
			Eps:         float32(g.Eps),
			WeightDecay: float32(g.WeightDecay),
			AMSGrad:     g.AMSGrad,
		},
		ParamNames: names,
		Tensors:    f.Tensors,
	}, nil
}

// widen converts v to the float64 with the same shortest decimal form, so
// 0.001 is written as 0.001 rather than 0.0010000000474974513.
func widen(v float32) float64 {
	f, _ := strconv.ParseFloat(strconv.FormatFloat(float64(v), 'g', -1, 32), 64)
	return f
}
