package ui

import (
	"math"
	"strconv"

	"goi/internal/core"
)

// nextInt returns the value one step from current in direction, clamped to
// the control's bounds, and whether that differs from current.
func nextInt(ctrl core.ParameterControl, current, direction int) (int, bool) {
	step := int(math.Round(ctrl.Step))
	if step <= 0 {
		step = 1
	}
	target := current + direction*step
	if ctrl.HasMin {
		target = max(target, int(math.Round(ctrl.Min)))
	}
	if ctrl.HasMax {
		target = min(target, int(math.Round(ctrl.Max)))
	}
	return target, target != current
}

func nextFloat(ctrl core.ParameterControl, current float64, direction int) (float64, bool) {
	step := ctrl.Step
	if step <= 0 {
		step = 0.05
	}
	target := current + float64(direction)*step
	if ctrl.HasMin && target < ctrl.Min {
		target = ctrl.Min
	}
	if ctrl.HasMax && target > ctrl.Max {
		target = ctrl.Max
	}
	return target, math.Abs(target-current) >= 1e-9
}

// formatValue renders a float with precision matching the control's step.
func formatValue(ctrl core.ParameterControl, value float64) string {
	step := ctrl.Step
	if step <= 0 {
		step = 0.05
	}
	precision := 1
	switch {
	case step < 0.001:
		precision = 4
	case step < 0.01:
		precision = 3
	case step < 0.1:
		precision = 2
	}
	return strconv.FormatFloat(value, 'f', precision, 64)
}

// controlState tracks one adjustable parameter as last read from the sim.
type controlState struct {
	control core.ParameterControl
	value   string

	intValue   int
	floatValue float64
	hasValue   bool
}

// refresh reloads the state from the matching parameter in snapshot.
func (s *controlState) refresh(snapshot core.ParameterSnapshot) {
	s.hasValue = false
	s.value = "--"
	param, ok := snapshot.Lookup(s.control.Key)
	if !ok {
		return
	}
	switch s.control.Type {
	case core.ParamTypeInt:
		parsed, err := strconv.Atoi(param.Value)
		if err != nil {
			return
		}
		s.intValue = parsed
		s.floatValue = float64(parsed)
		s.value = strconv.Itoa(parsed)
		s.hasValue = true
	case core.ParamTypeFloat:
		parsed, err := strconv.ParseFloat(param.Value, 64)
		if err != nil {
			return
		}
		s.floatValue = parsed
		s.value = formatValue(s.control, parsed)
		s.hasValue = true
	}
}

// adjust moves the control one step through the sim's setters. It reports
// whether the sim accepted a new value.
func (s *controlState) adjust(sim core.Sim, direction int) bool {
	if !s.hasValue || direction == 0 {
		return false
	}
	switch s.control.Type {
	case core.ParamTypeInt:
		setter, ok := sim.(core.IntParameterSetter)
		if !ok {
			return false
		}
		target, changed := nextInt(s.control, s.intValue, direction)
		if !changed || !setter.SetIntParameter(s.control.Key, target) {
			return false
		}
		s.intValue = target
		s.floatValue = float64(target)
		s.value = strconv.Itoa(target)
	case core.ParamTypeFloat:
		setter, ok := sim.(core.FloatParameterSetter)
		if !ok {
			return false
		}
		target, changed := nextFloat(s.control, s.floatValue, direction)
		if !changed || !setter.SetFloatParameter(s.control.Key, target) {
			return false
		}
		s.floatValue = target
		s.value = formatValue(s.control, target)
	default:
		return false
	}
	return true
}

// canAdjust reports whether a step in direction would change the value.
func (s *controlState) canAdjust(sim core.Sim, direction int) bool {
	if !s.hasValue || direction == 0 {
		return false
	}
	switch s.control.Type {
	case core.ParamTypeInt:
		if _, ok := sim.(core.IntParameterSetter); !ok {
			return false
		}
		_, changed := nextInt(s.control, s.intValue, direction)
		return changed
	case core.ParamTypeFloat:
		if _, ok := sim.(core.FloatParameterSetter); !ok {
			return false
		}
		_, changed := nextFloat(s.control, s.floatValue, direction)
		return changed
	}
	return false
}

func newControlStates(sim core.Sim) []controlState {
	provider, ok := sim.(core.ParameterControlsProvider)
	if !ok {
		return nil
	}
	controls := provider.ParameterControls()
	out := make([]controlState, len(controls))
	for i, ctrl := range controls {
		out[i] = controlState{control: ctrl, value: "--"}
	}
	return out
}
