package prompt

import "fmt"

// Script is a Prompter with canned answers, consumed in order. Tests
// drive interactive flows with it instead of a terminal.
type Script struct {
	// Values answers Supply calls, one per call.
	Values []string

	// Inputs answers Input calls, one per call. An empty string defers
	// to the prompt's default.
	Inputs []string

	// Confirms answers Confirm calls, one per call. When exhausted,
	// Confirm returns the prompt's default.
	Confirms []bool

	// Asked records the placeholder names passed to Supply.
	Asked []string

	// Labels records every Input and Confirm label, in call order.
	Labels []string
}

func (s *Script) Supply(name string) (string, error) {
	s.Asked = append(s.Asked, name)
	if len(s.Values) == 0 {
		return "", fmt.Errorf("no scripted value for placeholder %q", name)
	}
	val := s.Values[0]
	s.Values = s.Values[1:]
	return val, nil
}

func (s *Script) Input(label, def string) (string, error) {
	s.Labels = append(s.Labels, label)
	if len(s.Inputs) == 0 {
		return def, nil
	}
	val := s.Inputs[0]
	s.Inputs = s.Inputs[1:]
	if val == "" {
		return def, nil
	}
	return val, nil
}

func (s *Script) Confirm(label string, def bool) (bool, error) {
	s.Labels = append(s.Labels, label)
	if len(s.Confirms) == 0 {
		return def, nil
	}
	val := s.Confirms[0]
	s.Confirms = s.Confirms[1:]
	return val, nil
}
