package snippet

import (
	"fmt"
	"regexp"
	"strings"
)

// Placeholder tokens look like {name} where name is one or more word
// characters. Anything else involving braces, including {}, {two words}
// and unterminated {text, is literal command text and never an error.
var placeholderPattern = regexp.MustCompile(`\{(\w+)\}`)

// occurrence is a single placeholder token located in a template.
type occurrence struct {
	name       string
	start, end int // byte offsets of the whole {name} token
}

func findOccurrences(template string) []occurrence {
	matches := placeholderPattern.FindAllStringSubmatchIndex(template, -1)
	if len(matches) == 0 {
		return nil
	}
	occs := make([]occurrence, 0, len(matches))
	for _, m := range matches {
		occs = append(occs, occurrence{
			name:  template[m[2]:m[3]],
			start: m[0],
			end:   m[1],
		})
	}
	return occs
}

// Placeholders returns every placeholder name in template in order of
// appearance. Duplicate names are reported once per occurrence, since
// each occurrence is bound independently.
func Placeholders(template string) []string {
	occs := findOccurrences(template)
	if len(occs) == 0 {
		return nil
	}
	names := make([]string, len(occs))
	for i, o := range occs {
		names[i] = o.name
	}
	return names
}

// Supplier provides a value for a placeholder occurrence that positional
// arguments did not cover. Implementations typically prompt the user;
// tests script the answers.
type Supplier interface {
	Supply(name string) (string, error)
}

// SupplierFunc adapts a plain function to the Supplier interface.
type SupplierFunc func(name string) (string, error)

// Supply calls f.
func (f SupplierFunc) Supply(name string) (string, error) { return f(name) }

// Binding records one filled placeholder occurrence.
type Binding struct {
	Name  string
	Value string
}

// BindOptions controls how Bind fills a template.
type BindOptions struct {
	// Args are positional values consumed left to right, one per
	// placeholder occurrence. Extra values are silently ignored.
	Args []string

	// Safe suppresses the Supplier: occurrences not covered by Args stay
	// in the command as literal placeholder text.
	Safe bool

	// Supply fills occurrences that Args did not cover. Required when
	// Safe is false and the template has more occurrences than Args.
	Supply Supplier

	// OnBound, when set, is invoked for each occurrence filled from
	// Args, before any later occurrence is supplied. Values obtained
	// through Supply are not announced; the prompt already showed them.
	OnBound func(name, value string)
}

// BindResult is the outcome of binding a template.
type BindResult struct {
	// Command is the final command line with every bound occurrence
	// replaced by its value.
	Command string

	// Bindings lists the filled occurrences in appearance order.
	Bindings []Binding

	// Unbound lists the names of occurrences left as literal text, in
	// appearance order. Non-empty only in safe mode.
	Unbound []string
}

// Bind walks template's placeholder occurrences in appearance order,
// binding each from the next unconsumed positional argument, then from
// the Supplier unless Safe is set. See BindOptions for the exact rules.
func Bind(template string, opts BindOptions) (*BindResult, error) {
	occs := findOccurrences(template)
	args := opts.Args

	type filled struct {
		occurrence
		value string
		bound bool
	}
	fills := make([]filled, len(occs))

	for i, occ := range occs {
		fills[i].occurrence = occ
		switch {
		case len(args) > 0:
			val := args[0]
			args = args[1:]
			fills[i].value = val
			fills[i].bound = true
			if opts.OnBound != nil {
				opts.OnBound(occ.name, val)
			}
		case !opts.Safe:
			if opts.Supply == nil {
				return nil, fmt.Errorf("no supplier for placeholder %q", occ.name)
			}
			val, err := opts.Supply.Supply(occ.name)
			if err != nil {
				return nil, fmt.Errorf("supply value for %q: %w", occ.name, err)
			}
			fills[i].value = val
			fills[i].bound = true
		}
	}

	res := &BindResult{}
	var b strings.Builder
	last := 0
	for _, f := range fills {
		b.WriteString(template[last:f.start])
		if f.bound {
			b.WriteString(f.value)
			res.Bindings = append(res.Bindings, Binding{Name: f.name, Value: f.value})
		} else {
			b.WriteString(template[f.start:f.end])
			res.Unbound = append(res.Unbound, f.name)
		}
		last = f.end
	}
	b.WriteString(template[last:])
	res.Command = b.String()
	return res, nil
}
