// Package fixtures loads golden cycle traces for interpreter tests from
// YAML, the way core/program.go loaded CGRA programs from YAML. Unlike
// that loader, a malformed trace file returns an error instead of
// panicking: a test fixture is ordinary fallible input, not a
// can't-happen condition.
package fixtures

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/calyxgo/ident"
	"github.com/sarchlab/calyxgo/interp"
)

// Trace is a sequence of expected port values keyed by cycle number,
// checked against an Interpreter's Get after each Step.
type Trace struct {
	Component string             `yaml:"component"`
	Cycles    []CycleExpectation `yaml:"cycles"`
}

// CycleExpectation names the cell/port pairs expected to hold given
// values at the end of a given cycle. Keys are "cell.port".
type CycleExpectation struct {
	Cycle  uint64            `yaml:"cycle"`
	Values map[string]uint64 `yaml:"values"`
}

// Load reads and parses a trace file.
func Load(path string) (*Trace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fixtures: reading %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses trace YAML already held in memory.
func Parse(data []byte) (*Trace, error) {
	var t Trace
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("fixtures: parsing trace: %w", err)
	}
	return &t, nil
}

// Mismatch describes one expected-vs-observed disagreement.
type Mismatch struct {
	Cycle    uint64
	Cell     string
	Port     string
	Expected uint64
	Observed interp.Value
}

func (m Mismatch) String() string {
	return fmt.Sprintf("cycle %d: %s.%s: expected %d, got %v",
		m.Cycle, m.Cell, m.Port, m.Expected, m.Observed)
}

// Run steps it one cycle per CycleExpectation in order and collects
// every value that disagrees with the trace. The caller supplies intern
// so "cell.port" names can be resolved against the same Interner the
// Interpreter's Context uses.
func (t *Trace) Run(it *interp.Interpreter, intern *ident.Interner) ([]Mismatch, error) {
	var mismatches []Mismatch

	for _, exp := range t.Cycles {
		if derr := it.Step(); derr != nil {
			return mismatches, derr
		}
		if it.Cycle() != exp.Cycle+1 {
			return mismatches, fmt.Errorf("fixtures: trace expects cycle %d but interpreter is at %d", exp.Cycle, it.Cycle())
		}

		for key, want := range exp.Values {
			cellName, portName, err := splitPortKey(key)
			if err != nil {
				return mismatches, err
			}
			cellID, ok := intern.Lookup(cellName)
			if !ok {
				return mismatches, fmt.Errorf("fixtures: unknown cell %q", cellName)
			}
			portID, ok := intern.Lookup(portName)
			if !ok {
				return mismatches, fmt.Errorf("fixtures: unknown port %q", portName)
			}

			got := it.Get(cellID, portID)
			if !got.Defined || got.Bits != want {
				mismatches = append(mismatches, Mismatch{
					Cycle: exp.Cycle, Cell: cellName, Port: portName,
					Expected: want, Observed: got,
				})
			}
		}
	}

	return mismatches, nil
}

func splitPortKey(key string) (cell, port string, err error) {
	for i := 0; i < len(key); i++ {
		if key[i] == '.' {
			return key[:i], key[i+1:], nil
		}
	}
	return "", "", fmt.Errorf("fixtures: malformed port key %q, want \"cell.port\"", key)
}
