package ctx

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/calyxgo/diag"
)

// PortSig describes one port of a primitive's signature template: its
// width may reference a parameter by name (e.g. "WIDTH") or be a fixed
// literal.
type PortSig struct {
	Name      string `yaml:"name"`
	Direction string `yaml:"direction"` // "in" | "out" | "inout"
	// WidthParam, if non-empty, names the parameter this port's width
	// is taken from verbatim; otherwise Width is used literally.
	WidthParam string `yaml:"width_param"`
	Width      uint64 `yaml:"width"`
}

// PrimitiveSig is one library entry: the template the builder
// instantiates when AddPrimitive names this entry.
type PrimitiveSig struct {
	Name           string    `yaml:"name"`
	Params         []string  `yaml:"params"`
	Ports          []PortSig `yaml:"ports"`
	IsComb         bool      `yaml:"is_comb"`
	Latency        *uint64   `yaml:"latency"`
	SerializesState bool     `yaml:"serializes_state"`
}

// Library is the read-only-after-setup primitive signature table: the
// Context's view of the standard-cell library its components
// instantiate primitives from.
type Library struct {
	entries map[string]PrimitiveSig
}

// NewLibrary creates an empty Library.
func NewLibrary() *Library {
	return &Library{entries: make(map[string]PrimitiveSig)}
}

// Register adds or replaces a primitive's signature.
func (l *Library) Register(sig PrimitiveSig) {
	l.entries[sig.Name] = sig
}

// Lookup returns the signature registered under name.
func (l *Library) Lookup(name string) (PrimitiveSig, bool) {
	sig, ok := l.entries[name]
	return sig, ok
}

// LoadLibraryYAML loads a set of primitive signatures from a YAML
// file.
func LoadLibraryYAML(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, diag.Newf(diag.KindUnsupported, "reading primitive library %s: %v", path, err)
	}

	var root struct {
		Primitives []PrimitiveSig `yaml:"primitives"`
	}
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, diag.Newf(diag.KindParse, "parsing primitive library %s: %v", path, err)
	}

	lib := NewLibrary()
	for _, sig := range root.Primitives {
		lib.Register(sig)
	}
	return lib, nil
}

// ResolveWidth evaluates a PortSig's width against a concrete
// parameter binding.
func ResolveWidth(sig PortSig, params map[string]uint64) (uint64, error) {
	if sig.WidthParam == "" {
		return sig.Width, nil
	}
	v, ok := params[sig.WidthParam]
	if !ok {
		return 0, fmt.Errorf("missing parameter %q", sig.WidthParam)
	}
	return v, nil
}
