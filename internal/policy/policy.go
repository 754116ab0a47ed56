// Package policy holds named limit sets that routes refer to by name.
package policy

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/serroba/ratelog/internal/ratelimit"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownPolicy = errors.New("unknown policy")
	ErrInvalidPolicy = errors.New("invalid policy")
)

// PingPolicy guards the demo ping route.
const PingPolicy = "ping"

// document is the YAML layout:
//
//	policies:
//	  ping: ["5/s", "60/m"]
//	  login: ["3/m", "20/h", "50/d"]
type document struct {
	Policies map[string][]string `yaml:"policies"`
}

// Set maps policy names to limit lists. Every list has been validated.
type Set struct {
	policies map[string][]string
}

// NewSet validates policies and returns them as a Set.
func NewSet(policies map[string][]string) (*Set, error) {
	out := make(map[string][]string, len(policies))

	for name, limits := range policies {
		if name == "" {
			return nil, fmt.Errorf("%w: empty name", ErrInvalidPolicy)
		}

		if len(limits) == 0 {
			return nil, fmt.Errorf("%w: %s has no limits", ErrInvalidPolicy, name)
		}

		if _, err := ratelimit.ParseLimits(limits); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidPolicy, name, err)
		}

		out[name] = slices.Clone(limits)
	}

	return &Set{policies: out}, nil
}

// Default is used when no policy file is configured.
func Default() *Set {
	return &Set{policies: map[string][]string{
		PingPolicy: {"5/s", "60/m", "1000/d"},
	}}
}

// Parse reads a YAML policy document.
func Parse(raw []byte) (*Set, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPolicy, err)
	}

	return NewSet(doc.Policies)
}

// Load reads and parses the policy file at path.
func Load(path string) (*Set, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}

	return Parse(raw)
}

// Limits returns a copy of the named limit list.
func (s *Set) Limits(name string) ([]string, bool) {
	limits, ok := s.policies[name]

	return slices.Clone(limits), ok
}

// Names returns the policy names in sorted order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.policies))
	for name := range s.policies {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}
