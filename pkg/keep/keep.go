// Package keep implements the retention policy: externally supplied rules
// naming classes and methods that no pass may transform, typically because
// they are reached reflectively or form a public API surface.
package keep

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/chazu/altair/pkg/rbc"
)

// Keeper reports whether retention rules forbid transforming a method.
type Keeper interface {
	Keep(m *rbc.Method) bool
}

// Rules is a pattern-based Keeper. Class patterns match a method's declaring
// class descriptor; method patterns match "LClass;.name". A trailing '*'
// makes a pattern a prefix match.
type Rules struct {
	Classes []string `toml:"classes"`
	Methods []string `toml:"methods"`
}

// Load reads keep rules from a TOML file.
func Load(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("keep: cannot read %s: %w", path, err)
	}
	var r Rules
	if err := toml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("keep: parse error in %s: %w", path, err)
	}
	return &r, nil
}

// Keep reports whether the method matches any retention rule.
func (r *Rules) Keep(m *rbc.Method) bool {
	if m.Class != nil {
		for _, pat := range r.Classes {
			if match(pat, m.Class.Name) {
				return true
			}
		}
	}
	qualified := "?." + m.Name
	if m.Class != nil {
		qualified = m.Class.Name + "." + m.Name
	}
	for _, pat := range r.Methods {
		if match(pat, qualified) {
			return true
		}
	}
	return false
}

func match(pattern, s string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(s, prefix)
	}
	return pattern == s
}
