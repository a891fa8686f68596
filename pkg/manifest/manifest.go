// Package manifest handles altair.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/chazu/altair/pkg/keep"
	"github.com/chazu/altair/pkg/opt/devirtualize"
	"github.com/chazu/altair/pkg/rbc"
)

// Manifest represents an altair.toml project configuration.
type Manifest struct {
	Project      Project      `toml:"project"`
	Input        Input        `toml:"input"`
	Output       Output       `toml:"output"`
	Devirtualize Devirtualize `toml:"devirtualize"`
	Keep         keep.Rules   `toml:"keep"`

	// Dir is the directory containing the altair.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Input configures the unit files to load.
type Input struct {
	Units []string `toml:"units"`
}

// Output configures where optimized units are written.
type Output struct {
	Dir    string `toml:"dir"`
	Suffix string `toml:"suffix"`
}

// Devirtualize holds the staticizing pass configuration plus the target
// class patterns the pass is restricted to. An empty pattern list targets
// every class in scope.
type Devirtualize struct {
	devirtualize.Config
	Targets []string `toml:"targets"`
}

// Default returns a manifest with every devirtualization phase enabled and
// an ".opt" output suffix.
func Default() *Manifest {
	return &Manifest{
		Devirtualize: Devirtualize{Config: devirtualize.DefaultConfig()},
		Output:       Output{Suffix: ".opt"},
	}
}

// Load parses an altair.toml file from the given directory. Returns the
// default manifest when the directory has none.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "altair.toml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("manifest: cannot read %s: %w", path, err)
	}

	m := Default()
	if err := toml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("manifest: parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("manifest: cannot resolve path %s: %w", dir, err)
	}
	if m.Output.Suffix == "" {
		m.Output.Suffix = ".opt"
	}
	return m, nil
}

// TargetClasses returns the scope classes matched by the manifest's target
// patterns, or nil (meaning all classes) when no patterns are set. Patterns
// match class descriptors exactly, or by prefix with a trailing '*'.
func (m *Manifest) TargetClasses(s *rbc.Scope) []*rbc.Class {
	if len(m.Devirtualize.Targets) == 0 {
		return nil
	}
	var out []*rbc.Class
	for _, c := range s.Classes {
		for _, pat := range m.Devirtualize.Targets {
			if matchPattern(pat, c.Name) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

func matchPattern(pattern, s string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(s, prefix)
	}
	return pattern == s
}
