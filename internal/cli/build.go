package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"

	"github.com/go-dbpf/dbpf"
)

// manifestEntry describes one resource to add while building a package.
type manifestEntry struct {
	Path       string `yaml:"path"`
	Type       string `yaml:"type"`
	Group      string `yaml:"group" default:"0"`
	Instance   string `yaml:"instance"`
	Compressed bool   `yaml:"compressed" default:"true"`
}

// manifest describes a single output package assembled from a list of
// source files, grounded on the retrieval pack's project-config YAML
// shape (a list of named projects, each carrying its own defaults).
type manifest struct {
	Output  string          `yaml:"output"`
	Entries []manifestEntry `yaml:"entries"`
}

// CmdBuild builds a package from a YAML manifest listing source files and
// their target resource keys.
type CmdBuild struct {
	Args struct {
		Manifest string `positional-arg-name:"manifest" description:"path to a YAML build manifest"`
	} `positional-args:"yes" required:"yes"`
}

// Execute runs the build command.
func (c *CmdBuild) Execute(args []string) error {
	data, err := os.ReadFile(c.Args.Manifest)
	if err != nil {
		return fmt.Errorf("reading manifest: %w", err)
	}

	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("parsing manifest: %w", err)
	}
	if m.Output == "" {
		return fmt.Errorf("manifest: output is required")
	}
	if len(m.Entries) == 0 {
		return fmt.Errorf("manifest: no entries")
	}

	for i := range m.Entries {
		if err := defaults.Set(&m.Entries[i]); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}

	baseDir := filepath.Dir(c.Args.Manifest)
	pkg := dbpf.CreateEmpty()

	for i, entry := range m.Entries {
		key, err := parseKeyFlags(entry.Type, entry.Group, entry.Instance)
		if err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}

		path := entry.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		payload, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}

		if _, err := pkg.Add(key, payload, entry.Compressed, false); err != nil {
			return fmt.Errorf("entry %d (%s): %w", i, key, err)
		}
	}

	outPath := m.Output
	if !filepath.IsAbs(outPath) {
		outPath = filepath.Join(baseDir, outPath)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := pkg.SaveTo(f); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}

	fmt.Printf("built %s with %d resources\n", outPath, len(m.Entries))
	return nil
}
