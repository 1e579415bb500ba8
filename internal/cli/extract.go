package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-dbpf/dbpf"
)

// CmdExtract decompresses every live entry in a package into a directory,
// one file per resource named by its TGI key.
type CmdExtract struct {
	Args struct {
		Package string `positional-arg-name:"package" description:"path to a .package file"`
		OutDir  string `positional-arg-name:"out-dir" description:"directory to extract into"`
	} `positional-args:"yes" required:"yes"`
}

// Execute runs the extract command.
func (c *CmdExtract) Execute(args []string) error {
	f, err := os.Open(c.Args.Package)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	pkg, err := dbpf.Open(f, info.Size())
	if err != nil {
		return fmt.Errorf("opening %s: %w", c.Args.Package, err)
	}

	if err := os.MkdirAll(c.Args.OutDir, 0o755); err != nil {
		return err
	}

	for _, e := range pkg.List() {
		payload, err := pkg.ReadPayload(e)
		if err != nil {
			return fmt.Errorf("reading %s: %w", e.Key, err)
		}
		name := fmt.Sprintf("%08X_%08X_%016X.bin", e.Key.Type, e.Key.Group, e.Key.Instance)
		if err := os.WriteFile(filepath.Join(c.Args.OutDir, name), payload, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	return nil
}
