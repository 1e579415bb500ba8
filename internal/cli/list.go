package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/go-dbpf/dbpf"
)

// CmdList lists every live entry in a package.
type CmdList struct {
	Args struct {
		Package string `positional-arg-name:"package" description:"path to a .package file"`
	} `positional-args:"yes" required:"yes"`
}

// Execute runs the list command.
func (c *CmdList) Execute(args []string) error {
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

	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tCOMPRESSION\tFILE SIZE\tMEMORY SIZE")
	for _, e := range pkg.List() {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", e.Key, e.CompressionTag, e.FileSize, e.MemorySize)
	}
	return w.Flush()
}
