// Package cli implements the dbpfcli command-line front-end: a thin
// exerciser over the dbpf library, not part of the core contract. The
// flags.NewParser + parser.AddCommand subcommand wiring is grounded on
// the retrieval pack's internal/cli/root.go.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jessevdk/go-flags"

	"github.com/go-dbpf/dbpf/lrle"
	"github.com/go-dbpf/dbpf/registry"
)

// Version is the CLI's reported build version.
const Version = "0.1.0"

// CmdVersion prints build metadata.
type CmdVersion struct{}

// Execute runs the version command.
func (c *CmdVersion) Execute(args []string) error {
	fmt.Printf("dbpfcli %s\n", Version)
	return nil
}

// registerBuiltinDecoders wires the resource factories this CLI ships
// with into the process-wide registry, so thumbnail (and any other
// command that wants a decoded resource rather than raw bytes) dispatches
// through registry.Default() instead of calling a codec package directly.
func registerBuiltinDecoders() {
	registry.Default().Replace(lrle.ResourceType, lrle.DecodeFactory)
}

// Run parses args and executes the selected subcommand.
func Run(args []string) error {
	registerBuiltinDecoders()

	var root struct{}

	parser := flags.NewParser(&root, flags.Default)
	parser.Name = filepath.Base(os.Args[0])
	prog := parser.Name

	commands := []struct {
		name, short, long string
		data              any
	}{
		{"list", "List entries in a package", fmt.Sprintf("List every resource key and size in a DBPF package.\n\nExamples:\n  %s list mypackage.package", prog), &CmdList{}},
		{"extract", "Extract every resource to a directory", fmt.Sprintf("Decompress and write every resource payload to files named by key.\n\nExamples:\n  %s extract mypackage.package ./out", prog), &CmdExtract{}},
		{"add", "Add a resource from a file", fmt.Sprintf("Add one resource read from a file.\n\nExamples:\n  %s add mypackage.package data.bin --type 0x220557DA --instance 0x1234", prog), &CmdAdd{}},
		{"delete", "Delete a resource by key", fmt.Sprintf("Tombstone and compact away a resource.\n\nExamples:\n  %s delete mypackage.package --type 0x220557DA --instance 0x1234", prog), &CmdDelete{}},
		{"compact", "Rewrite a package with no gaps or tombstones", fmt.Sprintf("Force a full rewrite.\n\nExamples:\n  %s compact mypackage.package", prog), &CmdCompact{}},
		{"build", "Build a package from a YAML manifest", fmt.Sprintf("Build a package from a list of resources described in YAML.\n\nExamples:\n  %s build manifest.yaml", prog), &CmdBuild{}},
		{"thumbnail", "Render an LRLE resource's base mip to a PNG", fmt.Sprintf("Decode an LRLE image resource and write a scaled PNG preview.\n\nExamples:\n  %s thumbnail mypackage.package --type 0x3453CF95 --instance 0x1234 --out preview.png", prog), &CmdThumbnail{}},
		{"version", "Print build metadata", fmt.Sprintf("Show build information.\n\nExamples:\n  %s version", prog), &CmdVersion{}},
	}

	for _, c := range commands {
		if _, err := parser.AddCommand(c.name, c.short, c.long, c.data); err != nil {
			return err
		}
	}

	_, err := parser.ParseArgs(args)
	if err != nil {
		if fe, ok := err.(*flags.Error); ok && fe.Type == flags.ErrHelp {
			return nil
		}
		return err
	}

	return nil
}
