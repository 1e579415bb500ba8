// Command dbpfcli is a thin command-line front-end over the dbpf
// library: list, extract, add, delete, compact, build, and thumbnail
// subcommands for inspecting and editing DBPF packages.
package main

import (
	"fmt"
	"os"

	"github.com/go-dbpf/dbpf/internal/cli"
)

func main() {
	if err := cli.Run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
