package cli

import "fmt"

// CmdDelete tombstones an entry identified by its TGI key, then rewrites
// the package in place.
type CmdDelete struct {
	Type     string `long:"type" description:"resource type, hex" required:"yes"`
	Group    string `long:"group" description:"resource group, hex" default:"0"`
	Instance string `long:"instance" description:"resource instance, hex" required:"yes"`

	Args struct {
		Package string `positional-arg-name:"package" description:"path to a .package file"`
	} `positional-args:"yes" required:"yes"`
}

// Execute runs the delete command.
func (c *CmdDelete) Execute(args []string) error {
	key, err := parseKeyFlags(c.Type, c.Group, c.Instance)
	if err != nil {
		return err
	}

	pkg, err := openOrCreate(c.Args.Package)
	if err != nil {
		return err
	}

	e, ok := pkg.Find(key)
	if !ok {
		return fmt.Errorf("no live entry for key %s", key)
	}
	pkg.Delete(e)

	return saveInPlace(pkg, c.Args.Package)
}
