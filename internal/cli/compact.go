package cli

// CmdCompact forces a full rewrite of a package, relocating every live
// payload so the result has no gaps or tombstones.
type CmdCompact struct {
	Args struct {
		Package string `positional-arg-name:"package" description:"path to a .package file"`
	} `positional-args:"yes" required:"yes"`
}

// Execute runs the compact command.
func (c *CmdCompact) Execute(args []string) error {
	pkg, err := openOrCreate(c.Args.Package)
	if err != nil {
		return err
	}
	if err := pkg.Compact(); err != nil {
		return err
	}
	return saveInPlace(pkg, c.Args.Package)
}
