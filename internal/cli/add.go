package cli

import (
	"fmt"
	"os"

	"github.com/go-dbpf/dbpf"
	"github.com/go-dbpf/dbpf/reskey"
)

// CmdAdd adds one resource read from a file, creating the package if it
// does not already exist, then rewrites the package in place.
type CmdAdd struct {
	Type       string `long:"type" description:"resource type, hex" required:"yes"`
	Group      string `long:"group" description:"resource group, hex" default:"0"`
	Instance   string `long:"instance" description:"resource instance, hex" required:"yes"`
	Compressed bool   `long:"compressed" description:"store the resource deflate-compressed"`
	Replace    bool   `long:"replace" description:"overwrite an existing entry with the same key"`

	Args struct {
		Package string `positional-arg-name:"package" description:"path to a .package file"`
		File    string `positional-arg-name:"file" description:"file to read the payload from"`
	} `positional-args:"yes" required:"yes"`
}

// Execute runs the add command.
func (c *CmdAdd) Execute(args []string) error {
	key, err := parseKeyFlags(c.Type, c.Group, c.Instance)
	if err != nil {
		return err
	}

	pkg, err := openOrCreate(c.Args.Package)
	if err != nil {
		return err
	}

	payload, err := os.ReadFile(c.Args.File)
	if err != nil {
		return err
	}

	if c.Replace {
		if existing, ok := pkg.Find(key); ok {
			pkg.Replace(existing, payload)
			return saveInPlace(pkg, c.Args.Package)
		}
	}

	if _, err := pkg.Add(key, payload, c.Compressed, false); err != nil {
		return fmt.Errorf("adding %s: %w", key, err)
	}
	return saveInPlace(pkg, c.Args.Package)
}

// parseKeyFlags parses the hex type/group/instance flag strings shared by
// the add and delete subcommands.
func parseKeyFlags(typ, group, instance string) (reskey.Key, error) {
	t, err := parseHexU32(typ)
	if err != nil {
		return reskey.Key{}, fmt.Errorf("--type: %w", err)
	}
	g, err := parseHexU32(group)
	if err != nil {
		return reskey.Key{}, fmt.Errorf("--group: %w", err)
	}
	i, err := parseHexU64(instance)
	if err != nil {
		return reskey.Key{}, fmt.Errorf("--instance: %w", err)
	}
	return reskey.New(t, g, i), nil
}

// openOrCreate opens an existing package at path, or returns a fresh
// empty one if no file exists there yet.
func openOrCreate(path string) (*dbpf.Package, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return dbpf.CreateEmpty(), nil
	}
	if err != nil {
		return nil, err
	}

	// f stays open on success: it is the returned package's backing source,
	// which Compact and SaveTo read clean payloads from.
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	pkg, err := dbpf.Open(f, info.Size())
	if err != nil {
		f.Close()
		return nil, err
	}
	return pkg, nil
}

// saveInPlace rewrites path with pkg's current contents. The new image is
// fully assembled in memory before pkg's backing file is ever truncated,
// so a mutate-then-save of an already-open package is safe even though
// pkg's own source may still be path.
func saveInPlace(pkg *dbpf.Package, path string) error {
	var buf []byte
	w := &sliceWriter{buf: &buf}
	if err := pkg.SaveTo(w); err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o644)
}

// sliceWriter is an io.Writer collecting every Write call into one slice.
// SaveTo performs exactly one Write, so this is simpler than routing
// through a bytes.Buffer pointer at call sites.
type sliceWriter struct {
	buf *[]byte
}

func (s *sliceWriter) Write(p []byte) (int, error) {
	*s.buf = append(*s.buf, p...)
	return len(p), nil
}
