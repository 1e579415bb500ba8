package cli

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"golang.org/x/image/draw"

	"github.com/go-dbpf/dbpf"
	"github.com/go-dbpf/dbpf/lrle"
	"github.com/go-dbpf/dbpf/registry"
)

// CmdThumbnail decodes an LRLE image resource's base mip and writes it out
// as a PNG, optionally rescaled.
type CmdThumbnail struct {
	Type     string `long:"type" description:"resource type, hex" required:"yes"`
	Group    string `long:"group" description:"resource group, hex" default:"0"`
	Instance string `long:"instance" description:"resource instance, hex" required:"yes"`
	Width    int    `long:"width" description:"output width; 0 keeps the source size" default:"0"`
	Height   int    `long:"height" description:"output height; 0 keeps the source size" default:"0"`
	Out      string `long:"out" description:"output PNG path" required:"yes"`

	Args struct {
		Package string `positional-arg-name:"package" description:"path to a .package file"`
	} `positional-args:"yes" required:"yes"`
}

// Execute runs the thumbnail command.
func (c *CmdThumbnail) Execute(args []string) error {
	key, err := parseKeyFlags(c.Type, c.Group, c.Instance)
	if err != nil {
		return err
	}

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

	e, ok := pkg.Find(key)
	if !ok {
		return fmt.Errorf("no live entry for key %s", key)
	}

	raw, err := pkg.ReadPayload(e)
	if err != nil {
		return fmt.Errorf("reading %s: %w", key, err)
	}

	factory := registry.Default().GetOrDefault(key.Type, lrle.DecodeFactory)
	decoded, err := factory(raw)
	if err != nil {
		return fmt.Errorf("decoding LRLE: %w", err)
	}
	img, ok := decoded.(lrle.Image)
	if !ok {
		return fmt.Errorf("resource %s: type %#08x is not registered as an LRLE decoder", key, key.Type)
	}
	if len(img.Mips) == 0 {
		return fmt.Errorf("resource %s has no mip levels", key)
	}

	rgba := argbToNRGBA(img.Mips[0], int(img.Width), int(img.Height))

	width, height := c.Width, c.Height
	if width <= 0 {
		width = int(img.Width)
	}
	if height <= 0 {
		height = int(img.Height)
	}

	var out image.Image = rgba
	if width != int(img.Width) || height != int(img.Height) {
		out = scaleImage(rgba, width, height)
	}

	outFile, err := os.Create(c.Out)
	if err != nil {
		return err
	}
	defer outFile.Close()

	return png.Encode(outFile, out)
}

// argbToNRGBA converts a row-major slice of 0xAARRGGBB pixels into a
// standard image.NRGBA.
func argbToNRGBA(pixels []uint32, width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			px := pixels[y*width+x]
			img.SetNRGBA(x, y, color.NRGBA{
				A: uint8(px >> 24),
				R: uint8(px >> 16),
				G: uint8(px >> 8),
				B: uint8(px),
			})
		}
	}
	return img
}

// scaleImage scales src to width x height using the CatmullRom algorithm.
func scaleImage(src image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}
