// Package imageprobe reads image headers so the presentation layer can
// describe the current image without decoding its pixels.
package imageprobe

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/tiff"
)

// ErrUnsupportedFormat reports a file none of the registered decoders accept.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Info describes a decoded image header.
type Info struct {
	Width  int
	Height int
	Format string
}

// String renders the header as "WxH format".
func (i Info) String() string {
	return fmt.Sprintf("%dx%d %s", i.Width, i.Height, i.Format)
}

// Probe decodes the header of the image at path.
func Probe(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return Info{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
		}
		return Info{}, fmt.Errorf("decode image header %s: %w", path, err)
	}
	return Info{Width: cfg.Width, Height: cfg.Height, Format: format}, nil
}

// Placeholder is the text shown in place of an image that failed to decode.
func Placeholder(path string, err error) string {
	return fmt.Sprintf("[image unavailable: %s (%v)]", path, err)
}
