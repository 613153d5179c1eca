package images

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"io/fs"
	"log/slog"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	// ErrNotFound is returned when the image path does not exist
	ErrNotFound = errors.New("image not found")
	// ErrDecode is returned when the bytes are not a supported image
	ErrDecode = errors.New("failed to load image: unsupported or corrupted file")
)

// Channels is the number of color channels every Image carries.
const Channels = 3

// Image is a decoded picture normalized to three interleaved 8-bit channels
// (R, G, B) per pixel, rows top to bottom.
type Image struct {
	Width  int
	Height int
	Pix    []uint8
}

// At3 returns the three channel values of the pixel at (x, y)
func (m *Image) At3(x, y int) (uint8, uint8, uint8) {
	i := (y*m.Width + x) * Channels
	return m.Pix[i], m.Pix[i+1], m.Pix[i+2]
}

// Load reads and decodes the image at path.
func Load(path string) (*Image, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, err := Decode(file)
	if err != nil {
		return nil, err
	}

	slog.Debug("Image loaded", "path", path, "width", img.Width, "height", img.Height)
	return img, nil
}

// Decode decodes any registered image format and normalizes it to three channels.
func Decode(r io.Reader) (*Image, error) {
	src, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	slog.Debug("Decoded image", "format", format, "color_model", fmt.Sprintf("%T", src.ColorModel()))
	return ToThreeChannel(src), nil
}

// ToThreeChannel converts src to a three channel Image.
// Grayscale input is replicated into every channel; alpha is dropped.
// No other preprocessing is applied.
func ToThreeChannel(src image.Image) *Image {
	b := src.Bounds()
	out := &Image{
		Width:  b.Dx(),
		Height: b.Dy(),
		Pix:    make([]uint8, b.Dx()*b.Dy()*Channels),
	}

	i := 0
	switch s := src.(type) {
	case *image.Gray:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := s.Pix[(y-b.Min.Y)*s.Stride:]
			for x := 0; x < b.Dx(); x++ {
				v := row[x]
				out.Pix[i], out.Pix[i+1], out.Pix[i+2] = v, v, v
				i += Channels
			}
		}
	case *image.Gray16:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				v := uint8(s.Gray16At(x, y).Y >> 8)
				out.Pix[i], out.Pix[i+1], out.Pix[i+2] = v, v, v
				i += Channels
			}
		}
	default:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
				out.Pix[i], out.Pix[i+1], out.Pix[i+2] = c.R, c.G, c.B
				i += Channels
			}
		}
	}

	return out
}

// RGBA returns a copy of m as an opaque *image.RGBA.
func (m *Image) RGBA() *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, m.Width, m.Height))
	for p, d := 0, 0; p < len(m.Pix); p, d = p+Channels, d+4 {
		dst.Pix[d] = m.Pix[p]
		dst.Pix[d+1] = m.Pix[p+1]
		dst.Pix[d+2] = m.Pix[p+2]
		dst.Pix[d+3] = 0xff
	}
	return dst
}

// EncodePNG encodes m for engines that take encoded image bytes
func (m *Image) EncodePNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, m.RGBA()); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// Dimensions returns the width and height of the image at path without
// decoding the pixel data.
func Dimensions(path string) (int, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer file.Close()

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, err
	}

	return cfg.Width, cfg.Height, nil
}
