package thumbnail

import (
	"bytes"
	"errors"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

var ErrUnsupportedFormat = errors.New("unsupported image format")

// Shape selects the thumbnail aspect ratio.
type Shape string

const (
	ShapeSquare Shape = "square"
	ShapeWide   Shape = "16:9"
)

// Generator produces fixed-size PNG thumbnails. It is pure: the same input
// bytes always produce the same output bytes.
type Generator struct {
	width  int
	height int
}

// New builds a generator for the configured shape. Size is the edge length
// for square thumbnails and the width for wide ones.
func New(shape Shape, size int) *Generator {
	switch shape {
	case ShapeWide:
		if size <= 0 {
			size = 256
		}
		return &Generator{width: size, height: size * 9 / 16}
	default:
		if size <= 0 {
			size = 128
		}
		return &Generator{width: size, height: size}
	}
}

// Generate decodes the source, center-crops it to the target aspect, resizes
// with Catmull-Rom and encodes PNG.
func (g *Generator) Generate(source []byte) ([]byte, error) {
	src, err := decode(source)
	if err != nil {
		return nil, err
	}

	cropped := centerCrop(src, g.width, g.height)
	dst := image.NewRGBA(image.Rect(0, 0, g.width, g.height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, cropped, draw.Src, nil)

	var out bytes.Buffer
	if err := png.Encode(&out, dst); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// decode sniffs the format explicitly so unsupported registered formats
// cannot slip through image.Decode.
func decode(source []byte) (image.Image, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(source))
	if err != nil {
		if probe, werr := webp.Decode(bytes.NewReader(source)); werr == nil {
			return probe, nil
		}
		return nil, ErrUnsupportedFormat
	}

	switch format {
	case "png":
		img, err := png.Decode(bytes.NewReader(source))
		if err != nil {
			return nil, ErrUnsupportedFormat
		}
		return img, nil
	case "jpeg":
		img, err := jpeg.Decode(bytes.NewReader(source))
		if err != nil {
			return nil, ErrUnsupportedFormat
		}
		return img, nil
	case "gif":
		// First frame only.
		img, err := gif.Decode(bytes.NewReader(source))
		if err != nil {
			return nil, ErrUnsupportedFormat
		}
		return img, nil
	case "webp":
		img, err := webp.Decode(bytes.NewReader(source))
		if err != nil {
			return nil, ErrUnsupportedFormat
		}
		return img, nil
	default:
		return nil, ErrUnsupportedFormat
	}
}

// centerCrop returns the largest centered rectangle of the source matching
// the target aspect ratio.
func centerCrop(src image.Image, targetW, targetH int) image.Rectangle {
	bounds := src.Bounds()
	srcW := bounds.Dx()
	srcH := bounds.Dy()

	cropW := srcW
	cropH := srcW * targetH / targetW
	if cropH > srcH {
		cropH = srcH
		cropW = srcH * targetW / targetH
	}

	x0 := bounds.Min.X + (srcW-cropW)/2
	y0 := bounds.Min.Y + (srcH-cropH)/2
	return image.Rect(x0, y0, x0+cropW, y0+cropH)
}
