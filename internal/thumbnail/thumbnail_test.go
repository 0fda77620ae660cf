package thumbnail

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"
)

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 64, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	return img
}

func TestGenerateSquare(t *testing.T) {
	gen := New(ShapeSquare, 128)

	out, err := gen.Generate(encodePNG(t, testImage(640, 480)))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	thumb := decodePNG(t, out)
	if got := thumb.Bounds(); got.Dx() != 128 || got.Dy() != 128 {
		t.Fatalf("expected 128x128, got %dx%d", got.Dx(), got.Dy())
	}
}

func TestGenerateWide(t *testing.T) {
	gen := New(ShapeWide, 256)

	out, err := gen.Generate(encodePNG(t, testImage(1000, 300)))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	thumb := decodePNG(t, out)
	if got := thumb.Bounds(); got.Dx() != 256 || got.Dy() != 144 {
		t.Fatalf("expected 256x144, got %dx%d", got.Dx(), got.Dy())
	}
}

func TestGenerateDeterministic(t *testing.T) {
	gen := New(ShapeSquare, 128)
	source := encodePNG(t, testImage(300, 500))

	first, err := gen.Generate(source)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	second, err := gen.Generate(source)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("expected identical output for identical input")
	}
}

func TestGenerateJPEGAndGIF(t *testing.T) {
	gen := New(ShapeSquare, 64)

	var jpg bytes.Buffer
	if err := jpeg.Encode(&jpg, testImage(200, 200), nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	if _, err := gen.Generate(jpg.Bytes()); err != nil {
		t.Fatalf("generate from jpeg: %v", err)
	}

	var g bytes.Buffer
	if err := gif.Encode(&g, testImage(200, 200), nil); err != nil {
		t.Fatalf("encode gif: %v", err)
	}
	if _, err := gen.Generate(g.Bytes()); err != nil {
		t.Fatalf("generate from gif: %v", err)
	}
}

func TestGenerateUnsupported(t *testing.T) {
	gen := New(ShapeSquare, 128)

	for _, source := range [][]byte{nil, []byte("not an image"), {0x00, 0x01, 0x02}} {
		if _, err := gen.Generate(source); !errors.Is(err, ErrUnsupportedFormat) {
			t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
		}
	}
}

func TestGenerateUpscalesSmallSource(t *testing.T) {
	gen := New(ShapeSquare, 128)

	out, err := gen.Generate(encodePNG(t, testImage(16, 16)))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	thumb := decodePNG(t, out)
	if got := thumb.Bounds(); got.Dx() != 128 || got.Dy() != 128 {
		t.Fatalf("expected 128x128, got %dx%d", got.Dx(), got.Dy())
	}
}
