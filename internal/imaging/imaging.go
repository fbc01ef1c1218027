package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/draw"
)

const (
	// DefaultMaxDimension is the bounding box uploads are shrunk into before encoding.
	DefaultMaxDimension = 400

	// MaxPixels caps the decoded size of an upload. Compressed images can be far
	// smaller on disk than in memory.
	MaxPixels = 2 * 89478485
)

var (
	ErrUnsupportedFormat = errors.New("unsupported image format (png or jpeg required)")
	ErrImageTooLarge     = errors.New("image dimensions too large")
)

// Encode serializes img as PNG and returns it as standard base64 text.
func Encode(img image.Image) (string, error) {
	if img == nil {
		return "", errors.New("image is nil")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeText reverses the text encoding produced by Encode.
func DecodeText(encoded string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode image text: %w", err)
	}
	return data, nil
}

// DataURI wraps encoded PNG text for direct use in an <img> tag.
func DataURI(encoded string) string {
	return "data:image/png;base64," + encoded
}

// DecodeUpload decodes a PNG or JPEG upload and reports the detected format.
// Images over MaxPixels are rejected from their header before any pixel
// data is decoded.
func DecodeUpload(r io.Reader) (image.Image, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, "", ErrUnsupportedFormat
		}
		return nil, "", fmt.Errorf("decode upload: %w", err)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > MaxPixels {
		return nil, format, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrImageTooLarge, cfg.Width, cfg.Height, MaxPixels)
	}

	var img image.Image
	switch format {
	case "png":
		img, err = png.Decode(bytes.NewReader(data))
	case "jpeg":
		img, err = jpeg.Decode(bytes.NewReader(data))
	default:
		return nil, format, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, format, fmt.Errorf("decode %s: %w", format, err)
	}
	return img, format, nil
}

// Thumbnail shrinks img to fit within maxDim x maxDim keeping its aspect ratio.
// Images already inside the box are returned unchanged.
func Thumbnail(img image.Image, maxDim int) image.Image {
	if maxDim <= 0 {
		maxDim = DefaultMaxDimension
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= maxDim && height <= maxDim {
		return img
	}

	scale := float64(maxDim) / float64(width)
	if alt := float64(maxDim) / float64(height); alt < scale {
		scale = alt
	}
	newWidth := max(1, int(math.Round(float64(width)*scale)))
	newHeight := max(1, int(math.Round(float64(height)*scale)))

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
