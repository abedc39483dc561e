package imagemodule

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

const (
	// TargetAspect is the width/height ratio every stored poster is
	// normalized to
	TargetAspect = 16.0 / 10.0

	// AspectTolerance is the allowed deviation before cropping kicks in
	AspectTolerance = 0.01

	// CompressionQuality is the lossy WebP quality factor for stored
	// assets; deliberately aggressive to favor storage size
	CompressionQuality = 30
)

var (
	// ErrInvalidImageData indicates the payload could not be decoded as
	// an image
	ErrInvalidImageData = errors.New("invalid image data")

	// ErrEncodeFailed indicates re-compression failed
	ErrEncodeFailed = errors.New("image encode failed")
)

// Processor normalizes uploaded images: decode, center-crop to the
// target aspect ratio, re-encode as lossy WebP.
type Processor struct{}

// NewProcessor creates a new image processor instance
func NewProcessor() *Processor {
	return &Processor{}
}

// Decode decodes arbitrary encoded image bytes
func (p *Processor) Decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err == nil {
		return img, nil
	}
	// imaging does not handle WebP
	img, werr := webp.Decode(bytes.NewReader(data))
	if werr == nil {
		return img, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrInvalidImageData, err)
}

// CropToAspect center-crops the image to the target aspect ratio. An
// image already within tolerance is returned unchanged. Wider images
// lose width symmetrically from both sides, taller ones lose height
// symmetrically from top and bottom.
func (p *Processor) CropToAspect(img image.Image) image.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return img
	}

	aspect := float64(width) / float64(height)
	if math.Abs(aspect-TargetAspect) <= AspectTolerance {
		return img
	}

	if aspect > TargetAspect {
		cropWidth := int(math.Round(float64(height) * TargetAspect))
		return imaging.CropCenter(img, cropWidth, height)
	}
	cropHeight := int(math.Round(float64(width) / TargetAspect))
	return imaging.CropCenter(img, width, cropHeight)
}

// Encode re-encodes the image as lossy WebP at the fixed quality factor
func (p *Processor) Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	opts := &webp.Options{
		Lossless: false,
		Quality:  CompressionQuality,
	}
	if err := webp.Encode(&buf, img, opts); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodeFailed, err)
	}
	return buf.Bytes(), nil
}

// Process runs the full transform: decode, crop to aspect, compress.
// It returns the cropped image alongside its encoded bytes so callers
// can populate caches without re-decoding.
func (p *Processor) Process(data []byte) (image.Image, []byte, error) {
	img, err := p.Decode(data)
	if err != nil {
		return nil, nil, err
	}
	cropped := p.CropToAspect(img)
	encoded, err := p.Encode(cropped)
	if err != nil {
		return nil, nil, err
	}
	return cropped, encoded, nil
}
