package signature

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"strings"
)

const pngDataURLPrefix = "data:image/png;base64,"

var (
	// ErrInvalidDataURL is returned for strings that are not base64 image data URLs
	ErrInvalidDataURL = errors.New("invalid image data URL")

	// ErrImageTooLarge is returned for images whose dimensions exceed the limits
	ErrImageTooLarge = errors.New("image too large")
)

// Limits bound the pixel dimensions of a decoded image
type Limits struct {
	Width  int
	Height int
}

var (
	// SignatureLimits allow four times the default pad surface
	SignatureLimits = Limits{Width: 4 * 400, Height: 4 * 150}

	// SlipLimits cover a phone photo of a payment slip
	SlipLimits = Limits{Width: 4096, Height: 4096}
)

// EncodeDataURL encodes an image as a PNG data URL
func EncodeDataURL(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode png: %w", err)
	}
	return pngDataURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeDataURL decodes a base64 PNG or JPEG data URL within SignatureLimits
func DecodeDataURL(dataURL string) (image.Image, error) {
	raw, err := payload(dataURL)
	if err != nil {
		return nil, err
	}
	if err := checkConfig(raw, SignatureLimits); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	return img, nil
}

// CheckDataURL validates a data URL from its image header alone, without
// decoding the pixels
func CheckDataURL(dataURL string, limits Limits) error {
	raw, err := payload(dataURL)
	if err != nil {
		return err
	}
	return checkConfig(raw, limits)
}

func payload(dataURL string) ([]byte, error) {
	header, data, ok := strings.Cut(dataURL, ",")
	if !ok || !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") {
		return nil, ErrInvalidDataURL
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	return raw, nil
}

func checkConfig(raw []byte, limits Limits) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	if cfg.Width > limits.Width || cfg.Height > limits.Height {
		return fmt.Errorf("%w: %w: %dx%d exceeds %dx%d",
			ErrInvalidDataURL, ErrImageTooLarge, cfg.Width, cfg.Height, limits.Width, limits.Height)
	}
	return nil
}
