package signature

import (
	"image"

	"golang.org/x/image/draw"
)

// Trim crops img to the bounding box of its ink. Transparent and near-white pixels are
// background. The second result is false when the image holds no ink at all.
func Trim(img image.Image) (*image.RGBA, bool) {
	b := img.Bounds()
	minX, minY, maxX, maxY := b.Max.X, b.Max.Y, b.Min.X-1, b.Min.Y-1

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if !isInk(img.At(x, y).RGBA()) {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}

	if maxX < minX || maxY < minY {
		return nil, false
	}

	crop := image.Rect(minX, minY, maxX+1, maxY+1)
	out := image.NewRGBA(image.Rect(0, 0, crop.Dx(), crop.Dy()))
	draw.Draw(out, out.Bounds(), img, crop.Min, draw.Src)
	return out, true
}

// TrimDataURL trims a client-side canvas export
func TrimDataURL(dataURL string) (Capture, error) {
	img, err := DecodeDataURL(dataURL)
	if err != nil {
		return Capture{}, err
	}

	trimmed, ok := Trim(img)
	if !ok {
		return Capture{Kind: CaptureEmpty}, nil
	}

	out, err := EncodeDataURL(trimmed)
	if err != nil {
		return Capture{}, err
	}

	b := trimmed.Bounds()
	return Capture{Kind: CaptureSaved, DataURL: out, Width: b.Dx(), Height: b.Dy()}, nil
}

// isInk takes 16-bit premultiplied channels as returned by color.Color.RGBA
func isInk(r, g, b, a uint32) bool {
	if a == 0 {
		return false
	}
	const nearWhite = 0xf000
	opaque := a == 0xffff
	return !(opaque && r >= nearWhite && g >= nearWhite && b >= nearWhite)
}
