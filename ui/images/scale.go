// Package images prepares region captures for preview.
package images

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"
)

// EncodePNG encodes an image to PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Magnify scales src up by an integer factor with nearest-neighbour
// sampling so single pixels stay crisp. factor < 2 returns src unchanged.
func Magnify(src image.Image, factor int) image.Image {
	if src == nil || factor < 2 {
		return src
	}
	b := src.Bounds()
	return imaging.Resize(src, b.Dx()*factor, b.Dy()*factor, imaging.NearestNeighbor)
}

// ScaleToFit performs a nearest-neighbour scale so that the returned image fits within
// maxW x maxH preserving aspect ratio. If the source already fits, the original is returned.
func ScaleToFit(src image.Image, maxW, maxH int) image.Image {
	if src == nil {
		return nil
	}
	b := src.Bounds()
	if b.Dx() <= maxW && b.Dy() <= maxH {
		return src
	}
	if maxW < 1 {
		maxW = 1
	}
	if maxH < 1 {
		maxH = 1
	}
	return imaging.Fit(src, maxW, maxH, imaging.NearestNeighbor)
}
