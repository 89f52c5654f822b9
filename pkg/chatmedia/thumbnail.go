package chatmedia

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

const thumbnailSize = 72

// ImageInfo describes a decoded image and its JPEG thumbnail.
type ImageInfo struct {
	Width     int
	Height    int
	Thumbnail []byte
}

// Thumbnail decodes an image (jpeg, png, gif or webp) and renders a small
// JPEG preview suitable for a status message.
func Thumbnail(data []byte) (ImageInfo, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return ImageInfo{}, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	thumb := imaging.Fit(img, thumbnailSize, thumbnailSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(70)); err != nil {
		return ImageInfo{}, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	return ImageInfo{
		Width:     bounds.Dx(),
		Height:    bounds.Dy(),
		Thumbnail: buf.Bytes(),
	}, nil
}
