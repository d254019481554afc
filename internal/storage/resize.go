package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/draw"
)

var (
	ErrInvalidDimensions = errors.New("width or height must be positive")
	ErrUnsupportedImage  = errors.New("unsupported image format")
)

// MaxDimension bounds resize targets.
const MaxDimension = 8000

// TargetSize fills in a zero side from the source aspect ratio.
func TargetSize(srcW, srcH, width, height int) (int, int, error) {
	if width < 0 || height < 0 || (width == 0 && height == 0) || width > MaxDimension || height > MaxDimension {
		return 0, 0, ErrInvalidDimensions
	}
	if srcW <= 0 || srcH <= 0 {
		return 0, 0, ErrUnsupportedImage
	}
	if width == 0 {
		width = max(1, (height*srcW+srcH/2)/srcH)
	}
	if height == 0 {
		height = max(1, (width*srcH+srcW/2)/srcW)
	}
	return width, height, nil
}

// Resize decodes an image, scales it and re-encodes it in its original format.
func Resize(r io.Reader, width, height int) ([]byte, string, error) {
	src, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	bounds := src.Bounds()
	w, h, err := TargetSize(bounds.Dx(), bounds.Dy(), width, height)
	if err != nil {
		return nil, "", err
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 85})
	case "png":
		err = png.Encode(&buf, dst)
	case "gif":
		err = gif.Encode(&buf, dst, nil)
	default:
		return nil, "", ErrUnsupportedImage
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode %s: %w", format, err)
	}
	return buf.Bytes(), format, nil
}
