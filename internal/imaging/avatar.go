// Package imaging checks uploaded avatars and scales down oversized ones.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

var ErrNotImage = errors.New("not a decodable image")

const jpegQuality = 85

// Avatar is an upload after normalization. Ext is set when the image was re-encoded.
type Avatar struct {
	Data        []byte
	Format      string
	ContentType string
	Ext         string
	Width       int
	Height      int
}

// Normalize decodes data and, when either side exceeds maxSide, scales it to
// fit and re-encodes it (JPEG stays JPEG, everything else becomes PNG).
// Images within bounds are returned untouched.
func Normalize(data []byte, maxSide int) (*Avatar, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	if maxSide <= 0 || (cfg.Width <= maxSide && cfg.Height <= maxSide) {
		return &Avatar{
			Data:        data,
			Format:      format,
			ContentType: contentType(format),
			Width:       cfg.Width,
			Height:      cfg.Height,
		}, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	dst := image.NewRGBA(fit(img.Bounds(), maxSide))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	out := "png"
	if format == "jpeg" {
		out = "jpeg"
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality})
	} else {
		err = png.Encode(&buf, dst)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s avatar: %w", out, err)
	}

	return &Avatar{
		Data:        buf.Bytes(),
		Format:      out,
		ContentType: contentType(out),
		Ext:         extension(out),
		Width:       dst.Bounds().Dx(),
		Height:      dst.Bounds().Dy(),
	}, nil
}

func fit(b image.Rectangle, maxSide int) image.Rectangle {
	w, h := b.Dx(), b.Dy()
	if w >= h {
		return image.Rect(0, 0, maxSide, max(1, h*maxSide/w))
	}
	return image.Rect(0, 0, max(1, w*maxSide/h), maxSide)
}

func contentType(format string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	case "bmp":
		return "image/bmp"
	default:
		return "application/octet-stream"
	}
}

func extension(format string) string {
	if format == "jpeg" {
		return ".jpg"
	}
	return "." + format
}
