// Package imageutil detects, validates and resizes uploaded images.
package imageutil

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Largest image sent to the model.
const (
	MaxWidth  = 1024
	MaxHeight = 1024
)

var accepted = map[string]bool{"jpeg": true, "jpg": true, "png": true, "bmp": true}

// Format returns the lowercase format name of data, read from its header.
func Format(data []byte) (string, bool) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || format == "" {
		return "", false
	}
	return format, true
}

// Validate reports whether data is a complete jpeg, png or bmp image.
func Validate(data []byte) bool {
	format, ok := Format(data)
	if !ok || !accepted[format] {
		return false
	}
	_, _, err := image.Decode(bytes.NewReader(data))
	return err == nil
}

func MIMEType(format string) string {
	if format == "jpg" {
		format = "jpeg"
	}
	return "image/" + format
}

// Resize scales data down so that it fits in maxW x maxH, preserving the
// aspect ratio, and re-encodes it in its original format. Images that already
// fit, and images that cannot be decoded or re-encoded, are returned unchanged.
func Resize(data []byte, maxW, maxH int) []byte {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data
	}
	b := src.Bounds()
	w, h := fit(b.Dx(), b.Dy(), maxW, maxH)
	if w == b.Dx() && h == b.Dy() {
		return data
	}
	out, err := encode(scale(src, w, h), format)
	if err != nil {
		return data
	}
	return out
}

// Prepare fits data in maxW x maxH like Resize and returns it as jpeg or png
// together with its MIME type. Other formats are converted to png. It reports
// false if data is not a decodable image.
func Prepare(data []byte, maxW, maxH int) ([]byte, string, bool) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", false
	}
	b := src.Bounds()
	w, h := fit(b.Dx(), b.Dy(), maxW, maxH)
	scaled := w != b.Dx() || h != b.Dy()
	if !scaled && (format == "jpeg" || format == "png") {
		return data, MIMEType(format), true
	}

	img := src
	if scaled {
		img = scale(src, w, h)
	}
	if format != "jpeg" {
		format = "png"
	}
	out, err := encode(img, format)
	if err != nil {
		return nil, "", false
	}
	return out, MIMEType(format), true
}

func scale(src image.Image, w, h int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}

func encode(img image.Image, format string) ([]byte, error) {
	var out bytes.Buffer
	var err error
	switch format {
	case "jpeg":
		err = jpeg.Encode(&out, img, &jpeg.Options{Quality: 90})
	case "png":
		err = png.Encode(&out, img)
	case "gif":
		err = gif.Encode(&out, img, nil)
	case "bmp":
		err = bmp.Encode(&out, img)
	default:
		return nil, fmt.Errorf("unsupported image format %q", format)
	}
	if err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// fit returns the largest size with the aspect ratio of w x h that is no
// bigger than maxW x maxH. It never scales up.
func fit(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}
	if w*maxH > h*maxW {
		return maxW, max(1, h*maxW/w)
	}
	return max(1, w*maxH/h), maxH
}
