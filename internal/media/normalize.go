package media

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	_ "image/png" // register PNG decoder
	"net/http"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	// MaxEdge is the largest width or height a stored image keeps.
	MaxEdge     = 2048
	JPEGQuality = 82
)

// Object is a normalised media payload ready for a BlobStore.
type Object struct {
	Data        []byte
	ContentType string
	Ext         string
}

// passthrough types are stored byte for byte. GIF stays here to keep animation.
var passthrough = map[string]string{
	"image/gif":  ".gif",
	"video/mp4":  ".mp4",
	"video/webm": ".webm",
}

var reencoded = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Normalize sniffs data and re-encodes still images as JPEG bounded by MaxEdge.
func Normalize(data []byte) (*Object, error) {
	contentType := http.DetectContentType(data)

	if ext, ok := passthrough[contentType]; ok {
		return &Object{Data: data, ContentType: contentType, Ext: ext}, nil
	}
	if !reencoded[contentType] {
		return nil, fmt.Errorf("unsupported media type %q", contentType)
	}

	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", contentType, err)
	}

	out, err := encodeJPEG(flatten(resizeToFit(decoded, MaxEdge)), JPEGQuality)
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return &Object{Data: out, ContentType: "image/jpeg", Ext: ".jpg"}, nil
}

func resizeToFit(src image.Image, maxEdge int) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxEdge && h <= maxEdge {
		return src
	}

	scale := float64(maxEdge) / float64(w)
	if hs := float64(maxEdge) / float64(h); hs < scale {
		scale = hs
	}
	newW := max(1, int(float64(w)*scale))
	newH := max(1, int(float64(h)*scale))

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

// flatten composites src over white; JPEG has no alpha channel.
func flatten(src image.Image) image.Image {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
