// Package photo loads, resizes and writes specimen photographs.
package photo

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
)

// JPEGQuality is used for every JPEG export
const JPEGQuality = 95

// Photo is a decoded specimen image
type Photo struct {
	Path   string
	Format string      // Decoder name reported by image.Decode
	Image  image.Image // Displayed raster; all image-space coordinates refer to it
	Width  int
	Height int

	// Size of the file before any display fitting
	OriginalWidth  int
	OriginalHeight int
}

// Stem returns the file name without directory and extension
func (p *Photo) Stem() string {
	return Stem(p.Path)
}

// Stem returns the file name of path without directory and extension
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Load decodes an image file. JPEG, PNG, TIFF and BMP are supported.
func Load(path string) (*Photo, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	return Decode(path, file)
}

// Decode reads an image from r, recording path as its origin
func Decode(path string, r io.Reader) (*Photo, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", filepath.Base(path), err)
	}

	bounds := img.Bounds()
	return &Photo{
		Path:           path,
		Format:         format,
		Image:          img,
		Width:          bounds.Dx(),
		Height:         bounds.Dy(),
		OriginalWidth:  bounds.Dx(),
		OriginalHeight: bounds.Dy(),
	}, nil
}

// FitWithin shrinks the photo so it fits inside maxW x maxH, preserving the
// aspect ratio. Photos that already fit are left alone. Returns true when the
// raster was resampled.
func (p *Photo) FitWithin(maxW, maxH int) bool {
	if maxW <= 0 || maxH <= 0 || (p.Width <= maxW && p.Height <= maxH) {
		return false
	}

	scale := min(float64(maxW)/float64(p.Width), float64(maxH)/float64(p.Height))
	w := max(1, int(float64(p.Width)*scale))
	h := max(1, int(float64(p.Height)*scale))

	p.Image = Resize(p.Image, w, h)
	p.Width = w
	p.Height = h
	return true
}

// Resize resamples img to w x h with Catmull-Rom filtering
func Resize(img image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

// ToRGBA returns a mutable copy of img
func ToRGBA(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
	return dst
}

// IsSupported reports whether path has an extension this package can read and write
func IsSupported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png", ".tif", ".tiff", ".bmp":
		return true
	}
	return false
}

// Encode writes img to w in the format implied by ext (".jpg", ".png", ...)
func Encode(w io.Writer, img image.Image, ext string) error {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: JPEGQuality})
	case ".png":
		return png.Encode(w, img)
	case ".tif", ".tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case ".bmp":
		return bmp.Encode(w, img)
	default:
		return fmt.Errorf("unsupported image format: %s", ext)
	}
}
