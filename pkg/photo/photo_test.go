package photo

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

func writeTestImage(t *testing.T, name string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(x), uint8(y), 128, 255})
		}
	}

	path := filepath.Join(t.TempDir(), name)
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer file.Close()

	if err := Encode(file, img, filepath.Ext(name)); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return path
}

func TestLoadFormats(t *testing.T) {
	for _, name := range []string{"a.png", "b.jpg", "c.tiff", "d.bmp"} {
		path := writeTestImage(t, name, 40, 30)

		p, err := Load(path)
		if err != nil {
			t.Fatalf("Load %s: %v", name, err)
		}
		if p.Width != 40 || p.Height != 30 {
			t.Errorf("%s: expected 40x30, got %dx%d", name, p.Width, p.Height)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.jpg")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestDecodeGarbage(t *testing.T) {
	if _, err := Decode("x.jpg", bytes.NewReader([]byte("not an image"))); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestFitWithin(t *testing.T) {
	p, err := Load(writeTestImage(t, "big.png", 400, 200))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !p.FitWithin(100, 100) {
		t.Fatal("expected resample")
	}
	if p.Width != 100 || p.Height != 50 {
		t.Errorf("expected 100x50, got %dx%d", p.Width, p.Height)
	}
	if p.OriginalWidth != 400 || p.OriginalHeight != 200 {
		t.Errorf("original size lost: %dx%d", p.OriginalWidth, p.OriginalHeight)
	}
	if b := p.Image.Bounds(); b.Dx() != 100 || b.Dy() != 50 {
		t.Errorf("raster not resized: %v", b)
	}

	if p.FitWithin(200, 200) {
		t.Error("photo that already fits should not be resampled")
	}
}

func TestStem(t *testing.T) {
	if got := Stem("/data/lot1/L12_S3_front.jpg"); got != "L12_S3_front" {
		t.Errorf("expected L12_S3_front, got %s", got)
	}
}

func TestEncodeUnsupported(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1, 1)), ".gif"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
	if IsSupported("x.gif") {
		t.Error("gif should not be supported")
	}
	if !IsSupported("X.JPG") {
		t.Error("upper-case JPG should be supported")
	}
}
