package processing

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/menta2k/image-annotator/pkg/types"
)

func createTestImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 200, 255})
		}
	}
	return img
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeBytes(t *testing.T) {
	p := NewProcessor()
	img, err := p.DecodeBytes(pngBytes(t, createTestImage(40, 30)))
	if err != nil {
		t.Fatalf("DecodeBytes failed: %v", err)
	}
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 30 {
		t.Errorf("unexpected bounds %v", img.Bounds())
	}
}

func TestDecodeBytesRejectsGarbage(t *testing.T) {
	p := NewProcessor()
	if _, err := p.DecodeBytes([]byte("not an image")); err == nil {
		t.Error("expected error for garbage input")
	}
	if _, err := p.DecodeBytes(nil); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestDataURLRoundTrip(t *testing.T) {
	p := NewProcessor()
	src := createTestImage(16, 8)

	s, err := p.EncodeDataURL(src, "png", 90)
	if err != nil {
		t.Fatalf("EncodeDataURL failed: %v", err)
	}
	if !strings.HasPrefix(s, "data:image/png;base64,") {
		t.Errorf("unexpected prefix: %.30s", s)
	}

	img, err := p.DecodeDataURL(s)
	if err != nil {
		t.Fatalf("DecodeDataURL failed: %v", err)
	}
	if img.Bounds().Dx() != 16 || img.Bounds().Dy() != 8 {
		t.Errorf("unexpected bounds %v", img.Bounds())
	}
	r, g, b, _ := img.At(3, 5).RGBA()
	if r>>8 != 3 || g>>8 != 5 || b>>8 != 200 {
		t.Errorf("pixel mismatch: %d %d %d", r>>8, g>>8, b>>8)
	}
}

func TestDecodeDataURLErrors(t *testing.T) {
	p := NewProcessor()
	for _, s := range []string{"data:image/png;base64", "data:image/png;base64,@@@", ""} {
		if _, err := p.DecodeDataURL(s); err == nil {
			t.Errorf("expected error for %q", s)
		}
	}
}

func TestSaveAndLoadImage(t *testing.T) {
	p := NewProcessor()
	dir := t.TempDir()
	src := createTestImage(20, 10)

	for _, format := range []string{"png", "jpg", "webp"} {
		path := filepath.Join(dir, "out."+format)
		if err := p.SaveImage(src, path, format, 90, true); err != nil {
			t.Fatalf("SaveImage(%s) failed: %v", format, err)
		}

		img, err := p.LoadImage(path)
		if err != nil {
			t.Fatalf("LoadImage(%s) failed: %v", format, err)
		}
		if img.Bounds().Dx() != 20 || img.Bounds().Dy() != 10 {
			t.Errorf("%s: unexpected bounds %v", format, img.Bounds())
		}
	}
}

func TestLoadImageMissingFile(t *testing.T) {
	if _, err := NewProcessor().LoadImage(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadImageSmartFromURL(t *testing.T) {
	body := pngBytes(t, createTestImage(12, 12))
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(body)
	}))
	defer server.Close()

	img, err := NewProcessor().LoadImageSmart(server.URL + "/fox.png")
	if err != nil {
		t.Fatalf("LoadImageSmart failed: %v", err)
	}
	if img.Bounds().Dx() != 12 {
		t.Errorf("unexpected bounds %v", img.Bounds())
	}
}

func TestLoadImageFromURLRejectsNonImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	if _, err := NewProcessor().LoadImageFromURL(server.URL); err == nil {
		t.Error("expected error for non-image content type")
	}
	if _, err := NewProcessor().LoadImageFromURL("ftp://example.com/a.png"); err == nil {
		t.Error("expected error for unsupported scheme")
	}
}

func TestCropRect(t *testing.T) {
	p := NewProcessor()
	src := createTestImage(100, 80)

	crop, err := p.CropRect(src, types.Rect{X1: 60.5, Y1: 40, X2: 20, Y2: 10.2})
	if err != nil {
		t.Fatalf("CropRect failed: %v", err)
	}
	if crop.Bounds().Dx() != 41 || crop.Bounds().Dy() != 30 {
		t.Errorf("unexpected crop size %v", crop.Bounds())
	}

	// Partially outside is clipped, fully outside fails.
	crop, err = p.CropRect(src, types.Rect{X1: 90, Y1: 70, X2: 150, Y2: 150})
	if err != nil || crop.Bounds().Dx() != 10 || crop.Bounds().Dy() != 10 {
		t.Errorf("expected clipped 10x10 crop, got %v %v", crop, err)
	}
	if _, err := p.CropRect(src, types.Rect{X1: 200, Y1: 200, X2: 300, Y2: 300}); err == nil {
		t.Error("expected error for crop outside the image")
	}
}

func TestPrepareImageForModel(t *testing.T) {
	p := NewProcessor()
	s, err := p.PrepareImageForModel(createTestImage(200, 100), "jpg", 50, 80)
	if err != nil {
		t.Fatalf("PrepareImageForModel failed: %v", err)
	}

	img, err := p.DecodeDataURL(s)
	if err != nil {
		t.Fatalf("prepared image is not decodable: %v", err)
	}
	if img.Bounds().Dx() != 50 || img.Bounds().Dy() != 25 {
		t.Errorf("expected 50x25, got %v", img.Bounds())
	}
}

func TestNormalizeFormat(t *testing.T) {
	tests := map[string]string{
		"jpeg": "jpg", ".JPG": "jpg", "webp": "webp", "png": "png", "": "png", "gif": "png",
	}
	for in, want := range tests {
		if got := NormalizeFormat(in); got != want {
			t.Errorf("NormalizeFormat(%q) = %q, want %q", in, got, want)
		}
	}
	if MimeType("jpeg") != "image/jpeg" || MimeType("webp") != "image/webp" {
		t.Error("unexpected mime types")
	}
}

func TestSaveImageCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.png")
	if err := NewProcessor().SaveImage(createTestImage(4, 4), path, "png", 0, false); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file: %v", err)
	}
}
