package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"mime/multipart"
	"strings"
	"testing"
)

// memFile adapts a bytes.Reader to multipart.File.
type memFile struct {
	*bytes.Reader
}

func (memFile) Close() error { return nil }

func uploadParts(t *testing.T, data []byte, filename string) (multipart.File, *multipart.FileHeader) {
	t.Helper()
	return memFile{bytes.NewReader(data)}, &multipart.FileHeader{
		Filename: filename,
		Size:     int64(len(data)),
	}
}

func jpegBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestUploadLogo(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()
	ctx := context.Background()
	svc := NewLogoService(db, t.TempDir(), nil, testLogger())
	deals := NewDealService(db, nil, nil, testLogger())

	deal := createDealFromSpec(t, db, dealSpec{title: "A", slug: "a"})

	file, header := uploadParts(t, jpegBytes(t, 300, 200), "logo.jpg")
	logoURL, err := svc.UploadLogo(ctx, deal.ID, file, header)
	if err != nil {
		t.Fatalf("UploadLogo: %v", err)
	}

	if !strings.HasPrefix(logoURL, "/uploads/logos/") || !strings.HasSuffix(logoURL, "/logo.jpg") {
		t.Errorf("unexpected logo URL %q", logoURL)
	}

	got, err := deals.GetByID(ctx, deal.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.LogoURL.Valid || got.LogoURL.String != logoURL {
		t.Errorf("stored logo = %+v, want %q", got.LogoURL, logoURL)
	}
}

func TestUploadLogo_RejectsNonImage(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()
	ctx := context.Background()
	svc := NewLogoService(db, t.TempDir(), nil, testLogger())

	deal := createDealFromSpec(t, db, dealSpec{title: "A", slug: "a"})

	file, header := uploadParts(t, []byte("%PDF-1.4 not an image"), "logo.jpg")
	_, err := svc.UploadLogo(ctx, deal.ID, file, header)
	ve, ok := AsValidationError(err)
	if !ok {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if _, found := ve.Fields["logo"]; !found {
		t.Errorf("expected logo field error, got %v", ve.Fields)
	}
}

func TestUploadLogo_RejectsOversize(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()
	ctx := context.Background()
	svc := NewLogoService(db, t.TempDir(), nil, testLogger())

	deal := createDealFromSpec(t, db, dealSpec{title: "A", slug: "a"})

	// Declared size alone must reject the upload before reading it.
	file, header := uploadParts(t, jpegBytes(t, 10, 10), "logo.jpg")
	header.Size = MaxLogoSize + 1
	if _, err := svc.UploadLogo(ctx, deal.ID, file, header); err == nil {
		t.Fatal("expected error for oversize upload")
	}
}

func TestRemoveLogo(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()
	ctx := context.Background()
	svc := NewLogoService(db, t.TempDir(), nil, testLogger())
	deals := NewDealService(db, nil, nil, testLogger())

	deal := createDealFromSpec(t, db, dealSpec{title: "A", slug: "a"})

	file, header := uploadParts(t, jpegBytes(t, 50, 50), "logo.jpg")
	if _, err := svc.UploadLogo(ctx, deal.ID, file, header); err != nil {
		t.Fatalf("UploadLogo: %v", err)
	}

	if err := svc.RemoveLogo(ctx, deal.ID); err != nil {
		t.Fatalf("RemoveLogo: %v", err)
	}

	got, err := deals.GetByID(ctx, deal.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.LogoURL.Valid {
		t.Errorf("logo still set after RemoveLogo: %q", got.LogoURL.String)
	}
}
