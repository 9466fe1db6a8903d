// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imaging processes uploaded deal logos. Uploads are re-encoded
// with pure Go codecs, which also strips EXIF metadata.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decoder

	"github.com/mrpdeals/mrpdeals-go/internal/util"
)

// Supported logo MIME types.
const (
	MimeTypeJPEG = "image/jpeg"
	MimeTypePNG  = "image/png"
	MimeTypeGIF  = "image/gif"
	MimeTypeWebP = "image/webp"
)

// Logo output dimensions.
const (
	logoMaxSize   = 512 // logos are fitted within logoMaxSize x logoMaxSize
	thumbSize     = 128 // thumbnails are cropped square
	logoQuality   = 90
	thumbFilename = "thumb.jpg"
)

// Result describes a processed logo on disk.
type Result struct {
	Width     int
	Height    int
	MimeType  string
	Size      int64
	LogoPath  string
	ThumbPath string
}

// Processor resizes and stores deal logos under the upload directory.
type Processor struct {
	uploadDir string
}

// NewProcessor creates a logo processor rooted at uploadDir.
func NewProcessor(uploadDir string) *Processor {
	return &Processor{uploadDir: uploadDir}
}

// ProcessLogo decodes an uploaded image, auto-rotates it per EXIF
// orientation, fits it within the logo bounds and writes the logo plus a
// square thumbnail under logos/<uuid>/.
func (p *Processor) ProcessLogo(reader io.Reader, uuid, filename string) (*Result, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read image data: %w", err)
	}

	format := detectFormat(data)
	if format == "" {
		return nil, fmt.Errorf("unsupported image format")
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	orientation := readExifOrientation(bytes.NewReader(data))
	img = applyOrientation(img, orientation)

	bounds := img.Bounds()
	if bounds.Dx() > logoMaxSize || bounds.Dy() > logoMaxSize {
		img = imaging.Fit(img, logoMaxSize, logoMaxSize, imaging.Lanczos)
		bounds = img.Bounds()
	}

	encoded, err := encodeImage(img, format, logoQuality)
	if err != nil {
		return nil, fmt.Errorf("encode logo: %w", err)
	}

	subDir := filepath.Join("logos", uuid)
	logoPath, err := p.saveImageFile(subDir, filename, encoded)
	if err != nil {
		return nil, fmt.Errorf("save logo: %w", err)
	}

	thumb := imaging.Fill(img, thumbSize, thumbSize, imaging.Center, imaging.Lanczos)
	thumbData, err := encodeImage(thumb, "jpeg", logoQuality)
	if err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	thumbPath, err := p.saveImageFile(subDir, thumbFilename, thumbData)
	if err != nil {
		return nil, fmt.Errorf("save thumbnail: %w", err)
	}

	return &Result{
		Width:     bounds.Dx(),
		Height:    bounds.Dy(),
		MimeType:  formatToMimeType(format),
		Size:      int64(len(encoded)),
		LogoPath:  logoPath,
		ThumbPath: thumbPath,
	}, nil
}

// IsImage checks if a MIME type is a processable logo format.
func (p *Processor) IsImage(mimeType string) bool {
	switch mimeType {
	case MimeTypeJPEG, MimeTypePNG, MimeTypeGIF, MimeTypeWebP:
		return true
	default:
		return false
	}
}

// DetectMimeType detects the MIME type of image data.
func (p *Processor) DetectMimeType(data []byte) string {
	contentType := http.DetectContentType(data)
	// http.DetectContentType returns types like "image/jpeg; charset=utf-8"
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = contentType[:idx]
	}
	return contentType
}

// DeleteLogo removes all files for a logo UUID.
func (p *Processor) DeleteLogo(uuid string) error {
	safe := filepath.Base(uuid)
	if safe == "." || safe == ".." || safe == "" {
		return fmt.Errorf("invalid logo id")
	}
	dir := filepath.Join(p.uploadDir, "logos", safe)
	if err := os.RemoveAll(dir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete logo files: %w", err)
	}
	return nil
}

// readExifOrientation reads the EXIF orientation tag from image data.
// Returns 1 (normal) if orientation cannot be determined.
func readExifOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}

	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}

	orientation, err := tag.Int(0)
	if err != nil {
		return 1
	}

	return orientation
}

// applyOrientation applies EXIF orientation transformation to an image.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.FlipH(imaging.Rotate270(img))
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.FlipH(imaging.Rotate90(img))
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// encodeImage encodes an image to bytes with the specified format and quality.
func encodeImage(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case "jpeg", "jpg":
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, err
		}
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
	case "gif":
		if err := gif.Encode(&buf, img, nil); err != nil {
			return nil, err
		}
	default:
		// WebP encoding is not available in pure Go, output JPEG
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

// detectFormat detects the image format from raw bytes.
func detectFormat(data []byte) string {
	contentType := http.DetectContentType(data)
	// Explicitly reject TIFF (CVE-2023-36308 in disintegration/imaging)
	if strings.Contains(contentType, "tiff") {
		return ""
	}
	switch {
	case strings.Contains(contentType, "jpeg"):
		return "jpeg"
	case strings.Contains(contentType, "png"):
		return "png"
	case strings.Contains(contentType, "gif"):
		return "gif"
	case strings.Contains(contentType, "webp"):
		return "webp"
	default:
		return ""
	}
}

// formatToMimeType converts format string to MIME type.
func formatToMimeType(format string) string {
	switch format {
	case "jpeg", "jpg":
		return MimeTypeJPEG
	case "png":
		return MimeTypePNG
	case "gif":
		return MimeTypeGIF
	case "webp":
		return MimeTypeWebP
	default:
		return "application/octet-stream"
	}
}

// saveImageFile creates the directory if needed and saves image data.
// The filename is sanitized and the target is validated to stay within
// the upload directory.
func (p *Processor) saveImageFile(subDir, filename string, data []byte) (string, error) {
	safeFilename, err := util.SanitizeFilename(filename)
	if err != nil {
		return "", err
	}

	targetDir, err := util.SafeJoinPath(p.uploadDir, subDir)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}

	filePath := filepath.Join(targetDir, safeFilename)
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}
	return filePath, nil
}
