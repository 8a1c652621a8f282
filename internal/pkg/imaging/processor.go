package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// Creative holds the encoded renditions of an uploaded ad image
type Creative struct {
	Feed        []byte // fitted within MaxWidth x MaxHeight
	Square      []byte // center-cropped SquareSize x SquareSize
	ContentType string
	Extension   string
	Width       int
	Height      int
}

// Config for creative processing
type Config struct {
	MaxWidth   int // default 1200
	MaxHeight  int // default 1200
	SquareSize int // default 1080
	Quality    int // JPEG quality 1-100 (default 85)
}

// DefaultConfig returns default processing config
func DefaultConfig() Config {
	return Config{
		MaxWidth:   1200,
		MaxHeight:  1200,
		SquareSize: 1080,
		Quality:    85,
	}
}

// Processor handles image processing
type Processor struct {
	config Config
}

// NewProcessor creates image processor
func NewProcessor(config Config) *Processor {
	return &Processor{config: config}
}

// Process decodes the upload and produces the feed and square renditions
func (p *Processor) Process(reader io.Reader) (*Creative, error) {
	data, err := io.ReadAll(io.LimitReader(reader, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if int64(len(data)) > MaxFileSize {
		return nil, ErrTooLarge
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	feed := img
	if img.Bounds().Dx() > p.config.MaxWidth || img.Bounds().Dy() > p.config.MaxHeight {
		feed = imaging.Fit(img, p.config.MaxWidth, p.config.MaxHeight, imaging.Lanczos)
	}

	result := &Creative{
		ContentType: mimeFromFormat(format),
		Extension:   extFromFormat(format),
		Width:       feed.Bounds().Dx(),
		Height:      feed.Bounds().Dy(),
	}

	if result.Feed, err = p.encode(feed, format); err != nil {
		return nil, fmt.Errorf("failed to encode feed image: %w", err)
	}

	square := imaging.Fill(img, p.config.SquareSize, p.config.SquareSize, imaging.Center, imaging.Lanczos)
	if result.Square, err = p.encode(square, format); err != nil {
		return nil, fmt.Errorf("failed to encode square image: %w", err)
	}

	return result, nil
}

// ValidateType checks if file is a valid image type
func ValidateType(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg", ".png":
		return true
	default:
		return false
	}
}

// MaxFileSize in bytes (10MB)
const MaxFileSize int64 = 10 * 1024 * 1024

func (p *Processor) encode(img image.Image, format string) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
	default:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: p.config.Quality}); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

func mimeFromFormat(format string) string {
	if format == "png" {
		return "image/png"
	}
	return "image/jpeg"
}

func extFromFormat(format string) string {
	if format == "png" {
		return ".png"
	}
	return ".jpg"
}

// CreativePaths returns storage keys for the feed and square renditions of a variant image
func CreativePaths(campaignID, variantID int64, name, ext string) (feed, square string) {
	feed = fmt.Sprintf("creatives/%d/%d/%s%s", campaignID, variantID, name, ext)
	square = fmt.Sprintf("creatives/%d/%d/%s_square%s", campaignID, variantID, name, ext)
	return
}
