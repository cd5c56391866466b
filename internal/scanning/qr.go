package scanning

import (
	"fmt"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// ZxingReader decodes QR codes with the gozxing port of the ZXing library.
// It runs fully in process; no external binary or service is involved.
type ZxingReader struct{}

// NewZxingReader creates a new ZxingReader
func NewZxingReader() *ZxingReader {
	return &ZxingReader{}
}

// ReadQR decodes the artifact into an image and scans it for a QR code.
func (z *ZxingReader) ReadQR(data []byte, contentType string) (string, error) {
	img, err := decodeUpload(data, contentType)
	if err != nil {
		return "", err
	}

	bitmap, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("preparing image for QR detection: %w", err)
	}

	// The reader keeps internal state between decodes, so each call gets a
	// fresh one.
	result, err := qrcode.NewQRCodeReader().Decode(bitmap, nil)
	if err != nil {
		return "", fmt.Errorf("no QR code found in image: %w", err)
	}
	return result.GetText(), nil
}
