// Package scanning locates and decodes the QR code in an uploaded receipt
// artifact: a photo in any common phone-camera format, or a PDF.
package scanning

// Reader extracts the raw QR payload from an uploaded artifact.
type Reader interface {
	// ReadQR decodes the QR code in the given file data and returns its
	// raw text payload.
	ReadQR(data []byte, contentType string) (string, error)
}
