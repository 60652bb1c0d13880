package handlers

import (
	"mime/multipart"

	"github.com/Kamal-Wagle/recondition/internal/media"
)

// readMultipartFiles loads and normalizes uploaded parts, keeping their order.
func readMultipartFiles(headers []*multipart.FileHeader) ([]media.File, error) {
	raw := make([]media.RawBytes, 0, len(headers))
	for _, fh := range headers {
		part, err := media.FromMultipart(fh)
		if err != nil {
			return nil, err
		}
		raw = append(raw, part)
	}
	return media.NormalizeAll(raw)
}
