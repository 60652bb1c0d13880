package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/Kamal-Wagle/recondition/internal/media/sniffer"
	"github.com/Kamal-Wagle/recondition/internal/media/svg"
)

const fallbackMIME = "application/octet-stream"

var (
	ErrEmptyPayload   = errors.New("empty file payload")
	ErrInvalidPayload = errors.New("invalid file payload")
)

// File is an upload with its bytes fully in memory and a resolved content type.
type File struct {
	Name     string
	MimeType string
	Data     []byte
}

func (f File) Size() int64 { return int64(len(f.Data)) }

// Ext returns the lower-cased extension of the original file name, dot included.
func (f File) Ext() string {
	return strings.ToLower(filepath.Ext(f.Name))
}

// Source is one of the accepted upload encodings: RawBytes or Base64Encoded.
type Source interface {
	decode() (name, mimeType string, data []byte, err error)
}

// RawBytes is a file received as a multipart part.
type RawBytes struct {
	Name     string
	MimeType string
	Data     []byte
}

func (r RawBytes) decode() (string, string, []byte, error) {
	return r.Name, r.MimeType, r.Data, nil
}

// Base64Encoded is a file embedded in a JSON body. Content may carry a
// data: URL prefix.
type Base64Encoded struct {
	Name     string
	MimeType string
	Content  string
}

func (b Base64Encoded) decode() (string, string, []byte, error) {
	content := strings.TrimSpace(b.Content)
	mimeType := b.MimeType
	if strings.HasPrefix(content, "data:") {
		header, payload, ok := strings.Cut(content, ",")
		if !ok {
			return "", "", nil, fmt.Errorf("%w: malformed data url", ErrInvalidPayload)
		}
		if mimeType == "" {
			mimeType, _, _ = strings.Cut(strings.TrimPrefix(header, "data:"), ";")
		}
		content = payload
	}

	data, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return "", "", nil, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, b.Name, err)
	}
	return b.Name, mimeType, data, nil
}

// FromMultipart reads a multipart part into memory.
func FromMultipart(fh *multipart.FileHeader) (RawBytes, error) {
	f, err := fh.Open()
	if err != nil {
		return RawBytes{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return RawBytes{}, fmt.Errorf("read %s: %w", fh.Filename, err)
	}

	return RawBytes{
		Name:     fh.Filename,
		MimeType: sniffer.MimeTypeFromHTTP(http.Header(fh.Header)),
		Data:     data,
	}, nil
}

// Normalize turns any Source into a File with a resolved content type.
// SVG documents are sanitized before they leave this function.
func Normalize(src Source) (File, error) {
	name, mimeType, data, err := src.decode()
	if err != nil {
		return File{}, err
	}
	if len(data) == 0 {
		return File{}, fmt.Errorf("%w: %s", ErrEmptyPayload, name)
	}

	file := File{
		Name:     filepath.Base(strings.TrimSpace(name)),
		MimeType: inferMIME(name, mimeType, data),
		Data:     data,
	}
	if file.Name == "." || file.Name == string(filepath.Separator) {
		file.Name = ""
	}

	if file.MimeType == "image/svg+xml" {
		clean, err := svg.Sanitize(data)
		if err != nil {
			return File{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		file.Data = clean
	}

	return file, nil
}

// NormalizeAll normalizes every source, stopping at the first failure.
func NormalizeAll[S Source](sources []S) ([]File, error) {
	files := make([]File, 0, len(sources))
	for _, src := range sources {
		file, err := Normalize(src)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

func inferMIME(name, declared string, data []byte) string {
	if declared = strings.TrimSpace(declared); declared != "" && declared != fallbackMIME {
		if parsed, _, err := mime.ParseMediaType(declared); err == nil {
			return parsed
		}
	}

	if ext := filepath.Ext(name); ext != "" {
		if byExt := mime.TypeByExtension(strings.ToLower(ext)); byExt != "" {
			if parsed, _, err := mime.ParseMediaType(byExt); err == nil {
				return parsed
			}
		}
	}

	if result, err := sniffer.DetectHead(head(data)); err == nil {
		return result.MIME
	}

	return fallbackMIME
}

func head(data []byte) []byte {
	if len(data) > 512 {
		return data[:512]
	}
	return data
}
