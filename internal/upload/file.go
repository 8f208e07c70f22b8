package upload

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// File is a local file ready to be sent to the media service.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Close releases Body when it is closable.
func (f File) Close() error {
	if c, ok := f.Body.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Common short-form video extensions missing from Go's builtin type table.
var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
}

// OpenFile opens path for upload. The media type comes from the extension,
// falling back to content sniffing. Callers must Close the returned File.
func OpenFile(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return File{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		f.Close()
		return File{}, fmt.Errorf("%s is a directory", path)
	}

	contentType := typeByExtension(filepath.Ext(path))
	if contentType == "" {
		if contentType, err = sniff(f); err != nil {
			f.Close()
			return File{}, fmt.Errorf("detect type of %s: %w", path, err)
		}
	}

	return File{
		Name:        filepath.Base(path),
		ContentType: contentType,
		Size:        info.Size(),
		Body:        f,
	}, nil
}

func typeByExtension(ext string) string {
	ext = strings.ToLower(ext)
	if t, ok := videoTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		if base, _, err := mime.ParseMediaType(t); err == nil {
			return base
		}
		return t
	}
	return ""
}

func sniff(f *os.File) (string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	t := http.DetectContentType(head[:n])
	if base, _, err := mime.ParseMediaType(t); err == nil {
		return base, nil
	}
	return t, nil
}
