package post

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
)

// MediaDir is where uploaded attachments land on disk. main wires it from the
// -media-dir flag; post images go into the posts/ namespace below it.
var MediaDir = "uploads"

// SaveImage stores the uploaded file from the named form field and returns
// the media-relative path kept on the post row ("posts/<uuid><ext>"). A
// missing file is not an error: posts don't need an image.
func SaveImage(r *http.Request, fieldName string) (string, error) {
	file, header, err := r.FormFile(fieldName)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "", nil
		}
		return "", err
	}
	defer file.Close()

	dir := filepath.Join(MediaDir, "posts")
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return "", err
		}
	}

	fileName := uuid.New().String() + filepath.Ext(header.Filename)
	dst, err := os.Create(filepath.Join(dir, fileName))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", err
	}

	return path.Join("posts", fileName), nil
}
