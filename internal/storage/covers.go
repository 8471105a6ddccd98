package storage

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/spf13/afero"
)

var ErrNotImage = errors.New("cover image must be an image file")

var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

// CoverStore keeps uploaded cover images under a single directory.
type CoverStore struct {
	fs  afero.Fs
	dir string
}

func NewCoverStore(fs afero.Fs, dir string) (*CoverStore, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, goerr.Wrap(err, "failed to create upload dir", goerr.V("dir", dir))
	}
	return &CoverStore{fs: fs, dir: dir}, nil
}

// Save stores r if its content sniffs as an image and returns the stored
// identifier. filename is only used as a fallback for the extension.
func (s *CoverStore) Save(filename string, r io.Reader) (string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", goerr.Wrap(err, "failed to read upload")
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	if !strings.HasPrefix(contentType, "image/") {
		return "", goerr.Wrap(ErrNotImage, "rejected upload", goerr.V("content_type", contentType), goerr.V("filename", filename))
	}

	ext, ok := imageExtensions[contentType]
	if !ok {
		ext = strings.ToLower(filepath.Ext(filename))
	}
	id := uuid.NewString() + ext

	f, err := s.fs.Create(path.Join(s.dir, id))
	if err != nil {
		return "", goerr.Wrap(err, "failed to create cover file", goerr.V("id", id))
	}
	defer f.Close()

	if _, err := io.Copy(f, io.MultiReader(bytes.NewReader(head), r)); err != nil {
		_ = s.fs.Remove(path.Join(s.dir, id))
		return "", goerr.Wrap(err, "failed to write cover file", goerr.V("id", id))
	}

	return id, nil
}

func (s *CoverStore) Remove(id string) error {
	if id == "" || id != path.Base(id) {
		return goerr.New("invalid cover id", goerr.V("id", id))
	}
	if err := s.fs.Remove(path.Join(s.dir, id)); err != nil && !os.IsNotExist(err) {
		return goerr.Wrap(err, "failed to remove cover file", goerr.V("id", id))
	}
	return nil
}

// Handler serves stored covers; mount it with the URL prefix stripped.
// Directory listings are not served.
func (s *CoverStore) Handler() http.Handler {
	files := http.FileServer(afero.NewHttpFs(s.fs).Dir(s.dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}
