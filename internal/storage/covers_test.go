package storage

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// smallest valid PNG header plus padding
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

func TestCoverStore(t *testing.T) {
	fs := afero.NewMemMapFs()
	store, err := NewCoverStore(fs, "uploads")
	require.NoError(t, err)

	t.Run("stores images", func(t *testing.T) {
		id, err := store.Save("placeholder.jpg", bytes.NewReader(pngBytes))
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(id, ".png"))

		data, err := afero.ReadFile(fs, "uploads/"+id)
		require.NoError(t, err)
		assert.Equal(t, pngBytes, data)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/"+id, nil)
		store.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)

		require.NoError(t, store.Remove(id))
		exists, _ := afero.Exists(fs, "uploads/"+id)
		assert.False(t, exists)
	})

	t.Run("rejects markdown", func(t *testing.T) {
		_, err := store.Save("test.md", strings.NewReader("# not an image"))
		assert.ErrorIs(t, err, ErrNotImage)
	})

	t.Run("rejects empty upload", func(t *testing.T) {
		_, err := store.Save("empty.png", strings.NewReader(""))
		assert.ErrorIs(t, err, ErrNotImage)
	})

	t.Run("no directory listing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		store.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("remove refuses paths", func(t *testing.T) {
		assert.Error(t, store.Remove("../secret"))
	})
}
