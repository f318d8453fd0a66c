package docstore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/pkg/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), logger.New("test"))
	require.NoError(t, err)
	return s
}

func TestSaveTextAndRead(t *testing.T) {
	s := newTestStore(t)

	path, size, err := s.SaveText("id-1", "hello")
	require.NoError(t, err)
	assert.Equal(t, int64(5), size)
	assert.Equal(t, filepath.Join(s.Root(), "id-1.txt"), path)

	content, err := s.ReadText(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", content)
}

func TestSaveUpload(t *testing.T) {
	s := newTestStore(t)

	path, size, err := s.SaveUpload("id-2", ".pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, int64(8), size)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data), "bytes are persisted verbatim")
}

func TestFindProbesExtensionsInOrder(t *testing.T) {
	s := newTestStore(t)

	_, _, err := s.SaveUpload("id-3", ".pdf", strings.NewReader("pdf bytes"))
	require.NoError(t, err)
	_, _, err = s.SaveText("id-3", "text wins")
	require.NoError(t, err)

	_, ext, err := s.Find("id-3")
	require.NoError(t, err)
	assert.Equal(t, ".txt", ext, ".txt has priority over .pdf")
}

func TestFindNotFound(t *testing.T) {
	s := newTestStore(t)

	_, _, err := s.Find("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReadTextReplacesInvalidUTF8(t *testing.T) {
	s := newTestStore(t)

	path, _, err := s.SaveUpload("id-4", ".txt", strings.NewReader("ok\xffbad"))
	require.NoError(t, err)

	content, err := s.ReadText(path)
	require.NoError(t, err)
	assert.Contains(t, content, "�")
	assert.Contains(t, content, "ok")
}
