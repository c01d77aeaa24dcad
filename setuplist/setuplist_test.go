package setuplist_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartgraph/cartgraph/setuplist"
)

func TestWriteReadRoundTrip(t *testing.T) {
	t.Parallel()

	l := setuplist.New()
	l.Set("2.vm1-vm1", true, false)
	l.Set("1-", false, true)

	var buf bytes.Buffer
	require.NoError(t, l.Write(&buf))

	assert.Equal(t, "1- 0 1\n2.vm1-vm1 1 0\n", buf.String())

	parsed, err := setuplist.Read(&buf)
	require.NoError(t, err)

	entry, ok := parsed.Get("2.vm1-vm1")
	require.True(t, ok)
	assert.True(t, entry.ShouldRun)
	assert.False(t, entry.ShouldClean)
}

func TestReadFileMissingYieldsEmpty(t *testing.T) {
	t.Parallel()

	l, err := setuplist.ReadFile(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Empty(t, l.Entries())
}

func TestWriteFileRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "setup_list")

	l := setuplist.New()
	l.Set("3-vm1", true, true)

	require.NoError(t, l.WriteFile(path))

	loaded, err := setuplist.ReadFile(path)
	require.NoError(t, err)

	entry, ok := loaded.Get("3-vm1")
	require.True(t, ok)
	assert.True(t, entry.ShouldRun)
	assert.True(t, entry.ShouldClean)
}

func TestReadRejectsMalformedLine(t *testing.T) {
	t.Parallel()

	_, err := setuplist.Read(bytes.NewBufferString("only-two-fields 1\n"))
	require.Error(t, err)
}
