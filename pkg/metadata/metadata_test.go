package metadata_test

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/envelope/pkg/errors"
	"github.com/arthur-debert/envelope/pkg/filesystem"
	"github.com/arthur-debert/envelope/pkg/metadata"
)

func record(input, output string) metadata.Record {
	return metadata.Record{
		Mode:      "encrypt",
		Input:     input,
		Output:    output,
		Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestSuppressedWritesNothing(t *testing.T) {
	var stdout bytes.Buffer
	w := metadata.Suppressed().Writer(filesystem.NewOS(), &stdout)

	require.NoError(t, w.Write(record("in", "out")))
	assert.Empty(t, stdout.String())
}

func TestAppendAccumulatesJSONLines(t *testing.T) {
	tmp := t.TempDir()
	out := filepath.Join(tmp, "metadata")
	target := metadata.New(out, metadata.ModeAppend, metadata.FormatJSON)
	w := target.Writer(filesystem.NewOS(), io.Discard)

	require.NoError(t, w.Write(record("a", "a.encrypted")))
	require.NoError(t, w.Write(record("b", "b.encrypted")))

	lines := strings.Split(strings.TrimSpace(readFile(t, out)), "\n")
	require.Len(t, lines, 2)

	var rec metadata.Record
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "a", rec.Input)
	assert.Equal(t, "encrypt", rec.Mode)
}

func TestOverwriteKeepsLastRecord(t *testing.T) {
	tmp := t.TempDir()
	out := filepath.Join(tmp, "metadata")
	target := metadata.New(out, metadata.ModeOverwrite, metadata.FormatJSON)
	w := target.Writer(filesystem.NewOS(), io.Discard)

	require.NoError(t, w.Write(record("a", "a.encrypted")))
	require.NoError(t, w.Write(record("b", "b.encrypted")))

	lines := strings.Split(strings.TrimSpace(readFile(t, out)), "\n")
	require.Len(t, lines, 1)

	var rec metadata.Record
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "b", rec.Input)
}

func TestStdoutMarker(t *testing.T) {
	var stdout bytes.Buffer
	target := metadata.New("-", metadata.ModeAppend, metadata.FormatJSON)
	w := target.Writer(filesystem.NewOS(), &stdout)

	// Must be a plain nil, not a typed-nil wrapper: callers treat any
	// non-nil error as a failed operation and roll back the output.
	err := w.Write(record("in", "out"))
	require.NoError(t, err)
	assert.Nil(t, err)
	assert.Contains(t, stdout.String(), `"input":"in"`)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestStdoutMarkerWriteFailure(t *testing.T) {
	target := metadata.New("-", metadata.ModeAppend, metadata.FormatJSON)
	w := target.Writer(filesystem.NewOS(), failingWriter{})

	err := w.Write(record("in", "out"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrMetadataWrite, errors.GetErrorCode(err))
}

func TestXMLFormat(t *testing.T) {
	tmp := t.TempDir()
	out := filepath.Join(tmp, "metadata.xml")
	target := metadata.New(out, metadata.ModeOverwrite, metadata.FormatXML)
	w := target.Writer(filesystem.NewOS(), io.Discard)

	rec := record("in", "out")
	rec.EncryptionContext = map[string]string{"purpose": "test"}
	require.NoError(t, w.Write(rec))

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(readFile(t, out)))

	root := doc.SelectElement("record")
	require.NotNil(t, root)
	assert.Equal(t, "encrypt", root.SelectElement("mode").Text())
	assert.Equal(t, "in", root.SelectElement("input").Text())
	assert.Equal(t, "out", root.SelectElement("output").Text())

	ctx := root.SelectElement("encryption_context")
	require.NotNil(t, ctx)
	pair := ctx.SelectElement("pair")
	require.NotNil(t, pair)
	assert.Equal(t, "purpose", pair.SelectAttrValue("key", ""))
	assert.Equal(t, "test", pair.Text())
}

func TestDefaultFormatIsJSON(t *testing.T) {
	target := metadata.New("out", metadata.ModeAppend, "")
	assert.Equal(t, metadata.FormatJSON, target.Format)
}
