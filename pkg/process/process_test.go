package process_test

import (
	"bytes"
	"encoding/base64"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/envelope/pkg/engine"
	"github.com/arthur-debert/envelope/pkg/errors"
	"github.com/arthur-debert/envelope/pkg/filesystem"
	"github.com/arthur-debert/envelope/pkg/materials"
	"github.com/arthur-debert/envelope/pkg/metadata"
	"github.com/arthur-debert/envelope/pkg/process"
	"github.com/arthur-debert/envelope/pkg/router"
)

func newRunner(t *testing.T) *process.Runner {
	t.Helper()
	r := process.NewRunner(engine.New(), filesystem.NewOS())
	r.Stdin = strings.NewReader("")
	r.Stdout = io.Discard
	r.PromptIn = strings.NewReader("")
	r.PromptOut = io.Discard
	return r
}

func config(t *testing.T, mode engine.Mode) engine.Config {
	t.Helper()
	p, err := materials.FromConfig(map[string]string{"passphrase": "hunter2"}, nil)
	require.NoError(t, err)
	return engine.Config{Provider: p, Mode: mode}
}

func op(source, destination string) router.Operation {
	return router.Operation{
		Source:      source,
		Destination: destination,
		Metadata:    metadata.Suppressed(),
	}
}

func TestSingleFileRoundTrip(t *testing.T) {
	tmp := t.TempDir()
	source := filepath.Join(tmp, "plaintext")
	ciphertext := filepath.Join(tmp, "plaintext.encrypted")
	decrypted := filepath.Join(tmp, "plaintext.decrypted")
	require.NoError(t, os.WriteFile(source, []byte("some data here!"), 0644))

	r := newRunner(t)
	require.NoError(t, r.SingleFile(config(t, engine.Encrypt), op(source, ciphertext)))
	require.NoError(t, r.SingleFile(config(t, engine.Decrypt), op(ciphertext, decrypted)))

	data, err := os.ReadFile(decrypted)
	require.NoError(t, err)
	assert.Equal(t, "some data here!", string(data))
}

func TestSingleFileSourceIsDestination(t *testing.T) {
	tmp := t.TempDir()
	source := filepath.Join(tmp, "file")
	require.NoError(t, os.WriteFile(source, []byte("x"), 0644))

	r := newRunner(t)
	err := r.SingleFile(config(t, engine.Encrypt), op(source, source))
	require.Error(t, err)
	assert.True(t, errors.IsBadUserArgument(err))
}

func TestSingleOperationNoOverwriteSkips(t *testing.T) {
	tmp := t.TempDir()
	source := filepath.Join(tmp, "source")
	destination := filepath.Join(tmp, "destination")
	require.NoError(t, os.WriteFile(source, []byte("new data"), 0644))
	require.NoError(t, os.WriteFile(destination, []byte("precious"), 0644))

	o := op(source, destination)
	o.NoOverwrite = true

	r := newRunner(t)
	require.NoError(t, r.SingleOperation(config(t, engine.Encrypt), o))

	data, err := os.ReadFile(destination)
	require.NoError(t, err)
	assert.Equal(t, "precious", string(data))
}

func TestSingleOperationInteractive(t *testing.T) {
	tests := []struct {
		name      string
		reply     string
		overwrite bool
	}{
		{"declined", "n\n", false},
		{"accepted", "y\n", true},
		{"empty_defaults_to_no", "\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmp := t.TempDir()
			source := filepath.Join(tmp, "source")
			destination := filepath.Join(tmp, "destination")
			require.NoError(t, os.WriteFile(source, []byte("new data"), 0644))
			require.NoError(t, os.WriteFile(destination, []byte("precious"), 0644))

			o := op(source, destination)
			o.Interactive = true

			var prompt bytes.Buffer
			r := newRunner(t)
			r.PromptIn = strings.NewReader(tt.reply)
			r.PromptOut = &prompt

			require.NoError(t, r.SingleOperation(config(t, engine.Encrypt), o))
			assert.Contains(t, prompt.String(), "Overwrite existing output file")

			data, err := os.ReadFile(destination)
			require.NoError(t, err)
			if tt.overwrite {
				assert.NotEqual(t, "precious", string(data))
			} else {
				assert.Equal(t, "precious", string(data))
			}
		})
	}
}

func TestSingleOperationStdinToStdout(t *testing.T) {
	var stdout bytes.Buffer
	r := newRunner(t)
	r.Stdin = strings.NewReader("piped plaintext")
	r.Stdout = &stdout

	require.NoError(t, r.SingleOperation(config(t, engine.Encrypt), op("-", "-")))
	assert.NotEmpty(t, stdout.Bytes())
	assert.NotContains(t, stdout.String(), "piped plaintext")
}

func TestSingleOperationEncodeOutput(t *testing.T) {
	tmp := t.TempDir()
	source := filepath.Join(tmp, "source")
	destination := filepath.Join(tmp, "destination")
	require.NoError(t, os.WriteFile(source, []byte("some data"), 0644))

	o := op(source, destination)
	o.EncodeOutput = true

	r := newRunner(t)
	require.NoError(t, r.SingleOperation(config(t, engine.Encrypt), o))

	data, err := os.ReadFile(destination)
	require.NoError(t, err)
	_, err = base64.StdEncoding.DecodeString(string(data))
	assert.NoError(t, err, "output should be valid base64")
}

func TestSingleOperationDecodeInputRoundTrip(t *testing.T) {
	tmp := t.TempDir()
	source := filepath.Join(tmp, "source")
	encoded := filepath.Join(tmp, "encoded")
	decrypted := filepath.Join(tmp, "decrypted")
	require.NoError(t, os.WriteFile(source, []byte("some data"), 0644))

	r := newRunner(t)

	encOp := op(source, encoded)
	encOp.EncodeOutput = true
	require.NoError(t, r.SingleOperation(config(t, engine.Encrypt), encOp))

	decOp := op(encoded, decrypted)
	decOp.DecodeInput = true
	require.NoError(t, r.SingleOperation(config(t, engine.Decrypt), decOp))

	data, err := os.ReadFile(decrypted)
	require.NoError(t, err)
	assert.Equal(t, "some data", string(data))
}

func TestSingleOperationWritesMetadata(t *testing.T) {
	tmp := t.TempDir()
	source := filepath.Join(tmp, "source")
	destination := filepath.Join(tmp, "destination")
	metadataFile := filepath.Join(tmp, "metadata")
	require.NoError(t, os.WriteFile(source, []byte("some data"), 0644))

	o := op(source, destination)
	o.Metadata = metadata.New(metadataFile, metadata.ModeAppend, metadata.FormatJSON)

	r := newRunner(t)
	require.NoError(t, r.SingleOperation(config(t, engine.Encrypt), o))

	data, err := os.ReadFile(metadataFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"mode":"encrypt"`)
	assert.Contains(t, string(data), source)
}

func TestSingleFileRemovesPartialOutputOnFailure(t *testing.T) {
	tmp := t.TempDir()
	source := filepath.Join(tmp, "garbage")
	destination := filepath.Join(tmp, "out")
	require.NoError(t, os.WriteFile(source, []byte("not an envelope message"), 0644))

	r := newRunner(t)
	err := r.SingleFile(config(t, engine.Decrypt), op(source, destination))
	require.Error(t, err)

	_, statErr := os.Stat(destination)
	assert.True(t, os.IsNotExist(statErr), "partial output should be removed")
}

func TestDirNonrecursive(t *testing.T) {
	tmp := t.TempDir()
	source := filepath.Join(tmp, "source")
	destination := filepath.Join(tmp, "destination")
	require.NoError(t, os.Mkdir(source, 0755))
	require.NoError(t, os.Mkdir(destination, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(source, "a.txt"), []byte("a"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(source, "nested"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(source, "nested", "b.txt"), []byte("b"), 0644))

	r := newRunner(t)
	dirOp := router.DirOperation{
		Operation: op(source, destination),
		Recursive: false,
		Suffix:    ".encrypted",
	}
	require.NoError(t, r.Dir(config(t, engine.Encrypt), dirOp))

	assert.FileExists(t, filepath.Join(destination, "a.txt.encrypted"))
	assert.NoFileExists(t, filepath.Join(destination, "nested", "b.txt.encrypted"))
}

func TestDirRecursiveMirrorsLayout(t *testing.T) {
	tmp := t.TempDir()
	source := filepath.Join(tmp, "source")
	destination := filepath.Join(tmp, "destination")
	require.NoError(t, os.Mkdir(source, 0755))
	require.NoError(t, os.Mkdir(destination, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(source, "a.txt"), []byte("a"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(source, "x", "y"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(source, "x", "y", "deep.txt"), []byte("deep"), 0644))

	r := newRunner(t)
	dirOp := router.DirOperation{
		Operation: op(source, destination),
		Recursive: true,
		Suffix:    ".encrypted",
	}
	require.NoError(t, r.Dir(config(t, engine.Encrypt), dirOp))

	assert.FileExists(t, filepath.Join(destination, "a.txt.encrypted"))
	assert.FileExists(t, filepath.Join(destination, "x", "y", "deep.txt.encrypted"))
}
