// Package metadata records one audit entry per dispatched operation.
//
// The request router only ever inspects whether a target is suppressed
// and where its output resolves to; the record format and the writing
// itself live entirely here.
package metadata

import (
	"encoding/json"
	"io"
	"time"

	"github.com/beevik/etree"

	"github.com/arthur-debert/envelope/pkg/errors"
	"github.com/arthur-debert/envelope/pkg/paths"
	"github.com/arthur-debert/envelope/pkg/types"
)

// Mode controls how the metadata output file is opened
type Mode string

const (
	// ModeOverwrite truncates the output on every record, keeping only
	// the most recent one
	ModeOverwrite Mode = "w"
	// ModeAppend keeps one record per line/document across operations
	ModeAppend Mode = "a"
)

// Format selects the record serialization
type Format string

const (
	// FormatJSON writes one JSON object per line
	FormatJSON Format = "json"
	// FormatXML writes one XML document per record
	FormatXML Format = "xml"
)

// Target describes where (and whether) metadata is written. The zero
// value is not meaningful; use New or Suppressed.
type Target struct {
	Suppressed bool
	OutputFile string
	Mode       Mode
	Format     Format
}

// New creates a metadata target writing to the given file path or the
// stdout marker.
func New(outputFile string, mode Mode, format Format) Target {
	if format == "" {
		format = FormatJSON
	}
	return Target{OutputFile: outputFile, Mode: mode, Format: format}
}

// Suppressed creates a target that never writes anything.
func Suppressed() Target {
	return Target{Suppressed: true}
}

// Record is one audit entry describing a dispatched operation.
type Record struct {
	Mode              string            `json:"mode"`
	Input             string            `json:"input"`
	Output            string            `json:"output"`
	Timestamp         time.Time         `json:"timestamp"`
	EncryptionContext map[string]string `json:"encryption_context,omitempty"`
}

// Writer serializes records to the target. A suppressed target yields a
// writer whose Write is a no-op.
type Writer struct {
	target Target
	fs     types.FS
	stdout io.Writer
}

// Writer builds a record writer for the target. stdout is the stream
// used when the output file is the stdout marker.
func (t Target) Writer(fs types.FS, stdout io.Writer) *Writer {
	return &Writer{target: t, fs: fs, stdout: stdout}
}

// Write serializes one record. Overwrite mode truncates the output
// first, so only the latest record survives; append mode accumulates.
func (w *Writer) Write(rec Record) error {
	if w.target.Suppressed {
		return nil
	}

	payload, err := w.serialize(rec)
	if err != nil {
		return err
	}

	if paths.IsStream(w.target.OutputFile) {
		_, err := w.stdout.Write(payload)
		return errors.Wrap(err, errors.ErrMetadataWrite, "cannot write metadata to stdout")
	}

	var out io.WriteCloser
	if w.target.Mode == ModeAppend {
		out, err = w.fs.OpenAppend(w.target.OutputFile)
	} else {
		out, err = w.fs.Create(w.target.OutputFile)
	}
	if err != nil {
		return errors.Wrapf(err, errors.ErrMetadataWrite, "cannot open metadata output %s", w.target.OutputFile)
	}
	defer func() { _ = out.Close() }()

	if _, err := out.Write(payload); err != nil {
		return errors.Wrapf(err, errors.ErrMetadataWrite, "cannot write metadata to %s", w.target.OutputFile)
	}
	return nil
}

func (w *Writer) serialize(rec Record) ([]byte, error) {
	switch w.target.Format {
	case FormatXML:
		doc := etree.NewDocument()
		root := doc.CreateElement("record")
		root.CreateElement("mode").SetText(rec.Mode)
		root.CreateElement("input").SetText(rec.Input)
		root.CreateElement("output").SetText(rec.Output)
		root.CreateElement("timestamp").SetText(rec.Timestamp.Format(time.RFC3339))
		if len(rec.EncryptionContext) > 0 {
			ctx := root.CreateElement("encryption_context")
			for k, v := range rec.EncryptionContext {
				pair := ctx.CreateElement("pair")
				pair.CreateAttr("key", k)
				pair.SetText(v)
			}
		}
		data, err := doc.WriteToBytes()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrMetadataWrite, "cannot serialize metadata record")
		}
		return append(data, '\n'), nil
	default:
		data, err := json.Marshal(rec)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrMetadataWrite, "cannot serialize metadata record")
		}
		return append(data, '\n'), nil
	}
}
