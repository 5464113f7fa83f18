// Package process implements the dispatch targets the router fans out
// to: the stdin/stdout operation, the single-file operation, and the
// directory walk. All encrypted bytes flow through here and the engine;
// the router never touches them.
package process

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/arthur-debert/envelope/pkg/engine"
	"github.com/arthur-debert/envelope/pkg/errors"
	"github.com/arthur-debert/envelope/pkg/logging"
	"github.com/arthur-debert/envelope/pkg/metadata"
	"github.com/arthur-debert/envelope/pkg/paths"
	"github.com/arthur-debert/envelope/pkg/router"
	"github.com/arthur-debert/envelope/pkg/types"
)

// Runner executes dispatched operations. It implements
// router.Dispatcher.
type Runner struct {
	Engine engine.Engine
	FS     types.FS

	// Stdin and Stdout back the stream markers.
	Stdin  io.Reader
	Stdout io.Writer

	// PromptIn and PromptOut carry the interactive overwrite
	// confirmation.
	PromptIn  io.Reader
	PromptOut io.Writer
}

// NewRunner builds a runner wired to the process's standard streams.
func NewRunner(e engine.Engine, fs types.FS) *Runner {
	return &Runner{
		Engine:    e,
		FS:        fs,
		Stdin:     os.Stdin,
		Stdout:    os.Stdout,
		PromptIn:  os.Stdin,
		PromptOut: os.Stderr,
	}
}

// SingleOperation runs one encrypt/decrypt operation between the
// resolved source and destination streams. An existing destination is
// skipped under no-overwrite, or confirmed interactively when
// requested.
func (r *Runner) SingleOperation(cfg engine.Config, op router.Operation) error {
	logger := logging.GetLogger("process")

	write, err := r.shouldWrite(op)
	if err != nil {
		return err
	}
	if !write {
		logger.Warn().Str("destination", op.Destination).Msg("Skipping existing output file")
		return nil
	}

	in, closeIn, err := r.openSource(op)
	if err != nil {
		return err
	}
	defer closeIn()

	out, closeOut, err := r.openDestination(op)
	if err != nil {
		return err
	}

	if op.DecodeInput {
		in = base64.NewDecoder(base64.StdEncoding, in)
	}

	var encoder io.WriteCloser
	target := out
	if op.EncodeOutput {
		encoder = base64.NewEncoder(base64.StdEncoding, out)
		target = encoder
	}

	streamErr := r.Engine.Stream(cfg, in, target)
	if encoder != nil {
		if err := encoder.Close(); err != nil && streamErr == nil {
			streamErr = errors.Wrap(err, errors.ErrFileWrite, "cannot flush encoded output")
		}
	}
	if err := closeOut(); err != nil && streamErr == nil {
		streamErr = errors.Wrapf(err, errors.ErrFileWrite, "cannot close %s", op.Destination)
	}
	if streamErr != nil {
		return streamErr
	}

	logger.Info().
		Str("mode", string(cfg.Mode)).
		Str("source", op.Source).
		Str("destination", op.Destination).
		Msg("Operation complete")

	return op.Metadata.Writer(r.FS, r.Stdout).Write(metadata.Record{
		Mode:              string(cfg.Mode),
		Input:             op.Source,
		Output:            op.Destination,
		Timestamp:         time.Now().UTC(),
		EncryptionContext: cfg.EncryptionContext,
	})
}

func (r *Runner) openSource(op router.Operation) (io.Reader, func(), error) {
	if paths.IsStream(op.Source) {
		return r.Stdin, func() {}, nil
	}
	f, err := r.FS.Open(op.Source)
	if err != nil {
		return nil, nil, errors.Wrapf(err, errors.ErrFileAccess, "cannot open source %s", op.Source)
	}
	return f, func() { _ = f.Close() }, nil
}

func (r *Runner) openDestination(op router.Operation) (io.Writer, func() error, error) {
	if paths.IsStream(op.Destination) {
		return r.Stdout, func() error { return nil }, nil
	}
	f, err := r.FS.Create(op.Destination)
	if err != nil {
		return nil, nil, errors.Wrapf(err, errors.ErrFileCreate, "cannot create destination %s", op.Destination)
	}
	return f, f.Close, nil
}

// shouldWrite decides whether the destination may be written. The
// stdout marker always may; an existing file is skipped under
// no-overwrite and otherwise confirmed when interactive.
func (r *Runner) shouldWrite(op router.Operation) (bool, error) {
	if paths.IsStream(op.Destination) {
		return true, nil
	}

	_, err := r.FS.Stat(op.Destination)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, errors.Wrapf(err, errors.ErrFileAccess, "cannot stat %s", op.Destination)
	}

	if op.NoOverwrite {
		return false, nil
	}
	if op.Interactive {
		return r.confirmOverwrite(op.Destination), nil
	}
	return true, nil
}

func (r *Runner) confirmOverwrite(destination string) bool {
	// A prompt needs a terminal to answer it; when stdin is a pipe the
	// safe answer is no.
	if f, ok := r.PromptIn.(*os.File); ok {
		if !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
			return false
		}
	}

	fmt.Fprintf(r.PromptOut, "Overwrite existing output file %q? [y/N]: ", destination)
	reply, err := bufio.NewReader(r.PromptIn).ReadString('\n')
	if err != nil && reply == "" {
		return false
	}
	reply = strings.ToLower(strings.TrimSpace(reply))
	return reply == "y" || reply == "yes"
}
