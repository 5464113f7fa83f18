// Package engine is the streaming encrypt/decrypt boundary. The request
// router never touches encrypted bytes; it only assembles a Config and
// hands streams to an Engine.
package engine

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"io"

	"github.com/arthur-debert/envelope/pkg/errors"
)

// Engine transforms one input stream into one output stream according
// to the Config.
type Engine interface {
	Stream(cfg Config, in io.Reader, out io.Writer) error
}

// DefaultFrameLength is used when the user does not supply one.
const DefaultFrameLength = 4096

// MaxFrameLength bounds the frame length on both sides of the codec so
// a corrupted or hostile header cannot demand an arbitrarily large
// allocation before any frame is authenticated.
const MaxFrameLength = 1 << 24

var magic = []byte("ENVL\x01")

// framed implements Engine with chunked AES-GCM framing. Each message
// is: magic, algorithm ID, frame length, then frames of
// nonce || uint32 ciphertext length || ciphertext, terminated by a
// zero-length frame.
type framed struct{}

// New returns the default streaming engine.
func New() Engine {
	return &framed{}
}

func (f *framed) Stream(cfg Config, in io.Reader, out io.Writer) error {
	switch cfg.Mode {
	case Encrypt:
		return f.encrypt(cfg, in, out)
	case Decrypt:
		return f.decrypt(cfg, in, out)
	default:
		return errors.Newf(errors.ErrInvalidInput, "Unknown mode: %s", cfg.Mode)
	}
}

func (f *framed) aead(cfg Config, alg Algorithm) (cipher.AEAD, error) {
	key, err := cfg.Provider.DataKey()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrKeyDerive, "cannot obtain data key")
	}
	// Fold the provider key to the suite's key size.
	sum := sha256.Sum256(key)
	block, err := aes.NewCipher(sum[:alg.KeyBytes()])
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrEngineFailure, "cannot initialize cipher")
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrEngineFailure, "cannot initialize GCM")
	}
	return aead, nil
}

func (f *framed) encrypt(cfg Config, in io.Reader, out io.Writer) error {
	alg := DefaultAlgorithm
	if cfg.Algorithm != nil {
		alg = *cfg.Algorithm
	}
	frameLength := DefaultFrameLength
	if cfg.FrameLength != nil {
		frameLength = *cfg.FrameLength
	}
	if frameLength <= 0 {
		return errors.Newf(errors.ErrInvalidInput, "Frame length must be positive: %d", frameLength)
	}
	if frameLength > MaxFrameLength {
		return errors.Newf(errors.ErrInvalidInput,
			"Frame length cannot exceed %d: %d", MaxFrameLength, frameLength)
	}

	aead, err := f.aead(cfg, alg)
	if err != nil {
		return err
	}

	if _, err := out.Write(magic); err != nil {
		return errors.Wrap(err, errors.ErrFileWrite, "cannot write header")
	}
	header := make([]byte, 6)
	binary.BigEndian.PutUint16(header[0:2], uint16(alg))
	binary.BigEndian.PutUint32(header[2:6], uint32(frameLength))
	if _, err := out.Write(header); err != nil {
		return errors.Wrap(err, errors.ErrFileWrite, "cannot write header")
	}

	var total int64
	buf := make([]byte, frameLength)
	for {
		n, readErr := io.ReadFull(in, buf)
		if readErr != nil && readErr != io.EOF && readErr != io.ErrUnexpectedEOF {
			return errors.Wrap(readErr, errors.ErrFileAccess, "cannot read input")
		}
		if n > 0 {
			total += int64(n)
			if cfg.MaxBodyLength != nil && total > *cfg.MaxBodyLength {
				return errors.Newf(errors.ErrInvalidInput,
					"Input exceeds maximum body length of %d bytes", *cfg.MaxBodyLength)
			}
			if err := f.writeFrame(aead, buf[:n], out); err != nil {
				return err
			}
		}
		if readErr != nil {
			break
		}
	}

	// Zero-length terminator frame authenticates the end of stream.
	return f.writeFrame(aead, nil, out)
}

func (f *framed) writeFrame(aead cipher.AEAD, plaintext []byte, out io.Writer) error {
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return errors.Wrap(err, errors.ErrEngineFailure, "cannot generate nonce")
	}
	sealed := aead.Seal(nil, nonce, plaintext, nil)

	if _, err := out.Write(nonce); err != nil {
		return errors.Wrap(err, errors.ErrFileWrite, "cannot write frame")
	}
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(sealed)))
	if _, err := out.Write(length[:]); err != nil {
		return errors.Wrap(err, errors.ErrFileWrite, "cannot write frame")
	}
	if _, err := out.Write(sealed); err != nil {
		return errors.Wrap(err, errors.ErrFileWrite, "cannot write frame")
	}
	return nil
}

func (f *framed) decrypt(cfg Config, in io.Reader, out io.Writer) error {
	head := make([]byte, len(magic)+6)
	if _, err := io.ReadFull(in, head); err != nil {
		return errors.Wrap(err, errors.ErrEngineFailure, "input is not an envelope message")
	}
	for i, b := range magic {
		if head[i] != b {
			return errors.New(errors.ErrEngineFailure, "input is not an envelope message")
		}
	}
	alg := Algorithm(binary.BigEndian.Uint16(head[len(magic) : len(magic)+2]))
	frameLength := binary.BigEndian.Uint32(head[len(magic)+2 : len(magic)+6])
	if frameLength == 0 || frameLength > MaxFrameLength {
		return errors.New(errors.ErrEngineFailure, "input is not an envelope message")
	}

	aead, err := f.aead(cfg, alg)
	if err != nil {
		return err
	}

	// Ciphertext per frame is bounded by the header's frame length plus
	// the AEAD overhead; anything longer is rejected before allocating.
	maxSealed := int(frameLength) + aead.Overhead()
	for {
		plaintext, err := f.readFrame(aead, in, maxSealed)
		if err != nil {
			return err
		}
		if len(plaintext) == 0 {
			return nil
		}
		if _, err := out.Write(plaintext); err != nil {
			return errors.Wrap(err, errors.ErrFileWrite, "cannot write output")
		}
	}
}

func (f *framed) readFrame(aead cipher.AEAD, in io.Reader, maxSealed int) ([]byte, error) {
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(in, nonce); err != nil {
		return nil, errors.Wrap(err, errors.ErrEngineFailure, "truncated message")
	}
	var length [4]byte
	if _, err := io.ReadFull(in, length[:]); err != nil {
		return nil, errors.Wrap(err, errors.ErrEngineFailure, "truncated message")
	}
	sealedLength := binary.BigEndian.Uint32(length[:])
	if sealedLength > uint32(maxSealed) {
		return nil, errors.New(errors.ErrEngineFailure, "frame exceeds declared frame length")
	}
	sealed := make([]byte, sealedLength)
	if _, err := io.ReadFull(in, sealed); err != nil {
		return nil, errors.Wrap(err, errors.ErrEngineFailure, "truncated message")
	}

	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrEngineFailure, "cannot authenticate frame")
	}
	return plaintext, nil
}
