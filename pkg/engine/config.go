package engine

import (
	"github.com/arthur-debert/envelope/pkg/materials"
)

// Mode is the requested action.
type Mode string

const (
	// Encrypt mode
	Encrypt Mode = "encrypt"
	// Decrypt mode
	Decrypt Mode = "decrypt"
)

// Config is the operation configuration consumed by the engine.
// Provider and Mode are always set; the remaining fields are optional
// and stay nil when the corresponding user option was not supplied —
// the engine distinguishes "unset" from "explicitly zero".
type Config struct {
	Provider materials.Provider
	Mode     Mode

	Algorithm         *Algorithm
	FrameLength       *int
	MaxBodyLength     *int64
	EncryptionContext map[string]string
}
