package router

import (
	"github.com/arthur-debert/envelope/pkg/engine"
	"github.com/arthur-debert/envelope/pkg/materials"
)

// Args carries the parsed user options that feed the engine
// configuration. Optional fields are pointers (or nil maps) so an
// omitted option is distinguishable from an explicit zero.
type Args struct {
	Action            engine.Mode
	EncryptionContext map[string]string
	Algorithm         *string
	FrameLength       *int
	MaxLength         *int64
}

// StreamConfigFromArgs assembles the engine configuration from parsed
// options and an already-constructed materials provider. Provider and
// Mode are always set; every other field is set only when the
// corresponding option was supplied, so the engine can distinguish
// "unset" from "explicitly zero".
func StreamConfigFromArgs(args Args, provider materials.Provider) (engine.Config, error) {
	cfg := engine.Config{
		Provider: provider,
		Mode:     args.Action,
	}

	if args.MaxLength != nil {
		cfg.MaxBodyLength = args.MaxLength
	}

	// Encryption-only knobs: on decrypt these travel inside the message
	// header, so user-supplied values are ignored rather than forwarded.
	if args.Action == engine.Encrypt {
		if args.EncryptionContext != nil {
			cfg.EncryptionContext = args.EncryptionContext
		}
		if args.Algorithm != nil {
			alg, err := engine.AlgorithmByName(*args.Algorithm)
			if err != nil {
				return engine.Config{}, err
			}
			cfg.Algorithm = &alg
		}
		if args.FrameLength != nil {
			cfg.FrameLength = args.FrameLength
		}
	}

	return cfg, nil
}
