// Package materials supplies the symmetric key material consumed by the
// streaming engine. Key providers are configured from the user's
// --wrapping-key options; everything past the Provider interface is an
// external concern to the rest of the tool.
package materials

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/arthur-debert/envelope/pkg/errors"
)

// Provider supplies the data key used by the engine for one invocation.
type Provider interface {
	DataKey() ([]byte, error)
}

// staticProvider holds a fixed key, either given as hex or derived from
// a passphrase.
type staticProvider struct {
	key []byte
}

func (p *staticProvider) DataKey() ([]byte, error) {
	return p.key, nil
}

// FromConfig builds a provider from parsed key=value configurations.
// Exactly one of "key" (hex-encoded) or "passphrase" must be present.
// A caching config, when supplied, wraps the provider so the key is
// resolved once per invocation.
func FromConfig(keyConfig map[string]string, cachingConfig map[string]string) (Provider, error) {
	if keyConfig == nil {
		return nil, errors.New(errors.ErrKeyConfig, "no key configuration supplied")
	}

	var base Provider
	switch {
	case keyConfig["key"] != "":
		key, err := hex.DecodeString(keyConfig["key"])
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrKeyConfig, "key must be hex encoded")
		}
		base = &staticProvider{key: key}
	case keyConfig["passphrase"] != "":
		sum := sha256.Sum256([]byte(keyConfig["passphrase"]))
		base = &staticProvider{key: sum[:]}
	default:
		return nil, errors.New(errors.ErrKeyConfig, "key configuration requires key=<hex> or passphrase=<string>")
	}

	if cachingConfig != nil {
		return &cachingProvider{inner: base}, nil
	}
	return base, nil
}

// cachingProvider memoizes the inner provider's key for the lifetime of
// one invocation.
type cachingProvider struct {
	inner Provider
	once  sync.Once
	key   []byte
	err   error
}

func (p *cachingProvider) DataKey() ([]byte, error) {
	p.once.Do(func() {
		p.key, p.err = p.inner.DataKey()
	})
	return p.key, p.err
}
