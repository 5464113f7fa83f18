package engine

import (
	"github.com/arthur-debert/envelope/pkg/errors"
)

// Algorithm identifies an algorithm suite by its wire ID.
type Algorithm uint16

// Algorithm suites. IDs follow the message-format convention where the
// high byte encodes the key-derivation/signing family and the low byte
// the AES key size.
const (
	AES128GCMIV12Tag16                Algorithm = 0x0014
	AES192GCMIV12Tag16                Algorithm = 0x0046
	AES256GCMIV12Tag16                Algorithm = 0x0078
	AES128GCMIV12Tag16HKDFSHA256      Algorithm = 0x0114
	AES192GCMIV12Tag16HKDFSHA256      Algorithm = 0x0146
	AES256GCMIV12Tag16HKDFSHA256      Algorithm = 0x0178
	AES128GCMIV12Tag16HKDFSHA256P256  Algorithm = 0x0214
	AES192GCMIV12Tag16HKDFSHA384P384  Algorithm = 0x0346
	AES256GCMIV12Tag16HKDFSHA384P384  Algorithm = 0x0378
)

// DefaultAlgorithm is used when the user does not request a suite.
const DefaultAlgorithm = AES256GCMIV12Tag16HKDFSHA384P384

// algorithmNames maps the user-facing suite names to their IDs. Lookups
// are exact matches only.
var algorithmNames = map[string]Algorithm{
	"AES_128_GCM_IV12_TAG16":                        AES128GCMIV12Tag16,
	"AES_192_GCM_IV12_TAG16":                        AES192GCMIV12Tag16,
	"AES_256_GCM_IV12_TAG16":                        AES256GCMIV12Tag16,
	"AES_128_GCM_IV12_TAG16_HKDF_SHA256":            AES128GCMIV12Tag16HKDFSHA256,
	"AES_192_GCM_IV12_TAG16_HKDF_SHA256":            AES192GCMIV12Tag16HKDFSHA256,
	"AES_256_GCM_IV12_TAG16_HKDF_SHA256":            AES256GCMIV12Tag16HKDFSHA256,
	"AES_128_GCM_IV12_TAG16_HKDF_SHA256_ECDSA_P256": AES128GCMIV12Tag16HKDFSHA256P256,
	"AES_192_GCM_IV12_TAG16_HKDF_SHA384_ECDSA_P384": AES192GCMIV12Tag16HKDFSHA384P384,
	"AES_256_GCM_IV12_TAG16_HKDF_SHA384_ECDSA_P384": AES256GCMIV12Tag16HKDFSHA384P384,
}

// AlgorithmByName translates a user-facing algorithm suite name to its
// enumerated identifier. An unrecognized name is a bad user argument.
func AlgorithmByName(name string) (Algorithm, error) {
	alg, ok := algorithmNames[name]
	if !ok {
		return 0, errors.Newf(errors.ErrInvalidInput, "Unknown algorithm name: %s", name)
	}
	return alg, nil
}

// KeyBytes returns the AES key size for the suite.
func (a Algorithm) KeyBytes() int {
	switch a & 0x00ff {
	case 0x14:
		return 16
	case 0x46:
		return 24
	default:
		return 32
	}
}

// String returns the user-facing suite name.
func (a Algorithm) String() string {
	for name, alg := range algorithmNames {
		if alg == a {
			return name
		}
	}
	return "UNKNOWN"
}
