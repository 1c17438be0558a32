package pasetotoken

import (
	"strings"

	paseto "aidanwoods.dev/go-paseto"
)

// Mode selects the PASETO v4 purpose used for session tokens.
type Mode string

const (
	ModeLocal  Mode = "local"  // encrypted with a shared key
	ModePublic Mode = "public" // signed; verifiers only need the public key
)

// Keys holds the material for one Mode. Symmetric is set for ModeLocal;
// Public, and Secret when this process issues tokens, for ModePublic.
type Keys struct {
	Mode Mode

	Symmetric *paseto.V4SymmetricKey

	Secret *paseto.V4AsymmetricSecretKey
	Public *paseto.V4AsymmetricPublicKey
}

// KeyStrings is the hex-encoded key material read from configuration.
type KeyStrings struct {
	Mode Mode

	SymmetricHex string
	SecretHex    string
	PublicHex    string
}

func LoadKeys(in KeyStrings) (Keys, error) {
	switch in.Mode {
	case ModeLocal:
		return loadLocal(strings.TrimSpace(in.SymmetricHex))
	case ModePublic:
		return loadPublic(strings.TrimSpace(in.SecretHex), strings.TrimSpace(in.PublicHex))
	default:
		return Keys{}, keyConfigError("unknown mode %q, want local or public", in.Mode)
	}
}

func loadLocal(symHex string) (Keys, error) {
	if symHex == "" {
		return Keys{}, keyConfigError("local mode needs local_key_hex")
	}
	k, err := paseto.V4SymmetricKeyFromHex(symHex)
	if err != nil {
		return Keys{}, keyConfigError("local_key_hex: %v", err)
	}
	return Keys{Mode: ModeLocal, Symmetric: &k}, nil
}

// loadPublic derives the public key from the secret one when only the
// secret is given. An explicit public key wins over the derived one.
func loadPublic(secHex, pubHex string) (Keys, error) {
	if secHex == "" && pubHex == "" {
		return Keys{}, keyConfigError("public mode needs secret_key_hex or public_key_hex")
	}

	out := Keys{Mode: ModePublic}
	if secHex != "" {
		sk, err := paseto.NewV4AsymmetricSecretKeyFromHex(secHex)
		if err != nil {
			return Keys{}, keyConfigError("secret_key_hex: %v", err)
		}
		pk := sk.Public()
		out.Secret, out.Public = &sk, &pk
	}
	if pubHex != "" {
		pk, err := paseto.NewV4AsymmetricPublicKeyFromHex(pubHex)
		if err != nil {
			return Keys{}, keyConfigError("public_key_hex: %v", err)
		}
		out.Public = &pk
	}
	return out, nil
}

// NewLocalKeys generates a throwaway symmetric key. Tokens it issues do not
// survive a restart.
func NewLocalKeys() Keys {
	k := paseto.NewV4SymmetricKey()
	return Keys{Mode: ModeLocal, Symmetric: &k}
}
