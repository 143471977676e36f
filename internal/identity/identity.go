// Package identity resolves on-chain identities and verifies the
// signatures and session grants derived from them.
package identity

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/vdappdev2/vcharacter-sales/internal/chain"
	apperrors "github.com/vdappdev2/vcharacter-sales/internal/platform/errors"
)

// Identity is a resolved chain identity with its signing key.
type Identity struct {
	Name string
	Key  ed25519.PublicKey
}

// Resolver looks identities up by name.
type Resolver interface {
	Resolve(ctx context.Context, name string) (Identity, error)
}

// ChainResolver resolves identities through the daemon's getidentity
// call.
type ChainResolver struct {
	Client *chain.Client
}

type identityResult struct {
	Identity struct {
		Name       string `json:"name"`
		SigningKey string `json:"signingkey"`
	} `json:"identity"`
}

// Resolve fetches one identity. Names are normalized to their
// canonical trailing-@ form before lookup.
func (r *ChainResolver) Resolve(ctx context.Context, name string) (Identity, error) {
	name = NormalizeName(name)
	if name == "" {
		return Identity{}, apperrors.New(apperrors.CodeIdentityUnknown, "identity name is required")
	}

	var result identityResult
	if err := r.Client.Call(ctx, "getidentity", []any{name}, &result); err != nil {
		var rpcErr *chain.RPCError
		if errors.As(err, &rpcErr) {
			return Identity{}, apperrors.WrapWithMetadata(apperrors.CodeIdentityUnknown, "identity not found", map[string]string{
				"name": name,
			}, err)
		}
		return Identity{}, err
	}

	keyBytes, err := decodeBase64(strings.TrimSpace(result.Identity.SigningKey))
	if err != nil {
		return Identity{}, apperrors.WrapWithMetadata(apperrors.CodeIdentityUnknown, "identity signing key is malformed", map[string]string{
			"name": name,
		}, err)
	}
	if len(keyBytes) != ed25519.PublicKeySize {
		return Identity{}, apperrors.WithMetadata(apperrors.CodeIdentityUnknown, "identity signing key has the wrong size", map[string]string{
			"name": name,
			"size": fmt.Sprintf("%d", len(keyBytes)),
		})
	}

	resolved := Identity{Name: name, Key: ed25519.PublicKey(keyBytes)}
	if canonical := NormalizeName(result.Identity.Name); canonical != "" {
		resolved.Name = canonical
	}
	return resolved, nil
}

// NormalizeName trims an identity name and ensures the trailing @.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if !strings.HasSuffix(name, "@") {
		name += "@"
	}
	return name
}

// VerifyMessage checks an ed25519 signature over the SHA-256 digest of
// the message. Signatures travel base64 encoded.
func VerifyMessage(id Identity, message []byte, signature string) error {
	if len(id.Key) != ed25519.PublicKeySize {
		return apperrors.New(apperrors.CodeSignatureInvalid, "identity has no signing key")
	}
	sigBytes, err := decodeBase64(strings.TrimSpace(signature))
	if err != nil {
		return apperrors.Wrap(apperrors.CodeSignatureInvalid, "signature is not valid base64", err)
	}
	if len(sigBytes) != ed25519.SignatureSize {
		return apperrors.WithMetadata(apperrors.CodeSignatureInvalid, "signature has the wrong size", map[string]string{
			"size": fmt.Sprintf("%d", len(sigBytes)),
		})
	}
	digest := sha256.Sum256(message)
	if !ed25519.Verify(id.Key, digest[:], sigBytes) {
		return apperrors.New(apperrors.CodeSignatureInvalid, "signature does not match identity")
	}
	return nil
}

// SignMessage produces the base64 signature VerifyMessage accepts.
// Clients and tests use it; the service only ever verifies.
func SignMessage(key ed25519.PrivateKey, message []byte) string {
	digest := sha256.Sum256(message)
	return base64.StdEncoding.EncodeToString(ed25519.Sign(key, digest[:]))
}

func decodeBase64(value string) ([]byte, error) {
	if value == "" {
		return nil, errors.New("empty base64 value")
	}
	decoded, err := base64.RawStdEncoding.DecodeString(value)
	if err == nil {
		return decoded, nil
	}
	return base64.StdEncoding.DecodeString(value)
}
