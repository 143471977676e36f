// Package fairroll derives auditable die rolls from committed seed pairs.
//
// Every random outcome in a game is produced by combining a public block
// hash with a player-committed client seed and deriving labeled rolls via
// HMAC-SHA256. Anyone holding the revealed seed pair can re-derive every
// roll and confirm the recorded game.
package fairroll

import (
	"crypto/hmac"
	crand "crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	apperrors "github.com/vdappdev2/vcharacter-sales/internal/platform/errors"
)

// seedHexLen is the expected hex length of block hashes and client seeds.
const seedHexLen = 64

var (
	// ErrSeedMalformed indicates a block hash or client seed that is not
	// 64 hex characters.
	ErrSeedMalformed = apperrors.New(apperrors.CodeSeedMalformed, "seed value must be 64 hex characters")
	// ErrDieSizeInvalid indicates a die with fewer than one side.
	ErrDieSizeInvalid = apperrors.New(apperrors.CodeDieSizeInvalid, "die size must be at least 1")
	// ErrLabelEmpty indicates a roll derivation without a label.
	ErrLabelEmpty = apperrors.New(apperrors.CodeLabelEmpty, "roll label is required")
	// ErrCommitmentMalformed indicates a commitment that is not 64 hex characters.
	ErrCommitmentMalformed = apperrors.New(apperrors.CodeCommitmentMalformed, "commitment must be 64 hex characters")
	// ErrCommitmentMismatch indicates a revealed seed that does not hash to
	// its published commitment.
	ErrCommitmentMismatch = apperrors.New(apperrors.CodeCommitmentMismatch, "revealed seed does not match commitment")
)

// SeedPair is one round of combined entropy: a chain block hash plus the
// client seed that was committed before the block existed.
type SeedPair struct {
	BlockHeight uint64 `json:"block_height"`
	BlockHash   string `json:"block_hash"`
	ClientSeed  string `json:"client_seed"`
}

// NewSeedPair validates and normalizes a seed pair. Both the block hash and
// the client seed must be 64 hex characters; uppercase input is folded.
func NewSeedPair(height uint64, blockHash, clientSeed string) (SeedPair, error) {
	hash, err := normalizeHex("block_hash", blockHash)
	if err != nil {
		return SeedPair{}, err
	}
	seed, err := normalizeHex("client_seed", clientSeed)
	if err != nil {
		return SeedPair{}, err
	}
	return SeedPair{BlockHeight: height, BlockHash: hash, ClientSeed: seed}, nil
}

// Source derives labeled rolls from a single seed pair.
//
// # Determinism
//
// Roll is a pure function of the seed pair, the label, and the die size.
// The derivation key is SHA-256 over "<blockHash>:<clientSeed>" (normalized
// lowercase hex), and each roll is HMAC-SHA256(key, label) reduced to
// 1 + (first 8 bytes, big-endian) mod sides. Labels are the sole
// disambiguator: a roll is independent of call order and of any other
// label drawn from the same pair.
//
// # Errors
//
//   - Sides below 1 yields ErrDieSizeInvalid.
//   - An empty label yields ErrLabelEmpty.
type Source struct {
	pair SeedPair
	key  []byte
}

// NewSource binds a seed pair for roll derivation.
func NewSource(pair SeedPair) (*Source, error) {
	normalized, err := NewSeedPair(pair.BlockHeight, pair.BlockHash, pair.ClientSeed)
	if err != nil {
		return nil, err
	}
	key := sha256.Sum256([]byte(normalized.BlockHash + ":" + normalized.ClientSeed))
	return &Source{pair: normalized, key: key[:]}, nil
}

// Pair returns the bound seed pair.
func (s *Source) Pair() SeedPair {
	return s.pair
}

// Roll derives the labeled roll for a die with the given number of sides.
func (s *Source) Roll(label string, sides int) (int, error) {
	if sides < 1 {
		return 0, apperrors.WithMetadata(apperrors.CodeDieSizeInvalid, "die size must be at least 1", map[string]string{
			"sides": fmt.Sprintf("%d", sides),
		})
	}
	if label == "" {
		return 0, ErrLabelEmpty
	}
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(label))
	digest := mac.Sum(nil)
	value := binary.BigEndian.Uint64(digest[:8])
	return int(1 + value%uint64(sides)), nil
}

// NewClientSeed generates a fresh 32-byte client seed using crypto/rand.
func NewClientSeed() (string, error) {
	var b [32]byte
	if _, err := crand.Read(b[:]); err != nil {
		return "", fmt.Errorf("read client seed: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}

// Commitment computes the SHA-256 commitment of a client seed. The digest
// covers the decoded seed bytes, not the hex text, and is returned as
// lowercase hex. Publishing the commitment before the block hash exists
// proves the seed was not chosen after the fact.
func Commitment(clientSeed string) (string, error) {
	seed, err := normalizeHex("client_seed", clientSeed)
	if err != nil {
		return "", err
	}
	raw, err := hex.DecodeString(seed)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeSeedMalformed, "decode client seed", err)
	}
	digest := sha256.Sum256(raw)
	return hex.EncodeToString(digest[:]), nil
}

// NormalizeCommitment folds a commitment to canonical lowercase hex,
// rejecting values that are not 64 hex characters. Accepting a commitment
// does not prove a seed exists for it; that check happens at reveal.
func NormalizeCommitment(commitment string) (string, error) {
	folded, err := normalizeHex("commitment", commitment)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeCommitmentMalformed, "commitment must be 64 hex characters", err)
	}
	return folded, nil
}

// VerifyCommitment checks that a revealed client seed matches a previously
// published commitment.
func VerifyCommitment(clientSeed, commitment string) error {
	want, err := normalizeHex("commitment", commitment)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeCommitmentMalformed, "commitment must be 64 hex characters", err)
	}
	got, err := Commitment(clientSeed)
	if err != nil {
		return err
	}
	if !hmac.Equal([]byte(got), []byte(want)) {
		return apperrors.WithMetadata(apperrors.CodeCommitmentMismatch, "revealed seed does not match commitment", map[string]string{
			"commitment": want,
		})
	}
	return nil
}

func normalizeHex(field, value string) (string, error) {
	folded := strings.ToLower(strings.TrimSpace(value))
	if len(folded) != seedHexLen {
		return "", apperrors.WithMetadata(apperrors.CodeSeedMalformed, field+" must be 64 hex characters", map[string]string{
			"field":  field,
			"length": fmt.Sprintf("%d", len(folded)),
		})
	}
	if _, err := hex.DecodeString(folded); err != nil {
		return "", apperrors.WrapWithMetadata(apperrors.CodeSeedMalformed, field+" is not valid hex", map[string]string{
			"field": field,
		}, err)
	}
	return folded, nil
}
