// Package errors provides structured error handling for the sales game.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Character errors
	CodeCharacterNameEmpty Code = "CHARACTER_NAME_EMPTY"
	CodeCharacterTampered  Code = "CHARACTER_TAMPERED"

	// Seed/derivation errors
	CodeSeedMalformed       Code = "SEED_MALFORMED"
	CodeDieSizeInvalid      Code = "DIE_SIZE_INVALID"
	CodeLabelEmpty          Code = "LABEL_EMPTY"
	CodeCommitmentMismatch  Code = "COMMITMENT_MISMATCH"
	CodeCommitmentMalformed Code = "COMMITMENT_MALFORMED"

	// Game lifecycle errors
	CodeGamePhaseInvalid  Code = "GAME_PHASE_INVALID"
	CodeGameComplete      Code = "GAME_COMPLETE"
	CodeEntropyMissing    Code = "ENTROPY_MISSING"
	CodeEntropyAlreadySet Code = "ENTROPY_ALREADY_SET"
	CodeChoiceInvalid     Code = "CHOICE_INVALID"

	// Negotiation errors
	CodeNegotiationInactive Code = "NEGOTIATION_INACTIVE"
	CodeNegotiationActive   Code = "NEGOTIATION_ACTIVE"
	CodeActionInvalid       Code = "ACTION_INVALID"
	CodeSpiritAlreadyUsed   Code = "SPIRIT_ALREADY_USED"

	// Achievement errors
	CodeAchievementTierIneligible Code = "ACHIEVEMENT_TIER_INELIGIBLE"
	CodeAchievementInvalid        Code = "ACHIEVEMENT_INVALID"
	CodeAchievementExists         Code = "ACHIEVEMENT_EXISTS"

	// Identity errors
	CodeIdentityUnknown  Code = "IDENTITY_UNKNOWN"
	CodeSignatureInvalid Code = "SIGNATURE_INVALID"
	CodeGrantInvalid     Code = "GRANT_INVALID"
	CodeGrantExpired     Code = "GRANT_EXPIRED"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"

	// Chain errors
	CodeChainUnavailable Code = "CHAIN_UNAVAILABLE"
	CodeBlockUnknown     Code = "BLOCK_UNKNOWN"

	// Rules errors
	CodeRulesInvalid Code = "RULES_INVALID"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeCharacterNameEmpty,
		CodeSeedMalformed,
		CodeDieSizeInvalid,
		CodeLabelEmpty,
		CodeCommitmentMalformed,
		CodeCommitmentMismatch,
		CodeChoiceInvalid,
		CodeActionInvalid,
		CodeAchievementInvalid,
		CodeRulesInvalid:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeCharacterTampered,
		CodeGamePhaseInvalid,
		CodeGameComplete,
		CodeEntropyMissing,
		CodeEntropyAlreadySet,
		CodeNegotiationInactive,
		CodeNegotiationActive,
		CodeSpiritAlreadyUsed,
		CodeAchievementTierIneligible:
		return codes.FailedPrecondition

	// NotFound - resource doesn't exist
	case CodeNotFound,
		CodeIdentityUnknown,
		CodeBlockUnknown:
		return codes.NotFound

	// AlreadyExists - uniqueness violations
	case CodeAchievementExists:
		return codes.AlreadyExists

	// Unauthenticated - failed identity or session proofs
	case CodeSignatureInvalid,
		CodeGrantInvalid,
		CodeGrantExpired:
		return codes.Unauthenticated

	// Unavailable - entropy daemon unreachable
	case CodeChainUnavailable:
		return codes.Unavailable

	default:
		return codes.Internal
	}
}
