package action

import (
	"regexp"
	"strings"
)

// The five recognized reference ID families. Case-sensitive: segments after
// the prefix are uppercase alphanumerics, and the REF family requires exactly
// four digits in its middle segment.
var referencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^REF-\d{4}-[A-Z0-9]+$`),
	regexp.MustCompile(`^ACT-[A-Z0-9]+-[A-Z0-9]+$`),
	regexp.MustCompile(`^PAY-[A-Z0-9]+-[A-Z0-9]+$`),
	regexp.MustCompile(`^ESC-[A-Z0-9]+-[A-Z0-9]+$`),
	regexp.MustCompile(`^CTR-[A-Z0-9]+-[A-Z0-9]+$`),
}

// typeByPrefix maps a reference prefix to its action type.
var typeByPrefix = map[string]Type{
	"REF": TypeVerificationCheck,
	"ACT": TypeFundTransfer,
	"PAY": TypePaymentSettlement,
	"ESC": TypeEscrowHold,
	"CTR": TypeContractExecution,
}

// ValidReference reports whether the reference ID matches one of the five
// recognized pattern families.
func ValidReference(referenceID string) bool {
	for _, p := range referencePatterns {
		if p.MatchString(referenceID) {
			return true
		}
	}
	return false
}

// ValidateReference checks the reference ID and returns ErrInvalidReference
// if it matches none of the recognized families.
func ValidateReference(referenceID string) error {
	if !ValidReference(referenceID) {
		return ErrInvalidReference
	}
	return nil
}

// Prefix returns the reference segment before the first hyphen.
func Prefix(referenceID string) string {
	if i := strings.IndexByte(referenceID, '-'); i >= 0 {
		return referenceID[:i]
	}
	return referenceID
}

// TypeForReference derives the action type from the reference prefix.
// Unknown prefixes default to TypeVerificationCheck.
func TypeForReference(referenceID string) Type {
	if t, ok := typeByPrefix[Prefix(referenceID)]; ok {
		return t
	}
	return TypeVerificationCheck
}
