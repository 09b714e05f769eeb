package action

// maskedPlaceholder fully replaces identities too short to mask partially.
const maskedPlaceholder = "****"

// MaskIdentity masks an actor identity for display. Identities of four or
// fewer runes are replaced entirely; longer identities keep their first three
// and last two runes around a fixed mask.
func MaskIdentity(identity string) string {
	runes := []rune(identity)
	if len(runes) <= 4 {
		return maskedPlaceholder
	}
	return string(runes[:3]) + "***" + string(runes[len(runes)-2:])
}
