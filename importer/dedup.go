package importer

import (
	"strconv"
	"unicode/utf16"

	"evidence-hub/domain"
)

// ExternalID returns the key that makes a review importable at most once per
// source. Native ids are used as-is; reviews without one are hashed.
//
// The hash is a 32-bit string hash, so two different reviews sharing
// reviewer, title and date collapse into one key.
func ExternalID(source domain.IntegrationType, review domain.SourceReview) string {
	if id := review.NativeID(); id != "" {
		return id
	}
	return HashKey(string(source), review.CompositeKey())
}

// HashKey computes h = h*31 + c over the UTF-16 code units of key with 32-bit
// wraparound and renders |h| in base 36 behind "<prefix>_". Keys written by
// earlier imports were produced the same way, so the arithmetic must not change.
func HashKey(prefix, key string) string {
	var h int32
	for _, c := range utf16.Encode([]rune(key)) {
		h = h*31 + int32(c)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return prefix + "_" + strconv.FormatInt(v, 36)
}
