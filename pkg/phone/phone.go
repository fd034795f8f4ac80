// Package phone turns user-entered phone numbers into a dialable
// "+<digits>" form.
package phone

import (
	"strings"

	"LifeLine/pkg/errors"
)

const minInternationalDigits = 7

// ErrNoDigits is returned for input that contains no digits at all.
var ErrNoDigits = errors.Validation("phone number has no digits")

// Normalizer is immutable after construction and safe for concurrent use.
type Normalizer struct {
	countryCode string
}

// NewNormalizer builds a normalizer for the given default country code
// ("91", "+91" and " 91 " are all accepted).
func NewNormalizer(countryCode string) Normalizer {
	cc := strings.TrimPrefix(strings.TrimSpace(countryCode), "+")
	if cc == "" {
		cc = "91"
	}
	return Normalizer{countryCode: cc}
}

func (n Normalizer) CountryCode() string { return n.countryCode }

// Normalize applies, in order:
//  1. strip everything except digits and a leading '+'
//  2. a leading '+' is accepted as is (at least 7 digits)
//  3. exactly 10 digits get "+<cc>" prepended
//  4. len(cc)+10 digits that start with cc get '+' prepended
//  5. anything else gets '+' prepended
//
// Normalize(Normalize(x)) == Normalize(x).
func (n Normalizer) Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	plus := strings.HasPrefix(raw, "+")

	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return "", ErrNoDigits
	}

	switch {
	case plus:
		if len(digits) < minInternationalDigits {
			return "", errors.OfKindf(errors.KindValidation, "international number too short: %d digits", len(digits))
		}
		return "+" + digits, nil
	case len(digits) == 10:
		return "+" + n.countryCode + digits, nil
	case len(digits) == len(n.countryCode)+10 && strings.HasPrefix(digits, n.countryCode):
		return "+" + digits, nil
	default:
		return "+" + digits, nil
	}
}

// NormalizeAll normalizes every entry, dropping the ones that fail. The
// result keeps input order.
func (n Normalizer) NormalizeAll(raws []string) []string {
	out := make([]string, 0, len(raws))
	for _, r := range raws {
		if p, err := n.Normalize(r); err == nil {
			out = append(out, p)
		}
	}
	return out
}

// ChatAddress prefixes a normalized number with a channel scheme, as chat
// providers expect (e.g. "whatsapp:+919876543210").
func ChatAddress(scheme, normalized string) string {
	if strings.HasPrefix(normalized, scheme+":") {
		return normalized
	}
	return scheme + ":" + normalized
}
