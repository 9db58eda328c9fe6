package dialogue

import "regexp"

const phoneDigits = 11

var emailPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9._%+-]*@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidPhone reports whether phone holds exactly eleven digits. Any other
// characters are ignored.
func ValidPhone(phone string) bool {
	n := 0
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n == phoneDigits
}

// ValidEmail reports whether email looks like a Latin-only address.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}
