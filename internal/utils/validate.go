package utils

import "strings"

// NormalizePhone strips an optional +91/91 prefix and reports whether the
// remainder is a valid 10-digit Indian mobile number (leading digit 6-9).
func NormalizePhone(phone string) (string, bool) {
	p := strings.TrimSpace(phone)
	p = strings.TrimPrefix(p, "+91")
	if len(p) == 12 && strings.HasPrefix(p, "91") {
		p = p[2:]
	}

	if len(p) != 10 || !allDigits(p) {
		return "", false
	}
	if p[0] < '6' || p[0] > '9' {
		return "", false
	}

	return p, true
}

// ValidAadhaar reports whether the value is exactly 12 digits.
func ValidAadhaar(aadhaar string) bool {
	a := strings.TrimSpace(aadhaar)
	return len(a) == 12 && allDigits(a)
}

// ValidEmail is a shape check, not a deliverability check.
func ValidEmail(email string) bool {
	e := strings.TrimSpace(email)
	at := strings.Index(e, "@")
	if at <= 0 || at == len(e)-1 {
		return false
	}
	domain := e[at+1:]
	return strings.Contains(domain, ".") && !strings.ContainsAny(e, " \t")
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
