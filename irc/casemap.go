package irc

import "strings"

// CaseMapping selects how nicknames, channel names, and certain ISUPPORT
// values are folded for comparison. Servers advertise their mapping via the
// CASEMAPPING ISUPPORT token (see isupport.go); a Session and a fresh
// Extensions assume RFC1459 until a server says otherwise.
type CaseMapping int

const (
	CaseMappingASCII CaseMapping = iota
	CaseMappingRFC1459
	CaseMappingStrictRFC1459
)

// ParseCaseMapping recognizes the ISUPPORT CASEMAPPING token values. Unknown
// values fall back to RFC1459, matching long-standing ircd behavior of
// treating CASEMAPPING as mostly decorative when unrecognized.
func ParseCaseMapping(s string) CaseMapping {
	switch s {
	case "ascii":
		return CaseMappingASCII
	case "strict-rfc1459":
		return CaseMappingStrictRFC1459
	case "rfc1459":
		return CaseMappingRFC1459
	default:
		return CaseMappingRFC1459
	}
}

func (cm CaseMapping) String() string {
	switch cm {
	case CaseMappingASCII:
		return "ascii"
	case CaseMappingStrictRFC1459:
		return "strict-rfc1459"
	default:
		return "rfc1459"
	}
}

func foldRune(cm CaseMapping, r rune) rune {
	if 'A' <= r && r <= 'Z' {
		return r + ('a' - 'A')
	}
	if cm == CaseMappingASCII {
		return r
	}
	switch r {
	case '[':
		return '{'
	case ']':
		return '}'
	case '\\':
		return '|'
	case '^':
		if cm == CaseMappingRFC1459 {
			return '~'
		}
	}
	return r
}

// fold returns the canonical representation of s under cm.
func fold(cm CaseMapping, s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		sb.WriteRune(foldRune(cm, r))
	}
	return sb.String()
}

// Comparer implements identifier comparison, ordering and hashing under a
// fixed CaseMapping. The zero value compares under ASCII (the zero
// CaseMapping); a Session starts from NewComparer(CaseMappingRFC1459) before
// ISUPPORT arrives.
type Comparer struct {
	CaseMapping CaseMapping
}

// NewComparer returns a Comparer bound to cm.
func NewComparer(cm CaseMapping) Comparer {
	return Comparer{CaseMapping: cm}
}

// ToLower returns the canonical lowercase representation of s.
func (c Comparer) ToLower(s string) string {
	return fold(c.CaseMapping, s)
}

// ToUpper returns the canonical uppercase representation of s. It is the
// mirror of ToLower: every folded letter is produced in its upper form, so
// that ToLower(ToUpper(s)) == ToLower(s) holds for any s.
func (c Comparer) ToUpper(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		r = foldRune(c.CaseMapping, r)
		if 'a' <= r && r <= 'z' {
			r -= 'a' - 'A'
		} else {
			switch r {
			case '{':
				r = '['
			case '}':
				r = ']'
			case '|':
				r = '\\'
			case '~':
				if c.CaseMapping == CaseMappingRFC1459 {
					r = '^'
				}
			}
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Equal reports whether a and b compare equal under c. It takes plain
// strings, so "" and an absent value are not distinguished; ComparePtr below
// orders nullable strings with nil before every non-nil string.
func (c Comparer) Equal(a, b string) bool {
	return c.ToLower(a) == c.ToLower(b)
}

// Compare returns a negative number, 0, or a positive number as a sorts
// before, equal to, or after b, lexicographically on code points after
// folding.
func (c Comparer) Compare(a, b string) int {
	return strings.Compare(c.ToLower(a), c.ToLower(b))
}

// Hash returns a value such that Equal(a, b) implies Hash(a) == Hash(b). It
// is suitable as a map key (canonical strings are just as good a "hash" as
// any integer digest for this purpose, and let the caller still recover the
// canonical form for logging or collision messages).
func (c Comparer) Hash(s string) string {
	return c.ToLower(s)
}

// ComparePtr orders two nullable strings: nil < non-nil, nil == nil.
func (c Comparer) ComparePtr(a, b *string) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return c.Compare(*a, *b)
	}
}
