package irc

import "time"

// ChannelStatus is an ordered set of status-mode letters held by a member of
// a channel, ordered by PREFIX strength (strongest first). The zero value is
// the empty set — distinct from a nil *ChannelStatus, which spec.md calls
// "null" and which compares below any non-nil set (spec.md I6).
type ChannelStatus struct {
	letters []byte // ordered strongest-first, per the session's PREFIX order
}

// NewChannelStatus builds a status set from letters already known to be in
// strength order.
func NewChannelStatus(orderedLetters ...byte) ChannelStatus {
	return ChannelStatus{letters: append([]byte(nil), orderedLetters...)}
}

// Letters returns the status letters, strongest first.
func (s ChannelStatus) Letters() []byte {
	return s.letters
}

// IsEmpty reports whether the set has no status letters (a just-joined
// user, spec.md I6).
func (s ChannelStatus) IsEmpty() bool {
	return len(s.letters) == 0
}

// Has reports whether letter is held.
func (s ChannelStatus) Has(letter byte) bool {
	return containsByte(s.letters, letter)
}

// Strongest returns the highest-ranked letter held, and false if the set is
// empty.
func (s ChannelStatus) Strongest() (byte, bool) {
	if len(s.letters) == 0 {
		return 0, false
	}
	return s.letters[0], true
}

// add inserts letter into the set at its rank in order (the full PREFIX
// strength order, strongest first), if not already present.
func (s ChannelStatus) add(order []byte, letter byte) ChannelStatus {
	if s.Has(letter) {
		return s
	}
	out := make([]byte, 0, len(s.letters)+1)
	inserted := false
	for _, want := range order {
		if want == letter && !inserted {
			out = append(out, letter)
			inserted = true
			continue
		}
		if containsByte(s.letters, want) {
			out = append(out, want)
		}
	}
	if !inserted {
		out = append(out, letter)
	}
	return ChannelStatus{letters: out}
}

func (s ChannelStatus) remove(letter byte) ChannelStatus {
	return ChannelStatus{letters: removeByte(s.letters, letter)}
}

// Compare orders two statuses: null < {} < any non-empty set, and among
// non-empty sets, A > B iff A's strongest mode outranks B's in order (a
// lower index in order is stronger). order is the session's PREFIX order.
func CompareChannelStatus(order []byte, a, b *ChannelStatus) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	aEmpty, bEmpty := a.IsEmpty(), b.IsEmpty()
	switch {
	case aEmpty && bEmpty:
		return 0
	case aEmpty:
		return -1
	case bEmpty:
		return 1
	}
	as, _ := a.Strongest()
	bs, _ := b.Strongest()
	rank := func(letter byte) int {
		for i, o := range order {
			if o == letter {
				return i
			}
		}
		return len(order)
	}
	ar, br := rank(as), rank(bs)
	switch {
	case ar < br:
		return 1 // a outranks b (lower index == stronger)
	case ar > br:
		return -1
	default:
		return 0
	}
}

// FromPrefixes decodes a run of status-prefix characters (e.g. "*@" from a
// multi-prefix NAMES/WHO entry) into a ChannelStatus, using prefixToMode (the
// derived Extensions.StatusPrefix accessor) and order (the PREFIX mode
// order, strongest first).
func FromPrefixes(prefixes string, prefixToMode map[byte]byte, order []byte) ChannelStatus {
	s := ChannelStatus{}
	for i := 0; i < len(prefixes); i++ {
		if mode, ok := prefixToMode[prefixes[i]]; ok {
			s = s.add(order, mode)
		}
	}
	return s
}

// Well-known single-letter status constants, mirroring the common RFC2811 +
// IRCv3 prefix set. These are pure constants (spec.md §9): a session's
// actual PREFIX may differ, in which case these are simply not in the
// session's order.
const (
	StatusVoice   byte = 'v'
	StatusHalfop  byte = 'h'
	StatusOp      byte = 'o'
	StatusAdmin   byte = 'a'
	StatusOwner   byte = 'q'
)

// User is a known entity on the session: every nickname the client has
// observed, whether or not it currently shares a channel.
type User struct {
	Nickname    string
	Ident       string
	Host        string
	FullName    string
	Account     *string // nil: unknown: "": known logged-out
	Away        bool
	AwayReason  string
	AwaySince   time.Time
	IsOper      bool
	IsSeen      bool // observed directly (JOIN/NAMES/WHO/message/online)
	IsMonitored bool // tracked via MONITOR or WATCH

	channels map[*Channel]*Membership
}

// IsServer reports whether this entity is better understood as a server
// name than a client: it carries no ident/host and either matches
// serverName or simply never resolved to a full mask (spec.md §3).
func (u *User) IsServer(serverName string) bool {
	if u == nil {
		return false
	}
	if u.Ident != "" || u.Host != "" {
		return false
	}
	// With no ident/host the entity is either the server itself (its name
	// matches serverName) or one that never resolved to a full mask.
	return true
}

// Memberships returns the user's current channel memberships.
func (u *User) Memberships() map[*Channel]*Membership {
	return u.channels
}

// Membership binds a User to a Channel with a current status.
type Membership struct {
	User    *User
	Channel *Channel
	Status  ChannelStatus
}

// Channel is a channel the session currently holds state for (joined, or
// retained with membership data from WHOIS/WHO replies for a channel the
// client is in).
type Channel struct {
	Name       string
	Topic      string
	TopicSetter *Prefix
	TopicStamp time.Time
	Created    time.Time
	Modes      ChannelModes

	members map[*User]*Membership // keyed by user identity, not name

	complete bool // names list has been fully received at least once
}

// Members returns the channel's current membership table.
func (c *Channel) Members() map[*User]*Membership {
	return c.members
}
