package irc

import "time"

// Event is the marker type for everything delivered through component J,
// the typed event surface spec.md §4.J describes in place of a logging
// dependency (see SPEC_FULL.md §1).
type Event interface{}

// Severity is the severity of a server reply.
type Severity int

const (
	SeverityNote Severity = iota
	SeverityWarn
	SeverityFail
)

// ReplySeverity returns the severity of a server numeric reply.
func ReplySeverity(reply string) Severity {
	if len(reply) == 0 {
		return SeverityNote
	}
	switch reply[0] {
	case '4', '5':
		if reply == errNomotd {
			return SeverityNote
		}
		return SeverityFail
	case '9':
		if len(reply) < 3 {
			return SeverityNote
		}
		switch reply[2] {
		case '2', '4', '5', '6', '7':
			return SeverityFail
		default:
			return SeverityNote
		}
	default:
		return SeverityNote
	}
}

// ErrorEvent reports a server numeric that didn't have a more specific
// handler, classified by ReplySeverity.
type ErrorEvent struct {
	Severity Severity
	Code     string
	Message  string
}

// StateChanged reports a ClientState transition (component I).
type StateChanged struct {
	Old, New ClientState
}

// DebugEvent reports a line that failed to parse, or another internal
// condition worth surfacing without aborting the session.
type DebugEvent struct {
	Message string
}

// TraceEvent carries one raw line, gated on Config.Debug. The Session emits
// it for inbound lines only; outbound lines are not traced.
type TraceEvent struct {
	Outbound bool
	Line     string
}

type RegisteredEvent struct{}

type NicknameChange struct {
	User       string
	FormerNick string
	Time       time.Time
}

// NamesTask signals that a NAMES listing for Channel has completed
// (RPL_ENDOFNAMES), one-shot per JOIN/NAMES request (spec.md §4.I).
type NamesTask struct {
	Channel string
}

type ChannelJoin struct {
	Channel   string
	User      string
	Requested bool // whether this is our own, self-requested JOIN
	Topic     string
	Time      time.Time

	// Task completes once the NAMES listing triggered by this JOIN finishes
	// (RPL_ENDOFNAMES), or fails if the session disconnects first. Only set
	// on a self-requested join; nil for joins observed from other users.
	Task *JoinTask
}

type ChannelPart struct {
	Channel string
	User    string
	Reason  string
	Time    time.Time
}

type ChannelKick struct {
	Channel string
	Kicker  string
	User    string
	Reason  string
	Time    time.Time
}

// ChannelLeave is emitted once per channel the local user has left by PART
// or KICK, whichever the cause, so callers can maintain a single unsubscribe
// path. It is not emitted for channels dropped by a disconnection.
type ChannelLeave struct {
	Channel string
}

type ChannelMessage struct {
	Channel string
	User    string
	Content string
	Time    time.Time
}

type ChannelNotice struct {
	Channel string
	User    string
	Content string
	Time    time.Time
}

type ChannelCTCP struct {
	Channel string
	User    string
	Command string
	Params  string
	Time    time.Time
}

type PrivateMessage struct {
	User    string
	Content string
	Time    time.Time
}

type PrivateNotice struct {
	User    string
	Content string
	Time    time.Time
}

type PrivateCTCP struct {
	User    string
	Command string
	Params  string
	Time    time.Time
}

// BroadcastMessage/BroadcastNotice are PRIVMSG/NOTICE sent to the server's
// announced broadcast target (e.g. "$*" or a server-mask target), rather
// than a channel or a nick.
type BroadcastMessage struct {
	Target  string
	User    string
	Content string
	Time    time.Time
}

type BroadcastNotice struct {
	Target  string
	User    string
	Content string
	Time    time.Time
}

type UserAppeared struct {
	User string
	Time time.Time
}

type UserDisappeared struct {
	User string
	Time time.Time
}

type UserQuit struct {
	User     string
	Channels []string
	Reason   string
	Time     time.Time
}

type AwaySet struct {
	User    string
	Message string
	Time    time.Time
}

type AwayCancelled struct {
	User string
	Time time.Time
}

// AwayMessage reports the away message returned by RPL_AWAY for a user we
// queried (WHOIS, or a message sent while they are away).
type AwayMessage struct {
	User    string
	Message string
	Time    time.Time
}

type UserModesSet struct {
	Modes string
	Time  time.Time
}

// ChannelModesSet carries the ordered ModeChange list a MODE command on a
// channel produced, preserving the order the modes were applied in.
type ChannelModesSet struct {
	Channel string
	Setter  string
	Changes []ModeChange
	Time    time.Time
}

type ChannelTopicChanged struct {
	Channel string
	Topic   string
	Setter  string
	Time    time.Time

	// Old* carry the previous topic, as it stood before this change, so a
	// caller can render a diff without keeping its own shadow copy.
	OldTopic  string
	OldSetter string
	OldStamp  time.Time
}

// CapabilitiesAdded/CapabilitiesDeleted report CAP LS/NEW and CAP DEL
// batches (component E).
type CapabilitiesAdded struct {
	Names []string
}

type CapabilitiesDeleted struct {
	Names []string
}

// MonitorOnline/MonitorOffline report MONITOR (or WATCH) presence
// transitions (component H).
type MonitorOnline struct {
	User string
	Time time.Time
}

type MonitorOffline struct {
	User string
	Time time.Time
}

// TagEvent reports an inbound client-only tag (currently +typing) that
// isn't attached to a PRIVMSG/NOTICE, per the +typing supplemental
// feature (SPEC_FULL.md §3).
type TagEvent struct {
	User    string
	Target  string
	State   TypingState
	Time    time.Time
}

type InviteEvent struct {
	Inviter string
	Invitee string
	Channel string
}
