package irc

import (
	"time"

	"golang.org/x/time/rate"
)

// TypingState is the value carried by the "+typing" client-only tag
// (IRCv3 draft), per SPEC_FULL.md §3.
type TypingState int

const (
	TypingUnspec TypingState = iota
	TypingActive
	TypingPaused
	TypingDone
)

// typingTimeout is how long an "active"/"paused" notification stays valid
// without a follow-up before it is treated as done, per the teacher's
// Typings (6 seconds).
const typingTimeout = 6 * time.Second

type typingKey struct {
	target, user string
}

type typingEntry struct {
	target, user string
	last         time.Time
}

// TypingTracker is component J's inbound half of the typing-notification
// feature: it remembers the last +typing state seen per (target, user) and
// synthesizes a "done" transition if the sender goes silent without one,
// generalizing the teacher's Typings goroutine-per-timeout design into a
// caller-driven Expire sweep (consistent with the rest of this package:
// no component spawns its own goroutines, Session owns the only timer).
type TypingTracker struct {
	cmp    Comparer
	active map[typingKey]*typingEntry
}

func newTypingTracker(cmp Comparer) *TypingTracker {
	return &TypingTracker{cmp: cmp, active: map[typingKey]*typingEntry{}}
}

func (t *TypingTracker) key(target, user string) typingKey {
	return typingKey{t.cmp.Hash(target), t.cmp.Hash(user)}
}

// Observe records one inbound +typing tag value and reports the TagEvent to
// deliver immediately (every inbound value is forwarded as-is; Expire is
// what adds the synthetic timeout-done on top).
func (t *TypingTracker) Observe(target, user string, state TypingState, now time.Time) TagEvent {
	key := t.key(target, user)
	switch state {
	case TypingActive, TypingPaused:
		t.active[key] = &typingEntry{target: target, user: user, last: now}
	default:
		delete(t.active, key)
	}
	return TagEvent{User: user, Target: target, State: state, Time: now}
}

// Expire returns a synthetic TagEvent{State: TypingDone} for every tracked
// sender whose last notification is older than typingTimeout, and stops
// tracking them.
func (t *TypingTracker) Expire(now time.Time) []TagEvent {
	var out []TagEvent
	for key, entry := range t.active {
		if now.Sub(entry.last) >= typingTimeout {
			out = append(out, TagEvent{User: entry.user, Target: entry.target, State: TypingDone, Time: now})
			delete(t.active, key)
		}
	}
	return out
}

type outboundTypingState struct {
	last    time.Time
	state   TypingState
	limiter *rate.Limiter
}

// OutboundTyping is component J's outbound half: it decides whether a
// Session.Typing/TypingStop call should actually produce a TAGMSG, applying
// the same 3-second re-announce floor and token-bucket ceiling the teacher's
// Session.Typing/TypingStop apply, generalized to every target via Comparer
// instead of a single casemap func.
type OutboundTyping struct {
	cmp     Comparer
	targets map[string]*outboundTypingState
}

func newOutboundTyping(cmp Comparer) *OutboundTyping {
	return &OutboundTyping{cmp: cmp, targets: map[string]*outboundTypingState{}}
}

// Active reports whether a "+typing=active" TAGMSG should be sent to target
// right now.
func (o *OutboundTyping) Active(target string, now time.Time) bool {
	key := o.cmp.Hash(target)
	t, ok := o.targets[key]
	if ok && ((t.state == TypingActive && now.Sub(t.last).Seconds() < 3.0) || !t.limiter.AllowAt(now)) {
		return false
	}
	if !ok {
		t = &outboundTypingState{limiter: rate.NewLimiter(rate.Limit(1.0/3.0), 5)}
		t.limiter.ReserveN(now, 1)
		o.targets[key] = t
	}
	t.last = now
	t.state = TypingActive
	return true
}

// Done reports whether a "+typing=done" TAGMSG should be sent to target
// right now, and records the target's tracked outbound state as done.
func (o *OutboundTyping) Done(target string, now time.Time) bool {
	key := o.cmp.Hash(target)
	t, ok := o.targets[key]
	if ok && (t.state == TypingDone || !t.limiter.AllowAt(now)) {
		return false
	}
	if !ok {
		t = &outboundTypingState{limiter: rate.NewLimiter(rate.Limit(1), 5)}
		t.limiter.ReserveN(now, 1)
		o.targets[key] = t
	}
	t.last = now
	t.state = TypingDone
	o.targets[key] = t
	return true
}
