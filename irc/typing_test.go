package irc

import (
	"testing"
	"time"
)

func TestTypingTrackerObserve(t *testing.T) {
	tr := newTypingTracker(NewComparer(CaseMappingRFC1459))
	now := time.Unix(0, 0)
	ev := tr.Observe("#ircv3", "dan", TypingActive, now)
	if ev.State != TypingActive || ev.User != "dan" || ev.Target != "#ircv3" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if len(tr.active) != 1 {
		t.Errorf("expected one tracked sender, got %d", len(tr.active))
	}
}

func TestTypingTrackerObserveDoneStopsTracking(t *testing.T) {
	tr := newTypingTracker(NewComparer(CaseMappingRFC1459))
	now := time.Unix(0, 0)
	tr.Observe("#ircv3", "dan", TypingActive, now)
	tr.Observe("#ircv3", "dan", TypingDone, now)
	if len(tr.active) != 0 {
		t.Errorf("expected TypingDone to remove the tracked entry")
	}
}

func TestTypingTrackerExpire(t *testing.T) {
	tr := newTypingTracker(NewComparer(CaseMappingRFC1459))
	start := time.Unix(0, 0)
	tr.Observe("#ircv3", "dan", TypingActive, start)

	// Not yet timed out.
	if evs := tr.Expire(start.Add(3 * time.Second)); len(evs) != 0 {
		t.Fatalf("expected no expiry before the timeout, got %+v", evs)
	}

	evs := tr.Expire(start.Add(typingTimeout))
	if len(evs) != 1 || evs[0].State != TypingDone || evs[0].User != "dan" {
		t.Fatalf("expected a synthetic done event, got %+v", evs)
	}
	if len(tr.active) != 0 {
		t.Errorf("expected the entry to stop being tracked after expiry")
	}
}

func TestOutboundTypingActiveThrottled(t *testing.T) {
	o := newOutboundTyping(NewComparer(CaseMappingRFC1459))
	now := time.Unix(0, 0)
	if !o.Active("#ircv3", now) {
		t.Fatalf("expected the first Active call to send")
	}
	if o.Active("#ircv3", now.Add(1*time.Second)) {
		t.Errorf("expected a re-announce within 3s to be suppressed")
	}
	if !o.Active("#ircv3", now.Add(4*time.Second)) {
		t.Errorf("expected a re-announce after 3s to be allowed")
	}
}

func TestOutboundTypingDoneAfterActive(t *testing.T) {
	o := newOutboundTyping(NewComparer(CaseMappingRFC1459))
	now := time.Unix(0, 0)
	o.Active("#ircv3", now)
	if !o.Done("#ircv3", now.Add(1*time.Second)) {
		t.Fatalf("expected Done to be sendable right after Active")
	}
	if o.Done("#ircv3", now.Add(2*time.Second)) {
		t.Errorf("expected a repeated Done to be suppressed")
	}
}
