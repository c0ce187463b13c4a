package irc

import "testing"

func TestExtensionsDefaults(t *testing.T) {
	e := NewExtensions()
	if e.CaseMapping() != CaseMappingRFC1459 {
		t.Errorf("expected default case mapping rfc1459, got %v", e.CaseMapping())
	}
	if e.NicknameLength() != 9 {
		t.Errorf("expected default NICKLEN 9, got %d", e.NicknameLength())
	}
	if e.Modes() != 3 {
		t.Errorf("expected default MODES limit 3, got %d", e.Modes())
	}
	if e.TopicLength() != -1 {
		t.Errorf("expected unlimited topic length by default, got %d", e.TopicLength())
	}
}

func TestExtensionsApplyCasemappingChange(t *testing.T) {
	e := NewExtensions()
	result := e.Apply([]string{"CASEMAPPING=ascii"})
	if !result.Changed || result.New != CaseMappingASCII {
		t.Fatalf("expected a reported casemapping change to ascii, got %+v", result)
	}
	if e.CaseMapping() != CaseMappingASCII {
		t.Errorf("expected CaseMapping() to reflect ascii")
	}

	// Re-applying the same value should not report a change.
	result = e.Apply([]string{"CASEMAPPING=ascii"})
	if result.Changed {
		t.Errorf("did not expect a change when reapplying the same casemapping")
	}
}

func TestExtensionsApplyChanModes(t *testing.T) {
	e := NewExtensions()
	e.Apply([]string{"CHANMODES=eIb,k,l,imnpst"})
	cm := e.ChanModes()
	if cm.ModeType('e') != ModeTypeList || cm.ModeType('k') != ModeTypeParamSet || cm.ModeType('l') != ModeTypeParam || cm.ModeType('m') != ModeTypeFlag {
		t.Errorf("unexpected chanmodes taxonomy: %+v", cm)
	}
}

func TestExtensionsApplyPrefix(t *testing.T) {
	e := NewExtensions()
	e.Apply([]string{"PREFIX=(ohv)@%+"})
	if e.StatusPrefix()['@'] != 'o' || e.StatusPrefix()['%'] != 'h' || e.StatusPrefix()['+'] != 'v' {
		t.Errorf("unexpected status prefix map: %+v", e.StatusPrefix())
	}
	order := e.PrefixOrder()
	if string(order) != "ohv" {
		t.Errorf("expected prefix order \"ohv\", got %q", string(order))
	}
}

func TestExtensionsApplyTopicLen(t *testing.T) {
	e := NewExtensions()
	e.Apply([]string{"TOPICLEN=390"})
	if e.TopicLength() != 390 {
		t.Errorf("expected TOPICLEN 390, got %d", e.TopicLength())
	}
	e.Apply([]string{"TOPICLEN="})
	if e.TopicLength() != -1 {
		t.Errorf("expected empty TOPICLEN to mean unlimited, got %d", e.TopicLength())
	}
}

func TestExtensionsApplyMonitorWatch(t *testing.T) {
	e := NewExtensions()
	if e.SupportsMonitor() || e.SupportsWatch() {
		t.Fatalf("expected neither MONITOR nor WATCH by default")
	}
	e.Apply([]string{"MONITOR=100"})
	if !e.SupportsMonitor() || e.MonitorLimit() != 100 {
		t.Errorf("expected MONITOR support with limit 100, got supports=%v limit=%d", e.SupportsMonitor(), e.MonitorLimit())
	}

	e2 := NewExtensions()
	e2.Apply([]string{"WATCH=128"})
	if !e2.SupportsWatch() || e2.MonitorLimit() != 128 {
		t.Errorf("expected WATCH fallback limit 128, got %d", e2.MonitorLimit())
	}
}

func TestExtensionsApplyExceptsInvex(t *testing.T) {
	e := NewExtensions()
	e.Apply([]string{"EXCEPTS", "INVEX"})
	if !e.SupportsBanExceptions() || e.BanExceptionsMode() != 'e' {
		t.Errorf("expected default EXCEPTS mode 'e', got %q supports=%v", e.BanExceptionsMode(), e.SupportsBanExceptions())
	}
	if !e.SupportsInviteExceptions() || e.InviteExceptionsMode() != 'I' {
		t.Errorf("expected default INVEX mode 'I', got %q supports=%v", e.InviteExceptionsMode(), e.SupportsInviteExceptions())
	}
	if !containsByte(e.ChanModes().List, 'e') || !containsByte(e.ChanModes().List, 'I') {
		t.Errorf("expected except/invex letters folded into the List bucket: %+v", e.ChanModes().List)
	}
}

func TestExtensionsApplyChanLimitAndTargMax(t *testing.T) {
	e := NewExtensions()
	e.Apply([]string{"CHANLIMIT=#:20,&:10"})
	if n, ok := e.ChannelLimit('#'); !ok || n != 20 {
		t.Errorf("expected #=20, got %d ok=%v", n, ok)
	}
	if n, ok := e.ChannelLimit('&'); !ok || n != 10 {
		t.Errorf("expected &=10, got %d ok=%v", n, ok)
	}

	e.Apply([]string{"TARGMAX=PRIVMSG:4,NOTICE:"})
	if n, ok := e.MaxTargets("PRIVMSG"); !ok || n != 4 {
		t.Errorf("expected PRIVMSG max targets 4, got %d ok=%v", n, ok)
	}
	if _, ok := e.MaxTargets("NOTICE"); ok {
		t.Errorf("expected an empty TARGMAX value to mean unknown/unset")
	}
}

func TestExtensionsApplyNegatedToken(t *testing.T) {
	e := NewExtensions()
	e.Apply([]string{"WHOX"})
	if !e.SupportsWhox() {
		t.Fatalf("expected WHOX to be recorded")
	}
	e.Apply([]string{"-WHOX"})
	if _, ok := e.Raw("WHOX"); ok {
		t.Errorf("expected -WHOX to remove the raw token")
	}
}

func TestDecodeISUPPORTValue(t *testing.T) {
	if got := decodeISUPPORTValue(`a\x20b`); got != "a b" {
		t.Errorf(`decodeISUPPORTValue("a\\x20b") = %q, want "a b"`, got)
	}
	if got := decodeISUPPORTValue("plain"); got != "plain" {
		t.Errorf("decodeISUPPORTValue should leave plain values untouched, got %q", got)
	}
}
