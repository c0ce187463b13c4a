package irc

import (
	"strings"
	"testing"
	"time"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	user := NewLocalUser("dan", "d", "Dan")
	s, err := NewSession(user, "testnet", Config{})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if err := s.Connect("irc.example.org", 6667); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	return s
}

func handle(t *testing.T, s *Session, raw string) {
	t.Helper()
	line, err := ParseLine(raw)
	if err != nil {
		t.Fatalf("ParseLine(%q): %v", raw, err)
	}
	s.HandleLine(line)
}

// registerSession drives a session through a minimal CAP-less registration,
// leaving it Online.
func registerSession(t *testing.T, s *Session) {
	t.Helper()
	s.NotifyTransportReady(false)
	s.Outbound() // drop CAP LS/NICK/USER

	handle(t, s, "CAP dan LS :")
	handle(t, s, ":irc.example.org 001 dan :Welcome")
	handle(t, s, ":irc.example.org 376 dan :End of MOTD")
	if s.State() != Online {
		t.Fatalf("expected Online after registration, got %v", s.State())
	}
}

func TestSessionNewSessionRejectsDoubleBinding(t *testing.T) {
	user := NewLocalUser("dan", "d", "Dan")
	if _, err := NewSession(user, "testnet", Config{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := NewSession(user, "testnet", Config{}); err == nil {
		t.Fatalf("expected an error binding an already-bound LocalUser twice")
	}
}

func TestSessionConnectRequiresOffline(t *testing.T) {
	s := newTestSession(t)
	if err := s.Connect("irc.example.org", 6667); err == nil {
		t.Fatalf("expected an error calling Connect twice")
	}
}

func TestSessionBeginsCapNegotiation(t *testing.T) {
	s := newTestSession(t)
	s.NotifyTransportReady(false)
	if s.State() != CapabilityNegotiating {
		t.Fatalf("expected CapabilityNegotiating, got %v", s.State())
	}
	out := s.Outbound()
	if len(out) != 3 || out[0] != "CAP LS 302" {
		t.Fatalf("unexpected outbound lines: %v", out)
	}
}

func TestSessionRequestCapsSkipsSaslAndTlsByDefault(t *testing.T) {
	s := newTestSession(t)
	s.NotifyTransportReady(false)
	s.Outbound()

	handle(t, s, "CAP dan LS :sasl tls multi-prefix")
	out := s.Outbound()
	if len(out) != 1 {
		t.Fatalf("expected a single CAP REQ line, got %v", out)
	}
	if strings.Contains(out[0], "sasl") {
		t.Errorf("did not expect sasl requested with no credentials configured, got %q", out[0])
	}
	if strings.Contains(out[0], "tls") {
		t.Errorf("did not expect tls requested in plaintext mode, got %q", out[0])
	}
	if !strings.Contains(out[0], "multi-prefix") {
		t.Errorf("expected multi-prefix still requested, got %q", out[0])
	}
}

func TestSessionRequestCapsIncludesSaslWithCredentials(t *testing.T) {
	s := newTestSession(t)
	s.cfg.SaslUsername = "dan"
	s.cfg.SaslPassword = "hunter2"
	s.NotifyTransportReady(false)
	s.Outbound()

	handle(t, s, "CAP dan LS :sasl=PLAIN")
	out := s.Outbound()
	if len(out) != 1 || !strings.Contains(out[0], "sasl") {
		t.Fatalf("expected sasl requested once credentials are configured, got %v", out)
	}
}

func TestSessionRequestCapsSkipsTlsOnceAlreadySecured(t *testing.T) {
	s := newTestSession(t)
	s.cfg.Tls = TlsStartTlsOptional
	s.NotifyTransportReady(true) // already secured via direct TLS
	s.Outbound()

	handle(t, s, "CAP dan LS :tls")
	out := s.Outbound()
	// With nothing left to request, CAP negotiation ends immediately
	// instead of issuing a CAP REQ.
	if len(out) != 1 || out[0] != "CAP END" {
		t.Fatalf("expected tls skipped and negotiation to end immediately, got %v", out)
	}
}

func TestSessionCapAckTlsTriggersStartTLSAndWithholdsCapEnd(t *testing.T) {
	s := newTestSession(t)
	s.cfg.Tls = TlsStartTlsOptional
	s.NotifyTransportReady(false) // classic pre-registration STARTTLS attempt
	s.Outbound()

	// The server doesn't support the classic extension; since TLS is only
	// optional the session falls back to plaintext CAP negotiation, where
	// it can still pick up the "tls" CAP as a second chance at a secure
	// transport.
	handle(t, s, ":irc.example.org 691 dan :STARTTLS failed")
	s.Outbound()

	handle(t, s, "CAP dan LS :tls")
	out := s.Outbound()
	if len(out) != 1 || !strings.Contains(out[0], "tls") {
		t.Fatalf("expected a CAP REQ requesting tls, got %v", out)
	}

	handle(t, s, "CAP dan ACK :tls")
	out = s.Outbound()
	if len(out) != 1 || out[0] != "STARTTLS" {
		t.Fatalf("expected a STARTTLS command issued on tls CAP ACK, got %v", out)
	}
	if s.State() == Registering {
		t.Fatalf("expected CAP END withheld until the STARTTLS handshake resolves")
	}

	handle(t, s, ":irc.example.org 670 dan :STARTTLS successful")
	s.NotifyTransportReady(true)
	if s.State() != Registering {
		t.Fatalf("expected CAP negotiation to resume and end once the upgrade completes, got %v", s.State())
	}
	out = s.Outbound()
	if len(out) != 1 || out[0] != "CAP END" {
		t.Fatalf("expected CAP END sent once the pending tls upgrade resolves, got %v", out)
	}
}

func TestSessionStartTLSFlow(t *testing.T) {
	s := newTestSession(t)
	s.cfg.Tls = TlsStartTlsOptional
	s.NotifyTransportReady(false)
	if s.State() != SslHandshaking {
		t.Fatalf("expected SslHandshaking while waiting for STARTTLS, got %v", s.State())
	}
	out := s.Outbound()
	if len(out) != 1 || out[0] != "STARTTLS" {
		t.Fatalf("expected a single STARTTLS line, got %v", out)
	}

	handle(t, s, ":irc.example.org 670 dan :STARTTLS successful")
	if s.State() != SslHandshaking {
		t.Fatalf("expected to remain in SslHandshaking until the caller upgrades the transport")
	}
	s.NotifyTransportReady(true)
	if s.State() != CapabilityNegotiating {
		t.Fatalf("expected CapabilityNegotiating once the TLS handshake completes, got %v", s.State())
	}
}

func TestSessionStartTLSRequiredButUnsupported(t *testing.T) {
	s := newTestSession(t)
	s.cfg.Tls = TlsStartTlsRequired
	s.NotifyTransportReady(false)
	s.Outbound()

	handle(t, s, ":irc.example.org 691 dan :STARTTLS failed")
	if s.State() != Disconnecting {
		t.Fatalf("expected the session to quit when required STARTTLS is rejected, got %v", s.State())
	}
	if s.DisconnectReason() != TlsNotSupported {
		t.Errorf("expected TlsNotSupported, got %v", s.DisconnectReason())
	}
}

func TestSessionFullRegistration(t *testing.T) {
	s := newTestSession(t)
	registerSession(t, s)

	events := s.Events()
	found := false
	for _, ev := range events {
		if _, ok := ev.(RegisteredEvent); ok {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a RegisteredEvent once registration completes, got %+v", events)
	}
	if s.Nick() != "dan" {
		t.Errorf("expected nick dan, got %q", s.Nick())
	}
}

func TestSessionNicknameInUseDuringRegistration(t *testing.T) {
	s := newTestSession(t)
	s.NotifyTransportReady(false)
	s.Outbound()

	handle(t, s, ":irc.example.org 433 dan dan :Nickname is already in use")
	out := s.Outbound()
	if len(out) != 1 || out[0] != "NICK dan_" {
		t.Fatalf("expected a retry with an underscore-suffixed nick, got %v", out)
	}
}

func TestSessionIsupportCasemappingChange(t *testing.T) {
	s := newTestSession(t)
	registerSession(t, s)

	handle(t, s, ":irc.example.org 005 dan CASEMAPPING=ascii :are supported by this server")
	if s.Comparer().CaseMapping != CaseMappingASCII {
		t.Errorf("expected the comparer to switch to ascii, got %v", s.Comparer().CaseMapping)
	}
}

func TestSessionJoinProducesNamesTaskAndMembership(t *testing.T) {
	s := newTestSession(t)
	registerSession(t, s)

	handle(t, s, ":dan!d@localhost JOIN #ircv3")
	out := s.Outbound()
	if len(out) != 1 || out[0] != "NAMES #ircv3" {
		t.Fatalf("expected a NAMES request after a self-join, got %v", out)
	}

	events := s.Events()
	var task *JoinTask
	for _, ev := range events {
		if j, ok := ev.(ChannelJoin); ok {
			task = j.Task
		}
	}
	if task == nil {
		t.Fatalf("expected a JoinTask attached to the self-join event")
	}

	handle(t, s, ":irc.example.org 353 dan = #ircv3 :dan @alice")
	handle(t, s, ":irc.example.org 366 dan #ircv3 :End of names list")

	select {
	case <-task.Done():
		if task.Err() != nil {
			t.Errorf("expected the join task to succeed, got %v", task.Err())
		}
	default:
		t.Fatalf("expected the join task to be complete after RPL_ENDOFNAMES")
	}

	c, ok := s.store.findChannel("#ircv3")
	if !ok {
		t.Fatalf("expected #ircv3 to be tracked")
	}
	if len(c.Members()) != 2 {
		t.Fatalf("expected 2 members, got %d", len(c.Members()))
	}
	alice, ok := s.store.findUser("alice")
	if !ok {
		t.Fatalf("expected alice to be known")
	}
	m := c.Members()[alice]
	if m == nil || !m.Status.Has('o') {
		t.Errorf("expected alice to hold op status, got %+v", m)
	}
}

func TestSessionJoinTaskFailsOnDisconnect(t *testing.T) {
	s := newTestSession(t)
	registerSession(t, s)

	handle(t, s, ":dan!d@localhost JOIN #ircv3")
	events := s.Events()
	var task *JoinTask
	for _, ev := range events {
		if j, ok := ev.(ChannelJoin); ok {
			task = j.Task
		}
	}
	if task == nil {
		t.Fatalf("expected a join task")
	}

	s.NotifyTransportClosed(ServerQuit)
	select {
	case <-task.Done():
		if task.Err() == nil {
			t.Errorf("expected the pending join task to fail on disconnect")
		}
	default:
		t.Fatalf("expected the join task to complete (with failure) on disconnect")
	}
}

func TestSessionPrivmsgAndNotice(t *testing.T) {
	s := newTestSession(t)
	registerSession(t, s)

	handle(t, s, ":dan!d@localhost JOIN #ircv3")
	s.Events()
	handle(t, s, ":irc.example.org 353 dan = #ircv3 :dan")
	handle(t, s, ":irc.example.org 366 dan #ircv3 :End of names list")
	s.Events()

	handle(t, s, ":alice!a@localhost PRIVMSG #ircv3 :hello there")
	events := s.Events()
	if len(events) != 1 {
		t.Fatalf("expected one event, got %+v", events)
	}
	msg, ok := events[0].(ChannelMessage)
	if !ok || msg.Content != "hello there" || msg.User != "alice" || msg.Channel != "#ircv3" {
		t.Fatalf("unexpected event: %+v", events[0])
	}

	handle(t, s, ":alice!a@localhost PRIVMSG dan :a private message")
	events = s.Events()
	pm, ok := events[0].(PrivateMessage)
	if !ok || pm.Content != "a private message" {
		t.Fatalf("unexpected event: %+v", events[0])
	}
}

func TestSessionCTCPDispatch(t *testing.T) {
	s := newTestSession(t)
	registerSession(t, s)

	handle(t, s, ":alice!a@localhost PRIVMSG dan :\x01VERSION\x01")
	events := s.Events()
	ctcp, ok := events[0].(PrivateCTCP)
	if !ok || ctcp.Command != "VERSION" {
		t.Fatalf("unexpected event: %+v", events[0])
	}
}

func TestSessionQuitRemovesMembership(t *testing.T) {
	s := newTestSession(t)
	registerSession(t, s)

	handle(t, s, ":dan!d@localhost JOIN #ircv3")
	s.Events()
	handle(t, s, ":irc.example.org 353 dan = #ircv3 :dan @alice")
	handle(t, s, ":irc.example.org 366 dan #ircv3 :End of names list")
	s.Events()

	handle(t, s, ":alice!a@localhost QUIT :Leaving")
	events := s.Events()
	var sawQuit, sawDisappeared bool
	for _, ev := range events {
		switch ev.(type) {
		case UserQuit:
			sawQuit = true
		case UserDisappeared:
			sawDisappeared = true
		}
	}
	if !sawQuit || !sawDisappeared {
		t.Fatalf("expected UserQuit and UserDisappeared events, got %+v", events)
	}
	if _, ok := s.store.findUser("alice"); ok {
		t.Errorf("expected alice to be reaped after quitting the last shared channel")
	}
}

func TestSessionSelfPartDropsChannel(t *testing.T) {
	s := newTestSession(t)
	registerSession(t, s)

	handle(t, s, ":dan!d@localhost JOIN #ircv3")
	s.Events()
	handle(t, s, ":irc.example.org 353 dan = #ircv3 :dan")
	handle(t, s, ":irc.example.org 366 dan #ircv3 :End of names list")
	s.Events()

	handle(t, s, ":dan!d@localhost PART #ircv3 :bye")
	events := s.Events()
	var sawLeave bool
	for _, ev := range events {
		if _, ok := ev.(ChannelLeave); ok {
			sawLeave = true
		}
	}
	if !sawLeave {
		t.Fatalf("expected a ChannelLeave event on self-part, got %+v", events)
	}
	if _, ok := s.store.findChannel("#ircv3"); ok {
		t.Errorf("expected the channel to be dropped after self-part")
	}
}

func TestSessionNickChangeTracksSelf(t *testing.T) {
	s := newTestSession(t)
	registerSession(t, s)

	handle(t, s, ":dan!d@localhost NICK newdan")
	if s.Nick() != "newdan" {
		t.Errorf("expected nick to update to newdan, got %q", s.Nick())
	}
}

func TestSessionModeChangesStatus(t *testing.T) {
	s := newTestSession(t)
	registerSession(t, s)

	handle(t, s, ":dan!d@localhost JOIN #ircv3")
	s.Events()
	handle(t, s, ":irc.example.org 353 dan = #ircv3 :dan alice")
	handle(t, s, ":irc.example.org 366 dan #ircv3 :End of names list")
	s.Events()

	handle(t, s, ":irc.example.org MODE #ircv3 +o alice")
	events := s.Events()
	found := false
	for _, ev := range events {
		if _, ok := ev.(ChannelModesSet); ok {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a ChannelModesSet event, got %+v", events)
	}

	c, _ := s.store.findChannel("#ircv3")
	alice, _ := s.store.findUser("alice")
	if !c.Members()[alice].Status.Has('o') {
		t.Errorf("expected alice to hold op after MODE +o")
	}
}

func TestSessionPingKeepaliveAndTimeout(t *testing.T) {
	s := newTestSession(t)
	s.cfg.PingTimeout = 30 * time.Second
	registerSession(t, s)

	start := time.Now()
	s.lastInboundAt = start
	s.Tick(start.Add(31 * time.Second))
	out := s.Outbound()
	if len(out) != 1 || out[0][:4] != "PING" {
		t.Fatalf("expected a PING after the silence threshold, got %v", out)
	}

	s.Tick(start.Add(62 * time.Second))
	if s.State() != Disconnecting || s.DisconnectReason() != PingTimeout {
		t.Fatalf("expected a ping-timeout disconnect, got state=%v reason=%v", s.State(), s.DisconnectReason())
	}
}

func TestSessionPongResetsPingState(t *testing.T) {
	s := newTestSession(t)
	s.cfg.PingTimeout = 30 * time.Second
	registerSession(t, s)

	start := time.Now()
	s.lastInboundAt = start
	s.Tick(start.Add(31 * time.Second))
	s.Outbound()

	handle(t, s, ":irc.example.org PONG irc.example.org :1")
	if s.pingArmed {
		t.Errorf("expected any inbound line to disarm the pending ping")
	}
}

func TestSessionRespondsToServerPing(t *testing.T) {
	s := newTestSession(t)
	handle(t, s, "PING :12345")
	out := s.Outbound()
	if len(out) != 1 || out[0] != "PONG 12345" {
		t.Fatalf("expected a PONG echoing the token, got %v", out)
	}
}

func TestSessionMonitorOnlineOfflineLifecycle(t *testing.T) {
	s := newTestSession(t)
	registerSession(t, s)

	s.AddMonitor("alice")
	out := s.Outbound()
	if len(out) != 1 || out[0] != "MONITOR + alice" {
		t.Fatalf("unexpected outbound: %v", out)
	}

	handle(t, s, ":irc.example.org 730 dan :alice!a@localhost")
	events := s.Events()
	var sawOnline bool
	for _, ev := range events {
		if _, ok := ev.(MonitorOnline); ok {
			sawOnline = true
		}
	}
	if !sawOnline {
		t.Fatalf("expected a MonitorOnline event, got %+v", events)
	}
	if _, ok := s.store.findUser("alice"); !ok {
		t.Errorf("expected alice to be tracked after MONITOR online")
	}

	handle(t, s, ":irc.example.org 731 dan :alice")
	s.RemoveMonitor("alice")
	if _, ok := s.store.findUser("alice"); ok {
		t.Errorf("expected alice to be reaped once untracked and offline with no shared channel")
	}
}

func TestSessionWatchListReconciliation(t *testing.T) {
	s := newTestSession(t)
	registerSession(t, s)

	s.AddWatch("alice")
	s.AddWatch("bob")
	s.Outbound()

	// alice appears in the watch-list reply; bob does not, so bob is
	// missing and should be reported offline once the list ends.
	handle(t, s, ":irc.example.org 604 alice a localhost 1000000 :is online")
	handle(t, s, ":irc.example.org 607 dan WATCH :End of WATCH list")

	if _, ok := s.store.findUser("bob"); ok {
		t.Errorf("expected bob to be reaped as offline-and-untracked after RPL_ENDOFWATCHLIST")
	}
	if _, ok := s.store.findUser("alice"); !ok {
		t.Errorf("expected alice to remain tracked")
	}
}

func TestSessionDisconnectSendsQuit(t *testing.T) {
	s := newTestSession(t)
	registerSession(t, s)

	s.Disconnect("goodbye")
	out := s.Outbound()
	if len(out) != 1 || out[0] != "QUIT goodbye" {
		t.Fatalf("expected a QUIT line, got %v", out)
	}
	if s.State() != Disconnecting {
		t.Errorf("expected Disconnecting, got %v", s.State())
	}
}
