package irc

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ClientState is the registration/connection lifecycle a Session moves
// through (spec.md §3).
type ClientState int

const (
	Offline ClientState = iota
	Connecting
	SslHandshaking
	CapabilityNegotiating
	Registering
	ReceivingServerInfo
	Online
	Disconnecting
	Disconnected
)

func (s ClientState) String() string {
	switch s {
	case Offline:
		return "offline"
	case Connecting:
		return "connecting"
	case SslHandshaking:
		return "ssl-handshaking"
	case CapabilityNegotiating:
		return "capability-negotiating"
	case Registering:
		return "registering"
	case ReceivingServerInfo:
		return "receiving-server-info"
	case Online:
		return "online"
	case Disconnecting:
		return "disconnecting"
	case Disconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// DisconnectReason classifies why a session left the Online state.
type DisconnectReason int

const (
	DisconnectNone DisconnectReason = iota
	ClientQuit
	ServerQuit
	PingTimeout
	SaslAuthenticationFailed
	TlsNotSupported
	Exception
)

// TlsMode selects how a Session expects its transport collaborator to
// secure the connection (spec.md §6); the core never dials a socket
// itself, it only emits/expects STARTTLS negotiation on the wire.
type TlsMode int

const (
	TlsPlaintext TlsMode = iota
	TlsStartTlsOptional
	TlsStartTlsRequired
	TlsTls
	TlsNoCertCheck
)

// SaslAuthenticationMode governs how strictly SASL is required (spec.md §6).
type SaslAuthenticationMode int

const (
	SaslDisabled SaslAuthenticationMode = iota
	SaslOptional
	SaslRequired
)

// QUIT reason bodies, bit-exact per spec.md §6.
const (
	reasonCasemappingCollision     = "Casemapping change caused a name collision"
	reasonSaslNotSupported         = "SASL authentication is not supported by this server"
	reasonSaslMechanismNotSupported = "SASL authentication mechanism not supported"
	reasonStartTlsNotSupported      = "STARTTLS is not supported by this server"
	reasonPingTimeout               = "Ping timeout"
)

// Config carries the per-session policy knobs spec.md §6 names.
type Config struct {
	PingTimeout            time.Duration
	SaslAuthenticationMode  SaslAuthenticationMode
	SaslUsername            string
	SaslPassword            string
	Tls                      TlsMode
	Debug                    bool
}

// LocalUser is the identity a Session registers under. A LocalUser can be
// bound to at most one live Session at a time (spec.md §6 constructor
// contract).
type LocalUser struct {
	Nickname string
	Username string
	RealName string

	bound *Session
}

// NewLocalUser returns an unbound identity ready to pass to NewSession.
func NewLocalUser(nickname, username, realName string) *LocalUser {
	return &LocalUser{Nickname: nickname, Username: username, RealName: realName}
}

// JoinTask is the one-shot completion signal attached to a ChannelJoin
// event (spec.md §9): it completes when the NAMES listing for that join
// finishes (RPL_ENDOFNAMES) or fails when the session disconnects first.
// Single producer (the Session), single waiter, per spec.md.
type JoinTask struct {
	done chan struct{}
	err  error
}

func newJoinTask() *JoinTask {
	return &JoinTask{done: make(chan struct{})}
}

// Done returns a channel that closes once the join task completes.
func (t *JoinTask) Done() <-chan struct{} { return t.done }

// Err returns the failure reason, if the task completed by failing (e.g. a
// disconnect before RPL_ENDOFNAMES arrived), or nil on success.
func (t *JoinTask) Err() error { return t.err }

func (t *JoinTask) complete(err error) {
	t.err = err
	close(t.done)
}

type nameEntry struct {
	nick, ident, host string
	status            ChannelStatus
}

type pendingTopic struct {
	oldTopic string
	oldSetter *Prefix
	oldStamp time.Time
}

// Session is the protocol state machine (component I): it consumes parsed
// inbound Lines, mutates the case-mapped entity store, SASL/capability/
// presence sub-components, and produces outbound Lines and typed Events.
// Per spec.md §5, a Session is single-threaded cooperative: every method
// here must be called from the same execution context.
type Session struct {
	localUser   *LocalUser
	networkName string
	cfg         Config

	state            ClientState
	disconnectReason DisconnectReason

	cmp      Comparer
	ext      *Extensions
	caps     *CapabilityRegistry
	store    *store
	presence *presence
	typingIn  *TypingTracker
	typingOut *OutboundTyping

	self *User // the local user's own entity in store, once registered

	address string
	port    int

	tlsActive     bool
	capNegotiated bool
	capEnded      bool
	tlsCapPending bool // STARTTLS was issued in response to a "tls" CAP ACK; holds CAP END until it resolves

	sasl *saslAttempt

	out    []string
	events []Event

	lastInboundAt time.Time
	pingArmed     bool
	pingSentAt    time.Time
	pingToken     int

	nameBuffers map[string][]nameEntry
	joinTasks   map[string]*JoinTask

	topicPending map[string]pendingTopic

	accountAuthoritative map[*User]bool
}

// NewSession constructs a Session for user against a server identified by
// networkName (a caller-chosen label; it is not resolved to an address
// here — see Connect). Fails if user is already bound to a live Session.
func NewSession(user *LocalUser, networkName string, cfg Config) (*Session, error) {
	if user == nil {
		return nil, fmt.Errorf("irc: NewSession: nil local user")
	}
	if user.Nickname == "" {
		return nil, fmt.Errorf("irc: NewSession: nickname required")
	}
	if user.bound != nil {
		return nil, fmt.Errorf("irc: NewSession: local user %q is already bound to a session", user.Nickname)
	}
	if user.Username == "" {
		user.Username = user.Nickname
	}
	if user.RealName == "" {
		user.RealName = user.Nickname
	}

	cmp := NewComparer(CaseMappingRFC1459)
	s := &Session{
		localUser:             user,
		networkName:           networkName,
		cfg:                   cfg,
		state:                 Offline,
		cmp:                   cmp,
		ext:                   NewExtensions(),
		caps:                  NewCapabilityRegistry(DefaultSupportedCapabilities),
		store:                 newStore(cmp),
		presence:              newPresence(cmp),
		typingIn:              newTypingTracker(cmp),
		typingOut:             newOutboundTyping(cmp),
		nameBuffers:           map[string][]nameEntry{},
		joinTasks:             map[string]*JoinTask{},
		topicPending:          map[string]pendingTopic{},
		accountAuthoritative:  map[*User]bool{},
	}
	user.bound = s
	return s, nil
}

// --- external interface: connection lifecycle, Send, event drain ---

// Connect records the transport target and moves to Connecting. Dialing
// the socket itself is the transport collaborator's job (spec.md §1 Non-
// goals); call NotifyTransportReady once it has connected.
func (s *Session) Connect(address string, port int) error {
	if s.state != Offline {
		return fmt.Errorf("irc: Connect called in state %v", s.state)
	}
	s.address, s.port = address, port
	s.state = Connecting
	s.lastInboundAt = time.Now()
	return nil
}

// NotifyTLSHandshaking marks that the transport is performing a direct TLS
// handshake (Config.Tls == TlsTls/TlsNoCertCheck), before any protocol
// bytes flow.
func (s *Session) NotifyTLSHandshaking() {
	if s.state == Connecting {
		s.state = SslHandshaking
	}
}

// NotifyTransportReady tells the Session the transport is connected (and,
// for direct TLS, that the handshake completed) and that protocol bytes
// may now flow. tlsActive reports whether the channel is already secured.
// If Config.Tls requests STARTTLS and tlsActive is false, this sends
// STARTTLS and waits for 670/691 instead of beginning CAP negotiation;
// call NotifyTransportReady(true) again once the external caller has
// performed the TLS handshake triggered by RPL_STARTTLS (the core never
// drives the handshake itself, per spec.md §1).
func (s *Session) NotifyTransportReady(tlsActive bool) {
	s.tlsActive = tlsActive
	s.lastInboundAt = time.Now()

	if s.tlsCapPending {
		// The handshake was triggered by a "tls" CAP ACK mid-negotiation,
		// not the pre-registration STARTTLS flow: resume where CAP
		// negotiation left off instead of restarting it.
		s.tlsCapPending = false
		s.maybeEndCapNegotiation()
		return
	}

	if !tlsActive && (s.cfg.Tls == TlsStartTlsOptional || s.cfg.Tls == TlsStartTlsRequired) {
		s.state = SslHandshaking
		s.sendRaw("STARTTLS")
		return
	}
	s.beginCapNegotiation()
}

func (s *Session) beginCapNegotiation() {
	s.state = CapabilityNegotiating
	s.sendRaw("CAP", "LS", "302")
	s.sendRaw("NICK", s.localUser.Nickname)
	s.sendRaw("USER", s.localUser.Username, "0", "*", s.localUser.RealName)
}

// Send enqueues an arbitrary outbound line, after validating it carries no
// embedded CRLF (spec.md §6).
func (s *Session) Send(line Line) error {
	text := line.String()
	if strings.ContainsAny(text, "\r\n") {
		return fmt.Errorf("irc: Send: line contains embedded CRLF")
	}
	s.out = append(s.out, text)
	return nil
}

func (s *Session) sendRaw(command string, params ...string) {
	s.out = append(s.out, Line{Command: command, Params: params}.String())
}

// Outbound drains and returns every line queued since the last call, in
// the order handlers queued them (spec.md §5 ordering guarantee).
func (s *Session) Outbound() []string {
	out := s.out
	s.out = nil
	return out
}

// Events drains and returns every event raised since the last call.
func (s *Session) Events() []Event {
	evts := s.events
	s.events = nil
	return evts
}

func (s *Session) pushEvent(ev Event) {
	s.events = append(s.events, ev)
}

// State returns the current ClientState.
func (s *Session) State() ClientState { return s.state }

// DisconnectReason returns why the session left Online, once it has.
func (s *Session) DisconnectReason() DisconnectReason { return s.disconnectReason }

// Comparer exposes the session's current case-mapping comparer, e.g. for a
// caller matching a target string against s.Nick().
func (s *Session) Comparer() Comparer { return s.cmp }

// Nick returns the locally-held nickname.
func (s *Session) Nick() string {
	if s.self != nil {
		return s.self.Nickname
	}
	return s.localUser.Nickname
}

// Disconnect requests an orderly shutdown: QUIT with the given reason (a
// human-readable message, not one of the bit-exact constants — those are
// used internally for fatal conditions) and transition to Disconnecting.
// Pending JoinTasks fail with the Disconnected reason (spec.md §5).
func (s *Session) Disconnect(message string) {
	s.quit(message, ClientQuit)
}

func (s *Session) quit(message string, reason DisconnectReason) {
	if s.state == Disconnecting || s.state == Disconnected {
		return
	}
	s.sendRaw("QUIT", message)
	s.state = Disconnecting
	s.disconnectReason = reason
	s.failPendingJoins(fmt.Errorf("irc: session disconnected: %s", message))
}

// NotifyTransportClosed tells the Session the transport closed (external
// cancellation, spec.md §5): it moves straight to Disconnected and fails
// every pending task.
func (s *Session) NotifyTransportClosed(reason DisconnectReason) {
	s.state = Disconnected
	s.disconnectReason = reason
	s.failPendingJoins(fmt.Errorf("irc: transport closed"))
}

func (s *Session) failPendingJoins(err error) {
	for key, task := range s.joinTasks {
		task.complete(err)
		delete(s.joinTasks, key)
	}
}

// Tick drives the session's only internally-owned timeout (the ping
// keepalive, spec.md §4.I) and the typing-notification timeout sweep
// (SPEC_FULL.md §3). The caller is expected to invoke this periodically
// (e.g. once a second) from its own timer, since the core never starts
// goroutines of its own.
func (s *Session) Tick(now time.Time) {
	for _, ev := range s.typingIn.Expire(now) {
		s.pushEvent(ev)
	}

	if s.cfg.PingTimeout <= 0 || s.state != Online {
		return
	}
	silence := now.Sub(s.lastInboundAt)
	switch {
	case !s.pingArmed && silence >= s.cfg.PingTimeout:
		s.pingArmed = true
		s.pingSentAt = now
		s.pingToken++
		s.sendRaw("PING", strconv.Itoa(s.pingToken))
	case s.pingArmed && now.Sub(s.pingSentAt) >= s.cfg.PingTimeout:
		s.quit(reasonPingTimeout, PingTimeout)
	}
}

// --- inbound dispatch ---

// HandleLine processes one parsed inbound protocol line, per spec.md §4.I.
// State is fully applied before any event from this line is pushed, and
// before HandleLine may be called again for the next line (spec.md §5).
func (s *Session) HandleLine(line Line) {
	s.lastInboundAt = time.Now()
	s.pingArmed = false

	if s.cfg.Debug {
		s.pushEvent(TraceEvent{Outbound: false, Line: line.String()})
	}

	switch line.Command {
	case "PING":
		s.sendRaw("PONG", line.Params...)
		return
	case "ERROR":
		msg := ""
		if len(line.Params) > 0 {
			msg = line.Params[len(line.Params)-1]
		}
		s.state = Disconnecting
		s.disconnectReason = ServerQuit
		s.failPendingJoins(fmt.Errorf("irc: server error: %s", msg))
		return
	}

	if s.state != Online {
		if s.handleRegistering(line) {
			return
		}
	}
	s.handleOnline(line)
}

// handleRegistering processes the lines that only make sense before the
// session reaches Online: CAP LS accumulation/ACK gating, AUTHENTICATE
// challenges, and the ERR_NICKNAMEINUSE auto-retry during registration.
// It returns true if it fully handled the line; otherwise the caller falls
// through to handleOnline, mirroring the teacher's handleStart/handle
// two-phase dispatch (generalized per SPEC_FULL.md §4).
func (s *Session) handleRegistering(line Line) bool {
	switch line.Command {
	case "CAP":
		s.handleCap(line)
		return true
	case "AUTHENTICATE":
		s.handleAuthenticate(line)
		return true
	case errNicknameinuse:
		if s.state == Registering || s.state == CapabilityNegotiating {
			if len(line.Params) > 1 {
				s.sendRaw("NICK", line.Params[1]+"_")
			}
			return true
		}
		return false
	case rplStarttls:
		// External caller must now perform the TLS handshake and call
		// NotifyTransportReady(true) to resume.
		return true
	case errStarttls:
		if s.cfg.Tls == TlsStartTlsRequired {
			s.quit(reasonStartTlsNotSupported, TlsNotSupported)
			return true
		}
		s.beginCapNegotiation()
		return true
	}

	switch classifySASLNumeric(line.Command) {
	case saslOutcomeSuccess:
		s.sasl = nil
		s.maybeEndCapNegotiation()
		return true
	case saslOutcomeFailure:
		if s.sasl != nil {
			s.sasl.advance()
			if !s.sasl.exhausted() {
				s.sendRaw("AUTHENTICATE", s.sasl.current().Name)
				return true
			}
			s.sasl = nil
		}
		if s.cfg.SaslAuthenticationMode == SaslRequired {
			s.quit(reasonSaslMechanismNotSupported, SaslAuthenticationFailed)
			return true
		}
		s.maybeEndCapNegotiation()
		return true
	}
	return false
}

func (s *Session) handleCap(line Line) {
	if len(line.Params) < 2 {
		return
	}
	sub := line.Params[1]
	rest := line.Params[2:]

	switch sub {
	case "LS":
		final, added := s.caps.HandleLS(rest)
		if len(added) > 0 {
			s.pushEvent(CapabilitiesAdded{Names: added})
		}
		if !final {
			return
		}
		s.capNegotiated = true
		s.requestCaps()
	case "NEW":
		added := s.caps.HandleNew(rest)
		if len(added) > 0 {
			s.pushEvent(CapabilitiesAdded{Names: added})
		}
		s.requestCaps()
	case "DEL":
		removed := s.caps.HandleDel(rest)
		if len(removed) > 0 {
			s.pushEvent(CapabilitiesDeleted{Names: removed})
		}
	case "ACK":
		acked := s.caps.HandleAck(rest)
		for _, name := range acked {
			switch name {
			case "sasl":
				s.beginSasl()
			case "tls":
				if !s.tlsActive {
					s.tlsCapPending = true
					s.sendRaw("STARTTLS")
				}
			}
		}
		s.maybeEndCapNegotiation()
	case "NAK":
		s.caps.HandleNak(rest)
		s.maybeEndCapNegotiation()
	}
}

// requestCaps issues CAP REQ for every newly-available supported
// capability, mirroring the teacher's accumulate-then-request shape.
// Per spec.md §4.E, "sasl" is only requested if the session has a usable
// mechanism to offer, and "tls" only if the configured TLS mode calls for
// STARTTLS and the transport isn't already secured.
func (s *Session) requestCaps() {
	wanted := map[string]struct{}{}
	for name := range DefaultSupportedCapabilities {
		wanted[name] = struct{}{}
	}
	if len(s.eligibleSASLMechanisms()) == 0 {
		delete(wanted, "sasl")
	}
	if s.tlsActive || (s.cfg.Tls != TlsStartTlsOptional && s.cfg.Tls != TlsStartTlsRequired) {
		delete(wanted, "tls")
	}
	names := s.caps.BuildRequest(wanted)
	var toRequest []string
	for _, name := range names {
		if !s.caps.Enabled(name) {
			toRequest = append(toRequest, name)
		}
	}
	if len(toRequest) > 0 {
		s.sendRaw("CAP", "REQ", strings.Join(toRequest, " "))
	} else {
		s.maybeEndCapNegotiation()
	}
}

// maybeEndCapNegotiation sends CAP END once every requested capability has
// been ACKed/NAKed, no SASL attempt is in flight, and no "tls" CAP-ACK
// STARTTLS handshake is pending; the SASL outcome numerics call it again
// once an attempt started by the "sasl" ACK concludes, and
// NotifyTransportReady does the same once a pending TLS upgrade lands.
func (s *Session) maybeEndCapNegotiation() {
	if s.capEnded {
		return
	}
	if s.sasl != nil || s.tlsCapPending {
		return
	}
	s.capEnded = true
	s.sendRaw("CAP", "END")
	s.state = Registering
}

// eligibleSASLMechanisms returns the mechanisms this session could offer
// right now, given its current credentials and transport security.
func (s *Session) eligibleSASLMechanisms() []Mechanism {
	cfg := SASLConfig{
		Username:        s.cfg.SaslUsername,
		Password:        s.cfg.SaslPassword,
		ExternalAllowed: s.tlsActive,
	}
	return eligibleMechanisms(cfg, s.tlsActive)
}

func (s *Session) beginSasl() {
	cfg := SASLConfig{
		Username:        s.cfg.SaslUsername,
		Password:        s.cfg.SaslPassword,
		ExternalAllowed: s.tlsActive,
	}
	if cfg.Username == "" && s.cfg.SaslAuthenticationMode == SaslDisabled {
		s.maybeEndCapNegotiation()
		return
	}
	if !sharedMechanism(s.caps.Value("sasl"), eligibleMechanisms(cfg, s.tlsActive)) {
		if s.cfg.SaslAuthenticationMode == SaslRequired {
			s.quit(reasonSaslMechanismNotSupported, SaslAuthenticationFailed)
			return
		}
		s.maybeEndCapNegotiation()
		return
	}
	s.sasl = newSASLAttempt(cfg, s.tlsActive)
	if s.sasl.exhausted() {
		s.sasl = nil
		if s.cfg.SaslAuthenticationMode == SaslRequired {
			s.quit(reasonSaslMechanismNotSupported, SaslAuthenticationFailed)
			return
		}
		s.maybeEndCapNegotiation()
		return
	}
	s.sendRaw("AUTHENTICATE", s.sasl.current().Name)
}

func (s *Session) handleAuthenticate(line Line) {
	if s.sasl == nil || len(line.Params) == 0 {
		return
	}
	complete, err := s.sasl.feedChallenge(line.Params[0])
	if err != nil {
		s.sendRaw("AUTHENTICATE", "*")
		return
	}
	if !complete {
		return
	}

	mech := s.sasl.current()
	var resp []byte
	if !s.sasl.started {
		s.sasl.started = true
		_, resp, err = mech.Client.Start()
	} else {
		resp, err = mech.Client.Next(s.sasl.pending)
	}
	s.sasl.pending = nil
	if err != nil {
		s.sendRaw("AUTHENTICATE", "*")
		return
	}
	for _, chunk := range encodeResponse(resp) {
		s.sendRaw("AUTHENTICATE", chunk)
	}
}

// handleOnline processes every command that applies regardless of
// registration phase: numerics describing server/channel/user state, and
// the live commands (JOIN/PART/.../PRIVMSG) spec.md §4.I names.
func (s *Session) handleOnline(line Line) {
	now := line.TimeOrNow()

	switch line.Command {
	case rplWelcome:
		s.handleWelcome(line)
	case rplMyinfo:
		s.handleMyinfo(line)
	case rplIsupport:
		s.handleIsupport(line)
	case rplUmodeis:
		s.handleUmodeis(line, now)
	case rplAway:
		s.handleAway(line, now)
	case rplUnaway:
		s.pushEvent(AwayCancelled{User: s.Nick(), Time: now})
	case rplNowaway:
		s.pushEvent(AwaySet{User: s.Nick(), Time: now})
	case rplWhoisuser:
		s.handleWhoisUser(line)
	case rplWhoisregnick:
		s.handleWhoisRegnick(line)
	case rplWhoisaccount:
		s.handleWhoisAccount(line)
	case rplWhoischannels:
		s.handleWhoisChannels(line)
	case rplChannelmodeis:
		s.handleChannelmodeis(line)
	case rplCreationtime:
		s.handleCreationtime(line)
	case rplNotopic:
		s.handleNotopic(line, now)
	case rplTopic:
		s.handleTopicNumeric(line)
	case rplTopicwhotime:
		s.handleTopicWhoTime(line)
	case rplWhoreply:
		s.handleWhoReply(line)
	case rplNamreply:
		s.handleNamreply(line)
	case rplEndofnames:
		s.handleEndofnames(line, now)
	case rplMononline:
		s.handleMonOnline(line, now)
	case rplMonoffline:
		s.handleMonOffline(line, now)
	case rplLogon, rplNowon, rplWatchlist, rplNowisaway:
		s.handleWatchOnline(line, now)
	case rplLogoff, rplNowoff, rplWatchoff:
		s.handleWatchOffline(line, now)
	case rplGoneaway:
		s.handleWatchAway(line, now, true)
	case rplNotaway:
		s.handleWatchAway(line, now, false)
	case rplEndofwatchlist:
		s.handleEndofwatchlist(now)
	case rplEndofmotd, errNomotd:
		s.handleRegistrationComplete()
	case "CAP":
		s.handleCap(line)
	case "JOIN":
		s.handleJoin(line, now)
	case "PART":
		s.handlePart(line, now)
	case "KICK":
		s.handleKick(line, now)
	case "QUIT":
		s.handleQuit(line, now)
	case "TOPIC":
		s.handleTopicCommand(line, now)
	case "NICK":
		s.handleNick(line, now)
	case "MODE":
		s.handleMode(line, now)
	case "CHGHOST":
		s.handleChghost(line)
	case "ACCOUNT":
		s.handleAccount(line)
	case rplLoggedin:
		s.handleLoggedin(line)
	case rplLoggedout:
		s.handleLoggedout(line)
	case "PRIVMSG", "NOTICE":
		s.handleMessage(line, now)
	case "TAGMSG":
		s.handleTagmsg(line, now)
	default:
		if line.IsNumeric() {
			s.pushEvent(ErrorEvent{
				Severity: ReplySeverity(line.Command),
				Code:     line.Command,
				Message:  strings.Join(line.Params, " "),
			})
		}
	}
}

func (s *Session) handleWelcome(line Line) {
	if len(line.Params) == 0 {
		return
	}
	newNick := line.Params[0]
	former := s.Nick()
	if s.self == nil {
		s.self = s.store.ensureUser(newNick)
		s.self.IsSeen = true
	} else if s.cmp.Compare(former, newNick) != 0 {
		_ = s.store.rename(s.self, newNick)
	}
	if s.cmp.Compare(former, newNick) != 0 {
		s.pushEvent(NicknameChange{User: newNick, FormerNick: former, Time: time.Now()})
	}
	s.state = ReceivingServerInfo
	if s.cfg.SaslAuthenticationMode == SaslRequired && !s.capNegotiated {
		s.quit(reasonSaslNotSupported, SaslAuthenticationFailed)
	}
}

// handleRegistrationComplete moves the session to Online once the server
// signals the end of its post-welcome burst (RPL_ENDOFMOTD or
// ERR_NOMOTD), per spec.md §4.I.
func (s *Session) handleRegistrationComplete() {
	if s.state != ReceivingServerInfo {
		return
	}
	s.state = Online
	s.pushEvent(RegisteredEvent{})
}

// handleMyinfo records nothing beyond what ISUPPORT already derives: modern
// servers repeat the channel-mode taxonomy in both 004 and 005 CHANMODES,
// and the latter is authoritative (spec.md §4.D). 004 just confirms the
// connection reached that stage.
func (s *Session) handleMyinfo(line Line) {}

func (s *Session) handleIsupport(line Line) {
	if len(line.Params) < 2 {
		return
	}
	tokens := line.Params[1 : len(line.Params)-1]
	result := s.ext.Apply(tokens)
	if result.Changed {
		s.applyCaseMappingChange(result.New)
	}
}

// applyCaseMappingChange re-keys every case-mapped index (spec.md I7),
// aborting the session on collision (spec.md §7 fatal error).
func (s *Session) applyCaseMappingChange(newCM CaseMapping) {
	newCmp := NewComparer(newCM)
	if err := s.store.rekeyAll(newCmp); err != nil {
		s.quit(reasonCasemappingCollision, Exception)
		return
	}
	s.cmp = newCmp
}

func (s *Session) handleUmodeis(line Line, now time.Time) {
	if len(line.Params) < 2 {
		return
	}
	s.pushEvent(UserModesSet{Modes: strings.TrimLeft(line.Params[1], "+-"), Time: now})
}

func (s *Session) handleAway(line Line, now time.Time) {
	if len(line.Params) < 2 {
		return
	}
	u, ok := s.store.findUser(line.Params[0])
	if !ok {
		u = s.store.ensureUser(line.Params[0])
	}
	msg := line.Params[len(line.Params)-1]
	u.Away = true
	u.AwayReason = msg
	u.AwaySince = now
	s.store.maybeDropUser(u)
	s.pushEvent(AwayMessage{User: u.Nickname, Message: msg, Time: now})
}

func (s *Session) handleWhoisUser(line Line) {
	if len(line.Params) < 5 {
		return
	}
	u := s.store.ensureUser(line.Params[0])
	u.Ident = line.Params[1]
	u.Host = line.Params[2]
	u.FullName = line.Params[len(line.Params)-1]
}

func (s *Session) handleWhoisRegnick(line Line) {
	if len(line.Params) < 2 {
		return
	}
	u := s.store.ensureUser(line.Params[0])
	if s.accountAuthoritative[u] {
		return
	}
	account := line.Params[1]
	u.Account = &account
}

func (s *Session) handleWhoisAccount(line Line) {
	if len(line.Params) < 2 {
		return
	}
	u := s.store.ensureUser(line.Params[0])
	account := line.Params[1]
	u.Account = &account
	s.accountAuthoritative[u] = true
}

func (s *Session) handleWhoisChannels(line Line) {
	if len(line.Params) < 2 {
		return
	}
	u, ok := s.store.findUser(line.Params[0])
	if !ok {
		return
	}
	for _, entry := range strings.Fields(line.Params[len(line.Params)-1]) {
		i := 0
		for i < len(entry) {
			if _, ok := s.ext.StatusPrefix()[entry[i]]; !ok {
				break
			}
			i++
		}
		prefixes, name := entry[:i], entry[i:]
		c, ok := s.store.findChannel(name)
		if !ok {
			continue // spec.md §9 open question: unknown channel, ignore
		}
		m, ok := c.Members()[u]
		if !ok {
			continue
		}
		m.Status = FromPrefixes(prefixes, s.ext.StatusPrefix(), s.ext.PrefixOrder())
	}
}

func (s *Session) handleChannelmodeis(line Line) {
	if len(line.Params) < 2 {
		return
	}
	c, ok := s.store.findChannel(line.Params[0])
	if !ok {
		return
	}
	c.Modes.Params = map[byte]string{}
	c.Modes.Flags = map[byte]struct{}{}
	c.Modes.ApplyModeString(line.Params[1], line.Params[2:], nil)
}

func (s *Session) handleCreationtime(line Line) {
	if len(line.Params) < 2 {
		return
	}
	c, ok := s.store.findChannel(line.Params[0])
	if !ok {
		return
	}
	if n, err := strconv.ParseInt(line.Params[1], 10, 64); err == nil {
		c.Created = time.Unix(n, 0).UTC()
	}
}

func (s *Session) handleNotopic(line Line, now time.Time) {
	if len(line.Params) < 1 {
		return
	}
	c, ok := s.store.findChannel(line.Params[0])
	if !ok {
		return
	}
	old := pendingTopic{oldTopic: c.Topic, oldSetter: c.TopicSetter, oldStamp: c.TopicStamp}
	c.Topic, c.TopicSetter, c.TopicStamp = "", nil, time.Time{}
	s.pushEvent(ChannelTopicChanged{Channel: c.Name, Topic: "", Setter: "", Time: now, OldTopic: old.oldTopic, OldSetter: old.oldSetter.String(), OldStamp: old.oldStamp})
}

func (s *Session) handleTopicNumeric(line Line) {
	if len(line.Params) < 2 {
		return
	}
	c, ok := s.store.findChannel(line.Params[0])
	if !ok {
		return
	}
	s.topicPending[s.cmp.Hash(c.Name)] = pendingTopic{oldTopic: c.Topic, oldSetter: c.TopicSetter, oldStamp: c.TopicStamp}
	c.Topic = line.Params[len(line.Params)-1]
}

func (s *Session) handleTopicWhoTime(line Line) {
	if len(line.Params) < 3 {
		return
	}
	c, ok := s.store.findChannel(line.Params[0])
	if !ok {
		return
	}
	key := s.cmp.Hash(c.Name)
	old := s.topicPending[key]
	delete(s.topicPending, key)

	c.TopicSetter = ParsePrefix(line.Params[1])
	if n, err := strconv.ParseInt(line.Params[2], 10, 64); err == nil {
		c.TopicStamp = time.Unix(n, 0).UTC()
	}
	s.pushEvent(ChannelTopicChanged{
		Channel: c.Name, Topic: c.Topic, Setter: c.TopicSetter.String(), Time: c.TopicStamp,
		OldTopic: old.oldTopic, OldSetter: old.oldSetter.String(), OldStamp: old.oldStamp,
	})
}

func (s *Session) handleTopicCommand(line Line, now time.Time) {
	if len(line.Params) < 2 {
		return
	}
	c, ok := s.store.findChannel(line.Params[0])
	if !ok {
		return
	}
	old := pendingTopic{oldTopic: c.Topic, oldSetter: c.TopicSetter, oldStamp: c.TopicStamp}
	c.Topic = line.Params[1]
	c.TopicSetter = line.Source
	c.TopicStamp = now
	s.pushEvent(ChannelTopicChanged{
		Channel: c.Name, Topic: c.Topic, Setter: line.Source.String(), Time: now,
		OldTopic: old.oldTopic, OldSetter: old.oldSetter.String(), OldStamp: old.oldStamp,
	})
}

func (s *Session) handleWhoReply(line Line) {
	if len(line.Params) < 7 {
		return
	}
	channel, ident, host, nick, flags := line.Params[0], line.Params[1], line.Params[2], line.Params[4], line.Params[5]
	u := s.store.ensureUser(nick)
	u.Ident = ident
	u.Host = host
	if trailing := line.Params[len(line.Params)-1]; trailing != "" {
		if sp := strings.IndexByte(trailing, ' '); sp >= 0 {
			u.FullName = trailing[sp+1:]
		}
	}
	i := 0
	if i < len(flags) {
		switch flags[i] {
		case 'H':
			u.Away = false
			i++
		case 'G':
			u.Away = true
			i++
		}
	}
	if i < len(flags) && flags[i] == '*' {
		u.IsOper = true
		i++
	}
	if channel != "*" {
		if c, ok := s.store.findChannel(channel); ok {
			if m, ok := c.Members()[u]; ok {
				m.Status = FromPrefixes(flags[i:], s.ext.StatusPrefix(), s.ext.PrefixOrder())
			}
		}
	}
}

func (s *Session) handleNamreply(line Line) {
	if len(line.Params) < 3 {
		return
	}
	channel := line.Params[len(line.Params)-2]
	key := s.cmp.Hash(channel)
	for _, tok := range strings.Fields(line.Params[len(line.Params)-1]) {
		i := 0
		for i < len(tok) {
			if _, ok := s.ext.StatusPrefix()[tok[i]]; !ok {
				break
			}
			i++
		}
		prefixes, ident := tok[:i], tok[i:]
		p := ParsePrefix(ident)
		entry := nameEntry{
			nick:   p.Name,
			ident:  p.User,
			host:   p.Host,
			status: FromPrefixes(prefixes, s.ext.StatusPrefix(), s.ext.PrefixOrder()),
		}
		s.nameBuffers[key] = append(s.nameBuffers[key], entry)
	}
}

func (s *Session) handleEndofnames(line Line, now time.Time) {
	if len(line.Params) < 1 {
		return
	}
	channel := line.Params[0]
	key := s.cmp.Hash(channel)
	entries := s.nameBuffers[key]
	delete(s.nameBuffers, key)

	c, ok := s.store.findChannel(channel)
	if !ok {
		return // spec.md §7: NAMES batch for unknown channel is dropped
	}

	seen := map[*User]bool{}
	for _, e := range entries {
		u := s.store.ensureUser(e.nick)
		if e.ident != "" {
			u.Ident = e.ident
		}
		if e.host != "" {
			u.Host = e.host
		}
		m, existed := c.Members()[u]
		if !existed {
			m = s.store.join(c, u)
		}
		m.Status = e.status
		seen[u] = true
	}

	// A subsequent NAMES batch REPLACES the previous one: drop members not
	// present in this batch.
	for u := range c.Members() {
		if seen[u] {
			continue
		}
		s.store.part(c, u)
		if _, stillKnown := s.store.findUser(u.Nickname); !stillKnown {
			s.pushEvent(UserDisappeared{User: u.Nickname, Time: now})
		}
	}

	if task, ok := s.joinTasks[key]; ok {
		task.complete(nil)
		delete(s.joinTasks, key)
	}
	s.pushEvent(NamesTask{Channel: c.Name})
}

func (s *Session) handleMonOnline(line Line, now time.Time) {
	if len(line.Params) < 1 {
		return
	}
	for _, target := range strings.Split(line.Params[len(line.Params)-1], ",") {
		p := ParsePrefix(target)
		u := s.store.ensureUser(p.Name)
		newlySeen := !u.IsSeen
		u.IsSeen = true
		u.IsMonitored = true
		if p.User != "" {
			u.Ident = p.User
		}
		if p.Host != "" {
			u.Host = p.Host
		}
		if newlySeen {
			s.pushEvent(UserAppeared{User: u.Nickname, Time: now})
		}
		s.pushEvent(MonitorOnline{User: u.Nickname, Time: now})
	}
}

func (s *Session) handleMonOffline(line Line, now time.Time) {
	if len(line.Params) < 1 {
		return
	}
	for _, nick := range strings.Split(line.Params[len(line.Params)-1], ",") {
		u, ok := s.store.findUser(nick)
		if !ok {
			continue
		}
		s.pushEvent(MonitorOffline{User: u.Nickname, Time: now})
		if len(u.Memberships()) > 0 {
			continue // common-channel retention: stay seen until QUIT
		}
		u.IsSeen = false
		s.store.maybeDropUser(u)
		if _, stillKnown := s.store.findUser(nick); !stillKnown {
			s.pushEvent(UserQuit{User: u.Nickname, Time: now})
			s.pushEvent(UserDisappeared{User: u.Nickname, Time: now})
		}
	}
}

func (s *Session) handleWatchOnline(line Line, now time.Time) {
	if len(line.Params) < 1 {
		return
	}
	nick := line.Params[0]
	u := s.store.ensureUser(nick)
	newlySeen := !u.IsSeen
	u.IsSeen = true
	u.IsMonitored = true
	u.Away = false // legacy WATCH online clears away regardless of prior state
	if len(line.Params) > 1 && line.Params[1] != "*" {
		u.Ident = line.Params[1]
	}
	if len(line.Params) > 2 && line.Params[2] != "*" {
		u.Host = line.Params[2]
	}
	s.presence.noteWatchListEntry(nick)
	if newlySeen {
		s.pushEvent(UserAppeared{User: u.Nickname, Time: now})
	}
	s.pushEvent(MonitorOnline{User: u.Nickname, Time: now})
}

func (s *Session) handleWatchOffline(line Line, now time.Time) {
	if len(line.Params) < 1 {
		return
	}
	nick := line.Params[0]
	u, ok := s.store.findUser(nick)
	if !ok {
		return
	}
	s.pushEvent(MonitorOffline{User: u.Nickname, Time: now})
	if len(u.Memberships()) > 0 {
		return
	}
	u.IsSeen = false
	s.store.maybeDropUser(u)
	if _, stillKnown := s.store.findUser(nick); !stillKnown {
		s.pushEvent(UserDisappeared{User: u.Nickname, Time: now})
	}
}

func (s *Session) handleWatchAway(line Line, now time.Time, away bool) {
	if len(line.Params) < 1 {
		return
	}
	u, ok := s.store.findUser(line.Params[0])
	if !ok {
		return
	}
	u.Away = away
	if away {
		u.AwayReason = line.Params[len(line.Params)-1]
		u.AwaySince = now
		s.pushEvent(AwaySet{User: u.Nickname, Message: u.AwayReason, Time: now})
	} else {
		s.pushEvent(AwayCancelled{User: u.Nickname, Time: now})
	}
}

func (s *Session) handleEndofwatchlist(now time.Time) {
	for _, nick := range s.presence.endWatchList() {
		u, ok := s.store.findUser(nick)
		if !ok {
			continue
		}
		u.IsMonitored = false
		if len(u.Memberships()) > 0 {
			continue
		}
		u.IsSeen = false
		s.store.maybeDropUser(u)
		if _, stillKnown := s.store.findUser(nick); !stillKnown {
			s.pushEvent(UserDisappeared{User: u.Nickname, Time: now})
		}
	}
}

func (s *Session) handleJoin(line Line, now time.Time) {
	if line.Source == nil || len(line.Params) < 1 {
		return
	}
	channelName := line.Params[0]
	isSelf := s.cmp.Compare(line.Source.Name, s.Nick()) == 0

	c, existed := s.store.findChannel(channelName)
	if !existed {
		if !isSelf {
			return
		}
		c = s.store.ensureChannel(channelName)
	}

	u := s.store.ensureUser(line.Source.Name)
	u.Ident = line.Source.User
	u.Host = line.Source.Host
	if len(line.Params) >= 3 { // extended-join: <account> <realname>
		if line.Params[1] != "*" {
			acct := line.Params[1]
			u.Account = &acct
		}
		u.FullName = line.Params[2]
	}
	s.store.join(c, u)

	var task *JoinTask
	if isSelf {
		task = newJoinTask()
		s.joinTasks[s.cmp.Hash(c.Name)] = task
		s.sendRaw("NAMES", c.Name)
	}
	s.pushEvent(ChannelJoin{Channel: c.Name, User: line.Source.Name, Requested: isSelf, Topic: c.Topic, Time: now, Task: task})
}

func (s *Session) handlePart(line Line, now time.Time) {
	if line.Source == nil || len(line.Params) < 1 {
		return
	}
	c, ok := s.store.findChannel(line.Params[0])
	if !ok {
		return
	}
	reason := ""
	if len(line.Params) > 1 {
		reason = line.Params[len(line.Params)-1]
	}
	u, ok := s.store.findUser(line.Source.Name)
	if !ok {
		return
	}
	isSelf := u == s.self

	s.pushEvent(ChannelPart{Channel: c.Name, User: u.Nickname, Reason: reason, Time: now})
	s.store.part(c, u)
	if isSelf {
		s.store.dropChannel(c)
		s.pushEvent(ChannelLeave{Channel: c.Name})
	} else if _, stillKnown := s.store.findUser(u.Nickname); !stillKnown {
		s.pushEvent(UserDisappeared{User: u.Nickname, Time: now})
	}
}

func (s *Session) handleKick(line Line, now time.Time) {
	if line.Source == nil || len(line.Params) < 2 {
		return
	}
	c, ok := s.store.findChannel(line.Params[0])
	if !ok {
		return
	}
	reason := ""
	if len(line.Params) > 2 {
		reason = line.Params[len(line.Params)-1]
	}
	u, ok := s.store.findUser(line.Params[1])
	if !ok {
		return
	}
	isSelf := u == s.self

	s.pushEvent(ChannelKick{Channel: c.Name, Kicker: line.Source.Name, User: u.Nickname, Reason: reason, Time: now})
	s.store.part(c, u)
	if isSelf {
		s.store.dropChannel(c)
		s.pushEvent(ChannelLeave{Channel: c.Name})
	} else if _, stillKnown := s.store.findUser(u.Nickname); !stillKnown {
		s.pushEvent(UserDisappeared{User: u.Nickname, Time: now})
	}
}

func (s *Session) handleQuit(line Line, now time.Time) {
	if line.Source == nil {
		return
	}
	u, ok := s.store.findUser(line.Source.Name)
	if !ok {
		return
	}
	reason := ""
	if len(line.Params) > 0 {
		reason = line.Params[len(line.Params)-1]
	}
	var channels []string
	for c := range u.Memberships() {
		channels = append(channels, c.Name)
	}
	for c := range u.Memberships() {
		s.store.part(c, u)
	}
	u.IsSeen = false
	s.store.maybeDropUser(u)
	s.pushEvent(UserQuit{User: u.Nickname, Channels: channels, Reason: reason, Time: now})
	if _, stillKnown := s.store.findUser(u.Nickname); !stillKnown {
		s.pushEvent(UserDisappeared{User: u.Nickname, Time: now})
	}
}

func (s *Session) handleNick(line Line, now time.Time) {
	if line.Source == nil || len(line.Params) < 1 {
		return
	}
	u, ok := s.store.findUser(line.Source.Name)
	if !ok {
		return
	}
	former := u.Nickname
	if err := s.store.rename(u, line.Params[0]); err != nil {
		return
	}
	s.pushEvent(NicknameChange{User: u.Nickname, FormerNick: former, Time: now})
}

func (s *Session) handleMode(line Line, now time.Time) {
	if len(line.Params) < 2 {
		return
	}
	target := line.Params[0]
	if s.cmp.Compare(target, s.Nick()) == 0 {
		s.pushEvent(UserModesSet{Modes: strings.TrimLeft(line.Params[1], "+-"), Time: now})
		return
	}
	c, ok := s.store.findChannel(target)
	if !ok {
		return
	}
	setter := ""
	if line.Source != nil {
		setter = line.Source.Name
	}
	tax := s.ext.ChanModes()
	c.Modes.SetChanModes(tax.List, tax.ParamSet, tax.Param, tax.Flag)
	c.Modes.SetStatusModes(tax.Status)
	changes := c.Modes.ApplyModeString(line.Params[1], line.Params[2:], func(letter byte, add bool, nick string) {
		u, ok := s.store.findUser(nick)
		if !ok {
			return
		}
		m, ok := c.Members()[u]
		if !ok {
			return
		}
		if add {
			m.Status = m.Status.add(s.ext.PrefixOrder(), letter)
		} else {
			m.Status = m.Status.remove(letter)
		}
	})
	s.pushEvent(ChannelModesSet{Channel: c.Name, Setter: setter, Changes: changes, Time: now})
}

func (s *Session) handleChghost(line Line) {
	if line.Source == nil || len(line.Params) < 2 {
		return
	}
	u, ok := s.store.findUser(line.Source.Name)
	if !ok {
		return
	}
	u.Ident = line.Params[0]
	u.Host = line.Params[1]
}

func (s *Session) handleAccount(line Line) {
	if line.Source == nil || len(line.Params) < 1 {
		return
	}
	u, ok := s.store.findUser(line.Source.Name)
	if !ok {
		return
	}
	if line.Params[0] == "*" {
		empty := ""
		u.Account = &empty
		return
	}
	acct := line.Params[0]
	u.Account = &acct
}

func (s *Session) handleLoggedin(line Line) {
	if len(line.Params) < 3 {
		return
	}
	acct := line.Params[2]
	if s.self != nil {
		s.self.Account = &acct
	}
	if p := ParsePrefix(line.Params[1]); p.Host != "" {
		if s.self != nil {
			s.self.Host = p.Host
			s.self.Ident = p.User
		}
	}
}

func (s *Session) handleLoggedout(line Line) {
	if s.self == nil {
		return
	}
	empty := ""
	s.self.Account = &empty
}

func (s *Session) dispatchTarget(target string) (channel *Channel, status ChannelStatus, isChannel, isBroadcast bool) {
	if strings.HasPrefix(target, "$") {
		return nil, ChannelStatus{}, false, true
	}
	i := 0
	for i < len(target) {
		if _, ok := s.ext.StatusPrefix()[target[i]]; !ok {
			break
		}
		i++
	}
	rest := target[i:]
	if rest == "" || !strings.ContainsRune(s.ext.ChannelTypes(), rune(rest[0])) {
		return nil, ChannelStatus{}, false, false
	}
	c, ok := s.store.findChannel(rest)
	if !ok {
		return nil, ChannelStatus{}, true, false
	}
	return c, FromPrefixes(target[:i], s.ext.StatusPrefix(), s.ext.PrefixOrder()), true, false
}

func (s *Session) handleMessage(line Line, now time.Time) {
	if line.Source == nil || len(line.Params) < 2 {
		return
	}
	target, content := line.Params[0], line.Params[len(line.Params)-1]
	isNotice := line.Command == "NOTICE"

	if strings.HasPrefix(content, "\x01") {
		payload := content[1:]
		if strings.HasSuffix(payload, "\x01") {
			payload = payload[:len(payload)-1]
		}
		command, params := payload, ""
		if sp := strings.IndexByte(payload, ' '); sp >= 0 {
			command, params = payload[:sp], payload[sp+1:]
		}
		s.dispatchCTCP(line.Source.Name, target, command, params, now)
		return
	}

	c, _, isChannel, isBroadcast := s.dispatchTarget(target)
	switch {
	case isBroadcast:
		if isNotice {
			s.pushEvent(BroadcastNotice{Target: target, User: line.Source.Name, Content: content, Time: now})
		} else {
			s.pushEvent(BroadcastMessage{Target: target, User: line.Source.Name, Content: content, Time: now})
		}
	case isChannel:
		name := target
		if c != nil {
			name = c.Name
		}
		if isNotice {
			s.pushEvent(ChannelNotice{Channel: name, User: line.Source.Name, Content: content, Time: now})
		} else {
			s.pushEvent(ChannelMessage{Channel: name, User: line.Source.Name, Content: content, Time: now})
		}
	default:
		if isNotice {
			s.pushEvent(PrivateNotice{User: line.Source.Name, Content: content, Time: now})
		} else {
			s.pushEvent(PrivateMessage{User: line.Source.Name, Content: content, Time: now})
		}
	}
}

func (s *Session) dispatchCTCP(source, target, command, params string, now time.Time) {
	_, _, isChannel, isBroadcast := s.dispatchTarget(target)
	if isBroadcast {
		return
	}
	if isChannel {
		s.pushEvent(ChannelCTCP{Channel: target, User: source, Command: command, Params: params, Time: now})
		return
	}
	s.pushEvent(PrivateCTCP{User: source, Command: command, Params: params, Time: now})
}

func (s *Session) handleTagmsg(line Line, now time.Time) {
	if line.Source == nil || len(line.Params) < 1 {
		return
	}
	value, ok := line.Tags["+typing"]
	if !ok {
		return
	}
	var state TypingState
	switch value {
	case "active":
		state = TypingActive
	case "paused":
		state = TypingPaused
	case "done":
		state = TypingDone
	default:
		return
	}
	s.pushEvent(s.typingIn.Observe(line.Params[0], line.Source.Name, state, now))
}

// --- outbound convenience methods ---

// Join requests to join channel.
func (s *Session) Join(channel string) { s.sendRaw("JOIN", channel) }

// Part requests to leave channel with an optional reason.
func (s *Session) Part(channel, reason string) {
	if reason == "" {
		s.sendRaw("PART", channel)
	} else {
		s.sendRaw("PART", channel, reason)
	}
}

// PrivMsg sends content to target, splitting on SplitMessage's budget if
// it does not fit in one line (spec.md §6).
func (s *Session) PrivMsg(target, content string) {
	for _, chunk := range SplitMessage(content, MaxLineLength-len(target)-16) {
		s.sendRaw("PRIVMSG", target, chunk)
	}
}

// Notice sends a NOTICE to target.
func (s *Session) Notice(target, content string) {
	s.sendRaw("NOTICE", target, content)
}

// SetTopic requests a topic change on channel.
func (s *Session) SetTopic(channel, topic string) {
	s.sendRaw("TOPIC", channel, topic)
}

// SetNick requests a nickname change.
func (s *Session) SetNick(nick string) {
	s.sendRaw("NICK", nick)
}

// Typing announces that the local user is typing to target, subject to
// the message-tags capability and the outbound throttle (SPEC_FULL.md §3).
func (s *Session) Typing(target string) {
	if !s.caps.Enabled("message-tags") {
		return
	}
	if s.typingOut.Active(target, time.Now()) {
		s.out = append(s.out, Line{Command: "TAGMSG", Params: []string{target}}.WithTag("+typing", "active").String())
	}
}

// TypingStop announces that the local user stopped typing to target.
func (s *Session) TypingStop(target string) {
	if !s.caps.Enabled("message-tags") {
		return
	}
	if s.typingOut.Done(target, time.Now()) {
		s.out = append(s.out, Line{Command: "TAGMSG", Params: []string{target}}.WithTag("+typing", "done").String())
	}
}

// AddMonitor starts tracking nick's presence via MONITOR.
func (s *Session) AddMonitor(nick string) {
	s.presence.AddMonitor(nick)
	s.sendRaw("MONITOR", "+", nick)
}

// RemoveMonitor stops tracking nick's presence via MONITOR.
func (s *Session) RemoveMonitor(nick string) {
	s.presence.RemoveMonitor(nick)
	s.sendRaw("MONITOR", "-", nick)
	s.forgetIfUntracked(nick)
}

// AddWatch starts tracking nick's presence via the legacy WATCH extension,
// for servers that lack MONITOR (spec.md §4.H).
func (s *Session) AddWatch(nick string) {
	s.presence.AddWatch(nick)
	s.sendRaw("WATCH", "+"+nick)
}

// RemoveWatch stops tracking nick's presence via WATCH.
func (s *Session) RemoveWatch(nick string) {
	s.presence.RemoveWatch(nick)
	s.sendRaw("WATCH", "-"+nick)
	s.forgetIfUntracked(nick)
}

// forgetIfUntracked clears a User's retention once neither MONITOR nor
// WATCH track it anymore, and reaps it from the store if it also isn't
// directly seen on a shared channel (spec.md §4.H retention policy).
func (s *Session) forgetIfUntracked(nick string) {
	u, ok := s.store.findUser(nick)
	if !ok || s.presence.IsTracked(nick) {
		return
	}
	u.IsMonitored = false
	s.store.maybeDropUser(u)
	if _, stillKnown := s.store.findUser(nick); !stillKnown {
		s.pushEvent(UserDisappeared{User: u.Nickname, Time: time.Now()})
	}
}

// ListWatch requests the server's current WATCH list (RPL_WATCHLIST through
// RPL_ENDOFWATCHLIST), used to reconcile state after a reconnect.
func (s *Session) ListWatch() {
	s.sendRaw("WATCH", "l")
}
