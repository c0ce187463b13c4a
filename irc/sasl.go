package irc

import (
	"encoding/base64"
	"strings"

	"github.com/emersion/go-sasl"
)

// saslChunkSize is the AUTHENTICATE payload budget per spec.md §4.G: the
// base64-encoded text is split into chunks of at most 400 characters; a
// chunk exactly this long signals that more data follows.
const saslChunkSize = 400

// SASLConfig carries the credentials a session authenticates with.
type SASLConfig struct {
	Username string
	Password string

	// ExternalAllowed should be true once TLS is active (EXTERNAL relies on
	// a client certificate already having been presented during the TLS
	// handshake, which is outside this library's scope — the caller sets
	// this once it knows a cert was offered).
	ExternalAllowed bool
}

// Mechanism pairs a go-sasl client with the name it negotiates, so a
// session can log which mechanism is in use (e.g. to apply
// CanAttempt-style gating without pulling go-sasl's unexported internals
// into this package).
type Mechanism struct {
	Name   string
	Client sasl.Client
}

// eligibleMechanisms returns the mechanisms this session may attempt, in
// priority order (EXTERNAL, then PLAIN), per spec.md §4.G.
func eligibleMechanisms(cfg SASLConfig, tlsActive bool) []Mechanism {
	var out []Mechanism
	if tlsActive || cfg.ExternalAllowed {
		out = append(out, Mechanism{Name: "EXTERNAL", Client: sasl.NewExternalClient("")})
	}
	if cfg.Username != "" && (tlsActive || cfg.ExternalAllowed) {
		out = append(out, Mechanism{Name: "PLAIN", Client: sasl.NewPlainClient("", cfg.Username, cfg.Password)})
	} else if cfg.Username != "" {
		// PLAIN is allowed in plaintext too: the caller decides whether
		// that is acceptable via SaslAuthenticationMode (component I).
		out = append(out, Mechanism{Name: "PLAIN", Client: sasl.NewPlainClient("", cfg.Username, cfg.Password)})
	}
	return out
}

// saslAttempt is the per-attempt state object spec.md §4.G calls for: which
// mechanism is in flight, and the partial challenge buffer being
// accumulated across multi-line AUTHENTICATE chunks.
type saslAttempt struct {
	mechanisms []Mechanism
	index      int
	started    bool   // whether Client.Start has been called for the current mechanism
	pending    []byte // challenge bytes accumulated so far this round
}

func newSASLAttempt(cfg SASLConfig, tlsActive bool) *saslAttempt {
	return &saslAttempt{mechanisms: eligibleMechanisms(cfg, tlsActive)}
}

func (a *saslAttempt) exhausted() bool {
	return a.index >= len(a.mechanisms)
}

func (a *saslAttempt) current() Mechanism {
	return a.mechanisms[a.index]
}

func (a *saslAttempt) advance() {
	a.index++
	a.started = false
	a.pending = nil
}

// feedChallenge appends one AUTHENTICATE line's payload to the pending
// buffer and reports whether the chunk sequence is complete: a line of
// exactly 400 encoded characters means another chunk follows; anything
// shorter (including the bare "+" empty challenge) ends the sequence.
func (a *saslAttempt) feedChallenge(param string) (complete bool, err error) {
	if param == "+" {
		return true, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(param)
	if err != nil {
		return false, err
	}
	a.pending = append(a.pending, decoded...)
	return len(param) < saslChunkSize, nil
}

// encodeResponse renders a Respond() result as one or more "AUTHENTICATE
// <chunk>" line parameters, per spec.md §4.G: the base64 text is split
// into runs of at most 400 characters, with a trailing "+" if the encoded
// length is a positive multiple of 400 (or the response was empty).
func encodeResponse(data []byte) []string {
	if len(data) == 0 {
		return []string{"+"}
	}
	encoded := base64.StdEncoding.EncodeToString(data)

	var lines []string
	for i := 0; i < len(encoded); i += saslChunkSize {
		end := i + saslChunkSize
		if end > len(encoded) {
			end = len(encoded)
		}
		lines = append(lines, encoded[i:end])
	}
	if len(encoded)%saslChunkSize == 0 {
		lines = append(lines, "+")
	}
	return lines
}

// saslNumericOutcome classifies a numeric reply relevant to SASL, per
// spec.md §4.G.
type saslNumericOutcome int

const (
	saslOutcomeNone saslNumericOutcome = iota
	saslOutcomeSuccess
	saslOutcomeFailure
)

func classifySASLNumeric(numeric string) saslNumericOutcome {
	switch numeric {
	case rplSaslsuccess:
		return saslOutcomeSuccess
	case errNicklocked, errSaslfail, errSasltoolong, errSaslaborted, errSaslalready, rplSaslmechs:
		return saslOutcomeFailure
	default:
		return saslOutcomeNone
	}
}

// sharedMechanism reports whether any of the server-advertised mechanisms in
// a 302-style "sasl=MECH,MECH" CAP LS value overlaps with ours.
func sharedMechanism(serverList string, mechanisms []Mechanism) bool {
	if serverList == "" {
		// No mechanism list advertised: assume compatibility (pre-302
		// servers never sent one).
		return true
	}
	offered := map[string]struct{}{}
	for _, m := range strings.Split(serverList, ",") {
		offered[strings.ToUpper(strings.TrimSpace(m))] = struct{}{}
	}
	for _, m := range mechanisms {
		if _, ok := offered[strings.ToUpper(m.Name)]; ok {
			return true
		}
	}
	return false
}
