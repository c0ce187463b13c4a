package irc

import (
	"strconv"
	"strings"
)

// Extensions is the server's ISUPPORT (numeric 005) registry: the raw
// key/value tokens plus the derived accessors spec.md §4.D lists. Keys are
// case-sensitive, per spec.md.
type Extensions struct {
	raw map[string]string

	caseMapping   CaseMapping
	networkName   string
	channelLimit  map[string]int // CHANTYPES-char -> limit; -1 => unlimited (empty limit value)
	nicknameLen   int
	topicLen      int // 0 means unlimited
	chanModes     ChannelModes
	hasExcepts    bool
	banExceptMode byte
	hasInvex      bool
	inviteExceptMode byte
	listModeLen   map[byte]int
	maxTargets    map[string]int
	modesLimit    int // 0 means unlimited; defaults to 3 until MODES arrives
	monitorLimit  int // -1 unlimited, 0 unsupported
	watchLimit    int
	statusPrefix  map[byte]byte // prefix char -> mode letter
	prefixOrder   []byte        // mode letters, strongest first
	supportsWhox  bool
	chanTypes     string
}

// NewExtensions returns a registry with the RFC 2811-ish defaults that hold
// before any ISUPPORT token has arrived.
func NewExtensions() *Extensions {
	return &Extensions{
		raw:          map[string]string{},
		caseMapping:  CaseMappingRFC1459,
		nicknameLen:  9,
		chanModes:    RFC2811ChannelModes,
		listModeLen:  map[byte]int{},
		maxTargets:   map[string]int{},
		modesLimit:   3,
		monitorLimit: 0,
		watchLimit:   0,
		statusPrefix: map[byte]byte{'@': 'o', '+': 'v'},
		prefixOrder:  []byte{'o', 'v'},
		chanTypes:    "#&",
		channelLimit: map[string]int{},
	}
}

func decodeISUPPORTValue(v string) string {
	if !strings.Contains(v, `\x`) {
		return v
	}
	var sb strings.Builder
	for i := 0; i < len(v); i++ {
		if v[i] == '\\' && i+3 < len(v) && v[i+1] == 'x' {
			if b, err := strconv.ParseUint(v[i+2:i+4], 16, 8); err == nil {
				sb.WriteByte(byte(b))
				i += 3
				continue
			}
		}
		sb.WriteByte(v[i])
	}
	return sb.String()
}

// CaseMappingChangeResult describes the side effects of an ISUPPORT token
// batch that included a CASEMAPPING change.
type CaseMappingChangeResult struct {
	Changed bool
	New     CaseMapping
}

// Apply parses one ISUPPORT token batch (the 005 params, excluding the
// nickname echo and the trailing "are supported by this server") and
// updates the derived accessors. It returns whether CASEMAPPING changed and
// to what, so the caller (Session, component I) can perform the re-keying
// and collision-abort dance spec.md §4.D/§7 require — Extensions itself
// never touches the entity store.
func (e *Extensions) Apply(tokens []string) CaseMappingChangeResult {
	var result CaseMappingChangeResult

	for _, tok := range tokens {
		if tok == "" {
			continue
		}

		if tok[0] == '-' {
			name := tok[1:]
			delete(e.raw, name)
			continue
		}

		name, value := tok, ""
		if i := strings.IndexByte(tok, '='); i >= 0 {
			name, value = tok[:i], decodeISUPPORTValue(tok[i+1:])
		}
		e.raw[name] = value

		switch name {
		case "CASEMAPPING":
			cm := ParseCaseMapping(value)
			if cm != e.caseMapping {
				result.Changed = true
				result.New = cm
			}
			e.caseMapping = cm
		case "NETWORK":
			e.networkName = value
		case "CHANTYPES":
			e.chanTypes = value
		case "NICKLEN":
			if n, err := strconv.Atoi(value); err == nil {
				e.nicknameLen = n
			}
		case "TOPICLEN":
			if value == "" {
				e.topicLen = 0
			} else if n, err := strconv.Atoi(value); err == nil {
				e.topicLen = n
			}
		case "CHANMODES":
			parts := strings.SplitN(value, ",", 4)
			for len(parts) < 4 {
				parts = append(parts, "")
			}
			e.chanModes.SetChanModes([]byte(parts[0]), []byte(parts[1]), []byte(parts[2]), []byte(parts[3]))
		case "PREFIX":
			e.applyPrefix(value)
		case "EXCEPTS":
			e.hasExcepts = true
			if value != "" {
				e.banExceptMode = value[0]
			} else {
				e.banExceptMode = 'e'
			}
			if !containsByte(e.chanModes.List, e.banExceptMode) {
				e.chanModes.List = append(e.chanModes.List, e.banExceptMode)
			}
		case "INVEX":
			e.hasInvex = true
			if value != "" {
				e.inviteExceptMode = value[0]
			} else {
				e.inviteExceptMode = 'I'
			}
			if !containsByte(e.chanModes.List, e.inviteExceptMode) {
				e.chanModes.List = append(e.chanModes.List, e.inviteExceptMode)
			}
		case "MAXLIST":
			e.applyMaxList(value)
		case "MAXBANS":
			e.applyMaxBans(value)
		case "MAXCHANNELS":
			if n, err := strconv.Atoi(value); err == nil {
				for _, t := range e.chanTypes {
					e.channelLimit[string(t)] = n
				}
			}
		case "CHANLIMIT":
			e.applyChanLimit(value)
		case "MODES":
			if value == "" {
				e.modesLimit = 0
			} else if n, err := strconv.Atoi(value); err == nil {
				e.modesLimit = n
			}
		case "MONITOR":
			if value == "" {
				e.monitorLimit = -1
			} else if n, err := strconv.Atoi(value); err == nil {
				e.monitorLimit = n
			} else {
				e.monitorLimit = -1
			}
		case "WATCH":
			if value == "" {
				e.watchLimit = -1
			} else if n, err := strconv.Atoi(value); err == nil {
				e.watchLimit = n
			} else {
				e.watchLimit = -1
			}
		case "TARGMAX":
			e.applyTargMax(value)
		case "WHOX":
			e.supportsWhox = true
		}
	}

	return result
}

func (e *Extensions) applyPrefix(value string) {
	if value == "" {
		e.prefixOrder = nil
		e.statusPrefix = map[byte]byte{}
		return
	}
	if value[0] != '(' {
		return
	}
	close := strings.IndexByte(value, ')')
	if close < 0 {
		return
	}
	modes := value[1:close]
	prefixes := value[close+1:]
	if len(modes) != len(prefixes) {
		return
	}
	e.prefixOrder = []byte(modes)
	e.statusPrefix = make(map[byte]byte, len(modes))
	for i := 0; i < len(modes); i++ {
		e.statusPrefix[prefixes[i]] = modes[i]
	}
	e.chanModes.SetStatusModes([]byte(modes))
}

func (e *Extensions) applyMaxList(value string) {
	for _, group := range strings.Split(value, ",") {
		kv := strings.SplitN(group, ":", 2)
		if len(kv) != 2 {
			continue
		}
		n, err := strconv.Atoi(kv[1])
		if err != nil {
			continue
		}
		for _, m := range kv[0] {
			e.listModeLen[byte(m)] = n
		}
	}
}

func (e *Extensions) applyMaxBans(value string) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return
	}
	if _, ok := e.raw["MAXLIST"]; ok {
		return // MAXLIST, if present, always wins over legacy MAXBANS
	}
	e.listModeLen['b'] = n
	if e.hasExcepts {
		e.listModeLen[e.banExceptMode] = n
	}
}

func (e *Extensions) applyChanLimit(value string) {
	for _, group := range strings.Split(value, ",") {
		kv := strings.SplitN(group, ":", 2)
		if len(kv) != 2 {
			continue
		}
		limit := -1
		if kv[1] != "" {
			if n, err := strconv.Atoi(kv[1]); err == nil {
				limit = n
			}
		}
		for _, t := range kv[0] {
			e.channelLimit[string(t)] = limit
		}
	}
}

func (e *Extensions) applyTargMax(value string) {
	for _, group := range strings.Split(value, ",") {
		kv := strings.SplitN(group, ":", 2)
		if len(kv) != 2 {
			continue
		}
		if kv[1] == "" {
			delete(e.maxTargets, kv[0])
			continue
		}
		if n, err := strconv.Atoi(kv[1]); err == nil {
			e.maxTargets[kv[0]] = n
		}
	}
}

// --- derived accessors (spec.md §3/§4.D) ---

func (e *Extensions) CaseMapping() CaseMapping { return e.caseMapping }
func (e *Extensions) NetworkName() string      { return e.networkName }
func (e *Extensions) ChannelTypes() string     { return e.chanTypes }
func (e *Extensions) NicknameLength() int      { return e.nicknameLen }

// TopicLength returns the max topic length, or -1 for unlimited (spec.md:
// "TOPICLEN empty=∞").
func (e *Extensions) TopicLength() int {
	if e.topicLen == 0 {
		return -1
	}
	return e.topicLen
}

func (e *Extensions) ChanModes() ChannelModes { return e.chanModes }

func (e *Extensions) SupportsBanExceptions() bool { return e.hasExcepts }
func (e *Extensions) BanExceptionsMode() byte      { return e.banExceptMode }
func (e *Extensions) SupportsInviteExceptions() bool { return e.hasInvex }
func (e *Extensions) InviteExceptionsMode() byte     { return e.inviteExceptMode }

// ListModeLength returns the MAXLIST (or legacy MAXBANS) limit for the given
// list-mode letter, and whether one is known.
func (e *Extensions) ListModeLength(letter byte) (int, bool) {
	n, ok := e.listModeLen[letter]
	return n, ok
}

// ChannelLimit returns the MAXCHANNELS/CHANLIMIT limit for a given
// CHANTYPES character; -1 means unlimited, ok=false means unknown.
func (e *Extensions) ChannelLimit(chanType byte) (int, bool) {
	n, ok := e.channelLimit[string(chanType)]
	return n, ok
}

func (e *Extensions) MaxTargets(command string) (int, bool) {
	n, ok := e.maxTargets[command]
	return n, ok
}

// Modes returns the max mode changes per MODE command (spec.md: absent=3,
// empty=∞, represented here as -1).
func (e *Extensions) Modes() int {
	if e.modesLimit == 0 {
		return -1
	}
	return e.modesLimit
}

// MonitorLimit returns the MONITOR limit (preferred) or WATCH fallback;
// -1 means unlimited, 0 means neither is supported.
func (e *Extensions) MonitorLimit() int {
	if e.monitorLimit != 0 {
		return e.monitorLimit
	}
	return e.watchLimit
}

// SupportsMonitor/SupportsWatch report which presence subscription the
// server offers; MONITOR takes precedence regardless of advertisement order
// (spec.md §4.D).
func (e *Extensions) SupportsMonitor() bool { _, ok := e.raw["MONITOR"]; return ok }
func (e *Extensions) SupportsWatch() bool   { _, ok := e.raw["WATCH"]; return ok }

func (e *Extensions) SupportsWhox() bool { return e.supportsWhox }

// StatusPrefix returns the prefix-char -> mode-letter map, and PrefixOrder
// the mode letters in strength order (strongest first).
func (e *Extensions) StatusPrefix() map[byte]byte { return e.statusPrefix }
func (e *Extensions) PrefixOrder() []byte         { return e.prefixOrder }

// Raw returns the raw token value and whether it is present.
func (e *Extensions) Raw(name string) (string, bool) {
	v, ok := e.raw[name]
	return v, ok
}
