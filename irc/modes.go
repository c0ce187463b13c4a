package irc

import "strings"

// ModeType classifies a channel mode letter per its CHANMODES bucket, or as
// a status (PREFIX) mode.
type ModeType byte

const (
	ModeTypeUnknown ModeType = 0
	ModeTypeList     ModeType = 'A'
	ModeTypeParamSet ModeType = 'B' // both +mode and -mode take a parameter
	ModeTypeParam    ModeType = 'C' // only +mode takes a parameter
	ModeTypeFlag     ModeType = 'D'
	ModeTypeStatus   ModeType = 'S'
)

// ChannelModes is the taxonomy of channel mode letters in effect for a
// session: the four CHANMODES buckets plus the PREFIX status letters, and
// the current value of every B/C mode and every D flag.
type ChannelModes struct {
	List     []byte // A
	ParamSet []byte // B
	Param    []byte // C
	Flag     []byte // D
	Status   []byte // status letters, ordered strongest-last-removed... see spec.md I5: order is PREFIX order, strongest first.

	Params map[byte]string   // current value for B/C modes currently set
	Flags  map[byte]struct{} // currently-set D flags
}

// RFC2811ChannelModes is the classic mode taxonomy used before ISUPPORT
// CHANMODES existed, suitable as a starting point before the server sends
// its own. Mirrors senpai's implicit "ov"/"@+" defaults, generalized to the
// full RFC 2811 set.
var RFC2811ChannelModes = ChannelModes{
	List:     []byte("b"),
	ParamSet: []byte("k"),
	Param:    []byte("l"),
	Flag:     []byte("imnpst"),
	Status:   []byte("ov"),
}

// NewChannelModes returns an empty taxonomy with its maps initialized.
func NewChannelModes() ChannelModes {
	return ChannelModes{
		Params: map[byte]string{},
		Flags:  map[byte]struct{}{},
	}
}

func (cm ChannelModes) clone() ChannelModes {
	out := NewChannelModes()
	out.List = append([]byte(nil), cm.List...)
	out.ParamSet = append([]byte(nil), cm.ParamSet...)
	out.Param = append([]byte(nil), cm.Param...)
	out.Flag = append([]byte(nil), cm.Flag...)
	out.Status = append([]byte(nil), cm.Status...)
	for k, v := range cm.Params {
		out.Params[k] = v
	}
	for k := range cm.Flags {
		out.Flags[k] = struct{}{}
	}
	return out
}

func containsByte(set []byte, b byte) bool {
	for _, c := range set {
		if c == b {
			return true
		}
	}
	return false
}

func removeByte(set []byte, b byte) []byte {
	out := set[:0:0]
	for _, c := range set {
		if c != b {
			out = append(out, c)
		}
	}
	return out
}

// ModeType returns the classification of mode letter m, or ModeTypeUnknown
// if m is in none of the five buckets.
func (cm ChannelModes) ModeType(m byte) ModeType {
	switch {
	case containsByte(cm.Status, m):
		return ModeTypeStatus
	case containsByte(cm.List, m):
		return ModeTypeList
	case containsByte(cm.ParamSet, m):
		return ModeTypeParamSet
	case containsByte(cm.Param, m):
		return ModeTypeParam
	case containsByte(cm.Flag, m):
		return ModeTypeFlag
	default:
		return ModeTypeUnknown
	}
}

// SetChanModes replaces the A/B/C/D buckets (from an ISUPPORT CHANMODES
// token). The status set and all current param/flag values are left
// untouched, including values for letters whose classification changed.
func (cm *ChannelModes) SetChanModes(list, paramSet, param, flag []byte) {
	cm.List = list
	cm.ParamSet = paramSet
	cm.Param = param
	cm.Flag = flag
}

// SetStatusModes reassigns the status set, in the given strength order
// (strongest first), from an ISUPPORT PREFIX token. Letters not already
// classified elsewhere become status-only.
func (cm *ChannelModes) SetStatusModes(letters []byte) {
	cm.Status = append([]byte(nil), letters...)
}

// ToString renders the taxonomy as "A,B,C,D,Status" with letters in each
// bucket's insertion order, matching the CHANMODES wire format plus the
// status letters appended as a fifth group.
func (cm ChannelModes) ToString() string {
	return string(cm.List) + "," + string(cm.ParamSet) + "," + string(cm.Param) + "," + string(cm.Flag) + "," + string(cm.Status)
}

// RenderCurrent renders the currently-set flags and param modes, e.g.
// "mn k:hunter2 l:8" — flag letters sorted alphabetically, then params in
// the order they appear in the B/C buckets.
func (cm ChannelModes) RenderCurrent() string {
	var flagLetters []byte
	for f := range cm.Flags {
		flagLetters = append(flagLetters, f)
	}
	for i := 1; i < len(flagLetters); i++ {
		for j := i; j > 0 && flagLetters[j-1] > flagLetters[j]; j-- {
			flagLetters[j-1], flagLetters[j] = flagLetters[j], flagLetters[j-1]
		}
	}

	var parts []string
	if len(flagLetters) != 0 {
		parts = append(parts, string(flagLetters))
	}
	for _, letter := range append(append([]byte{}, cm.ParamSet...), cm.Param...) {
		if v, ok := cm.Params[letter]; ok {
			parts = append(parts, string(letter)+":"+v)
		}
	}
	return strings.Join(parts, " ")
}

// ModeChange is one applied "sign letter[ param]" element, in the
// normalized form ChannelModesSet (component J) carries.
type ModeChange struct {
	Add      bool
	Letter   byte
	Param    string
	HasParam bool
}

// String renders the change in "+l 8" / "-t" / "+o nick" form.
func (c ModeChange) String() string {
	sign := byte('-')
	if c.Add {
		sign = '+'
	}
	s := string([]byte{sign, c.Letter})
	if c.HasParam {
		s += " " + c.Param
	}
	return s
}

// ApplyModeString parses a MODE parameter list ("+lm-t+k", "8", "hunter2")
// against the taxonomy, left to right, consuming one parameter per list
// mode, per-both-signs param-set mode, on-set-only param mode, and status
// mode, per spec.md §4.C. It returns the list of applied changes and the
// remaining (unconsumed, malformed) parameters are simply left unread —
// spec.md §7: "a mode parameter mismatch stops the affected mode only".
//
// statusFn receives each status-mode ModeChange so the caller can update the
// target Membership; it is never asked to apply list/flag/param modes.
func (cm *ChannelModes) ApplyModeString(flags string, params []string, statusFn func(letter byte, add bool, nick string)) []ModeChange {
	var changes []ModeChange
	add := true
	pi := 0

	nextParam := func() (string, bool) {
		if pi < len(params) {
			p := params[pi]
			pi++
			return p, true
		}
		return "", false
	}

	for i := 0; i < len(flags); i++ {
		switch flags[i] {
		case '+':
			add = true
			continue
		case '-':
			add = false
			continue
		}

		letter := flags[i]
		switch cm.ModeType(letter) {
		case ModeTypeStatus:
			nick, ok := nextParam()
			if !ok {
				continue
			}
			if statusFn != nil {
				statusFn(letter, add, nick)
			}
			changes = append(changes, ModeChange{Add: add, Letter: letter, Param: nick, HasParam: true})
		case ModeTypeList:
			param, ok := nextParam()
			if !ok {
				continue
			}
			changes = append(changes, ModeChange{Add: add, Letter: letter, Param: param, HasParam: true})
		case ModeTypeParamSet:
			if add {
				param, ok := nextParam()
				if !ok {
					continue
				}
				cm.Params[letter] = param
				changes = append(changes, ModeChange{Add: add, Letter: letter, Param: param, HasParam: true})
				continue
			}
			// Type-B unset is a server quirk either way (spec.md §4.C): some
			// servers omit the parameter, some still send it. Take it when
			// offered so a stray parameter doesn't desync the next mode on
			// the line; a server that truly omits it leaves nothing for
			// nextParam to return.
			delete(cm.Params, letter)
			change := ModeChange{Add: add, Letter: letter}
			if param, ok := nextParam(); ok {
				change.Param = param
				change.HasParam = true
			}
			changes = append(changes, change)
		case ModeTypeParam:
			if add {
				param, ok := nextParam()
				if !ok {
					continue
				}
				cm.Params[letter] = param
				changes = append(changes, ModeChange{Add: add, Letter: letter, Param: param, HasParam: true})
			} else {
				delete(cm.Params, letter)
				changes = append(changes, ModeChange{Add: add, Letter: letter})
			}
		case ModeTypeFlag:
			if add {
				cm.Flags[letter] = struct{}{}
			} else {
				delete(cm.Flags, letter)
			}
			changes = append(changes, ModeChange{Add: add, Letter: letter})
		default:
			// Unknown letter: ignored, per spec.md §7 local recovery.
		}
	}

	return changes
}
