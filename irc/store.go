package irc

import "errors"

// ErrNameCollision is returned by store mutations (rename, rekey) that would
// make two distinct entities share a canonical key.
var ErrNameCollision = errors.New("irc: name collision under current case mapping")

// store is the session's case-mapped entity tables: users known process-wide
// (component F, §3 lifecycle — kept while IsSeen or IsMonitored), channels
// the client currently holds state for, and each channel's member table.
// Every lookup key is canonicalized through cmp.
type store struct {
	cmp Comparer

	users        map[string]*User    // canonical nickname -> User
	userOrder    []string            // insertion order of canonical keys, for Users() ordering
	channels     map[string]*Channel // canonical channel name -> Channel
	channelOrder []string
}

func newStore(cmp Comparer) *store {
	return &store{
		cmp:      cmp,
		users:    map[string]*User{},
		channels: map[string]*Channel{},
	}
}

func (s *store) findUser(nick string) (*User, bool) {
	u, ok := s.users[s.cmp.Hash(nick)]
	return u, ok
}

func (s *store) findChannel(name string) (*Channel, bool) {
	c, ok := s.channels[s.cmp.Hash(name)]
	return c, ok
}

// ensureUser returns the existing User for nick, or creates and indexes a
// new one (spec.md lifecycle: "created on first observation").
func (s *store) ensureUser(nick string) *User {
	key := s.cmp.Hash(nick)
	if u, ok := s.users[key]; ok {
		return u
	}
	u := &User{Nickname: nick, channels: map[*Channel]*Membership{}}
	s.users[key] = u
	s.userOrder = append(s.userOrder, key)
	return u
}

// maybeDropUser deletes u from the index once it is seen by nothing and
// monitored by nothing (spec.md I3).
func (s *store) maybeDropUser(u *User) {
	if u.IsSeen || u.IsMonitored {
		return
	}
	if len(u.channels) != 0 {
		return
	}
	key := s.cmp.Hash(u.Nickname)
	if existing, ok := s.users[key]; !ok || existing != u {
		return
	}
	delete(s.users, key)
	for i, k := range s.userOrder {
		if k == key {
			s.userOrder = append(s.userOrder[:i], s.userOrder[i+1:]...)
			break
		}
	}
}

// ensureChannel creates and indexes a new Channel (self-JOIN lifecycle).
func (s *store) ensureChannel(name string) *Channel {
	key := s.cmp.Hash(name)
	if c, ok := s.channels[key]; ok {
		return c
	}
	c := &Channel{Name: name, Modes: NewChannelModes(), members: map[*User]*Membership{}}
	s.channels[key] = c
	s.channelOrder = append(s.channelOrder, key)
	return c
}

// dropChannel removes a channel entirely (the self-PART/self-KICK path),
// clearing every membership and
// letting maybeDropUser reap now-unreferenced users.
func (s *store) dropChannel(c *Channel) {
	key := s.cmp.Hash(c.Name)
	for u := range c.members {
		delete(u.channels, c)
		s.maybeDropUser(u)
	}
	delete(s.channels, key)
	for i, k := range s.channelOrder {
		if k == key {
			s.channelOrder = append(s.channelOrder[:i], s.channelOrder[i+1:]...)
			break
		}
	}
}

// join creates a Membership binding u to c with an empty status (spec.md
// I6), replacing any existing membership.
func (s *store) join(c *Channel, u *User) *Membership {
	m := &Membership{User: u, Channel: c, Status: ChannelStatus{}}
	c.members[u] = m
	u.channels[c] = m
	u.IsSeen = true
	return m
}

// part removes u's membership in c, and drops u entirely if it is no longer
// seen-or-monitored anywhere (spec.md §4.H common-channel retention is
// applied by the caller before calling part, by setting/leaving IsSeen).
func (s *store) part(c *Channel, u *User) {
	delete(c.members, u)
	delete(u.channels, c)
	s.maybeDropUser(u)
}

// rename relocates a User from oldNick to newNick in the Users table and in
// every channel it is a member of. Membership objects keep their identity
// (their User pointer is unchanged), only the index keys move. Returns
// ErrNameCollision if newNick's canonical key is already occupied by a
// different user.
func (s *store) rename(u *User, newNick string) error {
	oldKey := s.cmp.Hash(u.Nickname)
	newKey := s.cmp.Hash(newNick)
	if oldKey == newKey {
		u.Nickname = newNick
		return nil
	}
	if existing, ok := s.users[newKey]; ok && existing != u {
		return ErrNameCollision
	}
	if _, ok := s.users[oldKey]; ok {
		delete(s.users, oldKey)
		s.users[newKey] = u
		for i, k := range s.userOrder {
			if k == oldKey {
				s.userOrder[i] = newKey
				break
			}
		}
	}
	u.Nickname = newNick
	// Per-channel member maps are keyed by *User pointer, not name, so no
	// re-keying is needed there — only the name-indexed lookups above.
	return nil
}

// rekeyAll recomputes every canonical key in the Users table, every
// Channel's member table key space (which is pointer-keyed so nothing moves
// there), and the Channels table itself, after a CaseMapping change
// (spec.md I7 / §4.D CASEMAPPING). It returns ErrNameCollision (without
// mutating anything) if two distinct entities would land on the same key.
func (s *store) rekeyAll(newCmp Comparer) error {
	newUsers := make(map[string]*User, len(s.users))
	newUserOrder := make([]string, 0, len(s.userOrder))
	for _, oldKey := range s.userOrder {
		u := s.users[oldKey]
		key := newCmp.Hash(u.Nickname)
		if existing, ok := newUsers[key]; ok && existing != u {
			return ErrNameCollision
		}
		if _, ok := newUsers[key]; !ok {
			newUserOrder = append(newUserOrder, key)
		}
		newUsers[key] = u
	}

	newChannels := make(map[string]*Channel, len(s.channels))
	newChannelOrder := make([]string, 0, len(s.channelOrder))
	for _, oldKey := range s.channelOrder {
		c := s.channels[oldKey]
		key := newCmp.Hash(c.Name)
		if existing, ok := newChannels[key]; ok && existing != c {
			return ErrNameCollision
		}
		if _, ok := newChannels[key]; !ok {
			newChannelOrder = append(newChannelOrder, key)
		}
		newChannels[key] = c
	}

	s.cmp = newCmp
	s.users = newUsers
	s.userOrder = newUserOrder
	s.channels = newChannels
	s.channelOrder = newChannelOrder
	return nil
}
