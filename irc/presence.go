package irc

// presence implements component H: the MONITOR (preferred) and WATCH
// (legacy) subscription tables and the common-channel retention policy
// spec.md §4.H describes. It never touches the wire directly; Session
// (component I) calls into it from the relevant numeric handlers and acts
// on the nick lists and flags its methods return.
type presence struct {
	cmp Comparer

	monitored map[string]struct{} // canonical nick -> tracked via MONITOR
	watched   map[string]struct{} // canonical nick -> tracked via WATCH

	// watchListSeen accumulates nicknames observed since the last
	// RPL_ENDOFWATCHLIST, so the next one can diff against it. It is always
	// live (never nil) so noteWatchListEntry needs no separate "begin" call.
	watchListSeen map[string]struct{}
}

func newPresence(cmp Comparer) *presence {
	return &presence{
		cmp:           cmp,
		monitored:     map[string]struct{}{},
		watched:       map[string]struct{}{},
		watchListSeen: map[string]struct{}{},
	}
}

// AddMonitor/AddWatch record that nick is now a tracked target (spec.md:
// "MONITOR takes precedence over WATCH regardless of order").
func (p *presence) AddMonitor(nick string) { p.monitored[p.cmp.Hash(nick)] = struct{}{} }
func (p *presence) AddWatch(nick string)   { p.watched[p.cmp.Hash(nick)] = struct{}{} }

func (p *presence) RemoveMonitor(nick string) { delete(p.monitored, p.cmp.Hash(nick)) }
func (p *presence) RemoveWatch(nick string)   { delete(p.watched, p.cmp.Hash(nick)) }

func (p *presence) IsTracked(nick string) bool {
	key := p.cmp.Hash(nick)
	if _, ok := p.monitored[key]; ok {
		return true
	}
	_, ok := p.watched[key]
	return ok
}

func (p *presence) noteWatchListEntry(nick string) {
	p.watchListSeen[p.cmp.Hash(nick)] = struct{}{}
}

// endWatchList returns every previously-watched nick that was not observed
// since the prior call, per RPL_ENDOFWATCHLIST semantics (spec.md §4.H), and
// resets the accumulator for the next batch.
func (p *presence) endWatchList() []string {
	var missing []string
	for key := range p.watched {
		if _, ok := p.watchListSeen[key]; !ok {
			missing = append(missing, key)
		}
	}
	p.watchListSeen = map[string]struct{}{}
	return missing
}
