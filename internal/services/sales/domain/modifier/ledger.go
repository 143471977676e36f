package modifier

// Ledger is the ordered set of active modifiers on a game. The zero
// value is ready to use.
type Ledger struct {
	entries []Modifier
}

// Add appends a modifier to the ledger.
func (l *Ledger) Add(m Modifier) {
	l.entries = append(l.entries, m)
}

// TickPhase decrements every phase-scoped modifier by exactly one and
// drops the expired entries.
func (l *Ledger) TickPhase() {
	l.tick(ScopePhases)
}

// TickRound decrements every round-scoped modifier by exactly one and
// drops the expired entries.
func (l *Ledger) TickRound() {
	l.tick(ScopeRounds)
}

// ConsumeForPitch decrements pitch-scoped entries that boost pitch rolls.
// Called once per pitch attempt, after the roll has used them.
func (l *Ledger) ConsumeForPitch() {
	l.consume(EffectPitch)
}

// ConsumeForDeal decrements pitch-scoped entries that boost deal value.
// Called once per successful pitch, after the value has used them.
func (l *Ledger) ConsumeForDeal() {
	l.consume(EffectDeal)
}

// PruneEncounter drops every entry whose life is bound to the running
// negotiation. Phase-scoped entries survive across encounters.
func (l *Ledger) PruneEncounter() {
	kept := l.entries[:0]
	for _, m := range l.entries {
		if m.Scope == ScopePhases {
			kept = append(kept, m)
		}
	}
	l.entries = kept
}

// Sum totals the signed values of active entries with the given effect.
func (l *Ledger) Sum(effect Effect) int64 {
	var total int64
	for _, m := range l.entries {
		if m.Effect == effect {
			total += m.Value
		}
	}
	return total
}

// Has reports whether any active entry carries the given effect.
func (l *Ledger) Has(effect Effect) bool {
	for _, m := range l.entries {
		if m.Effect == effect {
			return true
		}
	}
	return false
}

// Active returns a copy of the current entries in insertion order.
func (l *Ledger) Active() []Modifier {
	out := make([]Modifier, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len reports the number of active entries.
func (l *Ledger) Len() int {
	return len(l.entries)
}

func (l *Ledger) tick(scope Scope) {
	kept := l.entries[:0]
	for _, m := range l.entries {
		if m.Scope == scope {
			m.Remaining--
			if m.Remaining <= 0 {
				continue
			}
		}
		kept = append(kept, m)
	}
	l.entries = kept
}

func (l *Ledger) consume(effect Effect) {
	kept := l.entries[:0]
	for _, m := range l.entries {
		if m.Scope == ScopePitches && m.Effect == effect {
			m.Remaining--
			if m.Remaining <= 0 {
				continue
			}
		}
		kept = append(kept, m)
	}
	l.entries = kept
}
