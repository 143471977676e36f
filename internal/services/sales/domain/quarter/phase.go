package quarter

// Phase is one station of the quarter's linear lifecycle.
type Phase int

const (
	// PhaseUnspecified represents an invalid phase value.
	PhaseUnspecified Phase = iota
	// PhaseAssignment rolls the territory and the audit key.
	PhaseAssignment
	// PhaseFirstTrip resolves travel to the territory.
	PhaseFirstTrip
	// PhaseFirstClient runs the ordinary negotiation.
	PhaseFirstClient
	// PhaseCrossroads resolves the evening-choice check.
	PhaseCrossroads
	// PhaseQuarterEvent rolls the market table.
	PhaseQuarterEvent
	// PhaseVPMeeting locks in the whale strategy.
	PhaseVPMeeting
	// PhaseWhalePrep rolls the hunt table.
	PhaseWhalePrep
	// PhaseWhale runs the high-stakes negotiation.
	PhaseWhale
	// PhaseQuarterEnd is terminal; only the tier remains.
	PhaseQuarterEnd
)

func (p Phase) String() string {
	switch p {
	case PhaseAssignment:
		return "assignment"
	case PhaseFirstTrip:
		return "first-trip"
	case PhaseFirstClient:
		return "first-client"
	case PhaseCrossroads:
		return "crossroads"
	case PhaseQuarterEvent:
		return "quarter-event"
	case PhaseVPMeeting:
		return "vp-meeting"
	case PhaseWhalePrep:
		return "whale-prep"
	case PhaseWhale:
		return "whale"
	case PhaseQuarterEnd:
		return "quarter-end"
	default:
		return "unspecified"
	}
}

// next returns the following phase. QuarterEnd has no successor.
func (p Phase) next() Phase {
	if p >= PhaseAssignment && p < PhaseQuarterEnd {
		return p + 1
	}
	return PhaseUnspecified
}

// EntropyBundles is the number of seed pairs a full game consumes.
const EntropyBundles = 4

// bundleForPhase maps a phase to the entropy bundle its rolls draw
// from. Zero means the phase rolls nothing.
func bundleForPhase(p Phase) int {
	switch p {
	case PhaseAssignment, PhaseFirstTrip:
		return 1
	case PhaseFirstClient:
		return 2
	case PhaseCrossroads, PhaseQuarterEvent:
		return 3
	case PhaseWhalePrep, PhaseWhale:
		return 4
	default:
		return 0
	}
}
