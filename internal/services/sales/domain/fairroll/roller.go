package fairroll

// Roller yields labeled die rolls. The production implementation is
// Source; tests substitute scripted rollers.
type Roller interface {
	Roll(label string, sides int) (int, error)
}

// RollRecord is one derived roll in a game's audit log.
type RollRecord struct {
	Label string `json:"label"`
	Sides int    `json:"sides"`
	Value int    `json:"value"`
}

// Recorder wraps a Roller and appends every successful roll to an
// append-only log. The log is the audit trail a verifier replays.
type Recorder struct {
	roller Roller
	log    []RollRecord
}

// NewRecorder wraps a roller for audit logging.
func NewRecorder(r Roller) *Recorder {
	return &Recorder{roller: r}
}

// SetRoller swaps the wrapped roller, keeping the accumulated log. A
// game points the recorder at each fresh entropy bundle this way.
func (r *Recorder) SetRoller(roller Roller) {
	r.roller = roller
}

// Roll derives a roll through the wrapped roller and records it.
func (r *Recorder) Roll(label string, sides int) (int, error) {
	value, err := r.roller.Roll(label, sides)
	if err != nil {
		return 0, err
	}
	r.log = append(r.log, RollRecord{Label: label, Sides: sides, Value: value})
	return value, nil
}

// Log returns a copy of the recorded rolls in derivation order.
func (r *Recorder) Log() []RollRecord {
	out := make([]RollRecord, len(r.log))
	copy(out, r.log)
	return out
}
