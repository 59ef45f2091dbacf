package contracts

// Decision is one routing decision the pipeline made: which phase ran,
// which branch it took, how many resources it touched. Decisions carry no
// mode-specific detail, so the trace of a simulate run is comparable to the
// trace of an apply run of the same configuration.
type Decision struct {
	Phase  string `json:"phase"`
	Action string `json:"action"`
	Target string `json:"target,omitempty"`
	Count  int    `json:"count,omitempty"`
}

// DecisionTrace is the ordered record of all decisions of one run.
type DecisionTrace struct {
	decisions []Decision
}

// Record appends a decision.
func (t *DecisionTrace) Record(d Decision) {
	t.decisions = append(t.decisions, d)
}

// Decisions returns a copy of the recorded decisions in order.
func (t *DecisionTrace) Decisions() []Decision {
	out := make([]Decision, len(t.decisions))
	copy(out, t.decisions)
	return out
}

// Equal compares two traces decision-by-decision.
func (t *DecisionTrace) Equal(other *DecisionTrace) bool {
	if len(t.decisions) != len(other.decisions) {
		return false
	}
	for i, d := range t.decisions {
		if d != other.decisions[i] {
			return false
		}
	}
	return true
}
