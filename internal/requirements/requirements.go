// Package requirements turns free-text planning requests into structured
// per-day constraint records.
package requirements

// DayRequirement captures the constraints extracted for a single target date.
// Exactly one DayRequirement exists per input date, in input order.
type DayRequirement struct {
	Date        string   `json:"date"`
	Cuisine     string   `json:"cuisine,omitempty"`
	DietaryHard []string `json:"dietary_hard,omitempty"`
	DietarySoft []string `json:"dietary_soft,omitempty"`
	Surprise    bool     `json:"surprise,omitempty"`
	Unhandled   []string `json:"unhandled,omitempty"`
	RawText     string   `json:"raw_text,omitempty"`
}

// Constrained reports whether the day carries any evaluable constraint.
// Surprise days are never considered constrained: the validator skips them
// even if constraints were stored before the surprise phrase was seen.
func (d *DayRequirement) Constrained() bool {
	if d.Surprise {
		return false
	}
	return d.Cuisine != "" || len(d.DietaryHard) > 0 || len(d.DietarySoft) > 0
}

// Describe renders the day's constraints for inclusion in a model prompt.
func (d *DayRequirement) Describe() string {
	if d.Surprise {
		return "no constraints, pick anything interesting"
	}
	desc := ""
	if d.Cuisine != "" {
		desc += "cuisine: " + d.Cuisine
	}
	for _, t := range d.DietaryHard {
		if desc != "" {
			desc += "; "
		}
		desc += "must be " + t
	}
	for _, t := range d.DietarySoft {
		if desc != "" {
			desc += "; "
		}
		desc += "ideally " + t
	}
	if desc == "" {
		desc = "no specific constraints"
	}
	return desc
}
