package rewrite

// Action is the outcome for one tag.
type Action string

const (
	ActionRewrite Action = "rewrite"
	ActionSkip    Action = "skip"
)

// SkipReason says why a tag was left alone.
type SkipReason string

const (
	ReasonTooSmall      SkipReason = "too_small"
	ReasonExcludedText  SkipReason = "excluded_text"
	ReasonExcludedClass SkipReason = "excluded_class"
	ReasonMissingSrc    SkipReason = "missing_src"
)

// Decision records what happened to one matched tag.
type Decision struct {
	Tag         string     `json:"tag"`
	Action      Action     `json:"action"`
	Reason      SkipReason `json:"reason,omitempty"`
	Replacement string     `json:"replacement,omitempty"`
}

func skip(tag string, reason SkipReason) Decision {
	return Decision{Tag: tag, Action: ActionSkip, Reason: reason}
}

// Summary counts decisions by action.
type Summary struct {
	Rewritten int `json:"rewritten"`
	Skipped   int `json:"skipped"`
}

// Summarize counts rewritten and skipped tags.
func Summarize(decisions []Decision) Summary {
	var s Summary
	for _, d := range decisions {
		if d.Action == ActionRewrite {
			s.Rewritten++
		} else {
			s.Skipped++
		}
	}
	return s
}
