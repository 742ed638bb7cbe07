package sentiment

// HintTable maps a score to a short context line for the system prompt.
type HintTable struct {
	VeryNegative string // score <= -5
	Negative     string // score < 0
	Neutral      string // score == 0
	Positive     string // score <= 5
	VeryPositive string // score > 5
}

var DefaultHints = HintTable{
	VeryNegative: "I sense you're feeling quite negative. I'm here to support you.",
	Negative:     "I notice you might be feeling a bit down. Would you like to talk about it?",
	Neutral:      "I'm here to listen and chat with you.",
	Positive:     "I sense some positivity in your message. Would you like to share more?",
	VeryPositive: "I can tell you're feeling quite positive! That's wonderful!",
}

func (h HintTable) For(score int) string {
	switch {
	case score <= -5:
		return h.VeryNegative
	case score < 0:
		return h.Negative
	case score == 0:
		return h.Neutral
	case score <= 5:
		return h.Positive
	default:
		return h.VeryPositive
	}
}
