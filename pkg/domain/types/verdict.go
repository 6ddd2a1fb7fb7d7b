package types

// Verdict is the doctor review outcome returned by the explanation layer
type Verdict string

const (
	VerdictConfirmed      Verdict = "confirmed"
	VerdictNeedsAttention Verdict = "needs_attention"
)

// IsValid checks if the verdict is valid
func (v Verdict) IsValid() bool {
	switch v {
	case VerdictConfirmed, VerdictNeedsAttention:
		return true
	default:
		return false
	}
}

// Normalize maps anything other than confirmed to needs_attention
func (v Verdict) Normalize() Verdict {
	if v == VerdictConfirmed {
		return VerdictConfirmed
	}
	return VerdictNeedsAttention
}

func (v Verdict) String() string {
	return string(v)
}
