package verdict

// Status is the safety classification of a scanned payload, ordered by
// severity: Safe < Suspicious < Malicious.
type Status string

const (
	StatusSafe       Status = "Safe"
	StatusSuspicious Status = "Suspicious"
	StatusMalicious  Status = "Malicious"
)

// Severity returns the rank of a status for comparisons. Unknown values rank
// above Safe so that a corrupted status never reads as harmless.
func (s Status) Severity() int {
	switch s {
	case StatusSafe:
		return 0
	case StatusSuspicious:
		return 1
	case StatusMalicious:
		return 2
	default:
		return 1
	}
}

// FlaggedBy records which signal produced a verdict.
type FlaggedBy string

const (
	FlaggedByNone      FlaggedBy = ""
	FlaggedByWhitelist FlaggedBy = "whitelist"
	FlaggedByGoogle    FlaggedBy = "google"
	FlaggedByML        FlaggedBy = "ml"
	FlaggedByBoth      FlaggedBy = "both"
)

// MLResult is the response of the remote URL classifier: a continuous risk
// score in [0,1] and the service's own thresholded label.
type MLResult struct {
	Score      float64 `json:"score"`
	Prediction Status  `json:"prediction"`
}

// Verdict is the final classification for one scan.
type Verdict struct {
	Status    Status    `json:"status"`
	FlaggedBy FlaggedBy `json:"flagged_by,omitempty"`
}

// Aggregate combines the reputation lookup and the ML classification into a
// single verdict.
//
// Malicious is sticky: either signal asserting Malicious on its own decides
// the outcome, and the provenance tag says which one (or both). The
// continuous score is only consulted once both discrete labels agree the URL
// is not malicious, so a mid-range score can never contradict an explicit
// Malicious label. Any remaining ambiguity resolves to Suspicious, never
// silently to Safe.
func Aggregate(reputation Status, ml MLResult) Verdict {
	repMalicious := reputation == StatusMalicious
	mlMalicious := ml.Prediction == StatusMalicious

	switch {
	case repMalicious && mlMalicious:
		return Verdict{Status: StatusMalicious, FlaggedBy: FlaggedByBoth}
	case repMalicious:
		return Verdict{Status: StatusMalicious, FlaggedBy: FlaggedByGoogle}
	case mlMalicious:
		return Verdict{Status: StatusMalicious, FlaggedBy: FlaggedByML}
	}

	if reputation == StatusSuspicious {
		return Verdict{Status: StatusSuspicious}
	}
	if ml.Score > 0.5 {
		return Verdict{Status: StatusSuspicious}
	}
	if reputation == StatusSafe && ml.Prediction == StatusSafe {
		return Verdict{Status: StatusSafe}
	}
	// Disagreeing or malformed non-malicious combinations fail toward caution.
	return Verdict{Status: StatusSuspicious}
}
