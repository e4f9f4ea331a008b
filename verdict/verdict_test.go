package verdict

import "testing"

func TestAggregatePrecedenceTable(t *testing.T) {
	cases := []struct {
		name       string
		reputation Status
		prediction Status
		score      float64
		wantStatus Status
		wantFlag   FlaggedBy
	}{
		{"both malicious low score", StatusMalicious, StatusMalicious, 0.1, StatusMalicious, FlaggedByBoth},
		{"both malicious high score", StatusMalicious, StatusMalicious, 0.6, StatusMalicious, FlaggedByBoth},
		{"reputation only low score", StatusMalicious, StatusSafe, 0.1, StatusMalicious, FlaggedByGoogle},
		{"reputation only high score", StatusMalicious, StatusSafe, 0.6, StatusMalicious, FlaggedByGoogle},
		{"ml only low score", StatusSafe, StatusMalicious, 0.1, StatusMalicious, FlaggedByML},
		{"ml only high score", StatusSafe, StatusMalicious, 0.6, StatusMalicious, FlaggedByML},
		{"both safe high score", StatusSafe, StatusSafe, 0.6, StatusSuspicious, FlaggedByNone},
		{"both safe low score", StatusSafe, StatusSafe, 0.1, StatusSafe, FlaggedByNone},
		{"reputation suspicious low score", StatusSuspicious, StatusSafe, 0.1, StatusSuspicious, FlaggedByNone},
		{"reputation suspicious high score", StatusSuspicious, StatusSafe, 0.6, StatusSuspicious, FlaggedByNone},
		{"reputation suspicious ml malicious", StatusSuspicious, StatusMalicious, 0.1, StatusMalicious, FlaggedByML},
	}

	for _, tc := range cases {
		got := Aggregate(tc.reputation, MLResult{Score: tc.score, Prediction: tc.prediction})
		if got.Status != tc.wantStatus {
			t.Fatalf("%s: status = %q, want %q", tc.name, got.Status, tc.wantStatus)
		}
		if got.FlaggedBy != tc.wantFlag {
			t.Fatalf("%s: flaggedBy = %q, want %q", tc.name, got.FlaggedBy, tc.wantFlag)
		}
	}
}

func TestAggregateScoreBoundary(t *testing.T) {
	got := Aggregate(StatusSafe, MLResult{Score: 0.5, Prediction: StatusSafe})
	if got.Status != StatusSafe {
		t.Fatalf("score exactly 0.5 should stay Safe, got %q", got.Status)
	}
	got = Aggregate(StatusSafe, MLResult{Score: 0.500001, Prediction: StatusSafe})
	if got.Status != StatusSuspicious {
		t.Fatalf("score above 0.5 should be Suspicious, got %q", got.Status)
	}
}

func TestAggregateUnknownPredictionFailsClosed(t *testing.T) {
	got := Aggregate(StatusSafe, MLResult{Score: 0.1, Prediction: Status("Benign")})
	if got.Status != StatusSuspicious {
		t.Fatalf("unknown prediction label should be Suspicious, got %q", got.Status)
	}
}

func TestSeverityOrdering(t *testing.T) {
	if !(StatusSafe.Severity() < StatusSuspicious.Severity() && StatusSuspicious.Severity() < StatusMalicious.Severity()) {
		t.Fatal("severity ordering broken")
	}
	if Status("garbage").Severity() <= StatusSafe.Severity() {
		t.Fatal("unknown status must not rank as Safe")
	}
}
