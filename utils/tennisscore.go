package utils

import "fmt"

// ScoreValidation is the outcome of checking a pair of game scores against
// the league's standard patterns.
type ScoreValidation struct {
	IsValid bool
	Reason  string
}

// ValidateTennisScore checks a final score pair. Valid completed scores are
// 11-0 through 11-9, or win-by-two once both sides reach 10 (12-10, 13-11,
// ...). 0-0 is treated as an unstarted match and left alone.
func ValidateTennisScore(team1Score, team2Score int) ScoreValidation {
	if team1Score < 0 || team2Score < 0 {
		return ScoreValidation{IsValid: false, Reason: "scores cannot be negative"}
	}
	if team1Score == 0 && team2Score == 0 {
		return ScoreValidation{IsValid: true}
	}
	if team1Score == team2Score {
		return ScoreValidation{IsValid: false, Reason: "scores cannot be tied - one team must win"}
	}

	higher, lower := team1Score, team2Score
	if lower > higher {
		higher, lower = lower, higher
	}

	if higher == 11 && lower <= 9 {
		return ScoreValidation{IsValid: true}
	}
	if lower >= 10 && higher-lower == 2 {
		return ScoreValidation{IsValid: true}
	}

	return ScoreValidation{
		IsValid: false,
		Reason: fmt.Sprintf(
			"invalid score %d-%d: valid scores are 11-0 through 11-9, or win-by-2 after 10-10",
			team1Score, team2Score),
	}
}

// RequiresAdminOverride reports whether completing a match with this score
// needs an explicit admin override.
func RequiresAdminOverride(team1Score, team2Score int) bool {
	return !ValidateTennisScore(team1Score, team2Score).IsValid
}
