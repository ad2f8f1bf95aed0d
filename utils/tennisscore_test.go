package utils

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateTennisScore(t *testing.T) {
	tests := []struct {
		team1   int
		team2   int
		isValid bool
	}{
		{11, 0, true},
		{11, 9, true},
		{0, 11, true},
		{9, 11, true},
		{12, 10, true},
		{10, 12, true},
		{15, 13, true},
		{0, 0, true}, // unstarted match

		{11, 10, false}, // must win by two past 9
		{11, 11, false},
		{10, 10, false},
		{12, 9, false},
		{13, 10, false},
		{7, 5, false},
		{-1, 11, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d-%d", tt.team1, tt.team2), func(t *testing.T) {
			result := ValidateTennisScore(tt.team1, tt.team2)
			assert.Equal(t, tt.isValid, result.IsValid)
			if !tt.isValid {
				assert.NotEmpty(t, result.Reason)
			}
		})
	}
}

func TestTiesAlwaysInvalid(t *testing.T) {
	for _, score := range []int{1, 5, 10, 11, 15} {
		result := ValidateTennisScore(score, score)
		assert.False(t, result.IsValid, "%d-%d should be invalid", score, score)
	}
}

func TestRequiresAdminOverride(t *testing.T) {
	assert.False(t, RequiresAdminOverride(11, 7))
	assert.False(t, RequiresAdminOverride(12, 10))
	assert.True(t, RequiresAdminOverride(9, 7))
	assert.True(t, RequiresAdminOverride(11, 10))
}
