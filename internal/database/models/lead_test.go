package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreForStatus(t *testing.T) {
	tests := []struct {
		status LeadStatus
		score  int
	}{
		{StatusNew, 20},
		{StatusContacted, 30},
		{StatusInterested, 50},
		{StatusNotInterested, 10},
		{StatusFollowUp, 40},
		{StatusQualified, 70},
		{StatusProposalSent, 80},
		{StatusNegotiating, 90},
		{StatusClosedWon, 100},
		{StatusClosedLost, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.score, ScoreForStatus(tt.status), string(tt.status))
	}

	// Unknown statuses fall back to the entry score.
	assert.Equal(t, 20, ScoreForStatus(LeadStatus("Bogus")))
}

func TestParseLeadSource(t *testing.T) {
	src, err := ParseLeadSource(" Cold Call ")
	require.NoError(t, err)
	assert.Equal(t, SourceColdCall, src)

	_, err = ParseLeadSource("cold call")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Website")

	_, err = ParseLeadSource("")
	assert.Error(t, err)
}

func TestParseLeadStatus(t *testing.T) {
	status, err := ParseLeadStatus("Closed-Won")
	require.NoError(t, err)
	assert.Equal(t, StatusClosedWon, status)

	_, err = ParseLeadStatus("closed-won")
	assert.Error(t, err)
}

func TestParseLeadPriority(t *testing.T) {
	priority, err := ParseLeadPriority("High")
	require.NoError(t, err)
	assert.Equal(t, PriorityHigh, priority)

	_, err = ParseLeadPriority("HIGH")
	assert.Error(t, err)
}
