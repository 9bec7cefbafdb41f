package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTicketStateValid(t *testing.T) {
	for _, state := range TicketStates {
		assert.True(t, state.Valid(), "state %q should be valid", state)
	}

	for _, invalid := range []TicketState{"", "new", "NEW", "Done", "Cancelled", "in progress"} {
		assert.False(t, invalid.Valid(), "state %q should be invalid", invalid)
	}
}

func TestTicketStatesCoversWireVocabulary(t *testing.T) {
	expected := []string{"New", "In Progress", "Ready for QC", "In QC", "Completed", "In Backlog"}
	actual := make([]string, len(TicketStates))
	for i, state := range TicketStates {
		actual[i] = string(state)
	}
	assert.Equal(t, expected, actual)
}

func TestTicketSeverityValid(t *testing.T) {
	assert.True(t, SeverityLow.Valid())
	assert.True(t, SeverityMedium.Valid())
	assert.True(t, SeverityHigh.Valid())
	assert.False(t, TicketSeverity("Critical").Valid())
	assert.False(t, TicketSeverity("").Valid())
}

func TestTicketTypeValid(t *testing.T) {
	assert.True(t, TypeBug.Valid())
	assert.True(t, TypeFeatureRequest.Valid())
	assert.True(t, TypeOther.Valid())
	assert.False(t, TicketType("Chore").Valid())
}
