package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate(t *testing.T) {
	t.Parallel()

	parseErrs := []ValidationError{
		{LineNumber: 1, Message: MsgFieldCount},
		{LineNumber: 4, Message: MsgInvalidPhone},
	}
	result := DispatchResult{
		Sent: 2,
		Outcomes: []DispatchOutcome{
			{LineNumber: 2, Success: true},
			{LineNumber: 3, Success: false, ErrorMessage: "falha no gateway"},
			{LineNumber: 5, Success: true},
		},
	}

	report := Aggregate(parseErrs, result, 3, 1500*time.Millisecond)

	assert.True(t, report.Success)
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 2, report.Sent)
	assert.Empty(t, report.Message)
	assert.InDelta(t, 1.5, report.ElapsedSeconds, 1e-9)
	assert.Equal(t, []LineError{
		{Line: 1, Message: MsgFieldCount},
		{Line: 4, Message: MsgInvalidPhone},
		{Line: 3, Message: "falha no gateway"},
	}, report.Errors, "parse errors come first, then delivery failures in attempt order")
}

func TestAggregate_NoValidContacts(t *testing.T) {
	t.Parallel()

	report := Aggregate([]ValidationError{{LineNumber: 1, Message: MsgInvalidPhone}}, DispatchResult{}, 0, 0)

	assert.False(t, report.Success)
	assert.Equal(t, 0, report.Total)
	assert.Equal(t, 0, report.Sent)
	assert.Equal(t, MsgNoValidContacts, report.Message)
	assert.Len(t, report.Errors, 1)
}

func TestReport_MarshalJSON(t *testing.T) {
	t.Parallel()

	report := Report{
		ID:             "abc",
		Success:        true,
		Total:          2,
		Sent:           1,
		Errors:         []LineError{{Line: 2, Message: "falha"}},
		ElapsedSeconds: 3.14159,
	}

	raw, err := json.Marshal(report)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "abc",
		"success": true,
		"total": 2,
		"enviados": 1,
		"erros": [{"linha": 2, "erro": "falha"}],
		"tempo": 3.1
	}`, string(raw))
}

func TestReport_MarshalJSON_EmptyErrorsIsArray(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal(Report{Success: false, Message: MsgNoValidContacts})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"success": false,
		"total": 0,
		"enviados": 0,
		"erros": [],
		"tempo": 0,
		"message": "nenhum contato válido no arquivo"
	}`, string(raw))
}
