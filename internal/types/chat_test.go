package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatMessageContent_UserIsRawText(t *testing.T) {
	content, err := FormatMessageContent(RoleUser, "bonjour", nil)
	require.NoError(t, err)
	assert.Equal(t, "bonjour", content)
}

func TestMessageContent_AssistantRoundTrip(t *testing.T) {
	blocks := []ContentBlock{
		{Type: BlockText, Text: "Let me check the weather."},
		{
			Type:       BlockToolCall,
			ToolCallID: "call-1",
			ToolName:   "getWeather",
			Args:       json.RawMessage(`{"timeframe":"today"}`),
		},
	}

	content, err := FormatMessageContent(RoleAssistant, "", blocks)
	require.NoError(t, err)

	parsed, err := ParseMessageContent(RoleAssistant, content)
	require.NoError(t, err)
	require.Len(t, parsed, 2)
	assert.Equal(t, BlockText, parsed[0].Type)
	assert.Equal(t, "Let me check the weather.", parsed[0].Text)
	assert.Equal(t, BlockToolCall, parsed[1].Type)
	assert.Equal(t, "call-1", parsed[1].ToolCallID)
	assert.Equal(t, "getWeather", parsed[1].ToolName)
	assert.JSONEq(t, `{"timeframe":"today"}`, string(parsed[1].Args))
}

func TestMessageContent_ToolRoundTrip(t *testing.T) {
	blocks := []ContentBlock{
		{
			Type:       BlockToolResult,
			ToolCallID: "call-1",
			ToolName:   "getWeather",
			Result:     json.RawMessage(`{"temperature":24.5}`),
		},
	}

	content, err := FormatMessageContent(RoleTool, "", blocks)
	require.NoError(t, err)

	parsed, err := ParseMessageContent(RoleTool, content)
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	assert.Equal(t, BlockToolResult, parsed[0].Type)
	assert.JSONEq(t, `{"temperature":24.5}`, string(parsed[0].Result))
}

func TestParseMessageContent_UserBecomesTextBlock(t *testing.T) {
	parsed, err := ParseMessageContent(RoleUser, "hello there")
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	assert.Equal(t, BlockText, parsed[0].Type)
	assert.Equal(t, "hello there", parsed[0].Text)
}

func TestParseMessageContent_MalformedAssistant(t *testing.T) {
	_, err := ParseMessageContent(RoleAssistant, "not json at all")
	assert.Error(t, err)
}

func TestIncomingMessage_Text(t *testing.T) {
	t.Run("plain string content", func(t *testing.T) {
		m := IncomingMessage{Role: RoleUser, Content: json.RawMessage(`"où manger ce soir ?"`)}
		text, err := m.Text()
		require.NoError(t, err)
		assert.Equal(t, "où manger ce soir ?", text)
	})

	t.Run("block array content joins text blocks", func(t *testing.T) {
		m := IncomingMessage{Role: RoleUser, Content: json.RawMessage(
			`[{"type":"text","text":"first "},{"type":"tool-call","toolName":"x"},{"type":"text","text":"second"}]`,
		)}
		text, err := m.Text()
		require.NoError(t, err)
		assert.Equal(t, "first second", text)
	})

	t.Run("invalid content", func(t *testing.T) {
		m := IncomingMessage{Role: RoleUser, Content: json.RawMessage(`{"weird":true}`)}
		_, err := m.Text()
		assert.Error(t, err)
	})
}

func TestEventRecurring(t *testing.T) {
	weekly := "weekly"
	empty := ""

	assert.True(t, (&Event{RecurrencePattern: &weekly}).Recurring())
	assert.False(t, (&Event{RecurrencePattern: &empty}).Recurring())
	assert.False(t, (&Event{}).Recurring())
}
