package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContext_Merge(t *testing.T) {
	base := &Context{
		User:         &User{Request: "old.csv"},
		Instructions: Instructions{System: "base"},
		Workflow:     &Workflow{Tags: []string{"a"}},
	}

	base.Merge(Context{User: &User{Request: "new.csv", Channel: ChannelCLI}})

	assert.Equal(t, "new.csv", base.User.Request)
	assert.Equal(t, ChannelCLI, base.User.Channel)
	assert.Equal(t, "base", base.Instructions.System, "unset fields must survive a merge")
	assert.Equal(t, []string{"a"}, base.Workflow.Tags)

	t.Run("Nested records are replaced, not merged", func(t *testing.T) {
		c := &Context{Instructions: Instructions{System: "s", Style: "terse"}}
		c.Merge(Context{Instructions: Instructions{System: "other"}})
		assert.Equal(t, Instructions{System: "other"}, c.Instructions)
	})

	t.Run("Result log is only replaced when provided", func(t *testing.T) {
		c := &Context{NodeResults: []Result{{NodeID: "a"}}}
		c.Merge(Context{User: &User{}})
		assert.Len(t, c.NodeResults, 1)
	})
}

func TestContext_AppendAndLast(t *testing.T) {
	c := NewContext("sys")

	_, ok := c.Last()
	assert.False(t, ok)

	c.Append(Result{NodeID: "a", Value: 1})
	c.Append(Result{NodeID: "b", Value: 2})
	c.Append(Result{NodeID: "a", Value: 3})

	last, ok := c.Last()
	require.True(t, ok)
	assert.Equal(t, Result{NodeID: "a", Value: 3}, last)

	prev, ok := c.ResultOf("b")
	require.True(t, ok)
	assert.Equal(t, 2, prev.Value)

	_, ok = c.ResultOf("missing")
	assert.False(t, ok)

	// The cache is a copy; mutating the log does not change it.
	c.NodeResults[2].Value = 99
	assert.Equal(t, 3, c.LastNodeResult.Value)
}

func TestContext_LastFallsBackToLog(t *testing.T) {
	c := &Context{NodeResults: []Result{{NodeID: "x", Value: "v"}}}
	last, ok := c.Last()
	require.True(t, ok)
	assert.Equal(t, "x", last.NodeID)
}

func TestContext_Record(t *testing.T) {
	c := NewContext("sys")
	c.Record(Event{NodeID: "a", Status: StatusOK})
	assert.Nil(t, c.Telemetry, "telemetry must not be auto-created")

	c.Telemetry = &Telemetry{}
	c.Record(Event{NodeID: "a", Status: StatusOK})
	assert.Nil(t, c.Telemetry.Events, "nil event log disables recording")

	c.Telemetry = NewTelemetry()
	c.Record(Event{NodeID: "a", Status: StatusOK, At: time.Unix(1, 0)})
	assert.Len(t, c.Telemetry.Events, 1)
}

func TestContext_Validate(t *testing.T) {
	var cfgErr *ConfigurationError
	assert.ErrorAs(t, (&Context{}).Validate(), &cfgErr)
	assert.NoError(t, NewContext("sys").Validate())
}

func TestSnapshot_JSON(t *testing.T) {
	c := NewContext("sys")
	c.Append(Result{NodeID: "a", Value: "x"})
	c.Error = errors.New("boom")

	data, err := json.Marshal(NewSnapshot(c))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "boom", decoded["error"])
	assert.Len(t, decoded["node_results"], 1)
	assert.Equal(t, "sys", decoded["instructions"].(map[string]any)["system"])
}

func TestConfig_Merge(t *testing.T) {
	c := Config{Mode: ModeSingleRun, MaxNodes: 5}
	c = c.Merge(Config{MaxDuration: time.Second})
	assert.Equal(t, Config{Mode: ModeSingleRun, MaxNodes: 5, MaxDuration: time.Second}, c)
}
