package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

type memSink struct{ envs []Envelope }

func (m *memSink) Emit(e Envelope) error {
	m.envs = append(m.envs, e)
	return nil
}

func TestEmitterSeqMonotonicAndRunIDStable(t *testing.T) {
	sink := &memSink{}
	e := NewEmitter("deadbeef", sink)

	require.NoError(t, e.Emit(Start, nil))
	require.NoError(t, e.Emit(PhaseStart, map[string]any{"phase": "clone"}))
	require.NoError(t, e.Emit(Summary, map[string]any{"success": true}))

	require.Len(t, sink.envs, 3)
	var lastSeq int64
	var lastTS string
	for _, env := range sink.envs {
		require.Greater(t, env.Seq, lastSeq)
		require.GreaterOrEqual(t, env.TS, lastTS)
		require.Equal(t, "deadbeef", env.RunID)
		lastSeq = env.Seq
		lastTS = env.TS
	}
	require.Equal(t, Start, sink.envs[0].Event)
	require.Equal(t, Summary, sink.envs[len(sink.envs)-1].Event)
}

func TestEnvelopeMarshalFlattensFields(t *testing.T) {
	env := Envelope{
		Event: PhaseStart, TS: "t", Seq: 1, RunID: "r", SchemaVersion: 1, ToolVersion: "dev",
		Fields: map[string]any{"phase": "clone", "pct": 0.5},
	}
	b, err := json.Marshal(env)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	require.Equal(t, "phase_start", out["event"])
	require.Equal(t, "clone", out["phase"])
	require.InDelta(t, 0.5, out["pct"], 0.0001)
}
