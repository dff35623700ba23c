package replay

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"duel-lite/battle"
	"duel-lite/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simulator(t *testing.T) *battle.Simulator {
	t.Helper()
	reg, err := catalog.Defaults()
	require.NoError(t, err)
	sim, err := battle.NewSimulator(reg, battle.DefaultConfig(), nil)
	require.NoError(t, err)
	return sim
}

func baseSpec() Spec {
	return Spec{FighterA: "tide", FighterB: "stone", Location: "quarry", TimeOfDay: "dusk", Seed: 77}
}

func TestGenerateTape_IsDeterministic(t *testing.T) {
	sim := simulator(t)
	tapeA, err := GenerateTape(context.Background(), sim, baseSpec())
	require.NoError(t, err)
	tapeB, err := GenerateTape(context.Background(), sim, baseSpec())
	require.NoError(t, err)

	require.NotEmpty(t, tapeA.Events)
	require.Equal(t, len(tapeA.Events), len(tapeB.Events))
	for i := range tapeA.Events {
		if tapeA.Events[i].EnvelopeB64 != tapeB.Events[i].EnvelopeB64 {
			t.Fatalf("envelope %d differs between runs", i)
		}
	}
	if !reflect.DeepEqual(ToWireTape(tapeA), ToWireTape(tapeB)) {
		t.Fatalf("expected identical wire tapes for the same spec")
	}

	foundStart, foundResult := false, false
	for _, e := range tapeA.Events {
		switch e.Type {
		case "battle_start":
			foundStart = true
		case eventTypeResult:
			foundResult = true
		}
	}
	assert.True(t, foundStart)
	assert.True(t, foundResult)
	assert.Equal(t, eventTypeResult, tapeA.Events[len(tapeA.Events)-1].Type)
}

func TestEnvelopesDecode(t *testing.T) {
	tape, err := GenerateTape(context.Background(), simulator(t), baseSpec())
	require.NoError(t, err)

	for i, e := range tape.Events {
		msg, err := Decode(e.EnvelopeB64)
		require.NoError(t, err)
		fields := msg.GetFields()
		assert.Equal(t, e.Type, fields["type"].GetStringValue())
		assert.Equal(t, float64(i+1), fields["seq"].GetNumberValue())
		assert.Equal(t, tape.BattleID, fields["battleId"].GetStringValue())
	}

	last, err := Decode(tape.Events[len(tape.Events)-1].EnvelopeB64)
	require.NoError(t, err)
	assert.Equal(t, tape.Reason, last.GetFields()["reason"].GetStringValue())
	assert.Len(t, last.GetFields()["fighters"].GetListValue().GetValues(), 2)

	_, err = Decode("not base64!")
	assert.Error(t, err)
}

func TestGenerateTape_ReturnsReplayErrorOnUnknownFighter(t *testing.T) {
	spec := baseSpec()
	spec.FighterB = "nobody"
	_, err := GenerateTape(context.Background(), simulator(t), spec)
	require.Error(t, err)
	var replayErr *ReplayError
	require.True(t, errors.As(err, &replayErr))
	assert.Equal(t, "simulate_failed", replayErr.Reason)

	_, err = GenerateTape(context.Background(), simulator(t), Spec{FighterA: "tide"})
	require.True(t, errors.As(err, &replayErr))
	assert.Equal(t, "invalid_spec", replayErr.Reason)
}

func TestToWireTapeNil(t *testing.T) {
	assert.Nil(t, ToWireTape(nil))
	_, err := BuildTape(nil)
	assert.Error(t, err)
}
