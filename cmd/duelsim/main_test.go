package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"duel-lite/battle"
	"duel-lite/replay"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quiet = []string{"DUEL_LOG_LEVEL=error"}

func TestRunPrintsResult(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), []string{"-a", "tide", "-b", "stone", "-location", "harbor", "-seed", "9"}, quiet, &out)
	require.NoError(t, err)

	var res battle.Result
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, int64(9), res.Seed)
	assert.NotEmpty(t, res.Reason)
	assert.Len(t, res.Fighters, 2)

	var again bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-a", "tide", "-b", "stone", "-location", "harbor", "-seed", "9"}, quiet, &again))
	assert.Equal(t, out.String(), again.String())
}

func TestRunPrintsTape(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), []string{"-a", "gale", "-b", "blade", "-seed", "3", "-tape"}, quiet, &out)
	require.NoError(t, err)

	var tape replay.WireTape
	require.NoError(t, json.Unmarshal(out.Bytes(), &tape))
	assert.Equal(t, replay.TapeVersion, tape.TapeVersion)
	require.NotEmpty(t, tape.Events)
	assert.Equal(t, "result", tape.Events[len(tape.Events)-1].Type)
}

func TestRunList(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-list"}, quiet, &out))
	var r roster
	require.NoError(t, json.Unmarshal(out.Bytes(), &r))
	assert.Contains(t, r.Characters, "ember")
	assert.Contains(t, r.Locations, "temple")
	assert.Equal(t, []string{"ember"}, r.ByElement["fire"])
	assert.Equal(t, []string{"tide"}, r.ByElement["water"])
}

func TestRunRejectsBadInput(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, run(context.Background(), []string{"-a", "tide"}, quiet, &out))
	assert.Error(t, run(context.Background(), []string{"-a", "tide", "-b", "stone", "-tape"}, quiet, &out))
	assert.Error(t, run(context.Background(), []string{"-a", "tide", "-b", "nobody", "-seed", "1"}, quiet, &out))
	assert.Error(t, run(context.Background(), []string{"-a", "tide", "-b", "stone"}, []string{"DUEL_BATTLE_MAX_TURNS=0"}, &out))
	assert.Empty(t, out.String())
}
