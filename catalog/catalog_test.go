package catalog

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"duel-lite/battle"
	"duel-lite/duel"
	"duel-lite/duel/curbstomp"
	"duel-lite/duel/resolve"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ battle.Source = (*Registry)(nil)
	_ battle.Source = (*Cached)(nil)
)

func TestDefaultsLoad(t *testing.T) {
	reg, err := Defaults()
	require.NoError(t, err)

	assert.Equal(t, []string{"blade", "ember", "gale", "stone", "tide"}, reg.CharacterIDs())
	assert.Contains(t, reg.LocationIDs(), "desert")

	ember, err := reg.Character(context.Background(), "ember")
	require.NoError(t, err)
	assert.Equal(t, duel.ElementFire, ember.Element)
	assert.Equal(t, 8, ember.PowerTier)
	require.NotNil(t, ember.DesperationMove)
	assert.Equal(t, duel.EffectBurn, ember.Moves[0].Effect.Type)
	assert.Equal(t, 0.1, ember.Relationships["tide"].AggressionBias)

	blade, err := reg.Character(context.Background(), "blade")
	require.NoError(t, err)
	assert.False(t, blade.IsBender())

	quarry, err := reg.Location(context.Background(), "quarry")
	require.NoError(t, err)
	assert.Equal(t, 0.25, quarry.ElementModifier(duel.ElementWater))

	rs, err := reg.RuleSet(context.Background())
	require.NoError(t, err)
	require.Len(t, rs.ByLocation["desert"], 1)
	assert.Equal(t, curbstomp.OutcomeInstantLoss, rs.ByLocation["desert"][0].Outcome.Kind)

	tables, err := reg.Tables(context.Background())
	require.NoError(t, err)
	assert.Contains(t, tables.Punishable, "sun_lance")
	assert.Len(t, tables.Intercepts, 2)
}

func TestUnknownIDsWrapSentinels(t *testing.T) {
	reg, err := Defaults()
	require.NoError(t, err)
	_, err = reg.Character(context.Background(), "nobody")
	assert.ErrorIs(t, err, duel.ErrUnknownCharacter)
	_, err = reg.Location(context.Background(), "nowhere")
	assert.ErrorIs(t, err, duel.ErrUnknownLocation)
}

func TestLoadRejectsInvalidDocumentsWhole(t *testing.T) {
	reg := NewRegistry()
	err := reg.LoadFromJSON([]byte(`{
		"characters": [
			{"id": "ok", "moves": [{"name": "jab", "category": "offense", "power": 5, "cost": 1}]},
			{"id": "dup", "moves": [{"name": "jab"}, {"name": "jab"}]}
		]
	}`))
	require.Error(t, err)
	chars, _ := reg.Count()
	assert.Zero(t, chars)

	err = reg.LoadFromYAML([]byte("rules:\n  global:\n    - id: bad\n      applicability: { kind: everyone }\n      outcome: { kind: instant_win }\n"))
	assert.Error(t, err)

	err = reg.LoadFromJSON([]byte(`{"characters": [{"id": "x", "moves": [{"name": "m", "effect": {"type": "frostbite"}}]}]}`))
	assert.Error(t, err)
}

func TestLoadFromFilePicksFormatByExtension(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "extra.json")
	yamlPath := filepath.Join(dir, "extra.yml")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"locations": [{"id": "bridge", "name": "Rope Bridge", "fragility": 2}]}`), 0o644))
	require.NoError(t, os.WriteFile(yamlPath, []byte("locations:\n  - id: cave\n    name: Crystal Cave\n    fragility: 0.8\n"), 0o644))

	reg := NewRegistry()
	require.NoError(t, reg.LoadFromFile(jsonPath))
	require.NoError(t, reg.LoadFromFile(yamlPath))
	assert.Equal(t, []string{"bridge", "cave"}, reg.LocationIDs())

	assert.Error(t, reg.LoadFromFile(filepath.Join(dir, "missing.yaml")))
}

func TestRuleSetIsACopy(t *testing.T) {
	reg, err := Defaults()
	require.NoError(t, err)
	rs, err := reg.RuleSet(context.Background())
	require.NoError(t, err)
	rs.Global = nil
	delete(rs.ByLocation, "desert")

	again, err := reg.RuleSet(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, again.Global)
	assert.NotEmpty(t, again.ByLocation["desert"])
}

type countingSource struct {
	battle.Source
	calls atomic.Int32
}

func (c *countingSource) Character(ctx context.Context, id string) (*duel.CharacterTemplate, error) {
	c.calls.Add(1)
	return c.Source.Character(ctx, id)
}

func (c *countingSource) Tables(ctx context.Context) (resolve.Tables, error) {
	c.calls.Add(1)
	return c.Source.Tables(ctx)
}

func TestCachedLoadsEachKeyOnce(t *testing.T) {
	reg, err := Defaults()
	require.NoError(t, err)
	src := &countingSource{Source: reg}
	cached, err := NewCached(src, 8)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cached.Character(context.Background(), "stone")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	_, err = cached.Tables(context.Background())
	require.NoError(t, err)
	_, err = cached.Tables(context.Background())
	require.NoError(t, err)
	// Concurrent first misses may race the cache fill, but never more than
	// one load per flight.
	assert.LessOrEqual(t, src.calls.Load(), int32(3))

	_, err = cached.Character(context.Background(), "nobody")
	assert.ErrorIs(t, err, duel.ErrUnknownCharacter)

	cached.Purge()
	before := src.calls.Load()
	_, err = cached.Character(context.Background(), "stone")
	require.NoError(t, err)
	assert.Equal(t, before+1, src.calls.Load())
}

func TestDefaultsDesertBattle(t *testing.T) {
	reg, err := Defaults()
	require.NoError(t, err)
	sim, err := battle.NewSimulator(reg, battle.DefaultConfig(), nil)
	require.NoError(t, err)

	wins := 0
	for seed := int64(0); seed < 20; seed++ {
		res, err := sim.Simulate(context.Background(), battle.Request{
			FighterA: "ember", FighterB: "blade", Location: "desert", TimeOfDay: "day",
			Deterministic: true, Seed: seed,
		})
		require.NoError(t, err)
		require.Empty(t, res.Error)
		if res.WinnerID == "ember" && res.Turns == 0 {
			wins++
		}
	}
	// Only the default 5% miraculous survival can keep blade in the fight.
	assert.GreaterOrEqual(t, wins, 14)
}
