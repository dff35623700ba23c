//go:build !js

package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"duel-lite/battle"
	"duel-lite/duel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ battle.Source = (*SQLStore)(nil)

func TestSQLiteStoreRoundTripsDefaults(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "content.db"))
	require.NoError(t, err)
	defer store.Close()

	reg, err := Defaults()
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.Import(ctx, reg.Document()))
	// Importing twice replaces rather than duplicates.
	require.NoError(t, store.Import(ctx, reg.Document()))

	want, _ := reg.Character(ctx, "tide")
	got, err := store.Character(ctx, "tide")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = store.Character(ctx, "nobody")
	assert.ErrorIs(t, err, duel.ErrUnknownCharacter)
	_, err = store.Location(ctx, "nowhere")
	assert.ErrorIs(t, err, duel.ErrUnknownLocation)

	wantRules, _ := reg.RuleSet(ctx)
	gotRules, err := store.RuleSet(ctx)
	require.NoError(t, err)
	assert.Equal(t, wantRules.Global, gotRules.Global)
	assert.Equal(t, wantRules.ByLocation["desert"], gotRules.ByLocation["desert"])

	tables, err := store.Tables(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"sun_lance", "mountain_fall"}, tables.Punishable)

	many, err := store.Characters(ctx, []string{"gale", "ember", "ghost"})
	require.NoError(t, err)
	require.Len(t, many, 2)
	assert.Equal(t, "ember", many[0].ID)

	water, err := store.CharacterIDsByElement(ctx, duel.ElementWater)
	require.NoError(t, err)
	assert.Equal(t, []string{"tide"}, water)
}

func TestOpenModes(t *testing.T) {
	ctx := context.Background()
	src, closeFn, err := Open(ctx, Options{Mode: "mem"}, nil)
	require.NoError(t, err)
	require.NoError(t, closeFn())
	_, err = src.Character(ctx, "ember")
	assert.NoError(t, err)

	src, closeFn, err = Open(ctx, Options{Mode: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "c.db"), Seed: true}, nil)
	require.NoError(t, err)
	defer closeFn()
	_, err = src.Location(ctx, "harbor")
	assert.NoError(t, err)

	_, _, err = Open(ctx, Options{Mode: "carrier-pigeon"}, nil)
	assert.Error(t, err)
	assert.Equal(t, ModePostgres, NormalizeMode(" PostgreSQL "))
}

func TestStoreConstructorsCheckInput(t *testing.T) {
	_, err := NewSQLiteStore("  ")
	assert.Error(t, err)
	_, err = NewPostgresStore("")
	assert.Error(t, err)

	nested := filepath.Join(t.TempDir(), "a", "b", "content.db")
	store, err := NewSQLiteStore(nested)
	require.NoError(t, err)
	defer store.Close()
	assert.Equal(t, 1, store.db.Stats().MaxOpenConnections)

	var mode string
	require.NoError(t, store.db.QueryRowContext(context.Background(), `PRAGMA journal_mode;`).Scan(&mode))
	assert.Equal(t, "wal", mode)
}
