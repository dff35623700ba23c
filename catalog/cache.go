package catalog

import (
	"context"
	"fmt"

	"duel-lite/battle"
	"duel-lite/duel"
	"duel-lite/duel/curbstomp"
	"duel-lite/duel/resolve"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

const (
	rulesKey         = "rules"
	tablesCacheKey   = "tables"
	defaultCacheSize = 256
)

// Cached fronts a slower source (usually a SQLStore) with LRU caches.
// Concurrent misses for the same key share one load.
type Cached struct {
	src        battle.Source
	characters *lru.Cache[string, *duel.CharacterTemplate]
	locations  *lru.Cache[string, *duel.Location]
	shared     *lru.Cache[string, any]
	group      singleflight.Group
}

func NewCached(src battle.Source, size int) (*Cached, error) {
	if src == nil {
		return nil, fmt.Errorf("nil source")
	}
	if size <= 0 {
		size = defaultCacheSize
	}
	characters, err := lru.New[string, *duel.CharacterTemplate](size)
	if err != nil {
		return nil, err
	}
	locations, err := lru.New[string, *duel.Location](size)
	if err != nil {
		return nil, err
	}
	shared, err := lru.New[string, any](2)
	if err != nil {
		return nil, err
	}
	return &Cached{src: src, characters: characters, locations: locations, shared: shared}, nil
}

func (c *Cached) Character(ctx context.Context, id string) (*duel.CharacterTemplate, error) {
	if t, ok := c.characters.Get(id); ok {
		return t, nil
	}
	v, err, _ := c.group.Do("character/"+id, func() (any, error) {
		t, err := c.src.Character(ctx, id)
		if err != nil {
			return nil, err
		}
		c.characters.Add(id, t)
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*duel.CharacterTemplate), nil
}

func (c *Cached) Location(ctx context.Context, id string) (*duel.Location, error) {
	if l, ok := c.locations.Get(id); ok {
		return l, nil
	}
	v, err, _ := c.group.Do("location/"+id, func() (any, error) {
		l, err := c.src.Location(ctx, id)
		if err != nil {
			return nil, err
		}
		c.locations.Add(id, l)
		return l, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*duel.Location), nil
}

// RuleSet hands out a fresh copy of the cached set each call.
func (c *Cached) RuleSet(ctx context.Context) (*curbstomp.RuleSet, error) {
	v, err := c.load(ctx, rulesKey, func(ctx context.Context) (any, error) {
		return c.src.RuleSet(ctx)
	})
	if err != nil {
		return nil, err
	}
	out := &curbstomp.RuleSet{}
	if rs, ok := v.(*curbstomp.RuleSet); ok && rs != nil {
		out.Merge(*rs)
	}
	return out, nil
}

func (c *Cached) Tables(ctx context.Context) (resolve.Tables, error) {
	v, err := c.load(ctx, tablesCacheKey, func(ctx context.Context) (any, error) {
		return c.src.Tables(ctx)
	})
	if err != nil {
		return resolve.Tables{}, err
	}
	t := v.(resolve.Tables)
	return resolve.Tables{
		Punishable: append([]string(nil), t.Punishable...),
		Intercepts: append([]resolve.Intercept(nil), t.Intercepts...),
	}, nil
}

func (c *Cached) load(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	if v, ok := c.shared.Get(key); ok {
		return v, nil
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		v, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		c.shared.Add(key, v)
		return v, nil
	})
	return v, err
}

// Purge drops everything cached, e.g. after an import.
func (c *Cached) Purge() {
	c.characters.Purge()
	c.locations.Purge()
	c.shared.Purge()
}
