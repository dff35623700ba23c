package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"duel-lite/duel"
	"duel-lite/duel/curbstomp"
	"duel-lite/duel/resolve"

	"gopkg.in/yaml.v3"
)

// Document is the on-disk shape of a content file. Every section is optional
// so content can be split across files.
type Document struct {
	Characters []*duel.CharacterTemplate `json:"characters,omitempty" yaml:"characters,omitempty"`
	Locations  []*duel.Location          `json:"locations,omitempty" yaml:"locations,omitempty"`
	Rules      curbstomp.RuleSet         `json:"rules,omitempty" yaml:"rules,omitempty"`
	Tables     resolve.Tables            `json:"tables,omitempty" yaml:"tables,omitempty"`
}

// Registry holds battle content in memory.
type Registry struct {
	mu         sync.RWMutex
	characters map[string]*duel.CharacterTemplate
	locations  map[string]*duel.Location
	rules      curbstomp.RuleSet
	tables     resolve.Tables
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		characters: make(map[string]*duel.CharacterTemplate),
		locations:  make(map[string]*duel.Location),
	}
}

// LoadFromFile loads a content file; .yaml/.yml are read as YAML, anything
// else as JSON.
func (r *Registry) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read content file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return r.LoadFromYAML(data)
	default:
		return r.LoadFromJSON(data)
	}
}

// LoadFromJSON loads content from raw JSON bytes.
func (r *Registry) LoadFromJSON(data []byte) error {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse content JSON: %w", err)
	}
	return r.Load(doc)
}

// LoadFromYAML loads content from raw YAML bytes.
func (r *Registry) LoadFromYAML(data []byte) error {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse content YAML: %w", err)
	}
	return r.Load(doc)
}

// Load validates a document and merges it in. Nothing is merged when any
// entry is invalid. Later entries replace earlier ones with the same id.
func (r *Registry) Load(doc Document) error {
	for _, c := range doc.Characters {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	for _, l := range doc.Locations {
		if l == nil || l.ID == "" {
			return duel.InvalidContentError("location without id")
		}
	}
	for _, list := range allRules(doc.Rules) {
		for _, rule := range list {
			if err := rule.Validate(); err != nil {
				return err
			}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range doc.Characters {
		r.characters[c.ID] = c
	}
	for _, l := range doc.Locations {
		r.locations[l.ID] = l
	}
	r.rules.Merge(doc.Rules)
	r.tables.Punishable = append(r.tables.Punishable, doc.Tables.Punishable...)
	r.tables.Intercepts = append(r.tables.Intercepts, doc.Tables.Intercepts...)
	return nil
}

func allRules(rs curbstomp.RuleSet) [][]curbstomp.Rule {
	out := [][]curbstomp.Rule{rs.Global}
	for _, k := range duel.SortedKeys(rs.ByCharacter) {
		out = append(out, rs.ByCharacter[k])
	}
	for _, k := range duel.SortedKeys(rs.ByLocation) {
		out = append(out, rs.ByLocation[k])
	}
	return out
}

func (r *Registry) Character(_ context.Context, id string) (*duel.CharacterTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.characters[id]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: %s", duel.ErrUnknownCharacter, id)
}

func (r *Registry) Location(_ context.Context, id string) (*duel.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if l, ok := r.locations[id]; ok {
		return l, nil
	}
	return nil, fmt.Errorf("%w: %s", duel.ErrUnknownLocation, id)
}

// RuleSet returns a copy; callers may not change the registry through it.
func (r *Registry) RuleSet(context.Context) (*curbstomp.RuleSet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := &curbstomp.RuleSet{}
	out.Merge(r.rules)
	return out, nil
}

func (r *Registry) Tables(context.Context) (resolve.Tables, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return resolve.Tables{
		Punishable: append([]string(nil), r.tables.Punishable...),
		Intercepts: append([]resolve.Intercept(nil), r.tables.Intercepts...),
	}, nil
}

// CharacterIDs returns every character id in sorted order.
func (r *Registry) CharacterIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return duel.SortedKeys(r.characters)
}

// LocationIDs returns every location id in sorted order.
func (r *Registry) LocationIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return duel.SortedKeys(r.locations)
}

// ByElement returns the characters wielding e, sorted by id.
func (r *Registry) ByElement(e duel.Element) []*duel.CharacterTemplate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*duel.CharacterTemplate
	for _, c := range r.characters {
		if c.Element == e {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Document exports the whole registry, ids sorted.
func (r *Registry) Document() Document {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc := Document{}
	for _, id := range duel.SortedKeys(r.characters) {
		doc.Characters = append(doc.Characters, r.characters[id])
	}
	for _, id := range duel.SortedKeys(r.locations) {
		doc.Locations = append(doc.Locations, r.locations[id])
	}
	doc.Rules.Merge(r.rules)
	doc.Tables = resolve.Tables{
		Punishable: append([]string(nil), r.tables.Punishable...),
		Intercepts: append([]resolve.Intercept(nil), r.tables.Intercepts...),
	}
	return doc
}

// Count returns the number of characters and locations.
func (r *Registry) Count() (characters, locations int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.characters), len(r.locations)
}
