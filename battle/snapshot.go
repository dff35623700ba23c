package battle

import "duel-lite/duel"

type FighterSnapshot struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Health   float64 `json:"health"`
	Energy   float64 `json:"energy"`
	Momentum float64 `json:"momentum"`

	MentalLevel string  `json:"mentalLevel"`
	Stress      float64 `json:"stress"`
	Escalation  string  `json:"escalation"`

	Tactical    *duel.TacticalState       `json:"tactical,omitempty"`
	Effects     []duel.ActiveStatusEffect `json:"effects,omitempty"`
	Personality duel.PersonalityProfile   `json:"personality"`
	History     []duel.MoveRecord         `json:"history,omitempty"`
	Traces      []duel.DecisionTrace      `json:"traces,omitempty"`

	Marked          bool `json:"marked,omitempty"`
	DesperationUsed bool `json:"desperationUsed,omitempty"`
}

func snapshot(f *duel.Fighter, state *duel.BattleState) FighterSnapshot {
	s := FighterSnapshot{
		ID:              f.ID,
		Name:            f.Name,
		Health:          f.Health,
		Energy:          f.Energy,
		Momentum:        f.Momentum,
		MentalLevel:     f.Mental.Level.String(),
		Stress:          f.Mental.Stress,
		Escalation:      f.Escalation.String(),
		Effects:         append([]duel.ActiveStatusEffect{}, f.Effects...),
		Personality:     f.Personality,
		History:         append([]duel.MoveRecord{}, f.History...),
		Traces:          append([]duel.DecisionTrace{}, f.Traces...),
		Marked:          state.IsMarked(f.ID),
		DesperationUsed: f.DesperationUsed,
	}
	if f.Tactical != nil {
		t := *f.Tactical
		s.Tactical = &t
	}
	return s
}
