package replay

import (
	"context"
	"encoding/base64"
	"fmt"

	"duel-lite/battle"
	"duel-lite/duel"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const eventTypeResult = "result"

var marshalOptions = proto.MarshalOptions{Deterministic: true}

// GenerateTape simulates spec with its seed and tapes the result.
func GenerateTape(ctx context.Context, sim *battle.Simulator, spec Spec) (*Tape, error) {
	if sim == nil {
		return nil, &ReplayError{Seq: -1, Reason: "invalid_request", Message: "nil simulator"}
	}
	if spec.FighterA == "" || spec.FighterB == "" {
		return nil, &ReplayError{Seq: -1, Reason: "invalid_spec", Message: "both fighters are required"}
	}
	res, err := sim.Simulate(ctx, spec.request())
	if err != nil {
		return nil, &ReplayError{Seq: -1, Reason: "simulate_failed", Message: err.Error()}
	}
	return BuildTape(res)
}

// BuildTape packs a finished battle's log into envelopes, followed by one
// result envelope.
func BuildTape(res *battle.Result) (*Tape, error) {
	if res == nil {
		return nil, &ReplayError{Seq: -1, Reason: "invalid_request", Message: "nil result"}
	}
	b := newTapeBuilder(res.BattleID)
	for _, e := range res.Log {
		if err := b.addEvent(e); err != nil {
			return nil, err
		}
	}
	if err := b.addResult(res); err != nil {
		return nil, err
	}
	return &Tape{
		TapeVersion: TapeVersion,
		BattleID:    res.BattleID,
		Seed:        res.Seed,
		WinnerID:    res.WinnerID,
		IsDraw:      res.IsDraw,
		Reason:      res.Reason,
		Events:      b.events,
	}, nil
}

// Decode unpacks one envelope.
func Decode(envelopeB64 string) (*structpb.Struct, error) {
	bin, err := base64.StdEncoding.DecodeString(envelopeB64)
	if err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	out := &structpb.Struct{}
	if err := proto.Unmarshal(bin, out); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	return out, nil
}

type tapeBuilder struct {
	battleID string
	seq      uint64
	events   []Event
}

func newTapeBuilder(battleID string) *tapeBuilder {
	return &tapeBuilder{
		battleID: battleID,
		events:   make([]Event, 0, 128),
	}
}

func (b *tapeBuilder) addEvent(e duel.Event) error {
	fields := map[string]any{
		"turn":    e.Turn,
		"segment": e.Segment,
		"logSeq":  e.Seq,
	}
	if e.Actor != "" {
		fields["actor"] = e.Actor
	}
	if e.Target != "" {
		fields["target"] = e.Target
	}
	if e.Move != "" {
		fields["move"] = e.Move
	}
	if e.Text != "" {
		fields["text"] = e.Text
	}
	if len(e.Deltas) > 0 {
		deltas := make(map[string]any, len(e.Deltas))
		for k, v := range e.Deltas {
			deltas[k] = v
		}
		fields["deltas"] = deltas
	}
	return b.pushEnvelope(string(e.Type), fields)
}

func (b *tapeBuilder) addResult(res *battle.Result) error {
	fighters := make([]any, 0, len(res.Fighters))
	for _, f := range res.Fighters {
		fighters = append(fighters, map[string]any{
			"id":         f.ID,
			"name":       f.Name,
			"health":     f.Health,
			"energy":     f.Energy,
			"momentum":   f.Momentum,
			"mental":     f.MentalLevel,
			"stress":     f.Stress,
			"escalation": f.Escalation,
			"marked":     f.Marked,
		})
	}
	fields := map[string]any{
		"isDraw":            res.IsDraw,
		"reason":            res.Reason,
		"turns":             res.Turns,
		"location":          res.Environment.LocationID,
		"timeOfDay":         res.Environment.TimeOfDay,
		"phase":             res.Environment.Phase,
		"environmentDamage": res.Environment.Damage,
		"fighters":          fighters,
	}
	if res.WinnerID != "" {
		fields["winner"] = res.WinnerID
		fields["loser"] = res.LoserID
	}
	if res.Detail != "" {
		fields["detail"] = res.Detail
	}
	if res.Error != "" {
		fields["error"] = res.Error
	}
	return b.pushEnvelope(eventTypeResult, fields)
}

func (b *tapeBuilder) pushEnvelope(eventType string, fields map[string]any) error {
	b.seq++
	fields["battleId"] = b.battleID
	fields["seq"] = b.seq
	fields["type"] = eventType
	env, err := structpb.NewStruct(fields)
	if err != nil {
		return &ReplayError{Seq: int64(b.seq), Reason: "encode_failed", Message: err.Error()}
	}
	bin, err := marshalOptions.Marshal(env)
	if err != nil {
		return &ReplayError{Seq: int64(b.seq), Reason: "marshal_failed", Message: err.Error()}
	}
	b.events = append(b.events, Event{
		Type:        eventType,
		Seq:         b.seq,
		Value:       env,
		EnvelopeB64: base64.StdEncoding.EncodeToString(bin),
	})
	return nil
}
