//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"errors"
	"syscall/js"

	"duel-lite/battle"
	"duel-lite/catalog"
	"duel-lite/replay"
)

type simulateRequest struct {
	Spec replay.Spec `json:"spec"`
	// Tape asks for the envelope tape instead of the full result.
	Tape bool `json:"tape,omitempty"`
}

type simulateResponse struct {
	OK     bool                `json:"ok"`
	Result *battle.Result      `json:"result,omitempty"`
	Tape   *replay.WireTape    `json:"tape,omitempty"`
	Error  *replay.ReplayError `json:"error,omitempty"`
}

func main() {
	reg, err := catalog.Defaults()
	if err != nil {
		panic(err)
	}
	sim, err := battle.NewSimulator(reg, battle.DefaultConfig(), nil)
	if err != nil {
		panic(err)
	}

	js.Global().Set("__duelSimulate", js.FuncOf(func(this js.Value, args []js.Value) any {
		if len(args) < 1 {
			return mustJSON(simulateResponse{
				OK:    false,
				Error: &replay.ReplayError{Seq: -1, Reason: "invalid_request", Message: "missing request payload"},
			})
		}
		return mustJSON(handleSimulate(sim, args[0].String()))
	}))

	select {}
}

func handleSimulate(sim *battle.Simulator, raw string) simulateResponse {
	var req simulateRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		return simulateResponse{
			OK:    false,
			Error: &replay.ReplayError{Seq: -1, Reason: "invalid_json", Message: err.Error()},
		}
	}

	ctx := context.Background()
	if !req.Tape {
		res, err := sim.Simulate(ctx, battle.Request{
			FighterA:      req.Spec.FighterA,
			FighterB:      req.Spec.FighterB,
			Location:      req.Spec.Location,
			TimeOfDay:     req.Spec.TimeOfDay,
			EmotionalMode: req.Spec.EmotionalMode,
			Deterministic: req.Spec.Seed != 0,
			Seed:          req.Spec.Seed,
		})
		if err != nil {
			return simulateResponse{
				OK:    false,
				Error: &replay.ReplayError{Seq: -1, Reason: "simulate_failed", Message: err.Error()},
			}
		}
		return simulateResponse{OK: true, Result: res}
	}

	tape, err := replay.GenerateTape(ctx, sim, req.Spec)
	if err != nil {
		var replayErr *replay.ReplayError
		if errors.As(err, &replayErr) {
			return simulateResponse{OK: false, Error: replayErr}
		}
		return simulateResponse{
			OK:    false,
			Error: &replay.ReplayError{Seq: -1, Reason: "replay_generation_failed", Message: err.Error()},
		}
	}
	return simulateResponse{OK: true, Tape: replay.ToWireTape(tape)}
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		fallback := simulateResponse{
			OK:    false,
			Error: &replay.ReplayError{Seq: -1, Reason: "marshal_failed", Message: err.Error()},
		}
		b2, _ := json.Marshal(fallback)
		return string(b2)
	}
	return string(b)
}
