package replay

type WireTape struct {
	TapeVersion int         `json:"tapeVersion"`
	BattleID    string      `json:"battleId"`
	Seed        int64       `json:"seed"`
	WinnerID    string      `json:"winnerId,omitempty"`
	IsDraw      bool        `json:"isDraw"`
	Reason      string      `json:"reason"`
	Events      []WireEvent `json:"events"`
}

type WireEvent struct {
	Type        string `json:"type"`
	Seq         uint64 `json:"seq"`
	EnvelopeB64 string `json:"envelopeB64"`
}

func ToWireTape(tape *Tape) *WireTape {
	if tape == nil {
		return nil
	}
	out := &WireTape{
		TapeVersion: tape.TapeVersion,
		BattleID:    tape.BattleID,
		Seed:        tape.Seed,
		WinnerID:    tape.WinnerID,
		IsDraw:      tape.IsDraw,
		Reason:      tape.Reason,
		Events:      make([]WireEvent, 0, len(tape.Events)),
	}
	for _, e := range tape.Events {
		out.Events = append(out.Events, WireEvent{
			Type:        e.Type,
			Seq:         e.Seq,
			EnvelopeB64: e.EnvelopeB64,
		})
	}
	return out
}
