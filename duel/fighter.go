package duel

// MentalState is the psychological track of a fighter.
type MentalState struct {
	Level  MentalLevel `json:"level"`
	Stress float64     `json:"stress"`
}

// MentalShift is raised when the mental level changes and consumed by the AI.
type MentalShift struct {
	From MentalLevel
	To   MentalLevel
}

// ActiveStatusEffect is a live buff/debuff on a fighter.
type ActiveStatusEffect struct {
	ID          string         `json:"id"`
	Type        EffectType     `json:"type"`
	Category    EffectCategory `json:"category"`
	Duration    int            `json:"duration"`
	Potency     float64        `json:"potency"`
	Source      string         `json:"source"`
	AppliedTurn int            `json:"appliedTurn"`
	Ticks       int            `json:"ticks"`
}

// MoveRecord is one entry of a fighter's move history.
type MoveRecord struct {
	Turn   int           `json:"turn"`
	Move   string        `json:"move"`
	Result Effectiveness `json:"result"`
}

// OpponentModel is the first-order sequence log of one opponent.
type OpponentModel struct {
	Transitions map[string]map[string]int
	LastMove    string
}

// AIMemory is per-opponent knowledge kept for the whole battle.
type AIMemory struct {
	Opponents map[string]*OpponentModel
	// SuccessCooldowns: move name -> remaining decisions to damp it.
	SuccessCooldowns map[string]int
}

// Observe records that opponentID used move, after its previous move.
func (m *AIMemory) Observe(opponentID, move string) {
	if m.Opponents == nil {
		m.Opponents = make(map[string]*OpponentModel)
	}
	om := m.Opponents[opponentID]
	if om == nil {
		om = &OpponentModel{Transitions: make(map[string]map[string]int)}
		m.Opponents[opponentID] = om
	}
	if om.LastMove != "" {
		row := om.Transitions[om.LastMove]
		if row == nil {
			row = make(map[string]int)
			om.Transitions[om.LastMove] = row
		}
		row[move]++
	}
	om.LastMove = move
}

// Prediction is the most likely next move of an opponent.
type Prediction struct {
	Move       string  `json:"move"`
	Confidence float64 `json:"confidence"`
	Samples    int     `json:"samples"`
}

// Predict returns the most frequent successor of the opponent's last move.
// Ties break by name so replays stay identical.
func (m *AIMemory) Predict(opponentID string) (Prediction, bool) {
	om := m.Opponents[opponentID]
	if om == nil || om.LastMove == "" {
		return Prediction{}, false
	}
	row := om.Transitions[om.LastMove]
	total := 0
	best, bestCount := "", 0
	for move, n := range row {
		total += n
		if n > bestCount || (n == bestCount && move < best) {
			best, bestCount = move, n
		}
	}
	if total == 0 {
		return Prediction{}, false
	}
	return Prediction{Move: best, Confidence: float64(bestCount) / float64(total), Samples: total}, true
}

// WeightedOption is one candidate in a decision trace.
type WeightedOption struct {
	Move        string  `json:"move"`
	Weight      float64 `json:"weight"`
	Probability float64 `json:"probability"`
}

// DecisionTrace records why a move was chosen.
type DecisionTrace struct {
	Turn        int              `json:"turn"`
	Phase       Phase            `json:"phase"`
	Source      string           `json:"source"` // rule | weighted | desperation
	Rule        string           `json:"rule,omitempty"`
	Move        string           `json:"move"`
	Mode        string           `json:"mode,omitempty"` // softmax | top_cluster
	Temperature float64          `json:"temperature,omitempty"`
	Options     []WeightedOption `json:"options,omitempty"`
	Prediction  *Prediction      `json:"prediction,omitempty"`
	RuleErrors  []string         `json:"ruleErrors,omitempty"`
}

// Fighter is the mutable per-battle runtime state built from a template.
type Fighter struct {
	ID       string
	Name     string
	Template *CharacterTemplate

	Health   float64
	Energy   float64
	Momentum float64

	Mental      MentalState
	MentalShift *MentalShift
	Escalation  EscalationTier
	Tactical    *TacticalState
	Effects     []ActiveStatusEffect

	Moves       []Move
	History     []MoveRecord
	Memory      AIMemory
	Personality PersonalityProfile
	Traits      []string
	Relation    *Relationship

	Traces []DecisionTrace

	DesperationUsed    bool
	DesperationPending bool

	WeakStreak      int
	StrongStreak    int
	DefensiveStreak int
	BurnStreak      int
	CrisisApplied   bool
}

const startingMomentum = 50

// NewFighter value-copies the template; nothing mutable is shared with it.
func NewFighter(t *CharacterTemplate) *Fighter {
	if t == nil {
		t = &CharacterTemplate{ID: "unknown", Name: "Unknown"}
	}
	health := t.Health
	if health <= 0 {
		health = StatMax
	}
	energy := t.Energy
	if energy <= 0 {
		energy = StatMax
	}
	moves := make([]Move, 0, len(t.Moves))
	for _, m := range t.Moves {
		moves = append(moves, m.Clone())
	}
	name := t.Name
	if name == "" {
		name = DisplayName(t.ID)
	}
	return &Fighter{
		ID:          t.ID,
		Name:        name,
		Template:    t,
		Health:      Clamp(health),
		Energy:      Clamp(energy),
		Momentum:    startingMomentum,
		Moves:       moves,
		Personality: t.Personality,
		Traits:      append([]string(nil), t.Traits...),
		Memory: AIMemory{
			Opponents:        make(map[string]*OpponentModel),
			SuccessCooldowns: make(map[string]int),
		},
	}
}

// BindOpponent attaches the relationship modifier against the opponent, if any.
func (f *Fighter) BindOpponent(opponentID string) {
	if f.Template == nil {
		return
	}
	if rel, ok := f.Template.Relationships[opponentID]; ok {
		r := rel
		if r.StressMultiplier <= 0 {
			r.StressMultiplier = 1
		}
		f.Relation = &r
	}
}

func (f *Fighter) Element() Element {
	if f == nil || f.Template == nil || f.Template.Element == "" {
		return ElementNone
	}
	return f.Template.Element
}

func (f *Fighter) Mobility() float64 {
	if f == nil || f.Template == nil {
		return 0.5
	}
	return Clamp01(f.Template.Mobility)
}

func (f *Fighter) Resilience() float64 {
	if f == nil || f.Template == nil {
		return 0
	}
	return Clamp01(f.Template.Resilience)
}

func (f *Fighter) IsKO() bool { return f.Health <= 0 }

// SetHealth etc. keep the [0,100] invariant on every write.
func (f *Fighter) SetHealth(v float64)   { f.Health = Clamp(v) }
func (f *Fighter) SetEnergy(v float64)   { f.Energy = Clamp(v) }
func (f *Fighter) SetMomentum(v float64) { f.Momentum = Clamp(v) }

func (f *Fighter) AddHealth(d float64)   { f.SetHealth(f.Health + d) }
func (f *Fighter) AddEnergy(d float64)   { f.SetEnergy(f.Energy + d) }
func (f *Fighter) AddMomentum(d float64) { f.SetMomentum(f.Momentum + d) }

// SetTactical replaces the single tactical slot.
func (f *Fighter) SetTactical(s *TacticalState) {
	if s == nil {
		f.Tactical = nil
		return
	}
	cp := *s
	f.Tactical = &cp
}

// ConsumeTactical clears the slot and returns what was there.
func (f *Fighter) ConsumeTactical() *TacticalState {
	s := f.Tactical
	f.Tactical = nil
	return s
}

// HasOpening reports a negative tactical state another fighter can exploit.
func (f *Fighter) HasOpening() bool {
	return f.Tactical != nil && !f.Tactical.IsPositive
}

func (f *Fighter) HasEffect(t EffectType) bool {
	for _, e := range f.Effects {
		if e.Type == t {
			return true
		}
	}
	return false
}

func (f *Fighter) LastMove() string {
	if len(f.History) == 0 {
		return ""
	}
	return f.History[len(f.History)-1].Move
}

// RepeatCount is how many times in a row the fighter's most recent moves were name.
func (f *Fighter) RepeatCount(name string) int {
	n := 0
	for i := len(f.History) - 1; i >= 0; i-- {
		if f.History[i].Move != name {
			break
		}
		n++
	}
	return n
}

// FindMove looks up one of the fighter's moves by name.
func (f *Fighter) FindMove(name string) (Move, bool) {
	for _, m := range f.Moves {
		if m.Name == name {
			return m, true
		}
	}
	if name == StruggleName {
		return Struggle(), true
	}
	return Move{}, false
}

// TickTactical decrements the tactical slot and drops it at zero.
func (f *Fighter) TickTactical() (expired *TacticalState) {
	if f.Tactical == nil {
		return nil
	}
	f.Tactical.Duration--
	if f.Tactical.Duration <= 0 {
		return f.ConsumeTactical()
	}
	return nil
}
