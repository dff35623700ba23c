package duel

// Phase battle phase
type Phase byte

const (
	PhaseEarly Phase = 0
	PhaseMid   Phase = 1
	PhaseLate  Phase = 2
)

var PhaseDictionary = map[Phase]string{
	PhaseEarly: "early",
	PhaseMid:   "mid",
	PhaseLate:  "late",
}

func (p Phase) String() string {
	if name, ok := PhaseDictionary[p]; ok {
		return name
	}
	return "unknown"
}

// Effectiveness classifies a resolved move.
type Effectiveness byte

const (
	EffectivenessNone     Effectiveness = 0
	EffectivenessWeak     Effectiveness = 1
	EffectivenessNormal   Effectiveness = 2
	EffectivenessStrong   Effectiveness = 3
	EffectivenessCritical Effectiveness = 4
)

var EffectivenessDictionary = map[Effectiveness]string{
	EffectivenessNone:     "none",
	EffectivenessWeak:     "weak",
	EffectivenessNormal:   "normal",
	EffectivenessStrong:   "strong",
	EffectivenessCritical: "critical",
}

func (e Effectiveness) String() string {
	if name, ok := EffectivenessDictionary[e]; ok {
		return name
	}
	return "unknown"
}

// MentalLevel 心理状态：只升不降
type MentalLevel byte

const (
	MentalStable   MentalLevel = 0
	MentalStressed MentalLevel = 1
	MentalShaken   MentalLevel = 2
	MentalBroken   MentalLevel = 3
)

var MentalLevelDictionary = map[MentalLevel]string{
	MentalStable:   "stable",
	MentalStressed: "stressed",
	MentalShaken:   "shaken",
	MentalBroken:   "broken",
}

func (m MentalLevel) String() string {
	if name, ok := MentalLevelDictionary[m]; ok {
		return name
	}
	return "unknown"
}

// ParseMentalLevel maps a name back to its level.
func ParseMentalLevel(name string) (MentalLevel, bool) {
	for lvl, n := range MentalLevelDictionary {
		if n == name {
			return lvl, true
		}
	}
	return MentalStable, false
}

// EscalationTier physical condition tier
type EscalationTier byte

const (
	EscalationFresh     EscalationTier = 0
	EscalationWinded    EscalationTier = 1
	EscalationInjured   EscalationTier = 2
	EscalationExhausted EscalationTier = 3
	EscalationDesperate EscalationTier = 4
)

var EscalationTierDictionary = map[EscalationTier]string{
	EscalationFresh:     "fresh",
	EscalationWinded:    "winded",
	EscalationInjured:   "injured",
	EscalationExhausted: "exhausted",
	EscalationDesperate: "desperate",
}

func (t EscalationTier) String() string {
	if name, ok := EscalationTierDictionary[t]; ok {
		return name
	}
	return "unknown"
}

// ParseEscalationTier maps a name back to its tier.
func ParseEscalationTier(name string) (EscalationTier, bool) {
	for tier, n := range EscalationTierDictionary {
		if n == name {
			return tier, true
		}
	}
	return EscalationFresh, false
}

// EffectType 状态效果类型（封闭枚举）
type EffectType byte

const (
	EffectBurn         EffectType = 1
	EffectStun         EffectType = 2
	EffectDefenseUp    EffectType = 3
	EffectDefenseDown  EffectType = 4
	EffectAttackUp     EffectType = 5
	EffectAttackDown   EffectType = 6
	EffectHealOverTime EffectType = 7
	EffectSlow         EffectType = 8
	EffectCritUp       EffectType = 9
)

// AllEffectTypes lists every effect type in declaration order.
var AllEffectTypes = []EffectType{
	EffectBurn, EffectStun, EffectDefenseUp, EffectDefenseDown, EffectAttackUp,
	EffectAttackDown, EffectHealOverTime, EffectSlow, EffectCritUp,
}

var EffectTypeDictionary = map[EffectType]string{
	EffectBurn:         "burn",
	EffectStun:         "stun",
	EffectDefenseUp:    "defense_up",
	EffectDefenseDown:  "defense_down",
	EffectAttackUp:     "attack_up",
	EffectAttackDown:   "attack_down",
	EffectHealOverTime: "heal_over_time",
	EffectSlow:         "slow",
	EffectCritUp:       "crit_up",
}

func (t EffectType) String() string {
	if name, ok := EffectTypeDictionary[t]; ok {
		return name
	}
	return "unknown"
}

// ParseEffectType maps a name back to its type.
func ParseEffectType(name string) (EffectType, bool) {
	for _, t := range AllEffectTypes {
		if EffectTypeDictionary[t] == name {
			return t, true
		}
	}
	return 0, false
}

// MarshalText lets effect types travel as names in JSON/YAML content.
func (t EffectType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *EffectType) UnmarshalText(b []byte) error {
	v, ok := ParseEffectType(string(b))
	if !ok {
		return InvalidContentError("unknown effect type " + string(b))
	}
	*t = v
	return nil
}

// EffectCategory buff or debuff
type EffectCategory string

const (
	CategoryBuff   EffectCategory = "buff"
	CategoryDebuff EffectCategory = "debuff"
)

// EffectCategoryOf is the fixed buff/debuff classification of each type.
func EffectCategoryOf(t EffectType) EffectCategory {
	switch t {
	case EffectDefenseUp, EffectAttackUp, EffectHealOverTime, EffectCritUp:
		return CategoryBuff
	default:
		return CategoryDebuff
	}
}

// Element of a move or a character.
type Element string

const (
	ElementNone  Element = "none"
	ElementFire  Element = "fire"
	ElementWater Element = "water"
	ElementEarth Element = "earth"
	ElementAir   Element = "air"
)

// MoveCategory 招式类别
type MoveCategory string

const (
	CategoryOffense  MoveCategory = "offense"
	CategoryDefense  MoveCategory = "defense"
	CategoryUtility  MoveCategory = "utility"
	CategoryFinisher MoveCategory = "finisher"
)

// TimeOfDay of the battle.
type TimeOfDay string

const (
	TimeDawn  TimeOfDay = "dawn"
	TimeDay   TimeOfDay = "day"
	TimeDusk  TimeOfDay = "dusk"
	TimeNight TimeOfDay = "night"
)

// ParseTimeOfDay normalizes a caller supplied value; unknown values fall back to day.
func ParseTimeOfDay(raw string) TimeOfDay {
	switch TimeOfDay(raw) {
	case TimeDawn, TimeDay, TimeDusk, TimeNight:
		return TimeOfDay(raw)
	default:
		return TimeDay
	}
}

// Move tags the engine understands.
const (
	TagRequiresOpening = "requires_opening"
	TagPunishable      = "punishable"
	TagReposition      = "reposition"
	TagLightning       = "lightning"
	TagSignature       = "signature"
)

const (
	StatMin = 0.0
	StatMax = 100.0
)
