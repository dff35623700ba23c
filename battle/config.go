package battle

import "fmt"

type Config struct {
	// Turn limit
	MaxTurns int

	// Stalemate: from this turn on, both fighters on a defensive streak of at
	// least StalemateStreak segments with a health gap under StalemateHealthGap.
	StalemateMinTurn   int
	StalemateStreak    int
	StalemateHealthGap float64

	// Health gap that ends the battle for the leader
	DecisiveGap float64

	// Desperation move threshold (health <= floor)
	DesperationFloor float64

	// Below this energy a fighter spends its segment recovering
	EnergyStarved   float64
	RecoveryEnergy  float64
	StunnedRecovery float64

	// Miraculous survival chance for lethal curbstomp outcomes
	MiracleSurvival float64
}

// DefaultConfig holds the tuned defaults.
func DefaultConfig() Config {
	return Config{
		MaxTurns:           30,
		StalemateMinTurn:   10,
		StalemateStreak:    3,
		StalemateHealthGap: 10,
		DecisiveGap:        60,
		DesperationFloor:   15,
		EnergyStarved:      5,
		RecoveryEnergy:     12,
		StunnedRecovery:    5,
		MiracleSurvival:    0.05,
	}
}

// Validate reports the first out-of-range setting.
func (c Config) Validate() error {
	if c.MaxTurns <= 0 {
		return fmt.Errorf("MaxTurns must be > 0")
	}
	if c.StalemateMinTurn < 0 || c.StalemateStreak < 0 || c.StalemateHealthGap < 0 {
		return fmt.Errorf("stalemate settings must be >= 0")
	}
	if c.DecisiveGap <= 0 || c.DecisiveGap > 100 {
		return fmt.Errorf("DecisiveGap must be in (0,100]: %v", c.DecisiveGap)
	}
	if c.DesperationFloor < 0 || c.DesperationFloor > 100 {
		return fmt.Errorf("DesperationFloor must be in [0,100]: %v", c.DesperationFloor)
	}
	if c.EnergyStarved < 0 || c.RecoveryEnergy < 0 || c.StunnedRecovery < 0 {
		return fmt.Errorf("energy settings must be >= 0")
	}
	if c.MiracleSurvival < 0 || c.MiracleSurvival > 1 {
		return fmt.Errorf("MiracleSurvival must be in [0,1]: %v", c.MiracleSurvival)
	}
	return nil
}
