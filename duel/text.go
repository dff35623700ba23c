package duel

import (
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DisplayName turns content ids such as "fire_whip" into "Fire Whip".
func DisplayName(raw string) string {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, "_", " "))
	if raw == "" {
		return ""
	}
	// Casers keep state; one per call keeps concurrent battles apart.
	return cases.Title(language.English).String(raw)
}

// TurnLabel renders "3rd turn".
func TurnLabel(turn int) string {
	return humanize.Ordinal(turn) + " turn"
}
