// Package risk models annual extinction risk over a sequence of eras and
// derives the averaged, cumulative and catastrophe risks used by the
// existential-risk estimators.
package risk

import (
	"strings"

	"ccm/internal/apperr"
)

// Type identifies a source of existential risk.
type Type string

const (
	Nukes        Type = "nukes"
	Bio          Type = "bio"
	Natural      Type = "natural"
	Unknown      Type = "unknown"
	Nano         Type = "nano"
	AI           Type = "ai"
	Misalignment Type = "ai misalignment"
	Misuse       Type = "ai misuse"
)

var enumNames = map[string]Type{
	"NUKES":        Nukes,
	"BIO":          Bio,
	"NATURAL":      Natural,
	"UNKNOWN":      Unknown,
	"NANO":         Nano,
	"TOTAL":        AI,
	"AI":           AI,
	"MISALIGNMENT": Misalignment,
	"MISUSE":       Misuse,
}

// Types lists every concrete risk type. The AI aggregate is not included.
func Types() []Type {
	return []Type{Nukes, Bio, Natural, Unknown, Nano, Misalignment, Misuse}
}

// GLTTypes lists the non-AI risk types.
func GLTTypes() []Type {
	return []Type{Nukes, Bio, Natural, Unknown, Nano}
}

func (t Type) IsAI() bool {
	return t == AI || t == Misalignment || t == Misuse
}

func (t Type) Valid() bool {
	if t == AI {
		return true
	}
	for _, known := range Types() {
		if t == known {
			return true
		}
	}
	return false
}

// ParseType accepts a type value ("ai misuse") or its enum name ("MISUSE").
func ParseType(s string) (Type, error) {
	trimmed := strings.TrimSpace(s)
	if t := Type(strings.ToLower(trimmed)); t.Valid() {
		return t, nil
	}
	if t, ok := enumNames[strings.ToUpper(trimmed)]; ok {
		return t, nil
	}
	return "", apperr.NotFound("risk type " + s)
}
