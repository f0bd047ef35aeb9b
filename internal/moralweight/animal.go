package moralweight

import (
	"strings"

	"ccm/internal/apperr"
)

type Animal string

const (
	Human   Animal = "human"
	Chicken Animal = "chicken"
	Shrimp  Animal = "shrimp"
	Carp    Animal = "carp"
	BSF     Animal = "bsf"
)

// Animals lists every species the model knows about.
func Animals() []Animal {
	return []Animal{Human, Chicken, Shrimp, Carp, BSF}
}

// Intervenable lists the species that animal-welfare interventions can target.
func Intervenable() []Animal {
	return []Animal{Chicken, Shrimp, Carp, BSF}
}

func (a Animal) IsIntervenable() bool {
	for _, x := range Intervenable() {
		if a == x {
			return true
		}
	}
	return false
}

func ParseAnimal(name string) (Animal, error) {
	a := Animal(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Animals() {
		if a == known {
			return a, nil
		}
	}
	return "", apperr.NotFound("animal " + name)
}

// HoursPerYear counts a Julian year.
const HoursPerYear = 24 * 365.25
