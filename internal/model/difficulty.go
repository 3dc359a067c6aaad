package model

import (
	"fmt"
	"strings"
)

// Difficulty is ordered: easy < medium < hard.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

var difficultyScale = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// ParseDifficulty accepts any casing and surrounding whitespace.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	if d.Valid() {
		return d, nil
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}

func (d Difficulty) Valid() bool {
	return d.rank() >= 0
}

func (d Difficulty) rank() int {
	for i, v := range difficultyScale {
		if v == d {
			return i
		}
	}
	return -1
}

// Next returns the next harder level, clamped at hard.
func (d Difficulty) Next() Difficulty {
	r := d.rank()
	if r < 0 {
		return DifficultyEasy
	}
	if r+1 >= len(difficultyScale) {
		return difficultyScale[len(difficultyScale)-1]
	}
	return difficultyScale[r+1]
}

// Prev returns the next easier level, clamped at easy.
func (d Difficulty) Prev() Difficulty {
	r := d.rank()
	if r <= 0 {
		return DifficultyEasy
	}
	return difficultyScale[r-1]
}

// Weight is the scoring weight of a question served at this level.
// Unknown tags weigh the same as easy.
func (d Difficulty) Weight() int {
	switch d {
	case DifficultyMedium:
		return 2
	case DifficultyHard:
		return 3
	default:
		return 1
	}
}

func AllDifficulties() []Difficulty {
	return append([]Difficulty(nil), difficultyScale...)
}
