package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDifficultySteps(t *testing.T) {
	tests := []struct {
		d          Difficulty
		next, prev Difficulty
		weight     int
	}{
		{DifficultyEasy, DifficultyMedium, DifficultyEasy, 1},
		{DifficultyMedium, DifficultyHard, DifficultyEasy, 2},
		{DifficultyHard, DifficultyHard, DifficultyMedium, 3},
		{Difficulty(""), DifficultyEasy, DifficultyEasy, 1},
		{Difficulty("expert"), DifficultyEasy, DifficultyEasy, 1},
	}
	for _, tt := range tests {
		t.Run(string(tt.d), func(t *testing.T) {
			assert.Equal(t, tt.next, tt.d.Next())
			assert.Equal(t, tt.prev, tt.d.Prev())
			assert.Equal(t, tt.weight, tt.d.Weight())
		})
	}
}

func TestParseDifficulty(t *testing.T) {
	d, err := ParseDifficulty("  HARD ")
	assert.NoError(t, err)
	assert.Equal(t, DifficultyHard, d)

	_, err = ParseDifficulty("impossible")
	assert.Error(t, err)

	assert.Equal(t, []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}, AllDifficulties())
}

func TestQuestionTemplateValidate(t *testing.T) {
	ok := QuestionTemplate{QuestionText: "q", Choices: []string{"a", "b", "c", "d"}, CorrectChoice: 3}
	assert.NoError(t, ok.Validate())

	bad := []QuestionTemplate{
		{QuestionText: "", Choices: []string{"a", "b", "c", "d"}},
		{QuestionText: "q", Choices: []string{"a", "b", "c"}},
		{QuestionText: "q", Choices: []string{"a", "b", "c", "d"}, CorrectChoice: 4},
		{QuestionText: "q", Choices: []string{"a", "b", "c", "d"}, CorrectChoice: -1},
	}
	for _, q := range bad {
		assert.Error(t, q.Validate())
	}
}
