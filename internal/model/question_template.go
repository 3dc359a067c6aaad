package model

import (
	"fmt"

	"gorm.io/gorm"
)

const ChoiceCount = 4

// QuestionTemplate 生成后不可变的题目模板
// swagger:model QuestionTemplate
type QuestionTemplate struct {
	UUIDBase
	CategoryID    string     `gorm:"index;type:varchar(36);not null" json:"categoryId"`
	SubcategoryID *string    `gorm:"index;type:varchar(36)" json:"subcategoryId,omitempty"`
	Difficulty    Difficulty `gorm:"size:20;default:'medium'" json:"difficulty"`
	Source        string     `gorm:"size:50;default:'ai'" json:"source"`
	QuestionText  string     `gorm:"type:text;not null" json:"questionText"`
	Choices       []string   `gorm:"serializer:json;type:json" json:"choices"`
	CorrectChoice int        `gorm:"not null" json:"correctChoice"`
	Explanation   string     `gorm:"type:text" json:"explanation"`
	References    []string   `gorm:"serializer:json;type:json" json:"references"`
}

func (QuestionTemplate) TableName() string {
	return "question_templates"
}

// Validate enforces the shape every stored template must have.
func (q *QuestionTemplate) Validate() error {
	if q.QuestionText == "" {
		return fmt.Errorf("question text is empty")
	}
	if len(q.Choices) != ChoiceCount {
		return fmt.Errorf("expected %d choices, got %d", ChoiceCount, len(q.Choices))
	}
	if q.CorrectChoice < 0 || q.CorrectChoice >= ChoiceCount {
		return fmt.Errorf("correct choice index %d out of range", q.CorrectChoice)
	}
	return nil
}

// BeforeSave rejects any template that violates the 4-choice invariant.
func (q *QuestionTemplate) BeforeSave(tx *gorm.DB) error {
	return q.Validate()
}
