package model

// Quiz 一次生成得到的固定题目集合
// swagger:model Quiz
type Quiz struct {
	UUIDBase
	Title             string     `gorm:"size:255;not null" json:"title"`
	CategoryID        string     `gorm:"index;type:varchar(36);not null" json:"categoryId"`
	SubcategoryID     *string    `gorm:"index;type:varchar(36)" json:"subcategoryId,omitempty"`
	Difficulty        Difficulty `gorm:"size:20;default:'medium'" json:"difficulty"`
	QuestionTemplates []string   `gorm:"serializer:json;type:json" json:"questionTemplates"`
	TimeLimit         int        `gorm:"default:300" json:"timeLimit"` // 秒
}

func (Quiz) TableName() string {
	return "quizzes"
}
