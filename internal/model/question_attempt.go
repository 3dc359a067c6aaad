package model

// Unanswered marks a QuestionAttempt with no selection yet.
const Unanswered = -1

// QuestionAttempt 单题作答记录，每个 (QuizAttempt, QuestionTemplate) 唯一
type QuestionAttempt struct {
	UUIDBase
	QuizAttemptID      string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_attempt_question" json:"quizAttemptId"`
	QuestionTemplateID string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_attempt_question" json:"questionId"`
	Position           int        `gorm:"not null;default:0" json:"position"`
	SelectedChoice     int        `gorm:"not null;default:-1" json:"selectedChoice"`
	IsCorrect          bool       `gorm:"default:false" json:"isCorrect"`
	Difficulty         Difficulty `gorm:"size:20;default:'easy'" json:"difficulty"`

	QuestionTemplate *QuestionTemplate `gorm:"foreignKey:QuestionTemplateID" json:"question,omitempty"`
}

func (QuestionAttempt) TableName() string {
	return "question_attempts"
}

func (qa *QuestionAttempt) Answered() bool {
	return qa.SelectedChoice != Unanswered
}
