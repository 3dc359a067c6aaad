package model

import "time"

// QuizAttempt 用户对某个测验的一次作答
// swagger:model QuizAttempt
type QuizAttempt struct {
	UUIDBase
	QuizID            string     `gorm:"index;type:varchar(36);not null" json:"quizId"`
	UserID            string     `gorm:"index;type:varchar(36);not null" json:"userId"`
	CurrentDifficulty Difficulty `gorm:"size:20;default:'easy'" json:"currentDifficulty"`
	Score             float64    `gorm:"default:0" json:"score"`
	Completed         bool       `gorm:"default:false;index" json:"completed"`
	StartedAt         time.Time  `json:"startedAt"`
	FinishedAt        *time.Time `json:"finishedAt,omitempty"`

	Quiz             *Quiz             `gorm:"foreignKey:QuizID" json:"quiz,omitempty"`
	QuestionAttempts []QuestionAttempt `gorm:"foreignKey:QuizAttemptID" json:"questionAttempts,omitempty"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

// AttemptState is derived from Completed; ACTIVE → COMPLETED happens once.
type AttemptState string

const (
	AttemptActive    AttemptState = "ACTIVE"
	AttemptCompleted AttemptState = "COMPLETED"
)

func (a *QuizAttempt) State() AttemptState {
	if a.Completed {
		return AttemptCompleted
	}
	return AttemptActive
}
