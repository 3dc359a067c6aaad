package repository

import (
	"time"

	"quiz_platform_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

// Touch upserts the token subject and refreshes last_seen.
func (r *UserRepository) Touch(userID, username string) error {
	now := time.Now()
	user := model.User{ID: userID, Username: username, CreatedAt: now, LastSeen: now}
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "last_seen"}),
	}).Create(&user).Error
}

func (r *UserRepository) FindByID(id string) (*model.User, error) {
	var u model.User
	if err := r.DB.Where("id = ?", id).First(&u).Error; err != nil {
		return nil, notFound(err, "user", id)
	}
	return &u, nil
}
