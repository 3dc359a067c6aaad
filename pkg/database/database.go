package database

import (
	"fmt"
	"log"
	"strings"

	"quiz_platform_backend/internal/config"
	"quiz_platform_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.Config) (*gorm.DB, error) {
	dbCfg := cfg.Database
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		dbCfg.User,
		dbCfg.Password,
		dbCfg.Host,
		dbCfg.Port,
		dbCfg.DBName,
		dbCfg.Charset,
		dbCfg.ParseTime,
	)

	logLevel := logger.Warn
	if cfg.Server.Mode == "debug" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	// release 模式下仅在显式要求时迁移
	if cfg.Server.Mode != "release" || cfg.ForceMigrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
		log.Println("Database migration completed")
	}

	return db, nil
}

// Migrate creates the schema and seeds the default category catalog.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.CategoryGroup{},
		&model.Category{},
		&model.Subcategory{},
		&model.QuestionTemplate{},
		&model.Quiz{},
		&model.QuizAttempt{},
		&model.QuestionAttempt{},
	)
	if err != nil {
		return err
	}
	return SeedCategories(db)
}

var defaultCategoryGroups = []struct {
	Name       string
	Categories []string
}{
	{"General & Knowledge", []string{"General Knowledge", "Current Affairs", "English Grammar", "Verbal Ability"}},
	{"Aptitude & Reasoning", []string{"Quantitative Aptitude", "Logical Reasoning", "Data Interpretation"}},
	{"Science & Academic Subjects", []string{"Physics", "Chemistry", "Biology", "Mathematics", "History", "Geography"}},
	{"Technology & Programming", []string{"Computer Science", "Python", "Java", "C Programming", "Data Structures & Algorithms", "Web Development"}},
	{"Business & Corporate Skills", []string{"Business Management", "Soft Skills", "Communication Skills", "Project Management"}},
	{"Sports & Entertainment", []string{"Sports", "Movies & TV", "Music", "Pop Culture"}},
}

// SeedCategories is idempotent: existing groups and categories are matched
// by name/slug and only their order and group are corrected.
func SeedCategories(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for gi, g := range defaultCategoryGroups {
			group := model.CategoryGroup{Name: g.Name, Order: gi + 1}
			if err := tx.Where("name = ?", g.Name).
				Attrs(model.CategoryGroup{Order: gi + 1}).
				FirstOrCreate(&group).Error; err != nil {
				return err
			}
			if group.Order != gi+1 {
				if err := tx.Model(&group).Update("sort_order", gi+1).Error; err != nil {
					return err
				}
			}

			for ci, name := range g.Categories {
				slug := Slugify(name)
				cat := model.Category{GroupID: group.ID, Name: name, Slug: slug, Order: ci + 1}
				if err := tx.Where("slug = ?", slug).
					Attrs(model.Category{GroupID: group.ID, Name: name, Order: ci + 1}).
					FirstOrCreate(&cat).Error; err != nil {
					return err
				}
				if cat.GroupID != group.ID || cat.Order != ci+1 || cat.Name != name {
					if err := tx.Model(&cat).Updates(map[string]interface{}{
						"group_id":   group.ID,
						"sort_order": ci + 1,
						"name":       name,
					}).Error; err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
}

// Slugify lower-cases s and joins its alphanumeric runs with '-'.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
