package model

// CategoryGroup 分类分组
type CategoryGroup struct {
	UUIDBase
	Name       string     `gorm:"size:120;uniqueIndex;not null" json:"name"`
	Order      int        `gorm:"column:sort_order;default:0" json:"order"`
	Categories []Category `gorm:"foreignKey:GroupID" json:"categories,omitempty"`
}

func (CategoryGroup) TableName() string {
	return "category_groups"
}

// swagger:model Category
type Category struct {
	UUIDBase
	GroupID string `gorm:"index;type:varchar(36)" json:"groupId"`
	Name    string `gorm:"size:150;uniqueIndex;not null" json:"name"`
	Slug    string `gorm:"size:160;uniqueIndex;not null" json:"slug"`
	Order   int    `gorm:"column:sort_order;default:0" json:"order"`
}

func (Category) TableName() string {
	return "categories"
}

type Subcategory struct {
	UUIDBase
	CategoryID string `gorm:"index;type:varchar(36);not null" json:"categoryId"`
	Name       string `gorm:"size:255;not null" json:"name"`
	Slug       string `gorm:"size:255;uniqueIndex;not null" json:"slug"`
}

func (Subcategory) TableName() string {
	return "subcategories"
}
