package models

type State struct {
	ID   int    `gorm:"primaryKey" json:"id"`
	Name string `gorm:"type:varchar(120);not null" json:"name"`
	Code string `gorm:"type:varchar(10)" json:"code"`
}

type District struct {
	ID      int    `gorm:"primaryKey" json:"id"`
	Name    string `gorm:"type:varchar(120);not null" json:"name"`
	StateID int    `gorm:"index;not null" json:"state_id"`
}

type Language struct {
	ID       int    `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"type:varchar(80);not null" json:"name"`
	IsActive bool   `gorm:"default:true" json:"is_active"`
}

type Specialization struct {
	ID                   int    `gorm:"primaryKey" json:"id"`
	Name                 string `gorm:"type:varchar(120);not null" json:"name"`
	Category             string `gorm:"type:varchar(120)" json:"category"`
	DisplayOrder         int    `gorm:"default:0" json:"display_order"`
	CategoryDisplayOrder int    `gorm:"default:0" json:"category_display_order"`
	IsActive             bool   `gorm:"default:true" json:"is_active"`
}
