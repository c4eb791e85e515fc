package gormrepos

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type attendanceModel struct {
	StudentRef string         `gorm:"primaryKey;size:64"`
	Data       datatypes.JSON `gorm:"not null"`
	Version    int64          `gorm:"not null;default:1"`
	CreatedAt  time.Time      `gorm:"not null;autoCreateTime:false"`
	UpdatedAt  time.Time      `gorm:"not null;autoUpdateTime:false"`
	VerifiedAt *time.Time
}

func (attendanceModel) TableName() string { return "attendance_records" }

type studentModel struct {
	Ref        string `gorm:"primaryKey;size:64"`
	Name       string `gorm:"size:255;not null;default:''"`
	RollNumber string `gorm:"size:64;not null;default:''"`
	Course     string `gorm:"size:255;not null;default:''"`
	Email      string `gorm:"size:255;not null;default:''"`
}

func (studentModel) TableName() string { return "students" }

// AutoMigrate creates the tables on databases that are not managed by the goose migrations (sqlite).
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&studentModel{}, &attendanceModel{})
}
