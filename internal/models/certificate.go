package models

import (
	"time"

	"gorm.io/datatypes"
)

// Certificate is the authoritative record of an issued credential. Identity
// fields are written once at issuance and never updated; only the approval and
// revocation flags change afterwards.
type Certificate struct {
	ID               uint64         `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	StudentAddress   string         `gorm:"column:student_address;not null;index" json:"studentAddress"`
	StudentName      string         `gorm:"column:student_name;not null" json:"studentName"`
	UniversityName   string         `gorm:"column:university_name;not null" json:"universityName"`
	YearOfGraduation int            `gorm:"column:year_of_graduation;not null" json:"yearOfGraduation"`
	Degree           string         `gorm:"column:degree;not null" json:"degree"`
	Major            string         `gorm:"column:major;not null" json:"major"`
	Skills           datatypes.JSON `gorm:"column:skills;type:jsonb" json:"skills"`
	DocumentURI      string         `gorm:"column:document_uri" json:"documentURI"`
	IsApproved       bool           `gorm:"column:is_approved;not null;default:false" json:"isApproved"`
	IsRevoked        bool           `gorm:"column:is_revoked;not null;default:false" json:"isRevoked"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

func (Certificate) TableName() string {
	return "Certificates"
}
