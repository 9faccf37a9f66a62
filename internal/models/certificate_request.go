package models

import (
	"time"

	"gorm.io/datatypes"
)

// Request statuses. A request starts pending and is decided exactly once.
const (
	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusRejected = "rejected"
)

// Request provenance.
const (
	RequestSourceManual    = "manual"
	RequestSourceAssistant = "assistant"
)

// CertificateRequest is a staged certificate awaiting an administrator
// decision. Rows are appended and transitioned, never deleted.
type CertificateRequest struct {
	ID               string         `gorm:"column:id;primaryKey" json:"id"`
	StudentAddress   string         `gorm:"column:student_address;not null;index" json:"studentAddress"`
	StudentName      string         `gorm:"column:student_name;not null" json:"studentName"`
	UniversityName   string         `gorm:"column:university_name;not null" json:"universityName"`
	YearOfGraduation int            `gorm:"column:year_of_graduation;not null" json:"yearOfGraduation"`
	Degree           string         `gorm:"column:degree;not null" json:"degree"`
	Major            string         `gorm:"column:major;not null" json:"major"`
	Skills           datatypes.JSON `gorm:"column:skills;type:jsonb" json:"skills"`
	DocumentURI      string         `gorm:"column:document_uri" json:"documentURI"`
	Status           string         `gorm:"column:status;type:varchar(20);not null;default:'pending';index" json:"status"`
	Source           string         `gorm:"column:source;type:varchar(20);not null;default:'manual'" json:"source"`
	CreatedAt        time.Time      `json:"createdAt"`
	ApprovedAt       *time.Time     `gorm:"column:approved_at" json:"approvedAt,omitempty"`
	RejectedAt       *time.Time     `gorm:"column:rejected_at" json:"rejectedAt,omitempty"`
}

func (CertificateRequest) TableName() string {
	return "CertificateRequests"
}
