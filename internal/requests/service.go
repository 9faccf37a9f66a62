package requests

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"soulcertify-backend/internal/models"
	"soulcertify-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service is the durable staging log of certificate requests. Submissions are
// single inserts and decisions are guarded single updates, so concurrent
// submitters never lose entries and concurrent deciders resolve to one winner.
type Service struct {
	DB *gorm.DB
}

// SubmitInput is the request payload staged for review.
type SubmitInput struct {
	StudentAddress   string   `json:"studentAddress"`
	StudentName      string   `json:"studentName"`
	UniversityName   string   `json:"universityName"`
	YearOfGraduation int      `json:"yearOfGraduation"`
	Degree           string   `json:"degree"`
	Major            string   `json:"major"`
	Skills           []string `json:"skills"`
	DocumentURI      string   `json:"documentURI"`
	Source           string   `json:"source"`
}

// MissingFields returns the names of required fields that are absent.
func (in *SubmitInput) MissingFields() []string {
	var missing []string
	if in.StudentName == "" {
		missing = append(missing, "studentName")
	}
	if in.UniversityName == "" {
		missing = append(missing, "universityName")
	}
	if in.YearOfGraduation == 0 {
		missing = append(missing, "yearOfGraduation")
	}
	if in.Degree == "" {
		missing = append(missing, "degree")
	}
	if in.Major == "" {
		missing = append(missing, "major")
	}
	if in.StudentAddress == "" {
		missing = append(missing, "studentAddress")
	}
	return missing
}

// NewRequestID builds a collision-resistant id from the submission time plus
// a random suffix.
func NewRequestID() string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("req_%d_%s", time.Now().UnixMilli(), suffix)
}

// Submit validates and appends a new pending request, returning its id. The
// row is written in one INSERT; a failed submission leaves no partial entry.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (string, error) {
	if missing := in.MissingFields(); len(missing) > 0 {
		return "", fmt.Errorf("%w: %s", ErrInvalidArgument, strings.Join(missing, ", "))
	}
	if !validation.IsValidAddress(in.StudentAddress) {
		return "", fmt.Errorf("%w: invalid studentAddress", ErrInvalidArgument)
	}
	if !validation.IsValidGraduationYear(in.YearOfGraduation) {
		return "", fmt.Errorf("%w: yearOfGraduation out of range", ErrInvalidArgument)
	}

	source := in.Source
	if source != models.RequestSourceAssistant {
		source = models.RequestSourceManual
	}
	skills := in.Skills
	if skills == nil {
		skills = []string{}
	}
	skillsJSON, err := json.Marshal(skills)
	if err != nil {
		return "", err
	}

	req := models.CertificateRequest{
		ID:               NewRequestID(),
		StudentAddress:   in.StudentAddress,
		StudentName:      in.StudentName,
		UniversityName:   in.UniversityName,
		YearOfGraduation: in.YearOfGraduation,
		Degree:           in.Degree,
		Major:            in.Major,
		Skills:           datatypes.JSON(skillsJSON),
		DocumentURI:      in.DocumentURI,
		Status:           models.RequestStatusPending,
		Source:           source,
	}
	if err := s.DB.WithContext(ctx).Create(&req).Error; err != nil {
		return "", err
	}
	return req.ID, nil
}

// List returns every request in insertion order. Callers wanting display
// order reverse it.
func (s *Service) List(ctx context.Context) ([]models.CertificateRequest, error) {
	var reqs []models.CertificateRequest
	if err := s.DB.WithContext(ctx).Order("created_at ASC, id ASC").Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}

// Get returns one request by id.
func (s *Service) Get(ctx context.Context, id string) (*models.CertificateRequest, error) {
	var req models.CertificateRequest
	if err := s.DB.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// MarkApproved transitions a pending request to approved and stamps the
// decision time. Re-marking a decided request fails with ErrInvalidState.
func (s *Service) MarkApproved(ctx context.Context, id string) error {
	return s.mark(ctx, id, models.RequestStatusApproved, "approved_at")
}

// MarkRejected transitions a pending request to rejected.
func (s *Service) MarkRejected(ctx context.Context, id string) error {
	return s.mark(ctx, id, models.RequestStatusRejected, "rejected_at")
}

func (s *Service) mark(ctx context.Context, id, status, stampColumn string) error {
	now := time.Now()
	res := s.DB.WithContext(ctx).Model(&models.CertificateRequest{}).
		Where("id = ? AND status = ?", id, models.RequestStatusPending).
		Updates(map[string]interface{}{"status": status, stampColumn: now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Either the id is unknown or another decider got there first.
		var count int64
		if err := s.DB.WithContext(ctx).Model(&models.CertificateRequest{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrInvalidState
	}
	return nil
}
