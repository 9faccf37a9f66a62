package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"soulcertify-backend/internal/models"
	"soulcertify-backend/internal/pkg/validation"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service is the authoritative certificate store. Every mutation takes the
// caller's wallet address and checks it against the role the operation
// requires: Issue and Revoke are owner-only, Approve is recipient-only.
type Service struct {
	DB    *gorm.DB
	Owner string
}

// IssueInput carries the identity fields of a new certificate. All fields
// except DocumentURI and Skills are required.
type IssueInput struct {
	StudentAddress   string   `json:"studentAddress"`
	StudentName      string   `json:"studentName"`
	UniversityName   string   `json:"universityName"`
	YearOfGraduation int      `json:"yearOfGraduation"`
	Degree           string   `json:"degree"`
	Major            string   `json:"major"`
	Skills           []string `json:"skills"`
	DocumentURI      string   `json:"documentURI"`
}

func (in *IssueInput) validate() error {
	missing := missingIssueFields(in)
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %v", ErrInvalidArgument, missing)
	}
	if !validation.IsValidAddress(in.StudentAddress) {
		return fmt.Errorf("%w: invalid studentAddress", ErrInvalidArgument)
	}
	if !validation.IsValidGraduationYear(in.YearOfGraduation) {
		return fmt.Errorf("%w: yearOfGraduation out of range", ErrInvalidArgument)
	}
	return nil
}

func missingIssueFields(in *IssueInput) []string {
	var missing []string
	if in.StudentAddress == "" {
		missing = append(missing, "studentAddress")
	}
	if in.StudentName == "" {
		missing = append(missing, "studentName")
	}
	if in.UniversityName == "" {
		missing = append(missing, "universityName")
	}
	if in.Degree == "" {
		missing = append(missing, "degree")
	}
	if in.Major == "" {
		missing = append(missing, "major")
	}
	return missing
}

// Issue creates a new certificate in the Unapproved state and returns its id.
func (s *Service) Issue(ctx context.Context, caller string, in IssueInput) (uint64, error) {
	if caller != s.Owner {
		return 0, ErrUnauthorized
	}
	if err := in.validate(); err != nil {
		return 0, err
	}

	skills := in.Skills
	if skills == nil {
		skills = []string{}
	}
	skillsJSON, err := json.Marshal(skills)
	if err != nil {
		return 0, err
	}

	cert := models.Certificate{
		StudentAddress:   in.StudentAddress,
		StudentName:      in.StudentName,
		UniversityName:   in.UniversityName,
		YearOfGraduation: in.YearOfGraduation,
		Degree:           in.Degree,
		Major:            in.Major,
		Skills:           datatypes.JSON(skillsJSON),
		DocumentURI:      in.DocumentURI,
	}
	if err := s.DB.WithContext(ctx).Create(&cert).Error; err != nil {
		return 0, err
	}
	return cert.ID, nil
}

// Approve marks the certificate accepted by its recipient. Only the
// certificate's student address may call it, exactly once, and never after a
// revoke. Runs in a transaction so concurrent approves resolve to one winner.
func (s *Service) Approve(ctx context.Context, caller string, id uint64) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cert models.Certificate
		if err := tx.First(&cert, "id = ?", id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrNotFound
			}
			return err
		}
		if caller != cert.StudentAddress {
			return ErrUnauthorized
		}
		if cert.IsRevoked {
			return ErrRevoked
		}
		if cert.IsApproved {
			return ErrAlreadyApproved
		}
		res := tx.Model(&models.Certificate{}).
			Where("id = ? AND is_approved = ? AND is_revoked = ?", id, false, false).
			Update("is_approved", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyApproved
		}
		return nil
	})
}

// Revoke permanently invalidates the certificate. Owner only, irreversible.
func (s *Service) Revoke(ctx context.Context, caller string, id uint64) error {
	if caller != s.Owner {
		return ErrUnauthorized
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cert models.Certificate
		if err := tx.First(&cert, "id = ?", id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrNotFound
			}
			return err
		}
		if cert.IsRevoked {
			return ErrAlreadyRevoked
		}
		res := tx.Model(&models.Certificate{}).
			Where("id = ? AND is_revoked = ?", id, false).
			Update("is_revoked", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyRevoked
		}
		return nil
	})
}

// Get returns one certificate by id.
func (s *Service) Get(ctx context.Context, id uint64) (*models.Certificate, error) {
	var cert models.Certificate
	if err := s.DB.WithContext(ctx).First(&cert, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &cert, nil
}

// ListByStudent returns the ids of all certificates held by an address, in
// issuance order.
func (s *Service) ListByStudent(ctx context.Context, address string) ([]uint64, error) {
	var ids []uint64
	err := s.DB.WithContext(ctx).Model(&models.Certificate{}).
		Where("student_address = ?", address).
		Order("id ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// OwnerAddress returns the configured ledger owner identity.
func (s *Service) OwnerAddress() string {
	return s.Owner
}
