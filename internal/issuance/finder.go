package issuance

import (
	"context"

	"soulcertify-backend/internal/models"

	"gorm.io/gorm"
)

// GormCertificateFinder matches a staged request against issued certificates
// by recipient address plus the identity fields set at issuance.
type GormCertificateFinder struct {
	DB *gorm.DB
}

func (f *GormCertificateFinder) FindMatching(ctx context.Context, req *models.CertificateRequest) (uint64, bool, error) {
	var cert models.Certificate
	err := f.DB.WithContext(ctx).
		Where("student_address = ? AND student_name = ? AND university_name = ? AND year_of_graduation = ? AND degree = ? AND major = ?",
			req.StudentAddress, req.StudentName, req.UniversityName, req.YearOfGraduation, req.Degree, req.Major).
		Order("id ASC").
		First(&cert).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, false, nil
		}
		return 0, false, err
	}
	return cert.ID, true, nil
}
