package issuance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"soulcertify-backend/internal/ledger"
	"soulcertify-backend/internal/models"
	"soulcertify-backend/internal/requests"

	"github.com/rs/zerolog/log"
)

// ErrDivergence marks the one partial-failure window in the system: the
// ledger issued a certificate but the queue row could not be marked approved.
// The certificate exists; Reconcile (or an operator) heals the queue side.
var ErrDivergence = errors.New("Ledger and request queue diverged")

// CertificateIssuer is the slice of the ledger the coordinator needs.
type CertificateIssuer interface {
	Issue(ctx context.Context, caller string, in ledger.IssueInput) (uint64, error)
}

// Service promotes pending certificate requests to issued certificates.
type Service struct {
	Queue  *requests.Service
	Ledger CertificateIssuer
}

// ApproveAndIssue loads a pending request, issues the certificate on the
// ledger with the issuer as caller, then marks the request approved. Ledger
// errors propagate unchanged and leave the request pending.
func (s *Service) ApproveAndIssue(ctx context.Context, requestID, issuer string) (uint64, error) {
	req, err := s.Queue.Get(ctx, requestID)
	if err != nil {
		return 0, err
	}
	if req.Status != models.RequestStatusPending {
		return 0, requests.ErrInvalidState
	}

	certID, err := s.Ledger.Issue(ctx, issuer, issueInputFrom(req))
	if err != nil {
		return 0, err
	}

	if err := s.Queue.MarkApproved(ctx, requestID); err != nil {
		log.Error().
			Str("request_id", requestID).
			Uint64("certificate_id", certID).
			Err(err).
			Msg("Certificate issued but request could not be marked approved")
		return certID, fmt.Errorf("%w: certificate %d issued for request %s: %v", ErrDivergence, certID, requestID, err)
	}
	return certID, nil
}

// Reject marks a pending request rejected. The ledger is never touched.
func (s *Service) Reject(ctx context.Context, requestID string) error {
	return s.Queue.MarkRejected(ctx, requestID)
}

// CertificateFinder looks up an issued certificate matching a staged request.
type CertificateFinder interface {
	FindMatching(ctx context.Context, req *models.CertificateRequest) (uint64, bool, error)
}

// Reconcile is the idempotent recovery pass for divergence: any pending
// request whose certificate already exists on the ledger is marked approved.
// Returns the number of requests healed.
func (s *Service) Reconcile(ctx context.Context, finder CertificateFinder) (int, error) {
	reqs, err := s.Queue.List(ctx)
	if err != nil {
		return 0, err
	}
	healed := 0
	for i := range reqs {
		req := &reqs[i]
		if req.Status != models.RequestStatusPending {
			continue
		}
		certID, found, err := finder.FindMatching(ctx, req)
		if err != nil {
			return healed, err
		}
		if !found {
			continue
		}
		if err := s.Queue.MarkApproved(ctx, req.ID); err != nil {
			if errors.Is(err, requests.ErrInvalidState) {
				continue
			}
			return healed, err
		}
		log.Info().
			Str("request_id", req.ID).
			Uint64("certificate_id", certID).
			Msg("Reconciled request with issued certificate")
		healed++
	}
	return healed, nil
}

func issueInputFrom(req *models.CertificateRequest) ledger.IssueInput {
	var skills []string
	if len(req.Skills) > 0 {
		_ = json.Unmarshal(req.Skills, &skills)
	}
	return ledger.IssueInput{
		StudentAddress:   req.StudentAddress,
		StudentName:      req.StudentName,
		UniversityName:   req.UniversityName,
		YearOfGraduation: req.YearOfGraduation,
		Degree:           req.Degree,
		Major:            req.Major,
		Skills:           skills,
		DocumentURI:      req.DocumentURI,
	}
}
