package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/salon-token-service/internal/config"
	"github.com/spec-kit/salon-token-service/internal/domain"
	"github.com/spec-kit/salon-token-service/internal/repository"
	apperrors "github.com/spec-kit/salon-token-service/pkg/util"
)

// OTPService issues and verifies one-time codes as a precondition for
// token submission. Codes live in the injected OTPStore with a TTL; the
// service itself holds no state.
type OTPService struct {
	cfg    config.OTPConfig
	store  repository.OTPStore
	logger *zap.Logger
}

// NewOTPService constructs the service.
func NewOTPService(cfg config.OTPConfig, store repository.OTPStore, logger *zap.Logger) *OTPService {
	return &OTPService{cfg: cfg, store: store, logger: logger}
}

// Required reports whether submissions must present a verified mobile.
func (s *OTPService) Required() bool {
	return s.cfg.Required
}

// Send issues a 6-digit code for the mobile. The code is returned only
// when dev exposure is configured; otherwise delivery is delegated to an
// external SMS collaborator and the caller sees nothing.
func (s *OTPService) Send(ctx context.Context, mobile string) (string, error) {
	mobile = strings.TrimSpace(mobile)
	if !domain.ValidMobile(mobile) {
		return "", apperrors.NewValidationError("mobile must be a 10-digit number", nil)
	}

	code, err := generateCode()
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	if err := s.store.SetCode(ctx, mobile, code, s.cfg.CodeTTL()); err != nil {
		return "", apperrors.NewStoreUnavailable(err)
	}

	s.logger.Info("otp issued", zap.String("mobile", maskMobile(mobile)))
	if s.cfg.DevExposeCode {
		return code, nil
	}
	return "", nil
}

// Verify checks the submitted code and marks the mobile verified for the
// configured window. The code is single use.
func (s *OTPService) Verify(ctx context.Context, mobile, code string) error {
	mobile = strings.TrimSpace(mobile)
	code = strings.TrimSpace(code)
	if !domain.ValidMobile(mobile) {
		return apperrors.NewValidationError("mobile must be a 10-digit number", nil)
	}
	if code == "" {
		return apperrors.NewValidationError("code is required", nil)
	}

	stored, err := s.store.GetCode(ctx, mobile)
	if err != nil {
		return apperrors.NewStoreUnavailable(err)
	}
	if stored == "" || stored != code {
		return apperrors.NewValidationError("invalid or expired code", nil)
	}

	if err := s.store.DeleteCode(ctx, mobile); err != nil {
		return apperrors.NewStoreUnavailable(err)
	}
	if err := s.store.MarkVerified(ctx, mobile, s.cfg.VerifiedTTL()); err != nil {
		return apperrors.NewStoreUnavailable(err)
	}

	s.logger.Info("otp verified", zap.String("mobile", maskMobile(mobile)))
	return nil
}

// IsVerified reports whether the mobile passed verification recently.
func (s *OTPService) IsVerified(ctx context.Context, mobile string) (bool, error) {
	return s.store.IsVerified(ctx, mobile)
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func maskMobile(mobile string) string {
	if len(mobile) < 4 {
		return "****"
	}
	return strings.Repeat("*", len(mobile)-4) + mobile[len(mobile)-4:]
}
