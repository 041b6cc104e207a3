package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/classmanager/backend/internal/models"
	appErrors "github.com/classmanager/backend/pkg/errors"
	"github.com/classmanager/backend/pkg/mailer"
)

type resetUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
	RevokeUserRefreshTokens(ctx context.Context, userID string) error
	CreatePasswordResetToken(ctx context.Context, token *models.PasswordResetToken) error
	FindPasswordResetToken(ctx context.Context, token string) (*models.PasswordResetToken, error)
	DeletePasswordResetTokens(ctx context.Context, userID string) error
}

// PasswordResetConfig tunes the reset flow. FrontendBaseURL is the base of
// the page the mailed link points at.
type PasswordResetConfig struct {
	TokenTTL        time.Duration
	FrontendBaseURL string
}

// RequestPasswordResetRequest starts a reset for the account behind an email.
type RequestPasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest consumes a mailed token and sets a new password.
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// PasswordResetService implements password reset by email. A request mails a
// single-use token; consuming it sets the password, deletes the token and
// revokes every open session.
type PasswordResetService struct {
	repo      resetUserRepository
	mail      mailer.Mailer
	config    PasswordResetConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPasswordResetService creates a new password reset service instance.
func NewPasswordResetService(repo resetUserRepository, mail mailer.Mailer, config PasswordResetConfig, validate *validator.Validate, logger *zap.Logger) *PasswordResetService {
	if config.TokenTTL <= 0 {
		config.TokenTTL = time.Hour
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PasswordResetService{repo: repo, mail: mail, config: config, validator: validate, logger: logger}
}

// Request issues a reset token for the account and mails the reset link.
// Unknown addresses are reported as not found.
func (s *PasswordResetService) Request(ctx context.Context, req RequestPasswordResetRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reset request")
	}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "no account with this email")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	// A new request supersedes any token still in flight.
	if err := s.repo.DeletePasswordResetTokens(ctx, user.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear previous reset tokens")
	}

	opaque, err := newOpaqueToken()
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue reset token")
	}
	token := &models.PasswordResetToken{
		UserID:    user.ID,
		Token:     opaque,
		ExpiresAt: time.Now().UTC().Add(s.config.TokenTTL),
	}
	if err := s.repo.CreatePasswordResetToken(ctx, token); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store reset token")
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.config.FrontendBaseURL, opaque)
	msg := mailer.Message{
		ToName:    user.Name + " " + user.Surname,
		ToAddress: user.Email,
		Subject:   "Password reset request",
		TextBody: fmt.Sprintf("Hello %s,\n\nA password reset was requested for your account. "+
			"Open the link below to choose a new password. The link expires in %s.\n\n%s\n\n"+
			"If you did not request this, ignore this message.", user.Name, s.config.TokenTTL, resetURL),
		HTMLBody: fmt.Sprintf("<p>Hello %s,</p><p>A password reset was requested for your account. "+
			"Open the link below to choose a new password. The link expires in %s.</p>"+
			"<p><a href=%q>Reset password</a></p>"+
			"<p>If you did not request this, ignore this message.</p>", user.Name, s.config.TokenTTL, resetURL),
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to send reset mail")
	}

	s.logger.Info("password reset requested", zap.String("user_id", user.ID))
	return nil
}

// Reset consumes a token and sets the new password. The token is deleted and
// every open session of the user is revoked.
func (s *PasswordResetService) Reset(ctx context.Context, req ResetPasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reset payload")
	}

	token, err := s.repo.FindPasswordResetToken(ctx, req.Token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrUnauthorized, "reset token is invalid or expired")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reset token")
	}
	if token.Expired(time.Now().UTC()) {
		return appErrors.Clone(appErrors.ErrUnauthorized, "reset token is invalid or expired")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	if err := s.repo.UpdatePassword(ctx, token.UserID, string(hash), time.Now().UTC()); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update password")
	}
	if err := s.repo.DeletePasswordResetTokens(ctx, token.UserID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to consume reset token")
	}
	if err := s.repo.RevokeUserRefreshTokens(ctx, token.UserID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke sessions")
	}

	s.logger.Info("password reset completed", zap.String("user_id", token.UserID))
	return nil
}
