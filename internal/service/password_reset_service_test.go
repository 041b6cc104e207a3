package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/classmanager/backend/internal/models"
	appErrors "github.com/classmanager/backend/pkg/errors"
	"github.com/classmanager/backend/pkg/mailer"
)

type resetRepoStub struct {
	user  *models.User
	token *models.PasswordResetToken

	createdTokens []models.PasswordResetToken
	deletedFor    []string
	revokedFor    []string
	passwordHash  string
	passwordFor   string
}

func (s *resetRepoStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.user != nil && s.user.Email == email {
		return s.user, nil
	}
	return nil, sql.ErrNoRows
}

func (s *resetRepoStub) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	s.passwordFor = id
	s.passwordHash = passwordHash
	return nil
}

func (s *resetRepoStub) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	s.revokedFor = append(s.revokedFor, userID)
	return nil
}

func (s *resetRepoStub) CreatePasswordResetToken(ctx context.Context, token *models.PasswordResetToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	s.createdTokens = append(s.createdTokens, *token)
	return nil
}

func (s *resetRepoStub) FindPasswordResetToken(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	if s.token != nil && s.token.Token == token {
		return s.token, nil
	}
	return nil, sql.ErrNoRows
}

func (s *resetRepoStub) DeletePasswordResetTokens(ctx context.Context, userID string) error {
	s.deletedFor = append(s.deletedFor, userID)
	return nil
}

type capturingMailer struct {
	sent []mailer.Message
	err  error
}

func (m *capturingMailer) Send(_ context.Context, msg mailer.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func newResetFixture(t *testing.T) (*PasswordResetService, *resetRepoStub, *capturingMailer) {
	t.Helper()
	repo := &resetRepoStub{user: &models.User{
		ID:      uuid.NewString(),
		Email:   "teacher@example.edu",
		Name:    "Ada",
		Surname: "Lovelace",
	}}
	mail := &capturingMailer{}
	svc := NewPasswordResetService(repo, mail, PasswordResetConfig{
		TokenTTL:        time.Hour,
		FrontendBaseURL: "https://classes.example.edu",
	}, nil, zap.NewNop())
	return svc, repo, mail
}

func TestPasswordResetRequestMailsTokenLink(t *testing.T) {
	svc, repo, mail := newResetFixture(t)

	err := svc.Request(context.Background(), RequestPasswordResetRequest{Email: "teacher@example.edu"})
	require.NoError(t, err)

	require.Len(t, repo.createdTokens, 1)
	token := repo.createdTokens[0]
	assert.Equal(t, repo.user.ID, token.UserID)
	assert.NotEmpty(t, token.Token)
	assert.WithinDuration(t, time.Now().UTC().Add(time.Hour), token.ExpiresAt, time.Minute)

	assert.Equal(t, []string{repo.user.ID}, repo.deletedFor, "older tokens must be superseded")

	require.Len(t, mail.sent, 1)
	msg := mail.sent[0]
	assert.Equal(t, "teacher@example.edu", msg.ToAddress)
	assert.Contains(t, msg.TextBody, "https://classes.example.edu/reset-password?token="+token.Token)
	assert.Contains(t, msg.HTMLBody, token.Token)
}

func TestPasswordResetRequestUnknownEmail(t *testing.T) {
	svc, repo, mail := newResetFixture(t)

	err := svc.Request(context.Background(), RequestPasswordResetRequest{Email: "nobody@example.edu"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.createdTokens)
	assert.Empty(t, mail.sent)
}

func TestPasswordResetRequestInvalidEmail(t *testing.T) {
	svc, _, _ := newResetFixture(t)

	err := svc.Request(context.Background(), RequestPasswordResetRequest{Email: "not-an-email"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPasswordResetConsumesToken(t *testing.T) {
	svc, repo, _ := newResetFixture(t)
	repo.token = &models.PasswordResetToken{
		ID:        uuid.NewString(),
		UserID:    repo.user.ID,
		Token:     "valid-token",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}

	err := svc.Reset(context.Background(), ResetPasswordRequest{Token: "valid-token", NewPassword: "s3cret-pass"})
	require.NoError(t, err)

	assert.Equal(t, repo.user.ID, repo.passwordFor)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.passwordHash), []byte("s3cret-pass")))
	assert.Equal(t, []string{repo.user.ID}, repo.deletedFor, "the token must be single-use")
	assert.Equal(t, []string{repo.user.ID}, repo.revokedFor, "open sessions must be revoked")
}

func TestPasswordResetExpiredToken(t *testing.T) {
	svc, repo, _ := newResetFixture(t)
	repo.token = &models.PasswordResetToken{
		ID:        uuid.NewString(),
		UserID:    repo.user.ID,
		Token:     "stale-token",
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	}

	err := svc.Reset(context.Background(), ResetPasswordRequest{Token: "stale-token", NewPassword: "s3cret-pass"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.passwordFor)
}

func TestPasswordResetUnknownToken(t *testing.T) {
	svc, repo, _ := newResetFixture(t)

	err := svc.Reset(context.Background(), ResetPasswordRequest{Token: "missing", NewPassword: "s3cret-pass"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.revokedFor)
}

func TestPasswordResetShortPasswordRejected(t *testing.T) {
	svc, _, _ := newResetFixture(t)

	err := svc.Reset(context.Background(), ResetPasswordRequest{Token: "valid-token", NewPassword: "tiny"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPasswordResetRequestMailFailureSurfaces(t *testing.T) {
	svc, _, mail := newResetFixture(t)
	mail.err = context.DeadlineExceeded

	err := svc.Request(context.Background(), RequestPasswordResetRequest{Email: "teacher@example.edu"})
	require.Error(t, err)
	assert.True(t, strings.Contains(appErrors.FromError(err).Message, "reset mail"))
}
