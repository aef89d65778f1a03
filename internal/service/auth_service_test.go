package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/wardenhq/warden/internal/models"
	appErrors "github.com/wardenhq/warden/pkg/errors"
)

type operatorRepoStub struct {
	operators map[string]*models.Operator
	lastLogin map[string]time.Time
}

func newOperatorRepoStub() *operatorRepoStub {
	return &operatorRepoStub{
		operators: make(map[string]*models.Operator),
		lastLogin: make(map[string]time.Time),
	}
}

func (s *operatorRepoStub) FindByEmail(_ context.Context, email string) (*models.Operator, error) {
	for _, operator := range s.operators {
		if operator.Email == email {
			copy := *operator
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *operatorRepoStub) FindByID(_ context.Context, id string) (*models.Operator, error) {
	if operator, ok := s.operators[id]; ok {
		copy := *operator
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *operatorRepoStub) UpdateLastLogin(_ context.Context, id string, ts time.Time) error {
	s.lastLogin[id] = ts
	return nil
}

func newAuthServiceForTest(t *testing.T) (*AuthService, *operatorRepoStub, *auditTrailStub) {
	t.Helper()
	repo := newOperatorRepoStub()
	audit := &auditTrailStub{}

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	repo.operators["op-1"] = &models.Operator{
		ID:           "op-1",
		Email:        "alice@example.com",
		FullName:     "Alice",
		Identity:     "alice",
		PasswordHash: string(hash),
		Active:       true,
	}

	svc := NewAuthService(repo, audit, nil, nil, AuthConfig{
		TokenSecret: "test-secret",
		TokenExpiry: time.Hour,
		Issuer:      "warden",
	})
	return svc, repo, audit
}

func TestAuthServiceLogin(t *testing.T) {
	svc, repo, audit := newAuthServiceForTest(t)

	res, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "alice@example.com",
		Password: "s3cret",
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.AccessToken)
	require.Equal(t, "alice", res.Operator.Identity)
	require.Contains(t, repo.lastLogin, "op-1")
	require.Len(t, audit.logs, 1)
	require.Equal(t, models.AuditActionLogin, audit.logs[0].Action)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "op-1", claims.UserID)
	require.Equal(t, "alice", claims.Identity)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	svc, _, _ := newAuthServiceForTest(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong",
	})
	require.True(t, appErrors.Is(err, appErrors.ErrInvalidCredentials))
}

func TestAuthServiceLoginUnknownEmail(t *testing.T) {
	svc, _, _ := newAuthServiceForTest(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "nobody@example.com",
		Password: "s3cret",
	})
	require.True(t, appErrors.Is(err, appErrors.ErrInvalidCredentials))
}

func TestAuthServiceLoginInactiveOperator(t *testing.T) {
	svc, repo, _ := newAuthServiceForTest(t)
	repo.operators["op-1"].Active = false

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "alice@example.com",
		Password: "s3cret",
	})
	require.True(t, appErrors.Is(err, appErrors.ErrInactiveAccount))
}

func TestAuthServiceLoginValidation(t *testing.T) {
	svc, _, _ := newAuthServiceForTest(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "not-an-email"})
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestAuthServiceRejectsForgedToken(t *testing.T) {
	svc, _, _ := newAuthServiceForTest(t)

	_, err := svc.ValidateToken("not.a.token")
	require.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}
