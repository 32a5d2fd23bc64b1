package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/cahsa-api/internal/dto"
	"github.com/noah-isme/cahsa-api/internal/models"
	"github.com/noah-isme/cahsa-api/pkg/config"
	appErrors "github.com/noah-isme/cahsa-api/pkg/errors"
)

type mockAdvisorDirectory struct {
	advisors map[string]models.Advisor
	err      error
}

func (m *mockAdvisorDirectory) FindByNID(ctx context.Context, nid string) (*models.Advisor, error) {
	if m.err != nil {
		return nil, m.err
	}
	advisor, ok := m.advisors[nid]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &advisor, nil
}

type mockCredentialStore struct {
	hashes map[string]string
	err    error
}

func (m *mockCredentialStore) FindCredential(ctx context.Context, nid string) (*models.DirectoryCredential, error) {
	if m.err != nil {
		return nil, m.err
	}
	hash, ok := m.hashes[nid]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.DirectoryCredential{NID: nid, PasswordHash: hash}, nil
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func newTestAuthService(t *testing.T) (*AuthService, *fakeAudit) {
	t.Helper()
	creds := &mockCredentialStore{hashes: map[string]string{
		"an123456": hashPassword(t, "s3cret"),
		"zz000000": hashPassword(t, "s3cret"),
	}}
	advisors := &mockAdvisorDirectory{advisors: map[string]models.Advisor{
		"an123456": {ID: "adv-a", NID: "an123456", FirstName: "Ann", LastName: "Reviewer", Email: "ann@ucf.edu", DepartmentID: 12},
	}}
	audit := &fakeAudit{}
	svc := NewAuthService(advisors, NewBcryptVerifier(creds), NewReviewPolicy(config.ReviewConfig{}), audit, nil, AuthConfig{
		Secret: "test-secret",
		Expiry: time.Hour,
		Issuer: "cahsa-api",
	})
	return svc, audit
}

func TestAuthLoginIssuesToken(t *testing.T) {
	svc, audit := newTestAuthService(t)

	resp, err := svc.Login(context.Background(), dto.LoginRequest{NID: "an123456", Password: "s3cret", IP: "10.0.0.1"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, "adv-a", resp.Advisor.ID)
	assert.True(t, resp.IsReviewer)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, models.Actor{AdvisorID: "adv-a", DepartmentID: 12}, claims.Actor())
	assert.Equal(t, "Ann Reviewer", claims.Name)
	assert.Equal(t, "cahsa-api", claims.Issuer)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionLogin, audit.entries[0].Action)
	assert.Equal(t, "10.0.0.1", audit.entries[0].IPAddress)

	me := svc.Describe(claims)
	assert.Equal(t, "an123456", me.NID)
	assert.True(t, me.IsReviewer)
}

func TestAuthLoginRejections(t *testing.T) {
	svc, audit := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, dto.LoginRequest{NID: "an123456", Password: "wrong"})
	require.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(ctx, dto.LoginRequest{NID: "nobody", Password: "s3cret"})
	require.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(ctx, dto.LoginRequest{NID: "zz000000", Password: "s3cret"})
	require.ErrorIs(t, err, appErrors.ErrNotAuthorized)

	_, err = svc.Login(ctx, dto.LoginRequest{NID: "an123456"})
	require.ErrorIs(t, err, appErrors.ErrValidation)

	assert.Empty(t, audit.entries)
}

func TestBcryptVerifierStoreFailure(t *testing.T) {
	verifier := NewBcryptVerifier(&mockCredentialStore{err: errors.New("conn refused")})
	err := verifier.Verify(context.Background(), "an123456", "s3cret")
	require.ErrorIs(t, err, appErrors.ErrInternal)
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, err := svc.ValidateToken("not-a-token")
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.JWTClaims{
		AdvisorID: "adv-a",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := foreign.SignedString([]byte("other-secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(signed)
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.JWTClaims{
		AdvisorID: "adv-a",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	signed, err = expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(signed)
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
