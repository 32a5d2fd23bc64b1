package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/cahsa-api/internal/dto"
	"github.com/noah-isme/cahsa-api/internal/models"
	appErrors "github.com/noah-isme/cahsa-api/pkg/errors"
)

type advisorDirectory interface {
	FindByNID(ctx context.Context, nid string) (*models.Advisor, error)
}

type credentialStore interface {
	FindCredential(ctx context.Context, nid string) (*models.DirectoryCredential, error)
}

// CredentialVerifier checks a directory NID and password.
type CredentialVerifier interface {
	Verify(ctx context.Context, nid, password string) error
}

// BcryptVerifier checks passwords against locally stored bcrypt hashes.
type BcryptVerifier struct {
	store credentialStore
}

// NewBcryptVerifier constructs a BcryptVerifier.
func NewBcryptVerifier(store credentialStore) *BcryptVerifier {
	return &BcryptVerifier{store: store}
}

// Verify implements CredentialVerifier.
func (v *BcryptVerifier) Verify(ctx context.Context, nid, password string) error {
	cred, err := v.store.FindCredential(ctx, nid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrInvalidCredentials
		}
		return appErrors.Internal(err, "failed to load directory credential")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return appErrors.ErrInvalidCredentials
	}
	return nil
}

// AuthConfig defines token issuing parameters.
type AuthConfig struct {
	Secret string
	Expiry time.Duration
	Issuer string
}

// AuthService signs advisors in and validates their access tokens.
type AuthService struct {
	advisors  advisorDirectory
	verifier  CredentialVerifier
	policy    ReviewPolicy
	audit     auditLogger
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance. audit may be nil.
func NewAuthService(advisors advisorDirectory, verifier CredentialVerifier, policy ReviewPolicy, audit auditLogger, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Expiry <= 0 {
		config.Expiry = 8 * time.Hour
	}
	return &AuthService{
		advisors:  advisors,
		verifier:  verifier,
		policy:    policy,
		audit:     audit,
		validator: NewValidator(),
		logger:    logger,
		config:    config,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Login verifies directory credentials and issues an access token for
// advisors registered with the portal.
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid login payload")
	}

	if err := s.verifier.Verify(ctx, req.NID, req.Password); err != nil {
		s.logger.Info("login rejected", zap.String("nid", req.NID), zap.Error(err))
		return nil, err
	}

	advisor, err := s.advisors.FindByNID(ctx, req.NID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotAuthorized
		}
		return nil, appErrors.Internal(err, "failed to load advisor")
	}

	issuedAt := s.now()
	token, err := s.generateAccessToken(advisor, issuedAt)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create access token")
	}

	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			ActorID:    &advisor.ID,
			Action:     models.AuditActionLogin,
			Resource:   "auth",
			ResourceID: &advisor.ID,
			NewValues:  []byte(`{"status":"success"}`),
			IPAddress:  req.IP,
			UserAgent:  req.UserAgent,
		}); err != nil {
			s.logger.Warn("failed to record login audit log", zap.Error(err))
		}
	}

	return &dto.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.config.Expiry.Seconds()),
		IssuedAt:    issuedAt,
		Advisor:     *advisor,
		IsReviewer:  s.policy.IsReviewer(advisor.Actor()),
	}, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.AdvisorID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// Describe reports who the token belongs to.
func (s *AuthService) Describe(claims *models.JWTClaims) dto.CurrentActor {
	actor := claims.Actor()
	return dto.CurrentActor{
		Actor:      actor,
		NID:        claims.NID,
		Name:       claims.Name,
		IsReviewer: s.policy.IsReviewer(actor),
	}
}

func (s *AuthService) generateAccessToken(advisor *models.Advisor, issuedAt time.Time) (string, error) {
	claims := &models.JWTClaims{
		AdvisorID:    advisor.ID,
		DepartmentID: advisor.DepartmentID,
		NID:          advisor.NID,
		Name:         advisor.FullName(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   advisor.ID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.Expiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
}
