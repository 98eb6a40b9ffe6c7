package services

import (
	"context"

	"gorm.io/datatypes"

	"canvango_backend/internal/auth"
	"canvango_backend/internal/models"
	"canvango_backend/pkg/apperrors"
)

// UserStore is the minimal user lookup surface for authentication.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// AuthService issues operator tokens.
type AuthService struct {
	users  UserStore
	tokens *auth.TokenManager
	audit  SecurityAuditor
}

func NewAuthService(users UserStore, tokens *auth.TokenManager, audit SecurityAuditor) *AuthService {
	return &AuthService{users: users, tokens: tokens, audit: audit}
}

// Login verifies credentials and returns a signed JWT. Admin logins are
// recorded in the audit trail.
func (s *AuthService) Login(ctx context.Context, email, password, sourceIP string) (string, *models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "auth", "Failed to load user", 500)
	}
	if user == nil || !auth.CheckPasswordHash(password, user.PasswordHash) {
		// Same error either way; do not reveal which accounts exist.
		return "", nil, apperrors.New(apperrors.CodeInvalidCredentials, "auth", "Invalid email or password", 401)
	}

	token, err := s.tokens.Generate(user.ID, user.Role)
	if err != nil {
		return "", nil, apperrors.Wrap(err, apperrors.CodeInternalError, "auth", "Failed to issue token", 500)
	}

	if user.Role == models.UserRoleAdmin {
		userID := user.ID
		s.audit.Log(ctx, &models.SecurityEvent{
			EventType: models.EventAdminLogin,
			Severity:  models.SeverityMedium,
			SourceIP:  sourceIP,
			UserID:    &userID,
			Endpoint:  "/api/v1/auth/login",
			Details:   datatypes.JSONMap{"email": email},
		})
	}

	return token, user, nil
}
