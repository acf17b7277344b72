package services

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/statlab/statlab-backend/internal/data/repos"
	"github.com/statlab/statlab-backend/internal/pkg/ctxutil"
	pkgerrors "github.com/statlab/statlab-backend/internal/pkg/errors"
	"github.com/statlab/statlab-backend/internal/platform/logger"
)

type JWTClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// AuthService turns a bearer token into request identity on the context.
type AuthService interface {
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GenerateAccessToken(userID uuid.UUID, role string) (string, error)
}

type authService struct {
	db           *gorm.DB
	log          *logger.Logger
	members      repos.MemberRepo
	jwtSecretKey string
	accessTTL    time.Duration
}

func NewAuthService(db *gorm.DB, baseLog *logger.Logger, members repos.MemberRepo, jwtSecretKey string, accessTTL time.Duration) AuthService {
	return &authService{
		db:           db,
		log:          baseLog.With("service", "AuthService"),
		members:      members,
		jwtSecretKey: jwtSecretKey,
		accessTTL:    accessTTL,
	}
}

func (as *authService) GenerateAccessToken(userID uuid.UUID, role string) (string, error) {
	claims := JWTClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, fmt.Errorf("%w: missing token", pkgerrors.ErrUnauthorized)
	}
	parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil {
		return ctx, fmt.Errorf("%w: %v", pkgerrors.ErrUnauthorized, err)
	}
	claims, ok := parsedToken.Claims.(*JWTClaims)
	if !ok || !parsedToken.Valid {
		return ctx, fmt.Errorf("%w: invalid or expired token", pkgerrors.ErrUnauthorized)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, fmt.Errorf("%w: invalid user id in token", pkgerrors.ErrUnauthorized)
	}

	orgIDs, err := as.members.ListOrganizationIDs(ctx, nil, userID)
	if err != nil {
		as.log.Warn("Failed to load memberships", "error", err, "user_id", userID)
		return ctx, fmt.Errorf("load memberships: %w", err)
	}

	rd := &ctxutil.RequestData{
		UserID:          userID,
		IsAdmin:         claims.Role == "admin",
		OrganizationIDs: orgIDs,
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}
