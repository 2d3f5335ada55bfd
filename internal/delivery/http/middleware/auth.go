package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aliskhannn/jlpt-n1-study/internal/delivery/http/apierr"
)

const userIDKey = "user_id"

// AuthConfig describes the tokens issued by the hosted auth backend.
type AuthConfig struct {
	JWTSecret string        `mapstructure:"-"`
	Issuer    string        `mapstructure:"issuer"`
	Audience  string        `mapstructure:"audience"`
	Leeway    time.Duration `mapstructure:"leeway"`
}

// Claims are the token claims the API reads.
type Claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// UserEnsurer records the token subject as a user.
type UserEnsurer interface {
	EnsureUser(ctx context.Context, userID uuid.UUID, email, displayName string) error
}

type AuthMiddleware struct {
	secret []byte
	parser *jwt.Parser
	users  UserEnsurer
	log    *zap.Logger
	known  sync.Map // user ids already ensured by this process
}

func NewAuthMiddleware(cfg AuthConfig, users UserEnsurer, log *zap.Logger) *AuthMiddleware {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	return &AuthMiddleware{
		secret: []byte(cfg.JWTSecret),
		parser: jwt.NewParser(opts...),
		users:  users,
		log:    log.With(zap.String("middleware", "auth")),
	}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			apierr.Respond(c, apierr.New(http.StatusUnauthorized, "unauthorized", "missing or invalid token"))
			return
		}

		claims, err := am.parse(tokenString)
		if err != nil {
			am.log.Debug("token rejected", zap.Error(err))
			apierr.Respond(c, apierr.New(http.StatusUnauthorized, "unauthorized", "invalid or expired token"))
			return
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil || userID == uuid.Nil {
			apierr.Respond(c, apierr.New(http.StatusForbidden, "forbidden", "token subject is not a user id"))
			return
		}

		if _, ok := am.known.Load(userID); !ok {
			if err := am.users.EnsureUser(c.Request.Context(), userID, claims.Email, claims.Name); err != nil {
				am.log.Error("ensure user failed", zap.String("user_id", userID.String()), zap.Error(err))
				apierr.Respond(c, err)
				return
			}
			am.known.Store(userID, struct{}{})
		}

		SetUserID(c, userID)
		c.Next()
	}
}

func (am *AuthMiddleware) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	tok, err := am.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return am.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}

// SetUserID stores the authenticated user on the request.
func SetUserID(c *gin.Context, userID uuid.UUID) {
	c.Set(userIDKey, userID)
}

// UserID returns the authenticated user, uuid.Nil outside RequireAuth.
func UserID(c *gin.Context) uuid.UUID {
	v, ok := c.Get(userIDKey)
	if !ok {
		return uuid.Nil
	}
	id, _ := v.(uuid.UUID)
	return id
}
