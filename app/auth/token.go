package auth

import (
	"context"
	"time"

	"github.com/Rakhulsr/go-ecommerce-api/app/apperrors"
	"github.com/Rakhulsr/go-ecommerce-api/app/models"
	"github.com/gorilla/securecookie"
)

const tokenName = "storefront_token"

type Claims struct {
	UserID   string `json:"uid"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	IssuedAt int64  `json:"iat"`
}

func (c *Claims) IsVendor() bool {
	return c.Role == models.RoleVendor
}

// TokenService issues signed and encrypted bearer tokens. Expiry is enforced
// by securecookie's embedded timestamp.
type TokenService struct {
	codec *securecookie.SecureCookie
	ttl   time.Duration
}

func NewTokenService(authKey, encKey []byte, ttl time.Duration) *TokenService {
	codec := securecookie.New(authKey, encKey)
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(int(ttl.Seconds()))
	return &TokenService{codec: codec, ttl: ttl}
}

func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

func (s *TokenService) Issue(user *models.User) (string, error) {
	claims := Claims{
		UserID:   user.ID,
		Email:    user.Email,
		Role:     user.Role,
		IssuedAt: time.Now().Unix(),
	}
	return s.codec.Encode(tokenName, claims)
}

func (s *TokenService) Verify(token string) (*Claims, error) {
	var claims Claims
	if err := s.codec.Decode(tokenName, token, &claims); err != nil {
		return nil, apperrors.ErrInvalidToken.Wrap(err)
	}
	if claims.UserID == "" {
		return nil, apperrors.ErrInvalidToken
	}
	return &claims, nil
}

type contextKey string

const claimsKey contextKey = "claims"

func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok && claims != nil
}
