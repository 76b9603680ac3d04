package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/d60-Lab/social-blog/config"
	"github.com/d60-Lab/social-blog/pkg/response"
)

const principalKey = "principal_id"

var (
	ErrMissingToken = errors.New("missing authentication token")
	ErrInvalidToken = errors.New("invalid token")
)

// TokenAuth HS256 JWT 校验；sub 即当前操作者的账号 ID
type TokenAuth struct {
	secret []byte
	issuer string
}

func NewTokenAuth(cfg config.JWTConfig) *TokenAuth {
	return &TokenAuth{secret: []byte(cfg.Secret), issuer: cfg.Issuer}
}

// Issue 签发访问令牌（本地联调、压测脚本使用）
func (a *TokenAuth) Issue(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    a.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Parse validates a bearer header value and returns the subject.
func (a *TokenAuth) Parse(header string) (string, error) {
	raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if raw == "" {
		return "", ErrMissingToken
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	var claims jwt.RegisteredClaims
	if _, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}

// Required 必须携带有效令牌
func (a *TokenAuth) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		sub, err := a.Parse(c.GetHeader("Authorization"))
		if err != nil {
			response.Unauthorized(c, err.Error())
			return
		}
		c.Set(principalKey, sub)
		c.Next()
	}
}

// Optional 无令牌按匿名处理；携带了但无效仍返回 401
func (a *TokenAuth) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}
		sub, err := a.Parse(header)
		if err != nil {
			response.Unauthorized(c, err.Error())
			return
		}
		c.Set(principalKey, sub)
		c.Next()
	}
}

// Principal 返回当前请求的账号 ID，匿名时为空
func Principal(c *gin.Context) string {
	return c.GetString(principalKey)
}
