package security

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrJWTSecretMissing = errors.New("JWT_SECRET is not set")
	ErrBearerMissing    = errors.New("bearer token is missing")
)

const defaultTTL = 7 * 24 * time.Hour

// Claims 的 Subject 是调用方标识（用户名或服务名），Scope 限定可访问的接口组。
type Claims struct {
	Scope []string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// Allows 判断 claims 是否覆盖 scope；未声明 scope 的令牌视为全权限。
func (c *Claims) Allows(scope string) bool {
	if c == nil {
		return false
	}
	if len(c.Scope) == 0 {
		return true
	}
	for _, s := range c.Scope {
		if s == scope || s == "*" {
			return true
		}
	}
	return false
}

// Issuer 写进签发的令牌，解析时校验。
const Issuer = "vic2-economy"

func jwtSecret() ([]byte, error) {
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		return []byte(secret), nil
	}
	return nil, ErrJWTSecretMissing
}

// Award 签发 HS256 令牌，ttl<=0 时有效期 7 天。
func Award(subject string, ttl time.Duration, scope ...string) (string, error) {
	key, err := jwtSecret()
	if err != nil {
		return "", err
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	now := time.Now()
	return jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}).SignedString(key)
}

var parser = jwt.NewParser(
	jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	jwt.WithIssuer(Issuer),
	jwt.WithExpirationRequired(),
)

// ParseToken 校验签名、签发方和过期时间。
func ParseToken(tokenStr string) (*jwt.Token, *Claims, error) {
	key, err := jwtSecret()
	if err != nil {
		return nil, nil, err
	}
	claims := new(Claims)
	token, err := parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) { return key, nil })
	if err != nil {
		return nil, nil, err
	}
	return token, claims, nil
}

// ParseBearer 解析 `Authorization: Bearer <token>` 头。
func ParseBearer(header string) (*Claims, error) {
	raw, ok := strings.CutPrefix(strings.TrimSpace(header), "Bearer ")
	if raw = strings.TrimSpace(raw); !ok || raw == "" {
		return nil, ErrBearerMissing
	}
	_, claims, err := ParseToken(raw)
	return claims, err
}
