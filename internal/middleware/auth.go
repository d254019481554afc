// Package middleware authenticates requests and gates routes by privilege.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"pmis/internal/workflow"
	"pmis/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// AccessTokenCookie is the HttpOnly cookie carrying the session token.
	AccessTokenCookie = "access_token"

	principalKey = "principal"
)

var ErrInvalidToken = errors.New("invalid token")

// PrivilegeSource resolves a role to its privilege codes.
type PrivilegeSource interface {
	GetPrivilegeCodes(ctx context.Context, roleID uint) ([]string, error)
}

// Claims is the JWT payload. Subject holds the user id.
type Claims struct {
	RoleID uint `json:"role_id"`
	jwt.RegisteredClaims
}

// Principal is the authenticated caller attached to the gin context.
type Principal struct {
	UserID     uint
	RoleID     uint
	Privileges workflow.PrivilegeSet
}

func (p *Principal) Can(priv workflow.Privilege) bool {
	return p != nil && p.Privileges.Can(priv)
}

// Viewer adapts the principal to the workflow rules.
func (p *Principal) Viewer() workflow.Viewer {
	if p == nil {
		return workflow.Viewer{}
	}
	return workflow.Viewer{UserID: p.UserID, RoleID: p.RoleID, Caps: p.Privileges}
}

type privCacheEntry struct {
	privs     workflow.PrivilegeSet
	expiresAt time.Time
}

// Authenticator issues and verifies tokens and caches role privileges.
type Authenticator struct {
	secret        []byte
	tokenTTL      time.Duration
	cacheTTL      time.Duration
	secureCookies bool
	source        PrivilegeSource
	cache         sync.Map // roleID -> privCacheEntry
	now           func() time.Time
}

func NewAuthenticator(secret string, tokenTTL, cacheTTL time.Duration, secureCookies bool, source PrivilegeSource) *Authenticator {
	return &Authenticator{
		secret:        []byte(secret),
		tokenTTL:      tokenTTL,
		cacheTTL:      cacheTTL,
		secureCookies: secureCookies,
		source:        source,
		now:           time.Now,
	}
}

// IssueToken signs an HS256 token for the user.
func (a *Authenticator) IssueToken(userID, roleID uint) (string, time.Time, error) {
	now := a.now()
	expiresAt := now.Add(a.tokenTTL)
	claims := Claims{
		RoleID: roleID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ParseToken verifies the signature and expiry and returns the user and role ids.
func (a *Authenticator) ParseToken(tokenString string) (uint, uint, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(a.now))
	if err != nil || !token.Valid {
		return 0, 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || userID == 0 {
		return 0, 0, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return uint(userID), claims.RoleID, nil
}

// Authenticate turns a raw token into a Principal with resolved privileges.
func (a *Authenticator) Authenticate(ctx context.Context, tokenString string) (*Principal, error) {
	userID, roleID, err := a.ParseToken(tokenString)
	if err != nil {
		return nil, err
	}
	privs, err := a.privileges(ctx, roleID)
	if err != nil {
		return nil, err
	}
	return &Principal{UserID: userID, RoleID: roleID, Privileges: privs}, nil
}

func (a *Authenticator) privileges(ctx context.Context, roleID uint) (workflow.PrivilegeSet, error) {
	if entry, ok := a.cache.Load(roleID); ok {
		cached := entry.(privCacheEntry)
		if a.now().Before(cached.expiresAt) {
			return cached.privs, nil
		}
	}

	codes, err := a.source.GetPrivilegeCodes(ctx, roleID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve privileges: %w", err)
	}
	privs := workflow.NewPrivilegeSet(codes...)
	a.cache.Store(roleID, privCacheEntry{privs: privs, expiresAt: a.now().Add(a.cacheTTL)})
	return privs, nil
}

// ClearPrivilegeCache drops cached privileges for one role, or for all roles when roleID is 0.
func (a *Authenticator) ClearPrivilegeCache(roleID uint) {
	if roleID != 0 {
		a.cache.Delete(roleID)
		return
	}
	a.cache.Range(func(key, _ interface{}) bool {
		a.cache.Delete(key)
		return true
	})
}

// RequireAuth validates the token from the cookie or the Authorization header.
func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, msg := tokenFromRequest(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, msg))
			return
		}

		principal, err := a.Authenticate(c.Request.Context(), tokenString)
		if err != nil {
			if errors.Is(err, ErrInvalidToken) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token"))
				return
			}
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to verify permissions"))
			return
		}

		SetPrincipal(c, principal)
		c.Next()
	}
}

// Require rejects callers lacking any of the given privileges. Use after RequireAuth.
func Require(privs ...workflow.Privilege) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := PrincipalFrom(c)
		if principal == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
			return
		}
		for _, p := range privs {
			if !principal.Can(p) {
				c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: missing privilege '"+string(p)+"'"))
				return
			}
		}
		c.Next()
	}
}

func SetPrincipal(c *gin.Context, p *Principal) {
	c.Set(principalKey, p)
}

// PrincipalFrom returns the authenticated caller, or nil.
func PrincipalFrom(c *gin.Context) *Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(*Principal); ok {
			return p
		}
	}
	return nil
}

// SetTokenCookie stores the session token as an HttpOnly cookie.
func (a *Authenticator) SetTokenCookie(c *gin.Context, token string) {
	a.setCookie(c, token, int(a.tokenTTL.Seconds()))
}

// ClearTokenCookie expires the session cookie.
func (a *Authenticator) ClearTokenCookie(c *gin.Context) {
	a.setCookie(c, "", -1)
}

func (a *Authenticator) setCookie(c *gin.Context, value string, maxAge int) {
	// Cross-origin deployments need SameSite=None, which browsers only accept with Secure.
	sameSite := http.SameSiteLaxMode
	if a.secureCookies {
		sameSite = http.SameSiteNoneMode
	}
	c.SetSameSite(sameSite)
	c.SetCookie(AccessTokenCookie, value, maxAge, "/", "", a.secureCookies, true)
}

// tokenFromRequest reads the cookie first, then a Bearer header, then ?token= (websocket clients).
func tokenFromRequest(c *gin.Context) (string, string) {
	if token, err := c.Cookie(AccessTokenCookie); err == nil && token != "" {
		return token, ""
	}

	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return "", "Invalid authorization format. Expected 'Bearer <token>'"
		}
		return parts[1], ""
	}

	if token := c.Query("token"); token != "" {
		return token, ""
	}
	return "", "Authorization is missing"
}
