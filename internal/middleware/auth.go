package middleware

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"easynetes/internal/models"
)

const (
	DefaultTokenExpiry = time.Hour
	CookieName         = "auth_token"

	ContextUsername = "username"
	ContextRole     = "role"
	ContextClaims   = "claims"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenRevoked = errors.New("token revoked")
)

type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// AuthOptions configures NewAuthService. An empty Secret generates a
// random per-process key, which invalidates tokens on restart.
type AuthOptions struct {
	Secret        string
	TokenExpiry   time.Duration
	SecureCookies bool
}

type AuthService struct {
	secret        []byte
	expiry        time.Duration
	secureCookies bool

	mu          sync.Mutex
	apiFailures map[string]*apiFailure
	revoked     map[string]time.Time
}

// failureWindow is how long a failed login counts toward a lockout.
const failureWindow = 5 * time.Minute

type apiFailure struct {
	count        int
	lastAttempt  time.Time
	lockoutUntil time.Time
}

func NewAuthService(opts AuthOptions) *AuthService {
	secret := []byte(opts.Secret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			panic(fmt.Sprintf("generate jwt secret: %v", err))
		}
	}
	expiry := opts.TokenExpiry
	if expiry <= 0 {
		expiry = DefaultTokenExpiry
	}
	return &AuthService{
		secret:        secret,
		expiry:        expiry,
		secureCookies: opts.SecureCookies,
		apiFailures:   make(map[string]*apiFailure),
		revoked:       make(map[string]time.Time),
	}
}

func (a *AuthService) TokenExpiry() time.Duration {
	return a.expiry
}

func (a *AuthService) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func (a *AuthService) CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func (a *AuthService) GenerateToken(username, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   username,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

func (a *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if a.isRevoked(claims.ID) {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// Revoke denylists a token until it would have expired anyway.
func (a *AuthService) Revoke(claims *Claims) {
	if claims == nil || claims.ID == "" {
		return
	}
	until := time.Now().Add(a.expiry)
	if claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	now := time.Now()
	for id, exp := range a.revoked {
		if exp.Before(now) {
			delete(a.revoked, id)
		}
	}
	a.revoked[claims.ID] = until
}

func (a *AuthService) isRevoked(id string) bool {
	if id == "" {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	exp, ok := a.revoked[id]
	return ok && exp.After(time.Now())
}

// TokenFromRequest prefers the Authorization header and falls back to the
// auth cookie for browser requests.
func TokenFromRequest(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if cookieToken, err := c.Cookie(CookieName); err == nil {
		return cookieToken
	}
	return ""
}

// Helper to detect if current request is effectively HTTPS (behind proxy or direct)
func requestIsSecure(c *gin.Context) bool {
	if c.Request.TLS != nil {
		return true
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); strings.EqualFold(proto, "https") {
		return true
	}
	return false
}

func (a *AuthService) cookieShouldBeSecure(c *gin.Context) bool {
	return a.secureCookies || requestIsSecure(c)
}

func (a *AuthService) writeCookie(c *gin.Context, value string, maxAge int) {
	secure := a.cookieShouldBeSecure(c)
	// SameSite=None requires Secure; plain HTTP falls back to Lax.
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		MaxAge:   maxAge,
	})
}

// SetAuthCookie stores the token for page requests and the websocket.
func (a *AuthService) SetAuthCookie(c *gin.Context, token string) {
	a.writeCookie(c, token, int(a.expiry.Seconds()))
}

func (a *AuthService) ClearAuthCookie(c *gin.Context) {
	a.writeCookie(c, "", -1)
}

func abortTooMany(c *gin.Context, retryAfter time.Duration) {
	c.Header("Retry-After", fmt.Sprintf("%.0f", retryAfter.Seconds()))
	c.AbortWithStatusJSON(models.SCodeTooManyRequests.HTTP,
		models.SCodeTooManyRequests.Envelope(gin.H{"retry_after": int(retryAfter.Seconds())}, "too many unauthorized attempts"))
}

// RequireAPIAuth validates the bearer token and puts the username, role
// and claims on the context. Repeated failures from one IP lock it out.
func (a *AuthService) RequireAPIAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := a.apiFailureKey(c)
		if retryAfter, locked := a.checkAPILockout(key); locked {
			abortTooMany(c, retryAfter)
			return
		}

		tokenString := TokenFromRequest(c)
		if tokenString == "" {
			if retryAfter, locked := a.recordAPIFailure(key); locked {
				abortTooMany(c, retryAfter)
				return
			}
			c.AbortWithStatusJSON(models.SCodeUnauthorized.HTTP,
				models.SCodeUnauthorized.Envelope(nil, "authorization header or cookie required"))
			return
		}

		claims, err := a.ValidateToken(tokenString)
		if err != nil {
			if retryAfter, locked := a.recordAPIFailure(key); locked {
				abortTooMany(c, retryAfter)
				return
			}
			c.AbortWithStatusJSON(models.SCodeUnauthorized.HTTP,
				models.SCodeUnauthorized.Envelope(nil, "invalid token"))
			return
		}

		a.clearAPIFailures(key)
		c.Set(ContextUsername, claims.Username)
		c.Set(ContextRole, models.NormalizeRole(claims.Role))
		c.Set(ContextClaims, claims)
		c.Next()
	}
}

// RequireRole admits only principals whose role is in roles.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		current := models.Role(c.GetString(ContextRole))
		for _, r := range roles {
			if current == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(models.SCodeForbidden.HTTP, models.SCodeForbidden.Envelope(nil, ""))
	}
}

// ClaimsFrom returns the validated claims set by RequireAPIAuth.
func ClaimsFrom(c *gin.Context) *Claims {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*Claims)
	return claims
}

// CheckLockout reports whether the client is locked out after repeated
// failed logins or token checks.
func (a *AuthService) CheckLockout(c *gin.Context) (time.Duration, bool) {
	return a.checkAPILockout(a.apiFailureKey(c))
}

// RecordFailure counts a failed attempt and reports a new lockout.
func (a *AuthService) RecordFailure(c *gin.Context) (time.Duration, bool) {
	return a.recordAPIFailure(a.apiFailureKey(c))
}

func (a *AuthService) ClearFailures(c *gin.Context) {
	a.clearAPIFailures(a.apiFailureKey(c))
}

func (a *AuthService) apiFailureKey(c *gin.Context) string {
	return c.ClientIP()
}

func (a *AuthService) checkAPILockout(key string) (time.Duration, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rec, ok := a.apiFailures[key]
	if !ok {
		return 0, false
	}
	now := time.Now()
	if rec.lockoutUntil.After(now) {
		return rec.lockoutUntil.Sub(now), true
	}
	return 0, false
}

func (a *AuthService) recordAPIFailure(key string) (time.Duration, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := time.Now()
	a.pruneFailuresLocked(now)
	rec, ok := a.apiFailures[key]
	if !ok {
		rec = &apiFailure{}
		a.apiFailures[key] = rec
	}

	if rec.lockoutUntil.After(now) {
		return rec.lockoutUntil.Sub(now), true
	}

	if now.Sub(rec.lastAttempt) > failureWindow {
		rec.count = 0
	}

	rec.lastAttempt = now
	rec.count++

	if rec.count >= 5 {
		lockout := time.Duration(rec.count) * 15 * time.Second
		if lockout > 2*time.Minute {
			lockout = 2 * time.Minute
		}
		rec.lockoutUntil = now.Add(lockout)
		rec.count = 0
		return lockout, true
	}

	return 0, false
}

// pruneFailuresLocked drops records that are outside the failure window and
// not locked out. a.mu must be held.
func (a *AuthService) pruneFailuresLocked(now time.Time) {
	for key, rec := range a.apiFailures {
		if now.Sub(rec.lastAttempt) > failureWindow && !rec.lockoutUntil.After(now) {
			delete(a.apiFailures, key)
		}
	}
}

func (a *AuthService) clearAPIFailures(key string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.apiFailures, key)
}
