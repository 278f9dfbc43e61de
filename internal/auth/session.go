package auth

import (
	"errors"
	"fmt"
	"time"

	"atelier-backend/internal/domain/users"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidCredential = errors.New("invalid credentials")
	ErrInvalidToken      = errors.New("invalid token")
	ErrTokenExpired      = errors.New("token expired")
	ErrSessionRevoked    = errors.New("session revoked")
)

const defaultSessionTTL = 7 * 24 * time.Hour

// Manager issues, validates, rotates and revokes bearer session tokens.
// Signature validity alone is not enough to pass validation: the token must
// also still be present in the user's stored token list, which is what makes
// logout and rotation effective before the signature expires.
type Manager struct {
	db     *gorm.DB
	secret []byte
	ttl    time.Duration

	// Paths on which an expired (but still registered) token is accepted,
	// so clients can renew or log out without re-authenticating.
	renewalPaths map[string]bool
}

func NewManager(db *gorm.DB, secret string) *Manager {
	return &Manager{
		db:     db,
		secret: []byte(secret),
		ttl:    defaultSessionTTL,
		renewalPaths: map[string]bool{
			"/user/refresh": true,
			"/user/logout":  true,
		},
	}
}

// Authenticate proves identity from a password. The identifier matches either
// the account name or the email address. Read-only.
func (m *Manager) Authenticate(identifier, password string) (*users.User, error) {
	var user users.User
	err := m.db.Where("account = ? OR email = ?", identifier, identifier).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, ErrInvalidCredential
	}
	return &user, nil
}

// IssueSession signs a new token for the user and appends it to the stored
// token list, evicting the oldest entry once the list exceeds the cap.
func (m *Manager) IssueSession(user *users.User) (string, error) {
	token, err := m.sign(user.ID)
	if err != nil {
		return "", err
	}

	user.Tokens = append(user.Tokens, token)
	if len(user.Tokens) > users.MaxActiveSessions {
		user.Tokens = user.Tokens[len(user.Tokens)-users.MaxActiveSessions:]
	}

	if err := m.saveTokens(user); err != nil {
		return "", err
	}
	return token, nil
}

// ValidateSession checks the token signature, then the expiry, then that the
// token is still registered on the user. Expiry is advisory: on the renewal
// and logout paths an expired token is still accepted so the session can be
// rotated or revoked.
func (m *Manager) ValidateSession(tokenString, requestPath string) (*users.User, string, error) {
	userID, expiresAt, err := m.parse(tokenString)
	if err != nil {
		return nil, "", err
	}

	if time.Now().After(expiresAt) && !m.renewalPaths[requestPath] {
		return nil, "", ErrTokenExpired
	}

	var user users.User
	if err := m.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrUserNotFound
		}
		return nil, "", err
	}
	if !user.HasToken(tokenString) {
		return nil, "", ErrSessionRevoked
	}

	return &user, tokenString, nil
}

// RotateSession replaces oldToken's slot in place with a freshly signed token.
// Position-preserving on purpose: renewal must not grant a new capacity slot.
// Call only after ValidateSession accepted oldToken.
func (m *Manager) RotateSession(user *users.User, oldToken string) (string, error) {
	slot := -1
	for i, t := range user.Tokens {
		if t == oldToken {
			slot = i
			break
		}
	}
	if slot == -1 {
		return "", ErrSessionRevoked
	}

	token, err := m.sign(user.ID)
	if err != nil {
		return "", err
	}
	user.Tokens[slot] = token

	if err := m.saveTokens(user); err != nil {
		return "", err
	}
	return token, nil
}

// RevokeSession removes token from the user's token list. Removing a token
// that is not registered is a no-op, not an error.
func (m *Manager) RevokeSession(user *users.User, token string) error {
	kept := user.Tokens[:0]
	for _, t := range user.Tokens {
		if t != token {
			kept = append(kept, t)
		}
	}
	user.Tokens = kept

	return m.saveTokens(user)
}

// saveTokens persists the token list through the model so the field's JSON
// serializer runs; a raw column update would hand the slice to the driver.
func (m *Manager) saveTokens(user *users.User) error {
	return m.db.Model(user).Select("tokens").Updates(user).Error
}

func (m *Manager) sign(userID uint) (string, error) {
	now := time.Now()
	// jti keeps two tokens issued within the same second distinct, otherwise
	// eviction and in-place rotation could not tell the slots apart.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"jti":     uuid.NewString(),
		"iat":     now.Unix(),
		"exp":     now.Add(m.ttl).Unix(),
	})
	return token.SignedString(m.secret)
}

// parse verifies the signature and extracts the identity and expiry. Claim
// validation is disabled so expiry can be enforced per request path instead.
func (m *Manager) parse(tokenString string) (uint, time.Time, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithoutClaimsValidation(),
	)
	token, err := parser.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, time.Time{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, time.Time{}, ErrInvalidToken
	}
	userIDFloat, ok := claims["user_id"].(float64)
	if !ok {
		return 0, time.Time{}, ErrInvalidToken
	}
	expFloat, ok := claims["exp"].(float64)
	if !ok {
		return 0, time.Time{}, ErrInvalidToken
	}

	return uint(userIDFloat), time.Unix(int64(expFloat), 0), nil
}
