// Package auth выдаёт и проверяет JWT пользователей и администратора.
// Пароль администратора хранится только в виде bcrypt-хеша.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Роли в токене
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var (
	ErrInvalidToken    = errors.New("invalid token")
	ErrInvalidPassword = errors.New("invalid admin password")
	ErrAdminDisabled   = errors.New("admin password is not configured")
)

// Claims содержит роль и стандартные поля JWT
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Manager выдаёт и проверяет токены
type Manager struct {
	secret    []byte
	adminHash []byte
	userTTL   time.Duration
	adminTTL  time.Duration
	now       func() time.Time
}

// NewManager создаёт Manager. Пустой adminHash отключает вход администратора.
func NewManager(secret string, adminHash []byte, userTTL, adminTTL time.Duration) *Manager {
	return &Manager{
		secret:    []byte(secret),
		adminHash: adminHash,
		userTTL:   userTTL,
		adminTTL:  adminTTL,
		now:       time.Now,
	}
}

// HashPassword возвращает bcrypt-хеш пароля
func HashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

// NewUserID генерирует идентификатор анонимного пользователя
func NewUserID() string {
	return uuid.New().String()
}

// IssueUserToken выдаёт токен пользователя с идентификатором в subject
func (m *Manager) IssueUserToken(userID string) (string, error) {
	return m.issue(RoleUser, userID, m.userTTL)
}

// ParseUserToken проверяет токен пользователя и возвращает его идентификатор
func (m *Manager) ParseUserToken(token string) (string, error) {
	claims, err := m.parse(token)
	if err != nil {
		return "", err
	}
	if claims.Role != RoleUser {
		return "", ErrInvalidToken
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return claims.Subject, nil
}

// CheckPassword сравнивает пароль с хешем администратора
func (m *Manager) CheckPassword(password string) error {
	if len(m.adminHash) == 0 {
		return ErrAdminDisabled
	}
	if err := bcrypt.CompareHashAndPassword(m.adminHash, []byte(password)); err != nil {
		return ErrInvalidPassword
	}
	return nil
}

// IssueAdminToken выдаёт токен администратора
func (m *Manager) IssueAdminToken() (string, error) {
	return m.issue(RoleAdmin, RoleAdmin, m.adminTTL)
}

// VerifyAdminToken проверяет токен администратора
func (m *Manager) VerifyAdminToken(token string) error {
	claims, err := m.parse(token)
	if err != nil {
		return err
	}
	if claims.Role != RoleAdmin || claims.Subject != RoleAdmin {
		return ErrInvalidToken
	}
	return nil
}

func (m *Manager) issue(role, subject string, ttl time.Duration) (string, error) {
	now := m.now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *Manager) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
