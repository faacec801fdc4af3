package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shenikar/incident_watch/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	// adminLoginEmail - единственный адрес, получающий роль ADMIN при первом входе
	adminLoginEmail = "admin@mail.com"
	// adminLoginPassword проверяется только для adminLoginEmail.
	// Это бутафорский шлюз, а не аутентификация: для любого другого адреса пароль не проверяется вовсе.
	adminLoginPassword = "Admin123"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// UserRepository определяет контракт для работы с бд пользователей
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID) error
}

// SessionStore определяет контракт локального хранилища активной сессии
type SessionStore interface {
	Save(user *models.User) error
	Current() *models.User
	Clear() error
}

// AuthService определяет контракт разрешения личности по email
type AuthService interface {
	Login(ctx context.Context, email, password string) (*models.User, error)
	Logout() error
	// CurrentUser читает сессию без сетевого вызова; nil - не залогинен
	CurrentUser() *models.User
}

type authService struct {
	users   UserRepository
	session SessionStore
	logger  *logrus.Logger
}

func NewAuthService(users UserRepository, session SessionStore, logger *logrus.Logger) AuthService {
	return &authService{
		users:   users,
		session: session,
		logger:  logger,
	}
}

// Login находит пользователя по email или создает его при первом входе.
// Роль ADMIN назначается только захардкоженному адресу, всем остальным - REPORTER, навсегда.
func (s *authService) Login(ctx context.Context, email, password string) (*models.User, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "auth",
		"method":  "Login",
		"email":   email,
	})
	log.Info("Attempting login")

	isAdmin := strings.EqualFold(email, adminLoginEmail)
	if isAdmin && password != adminLoginPassword {
		log.Warn("Admin password check failed")
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
			// Отметка последнего входа не стоит отказа во входе
			log.WithError(err).Warn("Failed to update last login")
		}
	case errors.Is(err, models.ErrUserNotFound):
		role := models.RoleReporter
		if isAdmin {
			role = models.RoleAdmin
		}
		user = &models.User{Email: email, Role: role}
		if err := s.users.Create(ctx, user); err != nil {
			log.WithError(err).Error("Failed to create user on first login")
			return nil, fmt.Errorf("service: could not create user: %w", err)
		}
		log.WithField("role", role).Info("Created user on first login")
	default:
		log.WithError(err).Error("Failed to look up user")
		return nil, fmt.Errorf("service: could not look up user: %w", err)
	}

	if err := s.session.Save(user); err != nil {
		log.WithError(err).Error("Failed to save session")
		return nil, fmt.Errorf("service: could not save session: %w", err)
	}

	log.WithField("user_id", user.ID).Info("Login successful")
	return user, nil
}

// Logout очищает локальную сессию; удаленного эффекта нет
func (s *authService) Logout() error {
	return s.session.Clear()
}

// CurrentUser возвращает пользователя из кэшированной сессии
func (s *authService) CurrentUser() *models.User {
	return s.session.Current()
}
