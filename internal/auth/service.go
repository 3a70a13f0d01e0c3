package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"ems-inventory/internal/apperr"
	"ems-inventory/internal/models"

	"gorm.io/gorm"
)

const minPasswordLength = 8

var checkPassword = CheckPassword

type Service struct {
	db     *gorm.DB
	issuer *Issuer
}

func NewService(db *gorm.DB, issuer *Issuer) *Service {
	return &Service{db: db, issuer: issuer}
}

func (s *Service) Issuer() *Issuer { return s.issuer }

type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

// Authenticate checks a username (or email) and password and issues a
// session token. Unknown users and wrong passwords are indistinguishable.
func (s *Service) Authenticate(ctx context.Context, login, password string) (*Session, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, apperr.Validation("Username and password are required")
	}

	var user models.User
	err := s.db.WithContext(ctx).
		Where("username = ? OR email = ?", login, strings.ToLower(login)).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		checkPassword(dummyHash(), password)
		return nil, apperr.Auth("Invalid credentials")
	}
	if err != nil {
		return nil, apperr.Storage(err, "User")
	}
	if !checkPassword(user.PasswordHash, password) {
		return nil, apperr.Auth("Invalid credentials")
	}

	token, exp, err := s.issuer.GenerateToken(&user)
	if err != nil {
		return nil, err
	}

	now := s.issuer.now().UTC()
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login", now).Error; err != nil {
		return nil, apperr.Storage(err, "User")
	}
	user.LastLogin = &now
	return &Session{Token: token, ExpiresAt: exp, User: &user}, nil
}

func (s *Service) User(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, apperr.Storage(err, "User")
	}
	return &user, nil
}

type NewUser struct {
	Username string
	Password string
	Email    string
	FullName string
	Role     models.UserRole
}

func (s *Service) CreateUser(ctx context.Context, in NewUser) (*models.User, error) {
	return CreateUser(s.db.WithContext(ctx), in)
}

// CreateUser stores a user with a bcrypt password hash.
func CreateUser(db *gorm.DB, in NewUser) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Username == "" {
		return nil, apperr.Validation("username is required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperr.Validation("password must be at least %d characters", minPasswordLength)
	}
	if in.Role == "" {
		in.Role = models.RoleManager
	}
	if !in.Role.Valid() {
		return nil, apperr.Validation("role must be admin or manager")
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := models.User{
		Username:     in.Username,
		FullName:     strings.TrimSpace(in.FullName),
		PasswordHash: hash,
		Role:         in.Role,
	}
	if in.Email != "" {
		user.Email = &in.Email
	}
	if err := db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Duplicate("User already exists")
		}
		return nil, apperr.Storage(err, "User")
	}
	return &user, nil
}
