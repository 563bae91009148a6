package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/decode-reader/core/internal/models"
	sessionpkg "github.com/decode-reader/core/internal/pkg/session"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) Register(email, password, ip, ua string) (*models.UserModel, string, error) {
	email = NormalizeEmail(email)

	var count int64
	if err := s.db.Model(&models.UserModel{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, "", err
	}
	if count > 0 {
		return nil, "", errEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	u := models.UserModel{Email: email, Password: string(hash)}
	if err := s.db.Create(&u).Error; err != nil {
		// unique index race
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return nil, "", errEmailTaken
		}
		return nil, "", err
	}

	token, _, err := sessionpkg.Issue(s.db, u.ID, ip, ua, sessionpkg.DefaultTTL)
	if err != nil {
		return nil, "", err
	}
	return &u, token, nil
}

func (s *Service) Login(email, password, ip, ua string) (*models.UserModel, string, error) {
	email = NormalizeEmail(email)

	var u models.UserModel
	if err := s.db.Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", errInvalidCredentials
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, "", errInvalidCredentials
	}

	now := time.Now()
	s.db.Model(&u).Updates(map[string]interface{}{
		"last_login_time": now,
		"last_login_ip":   ip,
	})

	token, _, err := sessionpkg.Issue(s.db, u.ID, ip, ua, sessionpkg.DefaultTTL)
	if err != nil {
		return nil, "", err
	}
	return &u, token, nil
}

func (s *Service) GetUser(userID string) (*models.UserModel, error) {
	var u models.UserModel
	if err := s.db.First(&u, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Service) SignOut(userID, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	err := sessionpkg.Revoke(s.db, userID, sessionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}
