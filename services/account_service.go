package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"churchhub/config"
	"churchhub/models"
)

// AccountService manages church-staff accounts. The redis client is
// optional; without it account lookups skip the cache.
type AccountService struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewAccountService creates an account service.
func NewAccountService(db *gorm.DB, rdb *redis.Client) *AccountService {
	return &AccountService{db: db, rdb: rdb}
}

// Register creates a staff account for an existing person. Only accounts
// with manage_users may register new accounts.
func (s *AccountService) Register(actor *models.ChurchUser, req models.RegisterUserRequest) (*models.ChurchUser, error) {
	if !actor.HasPermission(models.PermManageUsers) {
		return nil, fmt.Errorf("%w: register account", ErrUnauthorized)
	}
	if !models.ValidUserRole(req.Role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, req.Role)
	}

	var person models.Person
	if err := s.db.Where("church_id = ?", actor.ChurchID).First(&person, req.PersonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: person %d", ErrNotFound, req.PersonID)
		}
		return nil, err
	}

	var existing models.ChurchUser
	if err := s.db.Where("username = ? OR person_id = ?", req.Username, req.PersonID).First(&existing).Error; err == nil {
		return nil, fmt.Errorf("%w: username or person already has an account", ErrValidation)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.ChurchUser{
		ChurchID:            actor.ChurchID,
		PersonID:            req.PersonID,
		Username:            req.Username,
		Password:            string(hashed),
		Role:                req.Role,
		GroupLeaderships:    []uint{},
		SubgroupLeaderships: []uint{},
		IsActive:            true,
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies a username and password and returns the account.
func (s *AccountService) Login(username, password string) (*models.ChurchUser, error) {
	var user models.ChurchUser
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invalid username or password", ErrUnauthorized)
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: account disabled", ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: invalid username or password", ErrUnauthorized)
	}
	return &user, nil
}

// GetUserByID returns an account by id, via the cache when available.
func (s *AccountService) GetUserByID(id uint) (*models.ChurchUser, error) {
	var user models.ChurchUser

	ctx := context.Background()
	key := fmt.Sprintf("account:%d", id)

	if s.rdb != nil {
		userJSON, err := s.rdb.Get(ctx, key).Result()
		if err == nil {
			if err := json.Unmarshal([]byte(userJSON), &user); err == nil {
				return &user, nil
			}
		}
	}

	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: account %d", ErrNotFound, id)
		}
		return nil, err
	}

	if s.rdb != nil {
		userBytes, _ := json.Marshal(user)
		s.rdb.Set(ctx, key, userBytes, time.Duration(config.AppConfig.CacheExpiration)*time.Second)
	}
	return &user, nil
}

// InvalidateUser drops an account from the cache. Callers that mutate
// accounts outside this service (leadership sync, cascades) use this to
// keep cached actors fresh.
func (s *AccountService) InvalidateUser(id uint) {
	if s.rdb == nil {
		return
	}
	s.rdb.Del(context.Background(), fmt.Sprintf("account:%d", id))
}

// ListUsers returns all staff accounts in the actor's church.
func (s *AccountService) ListUsers(actor *models.ChurchUser) ([]models.ChurchUserResponse, error) {
	if !actor.HasPermission(models.PermManageUsers) {
		return nil, fmt.Errorf("%w: list accounts", ErrUnauthorized)
	}

	var users []models.ChurchUser
	if err := s.db.Where("church_id = ?", actor.ChurchID).Find(&users).Error; err != nil {
		return nil, err
	}

	responses := make([]models.ChurchUserResponse, len(users))
	for i := range users {
		responses[i] = users[i].Response()
	}
	return responses, nil
}

// SetRole changes an account's role; permissions are re-derived on save.
func (s *AccountService) SetRole(actor *models.ChurchUser, userID uint, role string) (*models.ChurchUser, error) {
	if !actor.HasPermission(models.PermManageUsers) {
		return nil, fmt.Errorf("%w: change role", ErrUnauthorized)
	}
	if !models.ValidUserRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}

	var user models.ChurchUser
	if err := s.db.Where("church_id = ?", actor.ChurchID).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: account %d", ErrNotFound, userID)
		}
		return nil, err
	}

	user.Role = role
	if err := s.db.Save(&user).Error; err != nil {
		return nil, err
	}
	s.InvalidateUser(user.ID)
	return &user, nil
}

// ChangePassword verifies the old password and stores a new hash.
func (s *AccountService) ChangePassword(userID uint, oldPassword, newPassword string) error {
	var user models.ChurchUser
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: account %d", ErrNotFound, userID)
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
		return fmt.Errorf("%w: old password does not match", ErrUnauthorized)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.Password = string(hashed)

	if err := s.db.Save(&user).Error; err != nil {
		return err
	}
	s.InvalidateUser(user.ID)
	return nil
}
