package service

import (
	"errors"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"example.com/storefront/internal/model"
)

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Phone     string
	Role      model.Role
}

type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
	Phone     *string
}

type AddressInput struct {
	Street    string
	City      string
	State     string
	ZipCode   string
	Country   string
	IsDefault bool
}

type AccountService interface {
	Register(in RegisterInput) (*model.User, error)
	Authenticate(email, password string) (*model.User, error)
	UserByID(id uint) (*model.User, error)
	UpdateProfile(id uint, in UpdateProfileInput) (*model.User, error)
	ChangePassword(id uint, oldPassword, newPassword string) error
	Customers(page, limit int) ([]model.User, Pagination, error)
	AddAddress(userID uint, in AddressInput) (*model.User, error)
	UpdateAddress(userID, addressID uint, in AddressInput) (*model.User, error)
	DeleteAddress(userID, addressID uint) (*model.User, error)
	Deactivate(userID uint) error
}

type accountService struct{ db *gorm.DB }

func NewAccountService(db *gorm.DB) AccountService { return &accountService{db: db} }

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *accountService) Register(in RegisterInput) (*model.User, error) {
	email := normalizeEmail(in.Email)
	if in.FirstName == "" || in.LastName == "" || email == "" {
		return nil, Errorf(KindValidation, "first name, last name and email are required")
	}
	if len(in.Password) < 6 {
		return nil, Errorf(KindValidation, "password must be at least 6 characters")
	}
	role := in.Role
	if role == "" {
		role = model.RoleCustomer
	}
	if !role.Valid() {
		return nil, Errorf(KindValidation, "unknown role %q", in.Role)
	}

	var count int64
	if err := s.db.Model(&model.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "check email")
	}
	if count > 0 {
		return nil, Errorf(KindDuplicate, "user with this email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "hash password")
	}

	u := model.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        email,
		PasswordHash: string(hash),
		Phone:        in.Phone,
		Role:         role,
		Active:       true,
	}
	if err := s.db.Create(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, Errorf(KindDuplicate, "user with this email already exists")
		}
		return nil, pkgerrors.Wrap(err, "create user")
	}
	return &u, nil
}

func (s *accountService) Authenticate(email, password string) (*model.User, error) {
	var u model.User
	err := s.db.Where("email = ?", normalizeEmail(email)).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, Errorf(KindUnauthorized, "invalid credentials")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "load user")
	}
	if !u.Active {
		return nil, Errorf(KindForbidden, "account is inactive")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, Errorf(KindUnauthorized, "invalid credentials")
	}

	now := time.Now().UTC()
	if err := s.db.Model(&u).Update("last_login", now).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "stamp last login")
	}
	u.LastLogin = &now
	return &u, nil
}

func (s *accountService) UserByID(id uint) (*model.User, error) {
	var u model.User
	if err := s.db.Preload("Addresses").First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Errorf(KindNotFound, "user %d not found", id)
		}
		return nil, pkgerrors.Wrap(err, "load user")
	}
	return &u, nil
}

// UpdateProfile deliberately has no email or password fields; those change
// through Register/ChangePassword only.
func (s *accountService) UpdateProfile(id uint, in UpdateProfileInput) (*model.User, error) {
	u, err := s.UserByID(id)
	if err != nil {
		return nil, err
	}
	updates := map[string]any{}
	if in.FirstName != nil {
		updates["first_name"] = *in.FirstName
	}
	if in.LastName != nil {
		updates["last_name"] = *in.LastName
	}
	if in.Phone != nil {
		updates["phone"] = *in.Phone
	}
	if len(updates) > 0 {
		if err := s.db.Model(u).Updates(updates).Error; err != nil {
			return nil, pkgerrors.Wrap(err, "update profile")
		}
	}
	return s.UserByID(id)
}

func (s *accountService) ChangePassword(id uint, oldPassword, newPassword string) error {
	u, err := s.UserByID(id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(oldPassword)) != nil {
		return Errorf(KindUnauthorized, "current password is incorrect")
	}
	if len(newPassword) < 6 {
		return Errorf(KindValidation, "password must be at least 6 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return pkgerrors.Wrap(err, "hash password")
	}
	return s.db.Model(u).Update("password_hash", string(hash)).Error
}

func (s *accountService) Customers(page, limit int) ([]model.User, Pagination, error) {
	page, limit = normalizePage(page, limit)
	q := s.db.Model(&model.User{}).Where("role = ?", model.RoleCustomer)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, Pagination{}, pkgerrors.Wrap(err, "count customers")
	}
	var users []model.User
	err := q.Order("created_at desc").Offset((page - 1) * limit).Limit(limit).Find(&users).Error
	if err != nil {
		return nil, Pagination{}, pkgerrors.Wrap(err, "list customers")
	}
	return users, newPagination(page, limit, total), nil
}

func (s *accountService) AddAddress(userID uint, in AddressInput) (*model.User, error) {
	u, err := s.UserByID(userID)
	if err != nil {
		return nil, err
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if in.IsDefault {
			if err := clearDefaultAddress(tx, userID); err != nil {
				return err
			}
		}
		addr := model.Address{
			UserID:    u.ID,
			Street:    in.Street,
			City:      in.City,
			State:     in.State,
			ZipCode:   in.ZipCode,
			Country:   in.Country,
			IsDefault: in.IsDefault,
		}
		return tx.Create(&addr).Error
	})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "add address")
	}
	return s.UserByID(userID)
}

func (s *accountService) UpdateAddress(userID, addressID uint, in AddressInput) (*model.User, error) {
	var addr model.Address
	err := s.db.Where("id = ? AND user_id = ?", addressID, userID).First(&addr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, Errorf(KindNotFound, "address %d not found", addressID)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "load address")
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if in.IsDefault && !addr.IsDefault {
			if err := clearDefaultAddress(tx, userID); err != nil {
				return err
			}
		}
		return tx.Model(&addr).Updates(map[string]any{
			"street":     in.Street,
			"city":       in.City,
			"state":      in.State,
			"zip_code":   in.ZipCode,
			"country":    in.Country,
			"is_default": in.IsDefault,
		}).Error
	})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "update address")
	}
	return s.UserByID(userID)
}

func (s *accountService) DeleteAddress(userID, addressID uint) (*model.User, error) {
	res := s.db.Where("id = ? AND user_id = ?", addressID, userID).Delete(&model.Address{})
	if res.Error != nil {
		return nil, pkgerrors.Wrap(res.Error, "delete address")
	}
	if res.RowsAffected == 0 {
		return nil, Errorf(KindNotFound, "address %d not found", addressID)
	}
	return s.UserByID(userID)
}

func (s *accountService) Deactivate(userID uint) error {
	res := s.db.Model(&model.User{}).Where("id = ?", userID).Update("active", false)
	if res.Error != nil {
		return pkgerrors.Wrap(res.Error, "deactivate user")
	}
	if res.RowsAffected == 0 {
		return Errorf(KindNotFound, "user %d not found", userID)
	}
	return nil
}

// At most one address per user carries the default flag.
func clearDefaultAddress(tx *gorm.DB, userID uint) error {
	return tx.Model(&model.Address{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error
}
