package service

import (
	"context"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-hackauth/app/entity"

	"golang.org/x/crypto/bcrypt"
)

// AccountDirectory is the credential store the flows work against.
type AccountDirectory interface {
	FindByID(ctx context.Context, id uint64) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	Create(ctx context.Context, email, password, name string) (*entity.User, error)
	Save(ctx context.Context, user *entity.User) error
	SetPassword(ctx context.Context, user *entity.User, password string) error
	Authenticate(ctx context.Context, email, password string) (*entity.User, error)
}

type userRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByCanonicalEmail(ctx context.Context, canonicalEmail string) (*entity.User, error)
	FindByID(ctx context.Context, id uint64) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	UpdateLastLogin(ctx context.Context, userID uint64, lastLogin time.Time) error
}

type accountDirectory struct {
	users      userRepository
	bcryptCost int
}

func NewAccountDirectory(users userRepository, bcryptCost int) AccountDirectory {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &accountDirectory{users: users, bcryptCost: bcryptCost}
}

func (d *accountDirectory) FindByID(ctx context.Context, id uint64) (*entity.User, error) {
	return d.users.FindByID(ctx, id)
}

func (d *accountDirectory) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return d.users.FindByCanonicalEmail(ctx, CanonicalizeEmail(email))
}

func (d *accountDirectory) Create(ctx context.Context, email, password, name string) (*entity.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), d.bcryptCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &entity.User{
		Email:          strings.TrimSpace(email),
		CanonicalEmail: CanonicalizeEmail(email),
		Name:           strings.TrimSpace(name),
		PasswordHash:   string(hashedPassword),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err = d.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (d *accountDirectory) Save(ctx context.Context, user *entity.User) error {
	return d.users.Update(ctx, user)
}

func (d *accountDirectory) SetPassword(ctx context.Context, user *entity.User, password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), d.bcryptCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hashedPassword)
	return d.users.Update(ctx, user)
}

func (d *accountDirectory) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	user, err := d.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
