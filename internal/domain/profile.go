package domain

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// IsStaff reports whether the role is allowed to operate the refund
// back-office.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleTeacher
}

type Profile struct {
	ID        int
	Name      string
	Email     string
	Password  password
	Role      Role
	CreatedAt time.Time
	Version   int
}

type password struct {
	Plaintext *string
	Hash      []byte
}

func (p *password) Set(plaintext string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), 12)
	if err != nil {
		return err
	}

	p.Plaintext = &plaintext
	p.Hash = hash

	return nil
}

func (p *password) Matches(plaintext string) (bool, error) {
	err := bcrypt.CompareHashAndPassword(p.Hash, []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

type ProfileRepository interface {
	GetByID(ctx context.Context, id int) (*Profile, error)
	GetByEmail(ctx context.Context, email string) (*Profile, error)
}
