package user

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"microblog/errs"
)

// ErrInvalidCredentials is returned by Authenticate for an unknown username
// or a wrong password, without telling which.
var ErrInvalidCredentials = errors.New("invalid credentials")

type User struct {
	ID        int
	Username  string
	Email     string
	FirstName string
	LastName  string
	IsAdmin   bool
	CreatedAt time.Time
}

// Service owns the users table. Post, comment and follow rows all hang off
// rows created here.
type Service struct {
	DB *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{DB: db}
}

// Register creates a new account with a bcrypt-hashed password.
func (s *Service) Register(username, email, firstName, lastName, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errs.Validation("username", "Username is required")
	}
	if password == "" {
		return nil, errs.Validation("password", "Password is required")
	}

	var exists bool
	err := s.DB.QueryRow("SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)", username).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errs.Validation("username", "Username is already taken")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	res, err := s.DB.Exec(`
		INSERT INTO users (username, email, password, first_name, last_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		username, email, string(hashed), firstName, lastName, now)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &User{
		ID:        int(id),
		Username:  username,
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		CreatedAt: now,
	}, nil
}

// Authenticate checks a username/password pair.
func (s *Service) Authenticate(username, password string) (*User, error) {
	var (
		u      User
		hashed string
	)
	err := s.DB.QueryRow(`
		SELECT id, username, email, password, first_name, last_name, is_admin, created_at
		FROM users WHERE username = ?`, username).
		Scan(&u.ID, &u.Username, &u.Email, &hashed, &u.FirstName, &u.LastName, &u.IsAdmin, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrInvalidCredentials
	} else if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &u, nil
}

// ByID looks a user up by primary key.
func (s *Service) ByID(id int) (*User, error) {
	return s.scanOne(s.DB.QueryRow(`
		SELECT id, username, email, first_name, last_name, is_admin, created_at
		FROM users WHERE id = ?`, id))
}

// ByUsername looks a user up by unique username.
func (s *Service) ByUsername(username string) (*User, error) {
	return s.scanOne(s.DB.QueryRow(`
		SELECT id, username, email, first_name, last_name, is_admin, created_at
		FROM users WHERE username = ?`, username))
}

func (s *Service) scanOne(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.IsAdmin, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errs.ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return &u, nil
}

// SetAdmin flips the admin flag. Used by fixtures and operators; there is no
// HTTP route for it.
func (s *Service) SetAdmin(id int, admin bool) error {
	res, err := s.DB.Exec("UPDATE users SET is_admin = ? WHERE id = ?", admin, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.ErrNotFound
	}
	return nil
}
