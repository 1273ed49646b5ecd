// Package services contains server-side business logic. This file implements
// UserService, which handles signup, email verification, and login with
// session-JWT issuance.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"time"
	"unicode"

	"fileshare/internal/common"
	"fileshare/internal/dbx"
	"fileshare/internal/server/auth"
	"fileshare/internal/server/config"
	"fileshare/internal/server/email"
	"fileshare/internal/server/models"
	"fileshare/internal/server/repositories/repomanager"
)

// UserService provides account-related operations:
//   - SignUp: create an unverified user and mail a verification token
//   - VerifyEmail: consume the token and mark the account verified
//   - Login: verify credentials and mint a session token
type UserService struct {
	db                                *sql.DB
	repomanager                       repomanager.RepositoryManager
	mailer                            email.Sender
	jwtSecret                         []byte
	accessTokenValidityDuration       time.Duration
	verificationTokenValidityDuration time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, mailer email.Sender, cfg *config.Config) *UserService {
	return &UserService{
		db:                                db,
		repomanager:                       m,
		mailer:                            mailer,
		jwtSecret:                         []byte(cfg.SecretKey),
		accessTokenValidityDuration:       cfg.AccessTokenValidityDuration,
		verificationTokenValidityDuration: cfg.VerificationTokenValidityDuration,
	}
}

// validatePassword enforces the signup password policy: at least 8
// characters, one digit, and one uppercase letter.
func validatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", common.ErrValidation)
	}
	var hasDigit, hasUpper bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsUpper(r):
			hasUpper = true
		}
	}
	if !hasDigit {
		return fmt.Errorf("%w: password must contain at least one digit", common.ErrValidation)
	}
	if !hasUpper {
		return fmt.Errorf("%w: password must contain at least one uppercase letter", common.ErrValidation)
	}
	return nil
}

// SignUp creates an inactive-verification user and sends the verification
// mail. Creating the row and sending the mail happen in one transaction, so
// a relay failure leaves no half-registered account behind.
func (s *UserService) SignUp(ctx context.Context, emailAddr, password, role string) (*models.User, error) {
	if _, err := mail.ParseAddress(emailAddr); err != nil {
		return nil, fmt.Errorf("%w: invalid email address", common.ErrValidation)
	}
	parsedRole, err := models.ParseUserRole(role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return nil, common.ErrInternal
	}

	verificationToken, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, common.ErrInternal
	}

	user := &models.User{
		Email:             emailAddr,
		PasswordHash:      passwordHash,
		IsActive:          true,
		IsVerified:        false,
		Role:              parsedRole,
		VerificationToken: sql.NullString{String: verificationToken, Valid: true},
		VerificationTokenExpiresAt: sql.NullTime{
			Time:  time.Now().Add(s.verificationTokenValidityDuration),
			Valid: true,
		},
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)
		created, err := repo.Create(ctx, user)
		if err != nil {
			return err
		}
		user = created

		return s.mailer.SendVerification(ctx, user.Email, verificationToken)
	})
	if err != nil {
		if errors.Is(err, common.ErrDuplicateEmail) {
			return nil, common.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return user, nil
}

// VerifyEmail consumes a verification token: unknown tokens yield
// ErrInvalidToken, expired ones ErrTokenExpired, and on success the account
// is marked verified with the token fields cleared.
func (s *UserService) VerifyEmail(ctx context.Context, token string) error {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrInvalidToken
		}
		return common.ErrInternal
	}

	if !user.VerificationTokenExpiresAt.Valid {
		return common.ErrInvalidToken
	}
	if user.VerificationTokenExpiresAt.Time.Before(time.Now()) {
		return common.ErrTokenExpired
	}

	return repo.MarkVerified(ctx, user.ID)
}

// Login verifies the credentials and returns a session token. Unknown email,
// wrong password, and deactivated accounts all surface as
// ErrInvalidCredentials; a correct but unverified account surfaces as
// ErrEmailNotVerified.
func (s *UserService) Login(ctx context.Context, emailAddr, password string) (string, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrInvalidCredentials
		}
		return "", common.ErrInternal
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return "", common.ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", common.ErrInvalidCredentials
	}
	if !user.IsVerified {
		return "", common.ErrEmailNotVerified
	}

	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", common.ErrInternal
	}
	return token, nil
}

// GetByID loads a user record; the auth middleware uses it to resolve the
// session subject.
func (s *UserService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, common.ErrInternal
	}
	return user, nil
}
