package application

import (
	"context"
	"errors"
	"expvar"

	repo "github.com/oksasatya/go-user-admin/internal/domain/repository"
	"github.com/oksasatya/go-user-admin/pkg/apperror"
)

const MsgInvalidCredentials = "Invalid email or password"

var (
	loginSuccess = expvar.NewInt("login_success_total")
	loginFailure = expvar.NewInt("login_failure_total")
)

// Login checks the credentials and issues a bearer token.
// Unknown e-mail and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			// burn the same bcrypt time as a real comparison
			s.Hasher.Verify(password, s.dummyDigest())
			loginFailure.Add(1)
			return "", apperror.Unauthenticated(MsgInvalidCredentials)
		}
		return "", apperror.Internal("Error logging in", err)
	}
	if !s.Hasher.Verify(password, u.PasswordHash) {
		loginFailure.Add(1)
		return "", apperror.Unauthenticated(MsgInvalidCredentials)
	}

	token, _, err := s.Tokens.Issue(u.ID, u.Email)
	if err != nil {
		return "", apperror.Internal("Error logging in", err)
	}
	loginSuccess.Add(1)
	s.Logger.WithField("user_id", u.ID).Info("user logged in")
	return token, nil
}

func (s *Service) dummyDigest() string {
	s.dummyOnce.Do(func() {
		d, err := s.Hasher.Hash("not-a-real-password")
		if err != nil {
			s.Logger.WithError(err).Warn("dummy digest generation failed")
			return
		}
		s.dummy = d
	})
	return s.dummy
}
