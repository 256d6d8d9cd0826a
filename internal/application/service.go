package application

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-admin/internal/domain/entity"
	repo "github.com/oksasatya/go-user-admin/internal/domain/repository"
	"github.com/oksasatya/go-user-admin/pkg/helpers"
)

// EventPublisher delivers user events to the message broker.
type EventPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// UserSearcher queries the search mirror of the user store.
type UserSearcher interface {
	Search(ctx context.Context, q string, size int) ([]entity.User, error)
}

const publishTimeout = 2 * time.Second

type Service struct {
	Repo   repo.UserRepository
	Hasher helpers.PasswordHasher
	Tokens *helpers.TokenManager
	Logger *logrus.Logger
	// Events and Search are optional.
	Events EventPublisher
	Search UserSearcher

	now       func() time.Time
	dummyOnce sync.Once
	dummy     string
}

func NewService(r repo.UserRepository, hasher helpers.PasswordHasher, tokens *helpers.TokenManager, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = helpers.DiscardLogger()
	}
	return &Service{
		Repo:   r,
		Hasher: hasher,
		Tokens: tokens,
		Logger: logger,
		now:    time.Now,
	}
}

func (s *Service) WithEvents(p EventPublisher) *Service {
	s.Events = p
	return s
}

func (s *Service) WithSearch(searcher UserSearcher) *Service {
	s.Search = searcher
	return s
}

// publish sends an event without failing the write that caused it.
func (s *Service) publish(ctx context.Context, t entity.UserEventType, u *entity.User) {
	if s.Events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.Events.PublishJSON(ctx, entity.NewUserEvent(t, u, s.now())); err != nil {
		s.Logger.WithError(err).WithFields(logrus.Fields{"event": t, "user_id": u.ID}).Warn("publish user event failed")
	}
}
