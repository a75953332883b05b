package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/igor-laryush/talkify-bot/internal/domain"
	"github.com/igor-laryush/talkify-bot/internal/repository"
)

// Service provides business operations over users.
type Service struct {
	repo repository.UserRepository
	log  *slog.Logger
}

// NewService constructs a new Service instance.
func NewService(repo repository.UserRepository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// GetOrCreate fetches a user by telegram ID or creates a new profile when
// missing. Calling it for an existing user never mutates stored fields and
// never creates a duplicate; concurrent first contacts converge on one record.
func (s *Service) GetOrCreate(ctx context.Context, telegramUser *telebot.User) (*domain.User, error) {
	if telegramUser == nil {
		return nil, errors.New("telegram user is nil")
	}

	user, err := s.repo.FindByTelegramID(ctx, telegramUser.ID)
	if err == nil {
		return user, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		s.logError("get_or_create.find", telegramUser.ID, err)
		return nil, fmt.Errorf("get user: %w", err)
	}

	newUser := &domain.User{
		TelegramID:       telegramUser.ID,
		Username:         telegramUser.Username,
		Premium:          false,
		Language:         domain.DefaultLanguage,
		PremiumAudioMode: false,
		CreatedAt:        time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, newUser); err != nil {
		s.logError("get_or_create.create", telegramUser.ID, err)
		return nil, fmt.Errorf("create user: %w", err)
	}

	// The insert is a no-op when another execution won the race, so always
	// read the record back.
	user, err = s.repo.FindByTelegramID(ctx, telegramUser.ID)
	if err != nil {
		s.logError("get_or_create.reload", telegramUser.ID, err)
		return nil, fmt.Errorf("reload user: %w", err)
	}

	return user, nil
}

// SetLanguage persists the user's preferred practice language.
func (s *Service) SetLanguage(ctx context.Context, telegramID int64, language domain.Language) error {
	if err := s.repo.SetLanguage(ctx, telegramID, language); err != nil {
		s.logError("set_language", telegramID, err)
		return err
	}

	return nil
}

// SetPremium updates the premium subscription flag.
func (s *Service) SetPremium(ctx context.Context, telegramID int64, premium bool) error {
	if err := s.repo.SetPremium(ctx, telegramID, premium); err != nil {
		s.logError("set_premium", telegramID, err)
		return err
	}

	return nil
}

// SetPremiumAudioMode toggles direct audio routing for a premium user.
func (s *Service) SetPremiumAudioMode(ctx context.Context, telegramID int64, enabled bool) error {
	if err := s.repo.SetPremiumAudioMode(ctx, telegramID, enabled); err != nil {
		s.logError("set_premium_audio_mode", telegramID, err)
		return err
	}

	return nil
}

func (s *Service) logError(operation string, telegramID int64, err error) {
	if s == nil || s.log == nil || err == nil {
		return
	}

	s.log.Error("user service operation failed",
		slog.String("operation", operation),
		slog.Int64("telegram_id", telegramID),
		slog.Any("error", err),
	)
}
