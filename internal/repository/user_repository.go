package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/igor-laryush/talkify-bot/internal/domain"
)

// UserRepository defines persistence operations for users and their exchanges.
type UserRepository interface {
	FindByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	SetLanguage(ctx context.Context, telegramID int64, language domain.Language) error
	SetPremium(ctx context.Context, telegramID int64, premium bool) error
	SetPremiumAudioMode(ctx context.Context, telegramID int64, enabled bool) error

	AppendExchange(ctx context.Context, exchange *domain.Exchange) error
	SumDurationSince(ctx context.Context, userID int64, since time.Time) (float64, error)
	RecentExchanges(ctx context.Context, userID int64, limit int) ([]domain.Exchange, error)

	CountUsers(ctx context.Context) (int64, error)
	CountActiveUsersSince(ctx context.Context, since time.Time) (int64, error)
}

type userRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewUserRepository creates a new SQL-backed user repository.
func NewUserRepository(db *sql.DB, log *slog.Logger) UserRepository {
	return &userRepository{
		db:  db,
		log: log,
	}
}

// FindByTelegramID retrieves a user by their Telegram identifier.
func (r *userRepository) FindByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	const query = `
		SELECT id, telegram_id, username, premium, language, premium_audio_mode, created_at
		FROM users
		WHERE telegram_id = $1
	`

	row := r.db.QueryRowContext(ctx, query, telegramID)

	var (
		user domain.User
		lang string
	)
	if err := row.Scan(
		&user.ID,
		&user.TelegramID,
		&user.Username,
		&user.Premium,
		&lang,
		&user.PremiumAudioMode,
		&user.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}

		r.logError("find user", telegramID, err)
		return nil, fmt.Errorf("select user by telegram id: %w", err)
	}

	user.Language = domain.ParseLanguage(lang)

	return &user, nil
}

// Create persists a new user record. Duplicate telegram ids are ignored so
// that concurrent first contacts never produce a second record.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
		INSERT INTO users (telegram_id, username, premium, language, premium_audio_mode, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (telegram_id) DO NOTHING
	`

	if _, err := r.db.ExecContext(
		ctx,
		query,
		user.TelegramID,
		user.Username,
		user.Premium,
		string(user.Language),
		user.PremiumAudioMode,
		user.CreatedAt,
	); err != nil {
		r.logError("create user", user.TelegramID, err)
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// SetLanguage updates the user's preferred practice language.
func (r *userRepository) SetLanguage(ctx context.Context, telegramID int64, language domain.Language) error {
	const query = `UPDATE users SET language = $2 WHERE telegram_id = $1`

	if _, err := r.db.ExecContext(ctx, query, telegramID, string(language)); err != nil {
		r.logError("set language", telegramID, err)
		return fmt.Errorf("update user language: %w", err)
	}

	return nil
}

// SetPremium updates the user's premium flag.
func (r *userRepository) SetPremium(ctx context.Context, telegramID int64, premium bool) error {
	const query = `UPDATE users SET premium = $2 WHERE telegram_id = $1`

	if _, err := r.db.ExecContext(ctx, query, telegramID, premium); err != nil {
		r.logError("set premium", telegramID, err)
		return fmt.Errorf("update premium flag: %w", err)
	}

	return nil
}

// SetPremiumAudioMode toggles the premium audio routing flag.
func (r *userRepository) SetPremiumAudioMode(ctx context.Context, telegramID int64, enabled bool) error {
	const query = `UPDATE users SET premium_audio_mode = $2 WHERE telegram_id = $1`

	if _, err := r.db.ExecContext(ctx, query, telegramID, enabled); err != nil {
		r.logError("set premium audio mode", telegramID, err)
		return fmt.Errorf("update premium audio mode: %w", err)
	}

	return nil
}

// AppendExchange inserts one exchange record. The exchange log is append-only.
func (r *userRepository) AppendExchange(ctx context.Context, exchange *domain.Exchange) error {
	const query = `
		INSERT INTO exchanges (user_id, input_text, response_text, response_duration, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	if err := r.db.QueryRowContext(
		ctx,
		query,
		exchange.UserID,
		exchange.InputText,
		exchange.ResponseText,
		exchange.ResponseDuration,
		exchange.CreatedAt,
	).Scan(&exchange.ID); err != nil {
		r.logError("append exchange", exchange.UserID, err)
		return fmt.Errorf("insert exchange: %w", err)
	}

	return nil
}

// SumDurationSince aggregates response durations for the trailing quota window.
func (r *userRepository) SumDurationSince(ctx context.Context, userID int64, since time.Time) (float64, error) {
	const query = `
		SELECT COALESCE(SUM(response_duration), 0)
		FROM exchanges
		WHERE user_id = $1 AND created_at >= $2
	`

	var total float64
	if err := r.db.QueryRowContext(ctx, query, userID, since).Scan(&total); err != nil {
		r.logError("sum duration", userID, err)
		return 0, fmt.Errorf("sum exchange duration: %w", err)
	}

	return total, nil
}

// RecentExchanges returns the user's latest exchanges, newest first.
func (r *userRepository) RecentExchanges(ctx context.Context, userID int64, limit int) ([]domain.Exchange, error) {
	const query = `
		SELECT id, user_id, input_text, response_text, response_duration, created_at
		FROM exchanges
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		r.logError("recent exchanges", userID, err)
		return nil, fmt.Errorf("select recent exchanges: %w", err)
	}
	defer rows.Close()

	var exchanges []domain.Exchange
	for rows.Next() {
		var ex domain.Exchange
		if err := rows.Scan(&ex.ID, &ex.UserID, &ex.InputText, &ex.ResponseText, &ex.ResponseDuration, &ex.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan exchange: %w", err)
		}
		exchanges = append(exchanges, ex)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exchanges: %w", err)
	}

	return exchanges, nil
}

// CountUsers returns the total number of user records.
func (r *userRepository) CountUsers(ctx context.Context) (int64, error) {
	const query = `SELECT COUNT(*) FROM users`

	var count int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}

	return count, nil
}

// CountActiveUsersSince counts users with at least one exchange after since.
func (r *userRepository) CountActiveUsersSince(ctx context.Context, since time.Time) (int64, error) {
	const query = `SELECT COUNT(DISTINCT user_id) FROM exchanges WHERE created_at >= $1`

	var count int64
	if err := r.db.QueryRowContext(ctx, query, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("count active users: %w", err)
	}

	return count, nil
}

func (r *userRepository) logError(operation string, telegramID int64, err error) {
	if r.log == nil || err == nil {
		return
	}

	r.log.Error("repository operation failed",
		slog.String("operation", operation),
		slog.Int64("telegram_id", telegramID),
		slog.Any("error", err),
	)
}
