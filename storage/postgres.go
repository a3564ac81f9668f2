package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zofiadobrowolskaa/battleship-web-protocols/domain"
)

type PostgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresRepo(ctx context.Context, connString string) (*PostgresRepo, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	return &PostgresRepo{pool: pool}, nil
}

func (repo *PostgresRepo) Close() {
	repo.pool.Close()
}

func wrapQueryError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
}

// --- users ---

func (repo *PostgresRepo) CreateUser(ctx context.Context, username, email, passwordHash string) (domain.User, error) {
	user := domain.User{Username: username, Email: email}

	row := repo.pool.QueryRow(ctx,
		"INSERT INTO users(username, email, password_hash) VALUES($1, $2, $3) RETURNING id, created_at",
		username, email, passwordHash)

	if err := row.Scan(&user.ID, &user.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			// "23505" is the PostgreSQL error code for unique_violation
			if pgErr.Code == "23505" {
				if pgErr.ConstraintName == "users_email_key" {
					return domain.User{}, domain.ErrDuplicateEmail
				}
				return domain.User{}, domain.ErrDuplicateUsername
			}
		}
		return domain.User{}, wrapQueryError(err)
	}

	return user, nil
}

func (repo *PostgresRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	user := domain.User{Username: username}

	row := repo.pool.QueryRow(ctx,
		"SELECT id, email, password_hash, created_at FROM users WHERE username = $1", username)

	if err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, wrapQueryError(err)
	}

	return user, nil
}

func (repo *PostgresRepo) UpdateUser(ctx context.Context, username, newUsername, newEmail string) (domain.User, error) {
	user := domain.User{Username: newUsername, Email: newEmail}

	row := repo.pool.QueryRow(ctx,
		"UPDATE users SET username = $1, email = $2 WHERE username = $3 RETURNING id, created_at",
		newUsername, newEmail, username)

	if err := row.Scan(&user.ID, &user.CreatedAt); err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return domain.User{}, domain.ErrUserNotFound
		default:
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				if pgErr.ConstraintName == "users_email_key" {
					return domain.User{}, domain.ErrDuplicateEmail
				}
				return domain.User{}, domain.ErrDuplicateUsername
			}
			return domain.User{}, wrapQueryError(err)
		}
	}

	return user, nil
}

func (repo *PostgresRepo) DeleteUser(ctx context.Context, username string) error {
	tag, err := repo.pool.Exec(ctx, "DELETE FROM users WHERE username = $1", username)
	if err != nil {
		return wrapQueryError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (repo *PostgresRepo) SearchUsers(ctx context.Context, query string) ([]domain.User, error) {
	rows, err := repo.pool.Query(ctx,
		"SELECT id, username, created_at FROM users WHERE username ILIKE $1 ORDER BY username",
		"%"+query+"%")
	if err != nil {
		return nil, wrapQueryError(err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Username, &u.CreatedAt); err != nil {
			return nil, wrapQueryError(err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// --- games history ---

// RecordMatch implements game.MatchRecorder.
func (repo *PostgresRepo) RecordMatch(ctx context.Context, winner, loser, reason string) error {
	_, err := repo.pool.Exec(ctx,
		"INSERT INTO games_history (winner_username, loser_username, finish_reason) VALUES ($1, $2, $3)",
		winner, loser, reason)
	if err != nil {
		return wrapQueryError(err)
	}
	return nil
}

func (repo *PostgresRepo) ListMatches(ctx context.Context) ([]domain.MatchRecord, error) {
	rows, err := repo.pool.Query(ctx,
		"SELECT id, winner_username, loser_username, finish_reason, played_at FROM games_history ORDER BY played_at DESC")
	if err != nil {
		return nil, wrapQueryError(err)
	}
	defer rows.Close()

	records := []domain.MatchRecord{}
	for rows.Next() {
		var m domain.MatchRecord
		if err := rows.Scan(&m.ID, &m.WinnerUsername, &m.LoserUsername, &m.FinishReason, &m.PlayedAt); err != nil {
			return nil, wrapQueryError(err)
		}
		records = append(records, m)
	}
	return records, rows.Err()
}

func (repo *PostgresRepo) UpdateMatchReason(ctx context.Context, id int64, reason string) (domain.MatchRecord, error) {
	var m domain.MatchRecord

	row := repo.pool.QueryRow(ctx,
		"UPDATE games_history SET finish_reason = $1 WHERE id = $2 RETURNING id, winner_username, loser_username, finish_reason, played_at",
		reason, id)

	if err := row.Scan(&m.ID, &m.WinnerUsername, &m.LoserUsername, &m.FinishReason, &m.PlayedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.MatchRecord{}, domain.ErrNotFound
		}
		return domain.MatchRecord{}, wrapQueryError(err)
	}
	return m, nil
}

func (repo *PostgresRepo) DeleteMatch(ctx context.Context, id int64) error {
	tag, err := repo.pool.Exec(ctx, "DELETE FROM games_history WHERE id = $1", id)
	if err != nil {
		return wrapQueryError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// --- news ---

func (repo *PostgresRepo) CreateNews(ctx context.Context, title, content string) (domain.News, error) {
	n := domain.News{Title: title, Content: content}

	row := repo.pool.QueryRow(ctx,
		"INSERT INTO news (title, content) VALUES ($1, $2) RETURNING id, created_at", title, content)

	if err := row.Scan(&n.ID, &n.CreatedAt); err != nil {
		return domain.News{}, wrapQueryError(err)
	}
	return n, nil
}

func (repo *PostgresRepo) ListNews(ctx context.Context) ([]domain.News, error) {
	rows, err := repo.pool.Query(ctx,
		"SELECT id, title, content, created_at FROM news ORDER BY created_at DESC")
	if err != nil {
		return nil, wrapQueryError(err)
	}
	defer rows.Close()

	items := []domain.News{}
	for rows.Next() {
		var n domain.News
		if err := rows.Scan(&n.ID, &n.Title, &n.Content, &n.CreatedAt); err != nil {
			return nil, wrapQueryError(err)
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

func (repo *PostgresRepo) UpdateNews(ctx context.Context, id int64, title, content string) (domain.News, error) {
	var n domain.News

	row := repo.pool.QueryRow(ctx,
		"UPDATE news SET title = $1, content = $2 WHERE id = $3 RETURNING id, title, content, created_at",
		title, content, id)

	if err := row.Scan(&n.ID, &n.Title, &n.Content, &n.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.News{}, domain.ErrNotFound
		}
		return domain.News{}, wrapQueryError(err)
	}
	return n, nil
}

func (repo *PostgresRepo) DeleteNews(ctx context.Context, id int64) error {
	tag, err := repo.pool.Exec(ctx, "DELETE FROM news WHERE id = $1", id)
	if err != nil {
		return wrapQueryError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// --- reports ---

func (repo *PostgresRepo) CreateReport(ctx context.Context, username, message string) (domain.Report, error) {
	r := domain.Report{Username: username, Message: message}

	row := repo.pool.QueryRow(ctx,
		"INSERT INTO reports (username, message) VALUES ($1, $2) RETURNING id, is_resolved, created_at",
		username, message)

	if err := row.Scan(&r.ID, &r.IsResolved, &r.CreatedAt); err != nil {
		return domain.Report{}, wrapQueryError(err)
	}
	return r, nil
}

func (repo *PostgresRepo) ListReports(ctx context.Context) ([]domain.Report, error) {
	rows, err := repo.pool.Query(ctx,
		"SELECT id, username, message, is_resolved, created_at FROM reports ORDER BY created_at DESC")
	if err != nil {
		return nil, wrapQueryError(err)
	}
	defer rows.Close()

	reports := []domain.Report{}
	for rows.Next() {
		var r domain.Report
		if err := rows.Scan(&r.ID, &r.Username, &r.Message, &r.IsResolved, &r.CreatedAt); err != nil {
			return nil, wrapQueryError(err)
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

func (repo *PostgresRepo) UpdateReport(ctx context.Context, id int64, resolved bool) (domain.Report, error) {
	var r domain.Report

	row := repo.pool.QueryRow(ctx,
		"UPDATE reports SET is_resolved = $1 WHERE id = $2 RETURNING id, username, message, is_resolved, created_at",
		resolved, id)

	if err := row.Scan(&r.ID, &r.Username, &r.Message, &r.IsResolved, &r.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Report{}, domain.ErrNotFound
		}
		return domain.Report{}, wrapQueryError(err)
	}
	return r, nil
}

func (repo *PostgresRepo) DeleteReport(ctx context.Context, id int64) error {
	tag, err := repo.pool.Exec(ctx, "DELETE FROM reports WHERE id = $1", id)
	if err != nil {
		return wrapQueryError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
