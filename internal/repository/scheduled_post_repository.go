package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"github.com/zacmb/contentsched/internal/models"
)

type ScheduledPostRepository interface {
	GetByCaption(ctx context.Context, caption string) (*models.ScheduledPost, error)
	Create(ctx context.Context, tx *sql.Tx, post *models.ScheduledPost) error
	Remove(ctx context.Context, tx *sql.Tx, postID string) error
	DB() *sql.DB
	Close() error
}

type scheduledPostRepository struct {
	db *sql.DB
}

// Open connects to an account's scheduled_post database. The file must
// already exist: a missing database means the account is not provisioned on
// the device, which is fatal for that account only.
func Open(dbPath string) (ScheduledPostRepository, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("database not found at %s: %w", dbPath, err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to open database %s: %w", dbPath, err)
	}

	return &scheduledPostRepository{db: db}, nil
}

// OpenInit opens (creating if necessary) a database and ensures the
// scheduled_post table exists.
func OpenInit(dbPath string) (ScheduledPostRepository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to open database %s: %w", dbPath, err)
	}

	query := `
		CREATE TABLE IF NOT EXISTS scheduled_post (
			post_id TEXT PRIMARY KEY,
			file_location TEXT,
			caption TEXT,
			post_music TEXT,
			post_type TEXT,
			post_location TEXT,
			scheduled_date TEXT,
			date TEXT,
			is_published INTEGER DEFAULT 0
		)
	`
	if _, err := db.Exec(query); err != nil {
		db.Close()
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to init schema for %s: %w", dbPath, err)
	}

	return &scheduledPostRepository{db: db}, nil
}

func (r *scheduledPostRepository) DB() *sql.DB {
	return r.db
}

func (r *scheduledPostRepository) Close() error {
	return r.db.Close()
}

func (r *scheduledPostRepository) GetByCaption(ctx context.Context, caption string) (*models.ScheduledPost, error) {
	query := `SELECT post_id, file_location, caption, post_music, post_type, post_location, scheduled_date, date, is_published FROM scheduled_post WHERE caption = ?`
	row := r.db.QueryRowContext(ctx, query, caption)

	var post models.ScheduledPost
	err := row.Scan(&post.PostID, &post.FileLocation, &post.Caption, &post.PostMusic, &post.PostType, &post.PostLocation, &post.ScheduledDate, &post.Date, &post.IsPublished)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &post, nil
}

func (r *scheduledPostRepository) Create(ctx context.Context, tx *sql.Tx, post *models.ScheduledPost) error {
	query := `
		INSERT INTO scheduled_post (
			post_id, file_location, caption, post_music,
			post_type, post_location, scheduled_date, date, is_published
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, post.PostID, post.FileLocation, post.Caption, post.PostMusic, post.PostType, post.PostLocation, post.ScheduledDate, post.Date, post.IsPublished)
	} else {
		_, err = r.db.ExecContext(ctx, query, post.PostID, post.FileLocation, post.Caption, post.PostMusic, post.PostType, post.PostLocation, post.ScheduledDate, post.Date, post.IsPublished)
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}

func (r *scheduledPostRepository) Remove(ctx context.Context, tx *sql.Tx, postID string) error {
	query := `DELETE FROM scheduled_post WHERE post_id = ?`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, postID)
	} else {
		_, err = r.db.ExecContext(ctx, query, postID)
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}
