package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/studiowebux/mcdu/internal/migrations"
)

const timestampLayout = time.RFC3339Nano

// Recorder stores frames in a SQLite database
type Recorder struct {
	db *sql.DB
}

// NewRecorder opens (or creates) the database at dbPath and migrates it
func NewRecorder(dbPath string) (*Recorder, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}

	// Run database migrations
	if err := migrations.Run(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Recorder{db: db}, nil
}

// RecordFrame stores an update payload with its decode outcome.
// It satisfies the relay's recorder hook.
func (r *Recorder) RecordFrame(remote, payload string, decodeErr error) error {
	frame := Frame{
		ReceivedAt: time.Now().UTC(),
		Remote:     remote,
		Payload:    payload,
		Size:       len(payload),
	}
	if decodeErr != nil {
		frame.Error = decodeErr.Error()
	}
	_, err := r.Record(frame)
	return err
}

// Record inserts frame and returns its id
func (r *Recorder) Record(frame Frame) (int64, error) {
	if frame.ReceivedAt.IsZero() {
		frame.ReceivedAt = time.Now().UTC()
	}

	var errText sql.NullString
	if frame.Error != "" {
		errText = sql.NullString{String: frame.Error, Valid: true}
	}

	result, err := r.db.Exec(
		"INSERT INTO frames (received_at, remote, payload, size, error) VALUES (?, ?, ?, ?, ?)",
		frame.ReceivedAt.UTC().Format(timestampLayout),
		frame.Remote,
		frame.Payload,
		len(frame.Payload),
		errText,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save frame: %w", err)
	}

	return result.LastInsertId()
}

// List returns recorded frames, newest first unless opts.Oldest is set
func (r *Recorder) List(opts ListOptions) ([]Frame, error) {
	var where []string
	var args []any

	if opts.Remote != "" {
		where = append(where, "remote = ?")
		args = append(args, opts.Remote)
	}
	if opts.AcceptedOnly {
		where = append(where, "error IS NULL")
	}

	query := "SELECT id, received_at, remote, payload, size, error FROM frames"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if opts.Oldest {
		query += " ORDER BY id ASC"
	} else {
		query += " ORDER BY id DESC"
	}
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load frames: %w", err)
	}
	defer rows.Close()

	return scanFrames(rows)
}

func scanFrames(rows *sql.Rows) ([]Frame, error) {
	var frames []Frame

	for rows.Next() {
		var frame Frame
		var receivedAt string
		var errText sql.NullString

		if err := rows.Scan(&frame.ID, &receivedAt, &frame.Remote, &frame.Payload, &frame.Size, &errText); err != nil {
			return nil, fmt.Errorf("failed to scan frame: %w", err)
		}

		parsed, err := time.Parse(timestampLayout, receivedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse timestamp %q: %w", receivedAt, err)
		}
		frame.ReceivedAt = parsed
		frame.Error = errText.String

		frames = append(frames, frame)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read frames: %w", err)
	}

	return frames, nil
}

// Count returns the number of recorded frames
func (r *Recorder) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM frames").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count frames: %w", err)
	}
	return count, nil
}

// Prune deletes all but the newest keep frames and returns how many were removed
func (r *Recorder) Prune(keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	result, err := r.db.Exec(
		"DELETE FROM frames WHERE id NOT IN (SELECT id FROM frames ORDER BY id DESC LIMIT ?)",
		keep,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune frames: %w", err)
	}
	return result.RowsAffected()
}

// Clear deletes every recorded frame
func (r *Recorder) Clear() error {
	if _, err := r.db.Exec("DELETE FROM frames"); err != nil {
		return fmt.Errorf("failed to clear frames: %w", err)
	}
	return nil
}

// Close closes the database
func (r *Recorder) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
