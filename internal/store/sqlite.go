// Package store provides storage backends for AthenaPipe.
//
// This file implements the SQLite-backed store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	"github.com/AthenaAdvising/AthenaPipe/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore persists profiles and sessions in an SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN (a file path).
// The parent directory is created if necessary.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

// SaveStudent inserts or replaces a student profile.
func (s *SQLiteStore) SaveStudent(p models.StudentProfile) error {
	competitions, err := encodeJSON(p.Competitions)
	if err != nil {
		return fmt.Errorf("failed to encode competitions: %w", err)
	}
	notes, err := encodeJSON(p.Notes)
	if err != nil {
		return fmt.Errorf("failed to encode notes: %w", err)
	}
	goals, err := encodeJSON(p.Goals)
	if err != nil {
		return fmt.Errorf("failed to encode goals: %w", err)
	}
	topics, err := encodeJSON(p.Topics)
	if err != nil {
		return fmt.Errorf("failed to encode topics: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO students
			(student_id, name, grade, future_study, deep_interest, unique_something,
			 current_extracurriculars, favorite_courses, competitions, notes, goals, topics,
			 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.StudentID, p.Name, p.Grade, p.FutureStudy, p.DeepInterest, p.UniqueSomething,
		p.CurrentExtracurriculars, p.FavoriteCourses, competitions, notes, goals, topics,
		p.CreatedAt, p.UpdatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveStudent failed", "error", err, "studentID", p.StudentID)
		return fmt.Errorf("failed to save student %s: %w", p.StudentID, err)
	}
	slog.Debug("SQLiteStore SaveStudent succeeded", "studentID", p.StudentID)
	return nil
}

const studentColumns = `student_id, name, grade, future_study, deep_interest, unique_something,
	current_extracurriculars, favorite_courses, competitions, notes, goals, topics,
	created_at, updated_at`

func scanStudent(row interface{ Scan(...interface{}) error }) (models.StudentProfile, error) {
	var p models.StudentProfile
	var competitions, notes, goals, topics string
	err := row.Scan(&p.StudentID, &p.Name, &p.Grade, &p.FutureStudy, &p.DeepInterest,
		&p.UniqueSomething, &p.CurrentExtracurriculars, &p.FavoriteCourses,
		&competitions, &notes, &goals, &topics, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return p, err
	}
	p.Competitions = decodeStrings(competitions)
	p.Notes = decodeStrings(notes)
	p.Goals = decodeStrings(goals)
	p.Topics = decodeStrings(topics)
	return p, nil
}

// GetStudent retrieves a profile by student id.
func (s *SQLiteStore) GetStudent(studentID string) (*models.StudentProfile, error) {
	row := s.db.QueryRow(`SELECT `+studentColumns+` FROM students WHERE student_id = ?`, studentID)
	p, err := scanStudent(row)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore GetStudent not found", "studentID", studentID)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetStudent failed", "error", err, "studentID", studentID)
		return nil, fmt.Errorf("failed to get student %s: %w", studentID, err)
	}
	return &p, nil
}

// ListStudents returns all known profiles.
func (s *SQLiteStore) ListStudents() ([]models.StudentProfile, error) {
	rows, err := s.db.Query(`SELECT ` + studentColumns + ` FROM students`)
	if err != nil {
		slog.Error("SQLiteStore ListStudents query failed", "error", err)
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	defer rows.Close()

	var students []models.StudentProfile
	for rows.Next() {
		p, err := scanStudent(rows)
		if err != nil {
			slog.Error("SQLiteStore ListStudents scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan student row: %w", err)
		}
		students = append(students, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate student rows: %w", err)
	}
	slog.Debug("SQLiteStore ListStudents succeeded", "count", len(students))
	return students, nil
}

// SaveSession inserts or replaces per-student session state.
func (s *SQLiteStore) SaveSession(sess models.SessionState) error {
	conversation, err := encodeJSON(sess.Conversation)
	if err != nil {
		return fmt.Errorf("failed to encode conversation: %w", err)
	}
	stages, err := encodeJSON(sess.Stages)
	if err != nil {
		return fmt.Errorf("failed to encode stages: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO sessions
			(student_id, conversation, conversation_summary, mentor_cooldown, goal_cooldown, stages, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.StudentID, conversation, sess.ConversationSummary,
		sess.MentorCooldown, sess.GoalCooldown, stages, sess.CreatedAt, sess.UpdatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveSession failed", "error", err, "studentID", sess.StudentID)
		return fmt.Errorf("failed to save session %s: %w", sess.StudentID, err)
	}
	slog.Debug("SQLiteStore SaveSession succeeded", "studentID", sess.StudentID)
	return nil
}

// GetSession retrieves session state by student id.
func (s *SQLiteStore) GetSession(studentID string) (*models.SessionState, error) {
	var sess models.SessionState
	var conversation, stages string
	err := s.db.QueryRow(`
		SELECT student_id, conversation, conversation_summary, mentor_cooldown, goal_cooldown, stages, created_at, updated_at
		FROM sessions WHERE student_id = ?`, studentID).Scan(
		&sess.StudentID, &conversation, &sess.ConversationSummary,
		&sess.MentorCooldown, &sess.GoalCooldown, &stages, &sess.CreatedAt, &sess.UpdatedAt)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore GetSession not found", "studentID", studentID)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetSession failed", "error", err, "studentID", studentID)
		return nil, fmt.Errorf("failed to get session %s: %w", studentID, err)
	}
	sess.Conversation = decodeConversation(conversation)
	sess.Stages = decodeStages(stages)
	return &sess, nil
}

// DeleteSession removes session state for a student.
func (s *SQLiteStore) DeleteSession(studentID string) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE student_id = ?`, studentID)
	if err != nil {
		slog.Error("SQLiteStore DeleteSession failed", "error", err, "studentID", studentID)
		return fmt.Errorf("failed to delete session %s: %w", studentID, err)
	}
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite database connection")
	return s.db.Close()
}
