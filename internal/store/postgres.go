// Package store provides storage backends for AthenaPipe.
//
// This file implements the PostgreSQL-backed store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "embed"

	"github.com/AthenaAdvising/AthenaPipe/internal/models"
	_ "github.com/lib/pq"
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore persists profiles and sessions in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL store with the given DSN.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresStore invoked", "DSN_set", cfg.DSN != "")

	if cfg.DSN == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		slog.Error("Failed to open PostgreSQL connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("PostgreSQL ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("PostgreSQL migrations applied successfully")

	return &PostgresStore{db: db}, nil
}

// SaveStudent inserts or updates a student profile.
func (s *PostgresStore) SaveStudent(p models.StudentProfile) error {
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
		INSERT INTO students
			(student_id, name, grade, future_study, deep_interest, unique_something,
			 current_extracurriculars, favorite_courses, competitions, notes, goals, topics,
			 created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (student_id) DO UPDATE SET
			name = EXCLUDED.name,
			grade = EXCLUDED.grade,
			future_study = EXCLUDED.future_study,
			deep_interest = EXCLUDED.deep_interest,
			unique_something = EXCLUDED.unique_something,
			current_extracurriculars = EXCLUDED.current_extracurriculars,
			favorite_courses = EXCLUDED.favorite_courses,
			competitions = EXCLUDED.competitions,
			notes = EXCLUDED.notes,
			goals = EXCLUDED.goals,
			topics = EXCLUDED.topics,
			updated_at = EXCLUDED.updated_at`,
		p.StudentID, p.Name, p.Grade, p.FutureStudy, p.DeepInterest, p.UniqueSomething,
		p.CurrentExtracurriculars, p.FavoriteCourses, competitions, notes, goals, topics,
		p.CreatedAt, p.UpdatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveStudent failed", "error", err, "studentID", p.StudentID)
		return fmt.Errorf("failed to save student %s: %w", p.StudentID, err)
	}
	slog.Debug("PostgresStore SaveStudent succeeded", "studentID", p.StudentID)
	return nil
}

// GetStudent retrieves a profile by student id.
func (s *PostgresStore) GetStudent(studentID string) (*models.StudentProfile, error) {
	row := s.db.QueryRow(`SELECT `+studentColumns+` FROM students WHERE student_id = $1`, studentID)
	p, err := scanStudent(row)
	if err == sql.ErrNoRows {
		slog.Debug("PostgresStore GetStudent not found", "studentID", studentID)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetStudent failed", "error", err, "studentID", studentID)
		return nil, fmt.Errorf("failed to get student %s: %w", studentID, err)
	}
	return &p, nil
}

// ListStudents returns all known profiles.
func (s *PostgresStore) ListStudents() ([]models.StudentProfile, error) {
	rows, err := s.db.Query(`SELECT ` + studentColumns + ` FROM students`)
	if err != nil {
		slog.Error("PostgresStore ListStudents query failed", "error", err)
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	defer rows.Close()

	var students []models.StudentProfile
	for rows.Next() {
		p, err := scanStudent(rows)
		if err != nil {
			slog.Error("PostgresStore ListStudents scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan student row: %w", err)
		}
		students = append(students, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate student rows: %w", err)
	}
	return students, nil
}

// SaveSession inserts or updates per-student session state.
func (s *PostgresStore) SaveSession(sess models.SessionState) error {
	conversation, err := encodeJSON(sess.Conversation)
	if err != nil {
		return fmt.Errorf("failed to encode conversation: %w", err)
	}
	stages, err := encodeJSON(sess.Stages)
	if err != nil {
		return fmt.Errorf("failed to encode stages: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO sessions
			(student_id, conversation, conversation_summary, mentor_cooldown, goal_cooldown, stages, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (student_id) DO UPDATE SET
			conversation = EXCLUDED.conversation,
			conversation_summary = EXCLUDED.conversation_summary,
			mentor_cooldown = EXCLUDED.mentor_cooldown,
			goal_cooldown = EXCLUDED.goal_cooldown,
			stages = EXCLUDED.stages,
			updated_at = EXCLUDED.updated_at`,
		sess.StudentID, conversation, sess.ConversationSummary,
		sess.MentorCooldown, sess.GoalCooldown, stages, sess.CreatedAt, sess.UpdatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveSession failed", "error", err, "studentID", sess.StudentID)
		return fmt.Errorf("failed to save session %s: %w", sess.StudentID, err)
	}
	return nil
}

// GetSession retrieves session state by student id.
func (s *PostgresStore) GetSession(studentID string) (*models.SessionState, error) {
	var sess models.SessionState
	var conversation, stages string
	err := s.db.QueryRow(`
		SELECT student_id, conversation, conversation_summary, mentor_cooldown, goal_cooldown, stages, created_at, updated_at
		FROM sessions WHERE student_id = $1`, studentID).Scan(
		&sess.StudentID, &conversation, &sess.ConversationSummary,
		&sess.MentorCooldown, &sess.GoalCooldown, &stages, &sess.CreatedAt, &sess.UpdatedAt)
	if err == sql.ErrNoRows {
		slog.Debug("PostgresStore GetSession not found", "studentID", studentID)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetSession failed", "error", err, "studentID", studentID)
		return nil, fmt.Errorf("failed to get session %s: %w", studentID, err)
	}
	sess.Conversation = decodeConversation(conversation)
	sess.Stages = decodeStages(stages)
	return &sess, nil
}

// DeleteSession removes session state for a student.
func (s *PostgresStore) DeleteSession(studentID string) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE student_id = $1`, studentID)
	if err != nil {
		slog.Error("PostgresStore DeleteSession failed", "error", err, "studentID", studentID)
		return fmt.Errorf("failed to delete session %s: %w", studentID, err)
	}
	return nil
}

// Close closes the PostgreSQL connection pool.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing PostgreSQL connection pool")
	return s.db.Close()
}
