package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/AthenaAdvising/AthenaPipe/internal/models"
)

// chatHandler processes one student turn: POST /chat {student_id, message}.
func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	result, err := s.router.ProcessMessage(r.Context(), req.StudentID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrStudentNotFound):
			writeJSONResponse(w, http.StatusNotFound, models.Error("Student not found"))
		case errors.Is(err, models.ErrEmptyStudentID), errors.Is(err, models.ErrEmptyMessage):
			writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		default:
			slog.Error("Server.chatHandler: turn failed", "error", err, "studentID", req.StudentID)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to process message"))
		}
		return
	}

	writeJSONResponse(w, http.StatusOK, models.Success(models.ChatResponse{
		Conversation: result.Conversation,
		LastResponse: result.LastResponse(),
		MentorID:     result.MentorID,
	}))
}

// studentHandler upserts a profile by normalized name: POST /student.
func (s *Server) studentHandler(w http.ResponseWriter, r *http.Request) {
	var req models.StudentUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	studentID := models.NormalizeStudentID(req.Name)
	profile, err := s.store.GetStudent(studentID)
	if err != nil {
		slog.Error("Server.studentHandler: failed to load student", "error", err, "studentID", studentID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load student"))
		return
	}

	now := time.Now()
	if profile == nil {
		profile = &models.StudentProfile{StudentID: studentID, CreatedAt: now}
	}
	profile.Name = req.Name
	patchField(&profile.Grade, req.Grade)
	patchField(&profile.FutureStudy, req.FutureStudy)
	patchField(&profile.DeepInterest, req.DeepInterest)
	patchField(&profile.UniqueSomething, req.UniqueSomething)
	patchField(&profile.CurrentExtracurriculars, req.CurrentExtracurriculars)
	patchField(&profile.FavoriteCourses, req.FavoriteCourses)
	profile.UpdatedAt = now

	if err := s.store.SaveStudent(*profile); err != nil {
		slog.Error("Server.studentHandler: failed to save student", "error", err, "studentID", studentID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to save student"))
		return
	}

	// Create the session eagerly so the first chat turn starts from a
	// persisted record.
	session, err := s.router.Sessions().GetOrCreate(studentID)
	if err != nil {
		slog.Warn("Server.studentHandler: failed to create session", "error", err, "studentID", studentID)
	} else if saveErr := s.router.Sessions().Save(session); saveErr != nil {
		slog.Warn("Server.studentHandler: failed to persist session", "error", saveErr, "studentID", studentID)
	}

	slog.Info("Server.studentHandler: student upserted", "studentID", studentID)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Student saved", map[string]string{"student_id": studentID}))
}

// patchField overwrites dst only when the request provided a value.
func patchField(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// startersHandler returns personalized conversation starters:
// GET /starters/{id}.
func (s *Server) startersHandler(w http.ResponseWriter, r *http.Request) {
	studentID := r.PathValue("id")
	starters, err := s.router.ConversationStarters(r.Context(), studentID)
	if err != nil {
		if errors.Is(err, models.ErrStudentNotFound) {
			writeJSONResponse(w, http.StatusNotFound, models.Error("Student not found"))
			return
		}
		slog.Error("Server.startersHandler: failed to generate starters", "error", err, "studentID", studentID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to generate starters"))
		return
	}
	if starters == nil {
		starters = []string{}
	}
	writeJSONResponse(w, http.StatusOK, models.Success(map[string][]string{"starters": starters}))
}

// goalsHandler returns a student's goals: GET /goals/{id}.
func (s *Server) goalsHandler(w http.ResponseWriter, r *http.Request) {
	profile, ok := s.loadStudent(w, r)
	if !ok {
		return
	}
	goals := profile.Goals
	if goals == nil {
		goals = []string{}
	}
	writeJSONResponse(w, http.StatusOK, models.Success(map[string][]string{"goals": goals}))
}

// topicsHandler returns a student's topic history, newest first:
// GET /topics/{id}.
func (s *Server) topicsHandler(w http.ResponseWriter, r *http.Request) {
	profile, ok := s.loadStudent(w, r)
	if !ok {
		return
	}
	topics := profile.Topics
	if topics == nil {
		topics = []string{}
	}
	writeJSONResponse(w, http.StatusOK, models.Success(map[string][]string{"topics": topics}))
}

// studentBioHandler returns the derived profile view: GET /student_bio/{id}.
func (s *Server) studentBioHandler(w http.ResponseWriter, r *http.Request) {
	profile, ok := s.loadStudent(w, r)
	if !ok {
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(models.StudentBio{
		StudentID:               profile.StudentID,
		Name:                    profile.Name,
		Grade:                   profile.Grade,
		FutureStudy:             profile.FutureStudy,
		DeepInterest:            profile.DeepInterest,
		CurrentExtracurriculars: profile.CurrentExtracurriculars,
		FavoriteCourses:         profile.FavoriteCourses,
		Competitions:            profile.Competitions,
		GoalCount:               len(profile.Goals),
	}))
}

// healthHandler reports liveness: GET /health.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("ok", nil))
}

// loadStudent resolves the {id} path parameter to a profile, writing the 404
// or 500 response itself when it cannot.
func (s *Server) loadStudent(w http.ResponseWriter, r *http.Request) (*models.StudentProfile, bool) {
	studentID := models.NormalizeStudentID(r.PathValue("id"))
	profile, err := s.store.GetStudent(studentID)
	if err != nil {
		slog.Error("Server.loadStudent: failed to load student", "error", err, "studentID", studentID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load student"))
		return nil, false
	}
	if profile == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Student not found"))
		return nil, false
	}
	return profile, true
}
