package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/abhyaas/abhyaas-backend/internal/directory"
	"github.com/abhyaas/abhyaas-backend/internal/model"
	"github.com/abhyaas/abhyaas-backend/internal/session"
)

// QuizSession is one generated quiz bound to a resource.
type QuizSession struct {
	ID         string
	ResourceID string
	Title      string
	QuizID     string
	Quiz       *session.Quiz
}

// QuizView is the client-facing state of a quiz session.
type QuizView struct {
	SessionID  string           `json:"session_id"`
	ResourceID string           `json:"resource_id"`
	Title      string           `json:"title"`
	QuizID     string           `json:"quiz_id,omitempty"`
	State      session.Snapshot `json:"state"`
	Results    *session.Results `json:"results,omitempty"`
}

// QuizService generates quizzes and drives their state machines.
type QuizService struct {
	gateway   session.Gateway
	directory directory.Reader
	sessions  *session.Registry[*QuizSession]
	taskLog   TaskLogSink
	log       zerolog.Logger
}

// NewQuizService creates a new QuizService. taskLog may be nil.
func NewQuizService(
	gw session.Gateway,
	dir directory.Reader,
	sessions *session.Registry[*QuizSession],
	taskLog TaskLogSink,
	log zerolog.Logger,
) *QuizService {
	return &QuizService{
		gateway:   gw,
		directory: dir,
		sessions:  sessions,
		taskLog:   taskLog,
		log:       log.With().Str("component", "quiz_service").Logger(),
	}
}

// Start asks the gateway for a quiz on resourceID and opens a session on it.
// The resource title is best effort: a directory miss is only logged.
func (s *QuizService) Start(ctx context.Context, resourceID string) (*QuizView, error) {
	id := uuid.New().String()

	title := ""
	if res, err := s.directory.GetResource(ctx, resourceID); err != nil {
		ev := s.log.Warn()
		if errors.Is(err, directory.ErrResourceNotFound) {
			ev = s.log.Info()
		}
		ev.Err(err).Str("resource_id", resourceID).Msg("Quiz title lookup failed")
	} else {
		title = res.Title
	}

	start := time.Now()
	res, err := s.gateway.Execute(ctx, model.TaskRequest{ResourceID: resourceID, Task: model.TaskQuiz})
	if err == nil && (res.Kind != model.ResultQuiz || res.Quiz == nil) {
		err = fmt.Errorf("unexpected %s result for quiz task", res.Kind)
	}
	s.report(id, resourceID, start, err)
	if err != nil {
		s.log.Warn().Err(err).Str("resource_id", resourceID).Msg("Quiz generation failed")
		return nil, fmt.Errorf("%w: %v", ErrQuizNotCreated, err)
	}

	quiz, err := session.NewQuiz(res.Quiz.Questions())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidQuiz, err)
	}

	qs := &QuizSession{
		ID:         id,
		ResourceID: resourceID,
		Title:      title,
		QuizID:     res.Quiz.Quiz.ID,
		Quiz:       quiz,
	}
	s.sessions.Put(id, qs)

	s.log.Info().
		Str("session_id", id).
		Str("resource_id", resourceID).
		Int("questions", len(res.Quiz.QuizQAs)).
		Msg("Quiz session started")
	return quizView(qs), nil
}

// Get returns the current quiz state.
func (s *QuizService) Get(id string) (*QuizView, error) {
	qs, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return quizView(qs), nil
}

// SelectAnswer stores the pending selection.
func (s *QuizService) SelectAnswer(id, answer string) (*QuizView, error) {
	return s.apply(id, func(q *session.Quiz) error { return q.SelectAnswer(answer) })
}

// Submit records the selection and advances. A blank submit on the last
// question returns OutcomeMissingAnswer with no error.
func (s *QuizService) Submit(id string) (*QuizView, session.SubmitOutcome, error) {
	var outcome session.SubmitOutcome
	v, err := s.apply(id, func(q *session.Quiz) error {
		var err error
		outcome, err = q.Submit()
		return err
	})
	return v, outcome, err
}

// Previous steps back one question.
func (s *QuizService) Previous(id string) (*QuizView, error) {
	return s.apply(id, (*session.Quiz).Previous)
}

// Reset restarts the quiz.
func (s *QuizService) Reset(id string) (*QuizView, error) {
	return s.apply(id, (*session.Quiz).Reset)
}

// StartReview opens the review screen.
func (s *QuizService) StartReview(id string) (*QuizView, error) {
	return s.apply(id, (*session.Quiz).StartReview)
}

// ReturnToResults closes the review screen.
func (s *QuizService) ReturnToResults(id string) (*QuizView, error) {
	return s.apply(id, (*session.Quiz).ReturnToResults)
}

// End discards a quiz session.
func (s *QuizService) End(id string) error {
	if err := s.sessions.Remove(id); err != nil {
		return ErrSessionNotFound
	}
	return nil
}

// Count returns the number of tracked quiz sessions.
func (s *QuizService) Count() int { return s.sessions.Len() }

func (s *QuizService) apply(id string, fn func(q *session.Quiz) error) (*QuizView, error) {
	qs, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if err := fn(qs.Quiz); err != nil {
		return nil, err
	}
	return quizView(qs), nil
}

func (s *QuizService) lookup(id string) (*QuizSession, error) {
	qs, err := s.sessions.Get(id)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	return qs, nil
}

func (s *QuizService) report(sessionID, resourceID string, start time.Time, err error) {
	if s.taskLog == nil {
		return
	}
	l := model.TaskLog{
		SessionID:  sessionID,
		ResourceID: resourceID,
		Task:       model.TaskQuiz,
		Outcome:    model.OutcomeResolved,
		DurationMs: time.Since(start).Milliseconds(),
		FinishedAt: time.Now(),
	}
	if err != nil {
		l.Outcome = model.OutcomeFailed
		l.Error = err.Error()
	}
	ctx, cancel := context.WithTimeout(context.Background(), taskLogTimeout)
	defer cancel()
	s.taskLog.Enqueue(ctx, l)
}

func quizView(qs *QuizSession) *QuizView {
	v := &QuizView{
		SessionID:  qs.ID,
		ResourceID: qs.ResourceID,
		Title:      qs.Title,
		QuizID:     qs.QuizID,
		State:      qs.Quiz.Snapshot(),
	}
	if v.State.Phase != session.PhaseActive {
		r := qs.Quiz.Results()
		v.Results = &r
	}
	return v
}
