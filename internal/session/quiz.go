package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/abhyaas/abhyaas-backend/internal/model"
)

// Phase is the coarse state of a quiz.
type Phase string

const (
	PhaseActive  Phase = "ACTIVE"
	PhaseResults Phase = "RESULTS"
	PhaseReview  Phase = "REVIEW"
)

// SubmitOutcome reports what Submit did.
type SubmitOutcome string

const (
	OutcomeAdvanced      SubmitOutcome = "ADVANCED"
	OutcomeFinished      SubmitOutcome = "FINISHED"
	OutcomeMissingAnswer SubmitOutcome = "MISSING_ANSWER"
)

// MissingAnswerWarning is shown when the last question is submitted blank.
const MissingAnswerWarning = "Please select an answer before proceeding to results."

// Quiz errors
var (
	ErrEmptyQuestionSet = errors.New("quiz has no questions")
	ErrInvalidQuestion  = errors.New("invalid quiz question")
	ErrWrongPhase       = errors.New("operation not allowed in current phase")
	ErrNoPrevious       = errors.New("already at the first question")
	ErrUnknownOption    = errors.New("answer is not one of the options")
	ErrNotInitialized   = errors.New("quiz is not initialized")
)

// Quiz is the quiz progression state machine. The zero value must be
// initialized before use. All methods are safe for concurrent callers.
type Quiz struct {
	mu        sync.Mutex
	questions []model.QuizQuestion
	index     int
	selected  *string
	answers   []*string
	score     int
	phase     Phase
	warning   bool
}

// NewQuiz creates an initialized quiz.
func NewQuiz(questions []model.QuizQuestion) (*Quiz, error) {
	q := &Quiz{}
	if err := q.Initialize(questions); err != nil {
		return nil, err
	}
	return q, nil
}

// Initialize loads a question set and starts from the first question.
func (q *Quiz) Initialize(questions []model.QuizQuestion) error {
	if len(questions) == 0 {
		return ErrEmptyQuestionSet
	}
	for i, qq := range questions {
		if err := validateQuestion(qq); err != nil {
			return fmt.Errorf("question %d: %w", i+1, err)
		}
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.questions = make([]model.QuizQuestion, len(questions))
	copy(q.questions, questions)
	q.restart()
	return nil
}

func validateQuestion(qq model.QuizQuestion) error {
	if len(qq.Options) < 2 {
		return fmt.Errorf("%w: needs at least two options", ErrInvalidQuestion)
	}
	for _, opt := range qq.Options {
		if opt == qq.CorrectAnswer {
			return nil
		}
	}
	return fmt.Errorf("%w: correct answer is not an option", ErrInvalidQuestion)
}

// restart must be called with mu held.
func (q *Quiz) restart() {
	q.index = 0
	q.score = 0
	q.selected = nil
	q.warning = false
	q.answers = make([]*string, len(q.questions))
	q.phase = PhaseActive
}

// SelectAnswer stores value as the pending selection for the current question.
func (q *Quiz) SelectAnswer(value string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.questions == nil {
		return ErrNotInitialized
	}
	if q.phase != PhaseActive {
		return ErrWrongPhase
	}
	if !q.hasOption(value) {
		return ErrUnknownOption
	}
	v := value
	q.selected = &v
	q.warning = false
	return nil
}

func (q *Quiz) hasOption(value string) bool {
	for _, opt := range q.questions[q.index].Options {
		if opt == value {
			return true
		}
	}
	return false
}

// Submit records the pending selection and moves forward. A blank submit is
// allowed on every question except the last one, where it only raises the
// missing-answer warning.
func (q *Quiz) Submit() (SubmitOutcome, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.questions == nil {
		return "", ErrNotInitialized
	}
	if q.phase != PhaseActive {
		return "", ErrWrongPhase
	}

	last := len(q.questions) - 1
	if q.selected == nil && q.index == last {
		q.warning = true
		return OutcomeMissingAnswer, nil
	}
	q.warning = false

	q.answers[q.index] = q.selected
	q.score = q.countCorrect()

	if q.index < last {
		q.index++
		q.selected = nil
		return OutcomeAdvanced, nil
	}
	q.phase = PhaseResults
	return OutcomeFinished, nil
}

// countCorrect recomputes the score so that re-answering a question after
// Previous never double counts. Must be called with mu held.
func (q *Quiz) countCorrect() int {
	n := 0
	for i, a := range q.answers {
		if a != nil && *a == q.questions[i].CorrectAnswer {
			n++
		}
	}
	return n
}

// Previous steps back one question and restores the answer recorded there.
func (q *Quiz) Previous() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.questions == nil {
		return ErrNotInitialized
	}
	if q.phase != PhaseActive {
		return ErrWrongPhase
	}
	if q.index == 0 {
		return ErrNoPrevious
	}
	q.index--
	q.selected = q.answers[q.index]
	q.warning = false
	return nil
}

// Reset restarts the quiz from any phase, discarding every answer.
func (q *Quiz) Reset() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.questions == nil {
		return ErrNotInitialized
	}
	q.restart()
	return nil
}

// StartReview moves from Results to Review.
func (q *Quiz) StartReview() error {
	return q.toggle(PhaseReview)
}

// ReturnToResults moves from Review back to Results.
func (q *Quiz) ReturnToResults() error {
	return q.toggle(PhaseResults)
}

func (q *Quiz) toggle(to Phase) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.questions == nil {
		return ErrNotInitialized
	}
	if q.phase == PhaseActive {
		return ErrWrongPhase
	}
	q.phase = to
	return nil
}

// Progress is the UI-facing view of an active quiz.
type Progress struct {
	Question     int     `json:"question"`
	Total        int     `json:"total"`
	Percent      float64 `json:"percent"`
	IsLast       bool    `json:"is_last"`
	CanGoBack    bool    `json:"can_go_back"`
	HasSelection bool    `json:"has_selection"`
	Warning      bool    `json:"warning"`
}

// ReviewItem is one row of the review screen.
type ReviewItem struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	UserAnswer    *string  `json:"user_answer"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
	Correct       bool     `json:"correct"`
}

// Results summarizes a finished quiz.
type Results struct {
	Score int          `json:"score"`
	Total int          `json:"total"`
	Items []ReviewItem `json:"items"`
}

// Snapshot is a consistent copy of the quiz state.
type Snapshot struct {
	Phase          Phase                   `json:"phase"`
	CurrentIndex   int                     `json:"current_index"`
	Current        *model.QuizQuestionView `json:"current,omitempty"`
	SelectedAnswer *string                 `json:"selected_answer"`
	UserAnswers    []*string               `json:"user_answers"`
	Score          int                     `json:"score"`
	Progress       Progress                `json:"progress"`
	WarningText    string                  `json:"warning_text,omitempty"`
}

// Progress derives the progress bar and navigation state.
func (q *Quiz) Progress() Progress {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.progress()
}

func (q *Quiz) progress() Progress {
	total := len(q.questions)
	if total == 0 {
		return Progress{}
	}
	return Progress{
		Question:     q.index + 1,
		Total:        total,
		Percent:      float64(q.index) / float64(total) * 100,
		IsLast:       q.index == total-1,
		CanGoBack:    q.index > 0,
		HasSelection: q.selected != nil,
		Warning:      q.warning,
	}
}

// Results returns the score and per-question review rows.
func (q *Quiz) Results() Results {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := make([]ReviewItem, len(q.questions))
	for i, qq := range q.questions {
		a := copyAnswer(q.answers[i])
		items[i] = ReviewItem{
			Question:      qq.Question,
			Options:       qq.Options,
			UserAnswer:    a,
			CorrectAnswer: qq.CorrectAnswer,
			Explanation:   qq.Explanation,
			Correct:       a != nil && *a == qq.CorrectAnswer,
		}
	}
	return Results{Score: q.score, Total: len(q.questions), Items: items}
}

// Snapshot returns a copy of the full state.
func (q *Quiz) Snapshot() Snapshot {
	q.mu.Lock()
	defer q.mu.Unlock()

	s := Snapshot{
		Phase:          q.phase,
		CurrentIndex:   q.index,
		SelectedAnswer: copyAnswer(q.selected),
		UserAnswers:    make([]*string, len(q.answers)),
		Score:          q.score,
		Progress:       q.progress(),
	}
	for i, a := range q.answers {
		s.UserAnswers[i] = copyAnswer(a)
	}
	if q.phase == PhaseActive && len(q.questions) > 0 {
		cur := q.questions[q.index].View()
		s.Current = &cur
	}
	if q.warning {
		s.WarningText = MissingAnswerWarning
	}
	return s
}

// Phase returns the current phase.
func (q *Quiz) Phase() Phase {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.phase
}

func copyAnswer(a *string) *string {
	if a == nil {
		return nil
	}
	v := *a
	return &v
}
