package model

// QuizQuestion is one multiple-choice question. Immutable once loaded.
type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}

// QuizQuestionView is a question as shown while it is being answered,
// without the correct answer or explanation.
type QuizQuestionView struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// View strips the answer key.
func (q QuizQuestion) View() QuizQuestionView {
	opts := make([]string, len(q.Options))
	copy(opts, q.Options)
	return QuizQuestionView{Question: q.Question, Options: opts}
}

// QuizResponse is the gateway payload for the quiz task.
type QuizResponse struct {
	Message string   `json:"message"`
	Quiz    QuizMeta `json:"quiz"`
	QuizQAs []QuizQA `json:"quizQAs"`
}

// QuizMeta identifies the generated quiz.
type QuizMeta struct {
	ID         string `json:"id"`
	ResourceID string `json:"resourceId"`
}

// QuizQA is a question as emitted by the gateway.
type QuizQA struct {
	ID            string   `json:"id"`
	QuizID        string   `json:"quizId"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

// Questions maps the gateway payload into controller questions.
func (r *QuizResponse) Questions() []QuizQuestion {
	out := make([]QuizQuestion, 0, len(r.QuizQAs))
	for _, qa := range r.QuizQAs {
		out = append(out, QuizQuestion{
			Question:      qa.Question,
			Options:       qa.Options,
			CorrectAnswer: qa.CorrectAnswer,
			Explanation:   qa.Explanation,
		})
	}
	return out
}

// SelectAnswerRequest is the payload for selecting an option.
type SelectAnswerRequest struct {
	Answer string `json:"answer" binding:"required,max=2000"`
}
