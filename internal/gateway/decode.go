package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/abhyaas/abhyaas-backend/internal/model"
)

// wireResult holds every key a gateway response may carry. Pointers tell a
// missing key apart from an empty string.
type wireResult struct {
	Summary *string `json:"summary"`
	Mindmap *string `json:"mindmap"`
	Roadmap *string `json:"roadmap"`
	Answer  *string `json:"answer"`

	Message string          `json:"message"`
	Quiz    *model.QuizMeta `json:"quiz"`
	QuizQAs []model.QuizQA  `json:"quizQAs"`
}

// decodeResult turns a response body into a tagged result. The tag comes
// from whichever key is present; a roadmap task is always tagged roadmap
// because the gateway answers it with any of the text keys.
func decodeResult(task model.Task, raw []byte) (model.TaskResult, error) {
	var w wireResult
	if err := json.Unmarshal(raw, &w); err != nil {
		return model.TaskResult{}, fmt.Errorf("decode gateway response: %w", err)
	}

	if task == model.TaskQuiz {
		if w.QuizQAs == nil {
			return model.TaskResult{}, fmt.Errorf("%w: quiz task without quizQAs", ErrUnrecognizedResult)
		}
		qr := &model.QuizResponse{Message: w.Message, QuizQAs: w.QuizQAs}
		if w.Quiz != nil {
			qr.Quiz = *w.Quiz
		}
		return model.TaskResult{Kind: model.ResultQuiz, Quiz: qr}, nil
	}

	var res model.TaskResult
	switch {
	case w.Summary != nil:
		res = model.TaskResult{Kind: model.ResultSummary, Text: *w.Summary}
	case w.Mindmap != nil:
		res = model.TaskResult{Kind: model.ResultMindmap, Text: *w.Mindmap}
	case w.Roadmap != nil:
		res = model.TaskResult{Kind: model.ResultRoadmap, Text: *w.Roadmap}
	case w.Answer != nil:
		res = model.TaskResult{Kind: model.ResultAnswer, Text: *w.Answer}
	default:
		return model.TaskResult{}, fmt.Errorf("%w: task %s", ErrUnrecognizedResult, task)
	}

	if task == model.TaskRoadmap {
		res.Kind = model.ResultRoadmap
	}
	return res, nil
}
