package session

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhyaas/abhyaas-backend/internal/model"
)

func threeQuestions() []model.QuizQuestion {
	return []model.QuizQuestion{
		{Question: "2+2?", Options: []string{"3", "4"}, CorrectAnswer: "4", Explanation: "basic sum"},
		{Question: "Capital of France?", Options: []string{"Paris", "Rome", "Berlin"}, CorrectAnswer: "Paris"},
		{Question: "Go keyword for goroutines?", Options: []string{"go", "async"}, CorrectAnswer: "go"},
	}
}

func newTestQuiz(t *testing.T) *Quiz {
	t.Helper()
	q, err := NewQuiz(threeQuestions())
	require.NoError(t, err)
	return q
}

// assertScoreInvariant checks score == number of stored answers that are correct.
func assertScoreInvariant(t *testing.T, q *Quiz) {
	t.Helper()
	s := q.Snapshot()
	want := 0
	for i, a := range s.UserAnswers {
		if a != nil && *a == q.questions[i].CorrectAnswer {
			want++
		}
	}
	assert.Equal(t, want, s.Score)
}

func TestInitialize(t *testing.T) {
	t.Run("empty set", func(t *testing.T) {
		_, err := NewQuiz(nil)
		assert.ErrorIs(t, err, ErrEmptyQuestionSet)
	})

	t.Run("too few options", func(t *testing.T) {
		_, err := NewQuiz([]model.QuizQuestion{{Question: "q", Options: []string{"a"}, CorrectAnswer: "a"}})
		assert.ErrorIs(t, err, ErrInvalidQuestion)
	})

	t.Run("correct answer not an option", func(t *testing.T) {
		_, err := NewQuiz([]model.QuizQuestion{{Question: "q", Options: []string{"a", "b"}, CorrectAnswer: "c"}})
		assert.ErrorIs(t, err, ErrInvalidQuestion)
	})

	t.Run("fresh state", func(t *testing.T) {
		q := newTestQuiz(t)
		s := q.Snapshot()
		assert.Equal(t, PhaseActive, s.Phase)
		assert.Equal(t, 0, s.CurrentIndex)
		assert.Equal(t, 0, s.Score)
		assert.Nil(t, s.SelectedAnswer)
		assert.Len(t, s.UserAnswers, 3)
		for _, a := range s.UserAnswers {
			assert.Nil(t, a)
		}
		require.NotNil(t, s.Current)
		assert.Equal(t, "2+2?", s.Current.Question)
	})
}

func TestZeroValueQuiz(t *testing.T) {
	var q Quiz
	assert.ErrorIs(t, q.SelectAnswer("x"), ErrNotInitialized)
	_, err := q.Submit()
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, q.Previous(), ErrNotInitialized)
	assert.ErrorIs(t, q.Reset(), ErrNotInitialized)
	assert.ErrorIs(t, q.StartReview(), ErrNotInitialized)
}

func TestScenarioCorrectWrongCorrect(t *testing.T) {
	q := newTestQuiz(t)

	require.NoError(t, q.SelectAnswer("4"))
	out, err := q.Submit()
	require.NoError(t, err)
	assert.Equal(t, OutcomeAdvanced, out)
	assertScoreInvariant(t, q)

	require.NoError(t, q.SelectAnswer("Rome"))
	out, err = q.Submit()
	require.NoError(t, err)
	assert.Equal(t, OutcomeAdvanced, out)
	assertScoreInvariant(t, q)

	require.NoError(t, q.SelectAnswer("go"))
	out, err = q.Submit()
	require.NoError(t, err)
	assert.Equal(t, OutcomeFinished, out)
	assertScoreInvariant(t, q)

	s := q.Snapshot()
	assert.Equal(t, 2, s.Score)
	assert.Equal(t, PhaseResults, s.Phase)
	assert.Nil(t, s.Current)

	res := q.Results()
	assert.Equal(t, 2, res.Score)
	assert.Equal(t, 3, res.Total)
	assert.True(t, res.Items[0].Correct)
	assert.False(t, res.Items[1].Correct)
	require.NotNil(t, res.Items[1].UserAnswer)
	assert.Equal(t, "Rome", *res.Items[1].UserAnswer)
	assert.Equal(t, "Paris", res.Items[1].CorrectAnswer)
	assert.Equal(t, "basic sum", res.Items[0].Explanation)
}

func TestSubmitWithoutSelection(t *testing.T) {
	t.Run("non-last question advances unanswered", func(t *testing.T) {
		q := newTestQuiz(t)
		out, err := q.Submit()
		require.NoError(t, err)
		assert.Equal(t, OutcomeAdvanced, out)

		s := q.Snapshot()
		assert.Equal(t, 1, s.CurrentIndex)
		assert.Nil(t, s.UserAnswers[0])
		assert.False(t, s.Progress.Warning)
	})

	t.Run("last question only raises the warning", func(t *testing.T) {
		q := newTestQuiz(t)
		require.NoError(t, q.SelectAnswer("4"))
		_, _ = q.Submit()
		_, _ = q.Submit()

		before := q.Snapshot()
		out, err := q.Submit()
		require.NoError(t, err)
		assert.Equal(t, OutcomeMissingAnswer, out)

		after := q.Snapshot()
		assert.Equal(t, before.UserAnswers, after.UserAnswers)
		assert.Equal(t, before.Score, after.Score)
		assert.Equal(t, before.Phase, after.Phase)
		assert.Equal(t, before.CurrentIndex, after.CurrentIndex)
		assert.True(t, after.Progress.Warning)
		assert.Equal(t, MissingAnswerWarning, after.WarningText)

		require.NoError(t, q.SelectAnswer("async"))
		assert.False(t, q.Progress().Warning)
	})
}

func TestSelectAnswer(t *testing.T) {
	q := newTestQuiz(t)
	assert.ErrorIs(t, q.SelectAnswer("Paris"), ErrUnknownOption)
	assert.Nil(t, q.Snapshot().SelectedAnswer)

	require.NoError(t, q.SelectAnswer("3"))
	require.NoError(t, q.SelectAnswer("4"))
	s := q.Snapshot()
	require.NotNil(t, s.SelectedAnswer)
	assert.Equal(t, "4", *s.SelectedAnswer)
	assert.True(t, s.Progress.HasSelection)
}

func TestPreviousRestoresRecordedAnswer(t *testing.T) {
	q := newTestQuiz(t)
	assert.ErrorIs(t, q.Previous(), ErrNoPrevious)

	require.NoError(t, q.SelectAnswer("3"))
	_, _ = q.Submit()
	_, _ = q.Submit() // second question left unanswered

	require.NoError(t, q.Previous())
	s := q.Snapshot()
	assert.Equal(t, 1, s.CurrentIndex)
	assert.Nil(t, s.SelectedAnswer)

	require.NoError(t, q.Previous())
	s = q.Snapshot()
	assert.Equal(t, 0, s.CurrentIndex)
	require.NotNil(t, s.SelectedAnswer)
	assert.Equal(t, "3", *s.SelectedAnswer)
}

func TestResubmitAfterPreviousKeepsInvariant(t *testing.T) {
	q := newTestQuiz(t)

	require.NoError(t, q.SelectAnswer("4"))
	_, _ = q.Submit()
	assert.Equal(t, 1, q.Snapshot().Score)

	require.NoError(t, q.Previous())
	_, _ = q.Submit() // same correct answer again
	assert.Equal(t, 1, q.Snapshot().Score)
	assertScoreInvariant(t, q)

	require.NoError(t, q.Previous())
	require.NoError(t, q.SelectAnswer("3"))
	_, _ = q.Submit()
	assert.Equal(t, 0, q.Snapshot().Score)
	assertScoreInvariant(t, q)
}

func TestResetFromEveryPhase(t *testing.T) {
	finish := func(q *Quiz) {
		for _, a := range []string{"4", "Paris", "go"} {
			_ = q.SelectAnswer(a)
			_, _ = q.Submit()
		}
	}

	cases := map[string]func(q *Quiz){
		"active":  func(q *Quiz) { _ = q.SelectAnswer("4"); _, _ = q.Submit() },
		"results": finish,
		"review":  func(q *Quiz) { finish(q); _ = q.StartReview() },
	}

	for name, prepare := range cases {
		t.Run(name, func(t *testing.T) {
			q := newTestQuiz(t)
			prepare(q)
			require.NoError(t, q.Reset())

			s := q.Snapshot()
			assert.Equal(t, PhaseActive, s.Phase)
			assert.Equal(t, 0, s.CurrentIndex)
			assert.Equal(t, 0, s.Score)
			assert.Nil(t, s.SelectedAnswer)
			for _, a := range s.UserAnswers {
				assert.Nil(t, a)
			}
		})
	}
}

func TestReviewToggle(t *testing.T) {
	q := newTestQuiz(t)
	assert.ErrorIs(t, q.StartReview(), ErrWrongPhase)
	assert.ErrorIs(t, q.ReturnToResults(), ErrWrongPhase)

	for _, a := range []string{"4", "Paris", "go"} {
		require.NoError(t, q.SelectAnswer(a))
		_, err := q.Submit()
		require.NoError(t, err)
	}

	require.NoError(t, q.StartReview())
	assert.Equal(t, PhaseReview, q.Phase())
	assert.ErrorIs(t, q.SelectAnswer("4"), ErrWrongPhase)
	_, err := q.Submit()
	assert.ErrorIs(t, err, ErrWrongPhase)
	assert.ErrorIs(t, q.Previous(), ErrWrongPhase)

	require.NoError(t, q.ReturnToResults())
	assert.Equal(t, PhaseResults, q.Phase())
	assert.Equal(t, 3, q.Results().Score)
}

func TestProgress(t *testing.T) {
	q := newTestQuiz(t)

	p := q.Progress()
	assert.Equal(t, 1, p.Question)
	assert.Equal(t, 3, p.Total)
	assert.InDelta(t, 0.0, p.Percent, 0.001)
	assert.False(t, p.CanGoBack)
	assert.False(t, p.IsLast)

	_, _ = q.Submit()
	_, _ = q.Submit()
	p = q.Progress()
	assert.Equal(t, 3, p.Question)
	assert.InDelta(t, 66.666, p.Percent, 0.01)
	assert.True(t, p.CanGoBack)
	assert.True(t, p.IsLast)
}

func TestActiveSnapshotHidesAnswerKey(t *testing.T) {
	q := newTestQuiz(t)

	raw, err := json.Marshal(q.Snapshot())
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"question":"2+2?"`)
	assert.NotContains(t, string(raw), "correct_answer")
	assert.NotContains(t, string(raw), "basic sum")

	s := q.Snapshot()
	s.Current.Options[0] = "changed"
	assert.Equal(t, "3", q.Snapshot().Current.Options[0])
}

func TestSnapshotIsACopy(t *testing.T) {
	q := newTestQuiz(t)
	require.NoError(t, q.SelectAnswer("4"))
	_, _ = q.Submit()

	s := q.Snapshot()
	*s.UserAnswers[0] = "3"
	assert.Equal(t, 1, q.Snapshot().Score)
	assert.Equal(t, "4", *q.Snapshot().UserAnswers[0])
}
