package survey

import (
	"errors"
	"fmt"
	"strings"
)

// Phase is the conversational situation an incoming answer lands in.
type Phase string

const (
	PhaseAwaitingFirstQuestion Phase = "AWAITING_FIRST_QUESTION"
	PhaseQuestionOutstanding   Phase = "QUESTION_OUTSTANDING"
	PhaseSurveyComplete        Phase = "SURVEY_COMPLETE"
	PhaseStale                 Phase = "STALE"
)

// LateAnswerPolicy decides whether answers that arrive when no question is
// outstanding are still stored and classified.
type LateAnswerPolicy struct {
	RecordAfterComplete bool
	RecordStale         bool
}

var DefaultLateAnswerPolicy = LateAnswerPolicy{RecordAfterComplete: false, RecordStale: true}

// Prompt is a message to send together with the state it moves the employee to.
type Prompt struct {
	Text  string
	State State
}

// Transition is the outcome of receiving one answer.
type Transition struct {
	Phase Phase
	// Question is the question text the answer is attributed to.
	Question string
	// Record is false when the answer must only be acknowledged.
	Record bool
	// Next is nil when nothing follows; the employee then gets the
	// "no questions pending" notice.
	Next *Prompt
}

// Questionnaire is the ordered question list plus the final message.
type Questionnaire struct {
	questions []string
	final     string
	policy    LateAnswerPolicy
}

func NewQuestionnaire(questions []string, final string, policy LateAnswerPolicy) (*Questionnaire, error) {
	if len(questions) == 0 {
		return nil, errors.New("questionnaire needs at least one question")
	}
	if strings.TrimSpace(final) == "" {
		return nil, errors.New("questionnaire final message is empty")
	}
	seen := make(map[string]bool, len(questions))
	for i, q := range questions {
		if strings.TrimSpace(q) == "" {
			return nil, fmt.Errorf("question %d is empty", i)
		}
		if seen[q] {
			return nil, fmt.Errorf("question %d is a duplicate: %q", i, q)
		}
		if q == final {
			return nil, fmt.Errorf("question %d equals the final message", i)
		}
		seen[q] = true
	}
	return &Questionnaire{
		questions: append([]string(nil), questions...),
		final:     final,
		policy:    policy,
	}, nil
}

func (q *Questionnaire) Len() int { return len(q.questions) }

func (q *Questionnaire) Questions() []string { return append([]string(nil), q.questions...) }

func (q *Questionnaire) FinalMessage() string { return q.final }

// First is the prompt sent on registration and on every broadcast.
func (q *Questionnaire) First() Prompt {
	return q.promptAt(0)
}

func (q *Questionnaire) promptAt(i int) Prompt {
	if i >= len(q.questions) {
		return Prompt{
			Text:  q.final,
			State: State{Status: StatusSurveyComplete, QuestionIndex: len(q.questions), QuestionText: q.final},
		}
	}
	return Prompt{
		Text:  q.questions[i],
		State: State{Status: StatusQuestionOutstanding, QuestionIndex: i, QuestionText: q.questions[i]},
	}
}

// indexOf locates the question an outstanding state refers to. The stored
// index wins when it still points at the same text; otherwise the text is
// searched so reordering the config does not strand anyone.
func (q *Questionnaire) indexOf(st State) int {
	if st.QuestionIndex >= 0 && st.QuestionIndex < len(q.questions) && q.questions[st.QuestionIndex] == st.QuestionText {
		return st.QuestionIndex
	}
	for i, text := range q.questions {
		if text == st.QuestionText {
			return i
		}
	}
	return -1
}

// Decide computes what happens when an employee in state st sends text.
func (q *Questionnaire) Decide(st State) Transition {
	switch st.Status {
	case StatusQuestionOutstanding:
		idx := q.indexOf(st)
		if idx < 0 {
			return Transition{Phase: PhaseStale, Question: st.QuestionText, Record: q.policy.RecordStale}
		}
		next := q.promptAt(idx + 1)
		next.State.EmployeeID = st.EmployeeID
		return Transition{Phase: PhaseQuestionOutstanding, Question: q.questions[idx], Record: true, Next: &next}
	case StatusSurveyComplete:
		return Transition{
			Phase:    PhaseSurveyComplete,
			Question: q.questions[len(q.questions)-1],
			Record:   q.policy.RecordAfterComplete,
		}
	default:
		return Transition{Phase: PhaseAwaitingFirstQuestion, Question: q.questions[0], Record: true}
	}
}
