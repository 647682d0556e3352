package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// ChoicesPerQuestion is fixed for multiple-choice questions.
const ChoicesPerQuestion = 4

// QuestionTypeMCQ is the only question type the generator produces.
const QuestionTypeMCQ = "mcq"

// Quiz is created by the authoring UI; generation only appends questions to it.
type Quiz struct {
	ID          string
	OwnerID     string
	Title       string
	Description string
	IsPublished bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Question is a persisted multiple-choice question.
type Question struct {
	ID        string
	QuizID    string
	OwnerID   string
	Type      string
	Text      string
	Metadata  QuestionMetadata
	Choices   []Choice
	CreatedAt time.Time
}

// QuestionMetadata is stored as JSON next to the question.
type QuestionMetadata struct {
	Explanation json.RawMessage `json:"explanation,omitempty"`
}

// Choice is one of the four answer options of a Question.
type Choice struct {
	ID         string
	QuestionID string
	Text       string
	IsCorrect  bool
	Position   int
}

// QuestionDraft is a validated question parsed from model output, not yet persisted.
type QuestionDraft struct {
	Question    string
	Choices     []string
	Correct     string
	Explanation json.RawMessage
}

// CorrectIndex returns the position of the choice matching Correct, or -1.
// Matching ignores surrounding whitespace. An ambiguous draft (two matches) also yields -1.
func (d QuestionDraft) CorrectIndex() int {
	want := strings.TrimSpace(d.Correct)
	idx := -1
	for i, c := range d.Choices {
		if strings.TrimSpace(c) == want {
			if idx != -1 {
				return -1
			}
			idx = i
		}
	}
	return idx
}

// Validate enforces the multiple-choice shape: a question, four choices and exactly one correct.
func (d QuestionDraft) Validate() error {
	if strings.TrimSpace(d.Question) == "" {
		return errors.New("question text is empty")
	}
	if len(d.Choices) != ChoicesPerQuestion {
		return errors.New("question must have exactly 4 choices")
	}
	for _, c := range d.Choices {
		if strings.TrimSpace(c) == "" {
			return errors.New("choice text is empty")
		}
	}
	if strings.TrimSpace(d.Correct) == "" {
		return errors.New("correct answer is empty")
	}
	if d.CorrectIndex() < 0 {
		return errors.New("correct answer must match exactly one choice")
	}
	return nil
}

// ToQuestion materializes a draft into a question with positioned choices.
// Choice ids are produced by newID.
func (d QuestionDraft) ToQuestion(questionID, quizID, ownerID string, newID func() string) *Question {
	correct := strings.TrimSpace(d.Correct)
	choices := make([]Choice, 0, len(d.Choices))
	for i, text := range d.Choices {
		choices = append(choices, Choice{
			ID:         newID(),
			QuestionID: questionID,
			Text:       text,
			IsCorrect:  strings.TrimSpace(text) == correct,
			Position:   i,
		})
	}
	return &Question{
		ID:       questionID,
		QuizID:   quizID,
		OwnerID:  ownerID,
		Type:     QuestionTypeMCQ,
		Text:     strings.TrimSpace(d.Question),
		Metadata: QuestionMetadata{Explanation: d.Explanation},
		Choices:  choices,
	}
}
