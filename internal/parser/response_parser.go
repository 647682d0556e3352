// Package parser converts raw model output into validated question drafts.
package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"docquiz/internal/domain"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.uber.org/zap"
)

const questionSchemaURL = "schema://question.json"

// questionSchema describes one question element. Explanation is opaque and
// therefore unconstrained.
const questionSchema = `{
  "type": "object",
  "required": ["question", "choices"],
  "anyOf": [
    {"required": ["correct"]},
    {"required": ["correct_answer"]}
  ],
  "properties": {
    "question": {"type": "string", "minLength": 1},
    "choices": {
      "type": "array",
      "minItems": 4,
      "maxItems": 4,
      "items": {"type": "string", "minLength": 1}
    },
    "correct": {"type": "string", "minLength": 1},
    "correct_answer": {"type": "string", "minLength": 1}
  }
}`

var (
	thinkBlockRe = regexp.MustCompile(`(?s)<think>.*?</think>`)
	codeFenceRe  = regexp.MustCompile("(?m)^\\s*```[a-zA-Z]*\\s*$")

	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func compiledQuestionSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(questionSchema))
		if err != nil {
			compileErr = fmt.Errorf("parse question schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(questionSchemaURL, doc); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(questionSchemaURL)
	})
	return compiled, compileErr
}

// wireQuestion is the element shape the model is asked to produce.
// CorrectAnswer is an accepted alias of Correct.
type wireQuestion struct {
	Question      string          `json:"question"`
	Choices       []string        `json:"choices"`
	Correct       *string         `json:"correct"`
	CorrectAnswer *string         `json:"correct_answer"`
	Explanation   json.RawMessage `json:"explanation"`
}

// ResponseParser turns raw completion text into question drafts. A batch is
// accepted only if every element is valid.
type ResponseParser struct {
	logger *zap.Logger
}

func NewResponseParser(logger *zap.Logger) *ResponseParser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResponseParser{logger: logger}
}

// Parse accepts either a bare JSON array of questions or an object with a
// "questions" array, optionally wrapped in prose or code fences.
func (p *ResponseParser) Parse(raw string) ([]domain.QuestionDraft, error) {
	payload, err := Sanitize(raw)
	if err != nil {
		p.logger.Debug("model output has no JSON payload", zap.Int("raw_length", len(raw)))
		return nil, err
	}

	items, err := splitItems(payload)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domain.NewMalformedOutputError("no questions were generated", nil)
	}

	schema, err := compiledQuestionSchema()
	if err != nil {
		return nil, domain.NewInternalError("question schema unavailable", err)
	}

	drafts := make([]domain.QuestionDraft, 0, len(items))
	for i, item := range items {
		draft, err := parseItem(schema, item)
		if err != nil {
			p.logger.Warn("rejecting model output batch",
				zap.Int("item", i),
				zap.Int("items", len(items)),
				zap.Error(err))
			return nil, domain.NewMalformedOutputError(fmt.Sprintf("question %d is invalid", i+1), err)
		}
		drafts = append(drafts, draft)
	}
	return drafts, nil
}

// Sanitize removes reasoning blocks and code fences and returns the span from
// the first '[' or '{' to the last ']' or '}'.
func Sanitize(raw string) (string, error) {
	s := thinkBlockRe.ReplaceAllString(raw, "")
	s = codeFenceRe.ReplaceAllString(s, "")

	start := strings.IndexAny(s, "[{")
	end := strings.LastIndexAny(s, "]}")
	if start == -1 || end == -1 || end < start {
		return "", domain.NewMalformedOutputError("response contains no JSON", nil)
	}
	return s[start : end+1], nil
}

func splitItems(payload string) ([]json.RawMessage, error) {
	data := []byte(payload)
	switch payload[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, domain.NewMalformedOutputError("response is not valid JSON", err)
		}
		return items, nil
	default:
		var envelope struct {
			Questions *[]json.RawMessage `json:"questions"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil {
			return nil, domain.NewMalformedOutputError("response is not valid JSON", err)
		}
		if envelope.Questions == nil {
			return nil, domain.NewMalformedOutputError(`response object has no "questions" array`, nil)
		}
		return *envelope.Questions, nil
	}
}

func parseItem(schema *jsonschema.Schema, item json.RawMessage) (domain.QuestionDraft, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(item))
	if err != nil {
		return domain.QuestionDraft{}, err
	}
	if err := schema.Validate(doc); err != nil {
		return domain.QuestionDraft{}, err
	}

	var wq wireQuestion
	if err := json.Unmarshal(item, &wq); err != nil {
		return domain.QuestionDraft{}, err
	}

	correct := ""
	switch {
	case wq.Correct != nil:
		correct = *wq.Correct
	case wq.CorrectAnswer != nil:
		correct = *wq.CorrectAnswer
	}

	var explanation json.RawMessage
	if len(wq.Explanation) > 0 && !bytes.Equal(bytes.TrimSpace(wq.Explanation), []byte("null")) {
		explanation = wq.Explanation
	}

	draft := domain.QuestionDraft{
		Question:    strings.TrimSpace(wq.Question),
		Choices:     wq.Choices,
		Correct:     correct,
		Explanation: explanation,
	}
	if err := draft.Validate(); err != nil {
		return domain.QuestionDraft{}, err
	}
	return draft, nil
}
