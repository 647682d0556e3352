package prompt

import (
	"fmt"
	"strings"

	"docquiz/internal/domain"
	"docquiz/internal/util"
)

// DefaultMaxSourceChars caps how much document text is sent to the model.
const DefaultMaxSourceChars = 12000

const systemPrompt = "You are a quiz generator. You must respond with valid JSON only, no markdown or explanations."

// DefaultTemperature applies when Options.Temperature is negative.
const DefaultTemperature = 0.2

// Providers in JSON mode must return an object, so the questions are always
// requested under a "questions" key.
const basicSchema = `{
  "questions": [
    {
      "question": "question text here",
      "choices": ["option A", "option B", "option C", "option D"],
      "correct": "option B"
    }
  ]
}`

const explainedSchema = `{
  "questions": [
    {
      "question": "question text here",
      "choices": ["option A", "option B", "option C", "option D"],
      "correct": "option B",
      "explanation": {
        "correct": "why option B is right",
        "incorrect": {
          "A": "why option A is wrong",
          "B": "",
          "C": "why option C is wrong",
          "D": "why option D is wrong"
        }
      }
    }
  ]
}`

const userTemplate = `Generate %d multiple-choice questions from the following text.

Each question must have exactly 4 choices (A, B, C, D) and exactly one correct answer.
The "correct" value must repeat one of the choices verbatim.
%s
Return your response as a JSON object whose "questions" array holds every question, with this exact structure and nothing else (no prose, no code fences):
%s

Text:
%s`

const explanationRule = `For every question add an "explanation" object: "correct" explains the right answer and "incorrect" maps each choice letter to why it is wrong (leave the correct letter empty).
`

// Options tune the composer. A zero MaxSourceChars and a negative Temperature
// fall back to defaults; a zero Temperature is kept.
type Options struct {
	MaxSourceChars      int
	Temperature         float64
	MaxTokens           int
	IncludeExplanations bool
}

// Composer builds the completion request for a batch of questions.
type Composer struct {
	opts Options
}

func NewComposer(opts Options) *Composer {
	if opts.MaxSourceChars <= 0 {
		opts.MaxSourceChars = DefaultMaxSourceChars
	}
	if opts.Temperature < 0 {
		opts.Temperature = DefaultTemperature
	}
	return &Composer{opts: opts}
}

// Compose embeds the first MaxSourceChars characters of text. Anything beyond
// is dropped without notice; the model only ever sees the document prefix.
func (c *Composer) Compose(text string, count int) domain.Prompt {
	schema := basicSchema
	rule := ""
	if c.opts.IncludeExplanations {
		schema = explainedSchema
		rule = explanationRule
	}

	source := util.Truncate(strings.TrimSpace(text), c.opts.MaxSourceChars)

	return domain.Prompt{
		System:      systemPrompt,
		User:        fmt.Sprintf(userTemplate, count, rule, schema, source),
		Temperature: c.opts.Temperature,
		MaxTokens:   c.opts.MaxTokens,
		JSONOutput:  true,
	}
}

// Truncated reports whether Compose would drop part of text.
func (c *Composer) Truncated(text string) bool {
	trimmed := strings.TrimSpace(text)
	return util.Truncate(trimmed, c.opts.MaxSourceChars) != trimmed
}
