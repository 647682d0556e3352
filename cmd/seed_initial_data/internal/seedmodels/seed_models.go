package seedmodels

// SeedDocument is a local file uploaded to the blob store for a user.
type SeedDocument struct {
	ID   string `json:"id"`
	File string `json:"file"`
}

// SeedQuiz is an empty quiz generation can append to.
type SeedQuiz struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// SeedUser defines one user in the fixture file.
type SeedUser struct {
	UserID    string         `json:"user_id"`
	Plan      string         `json:"plan"`
	Documents []SeedDocument `json:"documents"`
	Quizzes   []SeedQuiz     `json:"quizzes"`
}
