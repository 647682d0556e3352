package dto

// GenerateRequest asks for questions generated from an uploaded document.
// @Description Request body for question generation
type GenerateRequest struct {
	QuizID                 string `json:"quiz_id" example:"9b2f4c1e-7a3d-4f8e-9c0b-1d2e3f4a5b6c"`
	DocumentID             string `json:"document_id" example:"0f1e2d3c-4b5a-6978-8a9b-0c1d2e3f4a5b"`
	RequestedQuestionCount int    `json:"requested_question_count" example:"5"`
	UserID                 string `json:"user_id" example:"5a6b7c8d-9e0f-1a2b-3c4d-5e6f7a8b9c0d"`
}

// GenerateResponse reports how many questions were stored. Count may be
// lower than requested when the model returns fewer questions.
type GenerateResponse struct {
	Success bool `json:"success"`
	Count   int  `json:"count"`
}
