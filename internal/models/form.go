package models

import "time"

// DefaultQuestion is the prompt shown on a public form when the owner gave none.
const DefaultQuestion = "Votre avis ?"

// FeedbackForm is a collection point whose UUID can be shared publicly.
// The UUID is the only credential needed to submit a review to the form.
type FeedbackForm struct {
	ID        int64     `json:"id"`
	UUID      string    `json:"uuid"`
	Name      string    `json:"name"`
	Question  string    `json:"question"`
	OwnerID   int64     `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

// PublicForm is what an anonymous visitor may see about a form.
type PublicForm struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Question string `json:"question"`
}

// Public strips ownership data from the form.
func (f FeedbackForm) Public() PublicForm {
	return PublicForm{ID: f.ID, Name: f.Name, Question: f.Question}
}
