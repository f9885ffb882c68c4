package models

// ContactMessage is an inquiry sent from the contact page.
type ContactMessage struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,emailformat"`
	Company string `json:"company"`
	Budget  string `json:"budget"`
	Message string `json:"message" validate:"required"`
}
