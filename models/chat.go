package models

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type ChatPostRequest struct {
	// Message is the new user turn. It is not part of ConversationHistory.
	Message string `json:"message"`

	// ConversationHistory holds the prior turns, oldest first.
	ConversationHistory []Message `json:"conversationHistory,omitempty"`
}

type ChatPostResponse struct {
	Success   bool   `json:"success"`
	Response  string `json:"response"`
	Timestamp string `json:"timestamp"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
