// Package relay assembles provider requests from client chat turns.
package relay

import (
	"errors"
	"fmt"
	"strings"

	"github.com/portfolio-chat/portfoliochat/models"
	"github.com/portfolio-chat/portfoliochat/persona"
	"github.com/tmc/langchaingo/llms"
)

var ErrMessageRequired = errors.New("message is required")

// InvalidRoleError is returned when a history entry has a role other than user or assistant.
type InvalidRoleError struct {
	Index int
	Role  models.Role
}

func (e InvalidRoleError) Error() string {
	return fmt.Sprintf("conversationHistory[%d]: invalid role %q", e.Index, e.Role)
}

// Validate checks a chat request before any provider call is made.
func Validate(req models.ChatPostRequest) error {
	if strings.TrimSpace(req.Message) == "" {
		return ErrMessageRequired
	}
	for i, m := range req.ConversationHistory {
		if !m.Role.Valid() {
			return InvalidRoleError{Index: i, Role: m.Role}
		}
	}
	return nil
}

var roleToMessageType = map[models.Role]llms.ChatMessageType{
	models.RoleUser:      llms.ChatMessageTypeHuman,
	models.RoleAssistant: llms.ChatMessageTypeAI,
}

// BuildMessages returns the provider message list: the system message, the
// history in its original order, then the new user message.
func BuildMessages(sc persona.SystemContext, history []models.Message, message string) []llms.MessageContent {
	msgs := make([]llms.MessageContent, 0, len(history)+2)
	msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeSystem, sc.SystemMessage()))
	for _, m := range history {
		msgs = append(msgs, llms.TextParts(roleToMessageType[m.Role], m.Content))
	}
	msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeHuman, message))
	return msgs
}

// CallOptions returns the fixed sampling options for every provider call.
func CallOptions(s persona.Settings) []llms.CallOption {
	return []llms.CallOption{
		llms.WithModel(s.Model),
		llms.WithMaxTokens(s.MaxTokens),
		llms.WithTemperature(s.Temperature),
	}
}
