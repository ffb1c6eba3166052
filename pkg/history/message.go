package history

// Role is the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RoleSystem is never produced by the chat loop but is accepted in
	// hand-edited context files.
	RoleSystem Role = "system"
)

// Message is one role-tagged unit of dialogue.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// UserMessage builds a user-authored message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage builds an assistant-authored message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// Clone returns a copy of msgs that never aliases the input. A nil input
// yields an empty, non-nil slice so it encodes as [] rather than null.
func Clone(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}
