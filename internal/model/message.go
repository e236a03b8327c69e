package model

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Roles lists the roles accepted at the API boundary.
var Roles = []Role{RoleUser, RoleAssistant}

// Valid reports whether r is one of Roles.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// Message is a single conversation turn.
type Message struct {
	Role    Role   `json:"role" validate:"required,role"`
	Content string `json:"content"`
}

// TokenEvent represents a streaming token event.
type TokenEvent struct {
	Token string `json:"token"`
	Index int    `json:"index"`
}

// DoneEvent is sent once a streamed chat completes.
type DoneEvent struct {
	Response string `json:"response"`
	Model    string `json:"model,omitempty"`
}
