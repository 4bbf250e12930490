// Package chat defines the message types shared by the native and the
// OpenAI-compatible request paths.
package chat

import (
	"fmt"
	"strings"
)

// Role is the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single message in a chat request.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ParseRole parses a role name, ignoring case and surrounding whitespace.
//
// Example:
//
//	role, err := ParseRole("User")
//	// role = RoleUser
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleSystem, RoleUser, RoleAssistant:
		return r, nil
	default:
		return "", fmt.Errorf("invalid role: %q (expected system, user or assistant)", s)
	}
}

// UserMessage builds a user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// SystemMessage builds a system message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}
