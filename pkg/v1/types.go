package v1

import (
	"time"

	"github.com/4thel00z/threads/internal"
)

// Context is one conversation topic with its accumulated summary.
type Context struct {
	ID                  string         `json:"id"`
	Name                string         `json:"name"`
	Description         string         `json:"description"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	Tags                []string       `json:"tags"`
	Metadata            map[string]any `json:"metadata"`
	ConversationSummary string         `json:"conversation_summary"`
	KeyPoints           []string       `json:"key_points"`
}

// Memory is one persistent memory item.
type Memory struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	ContextID  string    `json:"context_id"`
	Importance float64   `json:"importance"`
	CreatedAt  time.Time `json:"created_at"`
	Tags       []string  `json:"tags"`
	Type       string    `json:"type"`
}

// Message is one conversation turn.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Branch is one thread of conversation.
type Branch struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ParentID  string    `json:"parent_id"`
	ContextID string    `json:"context_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Messages  []Message `json:"messages"`
	IsActive  bool      `json:"is_active"`
	Tags      []string  `json:"tags"`
}

// BranchNode is one node of the branch forest.
type BranchNode struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	IsActive     bool         `json:"is_active"`
	MessageCount int          `json:"message_count"`
	Children     []BranchNode `json:"children"`
}

// Stats aggregates store statistics.
type Stats struct {
	Contexts internal.ContextStats `json:"contexts"`
	Branches internal.BranchStats  `json:"branches"`
}

func toContext(c *internal.Context) Context {
	return Context{
		ID:                  c.ID,
		Name:                c.Name,
		Description:         c.Description,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
		Tags:                c.Tags,
		Metadata:            c.Metadata,
		ConversationSummary: c.ConversationSummary,
		KeyPoints:           c.KeyPoints,
	}
}

func toMemory(m *internal.MemoryItem) Memory {
	return Memory{
		ID:         m.ID,
		Content:    m.Content,
		ContextID:  m.ContextID,
		Importance: m.Importance,
		CreatedAt:  m.CreatedAt,
		Tags:       m.Tags,
		Type:       m.Type,
	}
}

func toBranch(b *internal.ConversationBranch) Branch {
	messages := make([]Message, 0, len(b.Messages))
	for _, m := range b.Messages {
		messages = append(messages, Message{Role: m.Role, Content: m.Content, Timestamp: m.Timestamp})
	}
	return Branch{
		ID:        b.ID,
		Name:      b.Name,
		ParentID:  b.ParentID,
		ContextID: b.ContextID,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
		Messages:  messages,
		IsActive:  b.IsActive,
		Tags:      b.Tags,
	}
}

func toBranchNode(n *internal.BranchNode) BranchNode {
	children := make([]BranchNode, 0, len(n.Children))
	for _, c := range n.Children {
		children = append(children, toBranchNode(c))
	}
	return BranchNode{
		ID:           n.ID,
		Name:         n.Name,
		IsActive:     n.IsActive,
		MessageCount: n.MessageCount,
		Children:     children,
	}
}
