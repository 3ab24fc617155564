//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

package agent

import (
	"sync"

	"trpc.group/trpc-go/trpc-science-agent/model"
)

// Message is one turn of a Conversation.
type Message struct {
	Role    model.Role `json:"role"`
	Content string     `json:"content"`
}

// Conversation is the append-only log a UI keeps for display. Dispatch
// loops never read it.
type Conversation struct {
	mu       sync.RWMutex
	messages []Message
}

// NewConversation creates a conversation that starts with an assistant
// greeting, if one is given.
func NewConversation(welcome string) *Conversation {
	c := &Conversation{}
	if welcome != "" {
		c.Append(model.RoleAssistant, welcome)
	}
	return c
}

// Append adds a message. Only user and assistant roles are kept.
func (c *Conversation) Append(role model.Role, content string) bool {
	if role != model.RoleUser && role != model.RoleAssistant {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, Message{Role: role, Content: content})
	return true
}

// Messages returns a copy of the log, oldest first.
func (c *Conversation) Messages() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}
