// Package service provides the core assistant logic and session management.
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"dayflow/internal/calendar"
	"dayflow/internal/memory"
	"dayflow/internal/reminder"
)

const contextListLimit = 20

// AssistantContext assembles the stored memories, upcoming events, and
// pending reminders into the context text injected into the system prompt.
// It satisfies the update handler's ContextNotifier so memory mutations
// trigger a rebuild.
type AssistantContext struct {
	memories  memory.Store
	calendars *calendar.Store
	reminders *reminder.Store
	log       *zap.Logger

	mu      sync.RWMutex
	summary string
}

// NewAssistantContext creates a context assembler over the three stores.
func NewAssistantContext(memories memory.Store, calendars *calendar.Store, reminders *reminder.Store, log *zap.Logger) *AssistantContext {
	return &AssistantContext{
		memories:  memories,
		calendars: calendars,
		reminders: reminders,
		log:       log,
	}
}

// Refresh rebuilds the context summary from the stores. Failures in one
// section are logged and leave that section empty rather than failing the
// whole rebuild.
func (c *AssistantContext) Refresh(ctx context.Context) error {
	var sb strings.Builder

	mems, err := c.memories.List(ctx)
	if err != nil {
		c.log.Warn("failed to list memories for context", zap.Error(err))
	}
	if len(mems) > 0 {
		sb.WriteString("Known about the user:\n")
		for i, m := range mems {
			if i == contextListLimit {
				break
			}
			fmt.Fprintf(&sb, "- [%s] %s (id: %s)\n", m.Category, m.Content, m.ID)
		}
		sb.WriteString("\n")
	}

	events, err := c.calendars.Upcoming(ctx, time.Now(), contextListLimit)
	if err != nil {
		c.log.Warn("failed to list events for context", zap.Error(err))
	}
	if len(events) > 0 {
		sb.WriteString("Upcoming calendar events:\n")
		for _, e := range events {
			fmt.Fprintf(&sb, "- %s from %s to %s (id: %s)\n",
				e.Title, formatContextTime(e.Start), formatContextTime(e.End), e.ID)
		}
		sb.WriteString("\n")
	}

	rems, err := c.reminders.Pending(ctx, contextListLimit)
	if err != nil {
		c.log.Warn("failed to list reminders for context", zap.Error(err))
	}
	if len(rems) > 0 {
		sb.WriteString("Pending reminders:\n")
		for _, r := range rems {
			fmt.Fprintf(&sb, "- %s due %s (id: %s)\n", r.Title, formatContextTime(r.Due), r.ID)
		}
		sb.WriteString("\n")
	}

	c.mu.Lock()
	c.summary = sb.String()
	c.mu.Unlock()

	c.log.Debug("assistant context refreshed",
		zap.Int("memories", len(mems)),
		zap.Int("events", len(events)),
		zap.Int("reminders", len(rems)))
	return nil
}

// Summary returns the most recently built context text.
func (c *AssistantContext) Summary() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.summary
}

func formatContextTime(t time.Time) string {
	return t.Local().Format("Jan 2, 2006 at 3:04 PM")
}
