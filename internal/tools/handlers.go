package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"dayflow/internal/calendar"
	"dayflow/internal/memory"
	"dayflow/internal/reminder"
)

// Result is the uniform tool execution outcome reported back to the model.
type Result struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (r Result) encode() string {
	b, err := json.Marshal(r)
	if err != nil {
		return `{"success":false,"error":"failed to encode result"}`
	}
	return string(b)
}

func success(data any) string {
	return Result{Success: true, Data: data}.encode()
}

func failure(format string, args ...any) string {
	return Result{Success: false, Error: fmt.Sprintf(format, args...)}.encode()
}

// Handler dispatches tool calls to the calendar, reminder, and memory
// stores. Execution failures are reported inside the Result payload, never
// as Go errors, so a bad call degrades the model's turn instead of the
// session.
type Handler struct {
	calendars *calendar.Store
	reminders *reminder.Store
	memories  memory.Store
	log       *zap.Logger
}

// NewHandler creates a dispatcher over the three stores.
func NewHandler(calendars *calendar.Store, reminders *reminder.Store, memories memory.Store, log *zap.Logger) *Handler {
	return &Handler{calendars: calendars, reminders: reminders, memories: memories, log: log}
}

// decodeInput unmarshals raw tool input into its typed struct. When the
// payload fails to parse, a synthesized fallback input is substituted so
// the call can proceed with placeholder values.
func decodeInput[T any](log *zap.Logger, name string, raw json.RawMessage) T {
	var in T
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, &in); err != nil {
		log.Warn("tool input failed to parse, using fallback",
			zap.String("tool", name),
			zap.Error(err))
		if fb, mErr := json.Marshal(SynthesizeFallback(name)); mErr == nil {
			_ = json.Unmarshal(fb, &in)
		}
	}
	return in
}

// HandleToolCall executes the named tool against its store and returns the
// encoded Result. Unrecognized names produce a failure Result, not an
// error.
func (h *Handler) HandleToolCall(ctx context.Context, name string, input json.RawMessage) string {
	h.log.Debug("executing tool", zap.String("tool", name))

	switch name {
	case ToolAddCalendarEvent:
		return h.addCalendarEvent(ctx, decodeInput[CalendarEventInput](h.log, name, input))
	case ToolAddCalendarEventsBatch:
		return h.addCalendarEventsBatch(ctx, decodeInput[AddCalendarEventsBatchInput](h.log, name, input))
	case ToolModifyCalendarEvent:
		return h.modifyCalendarEvent(ctx, decodeInput[ModifyCalendarEventInput](h.log, name, input))
	case ToolModifyCalendarEventsBatch:
		return h.modifyCalendarEventsBatch(ctx, decodeInput[ModifyCalendarEventsBatchInput](h.log, name, input))
	case ToolDeleteCalendarEvent:
		return h.deleteCalendarEvent(ctx, decodeInput[DeleteCalendarEventInput](h.log, name, input))
	case ToolDeleteCalendarEventsBatch:
		return h.deleteCalendarEventsBatch(ctx, decodeInput[DeleteCalendarEventsBatchInput](h.log, name, input))
	case ToolAddReminder:
		return h.addReminder(ctx, decodeInput[ReminderInput](h.log, name, input))
	case ToolAddRemindersBatch:
		return h.addRemindersBatch(ctx, decodeInput[AddRemindersBatchInput](h.log, name, input))
	case ToolModifyReminder:
		return h.modifyReminder(ctx, decodeInput[ModifyReminderInput](h.log, name, input))
	case ToolModifyRemindersBatch:
		return h.modifyRemindersBatch(ctx, decodeInput[ModifyRemindersBatchInput](h.log, name, input))
	case ToolDeleteReminder:
		return h.deleteReminder(ctx, decodeInput[DeleteReminderInput](h.log, name, input))
	case ToolDeleteRemindersBatch:
		return h.deleteRemindersBatch(ctx, decodeInput[DeleteRemindersBatchInput](h.log, name, input))
	case ToolAddMemory:
		return h.addMemory(ctx, decodeInput[AddMemoryInput](h.log, name, input))
	case ToolAddMemoriesBatch:
		return h.addMemoriesBatch(ctx, decodeInput[AddMemoriesBatchInput](h.log, name, input))
	case ToolUpdateMemory:
		return h.updateMemory(ctx, decodeInput[UpdateMemoryInput](h.log, name, input))
	case ToolUpdateMemoriesBatch:
		return h.updateMemoriesBatch(ctx, decodeInput[UpdateMemoriesBatchInput](h.log, name, input))
	case ToolRemoveMemory:
		return h.removeMemory(ctx, decodeInput[RemoveMemoryInput](h.log, name, input))
	case ToolRemoveMemoriesBatch:
		return h.removeMemoriesBatch(ctx, decodeInput[RemoveMemoriesBatchInput](h.log, name, input))
	default:
		h.log.Warn("unrecognized tool call", zap.String("tool", name))
		return failure("unrecognized tool: %s", name)
	}
}

// --- Calendar handlers ---

// eventTimes resolves the start/end strings of an event payload, defaulting
// unparseable values to now and start+1h.
func eventTimes(startText, endText string) (time.Time, time.Time) {
	start, ok := ParseDateTime(startText)
	if !ok {
		start = time.Now()
	}
	end, ok := ParseDateTime(endText)
	if !ok || !end.After(start) {
		end = start.Add(time.Hour)
	}
	return start, end
}

func (h *Handler) addCalendarEvent(ctx context.Context, in CalendarEventInput) string {
	start, end := eventTimes(in.Start, in.End)
	e, err := h.calendars.Add(ctx, in.Title, start, end, in.Notes)
	if err != nil {
		return failure("failed to add event: %v", err)
	}
	return success(map[string]any{"id": e.ID, "title": e.Title})
}

func (h *Handler) addCalendarEventsBatch(ctx context.Context, in AddCalendarEventsBatchInput) string {
	if len(in.Events) == 0 {
		return failure("events is required and must not be empty")
	}
	var ids []string
	for _, ev := range in.Events {
		start, end := eventTimes(ev.Start, ev.End)
		e, err := h.calendars.Add(ctx, ev.Title, start, end, ev.Notes)
		if err != nil {
			h.log.Warn("batch event add failed", zap.String("title", ev.Title), zap.Error(err))
			continue
		}
		ids = append(ids, e.ID)
	}
	if len(ids) == 0 {
		return failure("no events could be added")
	}
	return success(map[string]any{"added": len(ids), "ids": ids})
}

func calendarChanges(in ModifyCalendarEventInput) calendar.Changes {
	var changes calendar.Changes
	if in.NewTitle != "" {
		changes.Title = &in.NewTitle
	}
	if t, ok := ParseDateTime(in.NewStart); ok {
		changes.Start = &t
	}
	if t, ok := ParseDateTime(in.NewEnd); ok {
		changes.End = &t
	}
	if in.NewNotes != "" {
		changes.Notes = &in.NewNotes
	}
	return changes
}

func (h *Handler) modifyCalendarEvent(ctx context.Context, in ModifyCalendarEventInput) string {
	ok, err := h.calendars.Modify(ctx, calendar.Ref{ID: in.ID, Title: in.Title}, calendarChanges(in))
	if err != nil {
		return failure("failed to modify event: %v", err)
	}
	if !ok {
		return failure("no matching event found")
	}
	return success("event updated")
}

func (h *Handler) modifyCalendarEventsBatch(ctx context.Context, in ModifyCalendarEventsBatchInput) string {
	if len(in.Changes) == 0 {
		return failure("changes is required and must not be empty")
	}
	modified := 0
	for _, ch := range in.Changes {
		ok, err := h.calendars.Modify(ctx, calendar.Ref{ID: ch.ID, Title: ch.Title}, calendarChanges(ch))
		if err != nil {
			h.log.Warn("batch event modify failed", zap.String("id", ch.ID), zap.Error(err))
			continue
		}
		if ok {
			modified++
		}
	}
	return success(map[string]any{"modified": modified})
}

func (h *Handler) deleteCalendarEvent(ctx context.Context, in DeleteCalendarEventInput) string {
	deleted := 0
	if len(in.IDs) > 0 {
		for _, id := range in.IDs {
			ok, err := h.calendars.Delete(ctx, calendar.Ref{ID: id})
			if err != nil {
				h.log.Warn("event delete failed", zap.String("id", id), zap.Error(err))
				continue
			}
			if ok {
				deleted++
			}
		}
	} else {
		ok, err := h.calendars.Delete(ctx, calendar.Ref{ID: in.ID, Title: in.Title})
		if err != nil {
			return failure("failed to delete event: %v", err)
		}
		if ok {
			deleted++
		}
	}
	if deleted == 0 {
		return failure("no matching event found")
	}
	return success(map[string]any{"deleted": deleted})
}

func (h *Handler) deleteCalendarEventsBatch(ctx context.Context, in DeleteCalendarEventsBatchInput) string {
	if len(in.Targets) == 0 {
		return failure("targets is required and must not be empty")
	}
	deleted := 0
	for _, t := range in.Targets {
		refs := []calendar.Ref{{ID: t.ID, Title: t.Title}}
		if len(t.IDs) > 0 {
			refs = refs[:0]
			for _, id := range t.IDs {
				refs = append(refs, calendar.Ref{ID: id})
			}
		}
		for _, ref := range refs {
			ok, err := h.calendars.Delete(ctx, ref)
			if err != nil {
				h.log.Warn("batch event delete failed", zap.String("id", ref.ID), zap.Error(err))
				continue
			}
			if ok {
				deleted++
			}
		}
	}
	return success(map[string]any{"deleted": deleted})
}

// --- Reminder handlers ---

func (h *Handler) addReminder(ctx context.Context, in ReminderInput) string {
	due, ok := ParseDateTime(in.Due)
	if !ok {
		due = time.Now().Add(24 * time.Hour)
	}
	r, err := h.reminders.Add(ctx, in.Title, due, in.Notes)
	if err != nil {
		return failure("failed to add reminder: %v", err)
	}
	return success(map[string]any{"id": r.ID, "title": r.Title})
}

func (h *Handler) addRemindersBatch(ctx context.Context, in AddRemindersBatchInput) string {
	if len(in.Reminders) == 0 {
		return failure("reminders is required and must not be empty")
	}
	var ids []string
	for _, rm := range in.Reminders {
		due, ok := ParseDateTime(rm.Due)
		if !ok {
			due = time.Now().Add(24 * time.Hour)
		}
		r, err := h.reminders.Add(ctx, rm.Title, due, rm.Notes)
		if err != nil {
			h.log.Warn("batch reminder add failed", zap.String("title", rm.Title), zap.Error(err))
			continue
		}
		ids = append(ids, r.ID)
	}
	if len(ids) == 0 {
		return failure("no reminders could be added")
	}
	return success(map[string]any{"added": len(ids), "ids": ids})
}

func reminderChanges(in ModifyReminderInput) reminder.Changes {
	var changes reminder.Changes
	if in.NewTitle != "" {
		changes.Title = &in.NewTitle
	}
	if t, ok := ParseDateTime(in.NewDue); ok {
		changes.Due = &t
	}
	if in.NewNotes != "" {
		changes.Notes = &in.NewNotes
	}
	changes.Completed = in.Completed
	return changes
}

func (h *Handler) modifyReminder(ctx context.Context, in ModifyReminderInput) string {
	ok, err := h.reminders.Modify(ctx, reminder.Ref{ID: in.ID, Title: in.Title}, reminderChanges(in))
	if err != nil {
		return failure("failed to modify reminder: %v", err)
	}
	if !ok {
		return failure("no matching reminder found")
	}
	return success("reminder updated")
}

func (h *Handler) modifyRemindersBatch(ctx context.Context, in ModifyRemindersBatchInput) string {
	if len(in.Changes) == 0 {
		return failure("changes is required and must not be empty")
	}
	modified := 0
	for _, ch := range in.Changes {
		ok, err := h.reminders.Modify(ctx, reminder.Ref{ID: ch.ID, Title: ch.Title}, reminderChanges(ch))
		if err != nil {
			h.log.Warn("batch reminder modify failed", zap.String("id", ch.ID), zap.Error(err))
			continue
		}
		if ok {
			modified++
		}
	}
	return success(map[string]any{"modified": modified})
}

func (h *Handler) deleteReminder(ctx context.Context, in DeleteReminderInput) string {
	deleted := 0
	if len(in.IDs) > 0 {
		for _, id := range in.IDs {
			ok, err := h.reminders.Delete(ctx, reminder.Ref{ID: id})
			if err != nil {
				h.log.Warn("reminder delete failed", zap.String("id", id), zap.Error(err))
				continue
			}
			if ok {
				deleted++
			}
		}
	} else {
		ok, err := h.reminders.Delete(ctx, reminder.Ref{ID: in.ID, Title: in.Title})
		if err != nil {
			return failure("failed to delete reminder: %v", err)
		}
		if ok {
			deleted++
		}
	}
	if deleted == 0 {
		return failure("no matching reminder found")
	}
	return success(map[string]any{"deleted": deleted})
}

func (h *Handler) deleteRemindersBatch(ctx context.Context, in DeleteRemindersBatchInput) string {
	if len(in.Targets) == 0 {
		return failure("targets is required and must not be empty")
	}
	deleted := 0
	for _, t := range in.Targets {
		refs := []reminder.Ref{{ID: t.ID, Title: t.Title}}
		if len(t.IDs) > 0 {
			refs = refs[:0]
			for _, id := range t.IDs {
				refs = append(refs, reminder.Ref{ID: id})
			}
		}
		for _, ref := range refs {
			ok, err := h.reminders.Delete(ctx, ref)
			if err != nil {
				h.log.Warn("batch reminder delete failed", zap.String("id", ref.ID), zap.Error(err))
				continue
			}
			if ok {
				deleted++
			}
		}
	}
	return success(map[string]any{"deleted": deleted})
}

// --- Memory handlers ---

func (h *Handler) addMemory(ctx context.Context, in AddMemoryInput) string {
	if in.Content == "" {
		return failure("content is required")
	}
	m, err := h.memories.Add(ctx, in.Content, in.Category, in.Importance)
	if err != nil {
		return failure("failed to add memory: %v", err)
	}
	return success(map[string]any{"id": m.ID})
}

func (h *Handler) addMemoriesBatch(ctx context.Context, in AddMemoriesBatchInput) string {
	if len(in.Memories) == 0 {
		return failure("memories is required and must not be empty")
	}
	added := 0
	for _, am := range in.Memories {
		if am.Content == "" {
			continue
		}
		if _, err := h.memories.Add(ctx, am.Content, am.Category, am.Importance); err != nil {
			h.log.Warn("batch memory add failed", zap.Error(err))
			continue
		}
		added++
	}
	if added == 0 {
		return failure("no memories could be added")
	}
	return success(map[string]any{"added": added})
}

func memoryChanges(in UpdateMemoryInput) memory.Changes {
	var changes memory.Changes
	if in.NewContent != "" {
		changes.Content = &in.NewContent
	}
	if in.NewCategory != "" {
		changes.Category = &in.NewCategory
	}
	changes.Importance = in.NewImportance
	return changes
}

func (h *Handler) updateMemory(ctx context.Context, in UpdateMemoryInput) string {
	ok, err := h.memories.Update(ctx, memory.Ref{ID: in.ID, Content: in.OldContent}, memoryChanges(in))
	if err != nil {
		return failure("failed to update memory: %v", err)
	}
	if !ok {
		return failure("no matching memory found")
	}
	return success("memory updated")
}

func (h *Handler) updateMemoriesBatch(ctx context.Context, in UpdateMemoriesBatchInput) string {
	if len(in.Updates) == 0 {
		return failure("updates is required and must not be empty")
	}
	updated := 0
	for _, u := range in.Updates {
		ok, err := h.memories.Update(ctx, memory.Ref{ID: u.ID, Content: u.OldContent}, memoryChanges(u))
		if err != nil {
			h.log.Warn("batch memory update failed", zap.String("id", u.ID), zap.Error(err))
			continue
		}
		if ok {
			updated++
		}
	}
	return success(map[string]any{"updated": updated})
}

func (h *Handler) removeMemory(ctx context.Context, in RemoveMemoryInput) string {
	removed := 0
	if len(in.IDs) > 0 {
		for _, id := range in.IDs {
			ok, err := h.memories.Remove(ctx, memory.Ref{ID: id})
			if err != nil {
				h.log.Warn("memory remove failed", zap.String("id", id), zap.Error(err))
				continue
			}
			if ok {
				removed++
			}
		}
	} else {
		ok, err := h.memories.Remove(ctx, memory.Ref{ID: in.ID, Content: in.Content})
		if err != nil {
			return failure("failed to remove memory: %v", err)
		}
		if ok {
			removed++
		}
	}
	if removed == 0 {
		return failure("no matching memory found")
	}
	return success(map[string]any{"removed": removed})
}

func (h *Handler) removeMemoriesBatch(ctx context.Context, in RemoveMemoriesBatchInput) string {
	if len(in.Targets) == 0 {
		return failure("targets is required and must not be empty")
	}
	removed := 0
	for _, t := range in.Targets {
		refs := []memory.Ref{{ID: t.ID, Content: t.Content}}
		if len(t.IDs) > 0 {
			refs = refs[:0]
			for _, id := range t.IDs {
				refs = append(refs, memory.Ref{ID: id})
			}
		}
		for _, ref := range refs {
			ok, err := h.memories.Remove(ctx, ref)
			if err != nil {
				h.log.Warn("batch memory remove failed", zap.String("id", ref.ID), zap.Error(err))
				continue
			}
			if ok {
				removed++
			}
		}
	}
	return success(map[string]any{"removed": removed})
}
