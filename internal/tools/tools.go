// Package tools defines the assistant's tool catalog: the calendar,
// reminder, and memory operations advertised to the model, the dispatcher
// that executes them, and the fallback synthesis used when tool input fails
// to parse.
package tools

import "github.com/invopop/jsonschema"

// Tool names. The set is closed; dispatch matches these exhaustively with
// an explicit unrecognized case.
const (
	ToolAddCalendarEvent          = "add_calendar_event"
	ToolAddCalendarEventsBatch    = "add_calendar_events_batch"
	ToolModifyCalendarEvent       = "modify_calendar_event"
	ToolModifyCalendarEventsBatch = "modify_calendar_events_batch"
	ToolDeleteCalendarEvent       = "delete_calendar_event"
	ToolDeleteCalendarEventsBatch = "delete_calendar_events_batch"

	ToolAddReminder          = "add_reminder"
	ToolAddRemindersBatch    = "add_reminders_batch"
	ToolModifyReminder       = "modify_reminder"
	ToolModifyRemindersBatch = "modify_reminders_batch"
	ToolDeleteReminder       = "delete_reminder"
	ToolDeleteRemindersBatch = "delete_reminders_batch"

	ToolAddMemory           = "add_memory"
	ToolAddMemoriesBatch    = "add_memories_batch"
	ToolUpdateMemory        = "update_memory"
	ToolUpdateMemoriesBatch = "update_memories_batch"
	ToolRemoveMemory        = "remove_memory"
	ToolRemoveMemoriesBatch = "remove_memories_batch"
)

// ToolDefinition is one entry in the catalog advertised to the model. Its
// JSON form is the wire contract consumed by the model-calling layer.
type ToolDefinition struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	InputSchema *jsonschema.Schema `json:"input_schema"`
}

// --- Calendar inputs ---

// CalendarEventInput describes a single event to create.
type CalendarEventInput struct {
	Title string `json:"title" jsonschema_description:"Title of the event."`
	Start string `json:"start" jsonschema_description:"Start time, formatted like 'Jan 5, 2025 at 3:30 PM'."`
	End   string `json:"end" jsonschema_description:"End time, same format as start."`
	Notes string `json:"notes,omitempty" jsonschema_description:"Optional free-text notes."`
}

// AddCalendarEventsBatchInput carries multiple events to create at once.
type AddCalendarEventsBatchInput struct {
	Events []CalendarEventInput `json:"events" jsonschema_description:"Events to create. Must contain at least two entries; use add_calendar_event for a single one."`
}

// ModifyCalendarEventInput describes a partial change to one event.
type ModifyCalendarEventInput struct {
	ID       string `json:"id,omitempty" jsonschema_description:"ID of the event to modify, when known."`
	Title    string `json:"title,omitempty" jsonschema_description:"Exact current title of the event, used to find it when no ID is known."`
	NewTitle string `json:"new_title,omitempty" jsonschema_description:"New title, if it should change."`
	NewStart string `json:"new_start,omitempty" jsonschema_description:"New start time, formatted like 'Jan 5, 2025 at 3:30 PM'."`
	NewEnd   string `json:"new_end,omitempty" jsonschema_description:"New end time, same format."`
	NewNotes string `json:"new_notes,omitempty" jsonschema_description:"New notes, if they should change."`
}

// ModifyCalendarEventsBatchInput carries multiple event changes.
type ModifyCalendarEventsBatchInput struct {
	Changes []ModifyCalendarEventInput `json:"changes" jsonschema_description:"Event changes to apply. Must contain at least two entries; use modify_calendar_event for a single one."`
}

// DeleteCalendarEventInput identifies one or more events to delete.
type DeleteCalendarEventInput struct {
	ID    string   `json:"id,omitempty" jsonschema_description:"ID of the event to delete, when known."`
	IDs   []string `json:"ids,omitempty" jsonschema_description:"IDs of several events to delete."`
	Title string   `json:"title,omitempty" jsonschema_description:"Exact title of the event, used when no ID is known."`
}

// DeleteCalendarEventsBatchInput carries multiple deletion targets.
type DeleteCalendarEventsBatchInput struct {
	Targets []DeleteCalendarEventInput `json:"targets" jsonschema_description:"Events to delete. Must contain at least two entries; use delete_calendar_event for a single one."`
}

// --- Reminder inputs ---

// ReminderInput describes a single reminder to create.
type ReminderInput struct {
	Title string `json:"title" jsonschema_description:"Title of the reminder."`
	Due   string `json:"due,omitempty" jsonschema_description:"Due time, formatted like 'Jan 5, 2025 at 3:30 PM'. Omit for no due time."`
	Notes string `json:"notes,omitempty" jsonschema_description:"Optional free-text notes."`
}

// AddRemindersBatchInput carries multiple reminders to create at once.
type AddRemindersBatchInput struct {
	Reminders []ReminderInput `json:"reminders" jsonschema_description:"Reminders to create. Must contain at least two entries; use add_reminder for a single one."`
}

// ModifyReminderInput describes a partial change to one reminder.
type ModifyReminderInput struct {
	ID        string `json:"id,omitempty" jsonschema_description:"ID of the reminder to modify, when known."`
	Title     string `json:"title,omitempty" jsonschema_description:"Exact current title of the reminder, used to find it when no ID is known."`
	NewTitle  string `json:"new_title,omitempty" jsonschema_description:"New title, if it should change."`
	NewDue    string `json:"new_due,omitempty" jsonschema_description:"New due time, formatted like 'Jan 5, 2025 at 3:30 PM'."`
	NewNotes  string `json:"new_notes,omitempty" jsonschema_description:"New notes, if they should change."`
	Completed *bool  `json:"completed,omitempty" jsonschema_description:"Mark the reminder complete or incomplete."`
}

// ModifyRemindersBatchInput carries multiple reminder changes.
type ModifyRemindersBatchInput struct {
	Changes []ModifyReminderInput `json:"changes" jsonschema_description:"Reminder changes to apply. Must contain at least two entries; use modify_reminder for a single one."`
}

// DeleteReminderInput identifies one or more reminders to delete.
type DeleteReminderInput struct {
	ID    string   `json:"id,omitempty" jsonschema_description:"ID of the reminder to delete, when known."`
	IDs   []string `json:"ids,omitempty" jsonschema_description:"IDs of several reminders to delete."`
	Title string   `json:"title,omitempty" jsonschema_description:"Exact title of the reminder, used when no ID is known."`
}

// DeleteRemindersBatchInput carries multiple deletion targets.
type DeleteRemindersBatchInput struct {
	Targets []DeleteReminderInput `json:"targets" jsonschema_description:"Reminders to delete. Must contain at least two entries; use delete_reminder for a single one."`
}

// --- Memory inputs ---

// AddMemoryInput describes a single memory to store.
type AddMemoryInput struct {
	Content    string `json:"content" jsonschema_description:"The fact or preference to remember."`
	Category   string `json:"category,omitempty" jsonschema_description:"Category label, e.g. 'preferences', 'health', 'work'. Defaults to 'general'."`
	Importance int    `json:"importance,omitempty" jsonschema_description:"Importance from 1 (trivial) to 5 (critical). Defaults to 3."`
}

// AddMemoriesBatchInput carries multiple memories to store at once.
type AddMemoriesBatchInput struct {
	Memories []AddMemoryInput `json:"memories" jsonschema_description:"Memories to store. Must contain at least two entries; use add_memory for a single one."`
}

// UpdateMemoryInput describes a partial change to one memory.
type UpdateMemoryInput struct {
	ID            string `json:"id,omitempty" jsonschema_description:"ID of the memory to update, when known."`
	OldContent    string `json:"old_content,omitempty" jsonschema_description:"Exact current content of the memory, used to find it when no ID is known."`
	NewContent    string `json:"new_content,omitempty" jsonschema_description:"Replacement content."`
	NewCategory   string `json:"new_category,omitempty" jsonschema_description:"New category, if it should change."`
	NewImportance *int   `json:"new_importance,omitempty" jsonschema_description:"New importance from 1 to 5, if it should change."`
}

// UpdateMemoriesBatchInput carries multiple memory updates.
type UpdateMemoriesBatchInput struct {
	Updates []UpdateMemoryInput `json:"updates" jsonschema_description:"Memory updates to apply. Must contain at least two entries; use update_memory for a single one."`
}

// RemoveMemoryInput identifies one or more memories to remove.
type RemoveMemoryInput struct {
	ID      string   `json:"id,omitempty" jsonschema_description:"ID of the memory to remove, when known."`
	IDs     []string `json:"ids,omitempty" jsonschema_description:"IDs of several memories to remove."`
	Content string   `json:"content,omitempty" jsonschema_description:"Exact content of the memory, used when no ID is known."`
}

// RemoveMemoriesBatchInput carries multiple removal targets.
type RemoveMemoriesBatchInput struct {
	Targets []RemoveMemoryInput `json:"targets" jsonschema_description:"Memories to remove. Must contain at least two entries; use remove_memory for a single one."`
}

// Precomputed input schemas, one per tool.
var (
	calendarEventInputSchema             = GenerateSchema[CalendarEventInput]()
	addCalendarEventsBatchInputSchema    = GenerateSchema[AddCalendarEventsBatchInput]()
	modifyCalendarEventInputSchema       = GenerateSchema[ModifyCalendarEventInput]()
	modifyCalendarEventsBatchInputSchema = GenerateSchema[ModifyCalendarEventsBatchInput]()
	deleteCalendarEventInputSchema       = GenerateSchema[DeleteCalendarEventInput]()
	deleteCalendarEventsBatchInputSchema = GenerateSchema[DeleteCalendarEventsBatchInput]()

	reminderInputSchema             = GenerateSchema[ReminderInput]()
	addRemindersBatchInputSchema    = GenerateSchema[AddRemindersBatchInput]()
	modifyReminderInputSchema       = GenerateSchema[ModifyReminderInput]()
	modifyRemindersBatchInputSchema = GenerateSchema[ModifyRemindersBatchInput]()
	deleteReminderInputSchema       = GenerateSchema[DeleteReminderInput]()
	deleteRemindersBatchInputSchema = GenerateSchema[DeleteRemindersBatchInput]()

	addMemoryInputSchema           = GenerateSchema[AddMemoryInput]()
	addMemoriesBatchInputSchema    = GenerateSchema[AddMemoriesBatchInput]()
	updateMemoryInputSchema        = GenerateSchema[UpdateMemoryInput]()
	updateMemoriesBatchInputSchema = GenerateSchema[UpdateMemoriesBatchInput]()
	removeMemoryInputSchema        = GenerateSchema[RemoveMemoryInput]()
	removeMemoriesBatchInputSchema = GenerateSchema[RemoveMemoriesBatchInput]()
)

// Definitions returns the fixed, ordered tool catalog advertised to the
// model. Deterministic, no side effects. Every mutating operation has a
// singular and a batch variant; the descriptions steer the model to the
// batch form for two or more items and to ID-or-text targeting on modify
// and delete, since neither policy is enforceable here.
func Definitions() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        ToolAddCalendarEvent,
			Description: "Create a single calendar event. Only use this for exactly one event. When the user asks for two or more events, call add_calendar_events_batch once instead of calling this tool repeatedly.",
			InputSchema: calendarEventInputSchema,
		},
		{
			Name:        ToolAddCalendarEventsBatch,
			Description: "Create several calendar events in one call. Always prefer this over repeated add_calendar_event calls when creating two or more events.",
			InputSchema: addCalendarEventsBatchInputSchema,
		},
		{
			Name:        ToolModifyCalendarEvent,
			Description: "Modify a single calendar event. Identify it by id when known, or by its exact current title otherwise. Only use this for exactly one event; for two or more, call modify_calendar_events_batch instead.",
			InputSchema: modifyCalendarEventInputSchema,
		},
		{
			Name:        ToolModifyCalendarEventsBatch,
			Description: "Modify several calendar events in one call. Each change identifies its event by id or exact title. Always prefer this over repeated modify_calendar_event calls when changing two or more events.",
			InputSchema: modifyCalendarEventsBatchInputSchema,
		},
		{
			Name:        ToolDeleteCalendarEvent,
			Description: "Delete a calendar event. Accepts a single id, a list of ids, or the exact event title when no id is known. Only use this for one logical deletion; for several distinct events, call delete_calendar_events_batch instead.",
			InputSchema: deleteCalendarEventInputSchema,
		},
		{
			Name:        ToolDeleteCalendarEventsBatch,
			Description: "Delete several calendar events in one call. Each target is identified by id, ids, or exact title. Always prefer this over repeated delete_calendar_event calls.",
			InputSchema: deleteCalendarEventsBatchInputSchema,
		},
		{
			Name:        ToolAddReminder,
			Description: "Create a single reminder. Only use this for exactly one reminder. When the user asks for two or more reminders, call add_reminders_batch once instead of calling this tool repeatedly.",
			InputSchema: reminderInputSchema,
		},
		{
			Name:        ToolAddRemindersBatch,
			Description: "Create several reminders in one call. Always prefer this over repeated add_reminder calls when creating two or more reminders.",
			InputSchema: addRemindersBatchInputSchema,
		},
		{
			Name:        ToolModifyReminder,
			Description: "Modify a single reminder, including marking it complete. Identify it by id when known, or by its exact current title otherwise. Only use this for exactly one reminder; for two or more, call modify_reminders_batch instead.",
			InputSchema: modifyReminderInputSchema,
		},
		{
			Name:        ToolModifyRemindersBatch,
			Description: "Modify several reminders in one call. Each change identifies its reminder by id or exact title. Always prefer this over repeated modify_reminder calls when changing two or more reminders.",
			InputSchema: modifyRemindersBatchInputSchema,
		},
		{
			Name:        ToolDeleteReminder,
			Description: "Delete a reminder. Accepts a single id, a list of ids, or the exact reminder title when no id is known. Only use this for one logical deletion; for several distinct reminders, call delete_reminders_batch instead.",
			InputSchema: deleteReminderInputSchema,
		},
		{
			Name:        ToolDeleteRemindersBatch,
			Description: "Delete several reminders in one call. Each target is identified by id, ids, or exact title. Always prefer this over repeated delete_reminder calls.",
			InputSchema: deleteRemindersBatchInputSchema,
		},
		{
			Name:        ToolAddMemory,
			Description: "Store a single memory about the user: a fact, preference, or piece of context worth keeping across conversations. Only use this for exactly one memory; for two or more, call add_memories_batch once instead.",
			InputSchema: addMemoryInputSchema,
		},
		{
			Name:        ToolAddMemoriesBatch,
			Description: "Store several memories in one call. Always prefer this over repeated add_memory calls when storing two or more memories.",
			InputSchema: addMemoriesBatchInputSchema,
		},
		{
			Name:        ToolUpdateMemory,
			Description: "Update a single stored memory. Identify it by id when known, or by its exact current content otherwise. Only use this for exactly one memory; for two or more, call update_memories_batch instead.",
			InputSchema: updateMemoryInputSchema,
		},
		{
			Name:        ToolUpdateMemoriesBatch,
			Description: "Update several stored memories in one call. Each update identifies its memory by id or exact current content. Always prefer this over repeated update_memory calls.",
			InputSchema: updateMemoriesBatchInputSchema,
		},
		{
			Name:        ToolRemoveMemory,
			Description: "Remove a stored memory. Accepts a single id, a list of ids, or the exact memory content when no id is known. Only use this for one logical removal; for several distinct memories, call remove_memories_batch instead.",
			InputSchema: removeMemoryInputSchema,
		},
		{
			Name:        ToolRemoveMemoriesBatch,
			Description: "Remove several stored memories in one call. Each target is identified by id, ids, or exact content. Always prefer this over repeated remove_memory calls.",
			InputSchema: removeMemoriesBatchInputSchema,
		},
	}
}
