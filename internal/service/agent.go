package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"dayflow/internal/calendar"
	"dayflow/internal/llm"
	"dayflow/internal/memory"
	"dayflow/internal/reminder"
	"dayflow/internal/tools"
	"dayflow/internal/update"
)

// Agent is the assistant: a chat session wired to the tool dispatcher and
// the memory-update interpreter.
type Agent struct {
	llmClient    *llm.Client
	memories     memory.Store
	toolHandler  *tools.Handler
	updates      *update.Handler
	assistantCtx *AssistantContext
	log          *zap.Logger
}

// NewAgent creates a new agent with the given dependencies.
func NewAgent(llmClient *llm.Client, memories memory.Store, calendars *calendar.Store, reminders *reminder.Store, log *zap.Logger) *Agent {
	return &Agent{
		llmClient:    llmClient,
		memories:     memories,
		toolHandler:  tools.NewHandler(calendars, reminders, memories, log),
		updates:      update.NewHandler(log),
		assistantCtx: NewAssistantContext(memories, calendars, reminders, log),
		log:          log,
	}
}

// StartSession builds the assistant context and opens a chat session with
// the full tool catalog.
func (a *Agent) StartSession(ctx context.Context) error {
	if err := a.assistantCtx.Refresh(ctx); err != nil {
		return fmt.Errorf("failed to build assistant context: %w", err)
	}

	if err := a.llmClient.StartChat(ctx, a.buildSystemPrompt(), tools.FunctionDeclarations()); err != nil {
		return fmt.Errorf("failed to start chat session: %w", err)
	}

	a.log.Info("session started")
	return nil
}

// buildSystemPrompt constructs the system prompt with the current context.
func (a *Agent) buildSystemPrompt() string {
	var sb strings.Builder

	sb.WriteString(`You are a personal assistant that helps the user manage their calendar, reminders, and day-to-day context.

You can:
1. Create, modify, and delete calendar events and reminders using the provided tools.
2. Remember facts and preferences about the user with the memory tools.

When the user mentions something worth remembering, store it. When they ask for several changes at once, use the batch tool variants instead of repeating the singular ones.

`)

	if summary := a.assistantCtx.Summary(); summary != "" {
		sb.WriteString(summary)
	}

	sb.WriteString(`Always answer plainly and confirm what you changed.
`)

	return sb.String()
}

// Chat sends a user message and returns the assistant's response. After the
// response settles, the raw text is run through the memory-update
// interpreter so inline updates are applied and the context refreshed.
func (a *Agent) Chat(ctx context.Context, userMessage string) (string, error) {
	resp, err := a.llmClient.Send(ctx, genai.Part{Text: userMessage})
	if err != nil {
		return "", err
	}

	text, err := a.processResponse(ctx, resp)
	if err != nil {
		return "", err
	}

	if a.updates.ProcessUpdates(ctx, text, a.memories, a.assistantCtx) {
		a.log.Debug("memory updated from response text")
	}

	return text, nil
}

// processResponse walks the model response, accumulating text and
// dispatching any tool calls. Tool results are sent back to the model and
// the follow-up response processed recursively, so a chain of calls
// resolves into a single final answer.
func (a *Agent) processResponse(ctx context.Context, resp *genai.GenerateContentResponse) (string, error) {
	var result strings.Builder

	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}

		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}

			if part.Text != "" {
				result.WriteString(part.Text)
			}

			if part.FunctionCall != nil {
				toolResult := a.handleToolCall(ctx, part.FunctionCall)

				funcResp, err := a.llmClient.Send(ctx, genai.Part{
					FunctionResponse: &genai.FunctionResponse{
						Name:     part.FunctionCall.Name,
						Response: map[string]any{"result": toolResult},
					},
				})
				if err != nil {
					return "", fmt.Errorf("failed to send tool response: %w", err)
				}

				followUp, err := a.processResponse(ctx, funcResp)
				if err != nil {
					return "", err
				}
				result.WriteString(followUp)
			}
		}
	}

	return result.String(), nil
}

// handleToolCall dispatches a function call to the tool handler.
func (a *Agent) handleToolCall(ctx context.Context, fc *genai.FunctionCall) string {
	args, err := json.Marshal(fc.Args)
	if err != nil {
		a.log.Warn("failed to encode tool args", zap.String("tool", fc.Name), zap.Error(err))
		args = nil
	}

	a.log.Info("executing tool", zap.String("tool", fc.Name))
	return a.toolHandler.HandleToolCall(ctx, fc.Name, args)
}

// Context exposes the assistant context, mainly for the entry point to
// render or inspect.
func (a *Agent) Context() *AssistantContext {
	return a.assistantCtx
}
