package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// Instruction is a single structured memory mutation decoded from model
// output. The set of implementations is closed: AddInstruction,
// UpdateInstruction, RemoveInstruction.
type Instruction interface {
	// Apply executes the instruction against the store, reporting whether
	// the store changed.
	Apply(ctx context.Context, s Store) (bool, error)
}

// AddInstruction creates a new memory.
type AddInstruction struct {
	Content    string
	Category   string
	Importance int
}

// UpdateInstruction rewrites an existing memory identified by ID or, as a
// fallback, by its current content.
type UpdateInstruction struct {
	Ref     Ref
	Changes Changes
}

// RemoveInstruction deletes an existing memory identified by ID or content.
type RemoveInstruction struct {
	Ref Ref
}

func (in AddInstruction) Apply(ctx context.Context, s Store) (bool, error) {
	if strings.TrimSpace(in.Content) == "" {
		return false, fmt.Errorf("add instruction has empty content")
	}
	if _, err := s.Add(ctx, in.Content, in.Category, in.Importance); err != nil {
		return false, err
	}
	return true, nil
}

func (in UpdateInstruction) Apply(ctx context.Context, s Store) (bool, error) {
	if in.Ref.IsZero() {
		return false, fmt.Errorf("update instruction has no id or old content")
	}
	if in.Changes.IsZero() {
		return false, fmt.Errorf("update instruction changes nothing")
	}
	return s.Update(ctx, in.Ref, in.Changes)
}

func (in RemoveInstruction) Apply(ctx context.Context, s Store) (bool, error) {
	if in.Ref.IsZero() {
		return false, fmt.Errorf("remove instruction has no id or content")
	}
	return s.Remove(ctx, in.Ref)
}

// instructionEnvelope is the wire form of a structured instruction. Pointer
// fields distinguish "absent" from zero values on update.
type instructionEnvelope struct {
	Action        string  `json:"action"`
	ID            string  `json:"id,omitempty"`
	Content       string  `json:"content,omitempty"`
	Category      string  `json:"category,omitempty"`
	Importance    int     `json:"importance,omitempty"`
	OldContent    string  `json:"old_content,omitempty"`
	NewContent    *string `json:"new_content,omitempty"`
	NewCategory   *string `json:"new_category,omitempty"`
	NewImportance *int    `json:"new_importance,omitempty"`
}

// decodeInstruction converts a wire envelope into its typed instruction.
func decodeInstruction(env instructionEnvelope) (Instruction, error) {
	switch env.Action {
	case "add":
		return AddInstruction{
			Content:    env.Content,
			Category:   env.Category,
			Importance: env.Importance,
		}, nil
	case "update":
		return UpdateInstruction{
			Ref: Ref{ID: env.ID, Content: env.OldContent},
			Changes: Changes{
				Content:    env.NewContent,
				Category:   env.NewCategory,
				Importance: env.NewImportance,
			},
		}, nil
	case "remove", "delete":
		ref := Ref{ID: env.ID, Content: env.Content}
		if ref.Content == "" {
			ref.Content = env.OldContent
		}
		return RemoveInstruction{Ref: ref}, nil
	default:
		return nil, fmt.Errorf("unknown instruction action %q", env.Action)
	}
}

// fencedBlockPattern matches fenced code blocks, optionally tagged json.
// Non-greedy so multiple blocks in one response each match separately.
var fencedBlockPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// ParseInstructions extracts structured memory instructions from free-form
// model output. A candidate contributes instructions when it is valid JSON
// whose object (or array of objects) carries an "action" field. The whole
// trimmed text is tried first; when it is itself an instruction payload
// the fenced blocks are not scanned again, since a bare payload and its
// fence would be the same text applied twice. Otherwise every fenced code
// block is a candidate. Text containing no instructions yields an empty
// slice, not an error.
func ParseInstructions(text string) []Instruction {
	if out := parseCandidate(strings.TrimSpace(text)); len(out) > 0 {
		return out
	}

	var out []Instruction
	for _, m := range fencedBlockPattern.FindAllStringSubmatch(text, -1) {
		out = append(out, parseCandidate(strings.TrimSpace(m[1]))...)
	}
	return out
}

// parseCandidate decodes one candidate payload into instructions, in order
// of appearance. Invalid JSON and objects without an action field yield
// nothing.
func parseCandidate(candidate string) []Instruction {
	if candidate == "" || !gjson.Valid(candidate) {
		return nil
	}

	var out []Instruction
	parsed := gjson.Parse(candidate)
	switch {
	case parsed.IsObject() && parsed.Get("action").Exists():
		if in := decodeEnvelopeJSON(candidate); in != nil {
			out = append(out, in)
		}
	case parsed.IsArray():
		for _, elem := range parsed.Array() {
			if !elem.IsObject() || !elem.Get("action").Exists() {
				continue
			}
			if in := decodeEnvelopeJSON(elem.Raw); in != nil {
				out = append(out, in)
			}
		}
	}
	return out
}

func decodeEnvelopeJSON(raw string) Instruction {
	var env instructionEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil
	}
	in, err := decodeInstruction(env)
	if err != nil {
		return nil
	}
	return in
}

// processInstructions is the shared implementation behind
// Store.ProcessInstructions. Instructions apply in order of appearance;
// a failing instruction is skipped without aborting the rest.
func processInstructions(ctx context.Context, s Store, text string) (bool, error) {
	changed := false
	var firstErr error
	for _, in := range ParseInstructions(text) {
		ok, err := in.Apply(ctx, s)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		changed = changed || ok
	}
	if changed {
		return true, nil
	}
	return false, firstErr
}

// Legacy diff block format, one operation per line:
//
//	+ content            add a memory
//	- id-or-content      remove a memory
//	~ old -> new         rewrite a memory's content
//
// Lines matching none of these are ignored. The format predates structured
// instructions and is kept for transcripts and models that still emit it.
const diffRewriteSeparator = " -> "

// applyDiff is the shared implementation behind Store.ApplyDiff.
// Lines apply top to bottom; a failing line is skipped.
func applyDiff(ctx context.Context, s Store, diff string) (bool, error) {
	changed := false
	var firstErr error
	for _, line := range strings.Split(diff, "\n") {
		line = strings.TrimSpace(line)
		if len(line) < 2 {
			continue
		}
		marker, rest := line[:1], strings.TrimSpace(line[1:])
		if rest == "" {
			continue
		}

		var (
			ok  bool
			err error
		)
		switch marker {
		case "+":
			_, err = s.Add(ctx, rest, "", 0)
			ok = err == nil
		case "-":
			ok, err = s.Remove(ctx, Ref{ID: rest, Content: rest})
		case "~":
			oldContent, newContent, found := strings.Cut(rest, diffRewriteSeparator)
			if !found {
				continue
			}
			oldContent = strings.TrimSpace(oldContent)
			newContent = strings.TrimSpace(newContent)
			if oldContent == "" || newContent == "" {
				continue
			}
			ok, err = s.Update(ctx, Ref{Content: oldContent}, Changes{Content: &newContent})
		default:
			continue
		}

		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		changed = changed || ok
	}
	if changed {
		return true, nil
	}
	return false, firstErr
}
