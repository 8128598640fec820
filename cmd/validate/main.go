package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jwebster45206/comic-crush/pkg/story"
)

// Checks a saved story node (for example a captured model response or a test
// fixture) against the rules the engine applies to model output, plus the
// stricter content rules a hand-written page should meet.
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <node.json> [more.json...]\n", os.Args[0])
		os.Exit(1)
	}

	failed := false
	for _, filename := range os.Args[1:] {
		validator := &NodeValidator{}
		if err := validator.validateFile(filename); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			failed = true
			continue
		}
		fmt.Printf("%s is valid!\n", filename)
	}
	if failed {
		os.Exit(1)
	}
}

type NodeValidator struct {
	errors []string
}

func (v *NodeValidator) validateFile(filename string) error {
	if !strings.HasSuffix(filepath.Base(filename), ".json") {
		return fmt.Errorf("story node file must have .json extension: %s", filepath.Base(filename))
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return v.validate(filename, data)
}

func (v *NodeValidator) validate(filename string, data []byte) error {
	v.errors = nil

	if !json.Valid(data) {
		return fmt.Errorf("file %s contains invalid JSON", filename)
	}

	// Unknown keys usually mean a typo in a field name
	var strict story.StoryNode
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&strict); err != nil {
		return fmt.Errorf("file %s failed strict JSON unmarshaling: %w", filename, err)
	}

	node, err := story.ParseNode(data)
	if err != nil {
		return fmt.Errorf("file %s is not a valid story node: %w", filename, err)
	}

	v.validateNode(node)

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}
	return nil
}

// maxChoices is the most choices a page can show as numbered buttons.
const maxChoices = 4

func (v *NodeValidator) validateNode(node *story.StoryNode) {
	v.requireText("narrative", node.Narrative)
	v.requireText("speakerName", node.SpeakerName)
	v.requireText("visualDescription", node.VisualDescription)
	v.requireText("backgroundStyle", node.BackgroundStyle)

	if !node.IsNarration() && strings.TrimSpace(node.Dialogue) == "" {
		v.addError("dialogue is empty but speakerName is %q; use %q for narration-only pages", node.SpeakerName, story.NarratorSpeaker)
	}

	// the parser already enforces the minimum and unique ids
	if len(node.Choices) > maxChoices {
		v.addError("expected at most %d choices, got %d", maxChoices, len(node.Choices))
	}
	for i, c := range node.Choices {
		v.requireText(fmt.Sprintf("choices[%d].text", i), c.Text)
	}
}

func (v *NodeValidator) requireText(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.addError("%s is empty", field)
	}
}

func (v *NodeValidator) addError(format string, args ...interface{}) {
	v.errors = append(v.errors, "  - "+fmt.Sprintf(format, args...))
}
