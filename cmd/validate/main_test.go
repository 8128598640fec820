package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goodNode = `{
	"narrative": "The lab lights flicker.",
	"speakerName": "Dr. Nova",
	"dialogue": "Don't touch that.",
	"visualDescription": "A cluttered lab, neon tubes, halftone shading.",
	"backgroundStyle": "lab",
	"soundEffectText": "BZZT!",
	"choices": [
		{"id": "1", "text": "Touch it anyway", "actionType": "funny"},
		{"id": "2", "text": "Step back", "actionType": "neutral"}
	]
}`

func TestNodeValidator_Valid(t *testing.T) {
	v := &NodeValidator{}
	assert.NoError(t, v.validate("good.json", []byte(goodNode)))
}

func TestNodeValidator_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{
			name:    "invalid json",
			input:   `{"narrative":`,
			wantErr: "invalid JSON",
		},
		{
			name:    "unknown field",
			input:   `{"narative":"typo"}`,
			wantErr: "strict JSON",
		},
		{
			name:    "missing field",
			input:   `{"narrative":"n","speakerName":"s","dialogue":"d","visualDescription":"v","choices":[]}`,
			wantErr: "backgroundStyle",
		},
		{
			name: "too few choices",
			input: `{"narrative":"n","speakerName":"Max","dialogue":"d","visualDescription":"v","backgroundStyle":"b",
				"choices":[{"id":"1","text":"a","actionType":"neutral"}]}`,
			wantErr: "too few choices",
		},
		{
			name: "duplicate ids",
			input: `{"narrative":"n","speakerName":"Max","dialogue":"d","visualDescription":"v","backgroundStyle":"b",
				"choices":[{"id":"1","text":"a","actionType":"neutral"},{"id":"1","text":"b","actionType":"funny"}]}`,
			wantErr: "duplicate choice id",
		},
		{
			name: "too many choices",
			input: `{"narrative":"n","speakerName":"Max","dialogue":"d","visualDescription":"v","backgroundStyle":"b",
				"choices":[{"id":"1","text":"a","actionType":"neutral"},{"id":"2","text":"b","actionType":"funny"},
				{"id":"3","text":"c","actionType":"neutral"},{"id":"4","text":"d","actionType":"funny"},{"id":"5","text":"e","actionType":"romantic"}]}`,
			wantErr: "expected at most 4 choices",
		},
		{
			name: "speaker without dialogue",
			input: `{"narrative":"n","speakerName":"Max","dialogue":"","visualDescription":"v","backgroundStyle":"b",
				"choices":[{"id":"1","text":"a","actionType":"neutral"},{"id":"2","text":"b","actionType":"funny"}]}`,
			wantErr: "dialogue is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &NodeValidator{}
			err := v.validate("node.json", []byte(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNodeValidator_ValidateFile(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "page.json")
	require.NoError(t, os.WriteFile(good, []byte(goodNode), 0o644))
	assert.NoError(t, (&NodeValidator{}).validateFile(good))

	wrongExt := filepath.Join(dir, "page.txt")
	require.NoError(t, os.WriteFile(wrongExt, []byte(goodNode), 0o644))
	assert.Error(t, (&NodeValidator{}).validateFile(wrongExt))

	assert.Error(t, (&NodeValidator{}).validateFile(filepath.Join(dir, "missing.json")))
}
