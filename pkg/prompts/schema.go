package prompts

import "github.com/jwebster45206/comic-crush/pkg/story"

// StoryNodeSchema is the structured-output schema for the text model, in the
// OpenAPI subset Gemini accepts as generationConfig.responseSchema.
func StoryNodeSchema() map[string]interface{} {
	actionTypes := make([]string, 0, len(story.ActionTypes))
	for _, a := range story.ActionTypes {
		actionTypes = append(actionTypes, string(a))
	}

	return map[string]interface{}{
		"type": "OBJECT",
		"properties": map[string]interface{}{
			"narrative": map[string]interface{}{
				"type":        "STRING",
				"description": "Narration caption for this page.",
			},
			"speakerName": map[string]interface{}{
				"type":        "STRING",
				"description": "Name of the character speaking. Use 'Narrator' if no one is speaking.",
			},
			"dialogue": map[string]interface{}{
				"type":        "STRING",
				"description": "What the speaker says.",
			},
			"visualDescription": map[string]interface{}{
				"type":        "STRING",
				"description": "Detailed description of the panel art. Include comic style keywords.",
			},
			"choices": map[string]interface{}{
				"type": "ARRAY",
				"items": map[string]interface{}{
					"type": "OBJECT",
					"properties": map[string]interface{}{
						"id":   map[string]interface{}{"type": "STRING"},
						"text": map[string]interface{}{"type": "STRING"},
						"actionType": map[string]interface{}{
							"type": "STRING",
							"enum": actionTypes,
						},
					},
					"required": []string{"id", "text", "actionType"},
				},
			},
			"backgroundStyle": map[string]interface{}{
				"type":        "STRING",
				"description": "Short keyword for the background mood, e.g. city, space, school.",
			},
			"soundEffectText": map[string]interface{}{
				"type":        "STRING",
				"description": "Optional onomatopoeia such as KRAK! or WHOOSH!",
			},
		},
		"required": []string{"narrative", "speakerName", "dialogue", "visualDescription", "choices", "backgroundStyle"},
	}
}
