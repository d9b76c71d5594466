package schema

import (
	"encoding/json"
	"sync"

	"github.com/urmzd/homai-tivo/pkg/player"
)

var (
	mediaPlayerOnce   sync.Once
	mediaPlayerSchema json.RawMessage
)

// MediaPlayer returns the JSON Schema for settable media player state:
// power, channel and a named command. At least one must be present.
func MediaPlayer() json.RawMessage {
	mediaPlayerOnce.Do(func() {
		doc := map[string]any{
			"$schema": "https://json-schema.org/draft/2020-12/schema",
			"type":    "object",
			"properties": map[string]any{
				"power": map[string]any{
					"type": "string",
					"enum": []string{"ON", "OFF"},
				},
				"channel": map[string]any{
					"type":    "string",
					"pattern": `^[0-9]{1,5}([.-][0-9]{1,3})?$`,
				},
				"command": map[string]any{
					"type": "string",
					"enum": player.Commands(),
				},
			},
			"minProperties":        1,
			"additionalProperties": false,
		}
		// A map of strings and slices always marshals.
		mediaPlayerSchema, _ = json.Marshal(doc)
	})
	return mediaPlayerSchema
}
