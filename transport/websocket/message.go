package websocket

import (
	"encoding/json"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
	"github.com/rocketscienceinc/tictactoe-engine/internal/service"
)

const (
	actionGameState      = "game:state"
	actionGameMove       = "game:move"
	actionGameReset      = "game:reset"
	actionGameMode       = "game:mode"
	actionGameDifficulty = "game:difficulty"
	actionScoreReset     = "score:reset"
	actionSoundToggle    = "sound:toggle"

	actionSoundPlay = "sound:play"
	actionError     = "error"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Payload - the union of every inbound payload, fields are checked per action.
type Payload struct {
	Cell       *int   `json:"cell,omitempty"`
	Mode       string `json:"mode,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
	Enabled    *bool  `json:"enabled,omitempty"`
}

type StatePayload struct {
	Game         entity.GameState `json:"game"`
	Score        entity.Score     `json:"score"`
	SoundEnabled bool             `json:"sound_enabled"`
}

type SoundPayload struct {
	Cue   service.Cue    `json:"cue"`
	Tones []service.Tone `json:"tones"`
}

type ErrorPayload struct {
	Action string `json:"action,omitempty"`
	Error  string `json:"error"`
}
