package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-engine/internal/service"
	"github.com/rocketscienceinc/tictactoe-engine/internal/usecase"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// client - one connection. Writes come from the read loop, the bot timer and the
// pinger, so they are serialised by mu.
type client struct {
	logger *slog.Logger

	conn      *websocket.Conn
	profileID string
	manager   *usecase.GameManager

	mu sync.Mutex
}

func newClient(logger *slog.Logger, conn *websocket.Conn, profileID string) *client {
	return &client{
		logger:    logger.With("profileID", profileID),
		conn:      conn,
		profileID: profileID,
	}
}

// Play - sends the tones of a cue to the browser, which synthesises them.
func (that *client) Play(cue service.Cue, tones []service.Tone) error {
	return that.sendMessage(actionSoundPlay, SoundPayload{Cue: cue, Tones: tones})
}

// onEvent - pushes every game change to the browser.
func (that *client) onEvent(event usecase.Event) {
	payload := StatePayload{
		Game:         event.State,
		Score:        event.Score,
		SoundEnabled: event.SoundEnabled,
	}

	if err := that.sendMessage(actionGameState, payload); err != nil {
		that.logger.Warn("failed to send game state", "error", err)
	}
}

func (that *client) sendState(ctx context.Context) error {
	return that.sendMessage(actionGameState, StatePayload{
		Game:         that.manager.State(),
		Score:        that.manager.Scores(ctx),
		SoundEnabled: that.manager.SoundEnabled(),
	})
}

func (that *client) sendErrorResponse(action, errorMsg string) error {
	if err := that.sendMessage(actionError, ErrorPayload{Action: action, Error: errorMsg}); err != nil {
		return fmt.Errorf("failed to send error response: %w", err)
	}

	return nil
}

func (that *client) sendMessage(action string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	response, err := json.Marshal(Message{Action: action, Payload: data})
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if err = that.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if err = that.conn.WriteMessage(websocket.TextMessage, response); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

func (that *client) ping() error {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}
