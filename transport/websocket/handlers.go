package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

func (that *Server) handleGameState(ctx context.Context, conn *client, _ *Message) error {
	return conn.sendState(ctx)
}

// handleGameMove - a rejected move is answered with the unchanged state, it is not an error.
func (that *Server) handleGameMove(ctx context.Context, conn *client, msg *Message) error {
	log := conn.logger.With("method", "handleGameMove")

	payload, err := decodePayload(msg)
	if err != nil || payload.Cell == nil {
		log.Warn("cell is missing in payload")
		return conn.sendErrorResponse(msg.Action, "cell is required")
	}

	if _, ok := conn.manager.PlaceMark(ctx, *payload.Cell); !ok {
		log.Debug("move rejected", "cell", *payload.Cell)
		return conn.sendState(ctx)
	}

	return nil
}

func (that *Server) handleGameReset(ctx context.Context, conn *client, _ *Message) error {
	conn.manager.Reset(ctx)
	return nil
}

func (that *Server) handleGameMode(ctx context.Context, conn *client, msg *Message) error {
	payload, err := decodePayload(msg)
	if err != nil {
		return conn.sendErrorResponse(msg.Action, err.Error())
	}

	mode, err := entity.ParseGameMode(payload.Mode)
	if err != nil {
		return conn.sendErrorResponse(msg.Action, err.Error())
	}

	conn.manager.SetGameMode(ctx, mode)

	return nil
}

func (that *Server) handleGameDifficulty(ctx context.Context, conn *client, msg *Message) error {
	payload, err := decodePayload(msg)
	if err != nil {
		return conn.sendErrorResponse(msg.Action, err.Error())
	}

	difficulty, err := entity.ParseDifficulty(payload.Difficulty)
	if err != nil {
		return conn.sendErrorResponse(msg.Action, err.Error())
	}

	conn.manager.SetDifficulty(ctx, difficulty)

	return nil
}

func (that *Server) handleScoreReset(ctx context.Context, conn *client, _ *Message) error {
	conn.manager.ResetScores(ctx)
	return nil
}

func (that *Server) handleSoundToggle(ctx context.Context, conn *client, msg *Message) error {
	payload, err := decodePayload(msg)
	if err != nil || payload.Enabled == nil {
		return conn.sendErrorResponse(msg.Action, "enabled is required")
	}

	conn.manager.SetSoundEnabled(*payload.Enabled)

	return conn.sendState(ctx)
}

func decodePayload(msg *Message) (Payload, error) {
	var payload Payload
	if len(msg.Payload) == 0 {
		return payload, nil
	}

	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return payload, fmt.Errorf("%w: %w", apperror.ErrInvalidPayload, err)
	}

	return payload, nil
}
