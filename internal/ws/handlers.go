package ws

import (
	"context"
	"log/slog"

	"github.com/mcoot/seabattle/internal/model"
)

// handle dispatches one inbound message. Rejected intents are logged and dropped.
func (c *conn) handle(ctx context.Context, raw []byte) {
	env, err := Decode(raw)
	if err != nil {
		c.logger.Debug("malformed message", slog.String("error", err.Error()))
		return
	}

	if env.Type == TypeReg {
		c.handleReg(ctx, env)
		return
	}

	if c.session == nil {
		c.logger.Debug("message before reg ignored", slog.String("type", env.Type))
		return
	}

	switch env.Type {
	case TypeCreateRoom:
		_, err = c.gw.match.CreateRoom(ctx, c.playerID())

	case TypeAddUserToRoom:
		var req AddUserToRoomRequest
		if err = DecodeData(env, &req); err == nil {
			_, err = c.gw.match.JoinRoom(ctx, c.playerID(), req.IndexRoom)
		}

	case TypeAddShips:
		var req AddShipsRequest
		if err = DecodeData(env, &req); err == nil {
			_, err = c.gw.match.SubmitPlacement(ctx, c.playerID(), req.GameID, ToSpecs(req.Ships))
		}

	case TypeAttack:
		var req AttackRequest
		if err = DecodeData(env, &req); err == nil {
			var outcome model.ShotOutcome
			outcome, err = c.gw.match.SubmitShot(ctx, model.ShotRequest{
				PlayerID: c.playerID(),
				RoomID:   req.GameID,
				Target:   model.Position{X: req.X, Y: req.Y},
			})
			c.afterShot(ctx, req.GameID, outcome, err)
		}

	case TypeRandomAttack:
		var req RandomAttackRequest
		if err = DecodeData(env, &req); err == nil {
			var outcome model.ShotOutcome
			outcome, err = c.gw.match.RandomShot(ctx, c.playerID(), req.GameID, false)
			c.afterShot(ctx, req.GameID, outcome, err)
		}

	case TypeSinglePlay:
		_, err = c.gw.bots.StartSinglePlay(ctx, c.playerID())

	default:
		c.logger.Debug("unknown message type ignored", slog.String("type", env.Type))
		return
	}

	if err != nil {
		c.logger.Info("request rejected",
			slog.String("type", env.Type),
			slog.Int64("player_id", int64(c.playerID())),
			slog.String("error", err.Error()))
	}
}

func (c *conn) handleReg(ctx context.Context, env Envelope) {
	var req RegRequest
	if err := DecodeData(env, &req); err != nil {
		c.write(TypeReg, RegResponse{Name: req.Name, Error: true, ErrorText: "malformed reg payload"})
		return
	}

	if c.session != nil {
		c.write(TypeReg, RegResponse{Name: req.Name, Error: true, ErrorText: "already registered on this connection"})
		return
	}

	session, err := c.gw.auth.Register(ctx, req.Name, req.Password)
	if err != nil {
		c.write(TypeReg, RegResponse{Name: req.Name, Error: true, ErrorText: err.Error()})
		return
	}

	c.session = session
	c.sub = c.gw.hub.Subscribe(session.PlayerID)
	go c.forward(c.sub)

	c.write(TypeReg, RegResponse{Name: session.Name, Index: session.PlayerID})
	if c.gw.metrics != nil {
		c.gw.metrics.PlayerConnected()
	}
	c.logger.Info("player registered over websocket", slog.Int64("player_id", int64(session.PlayerID)))

	c.gw.lobby.PublishUpdate(ctx)
}

// afterShot tells the shooter the turn is still theirs after a repeated shot, then lets bots move
func (c *conn) afterShot(ctx context.Context, roomID model.RoomID, outcome model.ShotOutcome, err error) {
	if err != nil {
		return
	}
	if outcome.Result.Status == model.ShotRepeated {
		// The engine publishes nothing for a repeated shot. This reply goes to the
		// shooter only, because ws clients wait for a frame after every attack.
		c.write(TypeTurn, TurnResponse{CurrentPlayer: outcome.NextTurn})
		return
	}
	if outcome.Finished() {
		return
	}
	if _, err := c.gw.bots.ProcessBotTurns(ctx, roomID); err != nil {
		c.logger.Error("bot turns failed",
			slog.Int64("room_id", int64(roomID)),
			slog.String("error", err.Error()))
	}
}
