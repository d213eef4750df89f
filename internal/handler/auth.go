package handler

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/shorebound/server/internal/geom"
	"github.com/shorebound/server/internal/net"
	"github.com/shorebound/server/internal/world"
)

const repoTimeout = 5 * time.Second

type loginRequest struct {
	Username string `json:"username"`
}

// HandleLogin binds a username to the session. Characters are created on
// first login; there is no password layer here, the gateway in front of
// the simulation owns credentials.
func HandleLogin(cmd net.Command, deps *Deps) {
	var req loginRequest
	if err := json.Unmarshal(cmd.Data, &req); err != nil || req.Username == "" {
		sendError(cmd.Session, "invalid login")
		return
	}
	if len(req.Username) > 24 {
		sendError(cmd.Session, "username too long")
		return
	}

	// Reject a second session for a name already online.
	for _, p := range deps.State.Players {
		if p.Username == req.Username && p.IsOnline {
			sendError(cmd.Session, "already logged in")
			cmd.Session.Close()
			return
		}
	}

	cmd.Session.Username = req.Username
	cmd.Session.SetState(net.StateAuthed)
	cmd.Session.Send(net.Encode("login_ok", map[string]string{"username": req.Username}))
}

// HandleEnterWorld loads or creates the character and places it in the
// world. All players are kept in memory after boot, so this only touches
// the database for brand new names.
func HandleEnterWorld(cmd net.Command, deps *Deps) {
	sess := cmd.Session
	now := deps.now()

	var p *world.Player
	for _, existing := range deps.State.Players {
		if existing.Username == sess.Username {
			p = existing
			break
		}
	}
	if p == nil {
		p = newCharacter(deps, sess.Username, now)
		deps.State.AddPlayer(p)

		ctx, cancel := context.WithTimeout(context.Background(), repoTimeout)
		err := deps.Players.Save(ctx, p)
		cancel()
		if err != nil {
			deps.Log.Error("角色建立失敗", zap.String("username", sess.Username), zap.Error(err))
			deps.State.RemovePlayer(p.ID)
			sendError(sess, "character creation failed")
			return
		}
		deps.Log.Info("新角色", zap.String("username", p.Username), zap.Uint64("id", p.ID))
	}

	p.IsOnline = true
	p.LastUpdate = now
	p.MarkDirty()
	sess.PlayerID = p.ID
	sess.SetState(net.StateInWorld)

	sess.Send(net.Encode("enter_world_ok", map[string]any{
		"player_id": p.ID,
		"x":         p.X,
		"y":         p.Y,
		"health":    p.Health,
		"season":    deps.State.Season,
		"pvp":       p.PvPEnabled,
	}))
}

// HandleQuit saves the character and closes the session.
func HandleQuit(cmd net.Command, deps *Deps) {
	sess := cmd.Session
	if p := deps.playerFor(sess); p != nil {
		p.IsOnline = false
		p.MarkDirty()
		ctx, cancel := context.WithTimeout(context.Background(), repoTimeout)
		if err := deps.Players.Save(ctx, p); err != nil {
			deps.Log.Error("離線存檔失敗", zap.Uint64("player", p.ID), zap.Error(err))
		}
		cancel()
	}
	sess.Close()
}

// newCharacter rolls a fresh player at the nearest dry tile to the world
// center. Seeding guarantees the compound area stays clear, so the search
// terminates in a few rings.
func newCharacter(deps *Deps, username string, now time.Time) *world.Player {
	x, y := findDrySpawn(deps.State)
	return &world.Player{
		ID:            deps.State.NextID(),
		Username:      username,
		X:             x,
		Y:             y,
		Facing:        "down",
		Health:        world.PlayerMaxHealth,
		Level:         1,
		QuestProgress: make(map[string]int),
		LastUpdate:    now,
	}
}

func findDrySpawn(s *world.State) (float64, float64) {
	cx := geom.WorldWidthTiles / 2
	cy := geom.WorldHeightTiles / 2
	for ring := 0; ring < 64; ring++ {
		for dy := -ring; dy <= ring; dy++ {
			for dx := -ring; dx <= ring; dx++ {
				if dx > -ring && dx < ring && dy > -ring && dy < ring {
					continue
				}
				x := float64(cx+dx)*geom.TileSizePx + geom.TileSizePx/2
				y := float64(cy+dy)*geom.TileSizePx + geom.TileSizePx/2
				if !s.Tiles.OnWater(x, y) {
					return x, y
				}
			}
		}
	}
	// Fully flooded center never happens with real map data.
	return float64(cx) * geom.TileSizePx, float64(cy) * geom.TileSizePx
}
