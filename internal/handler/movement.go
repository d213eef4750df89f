package handler

import (
	"encoding/json"

	"github.com/shorebound/server/internal/core/event"
	"github.com/shorebound/server/internal/geom"
	"github.com/shorebound/server/internal/net"
	"github.com/shorebound/server/internal/system"
)

// maxStepPx caps per-command displacement. The client sends a move every
// input poll; anything larger than a sprint covers in two polls is a
// desynced or tampered client and gets snapped back.
const maxStepPx = 48.0

type moveRequest struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Facing string  `json:"facing"`
}

type moveAck struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// HandleMove advances the server-tracked position. The destination is
// clamped to the world, stepped back out of closed doors and capped to a
// sane per-command distance. The ack carries the authoritative position
// so a corrected client can resnap.
func HandleMove(cmd net.Command, deps *Deps) {
	var req moveRequest
	if err := json.Unmarshal(cmd.Data, &req); err != nil {
		return
	}
	p := deps.playerFor(cmd.Session)
	if p == nil || !p.Alive() || p.IsKnockedOut {
		return
	}

	x, y := req.X, req.Y
	if geom.DistanceSq(p.X, p.Y, x, y) > maxStepPx*maxStepPx {
		dx, dy, _ := geom.Normalize(x-p.X, y-p.Y)
		x = p.X + dx*maxStepPx
		y = p.Y + dy*maxStepPx
	}
	x, y = geom.ClampToWorld(x, y, geom.PlayerRadius)
	x, y = system.CheckDoorCollision(deps.State, x, y, geom.PlayerRadius)

	moved := geom.DistanceSq(p.X, p.Y, x, y) > 0.25
	deps.State.MovePlayer(p, x, y)
	switch req.Facing {
	case "up", "down", "left", "right":
		p.Facing = req.Facing
	}
	p.IsOnWater = deps.State.Tiles.OnWater(x, y)
	p.LastUpdate = deps.now()
	p.MarkDirty()

	if moved && !p.IsCrouching {
		event.Emit(deps.Combat.Bus, event.SoundEmitted{
			X: x, Y: y, RadiusPx: 160, Source: p.ID, Kind: "footstep",
		})
	}

	cmd.Session.Send(net.Encode("move_ok", moveAck{X: x, Y: y}))
}

type stanceRequest struct {
	Crouching  *bool `json:"crouching,omitempty"`
	Snorkeling *bool `json:"snorkeling,omitempty"`
	TorchLit   *bool `json:"torch_lit,omitempty"`
}

// HandleSetStance flips the perception-affecting posture flags. Snorkeling
// is only honored on water.
func HandleSetStance(cmd net.Command, deps *Deps) {
	var req stanceRequest
	if err := json.Unmarshal(cmd.Data, &req); err != nil {
		return
	}
	p := deps.playerFor(cmd.Session)
	if p == nil || !p.Alive() {
		return
	}

	if req.Crouching != nil {
		p.IsCrouching = *req.Crouching
	}
	if req.Snorkeling != nil {
		p.IsSnorkeling = *req.Snorkeling && p.IsOnWater
	}
	if req.TorchLit != nil {
		p.IsTorchLit = *req.TorchLit
	}
	p.MarkDirty()
}
