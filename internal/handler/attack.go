package handler

import (
	"github.com/shorebound/server/internal/net"
)

type attackResult struct {
	Hit        bool   `json:"hit"`
	TargetType string `json:"target_type,omitempty"`
	Resource   string `json:"resource,omitempty"`
	Quantity   uint32 `json:"quantity,omitempty"`
	Killed     bool   `json:"killed,omitempty"`
}

// HandleAttack swings the held item. Target selection, occlusion and the
// whole damage pipeline live in the combat system; the handler only
// translates the result back to the client.
func HandleAttack(cmd net.Command, deps *Deps) {
	p := deps.playerFor(cmd.Session)
	if p == nil || !p.Alive() || p.IsKnockedOut {
		return
	}

	res, err := deps.Combat.Attack(p, deps.now())
	if err != nil {
		sendError(cmd.Session, err.Error())
		return
	}

	cmd.Session.Send(net.Encode("attack_result", attackResult{
		Hit:        res.Hit,
		TargetType: string(res.TargetType),
		Resource:   res.ResourceName,
		Quantity:   res.ResourceQty,
		Killed:     res.Killed,
	}))
}
