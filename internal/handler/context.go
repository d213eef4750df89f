package handler

import (
	"time"

	"go.uber.org/zap"

	"github.com/shorebound/server/internal/config"
	"github.com/shorebound/server/internal/data"
	"github.com/shorebound/server/internal/net"
	"github.com/shorebound/server/internal/persist"
	"github.com/shorebound/server/internal/scripting"
	"github.com/shorebound/server/internal/system"
	"github.com/shorebound/server/internal/world"
)

// Deps holds shared dependencies injected into all command handlers.
type Deps struct {
	Config    *config.Config
	Log       *zap.Logger
	State     *world.State
	Combat    *system.Combat
	AI        *system.AI
	Players   *persist.PlayerRepo
	Items     *data.ItemTable
	Species   *data.SpeciesTable
	Plants    *data.PlantTable
	Armor     *data.ArmorTable
	Scripting *scripting.Engine

	// Sessions is owned by the game loop: session id → connection.
	Sessions map[uint64]*net.Session

	Clock func() time.Time
}

func (d *Deps) now() time.Time {
	if d.Clock != nil {
		return d.Clock()
	}
	return time.Now()
}

// playerFor resolves the in-world player bound to a session, or nil.
func (d *Deps) playerFor(sess *net.Session) *world.Player {
	if sess.PlayerID == 0 {
		return nil
	}
	return d.State.Players[sess.PlayerID]
}

func sendError(sess *net.Session, msg string) {
	sess.Send(net.Encode("error", map[string]string{"message": msg}))
}

// RegisterAll registers every command handler into the registry.
func RegisterAll(reg *Registry, deps *Deps) {
	connected := []net.SessionState{net.StateConnected}
	authed := []net.SessionState{net.StateAuthed}
	inWorld := []net.SessionState{net.StateInWorld}
	anyActive := []net.SessionState{net.StateConnected, net.StateAuthed, net.StateInWorld}

	reg.Register("login", connected, HandleLogin)
	reg.Register("enter_world", authed, HandleEnterWorld)

	reg.Register("move", inWorld, HandleMove)
	reg.Register("set_stance", inWorld, HandleSetStance)
	reg.Register("attack", inWorld, HandleAttack)
	reg.Register("toggle_pvp", inWorld, HandleTogglePvP)
	reg.Register("harvest_plant", inWorld, HandleHarvestPlant)

	reg.Register("place_door", inWorld, HandlePlaceDoor)
	reg.Register("interact_door", inWorld, HandleInteractDoor)
	reg.Register("pickup_door", inWorld, HandlePickupDoor)

	reg.Register("spawn_animal", inWorld, HandleSpawnAnimal)

	reg.Register("ping", anyActive, func(cmd net.Command, _ *Deps) {
		cmd.Session.Send(net.Encode("pong", nil))
	})
	reg.Register("quit", anyActive, HandleQuit)
}
