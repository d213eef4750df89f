package system

import (
	"time"

	"github.com/shorebound/server/internal/world"
)

// pvpCombatWindow is the combat-extension window: landing or taking a PvP
// hit keeps the gate open this long past the flag expiry.
const pvpCombatWindow = 5 * time.Minute

// PvPActive reports whether the player's PvP gate is open at now: the flag
// is set and either the enabled window is still running or a recent combat
// extension holds it open.
func PvPActive(p *world.Player, now time.Time) bool {
	if !p.PvPEnabled {
		return false
	}
	if p.PvPEnabledUntil.After(now) {
		return true
	}
	return !p.LastPvPCombat.IsZero() && now.Sub(p.LastPvPCombat) < pvpCombatWindow
}

// recordPvPHit refreshes both parties' combat timestamps after a landed
// hit and auto-extends an enabled window that was only held open by the
// combat extension.
func recordPvPHit(attacker, target *world.Player, now time.Time) {
	for _, p := range [2]*world.Player{attacker, target} {
		p.LastPvPCombat = now
		if !p.PvPEnabledUntil.After(now) {
			p.PvPEnabledUntil = now.Add(pvpCombatWindow)
		}
		p.MarkDirty()
	}
}

// TogglePvP flips a player's PvP flag. Disabling does not close an open
// combat-extension window; recent fights still count.
func TogglePvP(p *world.Player, enable bool, now time.Time) {
	p.PvPEnabled = enable
	if enable {
		p.PvPEnabledUntil = now.Add(pvpCombatWindow)
	}
	p.MarkDirty()
}
