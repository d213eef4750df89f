package world

import "time"

// EffectKind enumerates the active status effects.
type EffectKind string

const (
	EffectBleed            EffectKind = "Bleed"
	EffectBurn             EffectKind = "Burn"
	EffectPoison           EffectKind = "Poison"
	EffectStun             EffectKind = "Stun"
	EffectHarvestBoost     EffectKind = "HarvestBoost" // broth buff, 1.5x yields
	EffectMiningEfficiency EffectKind = "MiningEfficiency"
	EffectPoisonCoating    EffectKind = "PoisonCoating"  // on a weapon holder, transfers on hit
	EffectPoisonResistance EffectKind = "PoisonResistance"
	EffectSafeZone         EffectKind = "SafeZone"
	EffectEntrainment      EffectKind = "Entrainment" // max-insanity state from Memory ore
	EffectBandageBurst     EffectKind = "BandageBurst" // in-progress bandage, cancelled by damage
)

// EffectTargetKind separates the two effect-bearing row families.
type EffectTargetKind uint8

const (
	EffectOnPlayer EffectTargetKind = iota
	EffectOnAnimal
)

// ActiveEffect is one status-effect row. Ticking effects carry an interval
// and a next-tick timestamp; pure timed flags carry only an expiry.
type ActiveEffect struct {
	ID         uint64
	TargetKind EffectTargetKind
	TargetID   uint64
	Kind       EffectKind

	Amount       float64 // damage per tick, boost multiplier, resistance...
	TickInterval time.Duration
	NextTickAt   time.Time
	ExpiresAt    time.Time

	Source uint64 // player who applied it, when relevant
}

type effectTarget struct {
	kind EffectTargetKind
	id   uint64
}

// EffectTable stores active effects with a by-target index.
type EffectTable struct {
	effects  map[uint64]*ActiveEffect
	byTarget map[effectTarget]map[uint64]struct{}
	nextID   uint64
}

func NewEffectTable() *EffectTable {
	return &EffectTable{
		effects:  make(map[uint64]*ActiveEffect),
		byTarget: make(map[effectTarget]map[uint64]struct{}),
	}
}

// Apply inserts an effect, replacing any existing effect of the same kind
// on the same target (refresh semantics).
func (t *EffectTable) Apply(e ActiveEffect) uint64 {
	t.RemoveKind(e.TargetKind, e.TargetID, e.Kind)
	t.nextID++
	e.ID = t.nextID
	t.effects[e.ID] = &e
	key := effectTarget{e.TargetKind, e.TargetID}
	set, ok := t.byTarget[key]
	if !ok {
		set = make(map[uint64]struct{})
		t.byTarget[key] = set
	}
	set[e.ID] = struct{}{}
	return e.ID
}

// Get returns the active effect of a kind on a target, or nil.
func (t *EffectTable) Get(kind EffectTargetKind, target uint64, ek EffectKind) *ActiveEffect {
	for id := range t.byTarget[effectTarget{kind, target}] {
		if e := t.effects[id]; e != nil && e.Kind == ek {
			return e
		}
	}
	return nil
}

// Has reports whether the target carries the effect kind.
func (t *EffectTable) Has(kind EffectTargetKind, target uint64, ek EffectKind) bool {
	return t.Get(kind, target, ek) != nil
}

// RemoveKind cancels all effects of one kind on a target.
func (t *EffectTable) RemoveKind(kind EffectTargetKind, target uint64, ek EffectKind) int {
	n := 0
	key := effectTarget{kind, target}
	for id := range t.byTarget[key] {
		if e := t.effects[id]; e != nil && e.Kind == ek {
			t.remove(id, key)
			n++
		}
	}
	return n
}

// ClearTarget drops every effect on a target (death pipeline).
func (t *EffectTable) ClearTarget(kind EffectTargetKind, target uint64) {
	key := effectTarget{kind, target}
	for id := range t.byTarget[key] {
		t.remove(id, key)
	}
}

func (t *EffectTable) remove(id uint64, key effectTarget) {
	delete(t.effects, id)
	if set, ok := t.byTarget[key]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(t.byTarget, key)
		}
	}
}

// Each visits every active effect. The callback must not mutate the table;
// collect ids and mutate after.
func (t *EffectTable) Each(fn func(e *ActiveEffect)) {
	for _, e := range t.effects {
		fn(e)
	}
}

// Remove deletes one effect row by id.
func (t *EffectTable) Remove(id uint64) {
	if e, ok := t.effects[id]; ok {
		t.remove(id, effectTarget{e.TargetKind, e.TargetID})
	}
}

// Count returns the number of active effect rows.
func (t *EffectTable) Count() int { return len(t.effects) }
