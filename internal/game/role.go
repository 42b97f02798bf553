package game

// RoleKind identifies one of the fixed set of roles dealt at game start.
type RoleKind string

const (
	RoleVillager RoleKind = "villager"
	RoleMafia    RoleKind = "mafia"
	RoleDoctor   RoleKind = "doctor"
	RoleSheriff  RoleKind = "sheriff"
)

// Faction is a role grouping with a shared win condition.
type Faction string

const (
	FactionMafia Faction = "mafia"
	FactionTown  Faction = "town"
)

// Role is a role kind plus a dead flag. The kind never changes once dealt;
// death only flips the flag, so a dead player's original role stays known.
type Role struct {
	Kind RoleKind `json:"kind"`
	Dead bool     `json:"dead"`
}

// Faction returns the faction the role belongs to.
func (r Role) Faction() Faction {
	if r.Kind == RoleMafia {
		return FactionMafia
	}
	return FactionTown
}

// ActsAtNight reports whether this role kind submits a night action.
func (k RoleKind) ActsAtNight() bool {
	switch k {
	case RoleMafia, RoleDoctor, RoleSheriff:
		return true
	default:
		return false
	}
}

// NightAction returns the action kind a role is allowed to submit at night.
func (k RoleKind) NightAction() (ActionKind, bool) {
	switch k {
	case RoleMafia:
		return ActionEliminate, true
	case RoleDoctor:
		return ActionSave, true
	case RoleSheriff:
		return ActionCheck, true
	default:
		return "", false
	}
}
