package game

import "math/rand"

// MafiaCount returns the adversarial faction size for n players:
// one mafia per five players, never fewer than one.
func MafiaCount(n int) int {
	if c := n / 5; c > 1 {
		return c
	}
	return 1
}

// AssignRoles deals roles to the given players: MafiaCount(n) mafia, exactly
// one doctor, exactly one sheriff, villagers for the rest. The deck is dealt
// through rand.Shuffle so join order carries no bias. The result is computed
// once at game start and never recomputed mid-game.
func AssignRoles(players []string, minPlayers int, rng *rand.Rand) (map[string]Role, error) {
	n := len(players)
	if n < minPlayers {
		return nil, ErrInsufficientPlayers
	}

	deck := make([]RoleKind, 0, n)
	for i := 0; i < MafiaCount(n); i++ {
		deck = append(deck, RoleMafia)
	}
	deck = append(deck, RoleDoctor, RoleSheriff)
	for len(deck) < n {
		deck = append(deck, RoleVillager)
	}

	rng.Shuffle(n, func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})

	roles := make(map[string]Role, n)
	for i, name := range players {
		roles[name] = Role{Kind: deck[i]}
	}
	return roles, nil
}
