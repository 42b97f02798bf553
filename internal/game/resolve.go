package game

import "sort"

// CheckResult is a sheriff's investigation outcome, delivered privately at
// night resolution.
type CheckResult struct {
	Sheriff string
	Target  string
	Verdict string // "mafia" or "good"
}

// NightResult is the outcome of resolving one night's pending actions.
type NightResult struct {
	Eliminated string // empty when nobody died
	Saved      bool   // a kill was submitted but the doctor blocked it
	Checks     []CheckResult
}

// DayResult is the outcome of tallying one day's votes.
type DayResult struct {
	Eliminated string // empty on tie or no votes
}

// ResolveNight resolves the pending night actions against the role map.
// The mafia's target is the majority choice among living mafia submissions;
// a tie between targets is broken by the earliest-received submission, so the
// outcome is deterministic. The doctor's save cancels the kill when it names
// the same target. Resolution is pure: the caller applies the result.
func ResolveNight(actions map[string]Action, roles map[string]Role) NightResult {
	var res NightResult

	target := mafiaTarget(actions, roles)
	saved := ""
	for _, a := range actions {
		r, ok := roles[a.Author]
		if !ok || r.Dead {
			continue
		}
		switch {
		case r.Kind == RoleDoctor && a.Kind == ActionSave:
			saved = a.Target
		case r.Kind == RoleSheriff && a.Kind == ActionCheck && a.Target != "":
			verdict := "good"
			if tr, ok := roles[a.Target]; ok && tr.Kind == RoleMafia {
				verdict = "mafia"
			}
			res.Checks = append(res.Checks, CheckResult{Sheriff: a.Author, Target: a.Target, Verdict: verdict})
		}
	}

	if target != "" {
		if target == saved {
			res.Saved = true
		} else {
			res.Eliminated = target
		}
	}
	return res
}

// mafiaTarget picks the mafia faction's single kill target from the living
// mafia members' submissions: majority wins, earliest submission breaks ties.
func mafiaTarget(actions map[string]Action, roles map[string]Role) string {
	counts := make(map[string]int)
	earliest := make(map[string]Action)
	for _, a := range actions {
		r, ok := roles[a.Author]
		if !ok || r.Dead || r.Kind != RoleMafia || a.Kind != ActionEliminate || a.Target == "" {
			continue
		}
		counts[a.Target]++
		if prev, ok := earliest[a.Target]; !ok || a.ReceivedAt.Before(prev.ReceivedAt) {
			earliest[a.Target] = a
		}
	}
	if len(counts) == 0 {
		return ""
	}

	targets := make([]string, 0, len(counts))
	for t := range counts {
		targets = append(targets, t)
	}
	sort.Slice(targets, func(i, j int) bool {
		if counts[targets[i]] != counts[targets[j]] {
			return counts[targets[i]] > counts[targets[j]]
		}
		return earliest[targets[i]].ReceivedAt.Before(earliest[targets[j]].ReceivedAt)
	})
	return targets[0]
}

// ResolveDay tallies the day's votes: plurality among living voters
// eliminates, a tie for first place eliminates nobody, and abstentions
// (explicit skips or missing votes) count toward no target.
func ResolveDay(actions map[string]Action, roles map[string]Role) DayResult {
	counts := make(map[string]int)
	for _, a := range actions {
		r, ok := roles[a.Author]
		if !ok || r.Dead || a.Kind != ActionVote || a.Target == "" {
			continue
		}
		counts[a.Target]++
	}
	if len(counts) == 0 {
		return DayResult{}
	}

	best, bestCount, tied := "", 0, false
	for t, c := range counts {
		switch {
		case c > bestCount:
			best, bestCount, tied = t, c, false
		case c == bestCount:
			tied = true
		}
	}
	if tied {
		return DayResult{}
	}
	return DayResult{Eliminated: best}
}

// Winner reports the winning faction once the opposing faction has been fully
// eliminated. It returns false while both factions still have living members.
func Winner(roles map[string]Role) (Faction, bool) {
	livingMafia, livingTown := 0, 0
	for _, r := range roles {
		if r.Dead {
			continue
		}
		if r.Faction() == FactionMafia {
			livingMafia++
		} else {
			livingTown++
		}
	}
	switch {
	case livingMafia == 0 && livingTown > 0:
		return FactionTown, true
	case livingTown == 0 && livingMafia > 0:
		return FactionMafia, true
	default:
		return "", false
	}
}
