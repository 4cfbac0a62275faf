package scoring

import (
	"fmt"
	"strings"
)

const (
	maxReasons              = 4
	maxComplementarySkills  = 3
	maxSharedInterestsShown = 2
)

// CompatibilityReasons explains a pair in priority order, keeping at most four.
func CompatibilityReasons(a, b Profile) []string {
	reasons := make([]string, 0, maxReasons)

	if sameKnown(a.EventGoal, b.EventGoal) {
		reasons = append(reasons, fmt.Sprintf("Both seeking %s opportunities", strings.TrimSpace(a.EventGoal)))
	}

	pa, pb := strings.TrimSpace(a.PersonalityType), strings.TrimSpace(b.PersonalityType)
	if pa != "" && pb != "" && pa != pb {
		reasons = append(reasons, fmt.Sprintf("Complementary personalities: %s and %s", pa, pb))
	}

	da, db := strings.TrimSpace(a.DomainKnowledge), strings.TrimSpace(b.DomainKnowledge)
	if SameDomain(da, db) {
		reasons = append(reasons, fmt.Sprintf("Shared expertise in %s", da))
	} else if DomainsComplementary(da, db) {
		reasons = append(reasons, fmt.Sprintf("Complementary domains: %s and %s", da, db))
	}

	if sameKnown(a.TechBuzzword, b.TechBuzzword) {
		reasons = append(reasons, fmt.Sprintf("Mutual interest in %s", strings.TrimSpace(a.TechBuzzword)))
	}

	if shared := SharedInterests(a.Interests, b.Interests); len(shared) > 0 {
		if len(shared) > maxSharedInterestsShown {
			shared = shared[:maxSharedInterestsShown]
		}
		reasons = append(reasons, "Shared interests: "+strings.Join(shared, ", "))
	}

	if len(reasons) > maxReasons {
		reasons = reasons[:maxReasons]
	}
	return reasons
}

// ComplementarySkills lists skill pairings worth mentioning, keeping at most three.
func ComplementarySkills(a, b Profile) []string {
	notes := make([]string, 0, maxComplementarySkills)
	for _, skill := range SkillOrder {
		ra, rb := a.Skills.Rating(skill), b.Skills.Rating(skill)
		switch {
		case ra >= 4 && rb <= 2:
			notes = append(notes, fmt.Sprintf("%s's %s expertise complements %s's learning opportunity", a.Name, skill, b.Name))
		case rb >= 4 && ra <= 2:
			notes = append(notes, fmt.Sprintf("%s's %s expertise complements %s's learning opportunity", b.Name, skill, a.Name))
		case ra >= 4 && rb >= 4:
			notes = append(notes, fmt.Sprintf("Both excel in %s - potential for advanced collaboration", skill))
		}
		if len(notes) == maxComplementarySkills {
			break
		}
	}
	return notes
}

// SharedInterests returns the source's interest tokens that overlap a target token.
// Tokens are lowercased and trimmed; overlap is substring containment either way.
// Duplicates in the source are kept.
func SharedInterests(source, target string) []string {
	src := interestTokens(source)
	dst := interestTokens(target)
	if len(src) == 0 || len(dst) == 0 {
		return nil
	}

	var shared []string
	for _, s := range src {
		for _, d := range dst {
			if strings.Contains(s, d) || strings.Contains(d, s) {
				shared = append(shared, s)
				break
			}
		}
	}
	return shared
}

func interestTokens(raw string) []string {
	parts := strings.Split(strings.ToLower(raw), ",")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}
