package scoring

import (
	"fmt"
	"strings"
)

// Skill rating bounds, inclusive.
const (
	MinSkillRating = 1
	MaxSkillRating = 5
)

// Skill names one of the five fixed rating dimensions.
type Skill string

const (
	SkillAI          Skill = "AI"
	SkillFinance     Skill = "Finance"
	SkillDesign      Skill = "Design"
	SkillMarketing   Skill = "Marketing"
	SkillProgramming Skill = "Programming"
)

// SkillOrder is the iteration order over dimensions. Complementary-skill notes
// are emitted and truncated in this order.
var SkillOrder = [...]Skill{SkillAI, SkillFinance, SkillDesign, SkillMarketing, SkillProgramming}

// SkillSet holds a participant's self-rating for each dimension.
type SkillSet struct {
	AI          int `json:"AI"`
	Finance     int `json:"Finance"`
	Design      int `json:"Design"`
	Marketing   int `json:"Marketing"`
	Programming int `json:"Programming"`
}

// Rating returns the rating for a dimension.
func (s SkillSet) Rating(skill Skill) int {
	switch skill {
	case SkillAI:
		return s.AI
	case SkillFinance:
		return s.Finance
	case SkillDesign:
		return s.Design
	case SkillMarketing:
		return s.Marketing
	case SkillProgramming:
		return s.Programming
	default:
		return 0
	}
}

// Validate checks every rating is within [MinSkillRating, MaxSkillRating].
func (s SkillSet) Validate() error {
	for _, skill := range SkillOrder {
		if r := s.Rating(skill); r < MinSkillRating || r > MaxSkillRating {
			return fmt.Errorf("%s rating %d is outside [%d,%d]", skill, r, MinSkillRating, MaxSkillRating)
		}
	}
	return nil
}

// Profile is a participant snapshot as registered for an event.
// Categorical fields are empty when unknown.
type Profile struct {
	ID                 string   `json:"id"`
	UserID             string   `json:"user_id"`
	Name               string   `json:"name"`
	EventGoal          string   `json:"event_goal"`
	PersonalityType    string   `json:"personality_type"`
	WorkingStyle       string   `json:"working_style"`
	DomainKnowledge    string   `json:"domain_knowledge"`
	CommunicationStyle string   `json:"communication_style"`
	DecisionMaking     string   `json:"decision_making"`
	TechBuzzword       string   `json:"tech_buzzword"`
	Interests          string   `json:"interests"`
	AdditionalInfo     string   `json:"additional_info"`
	Skills             SkillSet `json:"skills"`
}

// sameKnown reports whether two categorical values are both known and equal.
// An empty value never matches, not even another empty value.
func sameKnown(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && a == b
}

// ValidateCohort rejects snapshots the engine must not score: missing user ids,
// duplicate participants and out-of-range skill ratings.
func ValidateCohort(cohort []Profile) error {
	seen := make(map[string]struct{}, len(cohort))
	for i, p := range cohort {
		if strings.TrimSpace(p.UserID) == "" {
			return fmt.Errorf("profile %d (%s) has no user id", i, p.ID)
		}
		if _, dup := seen[p.UserID]; dup {
			return fmt.Errorf("user %s appears more than once in the cohort", p.UserID)
		}
		seen[p.UserID] = struct{}{}
		if err := p.Skills.Validate(); err != nil {
			return fmt.Errorf("profile %s: %w", p.UserID, err)
		}
	}
	return nil
}
