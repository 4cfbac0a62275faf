package scoring

import (
	"math"
	"runtime"
	"sort"
	"strings"
)

// Factor weights. The scaled factors contribute weight × subscore / 100.
const (
	WeightGoal          = 25
	WeightPersonality   = 20
	WeightSkills        = 20
	WeightDomain        = 15
	WeightCommunication = 10
	WeightBuzzword      = 10

	MaxScore = 100

	// DefaultTopK is the number of matches kept per source profile.
	DefaultTopK = 5
)

const (
	personalityBase          = 50
	personalityOppositeBonus = 30
	personalitySameBonus     = 20
	personalityTeamBonus     = 20

	skillTeachBonus   = 20
	skillAlignedBonus = 15

	teamPlayer = "team-player"
)

// complementaryDomains lists synergistic domain pairs; lookup is symmetric.
var complementaryDomains = [][2]string{
	{"tech", "business"},
	{"analytics", "creativity"},
	{"tech", "management"},
	{"business", "analytics"},
}

// ScoreBreakdown records each factor's contribution to a pairwise score.
type ScoreBreakdown struct {
	Goal                float64 `json:"goal"`
	PersonalitySubscore int     `json:"personality_subscore"`
	Personality         float64 `json:"personality"`
	SkillsSubscore      int     `json:"skills_subscore"`
	Skills              float64 `json:"skills"`
	Domain              float64 `json:"domain"`
	Communication       float64 `json:"communication"`
	Buzzword            float64 `json:"buzzword"`
}

// Total sums the contributions, clamps at MaxScore and rounds half away from zero.
func (b ScoreBreakdown) Total() int {
	sum := b.Goal + b.Personality + b.Skills + b.Domain + b.Communication + b.Buzzword
	return int(math.Round(math.Min(sum, MaxScore)))
}

// Candidate is a scored (source, target) pair with its explanations.
type Candidate struct {
	SourceUserID        string         `json:"user_id"`
	TargetUserID        string         `json:"matched_user_id"`
	Score               int            `json:"match_score"`
	Reasons             []string       `json:"compatibility_reasons"`
	ComplementarySkills []string       `json:"complementary_skills"`
	Breakdown           ScoreBreakdown `json:"breakdown"`
}

// MatchEngine scores participant pairs and keeps the best matches per source.
type MatchEngine struct {
	topK    int
	workers int
}

// Option configures a MatchEngine.
type Option func(*MatchEngine)

// WithTopK sets how many matches are kept per source profile.
func WithTopK(k int) Option {
	return func(e *MatchEngine) {
		if k > 0 {
			e.topK = k
		}
	}
}

// WithWorkers bounds the number of source profiles scored concurrently.
func WithWorkers(n int) Option {
	return func(e *MatchEngine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// NewMatchEngine creates a new engine
func NewMatchEngine(opts ...Option) *MatchEngine {
	e := &MatchEngine{
		topK:    DefaultTopK,
		workers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// TopK returns the per-source retention limit.
func (e *MatchEngine) TopK() int {
	return e.topK
}

// Breakdown computes every factor for the pair (a, b).
func Breakdown(a, b Profile) ScoreBreakdown {
	var bd ScoreBreakdown

	if sameKnown(a.EventGoal, b.EventGoal) {
		bd.Goal = WeightGoal
	}

	bd.PersonalitySubscore = PersonalityCompatibility(a, b)
	bd.Personality = WeightPersonality * float64(bd.PersonalitySubscore) / 100

	bd.SkillsSubscore = SkillsComplementarity(a.Skills, b.Skills)
	bd.Skills = WeightSkills * float64(bd.SkillsSubscore) / 100

	if SameDomain(a.DomainKnowledge, b.DomainKnowledge) || DomainsComplementary(a.DomainKnowledge, b.DomainKnowledge) {
		bd.Domain = WeightDomain
	}
	if sameKnown(a.CommunicationStyle, b.CommunicationStyle) {
		bd.Communication = WeightCommunication
	}
	if sameKnown(a.TechBuzzword, b.TechBuzzword) {
		bd.Buzzword = WeightBuzzword
	}
	return bd
}

// ScorePair returns the compatibility score of a and b in [0, 100].
func ScorePair(a, b Profile) int {
	return Breakdown(a, b).Total()
}

// PersonalityCompatibility returns a sub-score in [50, 100].
func PersonalityCompatibility(a, b Profile) int {
	score := personalityBase

	pa := strings.TrimSpace(a.PersonalityType)
	pb := strings.TrimSpace(b.PersonalityType)
	switch {
	case (pa == "introvert" && pb == "extrovert") || (pa == "extrovert" && pb == "introvert"):
		score += personalityOppositeBonus
	case sameKnown(pa, pb):
		score += personalitySameBonus
	}

	if strings.TrimSpace(a.WorkingStyle) == teamPlayer || strings.TrimSpace(b.WorkingStyle) == teamPlayer {
		score += personalityTeamBonus
	}

	return min(score, MaxScore)
}

// SkillsComplementarity returns a sub-score in [0, 100]. A dimension earns the
// teaching bonus when one side is strong (>=4) and the other weak (<=2), otherwise
// the aligned bonus when both are at least 3 and within one point.
func SkillsComplementarity(a, b SkillSet) int {
	score := 0
	for _, skill := range SkillOrder {
		ra, rb := a.Rating(skill), b.Rating(skill)
		switch {
		case (ra >= 4 && rb <= 2) || (rb >= 4 && ra <= 2):
			score += skillTeachBonus
		case ra >= 3 && rb >= 3 && absInt(ra-rb) <= 1:
			score += skillAlignedBonus
		}
	}
	return min(score, MaxScore)
}

// SameDomain reports whether two known domains are equal, ignoring case and
// surrounding space.
func SameDomain(a, b string) bool {
	return sameKnown(normalizeDomain(a), normalizeDomain(b))
}

// DomainsComplementary reports whether two domains form a known synergistic pair.
// Values are compared the same way as in SameDomain.
func DomainsComplementary(a, b string) bool {
	a, b = normalizeDomain(a), normalizeDomain(b)
	for _, pair := range complementaryDomains {
		if (a == pair[0] && b == pair[1]) || (a == pair[1] && b == pair[0]) {
			return true
		}
	}
	return false
}

// Evaluate scores one ordered pair and renders its explanations.
func (e *MatchEngine) Evaluate(source, target Profile) Candidate {
	bd := Breakdown(source, target)
	return Candidate{
		SourceUserID:        source.UserID,
		TargetUserID:        target.UserID,
		Score:               bd.Total(),
		Reasons:             CompatibilityReasons(source, target),
		ComplementarySkills: ComplementarySkills(source, target),
		Breakdown:           bd,
	}
}

// RankForProfile scores source against every other cohort member and returns the
// top K, highest score first. Ties go to the lower target user id.
func (e *MatchEngine) RankForProfile(source Profile, cohort []Profile) []Candidate {
	candidates := make([]Candidate, 0, len(cohort))
	for _, other := range cohort {
		if other.UserID == source.UserID {
			continue
		}
		candidates = append(candidates, e.Evaluate(source, other))
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].TargetUserID < candidates[j].TargetUserID
	})

	if len(candidates) > e.topK {
		candidates = candidates[:e.topK]
	}
	return candidates
}

func normalizeDomain(d string) string {
	return strings.ToLower(strings.TrimSpace(d))
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
