package repository

import (
	"database/sql"

	"github.com/ajharbinger/cohort-matchmaker/internal/scoring"
)

// profileRow mirrors a profiles row joined through event_registrations.
// Skill columns are nullable; a missing rating becomes 0 and fails validation.
type profileRow struct {
	ID                 string
	UserID             string
	Name               string
	EventGoal          string
	PersonalityType    string
	WorkingStyle       string
	DomainKnowledge    string
	CommunicationStyle string
	DecisionMaking     string
	TechBuzzword       string
	Interests          string
	AdditionalInfo     string
	SkillAI            sql.NullInt64
	SkillFinance       sql.NullInt64
	SkillDesign        sql.NullInt64
	SkillMarketing     sql.NullInt64
	SkillProgramming   sql.NullInt64
}

func (r *profileRow) dest() []interface{} {
	return []interface{}{
		&r.ID, &r.UserID, &r.Name, &r.EventGoal, &r.PersonalityType,
		&r.WorkingStyle, &r.DomainKnowledge, &r.CommunicationStyle,
		&r.DecisionMaking, &r.TechBuzzword, &r.Interests, &r.AdditionalInfo,
		&r.SkillAI, &r.SkillFinance, &r.SkillDesign, &r.SkillMarketing, &r.SkillProgramming,
	}
}

func (r *profileRow) toProfile() scoring.Profile {
	return scoring.Profile{
		ID:                 r.ID,
		UserID:             r.UserID,
		Name:               r.Name,
		EventGoal:          r.EventGoal,
		PersonalityType:    r.PersonalityType,
		WorkingStyle:       r.WorkingStyle,
		DomainKnowledge:    r.DomainKnowledge,
		CommunicationStyle: r.CommunicationStyle,
		DecisionMaking:     r.DecisionMaking,
		TechBuzzword:       r.TechBuzzword,
		Interests:          r.Interests,
		AdditionalInfo:     r.AdditionalInfo,
		Skills: scoring.SkillSet{
			AI:          int(r.SkillAI.Int64),
			Finance:     int(r.SkillFinance.Int64),
			Design:      int(r.SkillDesign.Int64),
			Marketing:   int(r.SkillMarketing.Int64),
			Programming: int(r.SkillProgramming.Int64),
		},
	}
}
