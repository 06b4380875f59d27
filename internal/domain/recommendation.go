package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type RecommendationType string

const (
	TypeProfessional RecommendationType = "professional"
	TypeTechnical    RecommendationType = "technical"
	TypeLeadership   RecommendationType = "leadership"
	TypeAcademic     RecommendationType = "academic"
	TypePersonal     RecommendationType = "personal"
)

type Tone string

const (
	ToneProfessional Tone = "professional"
	ToneFriendly     Tone = "friendly"
	ToneFormal       Tone = "formal"
	ToneCasual       Tone = "casual"
)

type Length string

const (
	LengthShort  Length = "short"
	LengthMedium Length = "medium"
	LengthLong   Length = "long"
)

var (
	RecommendationTypes = []RecommendationType{TypeProfessional, TypeTechnical, TypeLeadership, TypeAcademic, TypePersonal}
	Tones               = []Tone{ToneProfessional, ToneFriendly, ToneFormal, ToneCasual}
	Lengths             = []Length{LengthShort, LengthMedium, LengthLong}
)

// Params are the generation inputs a recommendation was produced from.
type Params struct {
	RecommendationType  RecommendationType `gorm:"column:recommendation_type;type:text;not null" json:"recommendation_type"`
	Tone                Tone               `gorm:"column:tone;type:text;not null" json:"tone"`
	Length              Length             `gorm:"column:length;type:text;not null" json:"length"`
	WorkingRelationship string             `gorm:"column:working_relationship;type:text" json:"working_relationship"`
	SpecificSkills      string             `gorm:"column:specific_skills;type:text" json:"specific_skills,omitempty"`
	NotableProjects     string             `gorm:"column:notable_projects;type:text" json:"notable_projects,omitempty"`
	CustomPrompt        string             `gorm:"column:custom_prompt;type:text" json:"custom_prompt,omitempty"`
}

// WithDefaults fills unset enumerations.
func (p Params) WithDefaults() Params {
	if strings.TrimSpace(string(p.RecommendationType)) == "" {
		p.RecommendationType = TypeProfessional
	}
	if strings.TrimSpace(string(p.Tone)) == "" {
		p.Tone = ToneProfessional
	}
	if strings.TrimSpace(string(p.Length)) == "" {
		p.Length = LengthMedium
	}
	return p
}

func ValidType(t RecommendationType) bool {
	for _, v := range RecommendationTypes {
		if v == t {
			return true
		}
	}
	return false
}

func ValidTone(t Tone) bool {
	for _, v := range Tones {
		if v == t {
			return true
		}
	}
	return false
}

func ValidLength(l Length) bool {
	for _, v := range Lengths {
		if v == l {
			return true
		}
	}
	return false
}

// Recommendation is the document a user produces. Content and WordCount always
// mirror the version numbered CurrentVersionNumber.
type Recommendation struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	GithubUsername string `gorm:"column:github_username;type:text;not null;index" json:"github_username"`
	Title          string `gorm:"column:title;type:text" json:"title"`
	Content        string `gorm:"column:content;type:text;not null" json:"content"`
	WordCount      int    `gorm:"column:word_count;not null" json:"word_count"`

	Params Params `gorm:"embedded" json:"params"`

	CurrentVersionNumber int `gorm:"column:current_version_number;not null" json:"current_version_number"`

	SelectedOptionID  int                         `gorm:"column:selected_option_id" json:"selected_option_id,omitempty"`
	GenerationOptions datatypes.JSONSlice[Option] `gorm:"column:generation_options" json:"generation_options,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Recommendation) TableName() string { return "recommendation" }
