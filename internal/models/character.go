// internal/models/character.go
package models

import "time"

// Gender 角色性别
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Build 角色体型
type Build string

const (
	BuildSlim     Build = "slim"
	BuildAverage  Build = "average"
	BuildAthletic Build = "athletic"
	BuildStocky   Build = "stocky"
	BuildHeavy    Build = "heavy"
)

// Temperament 基于四种古典气质的角色气质类型
type Temperament string

const (
	TemperamentCholeric    Temperament = "choleric"
	TemperamentSanguine    Temperament = "sanguine"
	TemperamentMelancholic Temperament = "melancholic"
	TemperamentPhlegmatic  Temperament = "phlegmatic"
)

// TemperamentDescriptions 供提示词使用的气质详细描述
var TemperamentDescriptions = map[Temperament]string{
	TemperamentCholeric: "Choleric: Ambitious, driven, and natural leaders. They are decisive, " +
		"goal-oriented, and thrive on challenges. Can be impatient, domineering, " +
		"and quick to anger. Excel in leadership roles and crisis situations.",
	TemperamentSanguine: "Sanguine: Optimistic, social, and enthusiastic. They are charming, " +
		"talkative, and enjoy being around people. Can be impulsive, disorganized, " +
		"and struggle with follow-through. Excel in social roles and entertainment.",
	TemperamentMelancholic: "Melancholic: Analytical, detail-oriented, and thoughtful. They are " +
		"perfectionist, loyal, and deeply emotional. Can be overly critical, " +
		"pessimistic, and prone to worry. Excel in creative and scholarly pursuits.",
	TemperamentPhlegmatic: "Phlegmatic: Calm, reliable, and diplomatic. They are patient, good " +
		"listeners, and avoid conflict. Can be passive, indecisive, and resistant " +
		"to change. Excel in supportive roles and maintaining harmony.",
}

// Appearance 角色外貌属性
type Appearance struct {
	HeightCM               int      `json:"height_cm"`
	Build                  Build    `json:"build"`
	HairColor              string   `json:"hair_color"`
	HairStyle              string   `json:"hair_style"`
	EyeColor               string   `json:"eye_color"`
	SkinTone               string   `json:"skin_tone"`
	DistinguishingFeatures []string `json:"distinguishing_features,omitempty"`
	ClothingStyle          string   `json:"clothing_style"`
}

// Personality 角色性格特质
type Personality struct {
	Temperament    Temperament `json:"temperament"`
	PositiveTraits []string    `json:"positive_traits"`
	NegativeTraits []string    `json:"negative_traits"`
	Quirks         []string    `json:"quirks,omitempty"`
	Values         []string    `json:"values"`
	Fears          []string    `json:"fears,omitempty"`
}

// LifeEvent 角色过去的重要经历
type LifeEvent struct {
	AgeAtEvent  int    `json:"age_at_event"`
	Description string `json:"description"`
}

// Backstory 角色背景故事
type Backstory struct {
	OriginVillage     string      `json:"origin_village"`
	FamilyStatus      string      `json:"family_status"`
	ParentsOccupation string      `json:"parents_occupation"`
	ReasonForArrival  string      `json:"reason_for_arrival"`
	LifeEvents        []LifeEvent `json:"life_events,omitempty"`
	Secrets           []string    `json:"secrets,omitempty"`
}

// StatBlock 角色属性值，1-10范围
type StatBlock struct {
	Strength     int `json:"strength"`
	Dexterity    int `json:"dexterity"`
	Constitution int `json:"constitution"`
	Intelligence int `json:"intelligence"`
	Wisdom       int `json:"wisdom"`
	Charisma     int `json:"charisma"`
}

// Skills 角色职业与能力
type Skills struct {
	Occupation      string    `json:"occupation"`
	PrimarySkills   []string  `json:"primary_skills"`
	SecondarySkills []string  `json:"secondary_skills,omitempty"`
	Stats           StatBlock `json:"stats"`
	SpecialTalent   string    `json:"special_talent,omitempty"`
}

// Character 表示村庄中的一个角色
// 事件引擎只读取角色数据，从不修改
type Character struct {
	ID                  string      `json:"id,omitempty"` // 保存时分配的UUID
	Name                string      `json:"name"`
	Age                 int         `json:"age"`
	Gender              Gender      `json:"gender"`
	Appearance          Appearance  `json:"appearance"`
	Personality         Personality `json:"personality"`
	Backstory           Backstory   `json:"backstory"`
	Skills              Skills      `json:"skills"`
	PortraitDescription string      `json:"portrait_description"`
	CreatedAt           time.Time   `json:"created_at,omitempty"`
}
