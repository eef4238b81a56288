package entity

import "time"

// Draft application field keys.
const (
	DraftFieldDegree      = "degree"
	DraftFieldUniversity  = "university"
	DraftFieldPhoneNumber = "phone_number"
	DraftFieldShirtSize   = "tshirt_size"
	DraftFieldDiet        = "diet"
	DraftFieldOtherDiet   = "other_diet"
)

const DietOthers = "Others"

// Diets lists the diet values a hacker application accepts.
var Diets = []string{
	"None",
	"Vegetarian",
	"Vegan",
	"No pork",
	"Gluten-free",
	DietOthers,
}

// DraftApplication is a partially filled hacker application.
type DraftApplication struct {
	ID        uint64
	UserID    uint64
	Data      map[string]string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NormalizeDiet maps a free-form diet onto Diets. Unknown values become
// DietOthers and are returned as the other diet.
func NormalizeDiet(raw string) (diet, other string) {
	if raw == "" {
		return "", ""
	}
	for _, known := range Diets {
		if raw == known {
			return raw, ""
		}
	}
	return DietOthers, raw
}
