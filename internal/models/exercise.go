package models

import "strings"

// Exercise is one movement entry inside a workout phase.
type Exercise struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Reps       string `json:"reps,omitempty"`
	Time       string `json:"time,omitempty"`
	VideoURL   string `json:"videoUrl,omitempty"`
	IsSuperset bool   `json:"isSuperset"`
}

// Identity returns the exercise ID.
func (e Exercise) Identity() string { return e.ID }

// Category groups library exercises for quick insert.
type Category string

// Library exercise categories.
const (
	CategoryCardio   Category = "Cardio"
	CategoryCrossFit Category = "CrossFit"
	CategoryHyrox    Category = "Hyrox"
	CategoryStrength Category = "Strength"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryCardio, CategoryCrossFit, CategoryHyrox, CategoryStrength}

// categoryMap maps lowercased spellings seen in hand-edited export files to
// their canonical category.
var categoryMap = map[string]Category{
	"cardio":       CategoryCardio,
	"crossfit":     CategoryCrossFit,
	"cross fit":    CategoryCrossFit,
	"cross-fit":    CategoryCrossFit,
	"hyrox":        CategoryHyrox,
	"strength":     CategoryStrength,
	"weights":      CategoryStrength,
	"conditioning": CategoryCardio,
}

// ParseCategory maps a possibly loosely spelled category to its canonical
// value. Returns the canonical category and true if recognized, or the input
// and false if unknown.
func ParseCategory(raw string) (Category, bool) {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if c, ok := categoryMap[lower]; ok {
		return c, true
	}
	return Category(raw), false
}

// LibraryExercise is a reusable movement definition. It is never part of a
// share payload.
type LibraryExercise struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Category Category `json:"category"`
	VideoURL string   `json:"videoUrl,omitempty"`
}

// Identity returns the library exercise ID.
func (l LibraryExercise) Identity() string { return l.ID }

// ToExercise turns a library entry into a fresh phase entry with the given ID.
func (l LibraryExercise) ToExercise(id string) Exercise {
	return Exercise{ID: id, Name: l.Name, VideoURL: l.VideoURL}
}
