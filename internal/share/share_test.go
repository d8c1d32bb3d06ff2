package share

import (
	"github.com/meltforce/wodlink/internal/models"
)

// sampleWorkout builds a scheduled session with one exercise per used phase.
func sampleWorkout(id, name, date string) models.Workout {
	w := models.Workout{
		Template: models.Template{
			ID:   id,
			Name: name,
			Warmup: []models.Exercise{
				{ID: id + "-w1", Name: "Row", Time: "5 min"},
			},
			WOD1: []models.Exercise{
				{ID: id + "-a1", Name: "Thrusters", Reps: "21-15-9"},
				{ID: id + "-a2", Name: "Pull-ups", Reps: "21-15-9", IsSuperset: true},
			},
			WOD2:     []models.Exercise{},
			Finisher: []models.Exercise{},
			Cooldown: []models.Exercise{
				{ID: id + "-c1", Name: "Couch stretch", Time: "2 min", VideoURL: "https://video.example/couch"},
			},
			CoachNotes: "Scale the pull-ups to ring rows if needed.",
		},
		Date:     date,
		TimeSlot: "06:00",
		Month:    "June",
		Week:     22,
		Day:      "Saturday",
	}
	return w
}

func sampleTemplate(id, name string) models.Template {
	return models.Template{
		ID:       id,
		Name:     name,
		Warmup:   []models.Exercise{{ID: id + "-w1", Name: "Ski erg", Time: "3 min"}},
		WOD1:     []models.Exercise{{ID: id + "-a1", Name: "Wall balls", Reps: "100"}},
		WOD2:     []models.Exercise{},
		Finisher: []models.Exercise{},
		Cooldown: []models.Exercise{},
	}
}
