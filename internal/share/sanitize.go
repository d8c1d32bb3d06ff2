package share

import (
	"strings"

	"github.com/meltforce/wodlink/internal/models"
)

// localSchemes are media reference schemes that only resolve inside the
// runtime or device that created them.
var localSchemes = []string{"blob:", "filesystem:", "file:"}

// IsLocalOnly reports whether a media reference cannot be resolved on
// another device.
func IsLocalOnly(ref string) bool {
	lower := strings.ToLower(strings.TrimSpace(ref))
	for _, s := range localSchemes {
		if strings.HasPrefix(lower, s) {
			return true
		}
	}
	return false
}

// SanitizeExercise returns a copy of e with a local-only media reference
// cleared.
func SanitizeExercise(e models.Exercise) models.Exercise {
	if IsLocalOnly(e.VideoURL) {
		e.VideoURL = ""
	}
	return e
}

// SanitizeTemplate returns a deep copy of t safe to leave the device. The
// source is not modified.
func SanitizeTemplate(t models.Template) models.Template {
	c := t
	for _, p := range models.Phases {
		src := *t.Phase(p)
		dst := make([]models.Exercise, len(src))
		for i, e := range src {
			dst[i] = SanitizeExercise(e)
		}
		*c.Phase(p) = dst
	}
	return c
}

// SanitizeWorkout returns a deep copy of w safe to leave the device.
func SanitizeWorkout(w models.Workout) models.Workout {
	c := w
	c.Template = SanitizeTemplate(w.Template)
	return c
}

// SanitizeWorkouts sanitizes every workout into a new slice.
func SanitizeWorkouts(ws []models.Workout) []models.Workout {
	out := make([]models.Workout, len(ws))
	for i, w := range ws {
		out[i] = SanitizeWorkout(w)
	}
	return out
}

// SanitizeTemplates sanitizes every template into a new slice.
func SanitizeTemplates(ts []models.Template) []models.Template {
	out := make([]models.Template, len(ts))
	for i, t := range ts {
		out[i] = SanitizeTemplate(t)
	}
	return out
}

// Sanitize returns a sanitized copy of p.
func Sanitize(p Payload) Payload {
	switch v := p.(type) {
	case SingleSession:
		return SingleSession{Workout: SanitizeWorkout(v.Workout)}
	case DayBatch:
		return DayBatch{Workouts: SanitizeWorkouts(v.Workouts)}
	case Blueprint:
		return Blueprint{Templates: SanitizeTemplates(v.Templates)}
	default:
		return p
	}
}
