package share

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/meltforce/wodlink/internal/models"
)

func ids[T Identified](vs []T) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Identity()
	}
	return out
}

// TestReconcileOrder verifies untouched entries keep their relative order and
// incoming entries follow them in their given order.
func TestReconcileOrder(t *testing.T) {
	existing := []models.Template{
		sampleTemplate("a", "A"), sampleTemplate("b", "B"), sampleTemplate("c", "C"), sampleTemplate("d", "D"),
	}
	incoming := []models.Template{sampleTemplate("e", "E"), sampleTemplate("b", "B2")}

	got := Reconcile(existing, incoming)

	if diff := cmp.Diff([]string{"a", "c", "d", "e", "b"}, ids(got)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if got[4].Name != "B2" {
		t.Errorf("replaced entry name = %q, want B2", got[4].Name)
	}
}

// TestReconcileIdempotent verifies applying the same batch twice equals
// applying it once.
func TestReconcileIdempotent(t *testing.T) {
	existing := []models.Workout{
		sampleWorkout("a", "A", "2024-06-01"),
		sampleWorkout("b", "B", "2024-06-01"),
	}
	incoming := []models.Workout{
		sampleWorkout("b", "B new", "2024-06-02"),
		sampleWorkout("c", "C", "2024-06-02"),
	}

	once := Reconcile(existing, incoming)
	twice := Reconcile(once, incoming)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("second application changed the collection (-once +twice):\n%s", diff)
	}
}

// TestReconcileDoesNotMutateInputs verifies the merge returns a new slice and
// leaves both arguments as they were.
func TestReconcileDoesNotMutateInputs(t *testing.T) {
	existing := []models.Template{sampleTemplate("a", "A"), sampleTemplate("b", "B")}
	incoming := []models.Template{sampleTemplate("a", "A2")}
	existingBefore := append([]models.Template(nil), existing...)
	incomingBefore := append([]models.Template(nil), incoming...)

	got := Reconcile(existing, incoming)
	got[0].Name = "mutated"

	if diff := cmp.Diff(existingBefore, existing); diff != "" {
		t.Errorf("existing mutated (-before +after):\n%s", diff)
	}
	if diff := cmp.Diff(incomingBefore, incoming); diff != "" {
		t.Errorf("incoming mutated (-before +after):\n%s", diff)
	}
}

// TestReconcileDuplicateIncoming verifies repeated IDs inside one batch
// collapse to the last occurrence so IDs stay unique.
func TestReconcileDuplicateIncoming(t *testing.T) {
	incoming := []models.Template{sampleTemplate("x", "first"), sampleTemplate("y", "Y"), sampleTemplate("x", "second")}
	got := Reconcile(nil, incoming)
	if diff := cmp.Diff([]string{"y", "x"}, ids(got)); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
	if got[1].Name != "second" {
		t.Errorf("name = %q, want second", got[1].Name)
	}
}

// TestReconcileEmpty verifies merging an empty batch returns an equal copy.
func TestReconcileEmpty(t *testing.T) {
	existing := []models.LibraryExercise{{ID: "l1", Name: "Burpee", Category: models.CategoryCrossFit}}
	got := Reconcile(existing, nil)
	if diff := cmp.Diff(existing, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

// TestOverlap verifies the replaced-entry count.
func TestOverlap(t *testing.T) {
	existing := []models.Template{sampleTemplate("a", "A"), sampleTemplate("b", "B")}
	incoming := []models.Template{sampleTemplate("b", "B"), sampleTemplate("c", "C")}
	if n := Overlap(existing, incoming); n != 1 {
		t.Errorf("Overlap = %d, want 1", n)
	}
}

// TestRemove verifies removal by ID.
func TestRemove(t *testing.T) {
	existing := []models.Template{sampleTemplate("a", "A"), sampleTemplate("b", "B")}
	got, ok := Remove(existing, "a")
	if !ok || len(got) != 1 || got[0].ID != "b" {
		t.Errorf("Remove(a) = %v, %v", ids(got), ok)
	}
	if _, ok := Remove(existing, "zzz"); ok {
		t.Error("Remove(zzz) reported found")
	}
}

// TestScenarioSingleSessionImport shares "Engine Burner" and imports it into
// an empty schedule, then imports it again.
func TestScenarioSingleSessionImport(t *testing.T) {
	src := sampleWorkout("eb1", "Engine Burner", "2024-06-01")
	token, err := Encode(Sanitize(SingleSession{Workout: src}))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	p, err := Decode(token)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	var schedule []models.Workout
	schedule = Reconcile(schedule, IncomingWorkouts(p))
	if len(schedule) != 1 || schedule[0].ID != "eb1" || schedule[0].Name != "Engine Burner" {
		t.Fatalf("after first import: %+v", ids(schedule))
	}

	schedule = Reconcile(schedule, IncomingWorkouts(p))
	if len(schedule) != 1 || schedule[0].ID != "eb1" {
		t.Fatalf("after re-import: ids = %v, want [eb1]", ids(schedule))
	}
}

// TestScenarioDayBatchWithExisting imports three sessions where one ID is
// already present under a different name.
func TestScenarioDayBatchWithExisting(t *testing.T) {
	schedule := []models.Workout{sampleWorkout("s2", "Old Name", "2024-06-01")}
	batch := DayBatch{Workouts: []models.Workout{
		sampleWorkout("s1", "Early", "2024-06-01"),
		sampleWorkout("s2", "Midday", "2024-06-01"),
		sampleWorkout("s3", "Evening", "2024-06-01"),
	}}
	token, err := Encode(Sanitize(batch))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	p, err := Decode(token)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	got := Reconcile(schedule, IncomingWorkouts(p))
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	s2, ok := models.FindWorkout(got, "s2")
	if !ok || s2.Name != "Midday" {
		t.Errorf("s2 = %+v, want name Midday", s2)
	}
}
