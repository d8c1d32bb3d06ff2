package teamsync

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/meltforce/wodlink/internal/dispatch"
	"github.com/meltforce/wodlink/internal/models"
	"github.com/meltforce/wodlink/internal/share"
)

const base = "https://otb.example/app"

type memTarget struct {
	cols       models.Collections
	focus      string
	updates    int
	failUpdate error
}

func (m *memTarget) Snapshot() models.Collections { return m.cols }

func (m *memTarget) Update(_ context.Context, fn func(c *models.Collections) error) error {
	m.updates++
	c := m.cols
	if err := fn(&c); err != nil {
		return err
	}
	if m.failUpdate != nil {
		return m.failUpdate
	}
	m.cols = c
	return nil
}

func (m *memTarget) SetFocus(date string) { m.focus = date }

type recorder struct {
	got []Notification
}

func (r *recorder) Notify(n Notification) { r.got = append(r.got, n) }

type fakeDispatcher struct {
	method dispatch.Method
	err    error
	sent   []dispatch.Message
}

func (f *fakeDispatcher) Dispatch(_ context.Context, m dispatch.Message) (dispatch.Method, error) {
	f.sent = append(f.sent, m)
	return f.method, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func workout(id, name, date, slot string) models.Workout {
	w := models.Workout{
		Template: models.Template{ID: id, Name: name, WOD1: []models.Exercise{{ID: id + "-1", Name: "Burpees", Reps: "50"}}},
		Date:     date,
		TimeSlot: slot,
	}
	w.Normalize()
	return w
}

func linkFor(t *testing.T, p share.Payload) string {
	t.Helper()
	link, err := New(base, share.Guard{}, nil, nil, testLogger()).Link(p)
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	return link
}

func inbound(t *testing.T, link string) *URLInbound {
	t.Helper()
	in, err := ParseLink(link)
	if err != nil {
		t.Fatalf("ParseLink: %v", err)
	}
	return in
}

// TestReceiveNoToken verifies a URL without token parameters leaves the
// controller idle with no notification.
func TestReceiveNoToken(t *testing.T) {
	rec := &recorder{}
	c := New(base, share.Guard{}, nil, rec, testLogger())
	target := &memTarget{}
	in := inbound(t, base+"?tab=library")

	out := c.Receive(context.Background(), target, in)

	if out.Notification != nil || len(rec.got) != 0 {
		t.Errorf("notifications = %v, want none", rec.got)
	}
	if in.Cleared() != 0 || target.updates != 0 {
		t.Errorf("cleared=%d updates=%d, want 0 and 0", in.Cleared(), target.updates)
	}
}

// TestReceiveSession imports one session into an empty schedule and checks
// the lifecycle, the single notification, and the focus date.
func TestReceiveSession(t *testing.T) {
	rec := &recorder{}
	c := New(base, share.Guard{}, nil, rec, testLogger())
	target := &memTarget{}
	in := inbound(t, linkFor(t, share.SingleSession{Workout: workout("eb1", "Engine Burner", "2024-06-01", "06:00")}))

	out := c.Receive(context.Background(), target, in)

	if out.Err != nil {
		t.Fatalf("Receive error: %v", out.Err)
	}
	wantTrace := []State{StateIdle, StateDecoding, StateReconciling, StateNotified, StateIdle}
	if diff := cmp.Diff(wantTrace, out.Trace); diff != "" {
		t.Errorf("trace mismatch (-want +got):\n%s", diff)
	}
	if in.Cleared() != 1 {
		t.Errorf("cleared %d times, want 1", in.Cleared())
	}
	if len(rec.got) != 1 || rec.got[0].Level != LevelSuccess || rec.got[0].Count != 1 {
		t.Fatalf("notifications = %+v, want one success", rec.got)
	}
	if len(target.cols.Workouts) != 1 || target.cols.Workouts[0].Name != "Engine Burner" {
		t.Errorf("workouts = %+v", target.cols.Workouts)
	}
	if target.focus != "2024-06-01" {
		t.Errorf("focus = %q, want 2024-06-01", target.focus)
	}
	if strings.Contains(in.Location(), "wod=") {
		t.Errorf("location %q still carries the token", in.Location())
	}
}

// TestReceiveCorruptToken verifies a corrupt token yields one failure
// notification and no collection change.
func TestReceiveCorruptToken(t *testing.T) {
	rec := &recorder{}
	c := New(base, share.Guard{}, nil, rec, testLogger())
	target := &memTarget{cols: models.Collections{Workouts: []models.Workout{workout("a", "A", "2024-06-01", "06:00")}}}
	in := inbound(t, base+"?wod=%25%25garbage")

	out := c.Receive(context.Background(), target, in)

	if !errors.Is(out.Err, share.ErrDecode) {
		t.Fatalf("error = %v, want ErrDecode", out.Err)
	}
	if len(rec.got) != 1 || rec.got[0].Level != LevelError {
		t.Fatalf("notifications = %+v, want one error", rec.got)
	}
	if target.updates != 0 || len(target.cols.Workouts) != 1 {
		t.Errorf("collection touched: updates=%d workouts=%d", target.updates, len(target.cols.Workouts))
	}
	if in.Cleared() != 1 {
		t.Errorf("cleared %d times, want 1", in.Cleared())
	}
	wantTrace := []State{StateIdle, StateDecoding, StateNotified, StateIdle}
	if diff := cmp.Diff(wantTrace, out.Trace); diff != "" {
		t.Errorf("trace mismatch (-want +got):\n%s", diff)
	}
}

// TestReceiveKindMismatch verifies a blueprint token under the session
// parameter is rejected.
func TestReceiveKindMismatch(t *testing.T) {
	link := linkFor(t, share.Blueprint{Templates: []models.Template{{ID: "t1", Name: "Chipper"}}})
	u, _ := url.Parse(link)
	token := u.Query().Get("blueprint")

	target := &memTarget{}
	out := New(base, share.Guard{}, nil, nil, testLogger()).Receive(context.Background(), target, inbound(t, base+"?wod="+token))
	if !errors.Is(out.Err, share.ErrDecode) {
		t.Fatalf("error = %v, want ErrDecode", out.Err)
	}
	if len(target.cols.Templates) != 0 {
		t.Error("templates modified on mismatch")
	}
}

// TestReceivePrecedence verifies the session parameter wins when several
// token parameters are present.
func TestReceivePrecedence(t *testing.T) {
	wod, _ := url.Parse(linkFor(t, share.SingleSession{Workout: workout("w1", "W", "2024-06-01", "06:00")}))
	bp, _ := url.Parse(linkFor(t, share.Blueprint{Templates: []models.Template{{ID: "t1", Name: "T"}}}))
	link := base + "?blueprint=" + bp.Query().Get("blueprint") + "&wod=" + wod.Query().Get("wod")

	target := &memTarget{}
	out := New(base, share.Guard{}, nil, nil, testLogger()).Receive(context.Background(), target, inbound(t, link))
	if out.Kind != share.KindSingleSession {
		t.Errorf("kind = %q, want single-session", out.Kind)
	}
	if len(target.cols.Workouts) != 1 || len(target.cols.Templates) != 0 {
		t.Errorf("workouts=%d templates=%d, want 1 and 0", len(target.cols.Workouts), len(target.cols.Templates))
	}
}

// TestReceiveDayBatchReplaces imports three sessions, one of which already
// exists under an old name.
func TestReceiveDayBatchReplaces(t *testing.T) {
	target := &memTarget{cols: models.Collections{Workouts: []models.Workout{workout("s2", "Old", "2024-06-01", "12:00")}}}
	batch := share.DayBatch{Workouts: []models.Workout{
		workout("s1", "Early", "2024-06-01", "06:00"),
		workout("s2", "Midday", "2024-06-01", "12:00"),
		workout("s3", "Evening", "2024-06-01", "18:00"),
	}}
	rec := &recorder{}
	out := New(base, share.Guard{}, nil, rec, testLogger()).Receive(context.Background(), target, inbound(t, linkFor(t, batch)))

	if out.Err != nil {
		t.Fatal(out.Err)
	}
	if len(target.cols.Workouts) != 3 || out.Replaced != 1 {
		t.Fatalf("workouts=%d replaced=%d, want 3 and 1", len(target.cols.Workouts), out.Replaced)
	}
	if s2, _ := models.FindWorkout(target.cols.Workouts, "s2"); s2.Name != "Midday" {
		t.Errorf("s2 name = %q, want Midday", s2.Name)
	}
	if len(rec.got) != 1 || !strings.Contains(rec.got[0].Message, "3 SESSIONS") {
		t.Errorf("notifications = %+v", rec.got)
	}
}

// TestReceiveBlueprint verifies blueprints merge into templates without
// moving the calendar focus.
func TestReceiveBlueprint(t *testing.T) {
	target := &memTarget{}
	p := share.Blueprint{Templates: []models.Template{{ID: "t1", Name: "Hyrox Sim"}}}
	out := New(base, share.Guard{}, nil, nil, testLogger()).Receive(context.Background(), target, inbound(t, linkFor(t, p)))

	if out.Err != nil {
		t.Fatal(out.Err)
	}
	if len(target.cols.Templates) != 1 || target.cols.Templates[0].Name != "Hyrox Sim" {
		t.Errorf("templates = %+v", target.cols.Templates)
	}
	if target.focus != "" {
		t.Errorf("focus = %q, want unchanged", target.focus)
	}
}

// TestReceiveUpdateFailure verifies a failed apply leaves the target as it
// was and still notifies exactly once.
func TestReceiveUpdateFailure(t *testing.T) {
	rec := &recorder{}
	target := &memTarget{failUpdate: errors.New("disk full")}
	p := share.SingleSession{Workout: workout("w1", "W", "2024-06-01", "06:00")}
	out := New(base, share.Guard{}, nil, rec, testLogger()).Receive(context.Background(), target, inbound(t, linkFor(t, p)))

	if out.Err == nil {
		t.Fatal("expected error")
	}
	if len(target.cols.Workouts) != 0 || target.focus != "" {
		t.Errorf("target changed: workouts=%d focus=%q", len(target.cols.Workouts), target.focus)
	}
	if len(rec.got) != 1 || rec.got[0].Level != LevelError {
		t.Errorf("notifications = %+v, want one error", rec.got)
	}
}

// TestShareOutcomes covers the notification rules for each dispatch result.
func TestShareOutcomes(t *testing.T) {
	tests := []struct {
		name      string
		method    dispatch.Method
		err       error
		wantErr   error
		wantNotes int
	}{
		{"native share", dispatch.MethodShare, nil, nil, 0},
		{"clipboard", dispatch.MethodClipboard, nil, nil, 1},
		{"cancelled", dispatch.MethodShare, share.ErrDispatchAborted, nil, 0},
		{"failed", dispatch.MethodClipboard, errors.New("no display"), share.ErrDispatchFailed, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			d := &fakeDispatcher{method: tt.method, err: tt.err}
			c := New(base, share.Guard{}, d, rec, testLogger())

			err := c.Share(context.Background(), share.SingleSession{Workout: workout("w1", "W", "2024-06-01", "06:00")})
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if len(rec.got) != tt.wantNotes {
				t.Errorf("notifications = %+v, want %d", rec.got, tt.wantNotes)
			}
			if len(d.sent) != 1 || !strings.HasPrefix(d.sent[0].URL, base+"?wod=") {
				t.Errorf("sent = %+v", d.sent)
			}
		})
	}
}

// TestShareTooLarge verifies an oversized link is never dispatched.
func TestShareTooLarge(t *testing.T) {
	rec := &recorder{}
	d := &fakeDispatcher{method: dispatch.MethodShare}
	c := New(base, share.Guard{Limit: 100}, d, rec, testLogger())

	err := c.Share(context.Background(), share.SingleSession{Workout: workout("w1", strings.Repeat("x", 200), "2024-06-01", "06:00")})
	if !errors.Is(err, share.ErrPayloadTooLarge) {
		t.Fatalf("error = %v, want ErrPayloadTooLarge", err)
	}
	if len(d.sent) != 0 {
		t.Errorf("dispatched %d messages", len(d.sent))
	}
	if len(rec.got) != 1 || rec.got[0].Message != MessageTooLarge {
		t.Errorf("notifications = %+v", rec.got)
	}
}

// TestShareSanitizes verifies the dispatched link carries no local-only
// media references.
func TestShareSanitizes(t *testing.T) {
	d := &fakeDispatcher{method: dispatch.MethodShare}
	w := workout("w1", "W", "2024-06-01", "06:00")
	w.WOD1[0].VideoURL = "blob:https://otb.example/123"
	if err := New(base, share.Guard{}, d, nil, testLogger()).Share(context.Background(), share.SingleSession{Workout: w}); err != nil {
		t.Fatal(err)
	}
	u, _ := url.Parse(d.sent[0].URL)
	p, err := share.Decode(u.Query().Get("wod"))
	if err != nil {
		t.Fatal(err)
	}
	if got := p.(share.SingleSession).Workout.WOD1[0].VideoURL; got != "" {
		t.Errorf("video = %q, want stripped", got)
	}
	if w.WOD1[0].VideoURL == "" {
		t.Error("source workout was modified")
	}
}

// TestResolve verifies record lookup for each kind.
func TestResolve(t *testing.T) {
	cols := models.Collections{
		Workouts: []models.Workout{
			workout("late", "Late", "2024-06-01", "18:00"),
			workout("other", "Other", "2024-06-02", "06:00"),
			workout("early", "Early", "2024-06-01", "06:00"),
		},
		Templates: []models.Template{{ID: "t1", Name: "T"}},
	}

	p, err := Resolve(cols, share.KindDayBatch, "2024-06-01")
	if err != nil {
		t.Fatal(err)
	}
	day := p.(share.DayBatch).Workouts
	if len(day) != 2 || day[0].ID != "early" || day[1].ID != "late" {
		t.Errorf("day = %+v, want early then late", day)
	}

	if _, err := Resolve(cols, share.KindDayBatch, "2030-01-01"); !errors.Is(err, ErrNothingToShare) {
		t.Errorf("empty day error = %v", err)
	}
	if _, err := Resolve(cols, share.KindSingleSession, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing session error = %v", err)
	}
	if p, err := Resolve(cols, share.KindBlueprint, "t1"); err != nil || p.Len() != 1 {
		t.Errorf("blueprint = %v, %v", p, err)
	}
}

// TestShareByRecord verifies the per-kind entry points resolve against the
// target and mint a link under the matching parameter.
func TestShareByRecord(t *testing.T) {
	target := &memTarget{cols: models.Collections{
		Workouts:  []models.Workout{workout("w1", "W", "2024-06-01", "06:00")},
		Templates: []models.Template{{ID: "t1", Name: "T"}},
	}}
	d := &fakeDispatcher{method: dispatch.MethodShare}
	c := New(base, share.Guard{}, d, nil, testLogger())
	ctx := context.Background()

	if err := c.ShareSession(ctx, target, "w1"); err != nil {
		t.Fatalf("ShareSession: %v", err)
	}
	if err := c.ShareDay(ctx, target, "2024-06-01"); err != nil {
		t.Fatalf("ShareDay: %v", err)
	}
	if err := c.ShareBlueprint(ctx, target, "t1"); err != nil {
		t.Fatalf("ShareBlueprint: %v", err)
	}
	if err := c.ShareBlueprint(ctx, target, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing blueprint error = %v", err)
	}

	var params []string
	for _, m := range d.sent {
		u, err := url.Parse(m.URL)
		if err != nil {
			t.Fatal(err)
		}
		for k := range u.Query() {
			params = append(params, k)
		}
	}
	if diff := cmp.Diff([]string{"wod", "day", "blueprint"}, params); diff != "" {
		t.Errorf("link params (-want +got):\n%s", diff)
	}
	if target.updates != 0 {
		t.Errorf("sharing updated the target %d times", target.updates)
	}
}
