package upload

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

// fakeImport answers like the server's import endpoint: bodies containing
// "broken" are rejected, everything else imports one workout.
func fakeImport(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/api/v1/import" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("X-API-Key") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, _ := io.ReadAll(r.Body)
		if strings.Contains(string(body), "broken") {
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"error":"IMPORT ERROR"}`)
			return
		}
		io.WriteString(w, `{"message":"LIBRARY UPDATED","workouts":1}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// TestRunSkipsUnchanged verifies that a second run with the same state DB
// sends nothing and that rejected files do not abort the run.
func TestRunSkipsUnchanged(t *testing.T) {
	var calls atomic.Int32
	srv := fakeImport(t, &calls)

	dir := t.TempDir()
	writeFile(t, dir, "a.json", `{"workouts":[]}`)
	writeFile(t, dir, "b.json", `{"broken":true}`)
	writeFile(t, dir, ".hidden.json", `{}`)
	writeFile(t, dir, "notes.txt", `ignore`)

	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer state.Close()

	stats, err := New(NewClient(srv.URL, "secret"), state, false, testLogger()).Run(context.Background(), dir)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	want := Stats{FilesTotal: 2, FilesUploaded: 1, FilesErrored: 1, WorkoutsSent: 1, BytesSent: int64(len(`{"workouts":[]}`))}
	if diff := cmp.Diff(want, *stats); diff != "" {
		t.Errorf("first run stats (-want +got):\n%s", diff)
	}

	stats, err = New(NewClient(srv.URL, "secret"), state, false, testLogger()).Run(context.Background(), dir)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if stats.FilesSkipped != 1 || stats.FilesUploaded != 0 {
		t.Errorf("second run stats = %+v, want a.json skipped", *stats)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server saw %d requests, want 3", got)
	}
}

// TestCollectMatchesImportFilter verifies a push picks the same files a
// directory import would, regardless of extension case.
func TestCollectMatchesImportFilter(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.JSON", "a.json", ".c.json", "d.txt"} {
		writeFile(t, dir, name, `{}`)
	}
	files, base, err := collect(dir)
	if err != nil {
		t.Fatal(err)
	}
	if base != dir {
		t.Errorf("base = %q, want %q", base, dir)
	}
	want := []string{filepath.Join(dir, "a.json"), filepath.Join(dir, "b.JSON")}
	if diff := cmp.Diff(want, files); diff != "" {
		t.Errorf("collect (-want +got):\n%s", diff)
	}
}

// TestSendFileRetries verifies that 5xx responses are retried and a later
// success is returned.
func TestSendFileRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		if r.URL.Query().Get("dry_run") != "true" {
			t.Errorf("dry_run not forwarded: %s", r.URL)
		}
		io.WriteString(w, `{"message":"LIBRARY UPDATED","templates":2,"replaced":1}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "")
	c.backoff = time.Millisecond
	res, err := c.SendFile(context.Background(), []byte(`[]`), true)
	if err != nil {
		t.Fatalf("SendFile: %v", err)
	}
	if res.Templates != 2 || res.Replaced != 1 {
		t.Errorf("result = %+v", res)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

// TestSendFileGivesUp verifies the error after exhausting retries, and that
// a 4xx is returned without retrying.
func TestSendFileGivesUp(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantCalls int32
		rejected  bool
	}{
		{"server error", http.StatusInternalServerError, 3, false},
		{"bad request", http.StatusBadRequest, 1, true},
		{"unauthorized", http.StatusUnauthorized, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c := NewClient(srv.URL, "k")
			c.backoff = time.Millisecond
			_, err := c.SendFile(context.Background(), []byte(`{}`), false)
			if err == nil {
				t.Fatal("expected error")
			}
			if errors.Is(err, ErrRejected) != tt.rejected {
				t.Errorf("errors.Is(ErrRejected) = %v, want %v (%v)", !tt.rejected, tt.rejected, err)
			}
			if got := calls.Load(); got != tt.wantCalls {
				t.Errorf("calls = %d, want %d", got, tt.wantCalls)
			}
		})
	}
}

// TestRunUnreachable verifies that a dead server aborts the run.
func TestRunUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	dir := t.TempDir()
	writeFile(t, dir, "OTB_BLUEPRINTS.json", `[]`)

	c := NewClient(url, "")
	c.backoff = time.Millisecond
	stats, err := New(c, nil, false, testLogger()).Run(context.Background(), filepath.Join(dir, "OTB_BLUEPRINTS.json"))
	if err == nil {
		t.Fatal("expected error")
	}
	if stats.FilesErrored != 1 {
		t.Errorf("FilesErrored = %d, want 1", stats.FilesErrored)
	}
}

func TestStateDB(t *testing.T) {
	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer state.Close()

	hash := Hash([]byte("x"))
	if err := state.MarkPushed("http://a", "f.json", 1, hash); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		server, path string
		size         int64
		hash         string
		want         bool
	}{
		{"http://a", "f.json", 1, hash, true},
		{"http://b", "f.json", 1, hash, false},
		{"http://a", "f.json", 2, hash, false},
		{"http://a", "f.json", 1, Hash([]byte("y")), false},
	}
	for _, tt := range tests {
		got, err := state.IsPushed(tt.server, tt.path, tt.size, tt.hash)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("IsPushed(%s, %s, %d) = %v, want %v", tt.server, tt.path, tt.size, got, tt.want)
		}
	}
}
