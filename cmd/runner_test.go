package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/epg-sync/epgctl/internal/models"
	"github.com/epg-sync/epgctl/internal/services"
	"github.com/epg-sync/epgctl/internal/shared"
	"github.com/epg-sync/epgctl/internal/storage"
	tu "github.com/epg-sync/epgctl/internal/testing"
	"github.com/urfave/cli/v3"
)

// fakeBackend is an in-memory EPG backend speaking the {code, message, data} envelope.
type fakeBackend struct {
	mu       sync.Mutex
	channels []models.Channel
	mappings []models.ChannelMapping
	nextID   int64
	requests []string
	auth     []string
	queries  []string
	updates  []models.ChannelInput
	failSync map[string]string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		channels: []models.Channel{
			{ID: 1, ChannelID: "cctv13", DisplayName: "CCTV-13 News", Category: "news", Area: "CN", Timezone: "Asia/Shanghai", IsActive: models.FlagOn},
		},
		mappings: []models.ChannelMapping{
			{ID: 1, CanonicalID: "cctv1", ProviderID: "tvmao", ProviderChannelID: "CCTV1", Confidence: 3.5, IsVerified: models.FlagOn},
			{ID: 2, CanonicalID: "cctv13", ProviderID: "tvmao", ProviderChannelID: "CCTV13", Confidence: 1.75},
			{ID: 3, CanonicalID: "hunan", ProviderID: "epg51", ProviderChannelID: "HUNANTV", Confidence: 2},
		},
		nextID:   2,
		failSync: map[string]string{},
	}
}

func (b *fakeBackend) reply(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]any{"code": status, "message": message}
	if status >= 400 {
		body["error"] = message
	} else {
		body["data"] = data
	}
	json.NewEncoder(w).Encode(body)
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds models.Credentials
		json.NewDecoder(r.Body).Decode(&creds)
		if creds.Password != "secret123" {
			b.reply(w, http.StatusUnauthorized, "invalid username or password", nil)
			return
		}
		b.reply(w, http.StatusOK, "ok", models.LoginResult{
			Token: "tok-" + creds.Username,
			User:  models.User{ID: 7, Username: creds.Username, Role: "admin"},
		})
	})
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		b.reply(w, http.StatusOK, "ok", models.User{ID: 7, Username: "remote-admin", Role: "admin"})
	})
	mux.HandleFunc("GET /admin/channels", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.reply(w, http.StatusOK, "ok", b.channels)
	})
	mux.HandleFunc("POST /admin/channels", func(w http.ResponseWriter, r *http.Request) {
		var in models.ChannelInput
		json.NewDecoder(r.Body).Decode(&in)
		b.reply(w, http.StatusCreated, "created", b.add(in))
	})
	mux.HandleFunc("POST /admin/channels/batch", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Channels []models.ChannelInput `json:"channels"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		created := make([]models.Channel, 0, len(body.Channels))
		for _, in := range body.Channels {
			created = append(created, b.add(in))
		}
		b.reply(w, http.StatusCreated, "created", created)
	})
	mux.HandleFunc("GET /admin/channels/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		c, ok := models.FindChannel(b.channels, r.PathValue("id"))
		if !ok {
			b.reply(w, http.StatusNotFound, "channel not found", nil)
			return
		}
		b.reply(w, http.StatusOK, "ok", c)
	})
	mux.HandleFunc("PUT /admin/channels/{id}", func(w http.ResponseWriter, r *http.Request) {
		var in models.ChannelInput
		json.NewDecoder(r.Body).Decode(&in)
		b.mu.Lock()
		defer b.mu.Unlock()
		b.updates = append(b.updates, in)
		for i, c := range b.channels {
			if c.ChannelID == r.PathValue("id") {
				b.channels[i].DisplayName = in.DisplayName
				b.channels[i].Category = in.Category
				b.channels[i].IsActive = in.IsActive
				b.reply(w, http.StatusOK, "updated", b.channels[i])
				return
			}
		}
		b.reply(w, http.StatusNotFound, "channel not found", nil)
	})
	mux.HandleFunc("DELETE /admin/channels/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, c := range b.channels {
			if c.ChannelID == r.PathValue("id") {
				b.channels = append(b.channels[:i], b.channels[i+1:]...)
				b.reply(w, http.StatusOK, "deleted", nil)
				return
			}
		}
		b.reply(w, http.StatusNotFound, "channel not found", nil)
	})
	mux.HandleFunc("GET /admin/channel-mappings", func(w http.ResponseWriter, r *http.Request) {
		b.reply(w, http.StatusOK, "ok", b.mappings)
	})
	mux.HandleFunc("GET /admin/programs/search", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.queries = append(b.queries, r.URL.RawQuery)
		b.mu.Unlock()
		b.reply(w, http.StatusOK, "ok", map[string]any{
			"items": []models.Program{{ChannelID: "cctv1", Title: "Morning News", ProviderID: "tvmao"}},
			"meta":  map[string]int{"total": 120},
		})
	})
	mux.HandleFunc("POST /admin/epg/sync", func(w http.ResponseWriter, r *http.Request) {
		channelID := r.URL.Query().Get("channel_id")
		b.mu.Lock()
		b.queries = append(b.queries, r.URL.RawQuery)
		msg, fail := b.failSync[channelID]
		b.mu.Unlock()
		if fail {
			b.reply(w, http.StatusBadGateway, msg, nil)
			return
		}
		b.reply(w, http.StatusOK, "Synced 42 programs", nil)
	})
	mux.HandleFunc("POST /admin/job/sync", func(w http.ResponseWriter, r *http.Request) {
		b.reply(w, http.StatusOK, "success", nil)
	})
	mux.HandleFunc("GET /api/diyp", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.DIYPSchedule{
			ChannelName: r.URL.Query().Get("ch"),
			Date:        r.URL.Query().Get("date"),
			EPGData:     []models.DIYPProgramme{{Start: "08:00", End: "09:00", Title: "Morning News"}},
		})
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.requests = append(b.requests, r.Method+" "+r.URL.Path)
		b.auth = append(b.auth, r.Header.Get("Authorization"))
		b.mu.Unlock()
		mux.ServeHTTP(w, r)
	})
}

func (b *fakeBackend) add(in models.ChannelInput) models.Channel {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := models.Channel{
		ID:          b.nextID,
		ChannelID:   in.ChannelID,
		DisplayName: in.DisplayName,
		Category:    in.Category,
		Area:        in.Area,
		LogoURL:     in.LogoURL,
		Timezone:    in.Timezone,
		IsActive:    in.IsActive,
	}
	b.nextID++
	b.channels = append(b.channels, c)
	return c
}

func (b *fakeBackend) requestCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.requests)
}

func (b *fakeBackend) lastAuth() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.auth) == 0 {
		return ""
	}
	return b.auth[len(b.auth)-1]
}

type cliFixture struct {
	backend *fakeBackend
	store   *tu.MemoryStorage
	output  *bytes.Buffer
	runner  *Runner
}

func newCLIFixture(t *testing.T, loggedIn bool) *cliFixture {
	t.Helper()

	backend := newFakeBackend()
	server := httptest.NewServer(backend.handler())
	t.Cleanup(server.Close)

	store := tu.NewMemoryStorage()
	if loggedIn {
		seed := `{"token":"tok-admin","user":{"id":7,"username":"admin","role":"admin"}}`
		if err := store.SetItem(storage.AuthKey, seed); err != nil {
			t.Fatalf("failed to seed session: %v", err)
		}
	}

	config := shared.DefaultConfig()
	config.API.BaseURL = server.URL
	config.API.RequestsPerSecond = 0
	config.Display.Timezone = "Asia/Shanghai"

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config:  config,
		Storage: store,
		Output:  output,
		Logger:  shared.NewLogger(&bytes.Buffer{}),
	})

	return &cliFixture{backend: backend, store: store, output: output, runner: runner}
}

func (f *cliFixture) run(args ...string) error {
	app := &cli.Command{Name: "epgctl", Commands: f.runner.register()}
	return app.Run(context.Background(), append([]string{"epgctl"}, args...))
}

func (f *cliFixture) syncLog(t *testing.T) []models.SyncLogEntry {
	t.Helper()
	var entries []models.SyncLogEntry
	if err := storage.LoadJSON(f.store, storage.SyncLogsKey, &entries); err != nil {
		t.Fatalf("failed to read sync log: %v", err)
	}
	return entries
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			client := services.NewClient(services.Options{})
			store := tu.NewMemoryStorage()

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Client:     client,
				Storage:    store,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.client != client {
				t.Error("expected client to be set")
			}
			if runner.store != store {
				t.Error("expected storage to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.client == nil {
				t.Error("expected a client built from the config")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{HTTPClient: nil})

			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})

		t.Run("uses configured timezone", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Display.Timezone = "Asia/Shanghai"
			runner := NewRunner(RunnerOpts{Config: config})

			if runner.timezone != "Asia/Shanghai" {
				t.Errorf("expected Asia/Shanghai, got %s", runner.timezone)
			}
			if runner.location.String() != "Asia/Shanghai" {
				t.Errorf("expected location Asia/Shanghai, got %s", runner.location)
			}
		})

		t.Run("skips an unknown timezone", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Display.Timezone = "Mars/Olympus"
			runner := NewRunner(RunnerOpts{Config: config})

			if runner.timezone == "Mars/Olympus" {
				t.Error("expected the unknown zone to be skipped")
			}
			if _, err := time.LoadLocation(runner.timezone); err != nil {
				t.Errorf("expected a loadable zone, got %s", runner.timezone)
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: "/test/path/config.toml"})

			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			if err := runner.writeJSON(make(chan int), false); err == nil {
				t.Fatal("expected error for non-serializable data")
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := make(map[string]bool)
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}

		for _, want := range []string{"setup", "auth", "channels", "mappings", "programs", "sync", "export", "api", "storage", "tui"} {
			if !names[want] {
				t.Errorf("expected %s command to be registered", want)
			}
		}
	})
}

func TestAuthCommands(t *testing.T) {
	t.Run("login validates before any network call", func(t *testing.T) {
		f := newCLIFixture(t, false)

		err := f.run("auth", "login", "-u", "admin")
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
		if n := f.backend.requestCount(); n != 0 {
			t.Errorf("expected no requests, got %d", n)
		}
	})

	t.Run("login stores the session and authorizes later requests", func(t *testing.T) {
		f := newCLIFixture(t, false)

		if err := f.run("auth", "login", "-u", "admin", "-p", "secret123"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(f.output.String(), "Logged in as admin") {
			t.Errorf("expected login confirmation, got %q", f.output.String())
		}

		raw, err := f.store.GetItem(storage.AuthKey)
		if err != nil {
			t.Fatalf("expected persisted session, got %v", err)
		}
		if !strings.Contains(raw, `"token":"tok-admin"`) {
			t.Errorf("expected token in persisted session, got %s", raw)
		}

		if err := f.run("channels", "list"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := f.backend.lastAuth(); got != "Bearer tok-admin" {
			t.Errorf("expected bearer header, got %q", got)
		}
	})

	t.Run("login failure surfaces the server message", func(t *testing.T) {
		f := newCLIFixture(t, false)

		err := f.run("auth", "login", "-u", "admin", "-p", "wrong-password")
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Fatalf("expected ErrAuthFailed, got %v", err)
		}
		if !strings.Contains(err.Error(), "invalid username or password") {
			t.Errorf("expected server message, got %v", err)
		}
		if _, err := f.store.GetItem(storage.AuthKey); !errors.Is(err, shared.ErrKeyMissing) {
			t.Errorf("expected nothing persisted, got %v", err)
		}
	})

	t.Run("commands require a session", func(t *testing.T) {
		f := newCLIFixture(t, false)

		err := f.run("channels", "list")
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Fatalf("expected ErrNotAuthenticated, got %v", err)
		}
		if n := f.backend.requestCount(); n != 0 {
			t.Errorf("expected no requests, got %d", n)
		}
	})

	t.Run("whoami reads the stored session", func(t *testing.T) {
		f := newCLIFixture(t, true)

		if err := f.run("auth", "whoami", "--format", "json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var user models.User
		if err := json.Unmarshal(f.output.Bytes(), &user); err != nil {
			t.Fatalf("expected JSON output, got %q", f.output.String())
		}
		if user.Username != "admin" {
			t.Errorf("expected admin, got %s", user.Username)
		}
		if n := f.backend.requestCount(); n != 0 {
			t.Errorf("expected no requests without --remote, got %d", n)
		}
	})

	t.Run("whoami --remote asks the backend", func(t *testing.T) {
		f := newCLIFixture(t, true)

		if err := f.run("auth", "whoami", "--remote"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(f.output.String(), "remote-admin") {
			t.Errorf("expected remote user, got %q", f.output.String())
		}
	})

	t.Run("logout clears the session", func(t *testing.T) {
		f := newCLIFixture(t, true)

		if err := f.run("auth", "logout"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		raw, _ := f.store.GetItem(storage.AuthKey)
		if strings.Contains(raw, "tok-admin") {
			t.Errorf("expected token to be cleared, got %s", raw)
		}
		if n := f.backend.requestCount(); n != 0 {
			t.Errorf("expected logout to make no requests, got %d", n)
		}
	})

	t.Run("passwd rejects a short password locally", func(t *testing.T) {
		f := newCLIFixture(t, true)

		err := f.run("auth", "passwd", "--old", "secret123", "--new", "short", "--confirm", "short")
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
		if n := f.backend.requestCount(); n != 0 {
			t.Errorf("expected no requests, got %d", n)
		}
	})
}

func TestChannelCommands(t *testing.T) {
	t.Run("create reloads the list and finds the new channel", func(t *testing.T) {
		f := newCLIFixture(t, true)

		err := f.run("channels", "create", "--name", "CCTV-1", "--category", "news", "cctv1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !strings.Contains(f.output.String(), "Channel cctv1 created") {
			t.Errorf("expected confirmation, got %q", f.output.String())
		}
		if !strings.Contains(f.output.String(), "2 channels total") {
			t.Errorf("expected reloaded count, got %q", f.output.String())
		}

		f.backend.mu.Lock()
		requests := strings.Join(f.backend.requests, "\n")
		f.backend.mu.Unlock()
		if !strings.Contains(requests, "POST /admin/channels\nGET /admin/channels") {
			t.Errorf("expected create then reload, got\n%s", requests)
		}
	})

	t.Run("create validates before any network call", func(t *testing.T) {
		f := newCLIFixture(t, true)

		err := f.run("channels", "create", "cctv1")
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
		if n := f.backend.requestCount(); n != 0 {
			t.Errorf("expected no requests, got %d", n)
		}
	})

	t.Run("update only changes the given fields", func(t *testing.T) {
		f := newCLIFixture(t, true)

		if err := f.run("channels", "update", "--name", "CCTV-13", "cctv13"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		f.backend.mu.Lock()
		defer f.backend.mu.Unlock()
		if len(f.backend.updates) != 1 {
			t.Fatalf("expected one update, got %d", len(f.backend.updates))
		}
		in := f.backend.updates[0]
		if in.DisplayName != "CCTV-13" {
			t.Errorf("expected new name, got %s", in.DisplayName)
		}
		if in.Category != "news" || in.ID != 1 || !in.IsActive.Bool() {
			t.Errorf("expected untouched fields to be kept, got %+v", in)
		}
	})

	t.Run("update of an unknown channel", func(t *testing.T) {
		f := newCLIFixture(t, true)

		err := f.run("channels", "update", "--name", "x", "nope")
		if !errors.Is(err, shared.ErrChannelNotFound) {
			t.Fatalf("expected ErrChannelNotFound, got %v", err)
		}
	})

	t.Run("delete needs --yes", func(t *testing.T) {
		f := newCLIFixture(t, true)

		err := f.run("channels", "delete", "cctv13")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Fatalf("expected ErrMissingArgument, got %v", err)
		}
		if n := f.backend.requestCount(); n != 0 {
			t.Errorf("expected no requests, got %d", n)
		}

		if err := f.run("channels", "delete", "--yes", "cctv13"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		f.backend.mu.Lock()
		defer f.backend.mu.Unlock()
		if len(f.backend.channels) != 0 {
			t.Errorf("expected channel to be deleted, got %v", f.backend.channels)
		}
	})

	t.Run("import creates every line", func(t *testing.T) {
		f := newCLIFixture(t, true)

		path := filepath.Join(t.TempDir(), "channels.txt")
		content := "cctv1,CCTV-1,news\n\ncctv5,CCTV-5,sports,CN,,Asia/Shanghai\n"
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write batch file: %v", err)
		}

		if err := f.run("channels", "import", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(f.output.String(), "Imported 2 channels") {
			t.Errorf("expected import count, got %q", f.output.String())
		}
		if !strings.Contains(f.output.String(), "3 channels total") {
			t.Errorf("expected reloaded count, got %q", f.output.String())
		}
	})

	t.Run("import rejects a line without a name", func(t *testing.T) {
		f := newCLIFixture(t, true)

		path := filepath.Join(t.TempDir(), "channels.txt")
		if err := os.WriteFile(path, []byte("cctv1,CCTV-1\ncctv2\n"), 0644); err != nil {
			t.Fatalf("failed to write batch file: %v", err)
		}

		err := f.run("channels", "import", path)
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
		if n := f.backend.requestCount(); n != 0 {
			t.Errorf("expected no requests, got %d", n)
		}
	})

	t.Run("list as csv", func(t *testing.T) {
		f := newCLIFixture(t, true)

		if err := f.run("channels", "list", "--format", "csv"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(f.output.String(), "cctv13,CCTV-13 News,news,CN,,Asia/Shanghai") {
			t.Errorf("expected batch line, got %q", f.output.String())
		}
	})
}

func TestMappingCommands(t *testing.T) {
	t.Run("search filters locally", func(t *testing.T) {
		f := newCLIFixture(t, true)

		if err := f.run("mappings", "list", "--search", "CCTV", "--format", "json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var mappings []models.ChannelMapping
		if err := json.Unmarshal(f.output.Bytes(), &mappings); err != nil {
			t.Fatalf("expected JSON output, got %q", f.output.String())
		}
		if len(mappings) != 2 {
			t.Errorf("expected 2 mappings, got %d", len(mappings))
		}
	})

	t.Run("provider filter", func(t *testing.T) {
		f := newCLIFixture(t, true)

		if err := f.run("mappings", "list", "--provider", "epg51"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(f.output.String(), "1 of 3 mappings") {
			t.Errorf("expected filtered count, got %q", f.output.String())
		}
	})

	t.Run("absent text yields an empty list", func(t *testing.T) {
		f := newCLIFixture(t, true)

		if err := f.run("mappings", "list", "--search", "bbc"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(f.output.String(), "0 of 3 mappings") {
			t.Errorf("expected empty result, got %q", f.output.String())
		}
	})

	t.Run("providers", func(t *testing.T) {
		f := newCLIFixture(t, true)

		if err := f.run("mappings", "providers"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		out := f.output.String()
		if !strings.Contains(out, "tvmao") || !strings.Contains(out, "epg51") {
			t.Errorf("expected both providers, got %q", out)
		}
	})
}

func TestProgramCommands(t *testing.T) {
	t.Run("search sends paging, date and timezone", func(t *testing.T) {
		f := newCLIFixture(t, true)

		err := f.run("programs", "search", "--channel", "cctv1", "--date", "2024-05-01", "--page-size", "50")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		f.backend.mu.Lock()
		query := f.backend.queries[0]
		f.backend.mu.Unlock()
		for _, want := range []string{"page=1", "page_size=50", "channel_id=cctv1", "date=2024-05-01", "timezone=Asia%2FShanghai"} {
			if !strings.Contains(query, want) {
				t.Errorf("expected %s in %s", want, query)
			}
		}
		if !strings.Contains(f.output.String(), "Page 1 of 3 (120 programs)") {
			t.Errorf("expected page footer, got %q", f.output.String())
		}
	})

	t.Run("all channels omits channel_id", func(t *testing.T) {
		f := newCLIFixture(t, true)

		if err := f.run("programs", "search", "--page", "2"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		f.backend.mu.Lock()
		query := f.backend.queries[0]
		f.backend.mu.Unlock()
		if strings.Contains(query, "channel_id") {
			t.Errorf("expected no channel_id, got %s", query)
		}
		if !strings.Contains(query, "page=2") {
			t.Errorf("expected page=2, got %s", query)
		}
	})

	t.Run("malformed date fails before any request", func(t *testing.T) {
		f := newCLIFixture(t, true)

		err := f.run("programs", "search", "--date", "05/01/2024")
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
		if n := f.backend.requestCount(); n != 0 {
			t.Errorf("expected no requests, got %d", n)
		}
	})
}

func TestSyncCommands(t *testing.T) {
	t.Run("channel sync is recorded with the display name", func(t *testing.T) {
		f := newCLIFixture(t, true)

		if err := f.run("sync", "channel", "--date", "2024-05-01", "cctv13"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		entries := f.syncLog(t)
		if len(entries) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(entries))
		}
		if entries[0].ChannelName != "CCTV-13 News" || entries[0].Status != models.SyncSuccess {
			t.Errorf("unexpected entry %+v", entries[0])
		}
		if entries[0].Message != "Synced 42 programs" {
			t.Errorf("expected server message, got %q", entries[0].Message)
		}
	})

	t.Run("failed sync is recorded and returned", func(t *testing.T) {
		f := newCLIFixture(t, true)
		f.backend.failSync["cctv13"] = "provider timeout"

		err := f.run("sync", "channel", "cctv13")
		if err == nil || !strings.Contains(err.Error(), "provider timeout") {
			t.Fatalf("expected provider timeout error, got %v", err)
		}

		entries := f.syncLog(t)
		if len(entries) != 1 || entries[0].Status != models.SyncFailed {
			t.Fatalf("expected one failed entry, got %+v", entries)
		}
	})

	t.Run("several channels", func(t *testing.T) {
		f := newCLIFixture(t, true)
		f.backend.failSync["cctv5"] = "no provider"

		err := f.run("sync", "channel", "--rate", "100", "cctv13", "cctv5", "cctv1")
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected ErrAPIRequest for the failed channel, got %v", err)
		}
		if !strings.Contains(f.output.String(), "3 channels: 2 succeeded, 1 failed") {
			t.Errorf("expected summary, got %q", f.output.String())
		}
		if n := len(f.syncLog(t)); n != 3 {
			t.Errorf("expected 3 entries, got %d", n)
		}
	})

	t.Run("date conflicts with a range", func(t *testing.T) {
		f := newCLIFixture(t, true)

		err := f.run("sync", "channel", "--date", "2024-05-01", "--start", "2024-05-01", "cctv13")
		if !errors.Is(err, shared.ErrInvalidFlag) {
			t.Fatalf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("all uses a generic message for a bare success", func(t *testing.T) {
		f := newCLIFixture(t, true)

		if err := f.run("sync", "all", "--force"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		entries := f.syncLog(t)
		if len(entries) != 1 || entries[0].ChannelID != models.AllChannelsID {
			t.Fatalf("expected one full-sync entry, got %+v", entries)
		}
		if entries[0].Message == "success" {
			t.Error("expected the bare success to be replaced")
		}
	})

	t.Run("logs prints the history with a summary", func(t *testing.T) {
		f := newCLIFixture(t, true)
		f.backend.failSync["cctv5"] = "no provider"

		f.run("sync", "channel", "cctv13")
		f.run("sync", "channel", "cctv5")
		f.output.Reset()

		if err := f.run("sync", "logs"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(f.output.String(), "2 total, 1 succeeded, 1 failed") {
			t.Errorf("expected summary, got %q", f.output.String())
		}
	})
}

func TestStorageAndExportCommands(t *testing.T) {
	t.Run("keys lists the session key", func(t *testing.T) {
		f := newCLIFixture(t, true)

		if err := f.run("storage", "keys"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(f.output.String(), storage.AuthKey) {
			t.Errorf("expected %s, got %q", storage.AuthKey, f.output.String())
		}
	})

	t.Run("get masks the token", func(t *testing.T) {
		f := newCLIFixture(t, true)
		f.store.SetItem(storage.AuthKey, `{"token":"abcdefghijkl","user":{"id":7,"username":"admin","role":"admin"}}`)

		if err := f.run("storage", "get", storage.AuthKey); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if strings.Contains(f.output.String(), "abcdefghijkl") {
			t.Errorf("expected masked token, got %q", f.output.String())
		}
	})

	t.Run("remove of a missing key", func(t *testing.T) {
		f := newCLIFixture(t, false)

		err := f.run("storage", "remove", "nope")
		if !errors.Is(err, shared.ErrKeyMissing) {
			t.Fatalf("expected ErrKeyMissing, got %v", err)
		}
	})

	t.Run("diyp", func(t *testing.T) {
		f := newCLIFixture(t, false)

		if err := f.run("export", "diyp", "--channel", "CCTV1", "--date", "2024-05-01"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		out := f.output.String()
		if !strings.Contains(out, "CCTV1") || !strings.Contains(out, "Morning News") {
			t.Errorf("expected schedule, got %q", out)
		}
	})
}
