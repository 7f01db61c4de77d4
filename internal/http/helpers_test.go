package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"

	"pricewatch/internal/config"
	"pricewatch/internal/http/handlers"
	applog "pricewatch/internal/log"
	"pricewatch/internal/repos"
)

func testConfig() config.Config {
	return config.Config{
		DBDSN:             ":memory:",
		StorageTimeout:    time.Second,
		AlternatePriority: []string{"Amazon", "Flipkart"},
		IdentityHeader:    "X-User-ID",
		RateLimit:         100,
		WriteRateLimit:    100,
	}
}

// newTestApp serves the real routes over a seeded in-memory database.
func newTestApp(t *testing.T, mutate func(*config.Config)) (*fiber.App, *sqlx.DB) {
	t.Helper()
	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := repos.SeedDemo(context.Background(), db, time.Now()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return handlers.NewApp(db, cfg), db
}

type apiResponse struct {
	Status int
	Body   map[string]any
	Raw    string
}

func call(t *testing.T, app *fiber.App, method, path, user string, payload any) apiResponse {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	raw, _ := io.ReadAll(resp.Body)
	out := apiResponse{Status: resp.StatusCode, Raw: string(raw)}
	_ = json.Unmarshal(raw, &out.Body)
	return out
}

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	Status int            `json:"status"`
	UserID string         `json:"user_id"`
	ReqID  string         `json:"req_id"`
	Err    string         `json:"err"`
	Fields map[string]any `json:"fields"`
}

type lockedBuf struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	buf := &lockedBuf{}
	applog.SetOutput(buf)
	defer applog.SetOutput(io.Discard)

	fn()

	buf.mu.Lock()
	defer buf.mu.Unlock()
	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.b.String()), "\n") {
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func findAction(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}

func sideOf(t *testing.T, item any, key string) map[string]any {
	t.Helper()
	m, ok := item.(map[string]any)
	if !ok {
		t.Fatalf("item is %T", item)
	}
	s, _ := m[key].(map[string]any)
	return s
}
