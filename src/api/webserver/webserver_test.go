package webserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stake-plus/link-curator/src/api/config"
	"github.com/stake-plus/link-curator/src/shared/store"
	"github.com/stake-plus/link-curator/src/shared/types"
)

func testConfig() config.Config {
	return config.Config{
		JWTSecret:    "test-jwt-secret",
		AdminSecret:  "test-admin-secret",
		AllowOrigins: []string{"http://localhost:3000"},
	}
}

type fixture struct {
	router      *gin.Engine
	channels    *store.MemoryChannels
	submissions *store.MemorySubmissions
	ledger      *store.MemoryLedger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &fixture{
		channels:    store.NewMemoryChannels(),
		submissions: store.NewMemorySubmissions(),
		ledger:      store.NewMemoryLedger(),
	}
	f.router = New(testConfig(), f.channels, f.submissions, f.ledger)

	ctx := context.Background()
	cfg := types.ChannelConfig{AwardedRoleID: "role-1", VotingThreshold: 2}
	if err := f.channels.Upsert(ctx, "chan-1", "guild-1", cfg); err != nil {
		t.Fatalf("upsert channel: %v", err)
	}
	return f
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) login(t *testing.T) string {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/admin/login", "", gin.H{"secret": "test-admin-secret"})
	if w.Code != http.StatusOK {
		t.Fatalf("login = %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("empty token")
	}
	return resp.Token
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/healthz", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("healthz = %d", w.Code)
	}
}

func TestListChannels(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/api/channels", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("channels = %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Channels []channelView `json:"channels"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Channels) != 1 || resp.Channels[0].ChannelID != "chan-1" {
		t.Fatalf("channels = %+v", resp.Channels)
	}
	if resp.Channels[0].Config.VotingThreshold != 2 {
		t.Fatalf("config = %+v", resp.Channels[0].Config)
	}
}

func TestListSubmissionsFiltered(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	settings, err := f.channels.Get(ctx, "chan-1")
	if err != nil {
		t.Fatalf("get channel: %v", err)
	}

	subs := []*types.Submission{
		{Link: "https://example.com/a", ChannelSettingsID: settings.ID, Type: types.TypeYouTube, UserID: "u1", IsCandidate: true, BotMessageID: "m1"},
		{Link: "https://example.com/b", ChannelSettingsID: settings.ID, Type: types.TypeTweet, UserID: "u1", IsCandidate: false, BotMessageID: "m2"},
	}
	for _, sub := range subs {
		if _, err := f.submissions.Upsert(ctx, sub); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	w := f.do(t, http.MethodGet, "/api/channels/chan-1/submissions?candidate=true", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("submissions = %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Submissions []submissionView `json:"submissions"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Submissions) != 1 || resp.Submissions[0].Link != "https://example.com/a" {
		t.Fatalf("submissions = %+v", resp.Submissions)
	}

	w = f.do(t, http.MethodGet, "/api/channels/chan-1/submissions?candidate=maybe", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad candidate = %d", w.Code)
	}

	w = f.do(t, http.MethodGet, "/api/channels/unknown/submissions", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown channel = %d", w.Code)
	}
}

func TestLoginRejectsWrongSecret(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPost, "/api/admin/login", "", gin.H{"secret": "nope"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("login = %d", w.Code)
	}
}

func TestAdminRequiresToken(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodDelete, "/api/admin/submissions/1", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no token = %d", w.Code)
	}
	w = f.do(t, http.MethodDelete, "/api/admin/submissions/1", "garbage", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token = %d", w.Code)
	}
}

func TestAdminDeleteSubmission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	settings, err := f.channels.Get(ctx, "chan-1")
	if err != nil {
		t.Fatalf("get channel: %v", err)
	}
	sub := &types.Submission{
		Link:              "https://example.com/a",
		ChannelSettingsID: settings.ID,
		UserID:            "u1",
		IsCandidate:       true,
		BotMessageID:      "msg-1",
	}
	if _, err := f.submissions.Upsert(ctx, sub); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := f.ledger.CastBallot(ctx, "msg-1", "voter-1", store.KindVote, true); err != nil {
		t.Fatalf("cast: %v", err)
	}

	token := f.login(t)
	w := f.do(t, http.MethodDelete, "/api/admin/submissions/1", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete = %d: %s", w.Code, w.Body.String())
	}

	if _, err := f.submissions.ByMessageID(ctx, "msg-1"); err != store.ErrNotFound {
		t.Fatalf("row survived: %v", err)
	}
	tally, err := f.ledger.Tally(ctx, "msg-1", store.KindVote)
	if err != nil {
		t.Fatalf("tally: %v", err)
	}
	if tally.InFavor != 0 {
		t.Fatalf("ballots not purged: %+v", tally)
	}

	w = f.do(t, http.MethodDelete, "/api/admin/submissions/999", token, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing row = %d", w.Code)
	}
}

func TestAdminDisableChannel(t *testing.T) {
	f := newFixture(t)
	token := f.login(t)

	w := f.do(t, http.MethodPost, "/api/admin/channels/chan-1/disable", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("disable = %d: %s", w.Code, w.Body.String())
	}
	if _, err := f.channels.Get(context.Background(), "chan-1"); err != store.ErrNotFound {
		t.Fatalf("channel still visible: %v", err)
	}

	w = f.do(t, http.MethodPost, "/api/admin/channels/chan-1/disable", token, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("second disable = %d", w.Code)
	}
}
