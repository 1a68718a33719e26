package httpserver

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PratikDhanave/gamedata-server/internal/config"
	"github.com/PratikDhanave/gamedata-server/internal/models"
	"github.com/PratikDhanave/gamedata-server/internal/pipeline"
	"github.com/PratikDhanave/gamedata-server/internal/store/memstore"
)

func seeded() *memstore.Store {
	st := memstore.New()
	g := st.AddGame(models.Game{Code: "g1"})
	o := st.AddOrganization(models.Organization{Code: "tud"})
	v := st.AddGameVersion(models.GameVersion{GameID: g.ID, Code: "v1"})
	st.AddOrganizationGame(models.OrganizationGame{OrganizationID: o.ID, GameID: g.ID, AnonymousSessions: true})
	st.AddGameMission(models.GameMission{GameVersionID: v.ID, Code: "m1"})
	return st
}

func newServer(t *testing.T, open pipeline.OpenFunc) (*httptest.Server, *pipeline.Pipeline) {
	t.Helper()
	p := pipeline.New(open, pipeline.WithLogger(log.New(io.Discard, "", 0)))
	_ = p.StartProcessing(context.Background())
	t.Cleanup(p.StopProcessing)

	cfg := config.Config{AdminKeys: map[string]string{"ops": "admin-key"}}
	srv := httptest.NewServer(NewRouter(cfg, p))
	t.Cleanup(srv.Close)
	return srv, p
}

func do(t *testing.T, method, url, contentType, body string, header ...string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp, string(b)
}

func TestStoreEndToEnd(t *testing.T) {
	st := seeded()
	srv, p := newServer(t, func(context.Context) (pipeline.Backend, error) {
		return pipeline.Backend{Repo: st, Errors: st, Ping: st.Ping}, nil
	})

	resp, body := do(t, http.MethodGet, srv.URL+"/ready", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ready: %d %s", resp.StatusCode, body)
	}

	payload := `{"data":"mission_event","game_session_code":"s1","game_code":"g1",
		"game_version_code":"v1","organization_code":"tud","game_mission":"m1","key":"k","value":"v"}`
	resp, body = do(t, http.MethodPost, srv.URL+"/store", "application/json", payload)
	if resp.StatusCode != http.StatusAccepted || !strings.Contains(body, `"accepted"`) {
		t.Fatalf("store: %d %s", resp.StatusCode, body)
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(st.Records()) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if len(st.Records()) != 1 {
		t.Fatalf("record not stored; stats %+v, recent %+v", p.Stats(), p.Recent())
	}

	resp, _ = do(t, http.MethodGet, srv.URL+"/store", "", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("GET without query should be 400, got %d", resp.StatusCode)
	}
}

func TestAdminStatusRequiresKey(t *testing.T) {
	srv, _ := newServer(t, func(context.Context) (pipeline.Backend, error) {
		return pipeline.Backend{Repo: seeded()}, nil
	})

	resp, _ := do(t, http.MethodGet, srv.URL+"/admin/status", "", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	resp, body := do(t, http.MethodGet, srv.URL+"/admin/status", "", "", "X-API-Key", "admin-key")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, `"state":"running"`) || !strings.Contains(body, `"operator":"ops"`) {
		t.Fatalf("status: %d %s", resp.StatusCode, body)
	}
}

func TestNotReadyOnStartupError(t *testing.T) {
	srv, _ := newServer(t, func(context.Context) (pipeline.Backend, error) {
		return pipeline.Backend{}, errors.New("database credentials missing")
	})

	resp, body := do(t, http.MethodGet, srv.URL+"/ready", "", "")
	if resp.StatusCode != http.StatusServiceUnavailable || !strings.Contains(body, "credentials missing") {
		t.Fatalf("ready: %d %s", resp.StatusCode, body)
	}
	resp, _ = do(t, http.MethodGet, srv.URL+"/health", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health should not depend on the worker, got %d", resp.StatusCode)
	}
	// intake keeps accepting while the worker is down
	resp, _ = do(t, http.MethodGet, srv.URL+"/store?data=mission_event", "", "")
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("store: %d", resp.StatusCode)
	}
}
