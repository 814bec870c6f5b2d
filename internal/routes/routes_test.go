package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"scf-community/governor/internal/api"
	"scf-community/governor/internal/auth"
	"scf-community/governor/internal/common"
	"scf-community/governor/internal/constants"
	"scf-community/governor/internal/ladder"
	"scf-community/governor/internal/metrics"
	"scf-community/governor/internal/models/dtos/responses"
	"scf-community/governor/internal/services"

	"github.com/prometheus/client_golang/prometheus"
)

type mockRoles struct {
	grantRoleFunc func(ctx context.Context, guildID, memberID, roleName string) (*services.PromotionResult, error)
}

func (m *mockRoles) GrantRole(ctx context.Context, guildID, memberID, roleName string) (*services.PromotionResult, error) {
	return m.grantRoleFunc(ctx, guildID, memberID, roleName)
}

type mockVotes struct {
	listActiveFunc func(ctx context.Context, guildID string) ([]services.ActiveGroup, error)
}

func (m *mockVotes) ListActive(ctx context.Context, guildID string) ([]services.ActiveGroup, error) {
	return m.listActiveFunc(ctx, guildID)
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

func newTestServer(t *testing.T, roles *mockRoles, votes *mockVotes) (*httptest.Server, *common.AdminTokenSigner) {
	t.Helper()

	cache := common.NewCacheService(time.Minute, time.Minute)
	t.Cleanup(func() { _ = cache.Close() })
	signer := common.NewAdminTokenSigner([]byte("token-key"), common.NewMemoryTokenBurner(cache))

	deps := &api.Dependencies{
		Roles:    roles,
		Votes:    votes,
		Tokens:   signer,
		Authn:    auth.NewAuthenticator("s3cret", nil, signer),
		TokenTTL: 5 * time.Minute,
		Health: map[string]api.Pinger{
			"postgres": pingerFunc(func(context.Context) error { return nil }),
		},
	}

	promReg := prometheus.NewRegistry()
	handler := RegisterRoutes(deps, RouterOptions{
		Metrics:  metrics.NewMetricsRegistry(promReg),
		Gatherer: promReg,
		UpSince:  time.Now(),
	})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, signer
}

func postJSON(t *testing.T, url string, body any, header map[string]string) *http.Response {
	t.Helper()
	raw, _ := json.Marshal(body)
	req, _ := http.NewRequest(http.MethodPost, url, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestGrantRole_AuthAndOutcomes(t *testing.T) {
	roles := &mockRoles{grantRoleFunc: func(_ context.Context, guildID, memberID, roleName string) (*services.PromotionResult, error) {
		switch memberID {
		case "pilot":
			return nil, fmt.Errorf("%w: member holds SCF Pilot", constants.ErrAlreadyAtTarget)
		case "ghost":
			return nil, constants.ErrMemberNotFound
		case "flaky":
			return nil, constants.ErrGatewayUnavailable
		}
		return &services.PromotionResult{Target: ladder.Navigator, Revoked: []ladder.Tier{ladder.Pathfinder}}, nil
	}}
	srv, signer := newTestServer(t, roles, &mockVotes{})
	url := srv.URL + "/api/v1/admin/roles/grant"

	token, _, _ := signer.Issue("ops", time.Minute)

	cases := []struct {
		name   string
		userID string
		auth   string
		want   int
	}{
		{"shared secret", "alice", "s3cret", http.StatusOK},
		{"signed token", "alice", token, http.StatusOK},
		{"signed token reused", "alice", token, http.StatusUnauthorized},
		{"bad secret", "alice", "wrong", http.StatusUnauthorized},
		{"already higher", "pilot", "s3cret", http.StatusConflict},
		{"unknown member", "ghost", "s3cret", http.StatusNotFound},
		{"gateway down", "flaky", "s3cret", http.StatusBadGateway},
		{"missing user", "", "s3cret", http.StatusBadRequest},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			resp := postJSON(t, url, map[string]string{
				"guildId": "guild-1", "userId": c.userID, "roleName": "SCF Navigator", "auth": c.auth,
			}, nil)
			if resp.StatusCode != c.want {
				t.Errorf("Expected %d, got %d", c.want, resp.StatusCode)
			}
		})
	}
}

func TestGrantRole_ResponseBody(t *testing.T) {
	roles := &mockRoles{grantRoleFunc: func(context.Context, string, string, string) (*services.PromotionResult, error) {
		return &services.PromotionResult{Target: ladder.Navigator, Revoked: []ladder.Tier{ladder.Pathfinder}}, nil
	}}
	srv, _ := newTestServer(t, roles, &mockVotes{})

	resp := postJSON(t, srv.URL+"/api/v1/admin/roles/grant", map[string]string{
		"guildId": "guild-1", "userId": "alice", "roleName": "SCF Navigator", "auth": "s3cret",
	}, nil)

	var body responses.APIResponse[responses.GrantRoleResponse]
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if body.Status != "success" || body.Data == nil || len(body.Data.Revoked) != 1 || body.Data.Revoked[0] != "pathfinder" {
		t.Errorf("Unexpected body %+v", body)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("Expected a request id header")
	}
}

func TestIssueAdminToken_RequiresSharedSecret(t *testing.T) {
	srv, _ := newTestServer(t, &mockRoles{}, &mockVotes{})
	url := srv.URL + "/api/v1/admin/tokens"

	resp := postJSON(t, url, map[string]string{"subject": "ops"}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected 401 without secret, got %d", resp.StatusCode)
	}

	resp = postJSON(t, url, map[string]string{"subject": "ops", "ttl": "48h"}, map[string]string{"Authorization": "Bearer s3cret"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for an oversized ttl, got %d", resp.StatusCode)
	}

	resp = postJSON(t, url, map[string]string{"subject": "ops"}, map[string]string{"Authorization": "Bearer s3cret"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", resp.StatusCode)
	}
	var body responses.APIResponse[responses.AdminTokenResponse]
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if body.Data == nil || strings.Count(body.Data.Token, ".") != 2 || body.Data.Subject != "ops" {
		t.Errorf("Unexpected token response %+v", body.Data)
	}
}

func TestListActiveVotes(t *testing.T) {
	votes := &mockVotes{listActiveFunc: func(_ context.Context, guildID string) ([]services.ActiveGroup, error) {
		if guildID == "broken" {
			return nil, errors.New("db down")
		}
		return []services.ActiveGroup{{
			Tier:     ladder.Navigator,
			RoleName: "SCF Navigator",
			Sessions: []services.ActiveSession{{ThreadID: "thread-1", NomineeID: "alice", VoteCount: 2, Quorum: 5}},
		}}, nil
	}}
	srv, _ := newTestServer(t, &mockRoles{}, votes)

	get := func(query, credential string) *http.Response {
		req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/votes/active"+query, nil)
		if credential != "" {
			req.Header.Set("X-API-Key", credential)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		t.Cleanup(func() { _ = resp.Body.Close() })
		return resp
	}

	if resp := get("?guildId=guild-1", ""); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", resp.StatusCode)
	}
	if resp := get("", "s3cret"); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 without guildId, got %d", resp.StatusCode)
	}
	if resp := get("?guildId=broken", "s3cret"); resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", resp.StatusCode)
	}

	resp := get("?guildId=guild-1", "s3cret")
	var body responses.APIResponse[[]responses.ActiveVoteGroup]
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if body.Data == nil || len(*body.Data) != 1 || (*body.Data)[0].Tier != "navigator" || len((*body.Data)[0].Votes) != 1 {
		t.Errorf("Unexpected body %+v", body.Data)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t, &mockRoles{}, &mockVotes{})

	resp, err := http.Get(srv.URL + "/healthCheck")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}

	mresp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer mresp.Body.Close()
	buf := new(bytes.Buffer)
	_, _ = buf.ReadFrom(mresp.Body)
	if !strings.Contains(buf.String(), "governor_http_requests_total") {
		t.Error("Expected HTTP metrics to be exported")
	}
}
