package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/flagforgelabs/flagforge/internal/clock"
	envdomain "github.com/flagforgelabs/flagforge/internal/environment/domain"
	envrepo "github.com/flagforgelabs/flagforge/internal/environment/repository"
	envservice "github.com/flagforgelabs/flagforge/internal/environment/service"
	featuredomain "github.com/flagforgelabs/flagforge/internal/feature/domain"
	featurerepo "github.com/flagforgelabs/flagforge/internal/feature/repository"
	featureservice "github.com/flagforgelabs/flagforge/internal/feature/service"
	"github.com/flagforgelabs/flagforge/internal/flagengine"
	"github.com/flagforgelabs/flagforge/internal/migration"
	orgrepo "github.com/flagforgelabs/flagforge/internal/organisation/repository"
	orgservice "github.com/flagforgelabs/flagforge/internal/organisation/service"
	projectdomain "github.com/flagforgelabs/flagforge/internal/project/domain"
	projectrepo "github.com/flagforgelabs/flagforge/internal/project/repository"
	projectservice "github.com/flagforgelabs/flagforge/internal/project/service"
	segmentdomain "github.com/flagforgelabs/flagforge/internal/segment/domain"
	segmentrepo "github.com/flagforgelabs/flagforge/internal/segment/repository"
	segmentservice "github.com/flagforgelabs/flagforge/internal/segment/service"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testHarness struct {
	engine     *gin.Engine
	env        *envdomain.Environment
	project    *projectdomain.Project
	featureSvc featuredomain.Service
	segmentSvc segmentdomain.Service
	envSvc     envdomain.Service
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, migration.Run(db))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()
	clk := clock.SystemClock{}

	orgRepo := orgrepo.Provide()
	projectRepo := projectrepo.Provide()
	environRepo := envrepo.Provide()
	featureRepo := featurerepo.Provide()
	segRepo := segmentrepo.Provide()

	orgSvc := orgservice.New(orgservice.ServiceParam{
		DB: db, Log: log, Node: node, Clock: clk, Repo: orgRepo,
	})
	projectSvc := projectservice.New(projectservice.ServiceParam{
		DB: db, Log: log, Node: node, Clock: clk, Repo: projectRepo, OrgRepo: orgRepo,
	})
	envSvc := envservice.New(envservice.ServiceParam{
		DB: db, Log: log, Node: node, Clock: clk, Repo: environRepo, FeatureRepo: featureRepo,
	})
	featureSvc := featureservice.New(featureservice.ServiceParam{
		DB: db, Log: log, Node: node, Clock: clk, Repo: featureRepo, EnvRepo: environRepo,
	})
	segmentSvc := segmentservice.New(segmentservice.ServiceParam{
		DB: db, Log: log, Node: node, Clock: clk, Repo: segRepo,
	})

	reg := prometheus.NewRegistry()
	engineSvc := flagengine.NewService(flagengine.ServiceParam{
		DB:          db,
		Log:         log,
		Cache:       flagengine.NewNoopCache(),
		Metrics:     flagengine.NewMetrics(reg),
		EnvSvc:      envSvc,
		EnvRepo:     environRepo,
		ProjectRepo: projectRepo,
		FeatureRepo: featureRepo,
		SegmentRepo: segRepo,
	})

	srv := NewServer(ServerParam{
		Log:        log,
		DB:         db,
		OrgSvc:     orgSvc,
		ProjectSvc: projectSvc,
		EnvSvc:     envSvc,
		FeatureSvc: featureSvc,
		SegmentSvc: segmentSvc,
		EngineSvc:  engineSvc,
	})

	ctx := context.Background()
	org, err := orgSvc.Create(ctx, "Acme")
	require.NoError(t, err)
	project, err := projectSvc.Create(ctx, projectdomain.CreateRequest{
		OrganisationID: org.ID, Name: "Website",
	})
	require.NoError(t, err)
	env, err := envSvc.Create(ctx, envdomain.CreateRequest{
		ProjectID: project.ID, Name: "production",
	})
	require.NoError(t, err)

	return &testHarness{
		engine:     NewEngine(srv, reg),
		env:        env,
		project:    project,
		featureSvc: featureSvc,
		segmentSvc: segmentSvc,
		envSvc:     envSvc,
	}
}

func (h *testHarness) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.engine.ServeHTTP(w, req)
	return w
}

func (h *testHarness) sdk(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	return h.do(t, method, path, body, map[string]string{"X-Environment-Key": h.env.APIKey})
}

func TestSDKRequiresEnvironmentKey(t *testing.T) {
	h := newTestHarness(t)

	w := h.do(t, http.MethodGet, "/api/v1/flags/", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = h.do(t, http.MethodGet, "/api/v1/flags/", nil, map[string]string{"X-Environment-Key": "env.bogus"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetFlagsReturnsEnvironmentDefaults(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	_, err := h.featureSvc.Create(ctx, featuredomain.CreateRequest{
		ProjectID:      h.project.ID,
		Name:           "checkout_redesign",
		Kind:           featuredomain.KindConfig,
		DefaultEnabled: true,
		InitialValue:   "blue",
	})
	require.NoError(t, err)

	w := h.sdk(t, http.MethodGet, "/api/v1/flags/", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []struct {
			Feature struct {
				Name string `json:"name"`
			} `json:"feature"`
			Enabled bool `json:"enabled"`
			Value   struct {
				Type string `json:"type"`
				Str  string `json:"string_value"`
			} `json:"value"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "checkout_redesign", resp.Data[0].Feature.Name)
	assert.True(t, resp.Data[0].Enabled)
	assert.Equal(t, "blue", resp.Data[0].Value.Str)
}

func TestGetFlagsSingleFeatureLookup(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	_, err := h.featureSvc.Create(ctx, featuredomain.CreateRequest{
		ProjectID: h.project.ID,
		Name:      "checkout_redesign",
		Kind:      featuredomain.KindFlag,
	})
	require.NoError(t, err)

	w := h.sdk(t, http.MethodGet, "/api/v1/flags/?feature=checkout_redesign", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = h.sdk(t, http.MethodGet, "/api/v1/flags/?feature=nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestIdentityFlagsApplySegmentOverride(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	feature, err := h.featureSvc.Create(ctx, featuredomain.CreateRequest{
		ProjectID:    h.project.ID,
		Name:         "pricing_banner",
		Kind:         featuredomain.KindConfig,
		InitialValue: "env",
	})
	require.NoError(t, err)

	segment, err := h.segmentSvc.Create(ctx, segmentdomain.CreateRequest{
		ProjectID: h.project.ID,
		Name:      "pro users",
		Rules: []segmentdomain.RuleInput{{
			Type: segmentdomain.RuleAll,
			Conditions: []segmentdomain.ConditionInput{{
				Operator: segmentdomain.OperatorEqual,
				Property: "plan",
				Value:    "pro",
			}},
		}},
	})
	require.NoError(t, err)

	enabled := true
	_, err = h.featureSvc.CreateFeatureSegment(ctx, featuredomain.FeatureSegmentRequest{
		FeatureID:     feature.ID,
		SegmentID:     segment.ID,
		EnvironmentID: h.env.ID,
		Enabled:       &enabled,
		Value:         "seg",
	})
	require.NoError(t, err)

	// Identity picks up the trait, then resolves into the segment.
	w := h.sdk(t, http.MethodPost, "/api/v1/traits/", map[string]any{
		"identifier": "user-1", "trait_key": "plan", "trait_value": "pro",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = h.sdk(t, http.MethodGet, "/api/v1/identities/?identifier=user-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Flags []struct {
				Enabled bool `json:"enabled"`
				Value   struct {
					Str string `json:"string_value"`
				} `json:"value"`
			} `json:"flags"`
			Traits []envdomain.Trait `json:"traits"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Flags, 1)
	assert.True(t, resp.Data.Flags[0].Enabled)
	assert.Equal(t, "seg", resp.Data.Flags[0].Value.Str)
	require.Len(t, resp.Data.Traits, 1)

	// An identity outside the segment keeps the default.
	w = h.sdk(t, http.MethodGet, "/api/v1/identities/?identifier=user-2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Flags, 1)
	assert.False(t, resp.Data.Flags[0].Enabled)
	assert.Equal(t, "env", resp.Data.Flags[0].Value.Str)
}

func TestTraitEndpoints(t *testing.T) {
	h := newTestHarness(t)

	w := h.sdk(t, http.MethodPost, "/api/v1/traits/increment-value/", map[string]any{
		"identifier": "user-1", "trait_key": "logins", "increment_by": 2,
	})
	require.Equal(t, http.StatusOK, w.Code)

	// Null value deletes.
	w = h.sdk(t, http.MethodPost, "/api/v1/traits/", map[string]any{
		"identifier": "user-1", "trait_key": "logins", "trait_value": nil,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"deleted":true`)

	// Bulk applies independently: the empty key fails, the rest land.
	w = h.sdk(t, http.MethodPut, "/api/v1/traits/bulk/", []map[string]any{
		{"identifier": "user-1", "trait_key": "plan", "trait_value": "pro"},
		{"identifier": "user-1", "trait_key": "", "trait_value": "x"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []struct {
			Key   string `json:"trait_key"`
			Error string `json:"error"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.Empty(t, resp.Data[0].Error)
	assert.NotEmpty(t, resp.Data[1].Error)
}

func TestAdminFeatureLifecycle(t *testing.T) {
	h := newTestHarness(t)

	w := h.do(t, http.MethodPost,
		fmt.Sprintf("/api/v1/admin/projects/%s/features", h.project.ID),
		map[string]any{"name": "new_nav", "kind": "FLAG"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var created struct {
		Data featuredomain.Feature `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	// Duplicate names are rejected case-insensitively.
	w = h.do(t, http.MethodPost,
		fmt.Sprintf("/api/v1/admin/projects/%s/features", h.project.ID),
		map[string]any{"name": "NEW_NAV", "kind": "FLAG"}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Flip the environment default and observe it via the SDK surface.
	w = h.do(t, http.MethodPut,
		fmt.Sprintf("/api/v1/admin/projects/%s/features/%s/state", h.project.ID, created.Data.ID),
		map[string]any{"environment_id": h.env.ID.String(), "enabled": true}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = h.sdk(t, http.MethodGet, "/api/v1/flags/?feature=new_nav", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"enabled":true`)

	w = h.do(t, http.MethodDelete,
		fmt.Sprintf("/api/v1/admin/projects/%s/features/%s", h.project.ID, created.Data.ID), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = h.sdk(t, http.MethodGet, "/api/v1/flags/?feature=new_nav", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminListIdentitiesPaginated(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		_, err := h.envSvc.GetOrCreateIdentity(ctx, h.env.ID, id)
		require.NoError(t, err)
	}

	w := h.do(t, http.MethodGet,
		fmt.Sprintf("/api/v1/admin/projects/%s/environments/%s/identities?page_size=2", h.project.ID, h.env.ID),
		nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data     []envdomain.Identity `json:"data"`
		PageInfo struct {
			HasMore       bool   `json:"has_more"`
			NextPageToken string `json:"next_page_token"`
		} `json:"page_info"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 2)
	assert.True(t, resp.PageInfo.HasMore)
}

func TestHealthEndpoints(t *testing.T) {
	h := newTestHarness(t)

	w := h.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = h.do(t, http.MethodGet, "/readyz", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = h.do(t, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
