package deals

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realtyflow/crm/internal/models"
	"github.com/realtyflow/crm/internal/tenancy"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeStore struct {
	deals   map[uuid.UUID]*models.Deal
	stages  map[uuid.UUID]*models.Stage
	updated *models.Deal
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		deals:  make(map[uuid.UUID]*models.Deal),
		stages: make(map[uuid.UUID]*models.Stage),
	}
}

func (s *fakeStore) CreatePipeline(_ context.Context, _ *models.Pipeline) error { return nil }

func (s *fakeStore) ListPipelines(_ context.Context, _ uuid.UUID) ([]models.Pipeline, error) {
	return nil, nil
}

func (s *fakeStore) CreateStage(_ context.Context, _ *models.Stage) error { return nil }

func (s *fakeStore) GetStage(_ context.Context, _, id uuid.UUID) (*models.Stage, error) {
	return s.stages[id], nil
}

func (s *fakeStore) ListStages(_ context.Context, _, _ uuid.UUID) ([]models.Stage, error) {
	return nil, nil
}

func (s *fakeStore) CreateDeal(_ context.Context, _ *models.Deal) error { return nil }

func (s *fakeStore) GetDeal(_ context.Context, _, id uuid.UUID) (*models.Deal, error) {
	return s.deals[id], nil
}

func (s *fakeStore) ListDeals(_ context.Context, _ uuid.UUID, _, _ *uuid.UUID) ([]models.Deal, error) {
	return nil, nil
}

func (s *fakeStore) UpdateDeal(_ context.Context, d *models.Deal) (bool, error) {
	s.updated = d
	existing := s.deals[d.ID]
	if existing == nil {
		return false, nil
	}
	existing.Title = d.Title
	existing.PropertyID = d.PropertyID
	existing.ContactID = d.ContactID
	existing.Value = d.Value
	existing.Probability = d.Probability
	existing.AssignedTo = d.AssignedTo
	existing.ExpectedCloseDate = d.ExpectedCloseDate
	return true, nil
}

func (s *fakeStore) MoveDeal(_ context.Context, _, id, stageID uuid.UUID, position int) (bool, error) {
	d := s.deals[id]
	if d == nil {
		return false, nil
	}
	d.StageID = stageID
	d.Position = position
	return true, nil
}

func (s *fakeStore) DeleteDeal(_ context.Context, _, id uuid.UUID) (bool, error) {
	if s.deals[id] == nil {
		return false, nil
	}
	delete(s.deals, id)
	return true, nil
}

type recordingHook struct {
	calls int
	stage *models.Stage
}

func (h *recordingHook) ProcessStageChange(_ context.Context, _ *models.Deal, stage *models.Stage) {
	h.calls++
	h.stage = stage
}

func dealRouter(h *Handler, tenant *models.Tenant) *gin.Engine {
	r := gin.New()
	scoped := r.Group("/", func(c *gin.Context) {
		c.Set(tenancy.ContextTenant, tenant)
		c.Next()
	})
	scoped.PUT("/deals/:id", h.Update)
	scoped.PATCH("/deals/:id/move", h.Move)
	return r
}

func doJSON(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func seedBoard(store *fakeStore, tenantID uuid.UUID) (*models.Deal, *models.Stage, *models.Stage) {
	pipelineID := uuid.New()
	from := &models.Stage{ID: uuid.New(), TenantID: tenantID, PipelineID: pipelineID, Name: "New", IsActive: true}
	to := &models.Stage{ID: uuid.New(), TenantID: tenantID, PipelineID: pipelineID, Name: "Token", IsActive: true}
	store.stages[from.ID] = from
	store.stages[to.ID] = to
	d := &models.Deal{
		ID:         uuid.New(),
		TenantID:   tenantID,
		Title:      "3BHK Lakeview",
		PipelineID: pipelineID,
		StageID:    from.ID,
		Value:      5_000_000,
	}
	store.deals[d.ID] = d
	return d, from, to
}

func TestUpdateNeverChangesStage(t *testing.T) {
	// Stage and pipeline are not part of the update body; a client sending
	// them anyway must not move the deal on the board.
	store := newFakeStore()
	tenant := &models.Tenant{ID: uuid.New(), Name: "Acme", Status: models.TenantActive}
	d, from, to := seedBoard(store, tenant.ID)
	h := NewHandler(store, nil)

	w := doJSON(dealRouter(h, tenant), http.MethodPut, "/deals/"+d.ID.String(), gin.H{
		"title":       "3BHK Lakeview (renegotiated)",
		"value":       4_800_000,
		"probability": 60,
		"stage_id":    to.ID,
		"pipeline_id": uuid.New(),
	})

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, store.updated)
	assert.Equal(t, uuid.Nil, store.updated.StageID)
	assert.Equal(t, uuid.Nil, store.updated.PipelineID)
	assert.Equal(t, from.ID, store.deals[d.ID].StageID)
	assert.Equal(t, "3BHK Lakeview (renegotiated)", store.deals[d.ID].Title)
	assert.Equal(t, int64(4_800_000), store.deals[d.ID].Value)
}

func TestUpdateRejectsBadProbability(t *testing.T) {
	store := newFakeStore()
	tenant := &models.Tenant{ID: uuid.New(), Name: "Acme", Status: models.TenantActive}
	d, _, _ := seedBoard(store, tenant.ID)
	h := NewHandler(store, nil)

	w := doJSON(dealRouter(h, tenant), http.MethodPut, "/deals/"+d.ID.String(), gin.H{
		"title":       d.Title,
		"probability": 120,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, store.updated)
}

func TestMoveChangesStageAndFiresHook(t *testing.T) {
	store := newFakeStore()
	tenant := &models.Tenant{ID: uuid.New(), Name: "Acme", Status: models.TenantActive}
	d, _, to := seedBoard(store, tenant.ID)
	hook := &recordingHook{}
	h := NewHandler(store, hook)

	path := fmt.Sprintf("/deals/%s/move", d.ID)
	w := doJSON(dealRouter(h, tenant), http.MethodPatch, path, gin.H{
		"stage_id": to.ID,
		"position": 2,
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, to.ID, store.deals[d.ID].StageID)
	assert.Equal(t, 1, hook.calls)
	require.NotNil(t, hook.stage)
	assert.Equal(t, to.ID, hook.stage.ID)
}
