package reports

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/multishowcase/showcase-backend/internal/auth"
	"github.com/multishowcase/showcase-backend/internal/common/apperr"
)

type fakeReportStore struct {
	reports map[uuid.UUID]*Report
	actions []*AdminAction
	byPair  map[string]bool
}

func newFakeReportStore() *fakeReportStore {
	return &fakeReportStore{
		reports: make(map[uuid.UUID]*Report),
		byPair:  make(map[string]bool),
	}
}

func (f *fakeReportStore) Create(ctx context.Context, reporterID uuid.UUID, req CreateReportRequest) (*Report, error) {
	pair := reporterID.String() + "/" + req.ReportType + "/" + req.TargetID.String()
	if f.byPair[pair] {
		return nil, fmt.Errorf("%w: you have already reported this", apperr.ErrConflict)
	}
	f.byPair[pair] = true
	report := &Report{
		ID:         uuid.New(),
		ReporterID: reporterID,
		ReportType: req.ReportType,
		TargetID:   req.TargetID,
		Reason:     req.Reason,
		Status:     StatusOpen,
		CreatedAt:  time.Now(),
	}
	f.reports[report.ID] = report
	return report, nil
}

func (f *fakeReportStore) List(ctx context.Context, status string, limit, offset int) ([]*Report, error) {
	var out []*Report
	for _, r := range f.reports {
		if status == "" || r.Status == status {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReportStore) Resolve(ctx context.Context, reportID, adminID uuid.UUID, req UpdateReportRequest) (*Report, error) {
	report, ok := f.reports[reportID]
	if !ok {
		return nil, fmt.Errorf("%w: report not found", apperr.ErrNotFound)
	}
	now := time.Now()
	report.Status = req.Status
	report.RespondedBy = &adminID
	report.RespondedAt = &now
	f.actions = append(f.actions, &AdminAction{
		ID:         uuid.New(),
		AdminID:    adminID,
		ActionType: "report_" + req.Status,
		TargetType: report.ReportType,
		TargetID:   report.TargetID,
		ReportID:   &reportID,
		Notes:      req.Notes,
		CreatedAt:  now,
	})
	return report, nil
}

func (f *fakeReportStore) Actions(ctx context.Context, limit, offset int) ([]*AdminAction, error) {
	return f.actions, nil
}

type staticResolver struct {
	id uuid.UUID
}

func (r staticResolver) ResolveID(ctx context.Context, sub string) (uuid.UUID, error) {
	return r.id, nil
}

func authed(r *http.Request, sub string) *http.Request {
	return r.WithContext(auth.WithClaims(r.Context(), &auth.Claims{Sub: sub, Username: sub}))
}

func TestCreateReport(t *testing.T) {
	store := newFakeReportStore()
	reporterID := uuid.New()
	h := NewHandler(store, staticResolver{id: reporterID})
	target := uuid.New()

	body := func() *bytes.Buffer {
		b, _ := json.Marshal(CreateReportRequest{
			ReportType: "post",
			TargetID:   target,
			Reason:     "spam account flooding the feed",
		})
		return bytes.NewBuffer(b)
	}

	t.Run("requires authentication", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/api/reports", body())
		rec := httptest.NewRecorder()
		h.Create(rec, r)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects unknown report type", func(t *testing.T) {
		b, _ := json.Marshal(map[string]interface{}{
			"report_type": "meme", "target_id": target, "reason": "not a thing",
		})
		r := authed(httptest.NewRequest(http.MethodPost, "/api/reports", bytes.NewBuffer(b)), "s1")
		rec := httptest.NewRecorder()
		h.Create(rec, r)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("files an open report", func(t *testing.T) {
		r := authed(httptest.NewRequest(http.MethodPost, "/api/reports", body()), "s1")
		rec := httptest.NewRecorder()
		h.Create(rec, r)
		require.Equal(t, http.StatusCreated, rec.Code)
		require.Len(t, store.reports, 1)
		for _, rep := range store.reports {
			assert.Equal(t, StatusOpen, rep.Status)
			assert.Equal(t, reporterID, rep.ReporterID)
		}
	})

	t.Run("same reporter and target is rejected", func(t *testing.T) {
		r := authed(httptest.NewRequest(http.MethodPost, "/api/reports", body()), "s1")
		rec := httptest.NewRecorder()
		h.Create(rec, r)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "already reported")
	})
}

func TestAdminRouterResolvesReportViaPut(t *testing.T) {
	store := newFakeReportStore()
	adminID := uuid.New()
	h := NewHandler(store, staticResolver{id: adminID})

	report, err := store.Create(context.Background(), uuid.New(), CreateReportRequest{
		ReportType: "post", TargetID: uuid.New(), Reason: "stolen artwork",
	})
	require.NoError(t, err)

	notes := "takedown issued"
	b, _ := json.Marshal(UpdateReportRequest{Status: StatusActioned, Notes: &notes})
	r := authed(httptest.NewRequest(http.MethodPut, "/reports/"+report.ID.String(), bytes.NewBuffer(b)), "admin")
	rec := httptest.NewRecorder()
	h.AdminRouter().ServeHTTP(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)
	updated := store.reports[report.ID]
	assert.Equal(t, StatusActioned, updated.Status)
	require.NotNil(t, updated.RespondedBy)
	assert.Equal(t, adminID, *updated.RespondedBy)
	assert.NotNil(t, updated.RespondedAt)

	require.Len(t, store.actions, 1)
	assert.Equal(t, "report_actioned", store.actions[0].ActionType)
	assert.Equal(t, &notes, store.actions[0].Notes)
}

func TestAdminRouterRejectsBadResolution(t *testing.T) {
	store := newFakeReportStore()
	h := NewHandler(store, staticResolver{id: uuid.New()})

	t.Run("unknown status", func(t *testing.T) {
		b, _ := json.Marshal(map[string]string{"status": "ignored"})
		r := authed(httptest.NewRequest(http.MethodPut, "/reports/"+uuid.NewString(), bytes.NewBuffer(b)), "admin")
		rec := httptest.NewRecorder()
		h.AdminRouter().ServeHTTP(rec, r)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing report", func(t *testing.T) {
		b, _ := json.Marshal(UpdateReportRequest{Status: StatusDismissed})
		r := authed(httptest.NewRequest(http.MethodPut, "/reports/"+uuid.NewString(), bytes.NewBuffer(b)), "admin")
		rec := httptest.NewRecorder()
		h.AdminRouter().ServeHTTP(rec, r)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestAdminRouterListsActions(t *testing.T) {
	store := newFakeReportStore()
	adminID := uuid.New()
	h := NewHandler(store, staticResolver{id: adminID})

	report, err := store.Create(context.Background(), uuid.New(), CreateReportRequest{
		ReportType: "user", TargetID: uuid.New(), Reason: "harassment in comments",
	})
	require.NoError(t, err)
	_, err = store.Resolve(context.Background(), report.ID, adminID, UpdateReportRequest{Status: StatusReviewed})
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/actions", nil)
	rec := httptest.NewRecorder()
	h.AdminRouter().ServeHTTP(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "report_reviewed")
}
