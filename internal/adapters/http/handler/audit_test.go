package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ogurasousui/employee-management-api/internal/core/audit"
)

type stubAuditHistory struct {
	employeeID int64
	entries    []*audit.Entry
	err        error
}

func (s *stubAuditHistory) History(ctx context.Context, employeeID int64) ([]*audit.Entry, error) {
	s.employeeID = employeeID
	return s.entries, s.err
}

func newAuditRouter(stub *stubAuditHistory) chi.Router {
	r := chi.NewRouter()
	NewAuditHandler(stub, discardTestLogger()).Register(r)
	return r
}

func TestAuditHandler_ListByEmployee(t *testing.T) {
	t.Parallel()

	snapshot := `{"id":5,"firstName":"John"}`
	stub := &stubAuditHistory{
		entries: []*audit.Entry{
			{
				ID:            2,
				EmployeeID:    5,
				Action:        audit.ActionDelete,
				PerformedBy:   "system",
				PerformedAt:   time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC),
				AfterSnapshot: &snapshot,
				Description:   "Employee soft deleted: John Doe",
			},
			{
				ID:          1,
				EmployeeID:  5,
				Action:      audit.ActionCreate,
				PerformedBy: "system",
				PerformedAt: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
				Description: "Employee created: John Doe",
			},
		},
	}
	router := newAuditRouter(stub)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/employees/5/audit", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if stub.employeeID != 5 {
		t.Errorf("expected employee id 5, got %d", stub.employeeID)
	}

	var resp []*auditEntryResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(resp))
	}
	if resp[0].Action != "DELETE" || resp[1].Action != "CREATE" {
		t.Errorf("unexpected ordering: %s then %s", resp[0].Action, resp[1].Action)
	}
	if resp[0].AfterSnapshot == nil || *resp[0].AfterSnapshot != snapshot {
		t.Errorf("unexpected after snapshot: %v", resp[0].AfterSnapshot)
	}
	if resp[1].BeforeSnapshot != nil {
		t.Errorf("expected nil before snapshot, got %v", resp[1].BeforeSnapshot)
	}
}

func TestAuditHandler_ListByEmployee_Empty(t *testing.T) {
	t.Parallel()

	router := newAuditRouter(&stubAuditHistory{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/employees/5/audit", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if body := rr.Body.String(); body != "[]\n" {
		t.Errorf("expected empty JSON array, got %q", body)
	}
}

func TestAuditHandler_ListByEmployee_InvalidID(t *testing.T) {
	t.Parallel()

	router := newAuditRouter(&stubAuditHistory{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/employees/abc/audit", nil))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestAuditHandler_ListByEmployee_StoreFailure(t *testing.T) {
	t.Parallel()

	router := newAuditRouter(&stubAuditHistory{err: errors.New("connection refused")})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/employees/5/audit", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}

	var resp errorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if resp.Error != "internal server error" {
		t.Errorf("expected generic message, got %q", resp.Error)
	}
}
