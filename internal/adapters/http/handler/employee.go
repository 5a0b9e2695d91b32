package handler

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ogurasousui/employee-management-api/internal/core/employee"
	"github.com/ogurasousui/employee-management-api/internal/platform/metrics"
	"github.com/ogurasousui/employee-management-api/internal/platform/middleware"
)

const dateLayout = "2006-01-02"

// EmployeeHandler は従業員 API の HTTP 実装です。
type EmployeeHandler struct {
	svc     employee.UseCase
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewEmployeeHandler は EmployeeHandler を生成します。
func NewEmployeeHandler(svc employee.UseCase, m *metrics.Metrics, logger *slog.Logger) *EmployeeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmployeeHandler{svc: svc, metrics: m, logger: logger}
}

// Register は従業員 API のルートを登録します。
func (h *EmployeeHandler) Register(r chi.Router) {
	r.Route("/api/v1/employees", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/export", h.Export)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Put("/", h.Update)
			r.Patch("/", h.PartialUpdate)
			r.Delete("/", h.Delete)
			r.Post("/restore", h.Restore)
		})
	})
}

// createEmployeeRequest は従業員作成リクエストのボディです。
type createEmployeeRequest struct {
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	Email       string  `json:"email"`
	Phone       *string `json:"phone"`
	DateOfBirth *string `json:"dateOfBirth"`
	HireDate    string  `json:"hireDate"`
	JobTitle    string  `json:"jobTitle"`
	Department  string  `json:"department"`
	Salary      float64 `json:"salary"`
}

// updateEmployeeRequest は全体更新・部分更新共通のボディです。省略されたフィールドは変更されません。
type updateEmployeeRequest struct {
	FirstName   *string  `json:"firstName"`
	LastName    *string  `json:"lastName"`
	Email       *string  `json:"email"`
	Phone       *string  `json:"phone"`
	DateOfBirth *string  `json:"dateOfBirth"`
	HireDate    *string  `json:"hireDate"`
	JobTitle    *string  `json:"jobTitle"`
	Department  *string  `json:"department"`
	Salary      *float64 `json:"salary"`
	Status      *string  `json:"status"`
}

// employeeResponse は従業員の JSON 表現です。
type employeeResponse struct {
	ID          int64     `json:"id"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Email       string    `json:"email"`
	Phone       *string   `json:"phone"`
	DateOfBirth *string   `json:"dateOfBirth"`
	HireDate    string    `json:"hireDate"`
	JobTitle    string    `json:"jobTitle"`
	Department  string    `json:"department"`
	Salary      float64   `json:"salary"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// pagedResponse はページング付き一覧のエンベロープです。
type pagedResponse struct {
	Content       []*employeeResponse `json:"content"`
	Page          int                 `json:"page"`
	Size          int                 `json:"size"`
	TotalElements int64               `json:"totalElements"`
	TotalPages    int                 `json:"totalPages"`
}

// Create は従業員を作成し、Location ヘッダー付きで 201 を返します。
func (h *EmployeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	dob, err := parseOptionalDate(req.DateOfBirth)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("dateOfBirth: %v", err)})
		return
	}

	var hireDate time.Time
	if req.HireDate != "" {
		hireDate, err = time.Parse(dateLayout, req.HireDate)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("hireDate: %v", err)})
			return
		}
	}

	created, err := h.svc.CreateEmployee(r.Context(), employee.CreateEmployeeInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Phone:       req.Phone,
		DateOfBirth: dob,
		HireDate:    hireDate,
		JobTitle:    req.JobTitle,
		Department:  req.Department,
		Salary:      req.Salary,
	})
	if err != nil {
		h.logError(r, "create employee failed", err)
		writeError(w, err)
		return
	}

	h.countMutation("CREATE")
	w.Header().Set("Location", fmt.Sprintf("%s/%d", strings.TrimSuffix(r.URL.Path, "/"), created.ID))
	writeJSON(w, http.StatusCreated, toEmployeeResponse(created))
}

// Get は従業員を 1 件取得します。
func (h *EmployeeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	found, err := h.svc.GetEmployee(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toEmployeeResponse(found))
}

// List はフィルタとページングを適用した従業員一覧を返します。
func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	in, err := listInputFromQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	result, err := h.svc.ListEmployees(r.Context(), in)
	if err != nil {
		h.logError(r, "list employees failed", err)
		writeError(w, err)
		return
	}

	content := make([]*employeeResponse, 0, len(result.Employees))
	for _, emp := range result.Employees {
		content = append(content, toEmployeeResponse(emp))
	}

	writeJSON(w, http.StatusOK, pagedResponse{
		Content:       content,
		Page:          result.Page,
		Size:          result.PageSize,
		TotalElements: result.TotalCount,
		TotalPages:    totalPages(result.TotalCount, result.PageSize),
	})
}

// csvHeader は CSV 出力の列順を固定します。
var csvHeader = []string{
	"ID", "First Name", "Last Name", "Email", "Phone", "Date of Birth",
	"Hire Date", "Job Title", "Department", "Salary", "Status",
	"Created At", "Updated At",
}

// Export はフィルタを適用した全従業員を CSV として出力します。
func (h *EmployeeHandler) Export(w http.ResponseWriter, r *http.Request) {
	in, err := listInputFromQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	in.Unpaged = true
	in.Page = 0
	in.PageSize = 0

	result, err := h.svc.ListEmployees(r.Context(), in)
	if err != nil {
		h.logError(r, "export employees failed", err)
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.Header().Set("Content-Disposition", `attachment; filename="employees.csv"`)

	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		h.logError(r, "write csv header failed", err)
		return
	}
	for _, emp := range result.Employees {
		if err := writer.Write(csvRecord(emp)); err != nil {
			h.logError(r, "write csv record failed", err)
			return
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		h.logError(r, "flush csv failed", err)
	}
}

// Update は従業員の全体更新を行います。
func (h *EmployeeHandler) Update(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, h.svc.UpdateEmployee, "UPDATE")
}

// PartialUpdate は従業員の部分更新を行います。
func (h *EmployeeHandler) PartialUpdate(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, h.svc.PartialUpdateEmployee, "UPDATE")
}

func (h *EmployeeHandler) update(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, id int64, in employee.UpdateEmployeeInput) (*employee.Employee, error), action string) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req updateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	dob, err := parseOptionalDate(req.DateOfBirth)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("dateOfBirth: %v", err)})
		return
	}

	var hireDate *time.Time
	if req.HireDate != nil {
		parsed, err := time.Parse(dateLayout, *req.HireDate)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("hireDate: %v", err)})
			return
		}
		hireDate = &parsed
	}

	var status *employee.Status
	if req.Status != nil {
		value := employee.Status(strings.ToUpper(strings.TrimSpace(*req.Status)))
		status = &value
	}

	updated, err := apply(r.Context(), id, employee.UpdateEmployeeInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Phone:       req.Phone,
		DateOfBirth: dob,
		HireDate:    hireDate,
		JobTitle:    req.JobTitle,
		Department:  req.Department,
		Salary:      req.Salary,
		Status:      status,
	})
	if err != nil {
		h.logError(r, "update employee failed", err)
		writeError(w, err)
		return
	}

	h.countMutation(action)
	writeJSON(w, http.StatusOK, toEmployeeResponse(updated))
}

// Delete は従業員を論理削除し 204 を返します。
func (h *EmployeeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.svc.DeleteEmployee(r.Context(), id); err != nil {
		h.logError(r, "delete employee failed", err)
		writeError(w, err)
		return
	}

	h.countMutation("DELETE")
	w.WriteHeader(http.StatusNoContent)
}

// Restore は論理削除済みの従業員を復元します。
func (h *EmployeeHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	restored, err := h.svc.RestoreEmployee(r.Context(), id)
	if err != nil {
		h.logError(r, "restore employee failed", err)
		writeError(w, err)
		return
	}

	h.countMutation("RESTORE")
	writeJSON(w, http.StatusOK, toEmployeeResponse(restored))
}

func (h *EmployeeHandler) countMutation(action string) {
	if h.metrics != nil {
		h.metrics.IncrementEmployeeMutation(action)
	}
}

func (h *EmployeeHandler) logError(r *http.Request, msg string, err error) {
	if httpStatusFor(err) < http.StatusInternalServerError {
		return
	}
	h.logger.ErrorContext(r.Context(), msg,
		"error", err,
		"request_id", middleware.GetRequestID(r.Context()),
	)
}

func parseIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("id %q: %w", raw, employee.ErrInvalidID)
	}
	return id, nil
}

func parseOptionalDate(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, *value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func listInputFromQuery(r *http.Request) (employee.ListEmployeesInput, error) {
	query := r.URL.Query()
	in := employee.ListEmployeesInput{
		Search: strings.TrimSpace(query.Get("search")),
	}

	if dept := strings.TrimSpace(query.Get("department")); dept != "" {
		in.Department = &dept
	}
	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		status := employee.Status(strings.ToUpper(raw))
		in.Status = &status
	}
	if raw := query.Get("include_inactive"); raw != "" {
		include, err := strconv.ParseBool(raw)
		if err != nil {
			return in, fmt.Errorf("include_inactive must be a boolean, got %q", raw)
		}
		in.IncludeInactive = include
	}
	if raw := query.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return in, fmt.Errorf("page must be an integer, got %q", raw)
		}
		in.Page = page
	}
	if raw := query.Get("page_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			return in, fmt.Errorf("page_size must be an integer, got %q", raw)
		}
		in.PageSize = size
	}

	return in, nil
}

func toEmployeeResponse(emp *employee.Employee) *employeeResponse {
	return &employeeResponse{
		ID:          emp.ID,
		FirstName:   emp.FirstName,
		LastName:    emp.LastName,
		Email:       emp.Email,
		Phone:       emp.Phone,
		DateOfBirth: formatOptionalDate(emp.DateOfBirth),
		HireDate:    emp.HireDate.Format(dateLayout),
		JobTitle:    emp.JobTitle,
		Department:  emp.Department,
		Salary:      emp.Salary,
		Status:      string(emp.Status),
		CreatedAt:   emp.CreatedAt,
		UpdatedAt:   emp.UpdatedAt,
	}
}

func csvRecord(emp *employee.Employee) []string {
	phone := ""
	if emp.Phone != nil {
		phone = *emp.Phone
	}
	dob := ""
	if emp.DateOfBirth != nil {
		dob = emp.DateOfBirth.Format(dateLayout)
	}

	return []string{
		strconv.FormatInt(emp.ID, 10),
		emp.FirstName,
		emp.LastName,
		emp.Email,
		phone,
		dob,
		emp.HireDate.Format(dateLayout),
		emp.JobTitle,
		emp.Department,
		strconv.FormatFloat(emp.Salary, 'f', -1, 64),
		string(emp.Status),
		emp.CreatedAt.Format(time.RFC3339),
		emp.UpdatedAt.Format(time.RFC3339),
	}
}

func formatOptionalDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.Format(dateLayout)
	return &formatted
}

func totalPages(total int64, size int) int {
	if size <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}
