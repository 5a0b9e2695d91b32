package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ogurasousui/employee-management-api/internal/core/employee"
)

// errorResponse はエラーレスポンスの JSON 表現です。
type errorResponse struct {
	Error string `json:"error"`
}

func httpStatusFor(err error) int {
	switch {
	case errors.Is(err, employee.ErrInvalidID),
		errors.Is(err, employee.ErrInvalidFirstName),
		errors.Is(err, employee.ErrInvalidLastName),
		errors.Is(err, employee.ErrInvalidEmail),
		errors.Is(err, employee.ErrInvalidHireDate),
		errors.Is(err, employee.ErrInvalidJobTitle),
		errors.Is(err, employee.ErrInvalidDepartment),
		errors.Is(err, employee.ErrInvalidSalary),
		errors.Is(err, employee.ErrInvalidStatus),
		errors.Is(err, employee.ErrInvalidPage),
		errors.Is(err, employee.ErrInvalidPageSize),
		errors.Is(err, employee.ErrEmployeeNotDeleted),
		errors.Is(err, employee.ErrEmployeeAlreadyDeleted):
		return http.StatusBadRequest
	case errors.Is(err, employee.ErrEmployeeNotFound):
		return http.StatusNotFound
	case errors.Is(err, employee.ErrEmailAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := httpStatusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
