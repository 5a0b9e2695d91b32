package employee

import "errors"

var (
	ErrInvalidID              = errors.New("employee: invalid id")
	ErrInvalidFirstName       = errors.New("employee: invalid first name")
	ErrInvalidLastName        = errors.New("employee: invalid last name")
	ErrInvalidEmail           = errors.New("employee: invalid email")
	ErrInvalidHireDate        = errors.New("employee: invalid hire date")
	ErrInvalidJobTitle        = errors.New("employee: invalid job title")
	ErrInvalidDepartment      = errors.New("employee: invalid department")
	ErrInvalidSalary          = errors.New("employee: invalid salary")
	ErrInvalidStatus          = errors.New("employee: invalid status")
	ErrInvalidPage            = errors.New("employee: invalid page")
	ErrInvalidPageSize        = errors.New("employee: invalid page size")
	ErrEmployeeNotFound       = errors.New("employee: not found")
	ErrEmailAlreadyExists     = errors.New("employee: email already exists")
	ErrEmployeeNotDeleted     = errors.New("employee: not deleted")
	ErrEmployeeAlreadyDeleted = errors.New("employee: already deleted")
)
