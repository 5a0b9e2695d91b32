package employee

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type stubClock struct {
	now time.Time
}

func (s *stubClock) Now() time.Time {
	return s.now
}

type fakeEmployeeRepo struct {
	employees map[int64]*Employee
	sequence  int64
	order     []int64
}

func newFakeEmployeeRepo() *fakeEmployeeRepo {
	return &fakeEmployeeRepo{employees: make(map[int64]*Employee)}
}

func (r *fakeEmployeeRepo) Create(_ context.Context, e *Employee) (*Employee, error) {
	for _, existing := range r.employees {
		if strings.EqualFold(existing.Email, e.Email) {
			return nil, ErrEmailAlreadyExists
		}
	}

	clone := e.Clone()
	r.sequence++
	clone.ID = r.sequence
	r.employees[clone.ID] = clone
	r.order = append(r.order, clone.ID)
	return clone.Clone(), nil
}

func (r *fakeEmployeeRepo) Update(_ context.Context, e *Employee) (*Employee, error) {
	if _, ok := r.employees[e.ID]; !ok {
		return nil, ErrEmployeeNotFound
	}
	for _, existing := range r.employees {
		if existing.ID != e.ID && strings.EqualFold(existing.Email, e.Email) {
			return nil, ErrEmailAlreadyExists
		}
	}
	r.employees[e.ID] = e.Clone()
	return e.Clone(), nil
}

func (r *fakeEmployeeRepo) FindByID(_ context.Context, id int64) (*Employee, error) {
	emp, ok := r.employees[id]
	if !ok {
		return nil, ErrEmployeeNotFound
	}
	return emp.Clone(), nil
}

func (r *fakeEmployeeRepo) FindByEmailIgnoreCase(_ context.Context, email string) (*Employee, error) {
	for _, emp := range r.employees {
		if strings.EqualFold(emp.Email, email) {
			return emp.Clone(), nil
		}
	}
	return nil, ErrEmployeeNotFound
}

func (r *fakeEmployeeRepo) List(_ context.Context, filter ListFilter) ([]*Employee, int64, error) {
	var filtered []*Employee
	for _, id := range r.order {
		emp, ok := r.employees[id]
		if !ok {
			continue
		}
		if filter.Department != nil && !strings.EqualFold(emp.Department, *filter.Department) {
			continue
		}
		if filter.Status != nil && emp.Status != *filter.Status {
			continue
		}
		if !filter.IncludeInactive && emp.Deleted() {
			continue
		}
		if filter.Search != "" {
			search := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(emp.FirstName), search) &&
				!strings.Contains(strings.ToLower(emp.LastName), search) &&
				!strings.Contains(strings.ToLower(emp.Email), search) {
				continue
			}
		}
		filtered = append(filtered, emp.Clone())
	}

	total := int64(len(filtered))

	if filter.Unpaged {
		return filtered, total, nil
	}

	if filter.Offset > len(filtered) {
		return []*Employee{}, total, nil
	}

	end := filter.Offset + filter.Limit
	if end > len(filtered) {
		end = len(filtered)
	}

	return filtered[filter.Offset:end], total, nil
}

type auditCall struct {
	action string
	before *Employee
	after  *Employee
	actor  string
}

type fakeAuditRecorder struct {
	calls []auditCall
	err   error
}

func (r *fakeAuditRecorder) RecordCreate(_ context.Context, created *Employee, actor string) error {
	if r.err != nil {
		return r.err
	}
	r.calls = append(r.calls, auditCall{action: "CREATE", after: created, actor: actor})
	return nil
}

func (r *fakeAuditRecorder) RecordUpdate(_ context.Context, before, after *Employee, actor string) error {
	if r.err != nil {
		return r.err
	}
	r.calls = append(r.calls, auditCall{action: "UPDATE", before: before, after: after, actor: actor})
	return nil
}

func (r *fakeAuditRecorder) RecordDelete(_ context.Context, deleted *Employee, actor string) error {
	if r.err != nil {
		return r.err
	}
	r.calls = append(r.calls, auditCall{action: "DELETE", before: deleted, after: deleted, actor: actor})
	return nil
}

func (r *fakeAuditRecorder) RecordRestore(_ context.Context, before, after *Employee, actor string) error {
	if r.err != nil {
		return r.err
	}
	r.calls = append(r.calls, auditCall{action: "RESTORE", before: before, after: after, actor: actor})
	return nil
}

func newTestService(repo *fakeEmployeeRepo, auditor *fakeAuditRecorder, now time.Time, policy Policy) *Service {
	return NewService(repo, auditor, &stubClock{now: now}, nil, nil, policy)
}

func validCreateInput() CreateEmployeeInput {
	return CreateEmployeeInput{
		FirstName:  "Jane",
		LastName:   "Smith",
		Email:      "jane.smith@example.com",
		HireDate:   time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		JobTitle:   "Manager",
		Department: "HR",
		Salary:     80000,
	}
}

func TestService_CreateEmployee_Success(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	auditor := &fakeAuditRecorder{}
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	svc := newTestService(repo, auditor, now, Policy{})

	created, err := svc.CreateEmployee(context.Background(), validCreateInput())
	if err != nil {
		t.Fatalf("CreateEmployee returned error: %v", err)
	}

	if created.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if created.FirstName != "Jane" {
		t.Errorf("expected first name Jane, got %s", created.FirstName)
	}
	if created.Email != "jane.smith@example.com" {
		t.Errorf("unexpected email: %s", created.Email)
	}
	if created.Status != StatusActive {
		t.Errorf("expected status ACTIVE, got %s", created.Status)
	}
	if created.DeletedAt != nil || created.DeletedBy != nil {
		t.Error("expected deletion fields unset")
	}
	if !created.CreatedAt.Equal(now) || !created.UpdatedAt.Equal(now) {
		t.Errorf("expected timestamps %v, got created=%v updated=%v", now, created.CreatedAt, created.UpdatedAt)
	}

	if len(auditor.calls) != 1 {
		t.Fatalf("expected 1 audit call, got %d", len(auditor.calls))
	}
	call := auditor.calls[0]
	if call.action != "CREATE" || call.before != nil || call.after == nil {
		t.Fatalf("unexpected audit call: %+v", call)
	}
	if call.actor != SystemActor {
		t.Errorf("expected actor %s, got %s", SystemActor, call.actor)
	}
}

func TestService_CreateEmployee_DuplicateEmailCaseInsensitive(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	auditor := &fakeAuditRecorder{}
	svc := newTestService(repo, auditor, time.Now().UTC(), Policy{})

	if _, err := svc.CreateEmployee(context.Background(), validCreateInput()); err != nil {
		t.Fatalf("first CreateEmployee returned error: %v", err)
	}

	in := validCreateInput()
	in.Email = "JANE.SMITH@EXAMPLE.COM"
	if _, err := svc.CreateEmployee(context.Background(), in); !errors.Is(err, ErrEmailAlreadyExists) {
		t.Fatalf("expected ErrEmailAlreadyExists, got %v", err)
	}

	if len(auditor.calls) != 1 {
		t.Fatalf("expected no audit entry for rejected create, got %d calls", len(auditor.calls))
	}
}

func TestService_CreateEmployee_DuplicateEmailOfDeletedEmployee(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	svc := newTestService(repo, &fakeAuditRecorder{}, time.Now().UTC(), Policy{})
	ctx := context.Background()

	created, err := svc.CreateEmployee(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("CreateEmployee returned error: %v", err)
	}
	if err := svc.DeleteEmployee(ctx, created.ID); err != nil {
		t.Fatalf("DeleteEmployee returned error: %v", err)
	}

	if _, err := svc.CreateEmployee(ctx, validCreateInput()); !errors.Is(err, ErrEmailAlreadyExists) {
		t.Fatalf("expected ErrEmailAlreadyExists for deleted record's email, got %v", err)
	}
}

func TestService_CreateEmployee_Validation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		mutate  func(*CreateEmployeeInput)
		wantErr error
	}{
		{"empty first name", func(in *CreateEmployeeInput) { in.FirstName = "  " }, ErrInvalidFirstName},
		{"first name too long", func(in *CreateEmployeeInput) { in.FirstName = strings.Repeat("a", 51) }, ErrInvalidFirstName},
		{"empty last name", func(in *CreateEmployeeInput) { in.LastName = "" }, ErrInvalidLastName},
		{"invalid email", func(in *CreateEmployeeInput) { in.Email = "not-an-email" }, ErrInvalidEmail},
		{"zero hire date", func(in *CreateEmployeeInput) { in.HireDate = time.Time{} }, ErrInvalidHireDate},
		{"empty job title", func(in *CreateEmployeeInput) { in.JobTitle = " " }, ErrInvalidJobTitle},
		{"empty department", func(in *CreateEmployeeInput) { in.Department = "" }, ErrInvalidDepartment},
		{"negative salary", func(in *CreateEmployeeInput) { in.Salary = -1 }, ErrInvalidSalary},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc := newTestService(newFakeEmployeeRepo(), &fakeAuditRecorder{}, time.Now().UTC(), Policy{})
			in := validCreateInput()
			tc.mutate(&in)

			if _, err := svc.CreateEmployee(context.Background(), in); !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestService_GetEmployee_NotFound(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeEmployeeRepo(), &fakeAuditRecorder{}, time.Now().UTC(), Policy{})

	if _, err := svc.GetEmployee(context.Background(), 99); !errors.Is(err, ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}
}

func TestService_GetEmployee_ReturnsDeletedRecord(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	svc := newTestService(repo, &fakeAuditRecorder{}, time.Now().UTC(), Policy{})
	ctx := context.Background()

	created, err := svc.CreateEmployee(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("CreateEmployee returned error: %v", err)
	}
	if err := svc.DeleteEmployee(ctx, created.ID); err != nil {
		t.Fatalf("DeleteEmployee returned error: %v", err)
	}

	found, err := svc.GetEmployee(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetEmployee returned error: %v", err)
	}
	if !found.Deleted() {
		t.Fatal("expected deleted record to be retrievable by id")
	}
}

func TestService_UpdateEmployee_MergesPresentFieldsOnly(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	auditor := &fakeAuditRecorder{}
	now := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)
	clock := &stubClock{now: now}
	svc := NewService(repo, auditor, clock, nil, nil, Policy{})
	ctx := context.Background()

	created, err := svc.CreateEmployee(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("CreateEmployee returned error: %v", err)
	}

	clock.now = now.Add(time.Hour)
	newTitle := "Director"
	newSalary := 95000.0
	updated, err := svc.UpdateEmployee(ctx, created.ID, UpdateEmployeeInput{
		JobTitle: &newTitle,
		Salary:   &newSalary,
	})
	if err != nil {
		t.Fatalf("UpdateEmployee returned error: %v", err)
	}

	if updated.JobTitle != "Director" || updated.Salary != 95000 {
		t.Errorf("update not applied: %+v", updated)
	}
	if updated.FirstName != created.FirstName || updated.Email != created.Email {
		t.Errorf("absent fields must remain unchanged: %+v", updated)
	}
	if !updated.UpdatedAt.Equal(clock.now) {
		t.Errorf("expected UpdatedAt %v, got %v", clock.now, updated.UpdatedAt)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Error("CreatedAt must not change on update")
	}

	if len(auditor.calls) != 2 {
		t.Fatalf("expected 2 audit calls, got %d", len(auditor.calls))
	}
	call := auditor.calls[1]
	if call.action != "UPDATE" {
		t.Fatalf("expected UPDATE audit, got %s", call.action)
	}
	if call.before == nil || call.before.JobTitle != "Manager" {
		t.Errorf("before snapshot must capture pre-mutation state: %+v", call.before)
	}
	if call.after == nil || call.after.JobTitle != "Director" {
		t.Errorf("after snapshot must capture post-mutation state: %+v", call.after)
	}
}

func TestService_UpdateEmployee_EmailConflict(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	svc := newTestService(repo, &fakeAuditRecorder{}, time.Now().UTC(), Policy{})
	ctx := context.Background()

	first, err := svc.CreateEmployee(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("CreateEmployee returned error: %v", err)
	}

	other := validCreateInput()
	other.Email = "john.doe@example.com"
	second, err := svc.CreateEmployee(ctx, other)
	if err != nil {
		t.Fatalf("CreateEmployee returned error: %v", err)
	}

	conflicting := "Jane.Smith@Example.com"
	if _, err := svc.UpdateEmployee(ctx, second.ID, UpdateEmployeeInput{Email: &conflicting}); !errors.Is(err, ErrEmailAlreadyExists) {
		t.Fatalf("expected ErrEmailAlreadyExists, got %v", err)
	}

	// 自分自身のメールアドレスを大文字小文字違いで再送しても競合しない。
	sameEmail := strings.ToUpper(first.Email)
	if _, err := svc.UpdateEmployee(ctx, first.ID, UpdateEmployeeInput{Email: &sameEmail}); err != nil {
		t.Fatalf("resubmitting own email must not conflict: %v", err)
	}
}

func TestService_UpdateEmployee_NotFound(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeEmployeeRepo(), &fakeAuditRecorder{}, time.Now().UTC(), Policy{})

	name := "Jane"
	if _, err := svc.UpdateEmployee(context.Background(), 42, UpdateEmployeeInput{FirstName: &name}); !errors.Is(err, ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}
}

func TestService_PartialUpdateEmployee_SameMergeSemantics(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	svc := newTestService(repo, &fakeAuditRecorder{}, time.Now().UTC(), Policy{})
	ctx := context.Background()

	created, err := svc.CreateEmployee(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("CreateEmployee returned error: %v", err)
	}

	phone := "(555) 123-4567"
	updated, err := svc.PartialUpdateEmployee(ctx, created.ID, UpdateEmployeeInput{Phone: &phone})
	if err != nil {
		t.Fatalf("PartialUpdateEmployee returned error: %v", err)
	}

	if updated.Phone == nil || *updated.Phone != phone {
		t.Errorf("expected phone %s, got %+v", phone, updated.Phone)
	}
	if updated.FirstName != created.FirstName || updated.Salary != created.Salary {
		t.Errorf("absent fields must remain unchanged: %+v", updated)
	}
}

func TestService_DeleteEmployee_SoftDeletes(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	auditor := &fakeAuditRecorder{}
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := &stubClock{now: now}
	svc := NewService(repo, auditor, clock, nil, nil, Policy{})
	ctx := context.Background()

	created, err := svc.CreateEmployee(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("CreateEmployee returned error: %v", err)
	}

	deleteTime := now.Add(time.Hour)
	clock.now = deleteTime
	if err := svc.DeleteEmployee(ctx, created.ID); err != nil {
		t.Fatalf("DeleteEmployee returned error: %v", err)
	}

	stored, err := repo.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	if stored.Status != StatusInactive {
		t.Errorf("expected status INACTIVE, got %s", stored.Status)
	}
	if stored.DeletedAt == nil || !stored.DeletedAt.Equal(deleteTime) {
		t.Errorf("expected DeletedAt %v, got %+v", deleteTime, stored.DeletedAt)
	}
	if stored.DeletedBy == nil || *stored.DeletedBy != SystemActor {
		t.Errorf("expected DeletedBy %s, got %+v", SystemActor, stored.DeletedBy)
	}

	call := auditor.calls[len(auditor.calls)-1]
	if call.action != "DELETE" {
		t.Fatalf("expected DELETE audit, got %s", call.action)
	}
	// 削除監査は変更前の状態を before/after 両方に記録する。
	if call.before == nil || call.before.DeletedAt != nil {
		t.Errorf("delete audit must capture pre-mutation state: %+v", call.before)
	}
	if call.before != call.after {
		t.Error("delete audit must use the same snapshot for before and after")
	}
}

func TestService_DeleteEmployee_AlreadyDeleted(t *testing.T) {
	t.Parallel()

	t.Run("default policy restamps and reaudits", func(t *testing.T) {
		t.Parallel()

		repo := newFakeEmployeeRepo()
		auditor := &fakeAuditRecorder{}
		now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
		clock := &stubClock{now: now}
		svc := NewService(repo, auditor, clock, nil, nil, Policy{})
		ctx := context.Background()

		created, err := svc.CreateEmployee(ctx, validCreateInput())
		if err != nil {
			t.Fatalf("CreateEmployee returned error: %v", err)
		}
		if err := svc.DeleteEmployee(ctx, created.ID); err != nil {
			t.Fatalf("first DeleteEmployee returned error: %v", err)
		}

		clock.now = now.Add(time.Hour)
		if err := svc.DeleteEmployee(ctx, created.ID); err != nil {
			t.Fatalf("second DeleteEmployee returned error: %v", err)
		}

		stored, err := repo.FindByID(ctx, created.ID)
		if err != nil {
			t.Fatalf("FindByID returned error: %v", err)
		}
		if stored.DeletedAt == nil || !stored.DeletedAt.Equal(clock.now) {
			t.Errorf("expected restamped DeletedAt %v, got %+v", clock.now, stored.DeletedAt)
		}

		deletes := 0
		for _, call := range auditor.calls {
			if call.action == "DELETE" {
				deletes++
			}
		}
		if deletes != 2 {
			t.Errorf("expected 2 DELETE audit entries, got %d", deletes)
		}
	})

	t.Run("strict policy rejects", func(t *testing.T) {
		t.Parallel()

		repo := newFakeEmployeeRepo()
		auditor := &fakeAuditRecorder{}
		svc := newTestService(repo, auditor, time.Now().UTC(), Policy{StrictDelete: true})
		ctx := context.Background()

		created, err := svc.CreateEmployee(ctx, validCreateInput())
		if err != nil {
			t.Fatalf("CreateEmployee returned error: %v", err)
		}
		if err := svc.DeleteEmployee(ctx, created.ID); err != nil {
			t.Fatalf("first DeleteEmployee returned error: %v", err)
		}

		audits := len(auditor.calls)
		if err := svc.DeleteEmployee(ctx, created.ID); !errors.Is(err, ErrEmployeeAlreadyDeleted) {
			t.Fatalf("expected ErrEmployeeAlreadyDeleted, got %v", err)
		}
		if len(auditor.calls) != audits {
			t.Error("rejected delete must not produce an audit entry")
		}
	})
}

func TestService_RestoreEmployee(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	auditor := &fakeAuditRecorder{}
	now := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
	clock := &stubClock{now: now}
	svc := NewService(repo, auditor, clock, nil, nil, Policy{})
	ctx := context.Background()

	created, err := svc.CreateEmployee(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("CreateEmployee returned error: %v", err)
	}
	if err := svc.DeleteEmployee(ctx, created.ID); err != nil {
		t.Fatalf("DeleteEmployee returned error: %v", err)
	}

	clock.now = now.Add(2 * time.Hour)
	restored, err := svc.RestoreEmployee(ctx, created.ID)
	if err != nil {
		t.Fatalf("RestoreEmployee returned error: %v", err)
	}

	if restored.Status != StatusActive {
		t.Errorf("expected status ACTIVE, got %s", restored.Status)
	}
	if restored.DeletedAt != nil || restored.DeletedBy != nil {
		t.Errorf("expected deletion fields cleared: %+v", restored)
	}

	call := auditor.calls[len(auditor.calls)-1]
	if call.action != "RESTORE" {
		t.Fatalf("expected RESTORE audit, got %s", call.action)
	}
	if call.before == nil || call.before.DeletedAt == nil {
		t.Errorf("restore audit before snapshot must capture deleted state: %+v", call.before)
	}
	if call.after == nil || call.after.DeletedAt != nil {
		t.Errorf("restore audit after snapshot must capture restored state: %+v", call.after)
	}
}

func TestService_RestoreEmployee_NotDeleted(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	auditor := &fakeAuditRecorder{}
	svc := newTestService(repo, auditor, time.Now().UTC(), Policy{})
	ctx := context.Background()

	created, err := svc.CreateEmployee(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("CreateEmployee returned error: %v", err)
	}

	audits := len(auditor.calls)
	if _, err := svc.RestoreEmployee(ctx, created.ID); !errors.Is(err, ErrEmployeeNotDeleted) {
		t.Fatalf("expected ErrEmployeeNotDeleted, got %v", err)
	}
	if len(auditor.calls) != audits {
		t.Error("failed restore must not produce an audit entry")
	}
}

func TestService_RestoreEmployee_NotFound(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeEmployeeRepo(), &fakeAuditRecorder{}, time.Now().UTC(), Policy{})

	if _, err := svc.RestoreEmployee(context.Background(), 7); !errors.Is(err, ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}
}

func TestService_DeleteThenRestore_RoundTrip(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	clock := &stubClock{now: now}
	svc := NewService(repo, &fakeAuditRecorder{}, clock, nil, nil, Policy{})
	ctx := context.Background()

	in := validCreateInput()
	phone := "(555) 000-1111"
	dob := time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC)
	in.Phone = &phone
	in.DateOfBirth = &dob

	created, err := svc.CreateEmployee(ctx, in)
	if err != nil {
		t.Fatalf("CreateEmployee returned error: %v", err)
	}

	beforeDelete, err := repo.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}

	clock.now = now.Add(time.Hour)
	if err := svc.DeleteEmployee(ctx, created.ID); err != nil {
		t.Fatalf("DeleteEmployee returned error: %v", err)
	}

	clock.now = now.Add(2 * time.Hour)
	restored, err := svc.RestoreEmployee(ctx, created.ID)
	if err != nil {
		t.Fatalf("RestoreEmployee returned error: %v", err)
	}

	// UpdatedAt 以外の全フィールドが削除前と一致すること。
	if restored.FirstName != beforeDelete.FirstName ||
		restored.LastName != beforeDelete.LastName ||
		restored.Email != beforeDelete.Email ||
		restored.JobTitle != beforeDelete.JobTitle ||
		restored.Department != beforeDelete.Department ||
		restored.Salary != beforeDelete.Salary ||
		restored.Status != beforeDelete.Status {
		t.Errorf("restored employee differs from pre-delete state:\nbefore=%+v\nafter=%+v", beforeDelete, restored)
	}
	if restored.Phone == nil || *restored.Phone != *beforeDelete.Phone {
		t.Errorf("phone mismatch after round trip: %+v", restored.Phone)
	}
	if restored.DateOfBirth == nil || !restored.DateOfBirth.Equal(*beforeDelete.DateOfBirth) {
		t.Errorf("date of birth mismatch after round trip: %+v", restored.DateOfBirth)
	}
	if !restored.CreatedAt.Equal(beforeDelete.CreatedAt) {
		t.Error("CreatedAt must survive the round trip")
	}
	if restored.DeletedAt != nil || restored.DeletedBy != nil {
		t.Error("deletion fields must be cleared after restore")
	}
	if restored.UpdatedAt.Equal(beforeDelete.UpdatedAt) {
		t.Error("UpdatedAt must advance across delete and restore")
	}
}

func TestService_ListEmployees_Filters(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	svc := newTestService(repo, &fakeAuditRecorder{}, time.Now().UTC(), Policy{})
	ctx := context.Background()

	seed := []struct {
		first, last, email, dept string
	}{
		{"Jane", "Smith", "jane.smith@example.com", "HR"},
		{"John", "Doe", "john.doe@example.com", "Engineering"},
		{"Alice", "Johnson", "alice.johnson@example.com", "Engineering"},
	}
	var ids []int64
	for _, s := range seed {
		in := validCreateInput()
		in.FirstName = s.first
		in.LastName = s.last
		in.Email = s.email
		in.Department = s.dept
		created, err := svc.CreateEmployee(ctx, in)
		if err != nil {
			t.Fatalf("CreateEmployee returned error: %v", err)
		}
		ids = append(ids, created.ID)
	}

	dept := "engineering"
	result, err := svc.ListEmployees(ctx, ListEmployeesInput{Department: &dept})
	if err != nil {
		t.Fatalf("ListEmployees returned error: %v", err)
	}
	if result.TotalCount != 2 || len(result.Employees) != 2 {
		t.Fatalf("expected 2 engineering employees, got total=%d len=%d", result.TotalCount, len(result.Employees))
	}

	result, err = svc.ListEmployees(ctx, ListEmployeesInput{Search: "JOHN"})
	if err != nil {
		t.Fatalf("ListEmployees returned error: %v", err)
	}
	// "JOHN" は John Doe の名と Alice Johnson の姓・メールに一致する。
	if result.TotalCount != 2 {
		t.Fatalf("expected search to match 2 employees, got %d", result.TotalCount)
	}

	if err := svc.DeleteEmployee(ctx, ids[0]); err != nil {
		t.Fatalf("DeleteEmployee returned error: %v", err)
	}

	result, err = svc.ListEmployees(ctx, ListEmployeesInput{})
	if err != nil {
		t.Fatalf("ListEmployees returned error: %v", err)
	}
	for _, emp := range result.Employees {
		if emp.ID == ids[0] {
			t.Fatal("soft-deleted employee must be excluded by default")
		}
	}
	if result.TotalCount != 2 {
		t.Fatalf("expected total 2 after delete, got %d", result.TotalCount)
	}

	result, err = svc.ListEmployees(ctx, ListEmployeesInput{IncludeInactive: true})
	if err != nil {
		t.Fatalf("ListEmployees returned error: %v", err)
	}
	found := false
	for _, emp := range result.Employees {
		if emp.ID == ids[0] {
			found = true
			if emp.Status != StatusInactive {
				t.Errorf("expected INACTIVE status, got %s", emp.Status)
			}
		}
	}
	if !found {
		t.Fatal("include_inactive listing must contain the deleted employee")
	}

	// ステータスフィルタを付けても削除済みレコードは既定で除外される。
	inactive := StatusInactive
	result, err = svc.ListEmployees(ctx, ListEmployeesInput{Status: &inactive})
	if err != nil {
		t.Fatalf("ListEmployees returned error: %v", err)
	}
	if result.TotalCount != 0 {
		t.Fatalf("expected 0 results, got %d", result.TotalCount)
	}
}

func TestService_ListEmployees_Pagination(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	svc := newTestService(repo, &fakeAuditRecorder{}, time.Now().UTC(), Policy{})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		in := validCreateInput()
		in.Email = "employee" + string(rune('a'+i)) + "@example.com"
		if _, err := svc.CreateEmployee(ctx, in); err != nil {
			t.Fatalf("CreateEmployee returned error: %v", err)
		}
	}

	result, err := svc.ListEmployees(ctx, ListEmployeesInput{Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("ListEmployees returned error: %v", err)
	}
	if result.TotalCount != 5 {
		t.Errorf("expected total 5, got %d", result.TotalCount)
	}
	if len(result.Employees) != 2 {
		t.Errorf("expected page of 2, got %d", len(result.Employees))
	}
	if result.Page != 1 || result.PageSize != 2 {
		t.Errorf("unexpected page metadata: %+v", result)
	}

	if _, err := svc.ListEmployees(ctx, ListEmployeesInput{Page: -1}); !errors.Is(err, ErrInvalidPage) {
		t.Fatalf("expected ErrInvalidPage, got %v", err)
	}
	if _, err := svc.ListEmployees(ctx, ListEmployeesInput{PageSize: maxListPageSize + 1}); !errors.Is(err, ErrInvalidPageSize) {
		t.Fatalf("expected ErrInvalidPageSize, got %v", err)
	}
}

func TestService_AuditFailurePropagates(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	auditErr := errors.New("audit store unavailable")
	auditor := &fakeAuditRecorder{err: auditErr}
	svc := newTestService(repo, auditor, time.Now().UTC(), Policy{})
	ctx := context.Background()

	_, err := svc.CreateEmployee(ctx, validCreateInput())
	if !errors.Is(err, auditErr) {
		t.Fatalf("expected audit error to propagate, got %v", err)
	}

	// 監査の失敗は主データの書き込み後に発生するため、レコードは残る。
	if _, err := repo.FindByEmailIgnoreCase(ctx, "jane.smith@example.com"); err != nil {
		t.Fatalf("employee write must survive audit failure: %v", err)
	}
}
