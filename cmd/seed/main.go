package main

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"github.com/ogurasousui/employee-management-api/internal/adapters/repository/postgres"
	"github.com/ogurasousui/employee-management-api/internal/core/employee"
	"github.com/ogurasousui/employee-management-api/internal/platform/config"
	pg "github.com/ogurasousui/employee-management-api/internal/platform/db/postgres"
)

const seedCount = 100

var (
	firstNames  = []string{"John", "Jane", "Alice", "Bob", "Charlie", "Diana", "Eve", "Frank", "Grace", "Henry"}
	lastNames   = []string{"Doe", "Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis", "Rodriguez"}
	departments = []string{"Engineering", "HR", "Finance", "Marketing", "Sales", "Operations", "IT", "Legal", "Support", "R&D"}
	jobTitles   = []string{"Engineer", "Manager", "Analyst", "Developer", "Consultant", "Specialist", "Coordinator", "Director", "Assistant", "Lead"}
)

// seed は開発用のサンプル従業員を投入します。既にデータがある場合は何もしません。
func main() {
	ctx := context.Background()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "assets/local.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	dbPool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("failed to initialize database pool: %v", err)
	}
	defer dbPool.Close()

	repo := postgres.NewEmployeeRepository(dbPool)
	txManager := pg.NewTransactionManager(dbPool)
	svc := employee.NewService(repo, nil, nil, txManager, nil, employee.Policy{})

	_, total, err := repo.List(ctx, employee.ListFilter{IncludeInactive: true, Unpaged: true})
	if err != nil {
		log.Fatalf("failed to count employees: %v", err)
	}
	if total > 0 {
		log.Printf("employees already present (%d), skipping seed", total)
		return
	}

	for i := 1; i <= seedCount; i++ {
		in := randomEmployee(i)
		if _, err := svc.CreateEmployee(ctx, in); err != nil {
			log.Fatalf("failed to seed employee %s: %v", in.Email, err)
		}
	}

	log.Printf("seeded %d employees", seedCount)
}

func randomEmployee(seq int) employee.CreateEmployeeInput {
	firstName := firstNames[rand.IntN(len(firstNames))]
	lastName := lastNames[rand.IntN(len(lastNames))]
	department := departments[rand.IntN(len(departments))]
	phone := fmt.Sprintf("(%03d) %03d-%04d", rand.IntN(1000), rand.IntN(1000), rand.IntN(10000))
	dob := randomDate(1980, 20)

	return employee.CreateEmployeeInput{
		FirstName:   firstName,
		LastName:    lastName,
		Email:       fmt.Sprintf("%s.%s%d@example.com", strings.ToLower(firstName), strings.ToLower(lastName), seq),
		Phone:       &phone,
		DateOfBirth: &dob,
		HireDate:    randomDate(2020, 5),
		JobTitle:    fmt.Sprintf("%s %s", jobTitles[rand.IntN(len(jobTitles))], department),
		Department:  department,
		Salary:      float64(50000 + rand.IntN(100000)),
	}
}

func randomDate(startYear, yearSpan int) time.Time {
	year := startYear + rand.IntN(yearSpan)
	month := time.Month(1 + rand.IntN(12))
	day := 1 + rand.IntN(28)
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
