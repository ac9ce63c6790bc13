package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"orgflow/internal/app/server"
	"orgflow/internal/domain/auth"
	"orgflow/internal/platform/config"
	"orgflow/internal/platform/db"
)

const testSecret = "journey-test-secret"

type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Error     map[string]any  `json:"error"`
	RequestID string          `json:"requestId"`
}

type testOrg struct {
	DepartmentID string
	ManagerID    string
	EmployeeID   string
	HRID         string
	AdminID      string
}

func setupApp(t *testing.T) (*server.App, *pgxpool.Pool) {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := db.Migrate(ctx, pool, "../../../migrations"); err != nil {
		t.Fatalf("migrations failed: %v", err)
	}

	cfg := config.Config{
		DatabaseURL:    dbURL,
		JWTSecret:      testSecret,
		Environment:    "test",
		AllowedOrigins: []string{"*"},
		EmailFrom:      "no-reply@orgflow.local",
		MaxBodyBytes:   1 << 20,
	}
	return server.New(cfg, pool), pool
}

func seedOrg(t *testing.T, pool *pgxpool.Pool) testOrg {
	t.Helper()
	ctx := context.Background()
	suffix := time.Now().UnixNano()

	org := testOrg{
		DepartmentID: uuid.NewString(),
		ManagerID:    uuid.NewString(),
		EmployeeID:   uuid.NewString(),
		HRID:         uuid.NewString(),
		AdminID:      uuid.NewString(),
	}

	if _, err := pool.Exec(ctx,
		"INSERT INTO departments (id, name) VALUES ($1, $2)",
		org.DepartmentID, fmt.Sprintf("Engineering-%d", suffix)); err != nil {
		t.Fatalf("failed to seed department: %v", err)
	}

	insert := func(id, first, role string, managerID any) {
		_, err := pool.Exec(ctx, `
      INSERT INTO employees (id, first_name, last_name, email, role, manager_id, department_id, status, created_at)
      VALUES ($1,$2,'Journey',$3,$4,$5,$6,'active',now())
    `, id, first, fmt.Sprintf("%s-%d@example.com", first, suffix), role, managerID, org.DepartmentID)
		if err != nil {
			t.Fatalf("failed to seed employee %s: %v", first, err)
		}
	}
	insert(org.ManagerID, "manager", auth.RoleManager, nil)
	insert(org.EmployeeID, "employee", auth.RoleEmployee, org.ManagerID)
	insert(org.HRID, "hr", auth.RoleHR, nil)
	insert(org.AdminID, "admin", auth.RoleAdmin, nil)

	return org
}

func seedBalance(t *testing.T, pool *pgxpool.Pool, employeeID string, year int) {
	t.Helper()
	yearStart := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	_, err := pool.Exec(context.Background(), `
    INSERT INTO annual_leave_balances (id, employee_id, year_start, year_end, entitlement_days, carry_over_days, used_days, adjustments, updated_at)
    VALUES ($1,$2,$3,$4,20,0,0,'[]'::jsonb,now())
  `, uuid.NewString(), employeeID, yearStart, yearEnd)
	if err != nil {
		t.Fatalf("failed to seed balance: %v", err)
	}
}

func token(t *testing.T, employeeID, role string) string {
	t.Helper()
	signed, err := auth.GenerateToken(testSecret, auth.Claims{EmployeeID: employeeID, Role: role}, time.Hour)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func doJSON(t *testing.T, client *http.Client, method, url, bearer string, body any, want int) envelope {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewBuffer(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	if resp.StatusCode != want {
		t.Fatalf("%s %s: expected status %d, got %d: %s", method, url, want, resp.StatusCode, string(raw))
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return env
}

func errorCode(env envelope) string {
	code, _ := env.Error["code"].(string)
	return code
}

func TestLeaveApprovalJourney(t *testing.T) {
	app, pool := setupApp(t)
	org := seedOrg(t, pool)

	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := ts.Client()

	start := time.Now().UTC().AddDate(0, 1, 0)
	seedBalance(t, pool, org.EmployeeID, start.Year())
	end := start.AddDate(0, 0, 1)

	employeeToken := token(t, org.EmployeeID, auth.RoleEmployee)
	managerToken := token(t, org.ManagerID, auth.RoleManager)
	adminToken := token(t, org.AdminID, auth.RoleAdmin)

	createResp := doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/leave/requests", employeeToken, map[string]any{
		"type":      "annual",
		"startDate": start.Format("2006-01-02"),
		"endDate":   end.Format("2006-01-02"),
		"reason":    "family trip abroad",
	}, http.StatusCreated)
	var created map[string]any
	if err := json.Unmarshal(createResp.Data, &created); err != nil {
		t.Fatalf("failed to decode create response: %v", err)
	}
	requestID, _ := created["id"].(string)
	if requestID == "" {
		t.Fatal("expected leave request id")
	}
	if status, _ := created["status"].(string); status != "pending" {
		t.Fatalf("expected pending request, got %q", status)
	}

	// Only approved requests can be unwound, even by an admin.
	earlyRevert := doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/leave/requests/"+requestID+"/revert", adminToken, nil, http.StatusConflict)
	if code := errorCode(earlyRevert); code != "state_conflict" {
		t.Fatalf("expected state_conflict reverting a pending request, got %q", code)
	}

	pendingResp := doJSON(t, client, http.MethodGet, ts.URL+"/api/v1/approvals/pending", managerToken, nil, http.StatusOK)
	var pending map[string]json.RawMessage
	if err := json.Unmarshal(pendingResp.Data, &pending); err != nil {
		t.Fatalf("failed to decode pending approvals: %v", err)
	}
	var pendingLeaves []map[string]any
	if err := json.Unmarshal(pending["leaves"], &pendingLeaves); err != nil {
		t.Fatalf("failed to decode pending leaves: %v", err)
	}
	found := false
	for _, req := range pendingLeaves {
		if id, _ := req["id"].(string); id == requestID {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected request %s in manager's pending queue", requestID)
	}

	approveResp := doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/leave/requests/"+requestID+"/approve", managerToken, map[string]any{
		"comment": "enjoy",
	}, http.StatusOK)
	var approved map[string]any
	if err := json.Unmarshal(approveResp.Data, &approved); err != nil {
		t.Fatalf("failed to decode approve response: %v", err)
	}
	if status, _ := approved["status"].(string); status != "approved" {
		t.Fatalf("expected approved request, got %q", status)
	}

	secondApprove := doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/leave/requests/"+requestID+"/approve", managerToken, nil, http.StatusConflict)
	if code := errorCode(secondApprove); code != "state_conflict" {
		t.Fatalf("expected state_conflict on double approve, got %q", code)
	}

	balancesResp := doJSON(t, client, http.MethodGet, ts.URL+"/api/v1/leave/balances", employeeToken, nil, http.StatusOK)
	var balances []map[string]any
	if err := json.Unmarshal(balancesResp.Data, &balances); err != nil {
		t.Fatalf("failed to decode balances: %v", err)
	}
	if len(balances) == 0 {
		t.Fatal("expected a balance row")
	}
	used, _ := balances[0]["usedDays"].(float64)
	remaining, _ := balances[0]["remainingDays"].(float64)
	if used != 2 || remaining != 18 {
		t.Fatalf("expected used=2 remaining=18 after approval, got used=%v remaining=%v", used, remaining)
	}

	// Only admin can unwind an approved request.
	managerRevert := doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/leave/requests/"+requestID+"/revert", managerToken, nil, http.StatusForbidden)
	if code := errorCode(managerRevert); code != "forbidden" {
		t.Fatalf("expected forbidden for manager revert, got %q", code)
	}
	doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/leave/requests/"+requestID+"/revert", adminToken, nil, http.StatusOK)

	balancesResp = doJSON(t, client, http.MethodGet, ts.URL+"/api/v1/leave/balances", employeeToken, nil, http.StatusOK)
	if err := json.Unmarshal(balancesResp.Data, &balances); err != nil {
		t.Fatalf("failed to decode balances: %v", err)
	}
	remaining, _ = balances[0]["remainingDays"].(float64)
	if remaining != 20 {
		t.Fatalf("expected remaining=20 after revert, got %v", remaining)
	}
}

func TestExpenseApprovalAndPaymentJourney(t *testing.T) {
	app, pool := setupApp(t)
	org := seedOrg(t, pool)

	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := ts.Client()

	employeeToken := token(t, org.EmployeeID, auth.RoleEmployee)
	managerToken := token(t, org.ManagerID, auth.RoleManager)
	hrToken := token(t, org.HRID, auth.RoleHR)
	adminToken := token(t, org.AdminID, auth.RoleAdmin)

	createResp := doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/expenses", employeeToken, map[string]any{
		"amount":      "142.50",
		"currency":    "EUR",
		"description": "conference travel",
	}, http.StatusCreated)
	var created map[string]any
	if err := json.Unmarshal(createResp.Data, &created); err != nil {
		t.Fatalf("failed to decode create response: %v", err)
	}
	expenseID, _ := created["id"].(string)
	if expenseID == "" {
		t.Fatal("expected expense id")
	}

	// HR approves leave but never money.
	hrApprove := doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/expenses/"+expenseID+"/approve", hrToken, nil, http.StatusForbidden)
	if code := errorCode(hrApprove); code != "forbidden" {
		t.Fatalf("expected forbidden for hr expense approval, got %q", code)
	}

	// Paying an unapproved expense is a state error, not a shortcut.
	earlyPay := doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/expenses/"+expenseID+"/pay", adminToken, nil, http.StatusConflict)
	if code := errorCode(earlyPay); code != "state_conflict" {
		t.Fatalf("expected state_conflict paying a pending expense, got %q", code)
	}

	doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/expenses/"+expenseID+"/approve", managerToken, nil, http.StatusOK)

	managerPay := doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/expenses/"+expenseID+"/pay", managerToken, nil, http.StatusForbidden)
	if code := errorCode(managerPay); code != "forbidden" {
		t.Fatalf("expected forbidden for manager payment, got %q", code)
	}

	payResp := doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/expenses/"+expenseID+"/pay", adminToken, nil, http.StatusOK)
	var paid map[string]any
	if err := json.Unmarshal(payResp.Data, &paid); err != nil {
		t.Fatalf("failed to decode pay response: %v", err)
	}
	if status, _ := paid["status"].(string); status != "paid" {
		t.Fatalf("expected paid expense, got %q", status)
	}

	doublePay := doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/expenses/"+expenseID+"/pay", adminToken, nil, http.StatusConflict)
	if code := errorCode(doublePay); code != "state_conflict" {
		t.Fatalf("expected state_conflict on double payment, got %q", code)
	}
}

func TestAnonymousRequestsAreRejected(t *testing.T) {
	app, _ := setupApp(t)

	ts := httptest.NewServer(app.Router)
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/v1/leave/requests")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous request, got %d", resp.StatusCode)
	}
}
