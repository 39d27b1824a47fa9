package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/msomdec/task-tracker/internal/handler"
	"github.com/msomdec/task-tracker/internal/service"
)

type apiResponse map[string]any

func doJSON(t *testing.T, method, url, token string, body any) (int, apiResponse) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("%s %s: decode response: %v", method, url, err)
	}
	return resp.StatusCode, out
}

func register(t *testing.T, baseURL, username, email, password string) string {
	t.Helper()
	status, body := doJSON(t, http.MethodPost, baseURL+"/auth/register", "", map[string]string{
		"username": username, "email": email, "password": password,
	})
	if status != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d (%v)", username, status, body)
	}
	return body["token"].(string)
}

func TestIntegration_RegisterLoginCreateList(t *testing.T) {
	srv := newTestEnv(t).server(t, nil)

	// 1. Register.
	status, body := doJSON(t, http.MethodPost, srv.URL+"/auth/register", "", map[string]string{
		"username": "alice", "email": "a@x.com", "password": "pw123456",
	})
	if status != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", status)
	}
	if body["message"] != "User created successfully" {
		t.Fatalf("register: unexpected message %v", body["message"])
	}
	if tok, _ := body["token"].(string); tok == "" {
		t.Fatal("register: expected token")
	}
	user := body["user"].(map[string]any)
	if user["username"] != "alice" || user["email"] != "a@x.com" || user["id"] == nil {
		t.Fatalf("register: unexpected user %v", user)
	}
	if _, leaked := user["password_hash"]; leaked {
		t.Fatal("register: password hash must not be returned")
	}

	// 2. Login.
	status, body = doJSON(t, http.MethodPost, srv.URL+"/auth/login", "", map[string]string{
		"email": "a@x.com", "password": "pw123456",
	})
	if status != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", status)
	}
	if body["message"] != "Login successful" {
		t.Fatalf("login: unexpected message %v", body["message"])
	}
	token := body["token"].(string)

	// 3. Create a task.
	status, body = doJSON(t, http.MethodPost, srv.URL+"/tasks", token, map[string]string{"title": "buy milk"})
	if status != http.StatusCreated {
		t.Fatalf("create task: expected 201, got %d (%v)", status, body)
	}
	if body["success"] != true || body["message"] != "Task created successfully" {
		t.Fatalf("create task: unexpected body %v", body)
	}
	task := body["task"].(map[string]any)
	if task["status"] != "pending" || task["priority"] != "medium" || task["description"] != "" {
		t.Fatalf("create task: unexpected defaults %v", task)
	}

	// 4. List tasks.
	status, body = doJSON(t, http.MethodGet, srv.URL+"/tasks", token, nil)
	if status != http.StatusOK {
		t.Fatalf("list tasks: expected 200, got %d", status)
	}
	if body["success"] != true || body["count"] != float64(1) {
		t.Fatalf("list tasks: unexpected body %v", body)
	}
	tasks := body["tasks"].([]any)
	if tasks[0].(map[string]any)["title"] != "buy milk" {
		t.Fatalf("list tasks: unexpected first task %v", tasks[0])
	}

	// 5. Who am I.
	status, body = doJSON(t, http.MethodGet, srv.URL+"/auth/me", token, nil)
	if status != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", status)
	}
	if body["user"].(map[string]any)["username"] != "alice" {
		t.Fatalf("me: unexpected body %v", body)
	}
}

func TestIntegration_RegisterValidation(t *testing.T) {
	srv := newTestEnv(t).server(t, nil)

	bodies := []any{
		map[string]string{"email": "a@x.com", "password": "pw"},
		map[string]string{"username": "a", "password": "pw"},
		map[string]string{"username": "a", "email": "a@x.com"},
		map[string]string{"username": "", "email": "a@x.com", "password": "pw"},
		"not json",
		"",
	}
	for _, b := range bodies {
		status, body := doJSON(t, http.MethodPost, srv.URL+"/auth/register", "", b)
		if status != http.StatusBadRequest {
			t.Fatalf("body %v: expected 400, got %d", b, status)
		}
		if body["message"] != "Username, email and password required" {
			t.Fatalf("body %v: unexpected message %v", b, body["message"])
		}
	}
}

func TestIntegration_RegisterDuplicate(t *testing.T) {
	srv := newTestEnv(t).server(t, nil)
	register(t, srv.URL, "dup", "dup@example.com", "password123")

	for _, b := range []map[string]string{
		{"username": "other", "email": "dup@example.com", "password": "password123"},
		{"username": "dup", "email": "other@example.com", "password": "password123"},
	} {
		status, body := doJSON(t, http.MethodPost, srv.URL+"/auth/register", "", b)
		if status != http.StatusBadRequest {
			t.Fatalf("%v: expected 400, got %d", b, status)
		}
		if body["message"] != "Username or email already exists" {
			t.Fatalf("%v: unexpected message %v", b, body["message"])
		}
	}
}

func TestIntegration_LoginFailuresAreIndistinguishable(t *testing.T) {
	srv := newTestEnv(t).server(t, nil)
	register(t, srv.URL, "bob", "bob@example.com", "password123")

	wrongStatus, wrongBody := doJSON(t, http.MethodPost, srv.URL+"/auth/login", "", map[string]string{
		"email": "bob@example.com", "password": "nope",
	})
	unknownStatus, unknownBody := doJSON(t, http.MethodPost, srv.URL+"/auth/login", "", map[string]string{
		"email": "nobody@example.com", "password": "password123",
	})

	if wrongStatus != http.StatusUnauthorized || unknownStatus != http.StatusUnauthorized {
		t.Fatalf("expected 401/401, got %d/%d", wrongStatus, unknownStatus)
	}
	if wrongBody["message"] != "Invalid credentials" || unknownBody["message"] != "Invalid credentials" {
		t.Fatalf("unexpected messages %v / %v", wrongBody["message"], unknownBody["message"])
	}
}

func TestIntegration_LoginValidation(t *testing.T) {
	srv := newTestEnv(t).server(t, nil)

	status, body := doJSON(t, http.MethodPost, srv.URL+"/auth/login", "", map[string]string{"email": "x@example.com"})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if body["message"] != "Email and password required" {
		t.Fatalf("unexpected message %v", body["message"])
	}
}

func TestIntegration_TasksRequireToken(t *testing.T) {
	srv := newTestEnv(t).server(t, nil)

	status, body := doJSON(t, http.MethodGet, srv.URL+"/tasks", "", nil)
	if status != http.StatusUnauthorized || body["message"] != "Token is missing" {
		t.Fatalf("no header: got %d %v", status, body)
	}

	status, body = doJSON(t, http.MethodGet, srv.URL+"/tasks", "garbage", nil)
	if status != http.StatusUnauthorized || body["message"] != "Token is invalid" {
		t.Fatalf("garbage token: got %d %v", status, body)
	}

	status, body = doJSON(t, http.MethodPost, srv.URL+"/tasks", "", map[string]string{"title": "x"})
	if status != http.StatusUnauthorized || body["message"] != "Token is missing" {
		t.Fatalf("create without header: got %d %v", status, body)
	}
}

func TestIntegration_CreateTaskRequiresTitle(t *testing.T) {
	srv := newTestEnv(t).server(t, nil)
	token := register(t, srv.URL, "carol", "carol@example.com", "password123")

	for _, b := range []any{map[string]string{"description": "no title"}, map[string]string{"title": ""}, "{", `{"title":"a"} {"x":1}`, `{"title":"a"}]`} {
		status, body := doJSON(t, http.MethodPost, srv.URL+"/tasks", token, b)
		if status != http.StatusBadRequest || body["message"] != "Title is required" {
			t.Fatalf("body %v: got %d %v", b, status, body)
		}
	}
}

func TestIntegration_TrailingDataCreatesNothing(t *testing.T) {
	srv := newTestEnv(t).server(t, nil)
	token := register(t, srv.URL, "frank", "frank@example.com", "password123")

	if status, _ := doJSON(t, http.MethodPost, srv.URL+"/tasks", token, `{"title":"a"} {"x":1}`); status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}

	_, body := doJSON(t, http.MethodGet, srv.URL+"/tasks", token, nil)
	if body["count"] != float64(0) {
		t.Fatalf("rejected body must not create a task: %v", body)
	}
}

func TestIntegration_TaskIsolation(t *testing.T) {
	srv := newTestEnv(t).server(t, nil)
	tokenA := register(t, srv.URL, "usera", "a@example.com", "password123")
	tokenB := register(t, srv.URL, "userb", "b@example.com", "password123")

	status, _ := doJSON(t, http.MethodPost, srv.URL+"/tasks", tokenA, map[string]string{"title": "A's secret"})
	if status != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", status)
	}

	status, body := doJSON(t, http.MethodGet, srv.URL+"/tasks", tokenB, nil)
	if status != http.StatusOK {
		t.Fatalf("list B: expected 200, got %d", status)
	}
	if body["count"] != float64(0) || len(body["tasks"].([]any)) != 0 {
		t.Fatalf("user B must not see A's tasks: %v", body)
	}
}

func TestIntegration_ListOrdering(t *testing.T) {
	srv := newTestEnv(t).server(t, nil)
	token := register(t, srv.URL, "dave", "dave@example.com", "password123")

	for _, title := range []string{"t1", "t2", "t3"} {
		if status, _ := doJSON(t, http.MethodPost, srv.URL+"/tasks", token, map[string]string{"title": title}); status != http.StatusCreated {
			t.Fatalf("create %s: expected 201, got %d", title, status)
		}
	}

	_, body := doJSON(t, http.MethodGet, srv.URL+"/tasks", token, nil)
	tasks := body["tasks"].([]any)
	want := []string{"t3", "t2", "t1"}
	if len(tasks) != len(want) || body["count"] != float64(len(want)) {
		t.Fatalf("expected %d tasks, got %d (count %v)", len(want), len(tasks), body["count"])
	}
	for i, task := range tasks {
		if got := task.(map[string]any)["title"]; got != want[i] {
			t.Fatalf("position %d: expected %s, got %v", i, want[i], got)
		}
	}
}

func TestIntegration_AuthRateLimited(t *testing.T) {
	limiter := service.NewTokenBucket(0, 2)
	defer limiter.Stop()
	srv := newTestEnv(t).server(t, limiter)

	creds := map[string]string{"email": "x@example.com", "password": "password123"}
	for i := 0; i < 2; i++ {
		if status, _ := doJSON(t, http.MethodPost, srv.URL+"/auth/login", "", creds); status != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, status)
		}
	}

	status, body := doJSON(t, http.MethodPost, srv.URL+"/auth/login", "", creds)
	if status != http.StatusTooManyRequests || body["message"] != "Too many requests" {
		t.Fatalf("expected 429, got %d %v", status, body)
	}
}

func TestIntegration_OversizedBodyRejected(t *testing.T) {
	env := newTestEnv(t)
	res, err := env.auth.Register(context.Background(), "erin", "erin@example.com", "password123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, env.auth, env.tasks, env.db, nil)

	huge := `{"title":"` + strings.Repeat("x", 2<<20) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/tasks", strings.NewReader(huge))
	req.Header.Set("Authorization", "Bearer "+res.Token)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized body, got %d", rec.Code)
	}
	if body := decodeBody(t, rec.Body); body["message"] != "Title is required" {
		t.Fatalf("unexpected message %v", body["message"])
	}
}
