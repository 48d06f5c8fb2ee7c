package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mvmaia/contas/internal/auth"
	"github.com/mvmaia/contas/internal/extract"
	"github.com/mvmaia/contas/internal/storage/sqlite"
	"github.com/mvmaia/contas/internal/transcribe"
	"github.com/mvmaia/contas/internal/voice"
)

type fakeTranscriber struct {
	sentence string
	err      error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, path string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.sentence, nil
}

type testEnv struct {
	server      *httptest.Server
	transcriber *fakeTranscriber
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tempDir, err := os.MkdirTemp("", "contas-api-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	tokens := auth.NewTokenManager("test-secret", time.Hour)
	transcriber := &fakeTranscriber{}
	pipeline := voice.New(transcriber, extract.New(), store)

	srv := httptest.NewServer(NewServer(store, tokens, pipeline).Router())
	t.Cleanup(srv.Close)

	return &testEnv{server: srv, transcriber: transcriber}
}

func (e *testEnv) request(t *testing.T, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	data, _ := io.ReadAll(resp.Body)
	if len(data) > 0 {
		// Listings decode to arrays; callers needing them re-decode.
		_ = json.Unmarshal(data, &decoded)
		if decoded == nil {
			decoded = map[string]any{"_raw": string(data)}
		}
	}
	return resp, decoded
}

// registerAndLogin creates a user and returns a valid token.
func (e *testEnv) registerAndLogin(t *testing.T, email string) string {
	t.Helper()

	resp, _ := e.request(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"name": "Test", "email": email, "password": "secret123",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", resp.StatusCode)
	}

	resp, body := e.request(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": email, "password": "secret123",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", resp.StatusCode)
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatal("login: expected a token")
	}
	return token
}

func TestRegisterAndLogin(t *testing.T) {
	env := setupTestServer(t)

	t.Run("missing field is 400", func(t *testing.T) {
		resp, _ := env.request(t, http.MethodPost, "/api/auth/register", "", map[string]any{
			"email": "a@example.com",
		})
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("duplicate email is 409", func(t *testing.T) {
		env.registerAndLogin(t, "dup@example.com")
		resp, _ := env.request(t, http.MethodPost, "/api/auth/register", "", map[string]any{
			"name": "Again", "email": "dup@example.com", "password": "secret123",
		})
		if resp.StatusCode != http.StatusConflict {
			t.Errorf("expected 409, got %d", resp.StatusCode)
		}
	})

	t.Run("wrong password is 401", func(t *testing.T) {
		env.registerAndLogin(t, "login@example.com")
		resp, _ := env.request(t, http.MethodPost, "/api/auth/login", "", map[string]any{
			"email": "login@example.com", "password": "wrong",
		})
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("login returns cumulative_budget flag", func(t *testing.T) {
		env.registerAndLogin(t, "flag@example.com")
		resp, body := env.request(t, http.MethodPost, "/api/auth/login", "", map[string]any{
			"email": "flag@example.com", "password": "secret123",
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		if flag, ok := body["cumulative_budget"].(bool); !ok || flag {
			t.Errorf("expected cumulative_budget false, got %v", body["cumulative_budget"])
		}
	})
}

func TestAuthMiddleware(t *testing.T) {
	env := setupTestServer(t)

	t.Run("missing token is 401", func(t *testing.T) {
		resp, _ := env.request(t, http.MethodGet, "/api/categories", "", nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("garbage token is 401", func(t *testing.T) {
		resp, _ := env.request(t, http.MethodGet, "/api/categories", "garbage", nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("extra whitespace in header is tolerated", func(t *testing.T) {
		token := env.registerAndLogin(t, "spaces@example.com")

		req, _ := http.NewRequest(http.MethodGet, env.server.URL+"/api/categories", nil)
		req.Header.Set("Authorization", "Bearer  "+token)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected 200, got %d", resp.StatusCode)
		}
	})
}

func TestToggleCumulativeBudget(t *testing.T) {
	env := setupTestServer(t)
	token := env.registerAndLogin(t, "toggle@example.com")

	resp, body := env.request(t, http.MethodPut, "/api/auth/toggle_cumulative_budget", token, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if flag, _ := body["cumulative_budget"].(bool); !flag {
		t.Error("expected flag to flip to true")
	}
}

func TestCategoryEndpoints(t *testing.T) {
	env := setupTestServer(t)
	token := env.registerAndLogin(t, "cat@example.com")

	t.Run("create returns id", func(t *testing.T) {
		resp, body := env.request(t, http.MethodPost, "/api/categories", token, map[string]any{
			"name": "mercado", "budget_amount": "800.00",
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d", resp.StatusCode)
		}
		if body["id"] == nil {
			t.Error("expected id in response")
		}
	})

	t.Run("duplicate name is 409", func(t *testing.T) {
		resp, _ := env.request(t, http.MethodPost, "/api/categories", token, map[string]any{
			"name": " MERCADO ",
		})
		if resp.StatusCode != http.StatusConflict {
			t.Errorf("expected 409, got %d", resp.StatusCode)
		}
	})

	t.Run("list returns normalized names", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, env.server.URL+"/api/categories", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()

		var categories []map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&categories); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if len(categories) != 1 || categories[0]["name"] != "MERCADO" {
			t.Errorf("unexpected categories: %v", categories)
		}
	})

	t.Run("update unknown id is 404", func(t *testing.T) {
		resp, _ := env.request(t, http.MethodPut, "/api/categories/999", token, map[string]any{
			"name": "novo",
		})
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}
	})

	t.Run("update with no fields is 400", func(t *testing.T) {
		resp, _ := env.request(t, http.MethodPut, "/api/categories/1", token, map[string]any{})
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("delete with bills is 409", func(t *testing.T) {
		resp, _ := env.request(t, http.MethodPost, "/api/bills", token, map[string]any{
			"category_name": "MERCADO", "description": "Compras",
			"amount": "120.50", "transaction_date": "2024-01-10",
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("bill create: expected 201, got %d", resp.StatusCode)
		}

		resp, _ = env.request(t, http.MethodDelete, "/api/categories/1", token, nil)
		if resp.StatusCode != http.StatusConflict {
			t.Errorf("expected 409, got %d", resp.StatusCode)
		}
	})
}

func TestBillEndpoints(t *testing.T) {
	env := setupTestServer(t)
	token := env.registerAndLogin(t, "bills@example.com")

	env.request(t, http.MethodPost, "/api/categories", token, map[string]any{"name": "CONTAS"})

	t.Run("create returns resolved category_id", func(t *testing.T) {
		resp, body := env.request(t, http.MethodPost, "/api/bills", token, map[string]any{
			"category_name": "contas", "description": "Luz",
			"amount": "1234.56", "transaction_date": "2024-01-15",
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d", resp.StatusCode)
		}
		if body["category_id"] == nil {
			t.Error("expected resolved category_id in response")
		}
		if body["amount"] != "1234.56" {
			t.Errorf("expected amount to round-trip, got %v", body["amount"])
		}
		if body["transaction_date"] != "2024-01-15" {
			t.Errorf("expected date 2024-01-15, got %v", body["transaction_date"])
		}
	})

	t.Run("missing field is 400", func(t *testing.T) {
		resp, _ := env.request(t, http.MethodPost, "/api/bills", token, map[string]any{
			"category_name": "CONTAS", "description": "Sem valor",
			"transaction_date": "2024-01-15",
		})
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("unknown category is 404", func(t *testing.T) {
		resp, _ := env.request(t, http.MethodPost, "/api/bills", token, map[string]any{
			"category_name": "NOPE", "description": "X",
			"amount": "10", "transaction_date": "2024-01-15",
		})
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}
	})

	t.Run("date range filter", func(t *testing.T) {
		for _, d := range []string{"2024-01-01", "2024-01-31", "2024-02-05"} {
			env.request(t, http.MethodPost, "/api/bills", token, map[string]any{
				"category_name": "CONTAS", "description": "d " + d,
				"amount": "10", "transaction_date": d,
			})
		}

		req, _ := http.NewRequest(http.MethodGet,
			env.server.URL+"/api/bills?start_date=2024-01-01&final_date=2024-01-31", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()

		var bills []map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&bills); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		// 2024-01-15 from the create subtest plus 01-01 and 01-31.
		if len(bills) != 3 {
			t.Fatalf("expected 3 bills in range, got %d", len(bills))
		}
		if bills[0]["transaction_date"] != "2024-01-31" {
			t.Errorf("expected newest first, got %v", bills[0]["transaction_date"])
		}
	})

	t.Run("cross-user bill is invisible", func(t *testing.T) {
		otherToken := env.registerAndLogin(t, "other@example.com")
		resp, _ := env.request(t, http.MethodDelete, "/api/bills/1", otherToken, nil)
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}
	})

	t.Run("empty transaction_date on create is 400", func(t *testing.T) {
		resp, _ := env.request(t, http.MethodPost, "/api/bills", token, map[string]any{
			"category_name": "CONTAS", "description": "Zerado",
			"amount": "10", "transaction_date": "",
		})
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("empty transaction_date on update is 400", func(t *testing.T) {
		resp, _ := env.request(t, http.MethodPut, "/api/bills/1", token, map[string]any{
			"transaction_date": "",
		})
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.StatusCode)
		}

		// The stored date must be untouched.
		req, _ := http.NewRequest(http.MethodGet,
			env.server.URL+"/api/bills?start_date=2024-01-15&final_date=2024-01-15", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		listResp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer listResp.Body.Close()

		var bills []map[string]any
		if err := json.NewDecoder(listResp.Body).Decode(&bills); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if len(bills) != 1 || bills[0]["transaction_date"] != "2024-01-15" {
			t.Errorf("expected the 2024-01-15 bill to be intact, got %v", bills)
		}
	})

	t.Run("partial update", func(t *testing.T) {
		resp, _ := env.request(t, http.MethodPut, "/api/bills/1", token, map[string]any{
			"description": "Luz e agua",
		})
		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected 200, got %d", resp.StatusCode)
		}
	})

	t.Run("delete", func(t *testing.T) {
		resp, _ := env.request(t, http.MethodDelete, "/api/bills/1", token, nil)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected 200, got %d", resp.StatusCode)
		}
		resp, _ = env.request(t, http.MethodDelete, "/api/bills/1", token, nil)
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404 after delete, got %d", resp.StatusCode)
		}
	})
}

func TestBillFromAudio(t *testing.T) {
	env := setupTestServer(t)
	token := env.registerAndLogin(t, "audio@example.com")
	env.request(t, http.MethodPost, "/api/categories", token, map[string]any{"name": "COMIDA"})

	postAudio := func(t *testing.T) *http.Response {
		t.Helper()
		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		part, err := writer.CreateFormFile("audio", "memo.ogg")
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		part.Write([]byte("fake audio bytes"))
		writer.Close()

		req, _ := http.NewRequest(http.MethodPost, env.server.URL+"/api/bills/audio", &buf)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	t.Run("complete extraction creates a bill", func(t *testing.T) {
		env.transcriber.sentence = "Almoço 25,90 reais comida"
		env.transcriber.err = nil

		resp := postAudio(t)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d", resp.StatusCode)
		}
		var bill map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&bill); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if bill["description"] != "Almoço" || bill["amount"] != "25.90" {
			t.Errorf("unexpected bill: %v", bill)
		}
	})

	t.Run("incomplete extraction is 400", func(t *testing.T) {
		env.transcriber.sentence = "sem valor nem categoria"
		resp := postAudio(t)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("transcription failure is 502", func(t *testing.T) {
		env.transcriber.err = fmt.Errorf("%w: boom", transcribe.ErrTranscription)
		resp := postAudio(t)
		if resp.StatusCode != http.StatusBadGateway {
			t.Errorf("expected 502, got %d", resp.StatusCode)
		}
	})

	t.Run("missing file is 400", func(t *testing.T) {
		resp, _ := env.request(t, http.MethodPost, "/api/bills/audio", token, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})
}
