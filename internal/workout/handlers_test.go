package workout

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"backend-fitquest/internal/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"
)

func TestCompleteHandler(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO workouts`).
		WithArgs(anyArgs(13)...).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectQuery(`INSERT INTO workouts`).
		WithArgs(anyArgs(13)...).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}))

	app := fiber.New()
	RegisterRoutes(app.Group("/workouts"), NewService(mock), auth.JWTMiddleware("secret"))
	token, _ := auth.NewService("secret").IssueAccessToken("user-1", time.Minute)

	body, _ := json.Marshal(samplePayload())
	send := func() *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/workouts/complete", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		return resp
	}

	resp := send()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var ack Ack
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil || ack.SessionID != "run-1" || ack.WorkoutID == "" {
		t.Fatalf("unexpected ack %+v (%v)", ack, err)
	}

	if resp := send(); resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 on duplicate, got %d", resp.StatusCode)
	}

	req := httptest.NewRequest(http.MethodPost, "/workouts/complete", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCompleteHandlerBadBody(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/workouts"), NewService(nil), func(c *fiber.Ctx) error { return c.Next() })

	req := httptest.NewRequest(http.MethodPost, "/workouts/complete", bytes.NewReader([]byte(`{"session_id":""}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
