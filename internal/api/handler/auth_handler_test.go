package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/chatrelay/chat-system/internal/core/domain"
)

type stubAuthService struct {
	signupFn func(ctx context.Context, username, email, password string) (*domain.Account, error)
	loginFn  func(ctx context.Context, username, password string) (string, *domain.Account, error)
}

func (s *stubAuthService) Signup(ctx context.Context, username, email, password string) (*domain.Account, error) {
	return s.signupFn(ctx, username, email, password)
}

func (s *stubAuthService) Login(ctx context.Context, username, password string) (string, *domain.Account, error) {
	return s.loginFn(ctx, username, password)
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func TestAuthHandler_Signup_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		signupFn: func(ctx context.Context, username, email, password string) (*domain.Account, error) {
			if username != "alice" || email != "a@example.com" || password != "secret" {
				t.Fatalf("unexpected args: %s %s %s", username, email, password)
			}
			return &domain.Account{ID: "1", Username: username, Email: email}, nil
		},
	}
	handler := NewAuthHandler(stub)

	body := strings.NewReader(`{"username":"alice","email":"a@example.com","password":"secret"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/signup", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.Signup(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	account, ok := resp["account"].(map[string]any)
	if !ok {
		t.Fatalf("expected account in response")
	}
	if account["username"] != "alice" || account["email"] != "a@example.com" {
		t.Fatalf("unexpected account payload: %+v", account)
	}
}

func TestAuthHandler_Signup_MissingFields(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		signupFn: func(ctx context.Context, username, email, password string) (*domain.Account, error) {
			t.Fatalf("service should not be called on invalid input")
			return nil, nil
		},
	}
	handler := NewAuthHandler(stub)

	for _, body := range []string{
		`{"email":"a@example.com","password":"x"}`,
		`{"username":"alice","password":"x"}`,
		`{"username":"alice","email":"a@example.com"}`,
		`{"username":"alice","email":"not-an-email","password":"x"}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Signup(c)
		if err == nil {
			t.Fatalf("expected validation error for body %s", body)
		}
		var he *echo.HTTPError
		if !isHTTPError(err, &he) || he.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for body %s, got %v", body, err)
		}
	}
}

func TestAuthHandler_Signup_Duplicate(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		signupFn: func(ctx context.Context, username, email, password string) (*domain.Account, error) {
			return nil, domain.ErrAccountExists
		},
	}
	handler := NewAuthHandler(stub)

	body := strings.NewReader(`{"username":"bob","email":"b@example.com","password":"x"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/signup", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := handler.Signup(c)
	if err != domain.ErrAccountExists {
		t.Fatalf("expected ErrAccountExists to propagate to the error handler, got %v", err)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, username, password string) (string, *domain.Account, error) {
			return "tok123", &domain.Account{Username: username}, nil
		},
	}
	handler := NewAuthHandler(stub)

	body := strings.NewReader(`{"username":"carol","password":"s3cret"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["token"] != "tok123" || resp["identity"] != "carol" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestAuthHandler_Login_Failure(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, username, password string) (string, *domain.Account, error) {
			return "", nil, domain.ErrInvalidCredentials
		},
	}
	handler := NewAuthHandler(stub)

	body := strings.NewReader(`{"username":"ghost","password":"x"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.Login(c); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func isHTTPError(err error, target **echo.HTTPError) bool {
	he, ok := err.(*echo.HTTPError)
	if ok {
		*target = he
	}
	return ok
}
