package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brickify/web/internal/models"
	"github.com/brickify/web/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Analyze(t *testing.T) {
	mock := testutil.NewMockBackend()
	defer mock.Close()

	c := New(mock.URL())
	file := models.NewSelectedFile("bricks.png", "image/png", make([]byte, 2048))

	result, err := c.Analyze(context.Background(), "tok", file)
	require.NoError(t, err)
	assert.JSONEq(t, testutil.DefaultAnalysis, string(result))

	images := mock.Images()
	require.Len(t, images, 1)
	assert.Equal(t, "bricks.png", images[0].Filename)
	assert.Equal(t, "image/png", images[0].ContentType)
	assert.Equal(t, 2048, images[0].Size)
	assert.Equal(t, "Bearer tok", images[0].Authorization)
}

func TestClient_Analyze_Anonymous(t *testing.T) {
	mock := testutil.NewMockBackend()
	defer mock.Close()

	c := New(mock.URL())
	_, err := c.Analyze(context.Background(), "", models.NewSelectedFile("a.jpg", "image/jpeg", []byte("x")))
	require.NoError(t, err)
	assert.Empty(t, mock.Images()[0].Authorization)
}

func TestClient_Analyze_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantMsg    string
	}{
		{"server error with detail", http.StatusInternalServerError, `{"detail":"model crashed"}`, 500, "model crashed"},
		{"bad gateway plain text", http.StatusBadGateway, `upstream down`, 502, "502 Bad Gateway"},
		{"message envelope", http.StatusBadRequest, `{"message":"bad image"}`, 400, "bad image"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testutil.NewMockBackend()
			defer mock.Close()
			mock.SetAnalyzeResponse(tt.status, tt.body)

			c := New(mock.URL())
			_, err := c.Analyze(context.Background(), "", models.NewSelectedFile("a.png", "image/png", []byte("x")))

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr), "expected APIError, got %T", err)
			assert.Equal(t, tt.wantStatus, apiErr.Status)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
		})
	}
}

func TestClient_Analyze_NonJSONSuccess(t *testing.T) {
	mock := testutil.NewMockBackend()
	defer mock.Close()
	mock.SetAnalyzeResponse(http.StatusOK, "<html>oops</html>")

	c := New(mock.URL())
	_, err := c.Analyze(context.Background(), "", models.NewSelectedFile("a.png", "image/png", []byte("x")))
	assert.Error(t, err)
}

func TestClient_Login(t *testing.T) {
	mock := testutil.NewMockBackend()
	defer mock.Close()
	mock.AddUser("ada@example.com", "secret")

	c := New(mock.URL())

	token, err := c.Login(context.Background(), models.Credentials{Email: "ada@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "token-ada@example.com", token)

	_, err = c.Login(context.Background(), models.Credentials{Email: "ada@example.com", Password: "wrong"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestClient_Login_AccessTokenField(t *testing.T) {
	mock := testutil.NewMockBackend()
	defer mock.Close()
	mock.AddUser("ada@example.com", "secret")
	mock.UseAccessTokenField()

	token, err := New(mock.URL()).Login(context.Background(), models.Credentials{Email: "ada@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "token-ada@example.com", token)
}

func TestClient_Login_NoToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Login(context.Background(), models.Credentials{Email: "a", Password: "b"})
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestClient_Register(t *testing.T) {
	mock := testutil.NewMockBackend()
	defer mock.Close()
	c := New(mock.URL())

	acct, err := c.Register(context.Background(), models.Registration{Email: "bo@example.com", Password: "pw", FullName: "Bo"})
	require.NoError(t, err)
	assert.Equal(t, "bo@example.com", acct.Email)
	assert.Equal(t, "Bo", acct.FullName)

	_, err = c.Register(context.Background(), models.Registration{Email: "bo@example.com", Password: "pw"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Email already registered", apiErr.Message)
}

func TestClient_Health(t *testing.T) {
	mock := testutil.NewMockBackend()
	defer mock.Close()
	c := New(mock.URL())

	assert.NoError(t, c.Health(context.Background()))
	mock.SetHealthy(false)
	assert.Error(t, c.Health(context.Background()))
}

func TestClient_Timeout(t *testing.T) {
	mock := testutil.NewMockBackend()
	defer mock.Close()
	_, release := mock.HoldAnalyze()
	defer release()

	c := New(mock.URL(), WithTimeout(50*time.Millisecond))
	_, err := c.Analyze(context.Background(), "", models.NewSelectedFile("a.png", "image/png", []byte("x")))
	assert.Error(t, err)
}

func TestNew_Defaults(t *testing.T) {
	c := New("")
	assert.Equal(t, DefaultBaseURL, c.BaseURL)
	assert.Equal(t, 30*time.Second, c.HTTPClient.Timeout)

	c = New("http://api.example.com/")
	assert.Equal(t, "http://api.example.com", c.BaseURL)
}
