package app

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/haguru/jungle/config"
	"github.com/haguru/jungle/internal/interfaces/mocks"
	"github.com/haguru/jungle/internal/models"
	"github.com/haguru/jungle/internal/server"
	logger "github.com/haguru/jungle/pkg/zerolog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.ServiceConfig {
	return &config.ServiceConfig{
		ServiceName: "jungle",
		LogLevel:    "info",
		Host:        "127.0.0.1",
		Port:        "0",
		BcryptCost:  4,
		Token:       config.Token{Secret: "ilovescotchyscotch"},
		Database:    config.Database{Type: config.DatabaseTypeMongo},
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("repository config", func(t *testing.T) {
		t.Setenv("JUNGLE_PORT", "9999")
		cfg, err := LoadConfig("../../res/config.yaml")
		require.NoError(t, err)
		assert.Equal(t, "9999", cfg.Port)
		assert.Equal(t, config.DatabaseTypeMongo, cfg.Database.Type)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig("does-not-exist.yaml")
		assert.Error(t, err)
	})

	t.Run("invalid config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("service_name: jungle\nloglevel: info\nport: \"8080\"\ntoken:\n  secret: s\ndatabase:\n  type: redis\n"), 0600))
		_, err := LoadConfig(path)
		assert.Error(t, err)
	})
}

func TestNewApp_InvalidConfig(t *testing.T) {
	_, err := NewApp("does-not-exist.yaml")
	assert.Error(t, err)
}

func TestInitializeIssuer(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)
	keyPath := filepath.Join(t.TempDir(), "jungle_key.pem")
	require.NoError(t, os.WriteFile(keyPath, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}), 0600))

	tests := []struct {
		name    string
		token   config.Token
		wantAlg string
		wantErr bool
	}{
		{name: "shared secret", token: config.Token{Secret: "s"}, wantAlg: "HS256"},
		{name: "key wins over secret", token: config.Token{Secret: "s", PrivateKeyPath: keyPath}, wantAlg: "ES256"},
		{name: "missing key file", token: config.Token{PrivateKeyPath: "missing.pem"}, wantErr: true},
		{name: "nothing configured", token: config.Token{}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issuer, err := initializeIssuer(tt.token)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAlg, issuer.Algorithm())
		})
	}
}

func TestInitializeUserRepo(t *testing.T) {
	for _, dbType := range []string{config.DatabaseTypeMongo, config.DatabaseTypePostgres} {
		t.Run(dbType, func(t *testing.T) {
			cfg := testConfig()
			cfg.Database.Type = dbType

			dbClient := mocks.NewMockDBClient(t)
			dbClient.On("EnsureSchema", mock.Anything, models.UsersCollection, mock.Anything).Return(nil).Once()

			repo, err := initializeUserRepo(cfg, dbClient)
			require.NoError(t, err)
			assert.NotNil(t, repo)
		})
	}

	t.Run("index failure", func(t *testing.T) {
		dbClient := mocks.NewMockDBClient(t)
		dbClient.On("EnsureSchema", mock.Anything, models.UsersCollection, mock.Anything).
			Return(errors.New("not primary")).Once()

		_, err := initializeUserRepo(testConfig(), dbClient)
		assert.Error(t, err)
	})
}

func TestNewApp_Wiring(t *testing.T) {
	repo := mocks.NewMockUserRepository(t)
	repo.On("ListUsers", mock.Anything).Return([]models.User{{ID: "1", Username: "ana1"}}, nil)

	app, err := newApp(testConfig(), logger.NewNopLogger(), repo)
	require.NoError(t, err)
	handler := app.Server.Handler()

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/users", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.True(t, strings.Contains(body, `jungle_http_requests_total{code="200",method="GET",route="GET /api/users"} 1`), body)
	assert.Contains(t, body, "jungle_users_created_total 0")
}

func TestHTTPMiddleware_PanickingRequestIsLogged(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewZerologLoggerWithWriter("jungle", &buf)

	srv := server.NewServer("localhost", "0", log)
	srv.Use(httpMiddleware(log, initializeMetrics("jungle"))...)
	require.NoError(t, srv.AddRoute("GET /boom", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set("X-Request-ID", "req-7")
	rr := httptest.NewRecorder()
	assert.NotPanics(t, func() { srv.Handler().ServeHTTP(rr, req) })

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	out := buf.String()
	assert.Contains(t, out, "Recovered from panic")
	assert.Contains(t, out, "Request failed")
	assert.Contains(t, out, "status=500")
	assert.Equal(t, 2, strings.Count(out, "request_id=req-7"), out)
}

func TestApp_RunContext(t *testing.T) {
	repo := mocks.NewMockUserRepository(t)
	repo.On("Close", mock.Anything).Return(nil).Once()

	app, err := newApp(testConfig(), logger.NewNopLogger(), repo)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.RunContext(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("RunContext did not return after cancellation")
	}
}
