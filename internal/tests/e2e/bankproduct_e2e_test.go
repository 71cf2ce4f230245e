// Package e2e provides end-to-end tests for the bank product service.
// The real application handler runs in an `httptest.Server` and is driven over HTTP.
// The same scenarios run against the in-memory store and against PostgreSQL started
// with `testcontainers-go`; each test gets an empty store.
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/abgdnv/bankproduct/internal/app"
	"github.com/abgdnv/bankproduct/internal/service"
	"github.com/abgdnv/bankproduct/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// skipE2ETests is the environment variable that can be set to skip container backed E2E tests.
const skipE2ETests = "BANKPRODUCT_SKIP_E2E_TESTS"

// productURL is the base URL of the bank product API.
const productURL = "/api/products"

// BankProductE2ESuite drives the HTTP API against a fresh store per test.
type BankProductE2ESuite struct {
	suite.Suite
	newStore   func() store.ProductStore // returns an empty store
	server     *httptest.Server
	httpClient *http.Client
	logger     *slog.Logger
	ctx        context.Context
}

func (s *BankProductE2ESuite) SetupTest() {
	s.ctx = context.Background()
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	deps := app.SetupDependencies(s.newStore(), s.logger)
	s.server = httptest.NewServer(app.SetupHttpHandler(deps, nil))
	s.httpClient = s.server.Client()
}

func (s *BankProductE2ESuite) TearDownTest() {
	if s.server != nil {
		s.server.Close()
	}
}

// PostgresE2ESuite runs the scenarios against a PostgreSQL container.
type PostgresE2ESuite struct {
	BankProductE2ESuite
	pgContainer *postgres.PostgresContainer
	dbPool      *pgxpool.Pool
}

func (s *PostgresE2ESuite) SetupSuite() {
	ctx := context.Background()
	var err error

	s.pgContainer, err = postgres.Run(ctx,
		"postgres:17.5-alpine",
		postgres.WithDatabase("bank"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to run PostgreSQL container")

	connStr, err := s.pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(s.T(), err, "Failed to get connection string from container")
	require.NoError(s.T(), store.Migrate(connStr), "Failed to apply migrations")

	s.dbPool, err = pgxpool.New(ctx, connStr)
	require.NoError(s.T(), err, "Failed to create pgx pool")

	s.newStore = func() store.ProductStore {
		_, err := s.dbPool.Exec(ctx, "TRUNCATE TABLE bank_products")
		require.NoError(s.T(), err, "Failed to truncate bank_products table")
		return store.NewPgStore(s.dbPool)
	}
}

func (s *PostgresE2ESuite) TearDownSuite() {
	if s.dbPool != nil {
		s.dbPool.Close()
	}
	if s.pgContainer != nil {
		if err := s.pgContainer.Terminate(context.Background()); err != nil {
			s.T().Logf("Failed to terminate PostgreSQL container: %v", err)
		}
	}
}

func TestBankProductE2E_InMemory(t *testing.T) {
	suite.Run(t, &BankProductE2ESuite{
		newStore: func() store.ProductStore { return store.NewInMemoryStore() },
	})
}

func TestBankProductE2E_Postgres(t *testing.T) {
	if testing.Short() || os.Getenv(skipE2ETests) == "1" {
		t.Skip("Skipping container backed E2E tests based on " + skipE2ETests + " env var")
	}
	suite.Run(t, new(PostgresE2ESuite))
}

// --------------------------------------------------------------------------
// ------------------------------- Scenarios ---------------------------------
// --------------------------------------------------------------------------

func (s *BankProductE2ESuite) TestCreate_ReturnsCreatedEnvelope() {
	// given
	payload := map[string]any{"name": "Ahorro", "productType": "Cuenta", "comision": 0, "limitMovimientos": 5}

	// when
	resp, body := s.doRequest(http.MethodPost, productURL, payload)

	// then
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	var envelope createdEnvelope
	s.Require().NoError(json.Unmarshal(body, &envelope))
	s.NotEmpty(envelope.Producto.ID)
	s.Equal("Ahorro", envelope.Producto.Name)
	s.Equal("Cuenta", envelope.Producto.ProductType)
	s.Equal(int32(5), envelope.Producto.LimitMovimientos)
	s.WithinDuration(time.Now(), envelope.Producto.CreatedAt, 5*time.Second)
	s.Equal("Producto creado con éxito", envelope.Mensaje)
	s.False(envelope.Timestamp.IsZero())
	s.Equal(productURL+"/"+envelope.Producto.ID, resp.Header.Get("Location"))

	found, status := s.findByID(envelope.Producto.ID)
	s.Equal(http.StatusOK, status)
	s.Equal(envelope.Producto.ID, found.ID)
}

func (s *BankProductE2ESuite) TestCreate_PreservesSuppliedCreatedAt() {
	supplied := time.Date(2020, 1, 15, 9, 30, 0, 0, time.UTC)
	payload := map[string]any{"name": "Plazo", "productType": "Deposito", "createdAt": supplied.Format(time.RFC3339)}

	resp, body := s.doRequest(http.MethodPost, productURL, payload)

	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	var envelope createdEnvelope
	s.Require().NoError(json.Unmarshal(body, &envelope))
	found, status := s.findByID(envelope.Producto.ID)
	s.Require().Equal(http.StatusOK, status)
	s.True(supplied.Equal(found.CreatedAt), "createdAt %v should equal %v", found.CreatedAt, supplied)
}

func (s *BankProductE2ESuite) TestCreate_Invalid() {
	testCases := []struct {
		name           string
		payload        any
		expectedErrors []string
	}{
		{
			name:           "blank name",
			payload:        map[string]any{"name": "  ", "productType": "Cuenta", "comision": 0, "limitMovimientos": 5},
			expectedErrors: []string{"field name must not be blank"},
		},
		{
			name:           "missing name and type",
			payload:        map[string]any{"comision": 1},
			expectedErrors: []string{"field name must not be empty", "field productType must not be empty"},
		},
		{
			name:           "comision is not a number",
			payload:        map[string]any{"name": "Ahorro", "productType": "Cuenta", "comision": "abc"},
			expectedErrors: []string{"field comision must be a number"},
		},
		{
			name: "every bad field reported together",
			payload: map[string]any{
				"name": "", "productType": "Cuenta", "comision": "abc", "limitMovimientos": "x", "createdAt": "yesterday",
			},
			expectedErrors: []string{
				"field comision must be a number",
				"field limitMovimientos must be a number",
				"field createdAt must be an RFC 3339 timestamp",
				"field name must not be empty",
			},
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			resp, body := s.doRequest(http.MethodPost, productURL, tc.payload)

			s.Equal(http.StatusBadRequest, resp.StatusCode)
			var envelope rejectedEnvelope
			s.Require().NoError(json.Unmarshal(body, &envelope))
			s.Equal(tc.expectedErrors, envelope.Errors)
			s.Equal(http.StatusBadRequest, envelope.Status)
			s.False(envelope.Timestamp.IsZero())
			s.Empty(s.findAll(), "nothing may be stored")
		})
	}
}

func (s *BankProductE2ESuite) TestFindByID_Nonexistent() {
	for _, id := range []string{"nonexistent", "00000000-0000-0000-0000-000000000000"} {
		resp, body := s.doRequest(http.MethodGet, productURL+"/"+id, nil)

		s.Equal(http.StatusNotFound, resp.StatusCode, "id %s", id)
		s.Empty(body)
	}
}

func (s *BankProductE2ESuite) TestFindAll() {
	s.Equal([]service.ProductDto{}, s.findAll(), "empty store lists as an empty array")

	first := s.create("Ahorro", "Cuenta")
	second := s.create("Corriente", "Cuenta")

	list := s.findAll()
	s.Require().Len(list, 2)
	s.Equal(first.ID, list[0].ID)
	s.Equal(second.ID, list[1].ID)
}

func (s *BankProductE2ESuite) TestUpdate() {
	created := s.create("Ahorro", "Cuenta")
	payload := map[string]any{"name": "Ahorro Plus", "productType": "Cuenta Premium", "comision": 2.5, "limitMovimientos": 50}

	resp, body := s.doRequest(http.MethodPut, productURL+"/"+created.ID, payload)

	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	s.Equal(productURL+"/"+created.ID, resp.Header.Get("Location"))
	var updated service.ProductDto
	s.Require().NoError(json.Unmarshal(body, &updated))
	s.Equal(created.ID, updated.ID)
	s.True(created.CreatedAt.Equal(updated.CreatedAt))
	s.Equal("Ahorro Plus", updated.Name)
	s.Equal("Cuenta Premium", updated.ProductType)
	s.InDelta(2.5, updated.Comision, 1e-9)
	s.Equal(int32(50), updated.LimitMovimientos)

	found, _ := s.findByID(created.ID)
	s.Equal(updated.Name, found.Name)
}

func (s *BankProductE2ESuite) TestUpdate_Nonexistent() {
	payload := map[string]any{"name": "Ahorro", "productType": "Cuenta"}

	resp, body := s.doRequest(http.MethodPut, productURL+"/nonexistent", payload)

	s.Equal(http.StatusNotFound, resp.StatusCode)
	s.Empty(body)
	s.Empty(s.findAll())
}

func (s *BankProductE2ESuite) TestDelete_Twice() {
	created := s.create("Ahorro", "Cuenta")

	first, firstBody := s.doRequest(http.MethodDelete, productURL+"/"+created.ID, nil)
	second, secondBody := s.doRequest(http.MethodDelete, productURL+"/"+created.ID, nil)

	s.Equal(http.StatusNoContent, first.StatusCode)
	s.Empty(firstBody)
	s.Equal(http.StatusNotFound, second.StatusCode)
	s.Empty(secondBody)
	_, status := s.findByID(created.ID)
	s.Equal(http.StatusNotFound, status)
}

func (s *BankProductE2ESuite) TestHealthz() {
	resp, _ := s.doRequest(http.MethodGet, "/healthz", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.NotEmpty(resp.Header.Get("X-Request-Id"))
}

// --------------------------------------------------------------------------
// ---------- Payload structures and Helper methods for E2E tests -----------
// --------------------------------------------------------------------------

type createdEnvelope struct {
	Producto  service.ProductDto `json:"producto"`
	Mensaje   string             `json:"mensaje"`
	Timestamp time.Time          `json:"timestamp"`
}

type rejectedEnvelope struct {
	Errors    []string  `json:"errors"`
	Status    int       `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// create is a helper method that creates a product and returns it.
func (s *BankProductE2ESuite) create(name, productType string) service.ProductDto {
	s.T().Helper()
	resp, body := s.doRequest(http.MethodPost, productURL, map[string]any{"name": name, "productType": productType})
	s.Require().Equal(http.StatusCreated, resp.StatusCode, string(body))
	var envelope createdEnvelope
	s.Require().NoError(json.Unmarshal(body, &envelope))
	return envelope.Producto
}

// findByID is a helper method to fetch a product by its ID.
// Returns the ProductDto and the HTTP status code.
func (s *BankProductE2ESuite) findByID(id string) (service.ProductDto, int) {
	s.T().Helper()
	resp, body := s.doRequest(http.MethodGet, productURL+"/"+id, nil)
	var product service.ProductDto
	if resp.StatusCode == http.StatusOK {
		s.Require().NoError(json.Unmarshal(body, &product))
	}
	return product, resp.StatusCode
}

// findAll is a helper method to fetch every product.
func (s *BankProductE2ESuite) findAll() []service.ProductDto {
	s.T().Helper()
	resp, body := s.doRequest(http.MethodGet, productURL, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	products := []service.ProductDto{}
	s.Require().NoError(json.Unmarshal(body, &products))
	return products
}

// doRequest is a helper method to make an HTTP request to the service.
// Returns the response and its body.
func (s *BankProductE2ESuite) doRequest(method, path string, payload any) (*http.Response, []byte) {
	s.T().Helper()
	var body io.Reader
	if payload != nil {
		payloadBytes, err := json.Marshal(payload)
		require.NoError(s.T(), err)
		body = bytes.NewBuffer(payloadBytes)
	}

	req, err := http.NewRequestWithContext(s.ctx, method, s.server.URL+path, body)
	require.NoError(s.T(), err, "Failed to create HTTP request")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err, "HTTP request failed")
	defer func() {
		assert.NoError(s.T(), resp.Body.Close(), "Failed to close response body")
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err, "Failed to read response body")
	return resp, bodyBytes
}
