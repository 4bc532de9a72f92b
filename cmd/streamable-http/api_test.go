package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/rxtech-lab/actionkeeper/internal/api"
	"github.com/rxtech-lab/actionkeeper/internal/blobstore"
	"github.com/rxtech-lab/actionkeeper/internal/config"
	"github.com/rxtech-lab/actionkeeper/internal/services"
	"github.com/stretchr/testify/suite"
)

const testAPIToken = "streamable-test-token"

type StreamableHTTPTestSuite struct {
	suite.Suite
	db        services.DBService
	apiServer *api.APIServer
	port      int
}

func (suite *StreamableHTTPTestSuite) SetupSuite() {
	db, err := services.NewSqliteDBService(":memory:")
	suite.Require().NoError(err)
	suite.db = db

	cfg := &config.Config{
		AppEnv:             config.EnvDevelopment,
		APIToken:           testAPIToken,
		RateLimitPerMinute: 0,
		VerifyBaseURL:      "https://keeper.example.com/api/v1",
		WebhookSecret:      config.DefaultWebhookSecret,
		WebhookTolerance:   config.DefaultWebhookTolerance,
		Artifacts: blobstore.Config{
			Type: blobstore.StoreTypeFS,
			Dir:  suite.T().TempDir(),
		},
	}

	apiServer, port, err := configureAndStartServer(cfg, db, 0)
	suite.Require().NoError(err)
	suite.Require().NotZero(port, "Port should not be 0")

	suite.apiServer = apiServer
	suite.port = port

	// Wait for server to be ready
	time.Sleep(100 * time.Millisecond)
}

func (suite *StreamableHTTPTestSuite) TearDownSuite() {
	if suite.apiServer != nil {
		suite.apiServer.Shutdown()
	}
	if suite.db != nil {
		suite.db.Close()
	}
}

func (suite *StreamableHTTPTestSuite) initializeRequest(authorization string) *http.Response {
	mcpRequest := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "initialize",
		"params": map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities":    map[string]interface{}{},
			"clientInfo": map[string]interface{}{
				"name":    "test-client",
				"version": "1.0.0",
			},
		},
	}

	requestBody, err := json.Marshal(mcpRequest)
	suite.Require().NoError(err)

	req, err := http.NewRequest("POST", suite.getBaseURL()+"/mcp", bytes.NewBuffer(requestBody))
	suite.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	suite.Require().NoError(err)
	return resp
}

func (suite *StreamableHTTPTestSuite) TestMCPEndpointRequiresAuthentication() {
	resp := suite.initializeRequest("")
	defer resp.Body.Close()

	suite.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (suite *StreamableHTTPTestSuite) TestMCPEndpointWithInvalidToken() {
	resp := suite.initializeRequest("Bearer invalid-token")
	defer resp.Body.Close()

	suite.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (suite *StreamableHTTPTestSuite) TestMCPEndpointWithEmptyBearerToken() {
	resp := suite.initializeRequest("Bearer ")
	defer resp.Body.Close()

	suite.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (suite *StreamableHTTPTestSuite) TestMCPEndpointWithValidToken() {
	resp := suite.initializeRequest("Bearer " + testAPIToken)
	defer resp.Body.Close()

	suite.NotEqual(http.StatusUnauthorized, resp.StatusCode)
	suite.NotEqual(http.StatusNotFound, resp.StatusCode)
}

func (suite *StreamableHTTPTestSuite) TestMCPSubpathAuthentication() {
	client := &http.Client{Timeout: 10 * time.Second}

	for _, path := range []string{"/mcp/sse", "/mcp/ws", "/mcp/status"} {
		req, err := http.NewRequest("GET", suite.getBaseURL()+path, nil)
		suite.Require().NoError(err)

		resp, err := client.Do(req)
		suite.Require().NoError(err)
		resp.Body.Close()

		suite.Equal(http.StatusUnauthorized, resp.StatusCode, "Path %s should require authentication", path)
	}
}

func (suite *StreamableHTTPTestSuite) TestAPIRequiresToken() {
	client := &http.Client{Timeout: 10 * time.Second}

	resp, err := client.Get(suite.getBaseURL() + "/api/v1/agreements")
	suite.Require().NoError(err)
	resp.Body.Close()
	suite.Equal(http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest("GET", suite.getBaseURL()+"/api/v1/agreements", nil)
	suite.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+testAPIToken)
	resp, err = client.Do(req)
	suite.Require().NoError(err)
	resp.Body.Close()
	suite.Equal(http.StatusOK, resp.StatusCode)

	// verification stays public
	resp, err = client.Get(suite.getBaseURL() + "/api/v1/verify/by-hash/abc")
	suite.Require().NoError(err)
	resp.Body.Close()
	suite.Equal(http.StatusNotFound, resp.StatusCode)
}

func (suite *StreamableHTTPTestSuite) getBaseURL() string {
	return fmt.Sprintf("http://localhost:%d", suite.port)
}

func TestStreamableHTTPTestSuite(t *testing.T) {
	suite.Run(t, new(StreamableHTTPTestSuite))
}
