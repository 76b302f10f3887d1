package repositories_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/repokit/repokit/internal/git"
	"github.com/repokit/repokit/internal/operations"
	"github.com/repokit/repokit/internal/repos"
	handlersops "github.com/repokit/repokit/internal/server/handlers/operations"
	"github.com/repokit/repokit/internal/server/handlers/repositories"
	"github.com/repokit/repokit/internal/status"
	"github.com/repokit/repokit/internal/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type server struct {
	app    *fiber.App
	runner *operations.Runner
}

func newServer(t *testing.T) *server {
	t.Helper()

	logger := zaptest.NewLogger(t)
	v := validator.New()

	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	journal := operations.NewJournal(db, operations.Config{})
	runner := operations.NewRunner(journal, nil, nil, logger)
	t.Cleanup(runner.Wait)

	ws, err := workspace.New(workspace.Config{Root: filepath.Join(t.TempDir(), "repos")}, logger)
	require.NoError(t, err)

	gitSvc := git.NewService(git.Config{
		Author: git.AuthorConfig{Name: "Test Author", Email: "test@example.com"},
	}, logger)
	svc := repos.NewService(gitSvc, runner, operations.NewHistory(journal), v, logger)
	owner := operations.NewOwner(operations.Inline{}, nil)

	app := fiber.New()
	v1 := app.Group("/api/v1")
	repositories.NewHandler(svc, ws, owner, v, logger).Register(v1)
	handlersops.NewHandler(svc, logger).Register(v1)

	return &server{app: app, runner: runner}
}

func (s *server) do(t *testing.T, method, target, body string) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, data
}

func TestInitAndStatus(t *testing.T) {
	s := newServer(t)

	code, body := s.do(t, http.MethodPost, "/api/v1/repositories/demo/init", "")
	require.Equal(t, http.StatusAccepted, code, string(body))

	var accepted repositories.AcceptedResponse
	require.NoError(t, json.Unmarshal(body, &accepted))
	require.NotEqual(t, uuid.Nil, accepted.OperationID)

	s.runner.Wait()

	code, body = s.do(t, http.MethodGet, "/api/v1/repositories/demo/status", "")
	require.Equal(t, http.StatusOK, code, string(body))

	var st repositories.StatusResponse
	require.NoError(t, json.Unmarshal(body, &st))
	assert.True(t, st.Clean)
	assert.Equal(t, status.None, st.Display.Untracked)

	code, body = s.do(t, http.MethodGet, "/api/v1/operations/"+accepted.OperationID.String(), "")
	require.Equal(t, http.StatusOK, code, string(body))

	var op repositories.OperationResponse
	require.NoError(t, json.Unmarshal(body, &op))
	assert.Equal(t, operations.KindInit, op.Kind)
	assert.Equal(t, operations.StateDelivered, op.State)

	code, body = s.do(t, http.MethodGet, "/api/v1/repositories/demo/operations?limit=10", "")
	require.Equal(t, http.StatusOK, code, string(body))

	var history []repositories.OperationResponse
	require.NoError(t, json.Unmarshal(body, &history))
	assert.Len(t, history, 1)

	code, body = s.do(t, http.MethodGet, "/api/v1/repositories/", "")
	require.Equal(t, http.StatusOK, code, string(body))

	var entries []workspace.Entry
	require.NoError(t, json.Unmarshal(body, &entries))
	require.Len(t, entries, 1)
	assert.True(t, entries[0].IsRepository)
}

func TestErrorMapping(t *testing.T) {
	s := newServer(t)

	code, _ := s.do(t, http.MethodPost, "/api/v1/repositories/demo/init", "")
	require.Equal(t, http.StatusAccepted, code)
	s.runner.Wait()

	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{"unknown repository", http.MethodGet, "/api/v1/repositories/missing/status", "", http.StatusNotFound},
		{"missing remote", http.MethodGet, "/api/v1/repositories/demo/remotes/origin", "", http.StatusConflict},
		{"empty message", http.MethodPost, "/api/v1/repositories/demo/commit", `{"message":""}`, http.StatusBadRequest},
		{"bad remote name", http.MethodPost, "/api/v1/repositories/demo/remotes", `{"name":"a b","url":"x"}`, http.StatusBadRequest},
		{"clone into existing", http.MethodPost, "/api/v1/repositories/demo/clone", `{"url":"https://example.com/r.git"}`, http.StatusBadRequest},
		{"diff without revisions", http.MethodGet, "/api/v1/repositories/demo/diff", "", http.StatusBadRequest},
		{"bad operation id", http.MethodGet, "/api/v1/operations/nope", "", http.StatusBadRequest},
		{"unknown operation", http.MethodGet, "/api/v1/operations/" + uuid.NewString(), "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := s.do(t, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.want, code, string(body))
		})
	}
}

func TestRemotes(t *testing.T) {
	s := newServer(t)

	code, _ := s.do(t, http.MethodPost, "/api/v1/repositories/demo/init", "")
	require.Equal(t, http.StatusAccepted, code)
	s.runner.Wait()

	code, body := s.do(t, http.MethodPost, "/api/v1/repositories/demo/remotes",
		`{"name":"origin","url":"https://example.com/r.git"}`)
	require.Equal(t, http.StatusCreated, code, string(body))

	code, body = s.do(t, http.MethodGet, "/api/v1/repositories/demo/remotes/origin", "")
	require.Equal(t, http.StatusOK, code, string(body))

	var remote repositories.RemoteResponse
	require.NoError(t, json.Unmarshal(body, &remote))
	assert.Equal(t, "https://example.com/r.git", remote.URL)

	code, _ = s.do(t, http.MethodDelete, "/api/v1/repositories/demo/remotes/origin", "")
	require.Equal(t, http.StatusNoContent, code)

	code, body = s.do(t, http.MethodGet, "/api/v1/repositories/demo/remotes", "")
	require.Equal(t, http.StatusOK, code)

	var remotes []repositories.RemoteResponse
	require.NoError(t, json.Unmarshal(body, &remotes))
	assert.Empty(t, remotes)
}
