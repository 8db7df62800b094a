package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/personapanel/internal/config"
	"github.com/agenthands/personapanel/internal/core"
	"github.com/agenthands/personapanel/internal/core/model"
	"github.com/agenthands/personapanel/internal/llm"
	"github.com/agenthands/personapanel/internal/store/sqlite"
)

type MockLLM struct {
	mu            sync.Mutex
	Response      string
	ResponseQueue []string
}

func (m *MockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.ResponseQueue) > 0 {
		resp := m.ResponseQueue[0]
		m.ResponseQueue = m.ResponseQueue[1:]
		if resp == "ERROR" {
			return "", errors.New("mock llm failure")
		}
		return resp, nil
	}
	return m.Response, nil
}

type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func setupTestRouter(t *testing.T, mockLLM *MockLLM) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := sqlite.New(context.Background(), filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	var client llm.LLMClient
	if mockLLM != nil {
		client = mockLLM
	}
	panel := core.NewPanel(st, client, nil, config.Default(), nil)
	t.Cleanup(panel.Wait)
	return NewServer(panel, nil).SetupRouter()
}

func do(t *testing.T, r http.Handler, method, path string, body any) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

type idOnly struct {
	ID string `json:"id"`
}

// seedAPI creates a type, two entities and a context through the API.
func seedAPI(t *testing.T, r http.Handler) (contextID string, entityIDs []string) {
	t.Helper()
	code, env := do(t, r, http.MethodPost, "/api/entity-types", map[string]any{
		"name": "Diner",
		"dimensions": []map[string]any{
			{"name": "hungry", "type": "boolean"},
			{"name": "budget", "type": "numerical", "min": 0, "max": 100},
		},
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	typeID := decode[idOnly](t, env).ID

	for _, name := range []string{"Ann", "Ben"} {
		code, env = do(t, r, http.MethodPost, "/api/entities", map[string]any{
			"entity_type_id": typeID,
			"name":           name,
			"attributes":     map[string]any{"hungry": "yes", "budget": 250},
		})
		require.Equal(t, http.StatusCreated, code, env.Message)
		entityIDs = append(entityIDs, decode[idOnly](t, env).ID)
	}

	code, env = do(t, r, http.MethodPost, "/api/contexts", map[string]any{"description": "A crowded diner at noon"})
	require.Equal(t, http.StatusCreated, code, env.Message)
	return decode[idOnly](t, env).ID, entityIDs
}

func TestHealth(t *testing.T) {
	r := setupTestRouter(t, nil)

	code, env := do(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", env.Status)

	data := decode[map[string]any](t, env)
	assert.Equal(t, false, data["llm_available"])
	assert.Equal(t, "ollama", data["llm_provider"])
}

func TestEntityTypeLifecycle(t *testing.T) {
	r := setupTestRouter(t, nil)

	code, env := do(t, r, http.MethodPost, "/api/entity-types", map[string]any{"name": ""})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "error", env.Status)

	code, env = do(t, r, http.MethodPost, "/api/entity-types", map[string]any{
		"name":       "Pet",
		"dimensions": []map[string]any{{"name": "species", "type": "categorical", "options": []string{"cat", "dog"}}},
	})
	require.Equal(t, http.StatusCreated, code)
	id := decode[idOnly](t, env).ID

	code, env = do(t, r, http.MethodPut, "/api/entity-types/"+id, map[string]any{"name": "Animal"})
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, "Animal", decode[map[string]any](t, env)["name"])

	code, env = do(t, r, http.MethodGet, "/api/entity-types", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]idOnly](t, env), 1)

	code, _ = do(t, r, http.MethodDelete, "/api/entity-types/"+id, nil)
	assert.Equal(t, http.StatusOK, code)

	code, env = do(t, r, http.MethodGet, "/api/entity-types/"+id, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "error", env.Status)
}

func TestEntitiesAndCoercion(t *testing.T) {
	r := setupTestRouter(t, nil)
	_, ids := seedAPI(t, r)

	code, env := do(t, r, http.MethodGet, "/api/entities/"+ids[0], nil)
	require.Equal(t, http.StatusOK, code)
	attrs := decode[map[string]any](t, env)["attributes"].(map[string]any)
	assert.Equal(t, true, attrs["hungry"])
	assert.Equal(t, 100.0, attrs["budget"])

	code, _ = do(t, r, http.MethodPost, "/api/entities", map[string]any{"entity_type_id": "missing", "name": "X"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, r, http.MethodGet, "/api/entities/missing", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestBadJSON(t *testing.T) {
	r := setupTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/contexts", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateWithoutLLM(t *testing.T) {
	r := setupTestRouter(t, nil)

	code, env := do(t, r, http.MethodPost, "/api/entity-types/any/generate", map[string]any{"count": 2})
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "error", env.Status)
}

func TestGenerateEntities(t *testing.T) {
	r := setupTestRouter(t, &MockLLM{Response: `{"name": "Cleo", "attributes": {"hungry": false, "budget": 20}}`})

	code, env := do(t, r, http.MethodPost, "/api/templates/customer/instantiate", map[string]any{"name": "Shopper"})
	require.Equal(t, http.StatusCreated, code, env.Message)
	typeID := decode[idOnly](t, env).ID

	code, env = do(t, r, http.MethodPost, "/api/entity-types/"+typeID+"/generate", map[string]any{"count": 2})
	require.Equal(t, http.StatusCreated, code, env.Message)
	res := decode[core.GenerationResult](t, env)
	assert.Len(t, res.Entities, 2)

	code, env = do(t, r, http.MethodGet, "/api/entity-types/"+typeID+"/entities", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]idOnly](t, env), 2)
}

func TestGenerateEntities_BadOutput(t *testing.T) {
	r := setupTestRouter(t, &MockLLM{Response: `{"name": "Cleo", "attributes": {"hungry": "starving-ish"}}`})

	code, env := do(t, r, http.MethodPost, "/api/entity-types", map[string]any{
		"name":       "Diner",
		"dimensions": []map[string]any{{"name": "hungry", "type": "boolean"}},
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	typeID := decode[idOnly](t, env).ID

	code, env = do(t, r, http.MethodPost, "/api/entity-types/"+typeID+"/generate", map[string]any{"count": 2})
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Contains(t, env.Message, "entity generation failed")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: bad", model.ErrInvalid), http.StatusBadRequest},
		{fmt.Errorf("entity x: %w", model.ErrNotFound), http.StatusNotFound},
		{model.ErrLLMUnavailable, http.StatusServiceUnavailable},
		{model.ErrGraphDisabled, http.StatusServiceUnavailable},
		{model.ErrShuttingDown, http.StatusServiceUnavailable},
		{fmt.Errorf("%w: all 2 generations failed", model.ErrGenerationFailed), http.StatusInternalServerError},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestSimulationFlow(t *testing.T) {
	mockLLM := &MockLLM{ResponseQueue: []string{
		"Turn 1 - Ann: Coffee?\nTurn 2 - Ben: Please.",
		`{"content": "Turn 3 - Ann: Sugar?\nTurn 4 - Ben: No.", "final_turn_number": 4}`,
	}}
	r := setupTestRouter(t, mockLLM)
	contextID, ids := seedAPI(t, r)

	code, env := do(t, r, http.MethodPost, "/api/simulations", map[string]any{
		"context_id": contextID, "entity_ids": ids, "n_turns": 2,
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	sim := decode[map[string]any](t, env)
	assert.Equal(t, 2.0, sim["final_turn_number"])
	simID := sim["id"].(string)

	code, env = do(t, r, http.MethodPost, "/api/simulations/"+simID+"/continue", map[string]any{"n_turns": 2})
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, 4.0, decode[map[string]any](t, env)["final_turn_number"])

	req := httptest.NewRequest(http.MethodGet, "/api/simulations/"+simID+"/export?format=md&download=true", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/markdown")
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".md")
	assert.Contains(t, w.Body.String(), "Turn 4 - Ben: No.")

	code, _ = do(t, r, http.MethodGet, "/api/simulations/"+simID+"/export?format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, r, http.MethodDelete, "/api/simulations/"+simID, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = do(t, r, http.MethodGet, "/api/simulations/"+simID, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSimulationValidation(t *testing.T) {
	r := setupTestRouter(t, &MockLLM{Response: "Turn 1 - Ann: hi"})
	contextID, ids := seedAPI(t, r)

	code, _ := do(t, r, http.MethodPost, "/api/simulations", map[string]any{"context_id": contextID, "entity_ids": []string{}, "n_turns": 2})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, r, http.MethodPost, "/api/simulations", map[string]any{"context_id": contextID, "entity_ids": ids, "n_turns": 0})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, r, http.MethodPost, "/api/simulations", map[string]any{"context_id": "nope", "entity_ids": ids, "n_turns": 1})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestUnifiedSimulation(t *testing.T) {
	r := setupTestRouter(t, &MockLLM{ResponseQueue: []string{
		"Turn 1 - Ann: a\nTurn 2 - Ben: b",
		"Turn 3 - Ann: c\nTurn 4 - Ben: d",
	}})
	_, ids := seedAPI(t, r)

	code, env := do(t, r, http.MethodPost, "/api/unified-simulations", map[string]any{
		"context": "A picnic", "entity_ids": ids, "n_turns": 2, "n_rounds": 2,
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	assert.Equal(t, 4.0, decode[map[string]any](t, env)["final_turn_number"])
}

func TestBatchFlow(t *testing.T) {
	r := setupTestRouter(t, &MockLLM{ResponseQueue: []string{"Turn 1 - Ann: hi", "ERROR"}})
	contextID, ids := seedAPI(t, r)

	code, env := do(t, r, http.MethodPost, "/api/batch-simulations", map[string]any{
		"name": "singles", "context_id": contextID, "entity_ids": ids,
		"interaction_size": 1, "num_simulations": 5, "n_turns": 1,
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	b := decode[map[string]any](t, env)
	assert.Equal(t, "partial", b["status"])
	batchID := b["id"].(string)

	code, env = do(t, r, http.MethodGet, "/api/batch-simulations/"+batchID+"/simulations", nil)
	require.Equal(t, http.StatusOK, code)
	children := decode[[]map[string]any](t, env)
	assert.Len(t, children, 2)

	code, env = do(t, r, http.MethodGet, "/api/batch-simulations", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]idOnly](t, env), 1)

	code, _ = do(t, r, http.MethodDelete, "/api/batch-simulations/"+batchID, nil)
	assert.Equal(t, http.StatusOK, code)

	code, env = do(t, r, http.MethodGet, "/api/simulations", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, decode[[]idOnly](t, env))

	code, _ = do(t, r, http.MethodPost, "/api/batch-simulations", map[string]any{
		"name": "bad", "context_id": contextID, "entity_ids": ids,
		"interaction_size": 3, "num_simulations": 1, "n_turns": 1,
	})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestTemplates(t *testing.T) {
	r := setupTestRouter(t, nil)

	code, env := do(t, r, http.MethodGet, "/api/templates", nil)
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, decode[[]idOnly](t, env))

	code, _ = do(t, r, http.MethodGet, "/api/templates/unknown", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestInteractionsWithoutGraph(t *testing.T) {
	r := setupTestRouter(t, nil)
	_, ids := seedAPI(t, r)

	code, _ := do(t, r, http.MethodGet, "/api/entities/"+ids[0]+"/interactions", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}
