package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

var baseURL = "http://localhost:8080"

type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func main() {
	if u := os.Getenv("PERSONAPANEL_URL"); u != "" {
		baseURL = u
	}

	// Wait for server to start
	time.Sleep(2 * time.Second)

	fmt.Println("Starting Integration Test...")

	fmt.Println("1. Health...")
	var health struct {
		LLMAvailable bool `json:"llm_available"`
	}
	mustCall("GET", "/api/health", nil, http.StatusOK, &health)
	fmt.Println("PASSED: Health")

	fmt.Println("2. Entity type from template...")
	var et struct {
		ID string `json:"id"`
	}
	mustCall("POST", "/api/templates/customer/instantiate", map[string]string{"name": "Smoke Customer"}, http.StatusCreated, &et)
	fmt.Println("PASSED: Entity type", et.ID)

	fmt.Println("3. Entities...")
	var ids []string
	for _, name := range []string{"Alice", "Bob", "Carol"} {
		var e struct {
			ID string `json:"id"`
		}
		mustCall("POST", "/api/entities", map[string]any{
			"entity_type_id": et.ID,
			"name":           name,
			"attributes":     map[string]any{"age": 30, "loyal_customer": true},
		}, http.StatusCreated, &e)
		ids = append(ids, e.ID)
	}
	fmt.Println("PASSED: Entities", ids)

	fmt.Println("4. Context...")
	var ctx struct {
		ID string `json:"id"`
	}
	mustCall("POST", "/api/contexts", map[string]string{"description": "A product launch event for a new e-reader."}, http.StatusCreated, &ctx)
	fmt.Println("PASSED: Context", ctx.ID)

	if !health.LLMAvailable {
		fmt.Println("No LLM configured on the server, skipping simulation steps")
		return
	}

	fmt.Println("5. Simulation...")
	var sim struct {
		ID              string `json:"id"`
		FinalTurnNumber int    `json:"final_turn_number"`
	}
	mustCall("POST", "/api/simulations", map[string]any{"context_id": ctx.ID, "entity_ids": ids[:2], "n_turns": 3}, http.StatusCreated, &sim)
	fmt.Printf("PASSED: Simulation %s ended at turn %d\n", sim.ID, sim.FinalTurnNumber)

	fmt.Println("6. Continue...")
	before := sim.FinalTurnNumber
	mustCall("POST", "/api/simulations/"+sim.ID+"/continue", map[string]any{"n_turns": 2}, http.StatusOK, &sim)
	if sim.FinalTurnNumber < before {
		fail("final turn went backwards: %d -> %d", before, sim.FinalTurnNumber)
	}
	fmt.Printf("PASSED: Continue ended at turn %d\n", sim.FinalTurnNumber)

	fmt.Println("7. Batch...")
	var batch struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	mustCall("POST", "/api/batch-simulations", map[string]any{
		"name":             "smoke pairs",
		"context_id":       ctx.ID,
		"entity_ids":       ids,
		"interaction_size": 2,
		"num_simulations":  2,
		"n_turns":          2,
	}, http.StatusCreated, &batch)
	fmt.Printf("PASSED: Batch %s finished as %s\n", batch.ID, batch.Status)
}

func fail(format string, args ...any) {
	fmt.Printf("FAILED: "+format+"\n", args...)
	os.Exit(1)
}

func mustCall(method, endpoint string, payload any, wantStatus int, out any) {
	var body io.Reader
	if payload != nil {
		jsonBytes, _ := json.Marshal(payload)
		body = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequest(method, baseURL+endpoint, body)
	if err != nil {
		fail("creating request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		fail("sending request: %v", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != wantStatus {
		fail("%s %s returned %d: %s", method, endpoint, resp.StatusCode, string(respBody))
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		fail("decoding envelope: %v", err)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			fail("decoding data: %v", err)
		}
	}
}
