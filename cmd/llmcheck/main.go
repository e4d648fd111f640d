// Command llmcheck verifies the configured LLM provider returns usable
// advisories, and optionally exercises a running API end to end.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"plantguard-be/internal/config"
	"plantguard-be/internal/pkg/logger"
	"plantguard-be/pkg/advisory"
	"plantguard-be/pkg/llm"
	"plantguard-be/pkg/llm/factory"

	"github.com/fatih/color"
)

func main() {
	disease := flag.String("disease", "Tomato___Late_blight", "taxonomy label to request an advisory for")
	apiURL := flag.String("api", "", "base URL of a running server, e.g. http://localhost:8000 (skipped when empty)")
	flag.Parse()

	cfg := config.Load()
	color.Cyan("🌿 PlantGuard LLM check (provider=%s model=%s)\n", cfg.Ai.LLMProvider, factory.FromConfig(cfg).Model)

	ok := checkProvider(cfg, *disease)
	if *apiURL != "" {
		ok = checkAPI(*apiURL, *disease) && ok
	}

	if !ok {
		color.Red("\n❌ Some checks failed")
		os.Exit(1)
	}
	color.Green("\n✅ All checks passed")
}

func checkProvider(cfg *config.Config, disease string) bool {
	color.Yellow("\n[LLM] 1. Build provider")
	params := factory.FromConfig(cfg)
	provider, err := factory.NewLLMProvider(params)
	if err != nil {
		color.Red("Failed: %v", err)
		return false
	}
	color.Green("OK: %s", provider.Name())

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Ai.Timeout+5*time.Second)
	defer cancel()

	color.Yellow("\n[LLM] 2. Raw JSON-mode call")
	start := time.Now()
	raw, err := provider.Generate(ctx, advisory.Prompt(disease, 0.87, 34.5), llm.WithJSONResponse(advisory.AnswerSchema()),
		llm.WithSystemInstruction(`Reply as {"english": "...", "hindi": "..."} with one short sentence each.`))
	if err != nil {
		color.Red("Failed: %v", err)
		return false
	}
	color.Green("OK in %s", time.Since(start).Round(time.Millisecond))
	fmt.Println(string(llm.StripCodeFence(raw)))

	color.Yellow("\n[LLM] 3. Structured advisory")
	gen := advisory.NewGenerator(provider, logger.NewNopLogger())
	adv := gen.Generate(ctx, disease, 0.87, 34.5)
	prettyPrint(adv)
	if adv.Degraded {
		color.Red("Failed: model output did not match the advisory schema, fallback used")
		return false
	}
	color.Green("OK")
	return true
}

func checkAPI(baseURL, disease string) bool {
	ok := true

	color.Yellow("\n[API] 1. Health")
	ok = step(http.MethodGet, baseURL+"/", nil, http.StatusOK) && ok

	color.Yellow("\n[API] 2. Remedy lookup")
	ok = step(http.MethodGet, baseURL+"/api/remedies/"+disease, nil, http.StatusOK) && ok

	color.Yellow("\n[API] 3. Advisory")
	ok = step(http.MethodPost, baseURL+"/api/chat/advisory", map[string]interface{}{
		"disease": disease, "confidence": 0.87, "severity": 34.5,
	}, http.StatusOK) && ok

	seed := []map[string]string{
		{"role": "user", "content": "Diagnosis: " + disease},
		{"role": "model", "content": "Advisory delivered."},
	}

	color.Yellow("\n[API] 4. Follow-up")
	ok = step(http.MethodPost, baseURL+"/api/chat/followup", map[string]interface{}{
		"history": seed, "question": "How often should I spray?",
	}, http.StatusOK) && ok

	color.Yellow("\n[API] 5. Follow-up limit")
	exhausted := append(seed,
		map[string]string{"role": "user", "content": "q1"}, map[string]string{"role": "model", "content": "a1"},
		map[string]string{"role": "user", "content": "q2"}, map[string]string{"role": "model", "content": "a2"},
	)
	ok = step(http.MethodPost, baseURL+"/api/chat/followup", map[string]interface{}{
		"history": exhausted, "question": "q3",
	}, http.StatusTooManyRequests) && ok

	return ok
}

func step(method, url string, body interface{}, wantStatus int) bool {
	var bodyReader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(b)
	}
	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		color.Red("Failed: %v", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := (&http.Client{Timeout: 90 * time.Second}).Do(req)
	if err != nil {
		color.Red("Failed: %v", err)
		return false
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)

	var parsed interface{}
	if json.Unmarshal(respBody, &parsed) == nil {
		prettyPrint(parsed)
	} else {
		fmt.Println(string(respBody))
	}

	if resp.StatusCode != wantStatus {
		color.Red("Status: %s (want %d)", resp.Status, wantStatus)
		return false
	}
	color.Green("Status: %s", resp.Status)
	return true
}

// Pretty print JSON helper
func prettyPrint(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%v\n", v)
		return
	}
	fmt.Println(string(b))
}
