package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
)

// monitorctl runs a one-off probe through a running monitord:
//
//	monitorctl http https://example.com
//	monitorctl tcp db.internal:5432
//	monitorctl ping 192.168.1.10
func main() {
	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, "usage: monitorctl <http|tcp|ping> <target>")
		os.Exit(2)
	}
	kind, target := os.Args[1], os.Args[2]

	api := os.Getenv("API_BASE")
	if api == "" {
		api = "http://localhost:8080"
	}
	user := os.Getenv("USER_ID")
	if user == "" {
		user = "monitorctl"
	}

	if kind == "http" && !strings.Contains(target, "://") {
		target = "https://" + target
	}

	body, _ := json.Marshal(map[string]string{"type": kind, "target": target})
	req, err := http.NewRequest(http.MethodPost, api+"/api/monitors/test", bytes.NewReader(body))
	if err != nil {
		fmt.Fprintln(os.Stderr, "bad request:", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", user)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error contacting API:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		fmt.Fprintf(os.Stderr, "API returned %s: %s\n", resp.Status, apiErr.Error)
		os.Exit(1)
	}

	var out struct {
		Success    bool    `json:"success"`
		LatencyMS  float64 `json:"latency_ms"`
		Detail     string  `json:"detail"`
		HTTPStatus int     `json:"http_status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		fmt.Fprintln(os.Stderr, "decode response:", err)
		os.Exit(1)
	}

	if out.Success {
		fmt.Printf("UP  %.1fms", out.LatencyMS)
		if out.HTTPStatus != 0 {
			fmt.Printf("  status=%d", out.HTTPStatus)
		}
		fmt.Println()
		return
	}
	fmt.Printf("DOWN  %s", out.Detail)
	if out.HTTPStatus != 0 {
		fmt.Printf("  status=%d", out.HTTPStatus)
	}
	fmt.Println()
	os.Exit(1)
}
