package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

// seedCmd registers a demo owner and a demo project so a fresh server
// has something to click around in.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed a demo owner, project and profile",
	Long: `Register a demo project owner, create a demo project and publish a
profile, all through the public API.

Examples:
  collabctl seed
  collabctl seed --server http://localhost:8080`,
	RunE: runSeed,
}

type session struct {
	Token string `json:"token"`
	User  struct {
		ID string `json:"id"`
	} `json:"user"`
}

func runSeed(cmd *cobra.Command, args []string) error {
	client := &http.Client{Timeout: 10 * time.Second}

	var owner session
	err := post(client, "/api/auth/register", "", map[string]string{
		"name":     "demo-owner",
		"email":    fmt.Sprintf("demo-owner-%d@example.com", time.Now().Unix()),
		"password": "demo-password-1",
		"role":     "project_owner",
	}, &owner)
	if err != nil {
		return fmt.Errorf("registering demo owner: %w", err)
	}
	fmt.Printf("owner registered: %s\n", owner.User.ID)

	var project struct {
		ID string `json:"id"`
	}
	err = post(client, "/api/projects", owner.Token, map[string]any{
		"title":            "demo project",
		"description":      "seeded by collabctl",
		"requiredSkills":   []string{"go"},
		"maxCollaborators": 3,
	}, &project)
	if err != nil {
		return fmt.Errorf("creating demo project: %w", err)
	}
	fmt.Printf("project created: %s\n", project.ID)

	req, err := http.NewRequest(http.MethodPut, serverURL+"/api/profiles/me", marshal(map[string]any{
		"bio":          "seeded demo profile",
		"skills":       []map[string]any{{"name": "go", "level": 3}},
		"availability": map[string]any{"hoursPerWeek": 10, "active": true},
	}))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+owner.Token)
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("publishing demo profile: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("publishing demo profile: status %d", resp.StatusCode)
	}
	fmt.Println("profile published")

	fmt.Printf("\nowner token:\n%s\n", owner.Token)
	return nil
}

func post(client *http.Client, path, token string, body, out any) error {
	req, err := http.NewRequest(http.MethodPost, serverURL+path, marshal(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return fmt.Errorf("%s: status %d: %s", path, resp.StatusCode, apiErr.Message)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func marshal(v any) *bytes.Buffer {
	buf := &bytes.Buffer{}
	_ = json.NewEncoder(buf).Encode(v)
	return buf
}
