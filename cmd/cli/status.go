package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/usherbot/usher/internal/config"
)

func NewStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show status of a running agent server",
		Long:  `Query the running server's status endpoint and print a summary.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}

	return cmd
}

func runStatus() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var status struct {
		Status              string   `json:"status"`
		ActiveSessions      int      `json:"active_sessions"`
		MaxSessions         int      `json:"max_sessions"`
		SessionTimeoutHours float64  `json:"session_timeout_hours"`
		AvailableTools      []string `json:"available_tools"`
		LLMProvider         string   `json:"llm_provider"`
		LLMModel            string   `json:"llm_model"`
	}

	if err := fetchJSON(serverURL(cfg.HTTPAddress, "/status"), &status); err != nil {
		fmt.Println("❌ Agent server is not reachable")
		fmt.Printf("   %v\n", err)
		return nil
	}

	fmt.Println("✅ Agent server is running")
	fmt.Printf("   Sessions: %d/%d (timeout %.1fh)\n", status.ActiveSessions, status.MaxSessions, status.SessionTimeoutHours)
	fmt.Printf("   Backend: %s (%s)\n", status.LLMProvider, status.LLMModel)
	fmt.Printf("   Tools (%d): %s\n", len(status.AvailableTools), strings.Join(status.AvailableTools, ", "))

	return nil
}

// serverURL turns a listen address like ":5000" into a local base URL.
func serverURL(address, path string) string {
	if strings.HasPrefix(address, ":") {
		address = "127.0.0.1" + address
	}
	return "http://" + address + path
}

func fetchJSON(url string, out any) error {
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
