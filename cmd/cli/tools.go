package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/usherbot/usher/internal/config"
)

func NewToolsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List tools exposed by a running agent server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTools()
		},
	}

	return cmd
}

func runTools() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var listing struct {
		Tools []struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		} `json:"tools"`
		Count int `json:"count"`
	}

	if err := fetchJSON(serverURL(cfg.HTTPAddress, "/tools"), &listing); err != nil {
		return fmt.Errorf("query tools endpoint: %w", err)
	}

	fmt.Printf("Tools (%d):\n", listing.Count)
	for _, t := range listing.Tools {
		fmt.Printf("   %-18s %s\n", t.Name, t.Description)
	}

	return nil
}
