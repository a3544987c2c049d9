package localtools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/usherbot/usher/pkg/agentic/tool"
)

// FileTools exposes read-only listing plus reading and renaming of files
// inside baseDir. Paths are resolved relative to baseDir and requests that
// escape it are rejected.
func FileTools(baseDir string) []tool.Tool {
	return []tool.Tool{
		listFilesTool(baseDir),
		readFileTool(baseDir),
		renameFileTool(baseDir),
	}
}

func listFilesTool(baseDir string) tool.Tool {
	return tool.Define("list_files",
		"List the files available in the working directory.",
		nil,
		func(ctx context.Context, _ string) (string, error) {
			entries, err := os.ReadDir(baseDir)
			if err != nil {
				return "", fmt.Errorf("list files: %w", err)
			}

			names := make([]string, 0, len(entries))
			for _, entry := range entries {
				if entry.IsDir() {
					continue
				}
				names = append(names, entry.Name())
			}

			if len(names) == 0 {
				return "The working directory contains no files.", nil
			}
			return "Files: " + strings.Join(names, ", "), nil
		})
}

func readFileTool(baseDir string) tool.Tool {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name": map[string]any{
				"type":        "string",
				"description": "File name inside the working directory",
			},
		},
		"required": []any{"name"},
	}

	return tool.Define("read_file",
		"Read the content of a file in the working directory.",
		params,
		func(ctx context.Context, args string) (string, error) {
			var input struct {
				Name string `json:"name"`
			}
			if err := json.Unmarshal([]byte(args), &input); err != nil {
				return "", fmt.Errorf("decode arguments: %w", err)
			}

			path, err := resolve(baseDir, input.Name)
			if err != nil {
				return "", err
			}

			content, err := os.ReadFile(path)
			if err != nil {
				return "", fmt.Errorf("read file %s: %w", input.Name, err)
			}
			return string(content), nil
		})
}

func renameFileTool(baseDir string) tool.Tool {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name": map[string]any{
				"type":        "string",
				"description": "Current file name",
			},
			"new_name": map[string]any{
				"type":        "string",
				"description": "New file name",
			},
		},
		"required": []any{"name", "new_name"},
	}

	return tool.Define("rename_file",
		"Rename a file inside the working directory.",
		params,
		func(ctx context.Context, args string) (string, error) {
			var input struct {
				Name    string `json:"name"`
				NewName string `json:"new_name"`
			}
			if err := json.Unmarshal([]byte(args), &input); err != nil {
				return "", fmt.Errorf("decode arguments: %w", err)
			}

			from, err := resolve(baseDir, input.Name)
			if err != nil {
				return "", err
			}
			to, err := resolve(baseDir, input.NewName)
			if err != nil {
				return "", err
			}

			if err := os.Rename(from, to); err != nil {
				return "", fmt.Errorf("rename %s: %w", input.Name, err)
			}
			return fmt.Sprintf("Renamed %s to %s.", input.Name, input.NewName), nil
		})
}

// resolve joins name onto baseDir and rejects anything that would land
// outside it.
func resolve(baseDir, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("file name is empty")
	}
	if !filepath.IsLocal(name) {
		return "", fmt.Errorf("path %q escapes the working directory", name)
	}
	return filepath.Join(baseDir, name), nil
}
