package robot

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/usherbot/usher/pkg/agentic/tool"
)

var armNames = map[int]string{
	ArmHome:    "home",
	ArmGrasp:   "grasp",
	ArmRelease: "release",
	ArmCarry:   "carry",
}

var gripperNames = map[int]string{
	GripperClose: "close",
	GripperOpen:  "open",
}

// Tools returns the robot control tool suite backed by the controller.
func Tools(c *Controller) []tool.Tool {
	return []tool.Tool{
		navigationTool(c, "go_to_office", "office",
			"Navigate the robot to the office. Use when the user asks to go to the office without any object handling."),
		navigationTool(c, "go_to_restroom", "restroom",
			"Navigate the robot to the restroom. Use when the user asks to go to the restroom without any object handling."),
		navigationTool(c, "go_to_corridor", "corridor",
			"Navigate the robot to the corridor. Use when the user asks to go to the corridor without any object handling."),
		armTool(c),
		gripperTool(c),
		complexTaskTool(c),
		getWaterBottleTool(c),
	}
}

func navigationTool(c *Controller, name, location, description string) tool.Tool {
	return tool.Define(name, description, nil, func(ctx context.Context, _ string) (string, error) {
		if err := c.GoTo(ctx, location); err != nil {
			return "", fmt.Errorf("navigation command failed: %w", err)
		}
		return fmt.Sprintf("Navigation command to the %s has been sent.", location), nil
	})
}

func armTool(c *Controller) tool.Tool {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"command": map[string]any{
				"type":        "integer",
				"description": "0=home, 1=grasp posture, 2=release posture, 3=carry mode",
				"minimum":     0,
				"maximum":     3,
			},
		},
		"required": []any{"command"},
	}

	description := "Control the robot arm posture (does not move the robot base and does not operate " +
		"the gripper). command: 0=home, 1=grasp posture, 2=release posture, 3=carry mode."

	return tool.Define("arm_control", description, params, func(ctx context.Context, args string) (string, error) {
		var input struct {
			Command int `json:"command"`
		}
		if err := json.Unmarshal([]byte(args), &input); err != nil {
			return "", fmt.Errorf("decode arguments: %w", err)
		}

		if err := c.Arm(ctx, input.Command); err != nil {
			return "", fmt.Errorf("arm command failed: %w", err)
		}
		return fmt.Sprintf("Arm %q command has been sent (command=%d).", armNames[input.Command], input.Command), nil
	})
}

func gripperTool(c *Controller) tool.Tool {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"action": map[string]any{
				"type":        "integer",
				"description": "1=close the gripper, 2=open the gripper",
				"minimum":     1,
				"maximum":     2,
			},
		},
		"required": []any{"action"},
	}

	description := "Open or close the gripper only (the arm posture is controlled by arm_control). " +
		"action: 1=close, 2=open."

	return tool.Define("gripper_control", description, params, func(ctx context.Context, args string) (string, error) {
		var input struct {
			Action int `json:"action"`
		}
		if err := json.Unmarshal([]byte(args), &input); err != nil {
			return "", fmt.Errorf("decode arguments: %w", err)
		}

		if err := c.Gripper(ctx, input.Action); err != nil {
			return "", fmt.Errorf("gripper command failed: %w", err)
		}
		return fmt.Sprintf("Gripper %q command has been sent (action=%d).", gripperNames[input.Action], input.Action), nil
	})
}

func complexTaskTool(c *Controller) tool.Tool {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"location": map[string]any{
				"type":        "string",
				"description": "Navigation target",
				"enum":        []any{"office", "restroom", "corridor"},
			},
			"arm_command": map[string]any{
				"type":        "integer",
				"description": "Arm command to run after arrival: 0=home, 1=grasp, 2=release, 3=carry",
				"minimum":     0,
				"maximum":     3,
			},
		},
		"required": []any{"location", "arm_command"},
	}

	description := "Combined task: navigate to a location, then run an arm command. " +
		"Use when the user asks for movement and manipulation in one request."

	return tool.Define("complex_task", description, params, func(ctx context.Context, args string) (string, error) {
		var input struct {
			Location   string `json:"location"`
			ArmCommand int    `json:"arm_command"`
		}
		if err := json.Unmarshal([]byte(args), &input); err != nil {
			return "", fmt.Errorf("decode arguments: %w", err)
		}

		if err := c.GoTo(ctx, input.Location); err != nil {
			return "", fmt.Errorf("navigation step failed: %w", err)
		}
		if err := c.Arm(ctx, input.ArmCommand); err != nil {
			return "", fmt.Errorf("arm step failed: %w", err)
		}

		return fmt.Sprintf("Combined task sent: go to the %s, then arm %q.",
			input.Location, armNames[input.ArmCommand]), nil
	})
}

// getWaterBottleTool automates the full fetch sequence: navigate to the
// office, move the arm to the grasp posture, close the gripper and switch
// to carry mode.
func getWaterBottleTool(c *Controller) tool.Tool {
	description := "Full automated sequence to fetch the water bottle: navigate to the office, " +
		"move the arm to the grasp posture, close the gripper and carry the bottle."

	return tool.Define("get_water_bottle", description, nil, func(ctx context.Context, _ string) (string, error) {
		steps := []struct {
			name string
			run  func() error
		}{
			{"navigate to office", func() error { return c.GoTo(ctx, "office") }},
			{"arm grasp posture", func() error { return c.Arm(ctx, ArmGrasp) }},
			{"close gripper", func() error { return c.Gripper(ctx, GripperClose) }},
			{"arm carry mode", func() error { return c.Arm(ctx, ArmCarry) }},
		}

		for _, step := range steps {
			if err := step.run(); err != nil {
				return "", fmt.Errorf("step %q failed: %w", step.name, err)
			}
		}

		return "Water bottle fetch sequence has been sent: office navigation, grasp, gripper close, carry.", nil
	})
}
