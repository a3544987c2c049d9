package robot

import (
	"context"
	"encoding/json"
	"fmt"
)

// MQTT topics the robot firmware subscribes to.
const (
	TopicGoOffice   = "robot/navigation/gooffice"
	TopicGoRestroom = "robot/navigation/gorestroom"
	TopicGoCorridor = "robot/navigation/gocorridor"
	TopicArm        = "robot/arm/control"
	TopicGripper    = "robot/gripper/control"
)

// Arm commands.
const (
	ArmHome    = 0
	ArmGrasp   = 1
	ArmRelease = 2
	ArmCarry   = 3
)

// Gripper actions.
const (
	GripperClose = 1
	GripperOpen  = 2
)

// Coordinates is a navigation target on the robot's map.
type Coordinates struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// DefaultLocations are the surveyed positions of the deployment site, used
// when no location is configured.
func DefaultLocations() map[string]Coordinates {
	return map[string]Coordinates{
		"office":   {X: 74.814, Y: 77.791, Z: 0.0},
		"restroom": {X: 86.846, Y: 92.542, Z: 0.0},
		"corridor": {X: 97.407, Y: 55.386, Z: 0.0},
	}
}

var navigationTopics = map[string]string{
	"office":   TopicGoOffice,
	"restroom": TopicGoRestroom,
	"corridor": TopicGoCorridor,
}

// Controller issues commands to the robot through a CommandPublisher.
type Controller struct {
	publisher CommandPublisher
	locations map[string]Coordinates
}

// NewController creates a controller. Missing locations fall back to
// DefaultLocations.
func NewController(publisher CommandPublisher, locations map[string]Coordinates) *Controller {
	merged := DefaultLocations()
	for name, pos := range locations {
		merged[name] = pos
	}
	return &Controller{
		publisher: publisher,
		locations: merged,
	}
}

// GoTo publishes a navigation command for a named location.
func (c *Controller) GoTo(ctx context.Context, location string) error {
	topic, ok := navigationTopics[location]
	if !ok {
		return fmt.Errorf("unknown location %q", location)
	}

	payload, err := json.Marshal(c.locations[location])
	if err != nil {
		return fmt.Errorf("marshal navigation payload: %w", err)
	}

	return c.publisher.Publish(ctx, topic, payload)
}

// Arm publishes an arm posture command (0..3).
func (c *Controller) Arm(ctx context.Context, command int) error {
	if command < ArmHome || command > ArmCarry {
		return fmt.Errorf("arm command must be 0..3, got %d", command)
	}

	payload, _ := json.Marshal(map[string]int{"command": command})
	return c.publisher.Publish(ctx, TopicArm, payload)
}

// Gripper publishes a gripper open/close command (1 or 2).
func (c *Controller) Gripper(ctx context.Context, action int) error {
	if action != GripperClose && action != GripperOpen {
		return fmt.Errorf("gripper action must be 1 or 2, got %d", action)
	}

	payload, _ := json.Marshal(map[string]int{"action": action})
	return c.publisher.Publish(ctx, TopicGripper, payload)
}
