package robot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usherbot/usher/pkg/agentic/tool"
)

func findTool(t *testing.T, tools []tool.Tool, name string) tool.Tool {
	t.Helper()
	for _, candidate := range tools {
		if candidate.Name() == name {
			return candidate
		}
	}
	t.Fatalf("tool %s not found", name)
	return nil
}

func TestToolsExposeFullSuite(t *testing.T) {
	tools := Tools(NewController(&recordingPublisher{}, nil))

	names := make([]string, 0, len(tools))
	for _, candidate := range tools {
		names = append(names, candidate.Name())
	}

	assert.Equal(t, []string{
		"go_to_office", "go_to_restroom", "go_to_corridor",
		"arm_control", "gripper_control", "complex_task", "get_water_bottle",
	}, names)
}

func TestNavigationToolPublishes(t *testing.T) {
	pub := &recordingPublisher{}
	tools := Tools(NewController(pub, nil))

	out, err := findTool(t, tools, "go_to_restroom").Execute(context.Background(), "{}")

	require.NoError(t, err)
	assert.Contains(t, out, "restroom")
	require.Len(t, pub.all(), 1)
	assert.Equal(t, TopicGoRestroom, pub.all()[0].Topic)
}

func TestArmToolDecodesCommand(t *testing.T) {
	pub := &recordingPublisher{}
	tools := Tools(NewController(pub, nil))

	out, err := findTool(t, tools, "arm_control").Execute(context.Background(), `{"command":3}`)

	require.NoError(t, err)
	assert.Contains(t, out, "carry")
	assert.JSONEq(t, `{"command":3}`, string(pub.all()[0].Payload))
}

func TestComplexTaskRunsBothSteps(t *testing.T) {
	pub := &recordingPublisher{}
	tools := Tools(NewController(pub, nil))

	_, err := findTool(t, tools, "complex_task").Execute(context.Background(),
		`{"location":"corridor","arm_command":0}`)

	require.NoError(t, err)
	messages := pub.all()
	require.Len(t, messages, 2)
	assert.Equal(t, TopicGoCorridor, messages[0].Topic)
	assert.Equal(t, TopicArm, messages[1].Topic)
}

func TestGetWaterBottleSequence(t *testing.T) {
	pub := &recordingPublisher{}
	tools := Tools(NewController(pub, nil))

	out, err := findTool(t, tools, "get_water_bottle").Execute(context.Background(), "{}")

	require.NoError(t, err)
	assert.Contains(t, out, "sent")

	messages := pub.all()
	require.Len(t, messages, 4)
	assert.Equal(t, TopicGoOffice, messages[0].Topic)
	assert.Equal(t, TopicArm, messages[1].Topic)
	assert.JSONEq(t, `{"command":1}`, string(messages[1].Payload))
	assert.Equal(t, TopicGripper, messages[2].Topic)
	assert.JSONEq(t, `{"action":1}`, string(messages[2].Payload))
	assert.Equal(t, TopicArm, messages[3].Topic)
	assert.JSONEq(t, `{"command":3}`, string(messages[3].Payload))
}
