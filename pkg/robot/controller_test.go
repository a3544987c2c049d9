package robot

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingPublisher captures every published command.
type recordingPublisher struct {
	mu       sync.Mutex
	messages []publishedMessage
}

type publishedMessage struct {
	Topic   string
	Payload []byte
}

func (p *recordingPublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, publishedMessage{Topic: topic, Payload: payload})
	return nil
}

func (p *recordingPublisher) all() []publishedMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedMessage(nil), p.messages...)
}

func TestGoToPublishesCoordinates(t *testing.T) {
	pub := &recordingPublisher{}
	c := NewController(pub, nil)

	require.NoError(t, c.GoTo(context.Background(), "office"))

	messages := pub.all()
	require.Len(t, messages, 1)
	assert.Equal(t, TopicGoOffice, messages[0].Topic)

	var coords Coordinates
	require.NoError(t, json.Unmarshal(messages[0].Payload, &coords))
	assert.InDelta(t, 74.814, coords.X, 0.001)
	assert.InDelta(t, 77.791, coords.Y, 0.001)
}

func TestGoToUnknownLocation(t *testing.T) {
	pub := &recordingPublisher{}
	c := NewController(pub, nil)

	assert.Error(t, c.GoTo(context.Background(), "rooftop"))
	assert.Empty(t, pub.all())
}

func TestGoToUsesConfiguredLocationOverride(t *testing.T) {
	pub := &recordingPublisher{}
	c := NewController(pub, map[string]Coordinates{
		"office": {X: 1, Y: 2, Z: 0},
	})

	require.NoError(t, c.GoTo(context.Background(), "office"))

	var coords Coordinates
	require.NoError(t, json.Unmarshal(pub.all()[0].Payload, &coords))
	assert.Equal(t, Coordinates{X: 1, Y: 2, Z: 0}, coords)
}

func TestArmCommandRangeAndPayload(t *testing.T) {
	pub := &recordingPublisher{}
	c := NewController(pub, nil)

	require.NoError(t, c.Arm(context.Background(), ArmGrasp))
	assert.Error(t, c.Arm(context.Background(), 4))
	assert.Error(t, c.Arm(context.Background(), -1))

	messages := pub.all()
	require.Len(t, messages, 1)
	assert.Equal(t, TopicArm, messages[0].Topic)
	assert.JSONEq(t, `{"command":1}`, string(messages[0].Payload))
}

func TestGripperActionRangeAndPayload(t *testing.T) {
	pub := &recordingPublisher{}
	c := NewController(pub, nil)

	require.NoError(t, c.Gripper(context.Background(), GripperOpen))
	assert.Error(t, c.Gripper(context.Background(), 0))
	assert.Error(t, c.Gripper(context.Background(), 3))

	messages := pub.all()
	require.Len(t, messages, 1)
	assert.Equal(t, TopicGripper, messages[0].Topic)
	assert.JSONEq(t, `{"action":2}`, string(messages[0].Payload))
}
