package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewConsumer(t *testing.T) {
	c := NewConsumer([]string{"localhost:9092"}, "flighttrack-worker", "flight-status-changes")
	assert.NotNil(t, c)
	assert.NoError(t, c.Close())
}

func TestConsumer_CloseNilSafe(t *testing.T) {
	var c *Consumer
	assert.NoError(t, c.Close())
}
