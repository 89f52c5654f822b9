package natsbus

import (
	"context"
	"testing"

	"github.com/AzielCF/az-wabot/schedule/domain"
	"github.com/stretchr/testify/assert"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "azwabot.status.sent", Subject("azwabot.status", domain.EventSent))
	assert.Equal(t, "cancelled", Subject("", domain.EventCancelled))
}

func TestNoopPublisher(t *testing.T) {
	var p domain.EventPublisher = NoopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), domain.HistoryEntry{Event: domain.EventSent}))
	p.Close()
}

func TestConnect_FailsWithoutServer(t *testing.T) {
	_, err := Connect("nats://127.0.0.1:1", "azwabot.status")
	assert.Error(t, err)
}
