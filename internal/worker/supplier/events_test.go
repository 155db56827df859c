package supplier

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Additional-Code/fornecedor/internal/cache"
	"github.com/Additional-Code/fornecedor/internal/config"
	"github.com/Additional-Code/fornecedor/internal/entity"
	"github.com/Additional-Code/fornecedor/internal/messaging"
	suppliersvc "github.com/Additional-Code/fornecedor/internal/service/supplier"
)

func setup(t *testing.T) (*miniredis.Miniredis, *observer.ObservedLogs, messaging.Handler) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	core, logs := observer.New(zapcore.InfoLevel)
	cfg := config.Config{Messaging: config.Messaging{Kafka: config.Kafka{Topic: "fornecedores.events"}}}

	reg := NewEventHandler(zap.New(core), cfg, cache.NewRedis(client, time.Minute))
	require.Equal(t, "fornecedores.events", reg.Topic)
	return mr, logs, reg.Handler
}

func TestEventHandlerEvictsCache(t *testing.T) {
	mr, logs, handle := setup(t)
	require.NoError(t, mr.Set(suppliersvc.CacheKey(42), "stale"))

	payload, err := json.Marshal(suppliersvc.SupplierEvent{
		ID:           "evt-1",
		Type:         suppliersvc.EventUpdated,
		SupplierID:   42,
		Document:     "12345678901",
		DocumentType: entity.DocumentCPF,
		OccurredAt:   time.Now().UTC(),
	})
	require.NoError(t, err)

	err = handle(context.Background(), messaging.Message{Topic: "fornecedores.events", Key: suppliersvc.EventKey(42), Value: payload})
	require.NoError(t, err)

	assert.False(t, mr.Exists(suppliersvc.CacheKey(42)))
	entries := logs.FilterMessage("supplier event processed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "supplier.updated", entries[0].ContextMap()["type"])
	assert.EqualValues(t, 42, entries[0].ContextMap()["id"])
}

func TestEventHandlerRejectsGarbage(t *testing.T) {
	_, logs, handle := setup(t)

	err := handle(context.Background(), messaging.Message{Topic: "fornecedores.events", Value: []byte("not json")})

	assert.Error(t, err)
	assert.Equal(t, 1, logs.FilterMessage("failed to decode supplier event").Len())
}
