package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mesaeats/mesa-backend/pkg/db/models"
	"github.com/mesaeats/mesa-backend/pkg/enums"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:outbox_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.OutboxEvent{}))
	return db
}

func TestEmitQueuesEnvelope(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(NewRepository(db), nil)
	recordID := uuid.New()
	actor := uuid.New()

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventStockReserved,
			AggregateType: enums.AggregateInventoryRecord,
			AggregateID:   recordID,
			Actor:         &ActorRef{UserID: actor},
			Data:          map[string]any{"quantity": 3},
			Version:       1,
		})
	})
	require.NoError(t, err)

	rows, err := NewRepository(db).FetchUnpublished(10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, enums.EventStockReserved, rows[0].EventType)
	require.Equal(t, recordID, rows[0].AggregateID)
	require.Nil(t, rows[0].PublishedAt)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &envelope))
	require.Equal(t, 1, envelope.Version)
	require.NotEmpty(t, envelope.EventID)
	require.Equal(t, actor, envelope.Actor.UserID)
}

func TestEmitRequiresTransaction(t *testing.T) {
	t.Parallel()

	svc := NewService(NewRepository(nil), nil)
	err := svc.Emit(context.Background(), nil, DomainEvent{})
	require.Error(t, err)
}

func TestEmitRollsBackWithTransaction(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(NewRepository(db), nil)

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventStockSold,
			AggregateType: enums.AggregateInventoryRecord,
			AggregateID:   uuid.New(),
			Data:          map[string]any{"quantity": 1},
			Version:       1,
		}); err != nil {
			return err
		}
		return errors.New("force rollback")
	})
	require.Error(t, err)

	rows, err := NewRepository(db).FetchUnpublished(10)
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestMarkPublishedAndFailed(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)

	event := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventStockRestocked,
		AggregateType: enums.AggregateInventoryRecord,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{}`),
	}
	require.NoError(t, db.Create(&event).Error)

	require.NoError(t, repo.MarkFailed(event.ID, errors.New("publish timeout")))
	var failed models.OutboxEvent
	require.NoError(t, db.First(&failed, "id = ?", event.ID).Error)
	require.Equal(t, 1, failed.AttemptCount)
	require.NotNil(t, failed.LastError)

	require.NoError(t, repo.MarkPublished(event.ID))
	rows, err := repo.FetchUnpublished(10)
	require.NoError(t, err)
	require.Empty(t, rows)
}
