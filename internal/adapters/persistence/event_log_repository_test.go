package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/colonysim/internal/adapters/persistence"
	"github.com/andrescamacho/colonysim/internal/domain/event"
	"github.com/andrescamacho/colonysim/internal/domain/shared"
	"github.com/andrescamacho/colonysim/test/helpers"
)

func newEventLog(t *testing.T) *persistence.GormEventLogRepository {
	t.Helper()
	db := helpers.NewTestDB(t)
	clock := shared.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	return persistence.NewGormEventLogRepository(db, clock)
}

func cooked(seq uint64, millisol float64, actor string) event.Event {
	return event.Event{
		Seq:        seq,
		Producer:   "task",
		Type:       event.TypeMealCooked,
		Time:       shared.MarsTime{Sol: 1, Millisol: millisol},
		Settlement: "s1",
		Actor:      actor,
		Message:    "cooked a meal",
		Data:       map[string]interface{}{"quality": 2.0},
	}
}

func TestEventLogRepository_AppendAndList(t *testing.T) {
	// Arrange
	repo := newEventLog(t)
	ctx := context.Background()
	events := []event.Event{
		cooked(1, 10, "p1"),
		cooked(2, 10, "p2"),
		{Seq: 3, Producer: "mission", Type: event.TypeMissionPhase, Time: shared.MarsTime{Sol: 1, Millisol: 12}, Message: "EMBARKING"},
	}

	// Act
	require.NoError(t, repo.Append(ctx, "run-1", events))
	all, err := repo.List(ctx, "run-1", persistence.EventLogFilter{})
	require.NoError(t, err)
	meals, err := repo.List(ctx, "run-1", persistence.EventLogFilter{Type: event.TypeMealCooked, Actor: "p2"})
	require.NoError(t, err)

	// Assert
	require.Len(t, all, 3)
	assert.Equal(t, []uint64{1, 2, 3}, []uint64{all[0].Seq, all[1].Seq, all[2].Seq})
	assert.Equal(t, 2.0, all[0].Data["quality"])
	assert.Nil(t, all[2].Data)
	require.Len(t, meals, 1)
	assert.Equal(t, "p2", meals[0].Actor)
}

func TestEventLogRepository_ReappendIsIgnored(t *testing.T) {
	repo := newEventLog(t).WithDedupWindow(0)
	ctx := context.Background()
	batch := []event.Event{cooked(1, 10, "p1"), cooked(2, 20, "p1")}

	require.NoError(t, repo.Append(ctx, "run-1", batch))
	require.NoError(t, repo.Append(ctx, "run-1", batch))

	n, err := repo.Count(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestEventLogRepository_CollapsesRepeatsInsideWindow(t *testing.T) {
	// Arrange
	repo := newEventLog(t).WithDedupWindow(5)
	ctx := context.Background()

	// Act
	require.NoError(t, repo.Append(ctx, "run-1", []event.Event{
		cooked(1, 10, "p1"),
		cooked(2, 12, "p1"), // same actor and message inside the window
		cooked(3, 12, "p2"),
		cooked(4, 16, "p1"), // window elapsed
	}))

	// Assert
	got, err := repo.List(ctx, "run-1", persistence.EventLogFilter{})
	require.NoError(t, err)
	seqs := make([]uint64, len(got))
	for i, e := range got {
		seqs[i] = e.Seq
	}
	assert.Equal(t, []uint64{1, 3, 4}, seqs)
}

func TestEventLogRepository_RunsAreIsolated(t *testing.T) {
	repo := newEventLog(t)
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, "run-1", []event.Event{cooked(1, 10, "p1")}))
	require.NoError(t, repo.Append(ctx, "run-2", []event.Event{cooked(1, 10, "p1")}))

	one, err := repo.Count(ctx, "run-1")
	require.NoError(t, err)
	two, err := repo.Count(ctx, "run-2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), one)
	assert.Equal(t, int64(1), two)
}

func TestEventLogRepository_EmptyBatch(t *testing.T) {
	repo := newEventLog(t)
	assert.NoError(t, repo.Append(context.Background(), "run-1", nil))
}
