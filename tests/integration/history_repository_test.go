package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackcheck/internal/report"
	apperrors "trackcheck/pkg/errors"
)

func TestHistoryRepository_Insert(t *testing.T) {
	infra := SetupTestInfra(t)

	history := report.NewHistory(infra.MongoClient, "test_db", createTestLogger())
	ctx := context.Background()

	record := createTestRunRecord("run-1", "오늘의 특가", time.Now().UTC().Truncate(time.Millisecond), true)

	err := history.Insert(ctx, record)
	require.NoError(t, err)

	retrieved, err := history.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, record.ID, retrieved.ID)
	assert.Equal(t, record.TCID, retrieved.TCID)
	assert.Equal(t, record.Module, retrieved.Module)
	assert.Equal(t, record.Area, retrieved.Area)
	assert.Equal(t, record.Environment, retrieved.Environment)
	assert.True(t, retrieved.Passed)
	require.Len(t, retrieved.Verdicts, 1)
	assert.Equal(t, record.Verdicts[0].EventKind, retrieved.Verdicts[0].EventKind)
	assert.Equal(t, record.Verdicts[0].PassedFields, retrieved.Verdicts[0].PassedFields)
}

func TestHistoryRepository_Insert_DuplicateID(t *testing.T) {
	infra := SetupTestInfra(t)

	history := report.NewHistory(infra.MongoClient, "test_db", createTestLogger())
	ctx := context.Background()

	record := createTestRunRecord("run-dup", "Best Sellers", time.Now().UTC(), true)

	require.NoError(t, history.Insert(ctx, record))

	err := history.Insert(ctx, record)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInternal))
}

func TestHistoryRepository_Get_NotFound(t *testing.T) {
	infra := SetupTestInfra(t)

	history := report.NewHistory(infra.MongoClient, "test_db", createTestLogger())
	ctx := context.Background()

	_, err := history.Get(ctx, "no-such-run")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestHistoryRepository_List_NewestFirst(t *testing.T) {
	infra := SetupTestInfra(t)

	history := report.NewHistory(infra.MongoClient, "test_db", createTestLogger())
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Millisecond)
	for i, id := range []string{"run-a", "run-b", "run-c"} {
		record := createTestRunRecord(id, "Best Sellers", base.Add(time.Duration(i)*time.Minute), i%2 == 0)
		require.NoError(t, history.Insert(ctx, record))
	}

	records, err := history.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "run-c", records[0].ID)
	assert.Equal(t, "run-b", records[1].ID)
	assert.Equal(t, "run-a", records[2].ID)
}

func TestHistoryRepository_List_Limit(t *testing.T) {
	infra := SetupTestInfra(t)

	history := report.NewHistory(infra.MongoClient, "test_db", createTestLogger())
	ctx := context.Background()

	base := time.Now().UTC()
	for i, id := range []string{"run-1", "run-2", "run-3", "run-4"} {
		record := createTestRunRecord(id, "Super Deal", base.Add(time.Duration(i)*time.Second), true)
		require.NoError(t, history.Insert(ctx, record))
	}

	records, err := history.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "run-4", records[0].ID)
	assert.Equal(t, "run-3", records[1].ID)
}

func TestHistoryRepository_List_Empty(t *testing.T) {
	infra := SetupTestInfra(t)

	history := report.NewHistory(infra.MongoClient, "test_db", createTestLogger())

	records, err := history.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}
