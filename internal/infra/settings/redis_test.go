package settings_test

import (
	"context"
	"errors"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-aggregator/internal/infra/settings"
)

const selectedKey = settings.DefaultKeyPrefix + "selected_sources"

func TestRedisStore_SelectedSources(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := settings.NewRedisStore(db, "")
	ctx := context.Background()

	mock.ExpectSMembers(selectedKey).SetVal([]string{"Aiga News", "VOA Amharic"})
	names, ok, err := s.SelectedSources(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.ElementsMatch(t, []string{"VOA Amharic", "Aiga News"}, names)

	mock.ExpectSMembers(selectedKey).SetVal([]string{})
	_, ok, err = s.SelectedSources(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	mock.ExpectSMembers(selectedKey).SetErr(errors.New("connection refused"))
	_, _, err = s.SelectedSources(ctx)
	assert.ErrorContains(t, err, "connection refused")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_SetSelectedSources(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := settings.NewRedisStore(db, "")

	mock.ExpectTxPipeline()
	mock.ExpectDel(selectedKey).SetVal(1)
	mock.ExpectSAdd(selectedKey, "VOA Amharic", "Debteraw").SetVal(2)
	mock.ExpectTxPipelineExec()

	require.NoError(t, s.SetSelectedSources(context.Background(), []string{"VOA Amharic", "Debteraw"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_DarkMode(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := settings.NewRedisStore(db, "custom:")
	ctx := context.Background()

	mock.ExpectGet("custom:dark_mode").RedisNil()
	on, err := s.DarkMode(ctx)
	require.NoError(t, err)
	assert.False(t, on)

	mock.ExpectSet("custom:dark_mode", "1", 0).SetVal("OK")
	require.NoError(t, s.SetDarkMode(ctx, true))

	mock.ExpectGet("custom:dark_mode").SetVal("1")
	on, err = s.DarkMode(ctx)
	require.NoError(t, err)
	assert.True(t, on)

	mock.ExpectGet("custom:dark_mode").SetErr(errors.New("timeout"))
	_, err = s.DarkMode(ctx)
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_Ping(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := settings.NewRedisStore(db, "")

	mock.ExpectPing().SetVal("PONG")
	assert.NoError(t, s.Ping(context.Background()))

	mock.ExpectPing().SetErr(errors.New("down"))
	assert.Error(t, s.Ping(context.Background()))
}
