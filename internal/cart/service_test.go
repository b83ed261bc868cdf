package cart

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	pkgerrors "github.com/verdeleaf/storefront-backend/pkg/errors"
	"github.com/verdeleaf/storefront-backend/pkg/logger"
)

type memoryStorage struct {
	entries map[string]string
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{entries: map[string]string{}}
}

func (m *memoryStorage) Get(_ context.Context, token string) (string, error) {
	return m.entries[token], nil
}

func (m *memoryStorage) Set(_ context.Context, token, payload string) error {
	m.entries[token] = payload
	return nil
}

func (m *memoryStorage) Remove(_ context.Context, token string) error {
	delete(m.entries, token)
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cart-test", Output: io.Discard})
}

func newTestService(t *testing.T) (*Service, *memoryStorage) {
	t.Helper()
	store := newMemoryStorage()
	svc, err := NewService(store, testLogger())
	require.NoError(t, err)
	return svc, store
}

func TestServicePersistsOnEveryMutation(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	token := NewToken()

	_, err := svc.AddItem(ctx, token, item("p1", 1500), 2)
	require.NoError(t, err)
	require.Contains(t, store.entries[token], "p1")

	loaded, err := svc.Load(ctx, token)
	require.NoError(t, err)
	require.Equal(t, 2, loaded.ItemCount())
	require.EqualValues(t, 3000, loaded.TotalCents())

	_, err = svc.UpdateQuantity(ctx, token, "p1", 5)
	require.NoError(t, err)

	loaded, err = svc.Load(ctx, token)
	require.NoError(t, err)
	require.Equal(t, 5, loaded.ItemCount())
}

func TestServiceRejectsNonPositiveQuantity(t *testing.T) {
	svc, _ := newTestService(t)

	for _, qty := range []int{0, -2} {
		_, err := svc.AddItem(context.Background(), NewToken(), item("p1", 1500), qty)
		require.Error(t, err)
		appErr := pkgerrors.As(err)
		require.NotNil(t, appErr)
		require.Equal(t, pkgerrors.CodeValidation, appErr.Code())
	}
}

func TestServiceMalformedStorageFailsOpen(t *testing.T) {
	svc, store := newTestService(t)
	token := NewToken()
	store.entries[token] = "{not json"

	loaded, err := svc.Load(context.Background(), token)
	require.NoError(t, err)
	require.Empty(t, loaded.Items)
}

func TestServiceClearErasesStorage(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	token := NewToken()

	_, err := svc.AddItem(ctx, token, item("p1", 1500), 1)
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx, token))
	_, ok := store.entries[token]
	require.False(t, ok)

	loaded, err := svc.Load(ctx, token)
	require.NoError(t, err)
	require.Empty(t, loaded.Items)
}

func TestServiceEmptyTokenLoadsEmptyCart(t *testing.T) {
	svc, _ := newTestService(t)

	loaded, err := svc.Load(context.Background(), "")
	require.NoError(t, err)
	require.Empty(t, loaded.Items)
}
