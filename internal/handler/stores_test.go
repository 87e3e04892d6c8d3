package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/marketplace/backend/internal/domain"
	"github.com/sysu-ecnc-dev/marketplace/backend/internal/notify"
)

type fakeSchedules struct {
	schedule *domain.WeeklySchedule
	err      error
}

func (f *fakeSchedules) GetSchedule(ctx context.Context, storeID int64) (*domain.WeeklySchedule, error) {
	return f.schedule, f.err
}

func alwaysOpen(storeID int64) *domain.WeeklySchedule {
	s := &domain.WeeklySchedule{StoreID: storeID}
	for i := range s.Days {
		s.Days[i] = domain.DayWindow{Open: "00:00:00", Close: "23:59:59"}
	}
	return s
}

func storeRequest(store *domain.Store) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	return r.WithContext(context.WithValue(r.Context(), StoreCtx, store))
}

func serveData(t *testing.T, handle http.HandlerFunc, r *http.Request) map[string]any {
	t.Helper()

	rec := httptest.NewRecorder()
	handle(rec, r)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeResponse(t, rec)
	require.True(t, resp.Success, resp.Message)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	return data
}

func TestGetStoreFrontEvaluatesLiveSchedule(t *testing.T) {
	h := newTestHandler(t)
	h.schedules = &fakeSchedules{schedule: alwaysOpen(3)}

	// 缓存的状态已经过期
	store := &domain.Store{ID: 3, StoreName: "街角面包房", IsOpen: false}
	data := serveData(t, h.GetStoreFront, storeRequest(store))

	assert.Equal(t, true, data["isOpenNow"])
	assert.Equal(t, false, data["isOpen"])
	assert.NotNil(t, data["schedule"])
}

func TestGetStoreFrontWithoutScheduleIsClosed(t *testing.T) {
	h := newTestHandler(t)
	h.schedules = &fakeSchedules{}

	store := &domain.Store{ID: 3, IsOpen: true}
	data := serveData(t, h.GetStoreFront, storeRequest(store))

	assert.Equal(t, false, data["isOpenNow"])
}

func TestGetStoreFrontFallsBackToCachedStatus(t *testing.T) {
	h := newTestHandler(t)
	h.schedules = &fakeSchedules{err: errors.New("timeout: context deadline exceeded")}

	updatedAt := time.Date(2024, time.January, 8, 10, 0, 0, 0, time.UTC)
	store := &domain.Store{ID: 3, StoreName: "街角面包房", IsOpen: true, StatusUpdatedAt: &updatedAt}
	data := serveData(t, h.GetStoreFront, storeRequest(store))

	assert.Equal(t, "街角面包房", data["storeName"])
	assert.Equal(t, true, data["isOpenNow"])
	assert.Nil(t, data["schedule"])
}

func TestGetStoreAvailabilityFallsBackToCachedStatus(t *testing.T) {
	h := newTestHandler(t)
	h.schedules = &fakeSchedules{err: errors.New("connection refused")}

	updatedAt := time.Date(2024, time.January, 8, 10, 0, 0, 0, time.UTC)
	store := &domain.Store{ID: 3, IsOpen: true, StatusUpdatedAt: &updatedAt}
	data := serveData(t, h.GetStoreAvailability, storeRequest(store))

	assert.Equal(t, float64(3), data["storeID"])
	assert.Equal(t, true, data["isOpen"])
	assert.Equal(t, true, data["cachedIsOpen"])
	assert.Equal(t, "2024-01-08T10:00:00Z", data["asOf"])
}

func TestGetStoreAvailabilityEvaluatesLiveSchedule(t *testing.T) {
	h := newTestHandler(t)
	h.schedules = &fakeSchedules{schedule: alwaysOpen(3)}

	store := &domain.Store{ID: 3, IsOpen: false}
	data := serveData(t, h.GetStoreAvailability, storeRequest(store))

	assert.Equal(t, true, data["isOpen"])
	assert.Equal(t, false, data["cachedIsOpen"])
}

type createCall struct {
	store    domain.Store
	schedule *domain.WeeklySchedule
}

type fakeStores struct {
	calls []createCall
	err   error
}

func (f *fakeStores) CreateStore(store *domain.Store, schedule *domain.WeeklySchedule) error {
	f.calls = append(f.calls, createCall{store: *store, schedule: schedule})
	if f.err != nil {
		return f.err
	}
	store.ID = 9
	if schedule != nil {
		schedule.StoreID = store.ID
	}
	return nil
}

type fakeChannel struct {
	published []amqp.Publishing
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	f.published = append(f.published, msg)
	return nil
}

const createStoreBody = `{
	"storeName": "街角面包房",
	"storeOwner": "王伟",
	"cellNumber": "13800000000",
	"email": "bakery@example.com",
	"schedule": {"days": [
		{"open": "00:00", "close": "23:59:59"},
		{"open": "00:00", "close": "23:59:59"},
		{"open": "00:00", "close": "23:59:59"},
		{"open": "00:00", "close": "23:59:59"},
		{"open": "00:00", "close": "23:59:59"},
		{"open": "00:00", "close": "23:59:59"},
		{"open": "00:00", "close": "23:59:59"}
	]}
}`

func createStoreRequest() *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/stores", strings.NewReader(createStoreBody))
	creator := &domain.User{ID: 1, Email: "owner@example.com", FullName: "王伟", Role: domain.RoleCustomer}
	return r.WithContext(context.WithValue(r.Context(), MyInfoCtx, creator))
}

func TestCreateStoreWritesScheduleAndStatusTogether(t *testing.T) {
	h := newTestHandler(t)
	stores := &fakeStores{}
	ch := &fakeChannel{}
	h.stores = stores
	h.publisher = notify.NewPublisher(ch, time.Second)

	data := serveData(t, h.CreateStore, createStoreRequest())

	require.Len(t, stores.calls, 1)
	call := stores.calls[0]
	require.NotNil(t, call.schedule)
	assert.Equal(t, domain.DayWindow{Open: "00:00:00", Close: "23:59:59"}, call.schedule.Days[time.Wednesday])
	assert.True(t, call.store.IsOpen)
	require.NotNil(t, call.store.StatusUpdatedAt)
	assert.Equal(t, []string{"owner@example.com"}, call.store.Admins)

	// 响应中的状态与写入的缓存状态一致
	assert.Equal(t, float64(9), data["id"])
	assert.Equal(t, true, data["isOpen"])
	assert.Equal(t, call.store.StatusUpdatedAt.Format(time.RFC3339Nano), data["statusUpdatedAt"])

	assert.Len(t, ch.published, 1)
}

func TestCreateStoreFailureWritesNothingElse(t *testing.T) {
	h := newTestHandler(t)
	stores := &fakeStores{err: errors.New("insert store_schedules: connection reset")}
	ch := &fakeChannel{}
	h.stores = stores
	h.publisher = notify.NewPublisher(ch, time.Second)

	rec := httptest.NewRecorder()
	h.CreateStore(rec, createStoreRequest())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, decodeResponse(t, rec).Success)
	assert.Len(t, stores.calls, 1)
	assert.Empty(t, ch.published)
}
