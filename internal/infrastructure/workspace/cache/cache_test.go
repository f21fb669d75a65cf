package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/realmarcin/data-api/pkg/workspace"
)

type mockClient struct {
	mock.Mock
	workspace.Client
}

func (m *mockClient) GetObjectInfo(ctx context.Context, ref workspace.Ref) (workspace.ObjectInfo, error) {
	args := m.Called(ctx, ref)
	return args.Get(0).(workspace.ObjectInfo), args.Error(1)
}

var (
	ref  = workspace.MustParseRef("ReferenceTaxons/242159_taxon")
	info = workspace.ObjectInfo{ObjectID: 4, WorkspaceID: 1, Version: 1, Name: "242159_taxon",
		Workspace: "ReferenceTaxons", Type: "KBaseGenomeAnnotations.Taxon-1.0"}
)

func TestCachesSuccess(t *testing.T) {
	next := &mockClient{}
	next.On("GetObjectInfo", mock.Anything, ref).Return(info, nil).Once()

	c := New(next, 16, time.Minute)
	for i := 0; i < 3; i++ {
		got, err := c.GetObjectInfo(context.Background(), ref)
		require.NoError(t, err)
		assert.Equal(t, info, got)
	}
	assert.Equal(t, 1, c.Len())
	next.AssertNumberOfCalls(t, "GetObjectInfo", 1)
}

func TestDoesNotCacheFailures(t *testing.T) {
	next := &mockClient{}
	next.On("GetObjectInfo", mock.Anything, ref).
		Return(workspace.ObjectInfo{}, workspace.Errorf(workspace.KindConnectivity, "get_object_info", ref.String(), "timeout")).Once()
	next.On("GetObjectInfo", mock.Anything, ref).Return(info, nil).Once()

	c := New(next, 16, time.Minute)
	_, err := c.GetObjectInfo(context.Background(), ref)
	assert.ErrorIs(t, err, workspace.ErrConnectivity)
	assert.Equal(t, 0, c.Len())

	got, err := c.GetObjectInfo(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, info, got)
	next.AssertExpectations(t)
}

func TestEntriesExpire(t *testing.T) {
	next := &mockClient{}
	next.On("GetObjectInfo", mock.Anything, ref).Return(info, nil).Twice()

	c := New(next, 16, 20*time.Millisecond)
	_, err := c.GetObjectInfo(context.Background(), ref)
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 5*time.Millisecond)
	_, err = c.GetObjectInfo(context.Background(), ref)
	require.NoError(t, err)
	next.AssertExpectations(t)
}

func TestConcurrentFetchesShareOneCall(t *testing.T) {
	release := make(chan time.Time)
	next := &mockClient{}
	next.On("GetObjectInfo", mock.Anything, ref).
		WaitUntil(release).
		Return(info, nil).Once()

	c := New(next, 16, time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := c.GetObjectInfo(context.Background(), ref)
			assert.NoError(t, err)
			assert.Equal(t, info, got)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	next.AssertNumberOfCalls(t, "GetObjectInfo", 1)
}

func TestCancelledCallerDoesNotFailOthers(t *testing.T) {
	release := make(chan time.Time)
	next := &mockClient{}
	next.On("GetObjectInfo", mock.Anything, ref).
		WaitUntil(release).
		Return(info, nil).Once()

	c := New(next, 16, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.GetObjectInfo(ctx, ref)
		firstErr <- err
	}()
	time.Sleep(10 * time.Millisecond)

	type result struct {
		info workspace.ObjectInfo
		err  error
	}
	second := make(chan result, 1)
	go func() {
		got, err := c.GetObjectInfo(context.Background(), ref)
		second <- result{got, err}
	}()
	time.Sleep(10 * time.Millisecond)

	cancel()
	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, workspace.ErrConnectivity)
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(release)
	select {
	case res := <-second:
		require.NoError(t, res.err)
		assert.Equal(t, info, res.info)
	case <-time.After(time.Second):
		t.Fatal("second caller did not return")
	}
	assert.Equal(t, 1, c.Len())
	next.AssertNumberOfCalls(t, "GetObjectInfo", 1)
}
