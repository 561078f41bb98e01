package scheduler_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloud4india/cloud-pricing/internal/adapter"
	"github.com/cloud4india/cloud-pricing/internal/config"
	"github.com/cloud4india/cloud-pricing/internal/scheduler"
	"github.com/cloud4india/cloud-pricing/internal/store"
	"github.com/cloud4india/cloud-pricing/internal/store/schema"
	"github.com/cloud4india/cloud-pricing/internal/sync"
)

// emptyPortal answers every catalog endpoint with an empty collection and
// counts the requests it saw.
type emptyPortal struct {
	requests atomic.Int64
}

func (p *emptyPortal) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.requests.Add(1)
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"data": []}`)
}

func newScheduler(t *testing.T, portal *emptyPortal) (*scheduler.Scheduler, store.Store) {
	t.Helper()

	server := httptest.NewServer(portal)
	t.Cleanup(server.Close)

	db, err := store.OpenDB(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	s := store.NewSQLiteStore(db)
	require.NoError(t, s.Migrate(context.Background()))

	syncer := sync.New(s, adapter.NewHTTPClient(time.Second), adapter.NewClock(), config.UpstreamConfig{
		BaseURL:             server.URL,
		APIKey:              "test-key",
		DefaultRateCard:     "default",
		SyncIntervalMinutes: 15,
	})
	return scheduler.New(syncer, 15), s
}

func TestRunInitialSyncWhenCacheIsEmpty(t *testing.T) {
	portal := &emptyPortal{}
	sched, s := newScheduler(t, portal)

	sched.RunInitialSync(context.Background())

	assert.Greater(t, portal.requests.Load(), int64(0))

	// The run recorded metadata even though every collection was empty
	metadata, err := s.GetCacheMetadata(context.Background())
	require.NoError(t, err)
	assert.Len(t, metadata, 11)
}

func TestRunInitialSyncSkipsFreshCache(t *testing.T) {
	portal := &emptyPortal{}
	sched, s := newScheduler(t, portal)
	ctx := context.Background()

	require.NoError(t, s.UpsertCacheMetadata(ctx, schema.CacheKeyServices, schema.SyncSuccess, 3, nil, time.Now()))

	sched.RunInitialSync(ctx)

	assert.Equal(t, int64(0), portal.requests.Load())
}

func TestStartAndStop(t *testing.T) {
	sched, _ := newScheduler(t, &emptyPortal{})

	require.NoError(t, sched.Start(context.Background()))
	sched.Stop()

	// Stop on a never-started scheduler is a no-op
	idle, _ := newScheduler(t, &emptyPortal{})
	idle.Stop()
}
