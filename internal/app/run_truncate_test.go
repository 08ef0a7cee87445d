package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dev-tams/gluekit/internal/config"
	"github.com/dev-tams/gluekit/internal/notify"
	"github.com/dev-tams/gluekit/internal/storage"
	s3store "github.com/dev-tams/gluekit/internal/storage/s3"
)

// bucketFake is an in-memory bucket with a fixed page size.
type bucketFake struct {
	keys      []string
	pageSize  int
	denied    map[string]bool
	deleteErr error
	deletes   [][]string
}

func (b *bucketFake) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	start := 0
	if in.ContinuationToken != nil {
		start, _ = strconv.Atoi(*in.ContinuationToken)
	}
	end := min(start+b.pageSize, len(b.keys))

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(end < len(b.keys))}
	for _, k := range b.keys[start:end] {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	if end < len(b.keys) {
		out.NextContinuationToken = aws.String(strconv.Itoa(end))
	}
	return out, nil
}

func (b *bucketFake) DeleteObjects(_ context.Context, in *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	if b.deleteErr != nil {
		return nil, b.deleteErr
	}
	var keys []string
	out := &s3.DeleteObjectsOutput{}
	for _, o := range in.Delete.Objects {
		k := aws.ToString(o.Key)
		keys = append(keys, k)
		if b.denied[k] {
			out.Errors = append(out.Errors, types.Error{Key: o.Key, Code: aws.String("AccessDenied"), Message: aws.String("Access Denied")})
			continue
		}
		out.Deleted = append(out.Deleted, types.DeletedObject{Key: o.Key})
	}
	b.deletes = append(b.deletes, keys)
	return out, nil
}

func useStores(t *testing.T, stores map[string]storage.Truncater) {
	t.Helper()
	orig := openStores
	t.Cleanup(func() { openStores = orig })

	openStores = func(_ context.Context, _ *config.Config, include map[string]struct{}) (map[string]storage.Truncater, error) {
		out := map[string]storage.Truncater{}
		for name, st := range stores {
			if _, ok := include[name]; ok {
				out[name] = st
			}
		}
		return out, nil
	}
}

func truncateConfig() *config.Config {
	return &config.Config{
		Version: 1,
		Storage: []config.StorageConfig{
			{Name: "lake", Type: "s3", S3: &config.S3Config{Bucket: "lake"}},
		},
		Truncate: []config.TruncateJobConfig{
			{Name: "staging", Storage: "lake", Prefix: "staging/", BatchSize: 2},
			{Name: "scratch", Storage: "lake", Prefix: "scratch/"},
		},
	}
}

func TestRunTruncateTalliesPartialFailures(t *testing.T) {
	fake := &bucketFake{
		keys:     []string{"staging/a", "staging/b", "staging/c", "staging/d", "staging/e"},
		pageSize: 3,
		denied:   map[string]bool{"staging/d": true},
	}
	useStores(t, map[string]storage.Truncater{"lake": s3store.NewWithClient("lake", "lake", "", fake)})

	results, err := RunTruncateWithResults(context.Background(), truncateConfig(), []string{"staging"}, zerolog.New(zerolog.NewTestWriter(t)))
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	assert.Equal(t, notify.StatusSuccess, res.Status)
	assert.Equal(t, "s3://lake/staging/", res.Location)
	assert.Equal(t, 3, res.Batches)
	assert.Equal(t, 4, res.Deleted)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, [][]string{{"staging/a", "staging/b"}, {"staging/c"}, {"staging/d", "staging/e"}}, fake.deletes)
}

func TestRunTruncateRunsAllJobsByDefault(t *testing.T) {
	fake := &bucketFake{keys: []string{"x"}, pageSize: 1000}
	useStores(t, map[string]storage.Truncater{"lake": s3store.NewWithClient("lake", "lake", "", fake)})

	results, err := RunTruncateWithResults(context.Background(), truncateConfig(), nil, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "staging", results[0].Job)
	assert.Equal(t, "scratch", results[1].Job)
}

func TestRunTruncateStopsOnHardFailureAndNotifies(t *testing.T) {
	var (
		mu     sync.Mutex
		events []notify.Event
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ev notify.Event
		_ = json.NewDecoder(r.Body).Decode(&ev)
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	boom := errors.New("connection reset")
	fake := &bucketFake{keys: []string{"staging/a"}, pageSize: 10, deleteErr: boom}
	useStores(t, map[string]storage.Truncater{"lake": s3store.NewWithClient("lake", "lake", "", fake)})

	cfg := truncateConfig()
	cfg.Notifications = []config.NotificationConfig{{
		Type:   "webhook",
		On:     []string{"both"},
		Config: config.NotificationDetails{URL: srv.URL},
	}}

	results, err := RunTruncateWithResults(context.Background(), cfg, nil, zerolog.Nop())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	require.Len(t, results, 1, "second job must not run")
	assert.Equal(t, notify.StatusFailure, results[0].Status)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 1)
	assert.Equal(t, "staging", events[0].Job)
	assert.Equal(t, notify.StatusFailure, events[0].Status)
	assert.Contains(t, events[0].Error, "connection reset")
}

func TestRunTruncateUnknownJob(t *testing.T) {
	useStores(t, map[string]storage.Truncater{})

	_, err := RunTruncateWithResults(context.Background(), truncateConfig(), []string{"nope"}, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"nope" not found`)
}

func TestRunTruncateNoJobsConfigured(t *testing.T) {
	cfg := truncateConfig()
	cfg.Truncate = nil

	err := RunTruncate(context.Background(), cfg, nil, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no truncate jobs configured")
}

func TestRunTruncateMissingStore(t *testing.T) {
	useStores(t, map[string]storage.Truncater{})

	results, err := RunTruncateWithResults(context.Background(), truncateConfig(), []string{"scratch"}, zerolog.Nop())
	require.Error(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, err.Error(), `storage "lake" not found`)
}

func TestNotificationContextIgnoresParentCancel(t *testing.T) {
	type key string
	const k key = "job"

	parent, stop := context.WithCancel(context.WithValue(context.Background(), k, "staging"))
	stop()

	ctx, cancel := notificationContext(parent)
	defer cancel()

	assert.NoError(t, ctx.Err(), "notification context should outlive a canceled run")
	assert.Equal(t, "staging", ctx.Value(k))

	dl, ok := ctx.Deadline()
	require.True(t, ok)
	remaining := time.Until(dl)
	assert.True(t, remaining > 0 && remaining <= notificationTimeout, "unexpected deadline window: %s", remaining)
}
