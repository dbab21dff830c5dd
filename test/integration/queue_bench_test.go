package integration

import (
	"fmt"
	"testing"
	"time"

	"github.com/Papyszoo/Modelibr-sub005/internal/models"
	"github.com/Papyszoo/Modelibr-sub005/internal/storage/postgres"
)

// BenchmarkJobStore_Enqueue measures insert cost for distinct jobs.
func BenchmarkJobStore_Enqueue(b *testing.B) {
	db, ctx := setupTestDB(b)
	store := postgres.NewJobStore(db)

	for i := 0; i < b.N; i++ {
		hash := fmt.Sprintf("%064x", i)
		j, err := models.NewModelThumbnailJob(1, uint(i+1), hash, time.Now().UTC())
		if err != nil {
			b.Fatal(err)
		}
		if _, err := store.Enqueue(ctx, j); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkJobStore_EnqueueDuplicate measures the idempotent fast path.
func BenchmarkJobStore_EnqueueDuplicate(b *testing.B) {
	db, ctx := setupTestDB(b)
	store := postgres.NewJobStore(db)

	mk := func() *models.ThumbnailJob {
		j, err := models.NewModelThumbnailJob(1, 2, integrationHash, time.Now().UTC())
		if err != nil {
			b.Fatal(err)
		}
		return j
	}
	if _, err := store.Enqueue(ctx, mk()); err != nil {
		b.Fatal(err)
	}

	for i := 0; i < b.N; i++ {
		if _, err := store.Enqueue(ctx, mk()); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkJobStore_Get measures single-row reads with events preloaded.
func BenchmarkJobStore_Get(b *testing.B) {
	db, ctx := setupTestDB(b)
	store := postgres.NewJobStore(db)

	j, err := models.NewModelThumbnailJob(1, 2, integrationHash, time.Now().UTC())
	if err != nil {
		b.Fatal(err)
	}
	stored, err := store.Enqueue(ctx, j)
	if err != nil {
		b.Fatal(err)
	}

	for i := 0; i < b.N; i++ {
		if _, err := store.Get(ctx, stored.ID); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkJobStore_TryClaimNext measures a claim against a deep queue.
func BenchmarkJobStore_TryClaimNext(b *testing.B) {
	db, ctx := setupTestDB(b)
	store := postgres.NewJobStore(db)

	for i := 0; i < 100; i++ {
		hash := fmt.Sprintf("%064x", i)
		j, err := models.NewModelThumbnailJob(1, uint(i+1), hash, time.Now().UTC())
		if err != nil {
			b.Fatal(err)
		}
		if _, err := store.Enqueue(ctx, j); err != nil {
			b.Fatal(err)
		}
	}

	for i := 0; i < b.N; i++ {
		j, err := store.TryClaimNext(ctx, "bench-worker", time.Now().UTC())
		if err != nil {
			b.Fatal(err)
		}
		if j != nil {
			// Requeue so the queue never drains.
			j.MarkAsFailed("bench requeue", time.Now().UTC())
			j.AttemptCount = 0
			if err := store.Save(ctx, j); err != nil {
				b.Fatal(err)
			}
		}
	}
}
