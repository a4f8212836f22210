package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/windfall/kidspeech_service/internal/client"
)

func newMiniRedisRepo(t *testing.T, limit int, ttl time.Duration) (*RedisAttemptRepository, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	rc := client.NewRedisClientFrom(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = rc.Close() })
	return NewRedisAttemptRepository(rc, limit, ttl), mr
}

func seed(ctx context.Context, repo AttemptRepository, learner string, n int) {
	for i := 0; i < n; i++ {
		So(repo.Create(ctx, &Attempt{
			LearnerID:     learner,
			ReferenceText: fmt.Sprintf("sentence %d", i),
			AccuracyScore: 50 + i,
			WordSource:    "engine",
		}), ShouldBeNil)
	}
}

func TestAttemptRepositories(t *testing.T) {
	ctx := context.Background()

	Convey("Given a Redis attempt repository capped at 3", t, func() {
		repo, mr := newMiniRedisRepo(t, 3, time.Hour)

		seed(ctx, repo, "kid-1", 5)

		Convey("Then only the newest attempts are kept, newest first", func() {
			got, err := repo.ListByLearner(ctx, "kid-1", 10)
			So(err, ShouldBeNil)
			So(len(got), ShouldEqual, 3)
			So(got[0].ReferenceText, ShouldEqual, "sentence 4")
			So(got[2].ReferenceText, ShouldEqual, "sentence 2")
			So(got[0].ID.String(), ShouldNotBeEmpty)
			So(got[0].CreatedAt.IsZero(), ShouldBeFalse)
		})

		Convey("Then the list expires after the TTL", func() {
			So(mr.TTL(attemptsKey("kid-1")), ShouldEqual, time.Hour)
			mr.FastForward(2 * time.Hour)
			got, err := repo.ListByLearner(ctx, "kid-1", 10)
			So(err, ShouldBeNil)
			So(got, ShouldBeEmpty)
		})

		Convey("Then the limit argument bounds the listing", func() {
			got, err := repo.ListByLearner(ctx, "kid-1", 1)
			So(err, ShouldBeNil)
			So(len(got), ShouldEqual, 1)
		})

		Convey("Then other learners are isolated", func() {
			got, err := repo.ListByLearner(ctx, "kid-2", 10)
			So(err, ShouldBeNil)
			So(got, ShouldBeEmpty)
		})

		Convey("Then ping succeeds", func() {
			So(repo.Ping(ctx), ShouldBeNil)
		})
	})

	Convey("Given an in-memory attempt repository capped at 2", t, func() {
		repo := NewInMemoryAttemptRepository(2)
		seed(ctx, repo, "kid-1", 3)

		Convey("Then it behaves like the Redis store", func() {
			got, err := repo.ListByLearner(ctx, "kid-1", 10)
			So(err, ShouldBeNil)
			So(len(got), ShouldEqual, 2)
			So(got[0].AccuracyScore, ShouldEqual, 52)
		})

		Convey("Then an attempt without a learner is rejected", func() {
			So(repo.Create(ctx, &Attempt{}), ShouldEqual, ErrInvalidLearner)
		})
	})

	Convey("Given repositories without a backing store", t, func() {
		So(NewPostgresAttemptRepository(nil).Create(ctx, &Attempt{LearnerID: "x"}), ShouldEqual, ErrNotConfigured)
		So(NewRedisAttemptRepository(nil, 1, 0).Ping(ctx), ShouldEqual, ErrNotConfigured)
	})
}
