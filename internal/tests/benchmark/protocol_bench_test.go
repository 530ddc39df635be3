package benchmark

import (
	"context"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/yndnr/snapback/internal/core/domain"
	"github.com/yndnr/snapback/internal/core/service"
)

func BenchmarkUpdate(b *testing.B) {
	forEach(b, UserCounts, func(b *testing.B, ec engineCase, count int) {
		svc := newService(b, ec, count)
		ctx := context.Background()

		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if err := svc.UpdateUser(ctx, domain.NewUser(email(i%count), strconv.Itoa(i))); err != nil {
				b.Fatal(err)
			}
		}
		b.StopTimer()
		reportMemory(b)
	})
}

func BenchmarkUpdateSealed(b *testing.B) {
	forEach(b, UserCounts[:1], func(b *testing.B, ec engineCase, count int) {
		svc := newService(b, ec, count, service.WithSnapshotCipher(benchCipher(b)))
		ctx := context.Background()

		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if err := svc.UpdateUser(ctx, domain.NewUser(email(i%count), strconv.Itoa(i))); err != nil {
				b.Fatal(err)
			}
		}
	})
}

// BenchmarkUpdateRollback measures the full capture and restore cycle.
func BenchmarkUpdateRollback(b *testing.B) {
	forEach(b, UserCounts, func(b *testing.B, ec engineCase, count int) {
		svc := newService(b, ec, count)
		ctx := context.Background()

		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			id := email(i % count)
			if err := svc.UpdateUser(ctx, domain.NewUser(id, "changed")); err != nil {
				b.Fatal(err)
			}
			if err := svc.RollbackUser(ctx, id); err != nil {
				b.Fatal(err)
			}
		}
	})
}

// BenchmarkRollbackNoSnapshot measures the no-op path.
func BenchmarkRollbackNoSnapshot(b *testing.B) {
	forEach(b, UserCounts[:1], func(b *testing.B, ec engineCase, count int) {
		svc := newService(b, ec, count)
		ctx := context.Background()

		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if err := svc.RollbackUser(ctx, email(i%count)); err != nil {
				b.Fatal(err)
			}
		}
	})
}

func BenchmarkList(b *testing.B) {
	forEach(b, UserCounts, func(b *testing.B, ec engineCase, count int) {
		svc := newService(b, ec, count)
		ctx := context.Background()

		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			users, err := svc.ListUsers(ctx)
			if err != nil {
				b.Fatal(err)
			}
			if len(users) != count {
				b.Fatalf("listed %d users, want %d", len(users), count)
			}
		}
	})
}

// BenchmarkParallelUpdate spreads updates across identities so lock
// striping can be observed.
func BenchmarkParallelUpdate(b *testing.B) {
	forEach(b, UserCounts[:1], func(b *testing.B, ec engineCase, count int) {
		svc := newService(b, ec, count)
		ctx := context.Background()
		var seq atomic.Int64

		b.ReportAllocs()
		b.ResetTimer()
		b.RunParallel(func(pb *testing.PB) {
			for pb.Next() {
				i := int(seq.Add(1))
				if err := svc.UpdateUser(ctx, domain.NewUser(email(i%count), "p")); err != nil {
					b.Error(err)
					return
				}
			}
		})
	})
}

// BenchmarkParallelHotKey has every goroutine update the same identity.
func BenchmarkParallelHotKey(b *testing.B) {
	forEach(b, []int{1}, func(b *testing.B, ec engineCase, _ int) {
		svc := newService(b, ec, 1)
		ctx := context.Background()

		b.ResetTimer()
		b.RunParallel(func(pb *testing.PB) {
			for pb.Next() {
				if err := svc.UpdateUser(ctx, domain.NewUser(email(0), "hot")); err != nil {
					b.Error(err)
					return
				}
			}
		})
	})
}
