package benchmark

import (
	"bytes"
	"context"
	"fmt"
	"runtime"
	"testing"

	"github.com/yndnr/snapback/internal/core/domain"
	"github.com/yndnr/snapback/internal/core/service"
	"github.com/yndnr/snapback/internal/storage"
	"github.com/yndnr/snapback/internal/storage/badgerstore"
	"github.com/yndnr/snapback/internal/telemetry/logger"
	"github.com/yndnr/snapback/pkg/crypto/adaptive"
)

// UserCounts are the store sizes benchmarks run against.
var UserCounts = []int{1000, 10000, 50000}

type engineCase struct {
	name string
	open func(b *testing.B) storage.Engine
}

func engines() []engineCase {
	return []engineCase{
		{
			name: storage.EngineMemory,
			open: func(b *testing.B) storage.Engine {
				e, err := storage.Open(storage.Config{Engine: storage.EngineMemory})
				if err != nil {
					b.Fatal(err)
				}
				return e
			},
		},
		{
			name: storage.EngineBadger,
			open: func(b *testing.B) storage.Engine {
				e, err := storage.Open(storage.Config{
					Engine: storage.EngineBadger,
					Badger: badgerstore.DefaultConfig(),
					Logger: logger.ToSlog(logger.Nop()),
				})
				if err != nil {
					b.Fatal(err)
				}
				return e
			},
		},
	}
}

func email(i int) string {
	return fmt.Sprintf("user-%06d@example.com", i)
}

// newService opens engine, wraps it in a UserService and creates count users.
func newService(b *testing.B, ec engineCase, count int, opts ...service.CoordinatorOption) *service.UserService {
	b.Helper()
	e := ec.open(b)
	b.Cleanup(func() { _ = e.Close() })

	opts = append([]service.CoordinatorOption{service.WithLogger(logger.Nop())}, opts...)
	svc := service.NewUserService(e, opts...)

	ctx := context.Background()
	for i := 0; i < count; i++ {
		if err := svc.CreateUser(ctx, domain.NewUser(email(i), "initial")); err != nil {
			b.Fatalf("prefill: %v", err)
		}
	}
	return svc
}

func benchCipher(b *testing.B) adaptive.Cipher {
	c, err := adaptive.New(bytes.Repeat([]byte{1}, adaptive.KeySize), adaptive.CipherAuto)
	if err != nil {
		b.Fatal(err)
	}
	return c
}

// forEach runs fn for every engine and user count.
func forEach(b *testing.B, counts []int, fn func(b *testing.B, ec engineCase, count int)) {
	for _, ec := range engines() {
		for _, count := range counts {
			b.Run(fmt.Sprintf("%s/users_%d", ec.name, count), func(b *testing.B) {
				fn(b, ec, count)
			})
		}
	}
}

func reportMemory(b *testing.B) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.Alloc)/(1024*1024), "heap_MB")
}
