package main

import (
	"context"
	"flag"
	"log"
	"math/rand"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/seravalle/locklab/harness"
	"github.com/seravalle/locklab/lock"
	"github.com/seravalle/locklab/resource"
	"github.com/seravalle/locklab/store"
)

var (
	redisAddr  = flag.String("redis", "localhost:6379", "Redis address")
	scenario   = flag.String("scenario", "all", "Scenario: contention, lostupdate, expiry, keys, traffic, all")
	actors     = flag.Int("actors", 100, "Concurrent actors for the contention scenario")
	increments = flag.Int("n", 500, "Increments for the lost-update scenario")
	lease      = flag.Duration("lease", 2*time.Second, "Lock lease duration")
	delay      = flag.Duration("delay", time.Millisecond, "Artificial delay inside each read-modify-write")
	target     = flag.String("target", "http://localhost:8080", "Demo service URL for the traffic scenario")
	requests   = flag.Int("requests", 1000, "Total requests for the traffic scenario")
	clients    = flag.Int("c", 20, "Concurrent clients for the traffic scenario")
)

func main() {
	flag.Parse()
	ctx := context.Background()

	client := redis.NewClient(&redis.Options{Addr: *redisAddr})
	defer client.Close()

	locker := lock.New(store.NewRedis(client), lock.WithRetryInterval(10*time.Millisecond))
	res := resource.NewRedis(client)
	h := harness.New(locker, res, res, harness.WithLease(*lease))

	run := func(name string, fn func() error) {
		if *scenario != "all" && *scenario != name {
			return
		}
		log.Printf("=== %s ===", name)
		if err := fn(); err != nil {
			log.Fatalf("%s failed: %v", name, err)
		}
	}

	run("contention", func() error {
		report, err := h.RunExclusiveContention(ctx, "bench_room", *actors)
		if err != nil {
			return err
		}
		log.Printf("attempts=%d successes=%d violations=%d store_errors=%d",
			report.Attempts, report.Successes, report.Violations, report.StoreErrors)
		if report.Failed(0) {
			log.Fatal("invariant violated: more than one holder observed")
		}
		return nil
	})

	run("lostupdate", func() error {
		unsafe, err := h.RunLostUpdateComparison(ctx, "bench_counter_unsafe", *increments, false, *delay)
		if err != nil {
			return err
		}
		safe, err := h.RunLostUpdateComparison(ctx, "bench_counter_safe", *increments, true, *delay)
		if err != nil {
			return err
		}
		log.Printf("expected=%d without_lock=%d (lost %d) with_lock=%d (lost %d)",
			*increments, unsafe, int64(*increments)-unsafe, safe, int64(*increments)-safe)
		if safe != int64(*increments) {
			log.Fatalf("lost updates under lock: expected %d got %d", *increments, safe)
		}
		return nil
	})

	run("expiry", func() error {
		recovered, err := h.RunExpiryRecovery(ctx, "bench_abandoned", *lease)
		if err != nil {
			return err
		}
		log.Printf("lease=%v recovered_after=%v", *lease, recovered)
		if recovered < *lease {
			log.Fatal("lock recovered before the lease expired")
		}
		return nil
	})

	run("keys", func() error {
		acquired, err := h.RunIndependentKeys(ctx, []string{"lock_a", "lock_b", "lock_c"}, 10)
		if err != nil {
			return err
		}
		for key, count := range acquired {
			log.Printf("%s acquisitions=%d", key, count)
		}
		return nil
	})

	run("traffic", func() error {
		runTraffic(*target, *requests, *clients)
		return nil
	})
}

// weightedPaths mirrors the original load profile: mostly cheap requests
// with a tail of slow ones.
var weightedPaths = []struct {
	path   string
	weight int
}{
	{"/", 30},
	{"/api/fast", 25},
	{"/api/medium", 20},
	{"/api/slow", 15},
	{"/healthz", 10},
}

func pickPath(r *rand.Rand) string {
	total := 0
	for _, wp := range weightedPaths {
		total += wp.weight
	}
	n := r.Intn(total)
	for _, wp := range weightedPaths {
		if n < wp.weight {
			return wp.path
		}
		n -= wp.weight
	}
	return "/"
}

func runTraffic(base string, total, concurrency int) {
	var ok, failed int64
	perClient := total / concurrency

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			r := rand.New(rand.NewSource(seed))
			hc := &http.Client{Timeout: 30 * time.Second}
			for j := 0; j < perClient; j++ {
				resp, err := hc.Get(base + pickPath(r))
				if err != nil || resp.StatusCode != http.StatusOK {
					atomic.AddInt64(&failed, 1)
				} else {
					atomic.AddInt64(&ok, 1)
				}
				if resp != nil {
					resp.Body.Close()
				}
			}
		}(int64(i))
	}
	wg.Wait()

	elapsed := time.Since(start)
	log.Printf("requests=%d ok=%d failed=%d elapsed=%v rps=%.0f",
		total, ok, failed, elapsed, float64(ok+failed)/elapsed.Seconds())
}
