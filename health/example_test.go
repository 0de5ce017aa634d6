package health_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/jonwraymond/healthops/health"
)

func ExampleAggregator_CheckHealth() {
	opts := &health.Options{}
	b := health.NewBuilder(opts)

	_ = b.AddFunc("database", func(ctx context.Context, _ *health.CheckContext) (health.Result, error) {
		return health.Healthy("database connected"), nil
	}, "ready")
	_ = b.AddFunc("queue", func(ctx context.Context, _ *health.CheckContext) (health.Result, error) {
		return health.Result{}, errors.New("broker unreachable")
	})

	agg, err := health.NewAggregator(health.NewServices(), opts)
	if err != nil {
		fmt.Println(err)
		return
	}

	report, err := agg.CheckHealth(context.Background(), nil)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println("Overall:", report.Status)
	for _, name := range report.Names() {
		e := report.Entries[name]
		fmt.Printf("%s: %s (%s)\n", name, e.Status, e.Description)
	}
	// Output:
	// Overall: unhealthy
	// database: healthy (database connected)
	// queue: unhealthy (broker unreachable)
}

func ExampleNewAggregator_duplicates() {
	b := health.NewBuilder(nil)
	probe := health.PingProbe(func(context.Context) error { return nil }, "ok")
	_ = b.AddProbe("cache", probe)
	_ = b.AddProbe("Cache", probe)

	_, err := health.NewAggregator(health.NewServices(), b.Options())
	fmt.Println(errors.Is(err, health.ErrInvalidArgument))
	// Output:
	// true
}

func ExampleByTag() {
	b := health.NewBuilder(nil)
	_ = b.AddFunc("database", func(context.Context, *health.CheckContext) (health.Result, error) {
		return health.Healthy("ok"), nil
	}, "ready")
	_ = b.AddFunc("reports", func(context.Context, *health.CheckContext) (health.Result, error) {
		return health.Degraded("behind schedule"), nil
	})

	agg, _ := health.NewAggregator(health.NewServices(), b.Options())
	report, _ := agg.CheckHealth(context.Background(), health.ByTag("ready"))

	fmt.Println(report.Status, len(report.Entries))
	// Output:
	// healthy 1
}

func ExampleNewDataLogValue() {
	v, _ := health.NewDataLogValue("db-check", map[string]any{"rows": 42})
	fmt.Print(v)
	// Output:
	// Health check data for db-check:
	//     rows: 42
	//     HealthCheckName: db-check
}

func ExampleRegisterHandlers() {
	b := health.NewBuilder(nil)
	_ = b.AddProbe("memory", health.NewMemoryProbe(health.MemoryProbeConfig{MaxAlloc: 1 << 40}))
	agg, _ := health.NewAggregator(health.NewServices(), b.Options())

	mux := http.NewServeMux()
	_ = health.RegisterHandlers(mux, agg, health.HandlerConfig{MaxConcurrent: 4})

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		fmt.Println(path, rec.Code)
	}
	// Output:
	// /healthz 200
	// /readyz 200
}
