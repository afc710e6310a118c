//go:build integration || !unit

package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/shopspring/decimal"

	amqpad "stay_pricing/internal/adapters/amqp"
	server "stay_pricing/internal/adapters/http_server"
	redisad "stay_pricing/internal/adapters/redis"
	"stay_pricing/internal/app"
	"stay_pricing/internal/domain"
	mysqlrepo "stay_pricing/internal/storage/mysql"
)

// ---------- helpers ----------
func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Fatalf("%s not set; export it (e.g. MIGRATIONS_DIR=/path/to/migrations)", k)
	}
	return v
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := mustEnv(t, "MIGRATIONS_DIR")

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)
	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}
	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=stays",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "stays")

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)
	return db
}

// ---------- the test ----------
func TestHTTP_EndToEnd_QuoteAndBook(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	mr := miniredis.RunT(t)
	cache := redisad.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = cache.Close() })

	hotelID := int64(22002)
	if err := repo.UpsertHotel(ctx, domain.Hotel{
		ID:                hotelID,
		Name:              "E2E Hotel",
		BasePricePerNight: decimal.RequireFromString("300"),
		MaxGuestsPerRoom:  2,
		ExtraGuestPrice:   decimal.RequireFromString("50"),
		TaxPercentage:     decimal.RequireFromString("15"),
		TotalRooms:        4,
		MealPlan:          &domain.MealPlan{NameLocalized: "Breakfast", MaxPersonsIncluded: 2, ExtraMealPrice: decimal.RequireFromString("20")},
	}); err != nil {
		t.Fatalf("UpsertHotel: %v", err)
	}
	if err := repo.ReplaceSeasonalRules(ctx, hotelID, []domain.SeasonalPriceRule{
		{StartDate: time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
			PricePerNight: decimal.RequireFromString("500"), IsAvailable: true},
	}); err != nil {
		t.Fatalf("ReplaceSeasonalRules: %v", err)
	}

	q := app.NewQuoteService(repo, cache, time.Minute)
	a := app.NewAdmissionService(q, repo, amqpad.Nop{}, app.ModeAtomic)
	srv := server.New()
	srv.MountHandlers(&server.Handlers{Q: q, A: a, Health: db.PingContext})
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	// straddles the season: 2 nights at 300, 2 at 500
	res, err := http.Get(fmt.Sprintf("%s/v1/hotels/%d/quote?check_in=2025-12-18&check_out=2025-12-22&rooms=1&adults=2", ts.URL, hotelID))
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	var quote struct {
		AverageNightlyPrice string `json:"average_nightly_price"`
		Total               string `json:"total"`
	}
	if err := json.NewDecoder(res.Body).Decode(&quote); err != nil {
		t.Fatalf("decode: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK || quote.AverageNightlyPrice != "400.00" || quote.Total != "1840.00" {
		t.Fatalf("unexpected quote %d: %+v", res.StatusCode, quote)
	}
	if !mr.Exists(fmt.Sprintf("stay:hotel:%d", hotelID)) {
		t.Fatalf("expected the hotel to be cached in redis")
	}

	// six concurrent single-room bookings against four rooms
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		statuses = map[int]int{}
	)
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body := fmt.Sprintf(`{"hotel_id":%d,"check_in":"2025-12-24","check_out":"2025-12-26","rooms":1,"adults":2,"guest_name":"Guest %d","room_name":"Double"}`, hotelID, i)
			res, err := http.Post(ts.URL+"/v1/bookings", "application/json", strings.NewReader(body))
			if err != nil {
				t.Errorf("POST: %v", err)
				return
			}
			res.Body.Close()
			mu.Lock()
			statuses[res.StatusCode]++
			mu.Unlock()
		}(i)
	}
	wg.Wait()
	a.Wait()

	if statuses[http.StatusCreated] != 4 || statuses[http.StatusConflict] != 2 {
		t.Fatalf("expected 4 created and 2 conflicts, got %v", statuses)
	}

	var stored int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings WHERE hotel_id = ? AND status = 'new'`, hotelID).Scan(&stored); err != nil {
		t.Fatalf("count: %v", err)
	}
	if stored != 4 {
		t.Fatalf("expected 4 stored bookings, got %d", stored)
	}
}
