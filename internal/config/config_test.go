package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aura/internal/models"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_ExpandsEnvAndAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AURA_TEST_DB", filepath.Join(dir, "nested", "aura.db"))
	path := writeFile(t, dir, "config.yaml", `
server:
  address: ":9090"
database:
  path: ${AURA_TEST_DB}
notify:
  telegram:
    enabled: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, filepath.Join(dir, "nested", "aura.db"), cfg.Database.Path)
	assert.DirExists(t, filepath.Join(dir, "nested"))
	assert.Equal(t, SessionSQL, cfg.Session.Backend)
	assert.Equal(t, 20, cfg.Booking.MaxGuests)
	assert.Equal(t, "aura.notifications", cfg.Notify.AMQP.Exchange)
	assert.Equal(t, 15*time.Second, cfg.WriteTimeout())
	assert.Equal(t, 5*time.Minute, cfg.SessionCacheTTL())
	assert.Equal(t, "Europe/Zagreb", cfg.Location().String())
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"postgres without dsn", "database:\n  driver: pgx\n"},
		{"unknown driver", "database:\n  driver: mysql\n"},
		{"jwt without secret", "session:\n  backend: jwt\n"},
		{"bad timezone", "restaurant:\n  timezone: Mars/Olympus\n"},
		{"telegram without token", "notify:\n  telegram:\n    enabled: true\n"},
		{"bad trusted proxy", "rate_limit:\n  trusted_proxies: [\"10.0.0.0/33\"]\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			_, err := Load(writeFile(t, dir, "config.yaml", tc.yaml))
			assert.Error(t, err)
		})
	}
}

const restaurantYAML = `
schedule:
  open_time: "12:00"
  close_time: "22:00"
  closed_days: [monday]
holidays:
  country: hr
  years: [2026]
  extra:
    - date: "2026-12-31"
      reason: "Staff party"
menu:
  - name: Brudet
    price: 18.5
    category: fish
    discount_percent: 10
  - name: Fritule
    price: 6
    category: Dessert
    available: false
`

func TestParseRestaurantConfig(t *testing.T) {
	cfg, err := ParseRestaurantConfig([]byte(restaurantYAML))
	require.NoError(t, err)

	assert.Equal(t, "HR", cfg.Holidays.Country)
	assert.True(t, cfg.IsClosedDay(models.Monday))
	assert.False(t, cfg.IsClosedDay(models.Tuesday))

	slots, err := cfg.SlotTimes()
	require.NoError(t, err)
	require.Len(t, slots, 12)
	assert.Equal(t, models.ClockTime("12:00"), slots[0])
	assert.Equal(t, models.ClockTime("23:00"), slots[11])

	items := cfg.MenuItems()
	require.Len(t, items, 2)
	assert.Equal(t, models.Cents(1850), items[0].Price)
	assert.Equal(t, models.CategoryFish, items[0].Category)
	assert.True(t, items[0].IsAvailable)
	assert.False(t, items[1].IsAvailable)
}

func TestParseRestaurantConfig_Errors(t *testing.T) {
	for name, body := range map[string]string{
		"close before open":   "schedule:\n  open_time: \"22:00\"\n  close_time: \"12:00\"\n",
		"bad closed day":      "schedule:\n  closed_days: [someday]\n",
		"bad slot":            "schedule:\n  slots: [\"25:00\"]\n",
		"unsupported country": "holidays:\n  country: DE\n",
		"duplicate menu":      "menu:\n  - {name: A, category: Soup}\n  - {name: a, category: Soup}\n",
		"bad category":        "menu:\n  - {name: A, category: Pizza}\n",
		"bad discount":        "menu:\n  - {name: A, category: Soup, discount_percent: 120}\n",
	} {
		_, err := ParseRestaurantConfig([]byte(body))
		assert.Error(t, err, name)
	}
}

func TestWatchRestaurant_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "restaurant.yaml", restaurantYAML)

	var mu sync.Mutex
	var menus [][]models.MenuItem
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := WatchRestaurant(ctx, path, 10*time.Millisecond, func(c *RestaurantConfig) {
		mu.Lock()
		defer mu.Unlock()
		menus = append(menus, c.MenuItems())
	}, nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("menu:\n  - {name: Pašticada, price: 21, category: Meat}\n"), 0o644))
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(menus) >= 2 && len(menus[len(menus)-1]) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRestaurantWatcher_Poll(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "restaurant.yaml", restaurantYAML)
	stamp := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(path, stamp, stamp))

	var updates []int
	var errs []error
	w, err := newRestaurantWatcher(path,
		func(c *RestaurantConfig) { updates = append(updates, len(c.MenuItems())) },
		func(err error) { errs = append(errs, err) })
	require.NoError(t, err)
	require.Len(t, updates, 1)

	// Same mtime, different size: still a change.
	require.NoError(t, os.WriteFile(path, []byte("menu:\n  - {name: Pašticada, price: 21, category: Meat}\n"), 0o644))
	require.NoError(t, os.Chtimes(path, stamp, stamp))
	w.poll()
	assert.Len(t, updates, 1, "a fresh change waits one quiet interval")
	w.poll()
	require.Len(t, updates, 2)
	assert.Equal(t, 1, updates[1])

	// Touch without new bytes.
	later := stamp.Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))
	w.poll()
	w.poll()
	assert.Len(t, updates, 2)

	// Still being written: the stamp keeps moving, so nothing is parsed.
	require.NoError(t, os.WriteFile(path, []byte("menu: [\n"), 0o644))
	w.poll()
	require.NoError(t, os.WriteFile(path, []byte("menu: [{name: Soup"), 0o644))
	w.poll()
	assert.Empty(t, errs)

	w.poll()
	assert.Len(t, errs, 1, "a stable broken file is reported once")
	w.poll()
	assert.Len(t, errs, 1)
	assert.Len(t, updates, 2)
}
