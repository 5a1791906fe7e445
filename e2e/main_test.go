package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/koding/multiconfig"
	"github.com/nergy-se/priceanalyzer/pkg/api/v1/config"
	"github.com/nergy-se/priceanalyzer/pkg/app"
	"github.com/nergy-se/priceanalyzer/pkg/store"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	DeliveryStart string             `json:"deliveryStart"`
	DeliveryEnd   string             `json:"deliveryEnd"`
	EntryPerArea  map[string]float64 `json:"entryPerArea"`
}

// nordpoolMock serves hourly prices rising through each Stockholm day for every requested date.
func nordpoolMock(t *testing.T, calls *int32) *httptest.Server {
	sthlm, err := time.LoadLocation("Europe/Stockholm")
	require.NoError(t, err)

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		day, err := time.ParseInLocation("2006-01-02", r.URL.Query().Get("date"), sthlm)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		area := r.URL.Query().Get("deliveryArea")

		var entries []entry
		end := day.AddDate(0, 0, 1)
		for i, start := 0, day; start.Before(end); i, start = i+1, start.Add(time.Hour) {
			entries = append(entries, entry{
				DeliveryStart: start.UTC().Format(time.RFC3339),
				DeliveryEnd:   start.Add(time.Hour).UTC().Format(time.RFC3339),
				EntryPerArea:  map[string]float64{area: float64(100 + i*10)},
			})
		}
		w.Header().Set("Content-Type", "application/json")
		err = json.NewEncoder(w).Encode(map[string]interface{}{
			"deliveryDateCET":  day.Format("2006-01-02"),
			"version":          1,
			"updatedAt":        time.Now().UTC().Format(time.RFC3339),
			"deliveryAreas":    []string{area},
			"market":           "DayAhead",
			"currency":         r.URL.Query().Get("currency"),
			"multiAreaEntries": entries,
		})
		assert.NoError(t, err)
	}))
}

func WaitFor(t *testing.T, timeout time.Duration, msg string, ok func() bool) {
	end := time.Now().Add(timeout)
	for {
		if end.Before(time.Now()) {
			t.Fatalf("timeout waiting for: %s", msg)
			return
		}
		time.Sleep(10 * time.Millisecond)
		if ok() {
			return
		}
	}
}

func TestAppComputesAndRecords(t *testing.T) {
	logrus.SetLevel(logrus.DebugLevel)
	var calls int32
	srv := nordpoolMock(t, &calls)
	defer srv.Close()

	cfg := &config.CliConfig{}
	require.NoError(t, (&multiconfig.TagLoader{}).Load(cfg))
	cfg.Areas = "SE3"
	cfg.ProviderURL = srv.URL
	cfg.MQTTAddress = ""
	cfg.HTTPAddress = ""
	cfg.DatabasePath = filepath.Join(t.TempDir(), "history.db")
	cfg.ControllerType = "dummy"

	a := app.New(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	err := a.Start(ctx)
	require.NoError(t, err)
	defer func() {
		cancel()
		a.Wait()
	}()

	area := a.Area("se3")
	require.NotNil(t, area)
	WaitFor(t, 5*time.Second, "first snapshot", func() bool {
		return area.Snapshot() != nil
	})

	snap := area.Snapshot()
	assert.Equal(t, "SE3", snap.Area)
	assert.GreaterOrEqual(t, len(snap.Today), 23)
	require.NotNil(t, snap.Current)
	require.NotNil(t, snap.TodayStats)

	// 100 SEK/MWh at midnight, kWh with 25% VAT
	assert.Equal(t, 0.125, snap.TodayStats.Min)
	assert.True(t, snap.Today[0].IsMin)
	assert.True(t, snap.Today[len(snap.Today)-1].IsMax)
	assert.Greater(t, atomic.LoadInt32(&calls), int32(0))

	db, err := store.Open(cfg.DatabasePath)
	require.NoError(t, err)
	defer db.Close()

	var history []store.Period
	WaitFor(t, 5*time.Second, "recorded history", func() bool {
		history, err = db.History(context.Background(), "SE3", snap.Today[0].Start, snap.Today[len(snap.Today)-1].End)
		return err == nil && len(history) == len(snap.Today)
	})
	assert.Equal(t, snap.Today[0].Value, history[0].Price, fmt.Sprintf("history: %v", history))
}
