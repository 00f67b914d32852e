package e2e_test

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/common"
	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/config"
	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/factory"
	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/vitals"
	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

var log = logger.GetOrCreate("e2e-test")

func getBody(t *testing.T, url string) string {
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()
	require.Equal(t, http.StatusOK, resp.StatusCode, url)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return string(body)
}

func TestE2EFlow(t *testing.T) {
	log.Info("======== 1. Start a mock webhook receiver for the raised alerts")
	numWebhookCalls := uint64(0)
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "e2e-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		atomic.AddUint64(&numWebhookCalls, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer webhook.Close()

	log.Info("======== 2. Start the dashboard via componentsHandler")
	cfg := config.Config{
		ListenAddress:                  "127.0.0.1:0",
		TickIntervalInSeconds:          1,
		StatusRefreshIntervalInSeconds: 60,
		Vitals: []vitals.SeriesConfig{
			{
				Kind:        common.BloodPressureSystolic,
				Unit:        "mmHg",
				NormalRange: common.Range{Low: 90, High: 120},
				Current:     155,
				History:     []float64{146, 148, 147, 149, 150, 152, 151, 154, 153},
			},
		},
		AlertJournal: config.AlertJournalConfig{
			DBPath:           filepath.Join(t.TempDir(), "e2e_journal.db"),
			RetentionSeconds: 3600,
		},
		Webhook: config.WebhookConfig{
			Enabled:  true,
			Endpoint: webhook.URL,
			APIKey:   "e2e-key",
		},
	}

	handler, err := factory.NewComponentsHandler(cfg, 2024)
	require.NoError(t, err)

	require.NoError(t, handler.Start())
	defer handler.Close()

	_, port, err := net.SplitHostPort(handler.GetServer().Address())
	require.NoError(t, err)
	url := fmt.Sprintf("http://127.0.0.1:%s", port)

	log.Info("======== 3. Subscribe to the tick events before the first tick")
	resp, err := http.Get(url + "/api/events")
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	reader := bufio.NewReader(resp.Body)
	readEvent := func() (string, string) {
		var name, data string
		for {
			line, errRead := reader.ReadString('\n')
			require.NoError(t, errRead)

			line = strings.TrimRight(line, "\n")
			switch {
			case strings.HasPrefix(line, "event:"):
				name = strings.TrimPrefix(line, "event:")
			case strings.HasPrefix(line, "data:"):
				data = strings.TrimPrefix(line, "data:")
			case line == "" && name != "":
				return name, data
			}
		}
	}

	name, data := readEvent()
	require.Equal(t, "snapshot", name)
	require.Equal(t, int64(155), gjson.Get(data, "vitals.1.current").Int())

	name, data = readEvent()
	require.Equal(t, "tick", name)
	require.Equal(t, int64(1), gjson.Get(data, "tick").Int())
	require.Equal(t, "highBloodPressure", gjson.Get(data, "newAlerts.0.rule").String())

	log.Info("======== 4. Wait until the subscribers of the second tick are done")
	require.Eventually(t, func() bool {
		return handler.GetEngine().Status().Tick >= 3
	}, 6*time.Second, 100*time.Millisecond)

	log.Info("======== 5. Query the display API")
	body := getBody(t, url+"/api/status")
	require.True(t, gjson.Get(body, "running").Bool())
	require.GreaterOrEqual(t, gjson.Get(body, "tick").Int(), int64(2))

	body = getBody(t, url+"/api/vitals")
	require.Equal(t, int64(5), gjson.Get(body, "vitals.#").Int())
	require.Equal(t, "bloodPressureSystolic", gjson.Get(body, "vitals.1.kind").String())
	require.GreaterOrEqual(t, gjson.Get(body, "vitals.1.history.#").Int(), int64(5))
	require.LessOrEqual(t, gjson.Get(body, "vitals.1.history.#").Int(), int64(vitals.HistoryCapacity))

	body = getBody(t, url+"/api/alerts")
	require.GreaterOrEqual(t, gjson.Get(body, "totalRecorded").Int(), int64(2))
	require.LessOrEqual(t, gjson.Get(body, "alerts.#").Int(), int64(5))

	body = getBody(t, url+"/api/alerts/journal?limit=10")
	require.GreaterOrEqual(t, gjson.Get(body, "alerts.#").Int(), int64(2))
	require.Equal(t, "critical", gjson.Get(body, "alerts.0.severity").String())

	body = getBody(t, url+"/api/vitals/heartRate/extended?count=30")
	require.Equal(t, int64(30), gjson.Get(body, "points.#").Int())

	body = getBody(t, url+"/api/devices")
	require.Equal(t, int64(3), gjson.Get(body, "devices.#").Int())
	require.Equal(t, "Apple Watch Series 9", gjson.Get(body, "devices.0.name").String())

	body = getBody(t, url+"/api/patient")
	require.Equal(t, "HV-2024-001", gjson.Get(body, "medicalId").String())

	body = getBody(t, url+"/metrics")
	require.Contains(t, body, "healthvital_ticks_total")
	require.Contains(t, body, "healthvital_devices_connected 2")

	log.Info("======== 6. The webhook received every tick's alerts")
	require.GreaterOrEqual(t, atomic.LoadUint64(&numWebhookCalls), uint64(2))
}
