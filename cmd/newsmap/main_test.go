package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/pevans/newsmap/notifications"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI runs the CLI against a temp database
func runCLI(t *testing.T, args ...string) (string, error) {
	var out bytes.Buffer
	err := run(context.Background(), args, &out)
	return out.String(), err
}

func useTempDB(t *testing.T) {
	t.Setenv("NEWSMAP_CONFIG", "")
	t.Setenv("NEWSMAP_DB", filepath.Join(t.TempDir(), "newsmap.db"))
}

func TestRun_Usage(t *testing.T) {
	useTempDB(t)

	out, err := runCLI(t)
	assert.ErrorIs(t, err, errUsage)
	assert.Contains(t, out, "Usage:")

	out, err = runCLI(t, "bogus")
	assert.ErrorIs(t, err, errUsage)
	assert.Contains(t, out, "unknown command: bogus")

	_, err = runCLI(t, "help")
	assert.NoError(t, err)
}

func TestNewspapers_AddListDelete(t *testing.T) {
	useTempDB(t)

	out, err := runCLI(t, "newspapers", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No newspapers registered.")

	out, err = runCLI(t, "newspapers", "add", "--title", "El País", "--url", "https://elpais.com", "--country", "esp")
	require.NoError(t, err)
	assert.Contains(t, out, "Country: ESP")
	id := strings.TrimSpace(strings.TrimPrefix(strings.SplitN(out, "\n", 2)[0], "Created newspaper:"))

	_, err = runCLI(t, "newspapers", "add", "--title", "Le Monde", "--url", "https://www.lemonde.fr", "--country", "FRA")
	require.NoError(t, err)

	out, err = runCLI(t, "newspapers", "list", "--country", "ESP")
	require.NoError(t, err)
	assert.Contains(t, out, "El País")
	assert.NotContains(t, out, "Le Monde")

	out, err = runCLI(t, "newspapers", "list", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"country_code": "FRA"`)

	out, err = runCLI(t, "newspapers", "delete", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted newspaper: "+id)

	_, err = runCLI(t, "newspapers", "delete", id)
	assert.Error(t, err)
}

func TestNewspapers_AddRequiresFlags(t *testing.T) {
	useTempDB(t)

	out, err := runCLI(t, "newspapers", "add", "--title", "No URL")
	assert.ErrorIs(t, err, errUsage)
	assert.Contains(t, out, "--url is required")
}

func TestNewspapers_AddNotifiesSubscribers(t *testing.T) {
	useTempDB(t)

	store, err := notifications.NewNotificationStore(os.Getenv("NEWSMAP_DB"))
	require.NoError(t, err)
	defer store.Close()

	follower, other := uuid.New(), uuid.New()
	_, err = store.Subscribe(follower, []string{"esp"}, true)
	require.NoError(t, err)
	_, err = store.Subscribe(other, []string{"FRA"}, true)
	require.NoError(t, err)

	out, err := runCLI(t, "newspapers", "add", "--title", "El País", "--url", "https://elpais.com", "--country", "ESP")
	require.NoError(t, err)
	assert.Contains(t, out, "Notified 1 subscribers")

	list, err := store.List(follower, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, notifications.NotificationTypeNewNewspaper, list[0].Data.Type)
	assert.Equal(t, "ESP", list[0].Data.CountryCode)

	list, err = store.List(other, 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestNewspapers_Discover(t *testing.T) {
	useTempDB(t)

	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`<html><head><link rel="alternate" type="application/rss+xml" href="/feed.xml"></head></html>`))
	}))
	t.Cleanup(site.Close)

	_, err := runCLI(t, "newspapers", "add", "--title", "Daily", "--url", site.URL+"/", "--country", "USA")
	require.NoError(t, err)

	out, err := runCLI(t, "newspapers", "discover", "-n", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Checked 1 newspapers: 1 feeds found")

	out, err = runCLI(t, "newspapers", "list", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, site.URL+"/feed.xml")

	_, err = runCLI(t, "newspapers", "discover", "--concurrency", "0")
	assert.ErrorIs(t, err, errUsage)
}

func TestCountries(t *testing.T) {
	useTempDB(t)

	out, err := runCLI(t, "countries", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "ESP  Spain")
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 64)

	out, err = runCLI(t, "countries", "match", "Spain", "ESP")
	require.NoError(t, err)
	assert.Contains(t, out, "rule: canonical")

	out, err = runCLI(t, "countries", "match", "Spain", "FRA")
	require.NoError(t, err)
	assert.Contains(t, out, "does not match")

	out, err = runCLI(t, "countries", "suggest", "Atlantis")
	require.NoError(t, err)
	assert.Equal(t, "ATL (not registered)\n", out)

	out, err = runCLI(t, "countries", "suggest", "France")
	require.NoError(t, err)
	assert.Equal(t, "FRA\n", out)

	_, err = runCLI(t, "countries", "match", "Spain")
	assert.ErrorIs(t, err, errUsage)
}
