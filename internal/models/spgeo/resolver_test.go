package spgeo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	testDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, testDB.AutoMigrate(&IPInfo{}))
	return testDB
}

func setupIPInfoServer(t *testing.T, hits *int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			*hits++
		}
		assert.Equal(t, "secret", r.URL.Query().Get("token"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"ip": "203.0.113.99",
			"city": "Kyiv",
			"region": "Kyiv City",
			"country": "UA",
			"loc": "50.4501,30.5234",
			"org": "AS15169 Example ISP",
			"privacy": {"vpn": true, "proxy": false, "tor": false, "hosting": false}
		}`)
	}))
}

func TestResolveFetchesAndCaches(t *testing.T) {
	db := setupTestDB(t)
	hits := 0
	server := setupIPInfoServer(t, &hits)
	defer server.Close()

	resolver, err := NewResolver(db, "secret", "")
	require.NoError(t, err)
	resolver.SetBaseURL(server.URL)

	info := resolver.Resolve(context.Background(), "203.0.113.99")
	require.NotNil(t, info)
	assert.Equal(t, "UA", info.Country)
	assert.Equal(t, "Kyiv", info.City)
	assert.InDelta(t, 50.4501, info.Latitude, 0.0001)
	assert.InDelta(t, 30.5234, info.Longitude, 0.0001)
	assert.True(t, info.IsVPN)
	assert.False(t, info.IsProxy)
	assert.Equal(t, "vpn", info.ConnectionType)

	// Second resolve must come from the ip_info cache.
	again := resolver.Resolve(context.Background(), "203.0.113.99")
	require.NotNil(t, again)
	assert.Equal(t, info.ID, again.ID)
	assert.Equal(t, 1, hits)
}

func TestResolveSkipsUnknownIP(t *testing.T) {
	db := setupTestDB(t)
	resolver, err := NewResolver(db, "secret", "")
	require.NoError(t, err)

	assert.Nil(t, resolver.Resolve(context.Background(), "unknown"))
	assert.Nil(t, resolver.Resolve(context.Background(), ""))
}

func TestResolveNilOnAPIError(t *testing.T) {
	db := setupTestDB(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	resolver, err := NewResolver(db, "secret", "")
	require.NoError(t, err)
	resolver.SetBaseURL(server.URL)

	assert.Nil(t, resolver.Resolve(context.Background(), "203.0.113.50"))

	var count int64
	require.NoError(t, db.Model(&IPInfo{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestResolveWithoutSources(t *testing.T) {
	db := setupTestDB(t)
	resolver, err := NewResolver(db, "", "")
	require.NoError(t, err)

	assert.Nil(t, resolver.Resolve(context.Background(), "203.0.113.51"))
}

func TestConnectionTypePrecedence(t *testing.T) {
	assert.Equal(t, "tor", ConnectionType(true, true, true, true))
	assert.Equal(t, "vpn", ConnectionType(true, true, false, true))
	assert.Equal(t, "proxy", ConnectionType(false, true, false, true))
	assert.Equal(t, "datacenter", ConnectionType(false, false, false, true))
	assert.Equal(t, "residential", ConnectionType(false, false, false, false))
}

func TestParseLoc(t *testing.T) {
	lat, lng := parseLoc("50.45,30.52")
	assert.InDelta(t, 50.45, lat, 0.0001)
	assert.InDelta(t, 30.52, lng, 0.0001)

	lat, lng = parseLoc("garbage")
	assert.Zero(t, lat)
	assert.Zero(t, lng)
}
