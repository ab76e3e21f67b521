package spgeo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/oschwald/geoip2-golang/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const ipinfoBaseURL = "https://ipinfo.io"

// Resolver looks up geolocation for client IPs, caching results in the
// ip_info table. Enrichment is best-effort: any failure yields a nil result
// and the caller records the session without a geolocation link.
type Resolver struct {
	db      *gorm.DB
	token   string
	baseURL string
	mmdb    *geoip2.Reader
	client  *http.Client
}

// ipinfoResponse mirrors the ipinfo.io payload. loc is "lat,lng".
type ipinfoResponse struct {
	IP      string `json:"ip"`
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country"`
	Loc     string `json:"loc"`
	Org     string `json:"org"`
	Privacy struct {
		VPN     bool `json:"vpn"`
		Proxy   bool `json:"proxy"`
		Tor     bool `json:"tor"`
		Hosting bool `json:"hosting"`
	} `json:"privacy"`
}

func NewResolver(db *gorm.DB, token, mmdbPath string) (*Resolver, error) {
	r := &Resolver{
		db:      db,
		token:   token,
		baseURL: ipinfoBaseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}

	if mmdbPath != "" {
		mmdb, err := geoip2.Open(mmdbPath)
		if err != nil {
			return nil, fmt.Errorf("cannot open mmdb %s: %w", mmdbPath, err)
		}
		r.mmdb = mmdb
	}

	return r, nil
}

// SetBaseURL overrides the ipinfo.io endpoint, used by tests.
func (r *Resolver) SetBaseURL(url string) {
	r.baseURL = url
}

func (r *Resolver) Close() {
	if r.mmdb != nil {
		r.mmdb.Close()
	}
}

// Resolve returns the cached IPInfo row for ip, creating it on first
// sighting. Returns nil when the IP is unknown or every lookup source
// failed; the error is already logged in that case.
func (r *Resolver) Resolve(ctx context.Context, ip string) *IPInfo {
	if r == nil || ip == "" || ip == "unknown" {
		return nil
	}

	var cached IPInfo
	err := r.db.WithContext(ctx).Where("ip_address = ?", ip).First(&cached).Error
	if err == nil {
		return &cached
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Error().Err(err).Str("ip", ip).Msg("ip_info lookup failed")
		return nil
	}

	info := r.fetch(ctx, ip)
	if info == nil {
		return nil
	}

	if err := r.db.WithContext(ctx).Create(info).Error; err != nil {
		// Concurrent first sighting: someone else inserted the row first.
		if err2 := r.db.WithContext(ctx).Where("ip_address = ?", ip).First(&cached).Error; err2 == nil {
			return &cached
		}
		log.Error().Err(err).Str("ip", ip).Msg("ip_info insert failed")
		return nil
	}

	return info
}

func (r *Resolver) fetch(ctx context.Context, ip string) *IPInfo {
	if r.token != "" {
		if info := r.fetchIPInfo(ctx, ip); info != nil {
			return info
		}
	}
	return r.lookupMMDB(ip)
}

func (r *Resolver) fetchIPInfo(ctx context.Context, ip string) *IPInfo {
	url := fmt.Sprintf("%s/%s?token=%s", r.baseURL, ip, r.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		log.Error().Err(err).Str("ip", ip).Msg("ipinfo request build failed")
		return nil
	}

	resp, err := r.client.Do(req)
	if err != nil {
		log.Error().Err(err).Str("ip", ip).Msg("ipinfo request failed")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Error().Int("status", resp.StatusCode).Str("ip", ip).Msg("ipinfo error response")
		return nil
	}

	var data ipinfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		log.Error().Err(err).Str("ip", ip).Msg("ipinfo decode failed")
		return nil
	}

	info := &IPInfo{
		IPAddress:    ip,
		Country:      data.Country,
		CountryCode:  data.Country,
		Region:       data.Region,
		City:         data.City,
		ISP:          data.Org,
		Org:          data.Org,
		IsVPN:        data.Privacy.VPN,
		IsProxy:      data.Privacy.Proxy,
		IsTor:        data.Privacy.Tor,
		IsDatacenter: data.Privacy.Hosting,
	}
	info.ConnectionType = ConnectionType(info.IsVPN, info.IsProxy, info.IsTor, info.IsDatacenter)
	info.Latitude, info.Longitude = parseLoc(data.Loc)

	return info
}

// lookupMMDB consults the local MaxMind database. It only knows location
// data, so anonymization flags stay false and the connection type defaults
// to residential.
func (r *Resolver) lookupMMDB(ip string) *IPInfo {
	if r.mmdb == nil {
		return nil
	}

	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return nil
	}

	record, err := r.mmdb.City(addr)
	if err != nil {
		log.Error().Err(err).Str("ip", ip).Msg("mmdb lookup failed")
		return nil
	}

	info := &IPInfo{
		IPAddress:      ip,
		Country:        record.Country.ISOCode,
		CountryCode:    record.Country.ISOCode,
		City:           record.City.Names.English,
		ConnectionType: "residential",
	}
	if record.Location.Latitude != nil {
		info.Latitude = *record.Location.Latitude
	}
	if record.Location.Longitude != nil {
		info.Longitude = *record.Location.Longitude
	}
	if len(record.Subdivisions) > 0 {
		info.Region = record.Subdivisions[0].Names.English
	}

	return info
}

// parseLoc splits ipinfo's "lat,lng" location string.
func parseLoc(loc string) (float64, float64) {
	parts := strings.Split(loc, ",")
	if len(parts) != 2 {
		return 0, 0
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lng, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return 0, 0
	}
	return lat, lng
}
