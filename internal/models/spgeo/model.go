package spgeo

import "time"

// IPInfo caches the geolocation and anonymization classification of one IP
// address. Rows are written once on first sighting and never refreshed, so
// stale data persists until the row is deleted by hand.
type IPInfo struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	IPAddress   string  `gorm:"uniqueIndex;not null;size:45" json:"ip_address"`
	Country     string  `json:"country"`
	CountryCode string  `json:"country_code"`
	Region      string  `json:"region"`
	City        string  `json:"city"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	ISP         string  `gorm:"column:isp" json:"isp"`
	Org         string  `json:"org"`

	IsVPN        bool `gorm:"column:is_vpn" json:"is_vpn"`
	IsProxy      bool `gorm:"column:is_proxy" json:"is_proxy"`
	IsTor        bool `gorm:"column:is_tor" json:"is_tor"`
	IsDatacenter bool `gorm:"column:is_datacenter" json:"is_datacenter"`

	ConnectionType string    `json:"connection_type"`
	CreatedAt      time.Time `json:"created_at"`
}

func (IPInfo) TableName() string {
	return "ip_info"
}

// ConnectionType derives the classification shown on the dashboard from the
// anonymization flags. Precedence: tor, vpn, proxy, datacenter, residential.
func ConnectionType(vpn, proxy, tor, hosting bool) string {
	switch {
	case tor:
		return "tor"
	case vpn:
		return "vpn"
	case proxy:
		return "proxy"
	case hosting:
		return "datacenter"
	default:
		return "residential"
	}
}
