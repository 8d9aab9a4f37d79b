package llu

import (
	"fmt"
	"strings"
)

// Region is a regional deployment of the service
type Region string

// Known regions
const (
	RegionUS     Region = "us"
	RegionEU     Region = "eu"
	RegionEU2    Region = "eu2"
	RegionDE     Region = "de"
	RegionFR     Region = "fr"
	RegionJP     Region = "jp"
	RegionAP     Region = "ap"
	RegionAU     Region = "au"
	RegionAE     Region = "ae"
	RegionCA     Region = "ca"
	RegionLA     Region = "la"
	RegionRU     Region = "ru"
	RegionGlobal Region = "global"
)

// DefaultRegion is used when no region has been configured or stored
const DefaultRegion = RegionUS

// regions is ordered; redirect matching walks it front to back
var regions = []struct {
	region  Region
	host    string
	display string
}{
	{RegionUS, "api-us.libreview.io", "United States"},
	{RegionEU, "api-eu.libreview.io", "Europe"},
	{RegionEU2, "api-eu2.libreview.io", "Europe 2"},
	{RegionDE, "api-de.libreview.io", "Germany"},
	{RegionFR, "api-fr.libreview.io", "France"},
	{RegionJP, "api-jp.libreview.io", "Japan"},
	{RegionAP, "api-ap.libreview.io", "Asia Pacific"},
	{RegionAU, "api-au.libreview.io", "Australia"},
	{RegionAE, "api-ae.libreview.io", "United Arab Emirates"},
	{RegionCA, "api-ca.libreview.io", "Canada"},
	{RegionLA, "api-la.libreview.io", "Latin America"},
	{RegionRU, "api.libreview.ru", "Russia"},
	{RegionGlobal, "api.libreview.io", "Global"},
}

// Regions returns every known region
func Regions() []Region {
	out := make([]Region, 0, len(regions))
	for _, r := range regions {
		out = append(out, r.region)
	}
	return out
}

// ParseRegion resolves a region code, case-insensitively
func ParseRegion(code string) (Region, error) {
	normalized := Region(strings.ToLower(strings.TrimSpace(code)))
	for _, r := range regions {
		if r.region == normalized {
			return r.region, nil
		}
	}
	return "", fmt.Errorf("%w: unknown region %q", ErrInvalidURL, code)
}

// MatchRedirect resolves the region name sent by the service in a login redirect.
// An exact code match wins; otherwise the first region whose host contains the name is used.
func MatchRedirect(name string) (Region, bool) {
	if r, err := ParseRegion(name); err == nil {
		return r, true
	}
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return "", false
	}
	for _, r := range regions {
		if strings.Contains(r.host, needle) {
			return r.region, true
		}
	}
	return "", false
}

// Host returns the API host of the region
func (r Region) Host() string {
	for _, entry := range regions {
		if entry.region == r {
			return entry.host
		}
	}
	return ""
}

// BaseURL returns the HTTPS base URL of the region, or an empty string for unknown regions
func (r Region) BaseURL() string {
	host := r.Host()
	if host == "" {
		return ""
	}
	return "https://" + host
}

// DisplayName returns a human readable region name
func (r Region) DisplayName() string {
	for _, entry := range regions {
		if entry.region == r {
			return entry.display
		}
	}
	return string(r)
}
