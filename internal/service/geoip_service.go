package service

import (
	"context"
	"net"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// GeoLocation is the resolved origin of a scan. Unknown/Unknown is a valid
// value; resolution failures never surface to the caller.
type GeoLocation struct {
	Country string
	City    string
}

var (
	unknownLocation = GeoLocation{Country: "Unknown", City: "Unknown"}
	localLocation   = GeoLocation{Country: "Local", City: "Development"}
)

type GeoIPService interface {
	Resolve(ctx context.Context, ip string) GeoLocation
}

type geoIPService struct {
	client    *resty.Client
	geoLogger zerolog.Logger
}

// NewGeoIPService creates a GeoIPService backed by an ip-api.com style JSON
// endpoint. The timeout bounds the worst-case latency a scan redirect pays
// for geolocation.
func NewGeoIPService(baseURL string, timeout time.Duration, logger zerolog.Logger) GeoIPService {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", "InvexQR/1.0")
	return &geoIPService{
		client:    client,
		geoLogger: logger.With().Str("service", "GeoIPService").Logger(),
	}
}

type geoIPResponse struct {
	Status  string `json:"status"`
	Country string `json:"country"`
	City    string `json:"city"`
}

// Resolve maps an IP address to a coarse location. Loopback and private
// addresses short-circuit to a development placeholder without any network
// call; every failure mode degrades to Unknown/Unknown.
func (s *geoIPService) Resolve(ctx context.Context, ip string) GeoLocation {
	if ip == "" {
		return unknownLocation
	}
	if parsed := net.ParseIP(ip); parsed != nil && (parsed.IsLoopback() || parsed.IsPrivate()) {
		return localLocation
	}

	var body geoIPResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetResult(&body).
		Get("/" + ip)
	if err != nil {
		s.geoLogger.Warn().Err(err).Str("ip", ip).Msg("Geolocation lookup failed")
		return unknownLocation
	}
	if resp.StatusCode() != 200 || body.Status != "success" {
		s.geoLogger.Warn().Int("status_code", resp.StatusCode()).Str("ip", ip).Msg("Geolocation lookup returned no result")
		return unknownLocation
	}

	loc := GeoLocation{Country: body.Country, City: body.City}
	if loc.Country == "" {
		loc.Country = "Unknown"
	}
	if loc.City == "" {
		loc.City = "Unknown"
	}
	return loc
}
