package geo

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"LifeLine/pkg/errors"
)

const (
	EarthRadiusKm   = 6371.0
	DefaultRadiusKm = 5.0
)

type Point struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180 &&
		!math.IsNaN(p.Lat) && !math.IsNaN(p.Lon)
}

func (p Point) String() string {
	return strconv.FormatFloat(p.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lon, 'f', -1, 64)
}

// Distance is the haversine great-circle distance in kilometres.
func Distance(a, b Point) float64 {
	if a == b {
		return 0
	}
	lat1, lat2 := toRad(a.Lat), toRad(b.Lat)
	dLat := lat2 - lat1
	dLon := toRad(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }

// Round2 rounds a distance for display.
func Round2(km float64) float64 {
	return math.Round(km*100) / 100
}

// ParseLocation parses "lat,lon" as submitted by clients. Whitespace around
// either component is ignored.
func ParseLocation(raw string) (Point, error) {
	latS, lonS, ok := strings.Cut(strings.TrimSpace(raw), ",")
	if !ok {
		return Point{}, errors.Validation("location must be \"lat,lon\"")
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latS), 64)
	if err != nil {
		return Point{}, errors.WrapKind(err, errors.KindValidation, "invalid latitude")
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonS), 64)
	if err != nil {
		return Point{}, errors.WrapKind(err, errors.KindValidation, "invalid longitude")
	}
	p := Point{Lat: lat, Lon: lon}
	if !p.Valid() {
		return Point{}, errors.Validation("coordinates out of range")
	}
	return p, nil
}

// Site is anything with a name, a position and an active flag.
type Site interface {
	SiteName() string
	SitePoint() Point
	SiteActive() bool
}

// Ranked pairs a site with its distance from the query point.
type Ranked[T Site] struct {
	Site       T
	DistanceKm float64
}

// Nearby returns active sites within radiusKm of origin, nearest first,
// ties broken by name. A non-positive radius means DefaultRadiusKm.
func Nearby[T Site](origin Point, radiusKm float64, sites []T) []Ranked[T] {
	if radiusKm <= 0 {
		radiusKm = DefaultRadiusKm
	}
	out := make([]Ranked[T], 0, len(sites))
	for _, s := range sites {
		if !s.SiteActive() {
			continue
		}
		d := Distance(origin, s.SitePoint())
		if d <= radiusKm {
			out = append(out, Ranked[T]{Site: s, DistanceKm: d})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DistanceKm != out[j].DistanceKm {
			return out[i].DistanceKm < out[j].DistanceKm
		}
		return out[i].Site.SiteName() < out[j].Site.SiteName()
	})
	return out
}
