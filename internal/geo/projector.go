// Package geo projects geographic coordinates into projected coordinate
// reference systems identified by EPSG codes.
package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/wroge/wgs84"
)

// ErrInvalidCRS marks an identifier that does not resolve to a known
// coordinate reference system definition.
var ErrInvalidCRS = errors.New("invalid CRS")

// ErrOutOfRange marks a transformation result beyond the plausibility bound,
// which almost always means the target CRS does not cover the input point.
var ErrOutOfRange = errors.New("transformation out of range")

// Coordinates whose magnitude exceeds this bound are rejected instead of
// being passed downstream as implausible marker placements.
const sanityBound = 1e10

type pairKey struct {
	source string
	target string
}

// Projector caches one transformation function per (source, target) pair;
// constructing the transformation dominates the cost of small batches.
type Projector struct {
	mu    sync.Mutex
	cache map[pairKey]wgs84.Func
}

func NewProjector() *Projector {
	return &Projector{
		cache: make(map[pairKey]wgs84.Func),
	}
}

// Transform projects a WGS84-style (longitude, latitude) pair from the source
// CRS into the target CRS. Input and output are both x-first: longitude maps
// to easting, latitude to northing.
func (p *Projector) Transform(sourceCRS, targetCRS string, lon, lat float64) (x, y float64, err error) {
	transform, err := p.transformFunc(sourceCRS, targetCRS)
	if err != nil {
		return 0, 0, err
	}

	x, y, _ = transform(lon, lat, 0)

	if math.IsNaN(x) || math.IsNaN(y) || math.Abs(x) > sanityBound || math.Abs(y) > sanityBound {
		return 0, 0, fmt.Errorf("%w: (%g, %g) via %s -> %s", ErrOutOfRange, x, y, sourceCRS, targetCRS)
	}
	return x, y, nil
}

// Validate resolves both reference systems without transforming anything, so
// a misconfigured pair is rejected once before a batch starts instead of
// failing on every record.
func (p *Projector) Validate(sourceCRS, targetCRS string) error {
	_, err := p.transformFunc(sourceCRS, targetCRS)
	return err
}

func (p *Projector) transformFunc(sourceCRS, targetCRS string) (wgs84.Func, error) {
	key := pairKey{source: sourceCRS, target: targetCRS}

	p.mu.Lock()
	defer p.mu.Unlock()

	if f, ok := p.cache[key]; ok {
		return f, nil
	}

	source, err := resolve(sourceCRS)
	if err != nil {
		return nil, err
	}
	target, err := resolve(targetCRS)
	if err != nil {
		return nil, err
	}

	f := wgs84.Transform(source, target)
	p.cache[key] = f
	return f, nil
}

func resolve(id string) (wgs84.CoordinateReferenceSystem, error) {
	code, err := ParseEPSG(id)
	if err != nil {
		return nil, err
	}

	if crs := wgs84.EPSG().Code(code); crs != nil {
		return crs, nil
	}
	if crs, ok := ntmZone(code); ok {
		return crs, nil
	}
	return nil, fmt.Errorf("%w: no definition for EPSG:%d", ErrInvalidCRS, code)
}

// ntmZone covers EPSG:5105 through EPSG:5130, the Norwegian NTM zones
// (ETRS89/GRS80, one zone per degree of longitude). The EPSG registry carries
// no definitions for them, so the transverse mercator is constructed from the
// published parameters: central meridian at zone + 0.5 degrees, latitude of
// origin 58, unit scale, false easting 100000, false northing 1000000.
func ntmZone(code int) (wgs84.CoordinateReferenceSystem, bool) {
	if code < 5105 || code > 5130 {
		return nil, false
	}
	zone := float64(code - 5100)
	return wgs84.ETRS89().TransverseMercator(zone+0.5, 58, 1, 100000, 1000000), true
}

// ParseEPSG accepts "EPSG:NNNN" identifiers as well as bare numeric codes.
func ParseEPSG(id string) (int, error) {
	s := strings.TrimSpace(id)
	if rest, ok := strings.CutPrefix(strings.ToUpper(s), "EPSG:"); ok {
		s = rest
	}
	code, err := strconv.Atoi(s)
	if err != nil || code <= 0 {
		return 0, fmt.Errorf("%w: %q is not an EPSG identifier", ErrInvalidCRS, id)
	}
	return code, nil
}
