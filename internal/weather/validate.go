package weather

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Query parameter names accepted by the current weather endpoint.
const (
	ParamZipcode   = "zipcode"
	ParamLatitude  = "latitude"
	ParamLongitude = "longitude"
	ParamServices  = "services"
)

const (
	latitudeRule  = "gte=-90,lte=90"
	longitudeRule = "gte=-180,lte=180"
	zipcodeRule   = "required,number"

	msgLatitude       = "latitude invalid, must be decimal point number between -90 and +90"
	msgLongitude      = "longitude invalid, must be decimal point number between -180 and +180"
	msgLocation       = "This location is invalid"
	msgMissingInput   = "[latitude, longitude] pair or zipcode must be present"
	msgEmptyServices  = "services must name at least one service"
	msgGeocodingUnset = "Google maps service not setup"
	msgGeocodingError = "Google maps service error"
)

// Validator turns raw query parameters into a ValidatedRequest.
// Every problem with the input is collected before failing.
type Validator struct {
	registry *Registry
	geocoder Geocoder
	check    *validator.Validate
	logger   *zap.Logger
}

// NewValidator creates a Validator. geocoder may be nil when geocoding is disabled.
func NewValidator(registry *Registry, geocoder Geocoder, logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{
		registry: registry,
		geocoder: geocoder,
		check:    validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// Validate parses query into a ValidatedRequest.
//
// Input problems are returned together as a single CodeInvalidInput error.
// A zipcode lookup without a configured geocoder fails with
// CodeServiceNotAvailable, and a geocoder outage during the lookup fails with
// CodeGoogleMapsError; both stop validation immediately.
func (v *Validator) Validate(ctx context.Context, query map[string]string) (ValidatedRequest, error) {
	var (
		errs  []string
		coord Coordinate
	)

	zipcode, hasZip := query[ParamZipcode]
	rawLat, hasLat := query[ParamLatitude]
	rawLon, hasLon := query[ParamLongitude]

	switch {
	case hasZip:
		c, err := v.resolveZipcode(ctx, zipcode)
		switch {
		case errors.Is(err, ErrLocationNotFound):
			errs = append(errs, fmt.Sprintf("Invalid zipcode %s", zipcode))
		case err != nil:
			return ValidatedRequest{}, err
		default:
			coord = c
		}

	case hasLat || hasLon:
		lat, latOK := v.parseDegrees(rawLat, hasLat, latitudeRule)
		if !latOK {
			errs = append(errs, msgLatitude)
		}
		lon, lonOK := v.parseDegrees(rawLon, hasLon, longitudeRule)
		if !lonOK {
			errs = append(errs, msgLongitude)
		}
		coord = Coordinate{Latitude: lat, Longitude: lon}

		if latOK && lonOK && v.geocoder != nil && !v.plausible(ctx, coord) {
			errs = append(errs, msgLocation)
		}

	default:
		errs = append(errs, msgMissingInput)
	}

	services, msg := v.selectServices(query)
	if msg != "" {
		errs = append(errs, msg)
	}

	if len(errs) > 0 {
		loggerFor(ctx, v.logger).Info("rejected current weather request", zap.Strings("errors", errs))
		return ValidatedRequest{}, NewInputError(errs)
	}

	return ValidatedRequest{Coordinate: coord, Providers: services}, nil
}

func (v *Validator) resolveZipcode(ctx context.Context, zipcode string) (Coordinate, error) {
	zipcode = strings.TrimSpace(zipcode)
	if v.geocoder == nil {
		return Coordinate{}, NewError(CodeServiceNotAvailable, msgGeocodingUnset, nil)
	}
	if err := v.check.Var(zipcode, zipcodeRule); err != nil {
		return Coordinate{}, ErrLocationNotFound
	}

	coord, err := v.geocoder.Resolve(ctx, zipcode)
	if err != nil {
		if errors.Is(err, ErrLocationNotFound) {
			return Coordinate{}, err
		}
		loggerFor(ctx, v.logger).Error("zipcode lookup failed", zap.String("zipcode", zipcode), zap.Error(err))
		return Coordinate{}, NewError(CodeGoogleMapsError, msgGeocodingError, err)
	}
	return coord, nil
}

func (v *Validator) parseDegrees(raw string, present bool, rule string) (float64, bool) {
	if !present {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false
	}
	if err := v.check.Var(f, rule); err != nil {
		return 0, false
	}
	return f, true
}

// plausible asks the geocoder about coord. A geocoder failure skips the check
// so lat/lon requests keep working while geocoding is down.
func (v *Validator) plausible(ctx context.Context, coord Coordinate) bool {
	ok, err := v.geocoder.Validate(ctx, coord)
	if err != nil {
		loggerFor(ctx, v.logger).Warn("location validation skipped",
			zap.Float64("latitude", coord.Latitude),
			zap.Float64("longitude", coord.Longitude),
			zap.Error(err))
		return true
	}
	return ok
}

// selectServices returns the requested providers, or every registered provider
// when the parameter is absent. The second value is a validation message.
func (v *Validator) selectServices(query map[string]string) ([]string, string) {
	raw, ok := query[ParamServices]
	if !ok {
		return v.registry.Names(), ""
	}

	var (
		selected []string
		invalid  []string
		seen     = make(map[string]struct{})
	)
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		if !v.registry.Has(name) {
			invalid = append(invalid, name)
			continue
		}
		selected = append(selected, name)
	}

	if len(invalid) > 0 {
		sort.Strings(invalid)
		return nil, fmt.Sprintf("Invalid services {%s}", strings.Join(invalid, ", "))
	}
	if len(selected) == 0 {
		return nil, msgEmptyServices
	}
	return selected, ""
}
