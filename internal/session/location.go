package session

import (
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/saferunner/saferunner/internal/errors"
)

// LocationKind discriminates the closed set of location variants.
type LocationKind string

const (
	// LocationUnset means no location has been reported.
	LocationUnset LocationKind = ""
	// LocationCoords is a GPS coordinate pair.
	LocationCoords LocationKind = "coords"
	// LocationText is a free-text address or description.
	LocationText LocationKind = "text"
)

// Location is a tagged union: coordinates, free text, or unset.
// The zero value is the unset variant.
type Location struct {
	Kind LocationKind `json:"type,omitempty"`
	Lat  float64      `json:"lat,omitempty"`
	Lon  float64      `json:"lon,omitempty"`
	Text string       `json:"text,omitempty"`
}

// Coordinates builds the GPS variant.
func Coordinates(lat, lon float64) Location {
	return Location{Kind: LocationCoords, Lat: lat, Lon: lon}
}

// FreeText builds the free-text variant. Blank text is rejected.
func FreeText(text string) (Location, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Location{}, apperrors.ErrEmptyLocation
	}
	return Location{Kind: LocationText, Text: text}, nil
}

// IsSet reports whether a location has been reported.
func (l Location) IsSet() bool {
	return l.Kind != LocationUnset
}

// Summary renders the location for user-facing messages.
func (l Location) Summary() string {
	switch l.Kind {
	case LocationCoords:
		return fmt.Sprintf("Location: (lat %.5f, lon %.5f)", l.Lat, l.Lon)
	case LocationText:
		return "Location: " + l.Text
	default:
		return "Location: (not provided)"
	}
}

// UnmarshalJSON validates the variant tag so corrupted persisted state is
// surfaced instead of silently decoding to a half-set union.
func (l *Location) UnmarshalJSON(data []byte) error {
	type raw Location
	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	switch r.Kind {
	case LocationUnset, LocationCoords, LocationText:
		*l = Location(r)
		return nil
	default:
		return fmt.Errorf("%w: unknown location type %q", apperrors.ErrSessionCorrupted, r.Kind)
	}
}
