package models

import (
	"fmt"
	"strings"
)

// Rating is the star rating of a book. Unknown sorts below every defined rating.
type Rating int

const (
	RatingUnknown Rating = iota
	RatingOne
	RatingTwo
	RatingThree
	RatingFour
	RatingFive
)

// Ratings lists every rating in display order.
var Ratings = []Rating{RatingOne, RatingTwo, RatingThree, RatingFour, RatingFive, RatingUnknown}

var ratingNames = map[Rating]string{
	RatingUnknown: "Unknown",
	RatingOne:     "One",
	RatingTwo:     "Two",
	RatingThree:   "Three",
	RatingFour:    "Four",
	RatingFive:    "Five",
}

// ParseRating maps a star-rating class token to a Rating. The match is exact;
// anything outside One..Five is RatingUnknown.
func ParseRating(token string) Rating {
	switch token {
	case "One":
		return RatingOne
	case "Two":
		return RatingTwo
	case "Three":
		return RatingThree
	case "Four":
		return RatingFour
	case "Five":
		return RatingFive
	default:
		return RatingUnknown
	}
}

// LookupRating resolves user input such as "three" to a defined rating.
func LookupRating(s string) (Rating, bool) {
	s = strings.TrimSpace(s)
	for r := RatingOne; r <= RatingFive; r++ {
		if strings.EqualFold(s, r.String()) {
			return r, true
		}
	}
	return RatingUnknown, false
}

// Known reports whether r is one of One..Five.
func (r Rating) Known() bool {
	return r >= RatingOne && r <= RatingFive
}

func (r Rating) String() string {
	if name, ok := ratingNames[r]; ok {
		return name
	}
	return ratingNames[RatingUnknown]
}

// MarshalText encodes the rating as its name.
func (r Rating) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText decodes a rating name; unrecognised names become RatingUnknown.
func (r *Rating) UnmarshalText(text []byte) error {
	if r == nil {
		return fmt.Errorf("rating: unmarshal into nil pointer")
	}
	*r = ParseRating(strings.TrimSpace(string(text)))
	return nil
}
