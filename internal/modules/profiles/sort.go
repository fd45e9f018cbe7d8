package profiles

import (
	"sort"
	"strings"

	"audiencehub/internal/klaviyo"
)

// sortable column keys. Anything else leaves the collection untouched.
const (
	SortByID        = "id"
	SortByEmail     = "email"
	SortByFirstName = "first_name"
	SortByLastName  = "last_name"
	SortByStatus    = "status"
)

// SortProfiles returns a sorted copy of the collection. Comparison is
// case-insensitive lexicographic on the string projection of the key, with
// missing values as empty strings. The sort is stable, so toggling the
// direction twice restores the original order.
func SortProfiles(profiles []klaviyo.Profile, key, dir string) []klaviyo.Profile {
	out := make([]klaviyo.Profile, len(profiles))
	copy(out, profiles)
	if !validSortKey(key) {
		return out
	}

	desc := strings.EqualFold(dir, "desc")
	sort.SliceStable(out, func(i, j int) bool {
		a := strings.ToLower(fieldValue(out[i], key))
		b := strings.ToLower(fieldValue(out[j], key))
		if desc {
			return a > b
		}
		return a < b
	})
	return out
}

func validSortKey(key string) bool {
	switch key {
	case SortByID, SortByEmail, SortByFirstName, SortByLastName, SortByStatus:
		return true
	}
	return false
}

func fieldValue(p klaviyo.Profile, key string) string {
	switch key {
	case SortByID:
		return p.ID
	case SortByEmail:
		return p.Email
	case SortByFirstName:
		return p.FirstName
	case SortByLastName:
		return p.LastName
	case SortByStatus:
		return string(p.Status)
	}
	return ""
}
