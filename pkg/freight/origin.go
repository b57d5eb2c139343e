package freight

import (
	"context"
	"strings"
)

// OriginResolver maps an origin city name to an origin group.
type OriginResolver struct {
	data        ReferenceData
	defaultCode string
}

// NewOriginResolver creates an OriginResolver. defaultCode names the primary
// hub used when no group matches.
func NewOriginResolver(data ReferenceData, defaultCode string) *OriginResolver {
	return &OriginResolver{data: data, defaultCode: defaultCode}
}

// Resolve returns the origin group for city.
func (r *OriginResolver) Resolve(ctx context.Context, city string) (OriginGroup, error) {
	groups, err := r.data.OriginGroups(ctx)
	if err != nil {
		return OriginGroup{}, asDataUnavailable("origin groups", err)
	}
	return ResolveOrigin(groups, city, r.defaultCode), nil
}

// ResolveOrigin returns the first group with a member city that the input
// contains, or that contains the input, compared case-insensitively.
// Unmatched or empty input yields the default group; if that is absent the
// first group is used, and with no groups at all the zero OriginGroup.
func ResolveOrigin(groups []OriginGroup, city, defaultCode string) OriginGroup {
	needle := strings.ToLower(strings.TrimSpace(city))
	if needle != "" {
		for _, g := range groups {
			for _, member := range g.MemberCities {
				m := strings.ToLower(member)
				if m == "" {
					continue
				}
				if strings.Contains(needle, m) || strings.Contains(m, needle) {
					return g
				}
			}
		}
	}

	for _, g := range groups {
		if g.Code == defaultCode {
			return g
		}
	}
	if len(groups) > 0 {
		return groups[0]
	}
	return OriginGroup{}
}
