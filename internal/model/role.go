package model

import (
	"fmt"
	"strconv"
	"strings"
)

// TeamRole is the permission level of a team member. The order is total and a
// higher role carries every capability of the lower ones.
type TeamRole int

const (
	RoleViewer      TeamRole = 0
	RoleContributor TeamRole = 1
	RoleOwner       TeamRole = 2
)

var roleLabels = map[TeamRole]string{
	RoleViewer:      "viewer",
	RoleContributor: "contributor",
	RoleOwner:       "owner",
}

// Valid reports whether r is one of the declared roles.
func (r TeamRole) Valid() bool {
	_, ok := roleLabels[r]
	return ok
}

// Compare returns -1, 0 or 1 as r is below, equal to or above other.
func (r TeamRole) Compare(other TeamRole) int {
	switch {
	case r < other:
		return -1
	case r > other:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether r grants everything min grants.
func (r TeamRole) AtLeast(min TeamRole) bool {
	return r.Compare(min) >= 0
}

func (r TeamRole) String() string {
	if label, ok := roleLabels[r]; ok {
		return label
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// ParseTeamRole accepts either the label ("viewer") or the wire integer ("0").
func ParseTeamRole(value string) (TeamRole, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	for role, label := range roleLabels {
		if label == value {
			return role, nil
		}
	}
	if n, err := strconv.Atoi(value); err == nil && TeamRole(n).Valid() {
		return TeamRole(n), nil
	}
	return 0, fmt.Errorf("invalid role: %q (valid values: viewer, contributor, owner)", value)
}
