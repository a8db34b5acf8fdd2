package services

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// MaxPrestige is the highest prestige rank a user can hold.
const MaxPrestige = 5

// Role is a role held by a guild member.
type Role struct {
	ID   string
	Name string
}

// RoleDirectory is the slice of the chat platform that owns role grants.
// MemberRoles may return roles in any order.
type RoleDirectory interface {
	MemberRoles(ctx context.Context, userID string) ([]Role, error)
	AddRole(ctx context.Context, userID, roleID string) error
	RemoveRole(ctx context.Context, userID, roleID string) error
}

// RankResolver derives a user's prestige from the names of their roles.
type RankResolver struct {
	Roles RoleDirectory
}

func NewRankResolver(roles RoleDirectory) *RankResolver {
	return &RankResolver{Roles: roles}
}

// PrestigeLevel scans the member's roles newest created first and returns the
// rank in [0,5].
func (r *RankResolver) PrestigeLevel(ctx context.Context, userID string) (int, error) {
	roles, err := r.Roles.MemberRoles(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("fetch roles for %s: %w", userID, err)
	}
	sorted := slices.Clone(roles)
	slices.SortStableFunc(sorted, func(a, b Role) int {
		return compareRoleIDs(b.ID, a.ID)
	})
	labels := make([]string, 0, len(sorted))
	for _, role := range sorted {
		labels = append(labels, role.Name)
	}
	return ParsePrestigeRank(labels), nil
}

// compareRoleIDs orders snowflake ids by creation time. Decimal ids without
// leading zeros compare by length first, then lexically.
func compareRoleIDs(a, b string) int {
	if c := cmp.Compare(len(a), len(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// ParsePrestigeRank returns the first label whose second word is a rank in
// [0,5] ("Prestige IV", "Prestige 2"). Labels are scanned in order and words
// outside the range ("The MIX", "Team DC") are skipped.
func ParsePrestigeRank(labels []string) int {
	for _, label := range labels {
		fields := strings.Fields(label)
		if len(fields) < 2 {
			continue
		}
		if n, ok := parseRankToken(fields[1]); ok && n <= MaxPrestige {
			return n
		}
	}
	return 0
}

func parseRankToken(tok string) (int, bool) {
	if n, err := strconv.Atoi(tok); err == nil {
		if n < 0 {
			return 0, false
		}
		return n, true
	}
	return parseRoman(tok)
}

var romanValues = map[byte]int{
	'I': 1, 'V': 5, 'X': 10, 'L': 50, 'C': 100, 'D': 500, 'M': 1000,
}

// parseRoman accepts canonical upper-case numerals only ("IIII" and "iv" fail).
func parseRoman(tok string) (int, bool) {
	if tok == "" {
		return 0, false
	}
	total := 0
	for i := 0; i < len(tok); i++ {
		v, ok := romanValues[tok[i]]
		if !ok {
			return 0, false
		}
		if i+1 < len(tok) && v < romanValues[tok[i+1]] {
			total -= v
		} else {
			total += v
		}
	}
	if total <= 0 || formatRoman(total) != tok {
		return 0, false
	}
	return total, true
}

var romanTable = []struct {
	value int
	sym   string
}{
	{1000, "M"}, {900, "CM"}, {500, "D"}, {400, "CD"},
	{100, "C"}, {90, "XC"}, {50, "L"}, {40, "XL"},
	{10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"},
}

func formatRoman(n int) string {
	var b strings.Builder
	for _, r := range romanTable {
		for n >= r.value {
			b.WriteString(r.sym)
			n -= r.value
		}
	}
	return b.String()
}
