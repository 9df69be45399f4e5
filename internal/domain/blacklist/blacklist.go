package blacklist

import (
	"strings"

	"github.com/ARUMANDESU/validation"

	"gitlab.com/ucmsv2/emailverify/pkg/errorx"
	"gitlab.com/ucmsv2/emailverify/pkg/validationx"
)

// Entry is a normalized blacklist value. It may name an identity, a handle or
// an email address.
type Entry string

func (e Entry) String() string {
	return string(e)
}

// Normalize trims and lowercases s so that lookups are case-insensitive.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func NewEntry(raw string) (Entry, error) {
	const op = "blacklist.NewEntry"
	n := Normalize(raw)
	if err := validation.Validate(n, validationx.BlacklistEntryRules...); err != nil {
		return "", errorx.Wrap(err, op)
	}
	return Entry(n), nil
}

// Candidates lists the normalized values that are checked against the
// blacklist for one start request. Empty values are skipped.
func Candidates(identity, handle, email string) []Entry {
	out := make([]Entry, 0, 3)
	seen := make(map[string]struct{}, 3)
	for _, v := range []string{identity, handle, email} {
		n := Normalize(v)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, Entry(n))
	}
	return out
}

func Strings(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = string(e)
	}
	return out
}
