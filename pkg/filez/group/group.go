// Package group evaluates Dynamic FileGroup membership: a filter
// expression is matched against every File the caller can see, instead
// of storing per-file membership edges the way Manual groups do (spec
// §3 "Group"). Grounded on the teacher's in-process filter-matching
// idiom rather than any SQL-pushdown pattern, since DynamicFilter is a
// small, fixed-shape AST rather than an arbitrary query.
package group

import (
	"path/filepath"
	"strings"

	"github.com/filez-project/filez/pkg/model"
)

// Evaluate returns the ids of every file in files that matches filter.
// A nil filter matches nothing (a Dynamic group requires a filter).
func Evaluate(filter *model.DynamicFilter, files []model.File, tagsByFile map[model.ID][]model.Tag) []model.ID {
	if filter == nil {
		return nil
	}
	var matched []model.ID
	for _, f := range files {
		if Matches(filter, f, tagsByFile[f.ID]) {
			matched = append(matched, f.ID)
		}
	}
	return matched
}

// Matches reports whether a single file satisfies filter.
func Matches(filter *model.DynamicFilter, f model.File, tags []model.Tag) bool {
	if filter.NameGlob != "" {
		ok, err := filepath.Match(filter.NameGlob, f.Name)
		if err != nil || !ok {
			return false
		}
	}
	if filter.MimePrefix != "" && !strings.HasPrefix(f.MimeType, filter.MimePrefix) {
		return false
	}
	if filter.TagKey != "" {
		found := false
		for _, t := range tags {
			if t.Key != filter.TagKey {
				continue
			}
			if filter.TagValue == "" || t.Value == filter.TagValue {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
