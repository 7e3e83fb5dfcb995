package core

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const (
	SortByName     = "name"
	SortByCategory = "category"
)

// FilterOrganizations keeps organizations whose name or description contains
// search and that carry the category tag ("All" or empty matches any).
func FilterOrganizations(organizations []Organization, search string, category string) []Organization {
	search = strings.ToLower(search)
	out := make([]Organization, 0, len(organizations))

	for _, org := range organizations {
		if search != "" &&
			!strings.Contains(strings.ToLower(org.Name), search) &&
			!strings.Contains(strings.ToLower(org.Description), search) {
			continue
		}

		if category != "" && category != AllCategories && !slices.Contains(org.Category, category) {
			continue
		}

		out = append(out, org)
	}

	return out
}

// SortOrganizations returns a sorted copy. Sorting by category compares the
// first tag and falls back to the name.
func SortOrganizations(organizations []Organization, by string) []Organization {
	out := slices.Clone(organizations)
	coll := collate.New(language.English, collate.IgnoreCase)

	slices.SortStableFunc(out, func(a, b Organization) int {
		if by == SortByCategory {
			c := coll.CompareString(firstCategory(a), firstCategory(b))
			if c != 0 {
				return c
			}
		}

		return coll.CompareString(a.Name, b.Name)
	})

	return out
}

// OrganizationCategories lists every tag in use, sorted, with "All" first.
func OrganizationCategories(organizations []Organization) []string {
	seen := make(map[string]struct{})
	tags := make([]string, 0)

	for _, org := range organizations {
		for _, tag := range org.Category {
			if _, ok := seen[tag]; ok {
				continue
			}

			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
	}

	collate.New(language.English).SortStrings(tags)

	return append([]string{AllCategories}, tags...)
}

func firstCategory(org Organization) string {
	if len(org.Category) == 0 {
		return ""
	}

	return org.Category[0]
}
