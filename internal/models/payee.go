package models

import "strings"

// PayeeMapping associates a raw merchant string with a canonical destination
// and a category. DestinationOriginal is the permanent join key and is unique
// per owner.
type PayeeMapping struct {
	ID                  int64        `yaml:"id"`
	OwnerID             int64        `yaml:"owner_id"`
	DestinationOriginal string       `yaml:"destination_original"`
	Destination         string       `yaml:"destination"`
	Alias               string       `yaml:"alias,omitempty"`
	Keywords            string       `yaml:"keywords,omitempty"`
	CategoryID          int64        `yaml:"category_id"`
	SubCategoryID       int64        `yaml:"subcategory_id"`
	CategoryType        CategoryType `yaml:"category_type"`
}

// KeywordList splits the comma-joined Keywords field, dropping blanks.
func (m PayeeMapping) KeywordList() []string {
	if m.Keywords == "" {
		return nil
	}
	var out []string
	for _, kw := range strings.Split(m.Keywords, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}
