package models

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxSlugAttempts = 5

// Slugify lowercases s and joins its alphanumeric runs with hyphens.
func Slugify(s string) string {
	var b strings.Builder
	hyphen := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			hyphen = false
		case b.Len() > 0 && !hyphen:
			b.WriteByte('-')
			hyphen = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// BeforeSave assigns a unique slug derived from the merchant name.
func (m *Merchant) BeforeSave(tx *gorm.DB) error {
	if m.Slug != "" {
		return nil
	}
	base := Slugify(m.Name)
	if base == "" {
		base = "merchant"
	}
	candidate := base
	for i := 0; i < maxSlugAttempts; i++ {
		var count int64
		if err := tx.Session(&gorm.Session{NewDB: true}).Model(&Merchant{}).
			Where("slug = ? AND id <> ?", candidate, m.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			m.Slug = candidate
			return nil
		}
		candidate = base + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	}
	return fmt.Errorf("could not allocate slug for %q", m.Name)
}
