package reading

import (
	"fmt"
	"strings"
)

// Kind identifies a reading variant.
type Kind string

const (
	KindTarot          Kind = "tarot"
	KindDailyCard      Kind = "daily_card"
	KindSpiritCard     Kind = "spirit_card"
	KindSpiritPath     Kind = "spirit_path"
	KindHoroscope      Kind = "horoscope"
	KindCompatibility  Kind = "compatibility"
	KindChineseZodiac  Kind = "chinese_zodiac"
	KindNameNumerology Kind = "name_numerology"
	KindSpecialized    Kind = "specialized"
)

// Kinds lists every reading kind in display order.
var Kinds = []Kind{
	KindTarot,
	KindDailyCard,
	KindSpiritCard,
	KindSpiritPath,
	KindHoroscope,
	KindCompatibility,
	KindChineseZodiac,
	KindNameNumerology,
	KindSpecialized,
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// String returns the string representation of the kind
func (k Kind) String() string {
	return string(k)
}

// Label returns a human readable name for the kind.
func (k Kind) Label() string {
	switch k {
	case KindTarot:
		return "Tarot"
	case KindDailyCard:
		return "Daily Card"
	case KindSpiritCard:
		return "Spirit Card"
	case KindSpiritPath:
		return "Spirit Path"
	case KindHoroscope:
		return "Horoscope"
	case KindCompatibility:
		return "Compatibility"
	case KindChineseZodiac:
		return "Chinese Zodiac"
	case KindNameNumerology:
		return "Name Numerology"
	case KindSpecialized:
		return "Specialized"
	default:
		return "Unknown"
	}
}

// ParseKind accepts the canonical form as well as dashed or spaced
// variants ("daily-card", "Daily Card").
func ParseKind(s string) (Kind, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	k := Kind(normalized)
	if !k.Valid() {
		return "", fmt.Errorf("unknown reading kind %q", s)
	}
	return k, nil
}
