package library

import (
	"time"

	"github.com/dgnsrekt/mordoo/internal/reading"
)

// EntryType is the display category of a library entry.
type EntryType string

const (
	EntryTarot          EntryType = "tarot"
	EntryDailyCard      EntryType = "daily-card"
	EntrySpiritCard     EntryType = "spirit-card"
	EntrySpiritPath     EntryType = "spirit-path"
	EntryHoroscope      EntryType = "horoscope"
	EntryCompatibility  EntryType = "compatibility"
	EntryChineseZodiac  EntryType = "chinese-zodiac"
	EntryNameNumerology EntryType = "numerology"
	EntrySpecialized    EntryType = "specialized"
	EntryUnknown        EntryType = "unknown"
)

// Entry is the read model shown in library listings. It is derived on
// every read and never stored.
type Entry struct {
	ID        string    `json:"id"`
	Type      EntryType `json:"type"`
	Data      Reading   `json:"data"`
	Preview   string    `json:"preview"`
	CreatedAt time.Time `json:"createdAt"`
	Favorite  bool      `json:"favorite"`
}

// Kind returns the reading kind of the entry.
func (e Entry) Kind() reading.Kind {
	if e.Data == nil {
		return ""
	}
	return e.Data.Kind()
}

// ToLibraryEntry maps a reading to its library entry.
func ToLibraryEntry(r Reading, favorite bool) Entry {
	h := r.Header()
	return Entry{
		ID:        h.ID,
		Type:      entryTypeOf(r),
		Data:      r,
		Preview:   GeneratePreview(r),
		CreatedAt: h.CreatedAt,
		Favorite:  favorite,
	}
}

func entryTypeOf(r Reading) EntryType {
	switch r.(type) {
	case *TarotReading:
		return EntryTarot
	case *DailyCardReading:
		return EntryDailyCard
	case *SpiritCardReading:
		return EntrySpiritCard
	case *SpiritPathReading:
		return EntrySpiritPath
	case *HoroscopeReading:
		return EntryHoroscope
	case *CompatibilityReading:
		return EntryCompatibility
	case *ChineseZodiacReading:
		return EntryChineseZodiac
	case *NameNumerologyReading:
		return EntryNameNumerology
	case *SpecializedReading:
		return EntrySpecialized
	}
	return EntryUnknown
}
