package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/dgnsrekt/mordoo/internal/reading"
)

// KeyParams is the semantic identity of a reading request. Only the
// fields relevant to the kind are used.
type KeyParams struct {
	Sign       string         // Zodiac sign (horoscope, compatibility)
	SecondSign string         // Partner sign (compatibility)
	Animal     string         // Chinese zodiac animal
	Period     reading.Period // daily, weekly, ...
	Date       time.Time      // Day the reading is for
	BirthDate  time.Time
	Name       string
	Question   string
	Spread     string // Tarot spread
	Topic      string // Specialized reading topic
}

const dateLayout = "2006-01-02"

// GenerateKey derives the cache key for a request. It is a pure function:
// equal params always give equal keys, whatever the time of day in Date.
func GenerateKey(kind reading.Kind, p KeyParams) string {
	switch kind {
	case reading.KindHoroscope:
		return join(token(p.Sign), token(string(p.Period)), day(p.Date))
	case reading.KindChineseZodiac:
		return join(token(p.Animal), token(string(p.Period)), day(p.Date))
	case reading.KindDailyCard:
		return day(p.Date)
	case reading.KindSpiritCard:
		return day(p.BirthDate)
	case reading.KindSpiritPath:
		if strings.TrimSpace(p.Name) == "" {
			return day(p.BirthDate)
		}
		return join(day(p.BirthDate), digest(p.Name))
	case reading.KindCompatibility:
		pair := []string{token(p.Sign), token(p.SecondSign)}
		sort.Strings(pair)
		return join(pair...)
	case reading.KindNameNumerology:
		return join(digest(p.Name), day(p.BirthDate))
	case reading.KindTarot:
		return join(token(p.Spread), digest(p.Question), day(p.Date))
	case reading.KindSpecialized:
		return join(token(p.Topic), digest(p.Question), day(p.Date))
	default:
		return join(token(kind.String()), day(p.Date))
	}
}

func join(parts ...string) string {
	return strings.Join(parts, "_")
}

// token lower-cases s and replaces inner whitespace with dashes so it
// cannot collide with the "_" separator.
func token(s string) string {
	fields := strings.Fields(strings.ToLower(s))
	t := strings.Join(fields, "-")
	t = strings.ReplaceAll(t, "_", "-")
	if t == "" {
		return "none"
	}
	return t
}

func day(t time.Time) string {
	if t.IsZero() {
		return "undated"
	}
	return t.Format(dateLayout)
}

// digest reduces free text to a short stable hash. Text is normalized so
// that differently composed or cased spellings of the same name (common
// with Thai input methods) share a key.
func digest(text string) string {
	normalized := norm.NFC.String(text)
	normalized = cases.Fold().String(normalized)
	normalized = strings.Join(strings.Fields(normalized), " ")

	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:8])
}
