package library

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dgnsrekt/mordoo/internal/reading"
)

// Builder turns caller-supplied fields into saved readings by stamping an
// id and a creation time. It never persists anything.
type Builder struct {
	newID func(kind reading.Kind) string
	now   func() time.Time
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithIDGenerator replaces the default "{kind}-{uuid}" ids.
func WithIDGenerator(fn func(kind reading.Kind) string) BuilderOption {
	return func(b *Builder) {
		b.newID = fn
	}
}

// WithBuilderClock sets the time source for CreatedAt.
func WithBuilderClock(now func() time.Time) BuilderOption {
	return func(b *Builder) {
		b.now = now
	}
}

// NewBuilder creates a Builder.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		newID: defaultID,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func defaultID(kind reading.Kind) string {
	return kind.String() + "-" + uuid.NewString()
}

func (b *Builder) stamp(kind reading.Kind) Meta {
	return Meta{
		ID:        b.newID(kind),
		Type:      kind,
		CreatedAt: b.now(),
	}
}

func (b *Builder) Tarot(f TarotFields) *TarotReading {
	return &TarotReading{Meta: b.stamp(reading.KindTarot), TarotFields: f}
}

func (b *Builder) DailyCard(f DailyCardFields) *DailyCardReading {
	return &DailyCardReading{Meta: b.stamp(reading.KindDailyCard), DailyCardFields: f}
}

func (b *Builder) SpiritCard(f SpiritCardFields) *SpiritCardReading {
	return &SpiritCardReading{Meta: b.stamp(reading.KindSpiritCard), SpiritCardFields: f}
}

func (b *Builder) SpiritPath(f SpiritPathFields) *SpiritPathReading {
	return &SpiritPathReading{Meta: b.stamp(reading.KindSpiritPath), SpiritPathFields: f}
}

func (b *Builder) Horoscope(f HoroscopeFields) *HoroscopeReading {
	return &HoroscopeReading{Meta: b.stamp(reading.KindHoroscope), HoroscopeFields: f}
}

func (b *Builder) Compatibility(f CompatibilityFields) *CompatibilityReading {
	return &CompatibilityReading{Meta: b.stamp(reading.KindCompatibility), CompatibilityFields: f}
}

func (b *Builder) ChineseZodiac(f ChineseZodiacFields) *ChineseZodiacReading {
	return &ChineseZodiacReading{Meta: b.stamp(reading.KindChineseZodiac), ChineseZodiacFields: f}
}

func (b *Builder) NameNumerology(f NameNumerologyFields) *NameNumerologyReading {
	return &NameNumerologyReading{Meta: b.stamp(reading.KindNameNumerology), NameNumerologyFields: f}
}

func (b *Builder) Specialized(f SpecializedFields) *SpecializedReading {
	return &SpecializedReading{Meta: b.stamp(reading.KindSpecialized), SpecializedFields: f}
}

// FromJSON builds a reading of kind from a JSON object of its fields.
// Any id, type or createdAt in fields is replaced.
func (b *Builder) FromJSON(kind reading.Kind, fields []byte) (Reading, error) {
	r, ok := newReading(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if err := json.Unmarshal(fields, r); err != nil {
		return nil, fmt.Errorf("decode %s fields: %w", kind, err)
	}
	*r.meta() = b.stamp(kind)
	return r, nil
}

var defaultBuilder = NewBuilder()

func BuildSavedTarotReading(f TarotFields) *TarotReading {
	return defaultBuilder.Tarot(f)
}

func BuildSavedDailyCardReading(f DailyCardFields) *DailyCardReading {
	return defaultBuilder.DailyCard(f)
}

func BuildSavedSpiritCardReading(f SpiritCardFields) *SpiritCardReading {
	return defaultBuilder.SpiritCard(f)
}

func BuildSavedSpiritPathReading(f SpiritPathFields) *SpiritPathReading {
	return defaultBuilder.SpiritPath(f)
}

func BuildSavedHoroscopeReading(f HoroscopeFields) *HoroscopeReading {
	return defaultBuilder.Horoscope(f)
}

func BuildSavedCompatibilityReading(f CompatibilityFields) *CompatibilityReading {
	return defaultBuilder.Compatibility(f)
}

func BuildSavedChineseZodiacReading(f ChineseZodiacFields) *ChineseZodiacReading {
	return defaultBuilder.ChineseZodiac(f)
}

func BuildSavedNameNumerologyReading(f NameNumerologyFields) *NameNumerologyReading {
	return defaultBuilder.NameNumerology(f)
}

func BuildSavedSpecializedReading(f SpecializedFields) *SpecializedReading {
	return defaultBuilder.Specialized(f)
}
