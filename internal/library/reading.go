package library

import (
	"time"

	"github.com/dgnsrekt/mordoo/internal/reading"
)

// Meta is the envelope shared by every saved reading.
type Meta struct {
	ID        string       `json:"id"`
	Type      reading.Kind `json:"type"`
	CreatedAt time.Time    `json:"createdAt"`
}

// Header returns a copy of the envelope.
func (m *Meta) Header() Meta { return *m }

func (m *Meta) meta() *Meta { return m }

// Reading is a saved reading of any kind. It is implemented only by the
// pointer variants in this package.
type Reading interface {
	Kind() reading.Kind
	Header() Meta
	meta() *Meta
}

// TarotCard is one drawn card.
type TarotCard struct {
	Name     string `json:"name"`
	Position string `json:"position,omitempty"`
	Reversed bool   `json:"reversed"`
	Meaning  string `json:"meaning"`
}

type TarotFields struct {
	Spread     string      `json:"spread"`
	Question   string      `json:"question,omitempty"`
	Cards      []TarotCard `json:"cards"`
	AISummary  string      `json:"aiSummary,omitempty"`
	AIEnhanced bool        `json:"aiEnhanced"`
}

type DailyCardFields struct {
	Date       string    `json:"date"`
	Card       TarotCard `json:"card"`
	Message    string    `json:"message,omitempty"`
	AIEnhanced bool      `json:"aiEnhanced"`
}

type SpiritCardFields struct {
	BirthDate  string   `json:"birthDate"`
	CardName   string   `json:"cardName"`
	Element    string   `json:"element,omitempty"`
	Meaning    string   `json:"meaning"`
	Strengths  []string `json:"strengths,omitempty"`
	Challenges []string `json:"challenges,omitempty"`
}

type SpiritPathFields struct {
	BirthDate   string `json:"birthDate"`
	PathNumber  int    `json:"pathNumber"`
	Title       string `json:"title"`
	Description string `json:"description"`
	LifeLesson  string `json:"lifeLesson,omitempty"`
}

type HoroscopeFields struct {
	ZodiacSign   string         `json:"zodiacSign"`
	Period       reading.Period `json:"period"`
	DateRange    string         `json:"dateRange,omitempty"`
	Love         string         `json:"love"`
	Career       string         `json:"career"`
	Health       string         `json:"health"`
	Finance      string         `json:"finance"`
	LuckyNumbers []int          `json:"luckyNumbers,omitempty"`
	LuckyColors  []string       `json:"luckyColors,omitempty"`
	Advice       string         `json:"advice,omitempty"`
	AIEnhanced   bool           `json:"aiEnhanced"`
}

type CompatibilityFields struct {
	Sign1      string   `json:"sign1"`
	Sign2      string   `json:"sign2"`
	Score      int      `json:"score"`
	Summary    string   `json:"summary,omitempty"`
	Strengths  []string `json:"strengths,omitempty"`
	Challenges []string `json:"challenges,omitempty"`
	Advice     string   `json:"advice"`
}

type ChineseZodiacFields struct {
	Animal         string         `json:"animal"`
	Element        string         `json:"element,omitempty"`
	Year           int            `json:"year"`
	Period         reading.Period `json:"period"`
	OverallFortune string         `json:"overallFortune"`
	Career         string         `json:"career"`
	Love           string         `json:"love"`
	Health         string         `json:"health"`
	Wealth         string         `json:"wealth"`
	LuckyNumbers   []int          `json:"luckyNumbers,omitempty"`
	LuckyColors    []string       `json:"luckyColors,omitempty"`
	AIEnhanced     bool           `json:"aiEnhanced"`
}

type NameNumerologyFields struct {
	Name                      string `json:"name"`
	BirthDate                 string `json:"birthDate,omitempty"`
	Number                    int    `json:"number"`
	PersonalityInterpretation string `json:"personalityInterpretation"`
	DestinyInterpretation     string `json:"destinyInterpretation,omitempty"`
	LuckyNumbers              []int  `json:"luckyNumbers,omitempty"`
}

type SpecializedFields struct {
	Topic      string `json:"topic"`
	Question   string `json:"question,omitempty"`
	Prediction string `json:"prediction"`
	Advice     string `json:"advice,omitempty"`
	AIEnhanced bool   `json:"aiEnhanced"`
}

type TarotReading struct {
	Meta
	TarotFields
}

type DailyCardReading struct {
	Meta
	DailyCardFields
}

type SpiritCardReading struct {
	Meta
	SpiritCardFields
}

type SpiritPathReading struct {
	Meta
	SpiritPathFields
}

type HoroscopeReading struct {
	Meta
	HoroscopeFields
}

type CompatibilityReading struct {
	Meta
	CompatibilityFields
}

type ChineseZodiacReading struct {
	Meta
	ChineseZodiacFields
}

type NameNumerologyReading struct {
	Meta
	NameNumerologyFields
}

type SpecializedReading struct {
	Meta
	SpecializedFields
}

func (*TarotReading) Kind() reading.Kind          { return reading.KindTarot }
func (*DailyCardReading) Kind() reading.Kind      { return reading.KindDailyCard }
func (*SpiritCardReading) Kind() reading.Kind     { return reading.KindSpiritCard }
func (*SpiritPathReading) Kind() reading.Kind     { return reading.KindSpiritPath }
func (*HoroscopeReading) Kind() reading.Kind      { return reading.KindHoroscope }
func (*CompatibilityReading) Kind() reading.Kind  { return reading.KindCompatibility }
func (*ChineseZodiacReading) Kind() reading.Kind  { return reading.KindChineseZodiac }
func (*NameNumerologyReading) Kind() reading.Kind { return reading.KindNameNumerology }
func (*SpecializedReading) Kind() reading.Kind    { return reading.KindSpecialized }

// detach returns a shallow copy of r. It returns nil for a nil interface
// and for a nil pointer of any variant.
func detach(r Reading) Reading {
	switch v := r.(type) {
	case *TarotReading:
		return clone(v)
	case *DailyCardReading:
		return clone(v)
	case *SpiritCardReading:
		return clone(v)
	case *SpiritPathReading:
		return clone(v)
	case *HoroscopeReading:
		return clone(v)
	case *CompatibilityReading:
		return clone(v)
	case *ChineseZodiacReading:
		return clone(v)
	case *NameNumerologyReading:
		return clone(v)
	case *SpecializedReading:
		return clone(v)
	}
	return nil
}

func clone[T any, P interface {
	*T
	Reading
}](p P) Reading {
	if p == nil {
		return nil
	}
	c := P(new(T))
	*c = *p
	return c
}

// newReading returns an empty variant for kind.
func newReading(kind reading.Kind) (Reading, bool) {
	switch kind {
	case reading.KindTarot:
		return &TarotReading{}, true
	case reading.KindDailyCard:
		return &DailyCardReading{}, true
	case reading.KindSpiritCard:
		return &SpiritCardReading{}, true
	case reading.KindSpiritPath:
		return &SpiritPathReading{}, true
	case reading.KindHoroscope:
		return &HoroscopeReading{}, true
	case reading.KindCompatibility:
		return &CompatibilityReading{}, true
	case reading.KindChineseZodiac:
		return &ChineseZodiacReading{}, true
	case reading.KindNameNumerology:
		return &NameNumerologyReading{}, true
	case reading.KindSpecialized:
		return &SpecializedReading{}, true
	}
	return nil, false
}
