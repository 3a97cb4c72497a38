package cache

import (
	"strings"
	"testing"
	"time"

	"github.com/dgnsrekt/mordoo/internal/reading"
)

func TestGenerateKey(t *testing.T) {
	date := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	birth := time.Date(1990, 4, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		kind   reading.Kind
		params KeyParams
		want   string
	}{
		{"horoscope", reading.KindHoroscope, KeyParams{Sign: "Aries", Period: reading.PeriodDaily, Date: date}, "aries_daily_2026-10-16"},
		{"chinese zodiac", reading.KindChineseZodiac, KeyParams{Animal: "Rat", Period: reading.PeriodYearly, Date: date}, "rat_yearly_2026-10-16"},
		{"daily card", reading.KindDailyCard, KeyParams{Date: date}, "2026-10-16"},
		{"spirit card", reading.KindSpiritCard, KeyParams{BirthDate: birth}, "1990-04-02"},
		{"spirit path without name", reading.KindSpiritPath, KeyParams{BirthDate: birth, Name: "  "}, "1990-04-02"},
		{"compatibility", reading.KindCompatibility, KeyParams{Sign: "Leo", SecondSign: "Aries"}, "aries_leo"},
		{"multi word sign", reading.KindHoroscope, KeyParams{Sign: "Big  Dipper", Period: reading.PeriodWeekly, Date: date}, "big-dipper_weekly_2026-10-16"},
		{"missing date", reading.KindDailyCard, KeyParams{}, "undated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GenerateKey(tt.kind, tt.params); got != tt.want {
				t.Errorf("GenerateKey = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGenerateKey_CompatibilityIsSymmetric(t *testing.T) {
	ab := GenerateKey(reading.KindCompatibility, KeyParams{Sign: "aries", SecondSign: "leo"})
	ba := GenerateKey(reading.KindCompatibility, KeyParams{Sign: "leo", SecondSign: "aries"})
	if ab != ba {
		t.Errorf("compatibility keys differ by order: %q vs %q", ab, ba)
	}
}

func TestGenerateKey_IgnoresTimeOfDay(t *testing.T) {
	morning := time.Date(2026, 10, 16, 0, 0, 1, 0, time.Local)
	night := time.Date(2026, 10, 16, 23, 59, 59, 0, time.Local)

	for _, kind := range reading.Kinds {
		a := GenerateKey(kind, KeyParams{Sign: "virgo", Period: reading.PeriodDaily, Date: morning, Question: "งานจะดีไหม"})
		b := GenerateKey(kind, KeyParams{Sign: "virgo", Period: reading.PeriodDaily, Date: night, Question: "งานจะดีไหม"})
		if a != b {
			t.Errorf("%s: keys differ within the same day: %q vs %q", kind, a, b)
		}
	}
}

func TestGenerateKey_NormalizesFreeText(t *testing.T) {
	birth := time.Date(1995, 1, 1, 0, 0, 0, 0, time.UTC)

	// "café" precomposed and decomposed
	composed := GenerateKey(reading.KindNameNumerology, KeyParams{Name: "Café", BirthDate: birth})
	decomposed := GenerateKey(reading.KindNameNumerology, KeyParams{Name: "café", BirthDate: birth})
	if composed != decomposed {
		t.Errorf("normalization mismatch: %q vs %q", composed, decomposed)
	}

	thai := GenerateKey(reading.KindNameNumerology, KeyParams{Name: "สมชาย  ใจดี", BirthDate: birth})
	thaiSpaced := GenerateKey(reading.KindNameNumerology, KeyParams{Name: " สมชาย ใจดี ", BirthDate: birth})
	if thai != thaiSpaced {
		t.Errorf("whitespace changed the key: %q vs %q", thai, thaiSpaced)
	}
	if strings.Contains(thai, "สมชาย") {
		t.Errorf("raw name leaked into key %q", thai)
	}

	other := GenerateKey(reading.KindNameNumerology, KeyParams{Name: "สมหญิง", BirthDate: birth})
	if other == thai {
		t.Error("different names share a key")
	}
}

func TestGenerateKey_TarotQuestion(t *testing.T) {
	date := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)

	a := GenerateKey(reading.KindTarot, KeyParams{Spread: "three_card", Question: "Will I move?", Date: date})
	b := GenerateKey(reading.KindTarot, KeyParams{Spread: "three_card", Question: "will i move?", Date: date})
	c := GenerateKey(reading.KindTarot, KeyParams{Spread: "three_card", Question: "Will I stay?", Date: date})

	if a != b {
		t.Errorf("case changed the key: %q vs %q", a, b)
	}
	if a == c {
		t.Error("different questions share a key")
	}
	if !strings.HasPrefix(a, "three-card_") || !strings.HasSuffix(a, "_2026-10-16") {
		t.Errorf("unexpected key layout %q", a)
	}
}
