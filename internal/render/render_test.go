package render

import (
	"strings"
	"testing"
	"time"

	"github.com/dgnsrekt/mordoo/internal/library"
	"github.com/dgnsrekt/mordoo/internal/reading"
)

func TestMarkdown(t *testing.T) {
	b := library.NewBuilder(library.WithBuilderClock(func() time.Time { return time.Now().Add(-2 * time.Hour) }))

	tests := []struct {
		name    string
		reading library.Reading
		want    []string
	}{
		{
			name: "tarot",
			reading: b.Tarot(library.TarotFields{
				Spread:    "three_card",
				Question:  "Should I move?",
				Cards:     []library.TarotCard{{Name: "The Tower", Position: "past", Reversed: true, Meaning: "upheaval"}},
				AISummary: "Change is coming",
			}),
			want: []string{"# Tarot", "past: The Tower (reversed)", "## Summary", "Change is coming", "2 hours ago"},
		},
		{
			name: "horoscope",
			reading: b.Horoscope(library.HoroscopeFields{
				ZodiacSign:   "leo",
				Period:       reading.PeriodDaily,
				Love:         "ความรักสดใส",
				LuckyNumbers: []int{3, 7},
				LuckyColors:  []string{"gold"},
			}),
			want: []string{"# Horoscope: leo", "## Love", "ความรักสดใส", "Numbers: 3, 7", "Colors: gold"},
		},
		{
			name:    "compatibility",
			reading: b.Compatibility(library.CompatibilityFields{Sign1: "leo", Sign2: "aries", Score: 88, Advice: "Share the stage"}),
			want:    []string{"# Compatibility: leo & aries", "88%", "Share the stage"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := Markdown(tt.reading)
			for _, want := range tt.want {
				if !strings.Contains(md, want) {
					t.Errorf("markdown missing %q:\n%s", want, md)
				}
			}
		})
	}
}

func TestMarkdown_EveryKind(t *testing.T) {
	b := library.NewBuilder()
	readings := []library.Reading{
		b.Tarot(library.TarotFields{}),
		b.DailyCard(library.DailyCardFields{}),
		b.SpiritCard(library.SpiritCardFields{}),
		b.SpiritPath(library.SpiritPathFields{}),
		b.Horoscope(library.HoroscopeFields{}),
		b.Compatibility(library.CompatibilityFields{}),
		b.ChineseZodiac(library.ChineseZodiacFields{}),
		b.NameNumerology(library.NameNumerologyFields{}),
		b.Specialized(library.SpecializedFields{}),
	}

	for _, r := range readings {
		md := Markdown(r)
		if !strings.HasPrefix(md, "# ") {
			t.Errorf("%s: markdown has no title: %q", r.Kind(), md)
		}
		if !strings.Contains(md, r.Header().ID) {
			t.Errorf("%s: markdown missing id", r.Kind())
		}
	}
}

func TestRender(t *testing.T) {
	out, err := Render("# Daily Card\n\nThe Star shines.\n", 60, "notty")
	if err != nil {
		t.Fatalf("Failed to render: %v", err)
	}
	if !strings.Contains(out, "The Star shines.") {
		t.Errorf("rendered output missing body: %q", out)
	}
}
