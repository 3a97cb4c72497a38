// Package render turns saved readings into Markdown for the terminal.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/dgnsrekt/mordoo/internal/library"
)

// Markdown renders r as a Markdown document.
func Markdown(r library.Reading) string {
	var b strings.Builder
	h := r.Header()

	fmt.Fprintf(&b, "# %s\n\n", title(r))
	fmt.Fprintf(&b, "_Saved %s_ · `%s`\n\n", humanize.Time(h.CreatedAt), h.ID)

	switch v := r.(type) {
	case *library.TarotReading:
		field(&b, "Spread", v.Spread)
		field(&b, "Question", v.Question)
		for i, c := range v.Cards {
			name := c.Name
			if c.Reversed {
				name += " (reversed)"
			}
			if c.Position != "" {
				name = c.Position + ": " + name
			}
			fmt.Fprintf(&b, "%d. **%s** %s\n", i+1, name, c.Meaning)
		}
		if len(v.Cards) > 0 {
			b.WriteString("\n")
		}
		section(&b, "Summary", v.AISummary)
	case *library.DailyCardReading:
		field(&b, "Date", v.Date)
		field(&b, "Card", v.Card.Name)
		section(&b, "Meaning", v.Card.Meaning)
		section(&b, "Message", v.Message)
	case *library.SpiritCardReading:
		field(&b, "Birth date", v.BirthDate)
		field(&b, "Element", v.Element)
		section(&b, "Meaning", v.Meaning)
		list(&b, "Strengths", v.Strengths)
		list(&b, "Challenges", v.Challenges)
	case *library.SpiritPathReading:
		field(&b, "Birth date", v.BirthDate)
		field(&b, "Path number", strconv.Itoa(v.PathNumber))
		section(&b, "Description", v.Description)
		section(&b, "Life lesson", v.LifeLesson)
	case *library.HoroscopeReading:
		field(&b, "Period", string(v.Period))
		field(&b, "Dates", v.DateRange)
		section(&b, "Love", v.Love)
		section(&b, "Career", v.Career)
		section(&b, "Health", v.Health)
		section(&b, "Finance", v.Finance)
		lucky(&b, v.LuckyNumbers, v.LuckyColors)
		section(&b, "Advice", v.Advice)
	case *library.CompatibilityReading:
		field(&b, "Score", strconv.Itoa(v.Score)+"%")
		section(&b, "Summary", v.Summary)
		list(&b, "Strengths", v.Strengths)
		list(&b, "Challenges", v.Challenges)
		section(&b, "Advice", v.Advice)
	case *library.ChineseZodiacReading:
		field(&b, "Element", v.Element)
		if v.Year != 0 {
			field(&b, "Year", strconv.Itoa(v.Year))
		}
		field(&b, "Period", string(v.Period))
		section(&b, "Overall", v.OverallFortune)
		section(&b, "Career", v.Career)
		section(&b, "Love", v.Love)
		section(&b, "Health", v.Health)
		section(&b, "Wealth", v.Wealth)
		lucky(&b, v.LuckyNumbers, v.LuckyColors)
	case *library.NameNumerologyReading:
		field(&b, "Number", strconv.Itoa(v.Number))
		field(&b, "Birth date", v.BirthDate)
		section(&b, "Personality", v.PersonalityInterpretation)
		section(&b, "Destiny", v.DestinyInterpretation)
		lucky(&b, v.LuckyNumbers, nil)
	case *library.SpecializedReading:
		field(&b, "Question", v.Question)
		section(&b, "Prediction", v.Prediction)
		section(&b, "Advice", v.Advice)
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

// Render renders Markdown for a terminal of the given width. Style is a
// glamour style name, "auto", or a path to a JSON style.
func Render(md string, width int, style string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithColorProfile(lipgloss.ColorProfile()),
		styleOption(style),
		glamour.WithWordWrap(width),
		glamour.WithPreservedNewLines(),
	)
	if err != nil {
		return "", fmt.Errorf("unable to create renderer: %w", err)
	}

	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("unable to render markdown: %w", err)
	}
	return out, nil
}

func styleOption(style string) glamour.TermRendererOption {
	switch {
	case style == "" || style == styles.AutoStyle:
		return glamour.WithAutoStyle()
	case styles.DefaultStyles[style] != nil:
		return glamour.WithStandardStyle(style)
	default:
		return glamour.WithStylePath(style)
	}
}

func title(r library.Reading) string {
	switch v := r.(type) {
	case *library.HoroscopeReading:
		return "Horoscope: " + v.ZodiacSign
	case *library.CompatibilityReading:
		return fmt.Sprintf("Compatibility: %s & %s", v.Sign1, v.Sign2)
	case *library.ChineseZodiacReading:
		return "Chinese Zodiac: " + v.Animal
	case *library.NameNumerologyReading:
		return "Name Numerology: " + v.Name
	case *library.SpiritCardReading:
		return "Spirit Card: " + v.CardName
	case *library.SpiritPathReading:
		if v.Title != "" {
			return "Spirit Path: " + v.Title
		}
	case *library.SpecializedReading:
		if v.Topic != "" {
			return "Reading: " + v.Topic
		}
	}
	return r.Kind().Label()
}

func field(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "**%s:** %s  \n", name, value)
}

func section(b *strings.Builder, name, text string) {
	if text == "" {
		return
	}
	fmt.Fprintf(b, "\n## %s\n\n%s\n", name, text)
}

func list(b *strings.Builder, name string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n## %s\n\n", name)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}

func lucky(b *strings.Builder, numbers []int, colors []string) {
	if len(numbers) == 0 && len(colors) == 0 {
		return
	}
	b.WriteString("\n## Lucky\n\n")
	if len(numbers) > 0 {
		parts := make([]string, len(numbers))
		for i, n := range numbers {
			parts[i] = strconv.Itoa(n)
		}
		fmt.Fprintf(b, "- Numbers: %s\n", strings.Join(parts, ", "))
	}
	if len(colors) > 0 {
		fmt.Fprintf(b, "- Colors: %s\n", strings.Join(colors, ", "))
	}
}
