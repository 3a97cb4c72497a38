package library

import "unicode/utf8"

// PreviewLimit is the number of characters kept in a preview.
const PreviewLimit = 100

const ellipsis = "..."

// GeneratePreview returns a short excerpt of the reading's main text.
func GeneratePreview(r Reading) string {
	return truncateRunes(previewText(r), PreviewLimit)
}

func previewText(r Reading) string {
	switch v := r.(type) {
	case *TarotReading:
		if v.AISummary != "" {
			return v.AISummary
		}
		if len(v.Cards) > 0 {
			return v.Cards[0].Meaning
		}
		return ""
	case *DailyCardReading:
		if v.Message != "" {
			return v.Message
		}
		return v.Card.Meaning
	case *SpiritCardReading:
		return v.Meaning
	case *SpiritPathReading:
		return v.Description
	case *HoroscopeReading:
		return v.Love
	case *CompatibilityReading:
		return v.Advice
	case *ChineseZodiacReading:
		return v.OverallFortune
	case *NameNumerologyReading:
		return v.PersonalityInterpretation
	case *SpecializedReading:
		return v.Prediction
	}
	return ""
}

// truncateRunes keeps the first limit characters of s and marks the cut.
func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + ellipsis
}
