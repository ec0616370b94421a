package constant

// PopularQuestionCategory is one block of the curated questions catalog.
type PopularQuestionCategory struct {
	Category  string   `json:"category"`
	Questions []string `json:"questions"`
}

var popularQuestionsEN = []PopularQuestionCategory{
	{
		Category: "Crop Management",
		Questions: []string{
			"When should I water my wheat crop?",
			"Which fertilizer is best for rice during tillering?",
			"How do I control aphids on mustard?",
			"What is the ideal sowing time for maize?",
		},
	},
	{
		Category: "Soil Health",
		Questions: []string{
			"How can I improve soil fertility naturally?",
			"My soil pH is below 6, what should I add?",
			"How often should I test my soil?",
		},
	},
	{
		Category: "Weather & Season",
		Questions: []string{
			"Which crops suit the upcoming monsoon season?",
			"How do I protect crops from unseasonal rain?",
		},
	},
	{
		Category: "Market & Storage",
		Questions: []string{
			"How should I store grain to avoid moisture damage?",
			"When is the best time to sell my produce?",
		},
	},
}

var popularQuestionsHI = []PopularQuestionCategory{
	{
		Category: "फसल प्रबंधन",
		Questions: []string{
			"गेहूं की सिंचाई कब करनी चाहिए?",
			"धान के लिए कौन सा उर्वरक सबसे अच्छा है?",
			"सरसों पर माहू का नियंत्रण कैसे करें?",
		},
	},
	{
		Category: "मिट्टी की सेहत",
		Questions: []string{
			"मिट्टी की उर्वरता प्राकृतिक रूप से कैसे बढ़ाएं?",
			"मिट्टी का pH 6 से कम है, क्या डालें?",
		},
	},
	{
		Category: "मौसम",
		Questions: []string{
			"आने वाले मानसून के लिए कौन सी फसल उपयुक्त है?",
		},
	},
}

// PopularQuestions returns the curated catalog for a language code,
// falling back to English for unknown codes.
func PopularQuestions(language string) []PopularQuestionCategory {
	switch language {
	case "hi":
		return popularQuestionsHI
	default:
		return popularQuestionsEN
	}
}
