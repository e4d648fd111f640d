package advisory

import (
	"fmt"
	"strings"
)

const (
	unavailableNoteEN = "LLM service temporarily unavailable."
	unavailableNoteHI = "LLM सेवा अस्थायी रूप से अनुपलब्ध है।"
)

// DisplayName turns a taxonomy label like "Tomato___Late_blight" into a
// readable name: "___" becomes a space-padded em dash (U+2014) and the
// remaining underscores become spaces.
func DisplayName(label string) string {
	return strings.ReplaceAll(strings.ReplaceAll(label, "___", " — "), "_", " ")
}

// Fallback is the advisory returned whenever the model output is unusable.
func Fallback(disease string) Advisory {
	name := DisplayName(disease)
	return Advisory{
		English: Section{
			Summary: fmt.Sprintf("%s was detected. Please consult a local agricultural extension officer for specific treatment advice.", name),
			CommercialRemedy: CommercialRemedy{
				Product:   "Consult local agri-store",
				Dosage:    "As per product label",
				Frequency: "As recommended",
				Notes:     unavailableNoteEN,
			},
			TraditionalRemedy: TraditionalRemedy{
				Recipe:    "Apply neem oil spray (5ml per litre of water) as a general organic treatment.",
				Frequency: "Every 7 days",
				Notes:     unavailableNoteEN,
			},
		},
		Hindi: Section{
			Summary: fmt.Sprintf("%s का पता चला है। विशिष्ट उपचार सलाह के लिए कृपया स्थानीय कृषि विस्तार अधिकारी से परामर्श करें।", name),
			CommercialRemedy: CommercialRemedy{
				Product:   "स्थानीय कृषि दुकान से परामर्श करें",
				Dosage:    "उत्पाद लेबल के अनुसार",
				Frequency: "सिफारिश के अनुसार",
				Notes:     unavailableNoteHI,
			},
			TraditionalRemedy: TraditionalRemedy{
				Recipe:    "एक सामान्य जैविक उपचार के रूप में नीम तेल स्प्रे (5ml प्रति लीटर पानी) लगाएं।",
				Frequency: "हर 7 दिन",
				Notes:     unavailableNoteHI,
			},
		},
		Degraded: true,
	}
}

// FallbackAnswer is the apologetic reply for a failed follow-up.
func FallbackAnswer() Answer {
	return Answer{
		English:  "Sorry, I couldn't process your question. Please try again.",
		Hindi:    "क्षमा करें, मैं आपके प्रश्न को संसाधित नहीं कर सका। कृपया पुनः प्रयास करें।",
		Degraded: true,
	}
}
