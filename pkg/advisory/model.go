package advisory

// CommercialRemedy is a store-bought treatment.
type CommercialRemedy struct {
	Product   string `json:"product" validate:"required"`
	Dosage    string `json:"dosage" validate:"required"`
	Frequency string `json:"frequency" validate:"required"`
	Notes     string `json:"notes" validate:"required"`
}

// TraditionalRemedy is a home-made or organic treatment.
type TraditionalRemedy struct {
	Recipe    string `json:"recipe" validate:"required"`
	Frequency string `json:"frequency" validate:"required"`
	Notes     string `json:"notes" validate:"required"`
}

type Section struct {
	Summary           string            `json:"summary" validate:"required"`
	CommercialRemedy  CommercialRemedy  `json:"commercial_remedy"`
	TraditionalRemedy TraditionalRemedy `json:"traditional_remedy"`
}

// Advisory is the bilingual initial advisory. Degraded marks the canned
// fallback and is never serialized.
type Advisory struct {
	English  Section `json:"english"`
	Hindi    Section `json:"hindi"`
	Degraded bool    `json:"-"`
}

// Answer is a bilingual follow-up reply.
type Answer struct {
	English  string `json:"english" validate:"required"`
	Hindi    string `json:"hindi" validate:"required"`
	Degraded bool   `json:"-"`
}

func object(required []string, props map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

func stringProp() map[string]interface{} {
	return map[string]interface{}{"type": "string"}
}

func sectionSchema() map[string]interface{} {
	return object([]string{"summary", "commercial_remedy", "traditional_remedy"}, map[string]interface{}{
		"summary": stringProp(),
		"commercial_remedy": object([]string{"product", "dosage", "frequency", "notes"}, map[string]interface{}{
			"product":   stringProp(),
			"dosage":    stringProp(),
			"frequency": stringProp(),
			"notes":     stringProp(),
		}),
		"traditional_remedy": object([]string{"recipe", "frequency", "notes"}, map[string]interface{}{
			"recipe":    stringProp(),
			"frequency": stringProp(),
			"notes":     stringProp(),
		}),
	})
}

// AdvisorySchema is the JSON Schema sent with initial advisory requests.
func AdvisorySchema() map[string]interface{} {
	return object([]string{"english", "hindi"}, map[string]interface{}{
		"english": sectionSchema(),
		"hindi":   sectionSchema(),
	})
}

// AnswerSchema is the JSON Schema sent with follow-up requests.
func AnswerSchema() map[string]interface{} {
	return object([]string{"english", "hindi"}, map[string]interface{}{
		"english": stringProp(),
		"hindi":   stringProp(),
	})
}
