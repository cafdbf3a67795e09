package core

import "strings"

// classifyUrgency maps a recall to an alert urgency using the kind-specific
// policy: food by regulatory classification, products by hazard keywords,
// vehicles by consequence keywords.
func (e *Engine) classifyUrgency(recall *RecallRecord) Urgency {
	switch recall.Kind {
	case CategoryVehicle:
		return classifyConsequence(recall.Consequence, e.cfg.ConsequenceHighKeywords, e.cfg.ConsequenceMediumKeywords)
	case CategoryProduct:
		return classifyHazard(recall.Hazard, e.cfg.HazardKeywords)
	default:
		return classifyClassification(recall.Classification)
	}
}

// classifyClassification maps FDA classifications: Class I recalls carry a
// reasonable probability of serious harm, Class II a remote one.
func classifyClassification(classification string) Urgency {
	switch classification {
	case "Class I":
		return UrgencyHigh
	case "Class II":
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

// classifyHazard escalates to HIGH when the hazard text names a severe
// outcome; product matches default to MEDIUM otherwise.
func classifyHazard(hazard string, keywords []string) Urgency {
	lower := strings.ToLower(hazard)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return UrgencyHigh
		}
	}
	return UrgencyMedium
}

// VehicleSeverity classifies a vehicle recall's stored severity at ingestion
// time, using the reference keyword lists.
func VehicleSeverity(consequence string) string {
	def := DefaultConfig()
	return strings.ToLower(string(classifyConsequence(consequence, def.ConsequenceHighKeywords, def.ConsequenceMediumKeywords)))
}

// classifyConsequence classifies vehicle urgency from the recall's
// consequence text.
func classifyConsequence(consequence string, high, medium []string) Urgency {
	lower := strings.ToLower(consequence)
	for _, kw := range high {
		if strings.Contains(lower, kw) {
			return UrgencyHigh
		}
	}
	for _, kw := range medium {
		if strings.Contains(lower, kw) {
			return UrgencyMedium
		}
	}
	return UrgencyLow
}
