package domain

import "strings"

// Treatment names one drug.
type Treatment struct {
	Name string `json:"name"`
}

// TreatmentComponent pairs a drug with its dose.
type TreatmentComponent struct {
	Dose      string    `json:"dose,omitempty"`
	Treatment Treatment `json:"treatment"`
}

// TreatmentProtocol is one treatment event, possibly a drug combination.
type TreatmentProtocol struct {
	Components             []TreatmentComponent `json:"components"`
	Response               string               `json:"response,omitempty"`
	ResponseClassification string               `json:"response_classification,omitempty"`
	PassageRange           string               `json:"passage_range,omitempty"`
	StartingDate           string               `json:"starting_date,omitempty"`
	Duration               string               `json:"duration,omitempty"`
	Schedule               string               `json:"schedule,omitempty"`
	Kind                   string               `json:"treatment_type,omitempty"`
}

// DecomposeTreatment splits a "+" separated drug list and a ";" separated
// dose list into components. Equal-length lists pair positionally and a
// single dose applies to every drug. Any other mismatch yields (nil, false).
func DecomposeTreatment(drugs, doses string) (*TreatmentProtocol, bool) {
	drugList := strings.Split(drugs, "+")
	doseList := strings.Split(doses, ";")

	tp := &TreatmentProtocol{Components: make([]TreatmentComponent, 0, len(drugList))}
	switch {
	case len(drugList) == len(doseList):
		for i, drug := range drugList {
			tp.Components = append(tp.Components, TreatmentComponent{
				Dose:      strings.TrimSpace(doseList[i]),
				Treatment: Treatment{Name: strings.TrimSpace(drug)},
			})
		}
	case len(doseList) == 1:
		dose := strings.TrimSpace(doseList[0])
		for _, drug := range drugList {
			tp.Components = append(tp.Components, TreatmentComponent{
				Dose:      dose,
				Treatment: Treatment{Name: strings.TrimSpace(drug)},
			})
		}
	default:
		return nil, false
	}
	return tp, true
}
