package model

type OnboardingStep string

const (
	StepChoosingCity       OnboardingStep = "choosing_city"
	StepEnteringIdentifier OnboardingStep = "entering_identifier"
	StepComplete           OnboardingStep = "complete"
)

type SelectCityRequest struct {
	City string `json:"city"`
}

type SubmitIdentifierRequest struct {
	Identifier string `json:"identifier"`
}

type OnboardingResponse struct {
	FlowID       string           `json:"flow_id"`
	Step         OnboardingStep   `json:"step"`
	SelectedCity string           `json:"selected_city,omitempty"`
	Error        string           `json:"error,omitempty"`
	Cities       []City           `json:"cities,omitempty"`
	Session      *SessionResponse `json:"session,omitempty"`
}
