package app

import "leaf-doctor/internal/domain/entity"

// SessionView результаты сессии для показа пользователю
type SessionView struct {
	ID                 string              `json:"id"`
	State              entity.SessionState `json:"state"`
	Language           entity.Language     `json:"language"`
	Translated         bool                `json:"translated"`
	CanDiagnose        bool                `json:"can_diagnose"`
	Description        string              `json:"description,omitempty"`
	Diagnosis          string              `json:"diagnosis,omitempty"`
	DisplayDescription string              `json:"display_description,omitempty"`
	DisplayDiagnosis   string              `json:"display_diagnosis,omitempty"`
	Warnings           []string            `json:"warnings,omitempty"`
}

// NewSessionView собирает представление сессии.
// Английские оригиналы доступны всегда, display-поля учитывают язык.
func NewSessionView(s *entity.Session) *SessionView {
	v := &SessionView{
		ID:          s.ID,
		State:       s.State,
		Language:    s.Language,
		Translated:  s.Translated(),
		CanDiagnose: s.CanDiagnose(),
		Description: s.Description,
		Diagnosis:   s.Diagnosis,
	}

	var warning string
	v.DisplayDescription, warning = s.Displayed(entity.StageDescribe)
	v.addWarning(warning)
	v.DisplayDiagnosis, warning = s.Displayed(entity.StageDiagnose)
	v.addWarning(warning)

	return v
}

func (v *SessionView) addWarning(w string) {
	if w == "" {
		return
	}
	for _, existing := range v.Warnings {
		if existing == w {
			return
		}
	}
	v.Warnings = append(v.Warnings, w)
}
