package entity

// Stage шаг конвейера диагностики
type Stage string

const (
	StageDescribe  Stage = "describe"
	StageDiagnose  Stage = "diagnose"
	StageTranslate Stage = "translate"
)
