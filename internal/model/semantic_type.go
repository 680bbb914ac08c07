package model

type SemanticType string

const (
	SemanticTypeCall       SemanticType = "CALL"
	SemanticTypeMedia      SemanticType = "MEDIA"
	SemanticTypeNavigation SemanticType = "NAVIGATION"
	SemanticTypeFitness    SemanticType = "FITNESS"
	SemanticTypeAlarm      SemanticType = "ALARM"
	SemanticTypeFinancial  SemanticType = "FINANCIAL"
	SemanticTypeMessage    SemanticType = "MESSAGE"
	SemanticTypeProgress   SemanticType = "PROGRESS"
	SemanticTypeStandard   SemanticType = "STANDARD"
)

// Protected types are captured but never auto-dismissed.
func (t SemanticType) Protected() bool {
	switch t {
	case SemanticTypeMedia, SemanticTypeNavigation, SemanticTypeFitness, SemanticTypeAlarm:
		return true
	}
	return false
}

func (t SemanticType) IsValid() bool {
	switch t {
	case SemanticTypeCall, SemanticTypeMedia, SemanticTypeNavigation, SemanticTypeFitness,
		SemanticTypeAlarm, SemanticTypeFinancial, SemanticTypeMessage, SemanticTypeProgress,
		SemanticTypeStandard:
		return true
	}
	return false
}
