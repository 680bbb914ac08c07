package queue

import "basegraph.app/herald/internal/model"

func originOf(s string) model.Origin {
	o := model.Origin(s)
	if !o.IsValid() {
		return ""
	}
	return o
}

func semanticTypeOf(s string) model.SemanticType {
	t := model.SemanticType(s)
	if !t.IsValid() {
		return ""
	}
	return t
}
