package lifecycle

import "mindconnect/internal/model"

// target status -> statuses it may be reached from
var transitionMap = map[model.SessionStatus][]model.SessionStatus{
	model.StatusCompleted: {model.StatusScheduled},
	model.StatusCancelled: {model.StatusScheduled},
	model.StatusNoShow:    {model.StatusScheduled},
}

func ValidTransition(to, from model.SessionStatus) bool {
	allowed, ok := transitionMap[to]
	if !ok {
		return false
	}
	for _, status := range allowed {
		if status == from {
			return true
		}
	}
	return false
}
