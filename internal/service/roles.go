package service

import "ksk-service/internal/model"

// RoleResolver assigns the session role at onboarding.
type RoleResolver struct {
	dispatchers map[string]struct{}
}

// NewRoleResolver grants the dispatcher role to the given identifiers, or to
// model.DispatcherIdentifier when none are configured.
func NewRoleResolver(dispatchers []string) *RoleResolver {
	if len(dispatchers) == 0 {
		dispatchers = []string{model.DispatcherIdentifier}
	}
	set := make(map[string]struct{}, len(dispatchers))
	for _, id := range dispatchers {
		set[id] = struct{}{}
	}
	return &RoleResolver{dispatchers: set}
}

func (r *RoleResolver) Resolve(identifier string) model.Role {
	if _, ok := r.dispatchers[identifier]; ok {
		return model.RoleDispatcher
	}
	return model.RoleCitizen
}
