package lifecycle

import (
	"fmt"
	"slices"

	"scholarcrm/internal/domain"
)

type Entity string

const (
	EntityLead    Entity = "lead"
	EntityProject Entity = "project"
	EntityTask    Entity = "task"
)

type Status string

const (
	StatusNew        Status = "new"
	StatusContacted  Status = "contacted"
	StatusConverted  Status = "converted"
	StatusPending    Status = "pending"
	StatusApproved   Status = "approved"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusRejected   Status = "rejected"
)

var (
	leadWorkers  = []domain.Role{domain.RoleSalesTeam, domain.RoleSalesManager, domain.RoleAdmin}
	dealDeciders = []domain.Role{domain.RoleSalesTeam, domain.RoleSalesManager}
	dispatchers  = []domain.Role{domain.RoleSalesManager, domain.RoleAdmin}
	writers      = []domain.Role{domain.RoleWritingTeam}
)

// transitions maps entity -> from -> to -> roles allowed to take the edge.
// Anything absent is illegal.
var transitions = map[Entity]map[Status]map[Status][]domain.Role{
	EntityLead: {
		StatusNew: {
			StatusContacted: leadWorkers,
			StatusConverted: leadWorkers,
		},
		StatusContacted: {
			StatusConverted: leadWorkers,
		},
		StatusConverted: {},
	},
	EntityProject: {
		StatusPending: {
			StatusApproved: dealDeciders,
			StatusRejected: dealDeciders,
		},
		StatusApproved: {
			StatusInProgress: dispatchers,
		},
		StatusInProgress: {
			StatusCompleted: writers,
		},
		StatusCompleted: {},
		StatusRejected:  {},
	},
	EntityTask: {
		StatusPending: {
			StatusInProgress: writers,
			StatusCompleted:  writers,
		},
		StatusInProgress: {
			StatusCompleted: writers,
		},
		StatusCompleted: {},
	},
}

var initial = map[Entity]Status{
	EntityLead:    StatusNew,
	EntityProject: StatusPending,
	EntityTask:    StatusPending,
}

// Initial returns the status every new record of the entity starts in.
func Initial(e Entity) Status {
	return initial[e]
}

// Valid reports whether s is a status of entity e.
func Valid(e Entity, s Status) bool {
	_, ok := transitions[e][s]
	return ok
}

// Statuses returns every status of entity e, in declaration-independent sorted order.
func Statuses(e Entity) []Status {
	out := make([]Status, 0, len(transitions[e]))
	for s := range transitions[e] {
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}

// CanTransition reports whether the edge from -> to exists for entity e.
func CanTransition(e Entity, from, to Status) bool {
	_, ok := transitions[e][from][to]
	return ok
}

// IsTerminal reports whether no edge leaves s.
func IsTerminal(e Entity, s Status) bool {
	next, ok := transitions[e][s]
	return ok && len(next) == 0
}

// AllowedRoles returns the roles that may take the edge, or nil when the edge does not exist.
func AllowedRoles(e Entity, from, to Status) []domain.Role {
	return slices.Clone(transitions[e][from][to])
}

// Check validates an edge for the given role. Unreachable edges are reported as
// ErrInvalidTransition regardless of who asks.
func Check(e Entity, from, to Status, role domain.Role) error {
	roles, ok := transitions[e][from][to]
	if !ok {
		return fmt.Errorf("%s %s -> %s: %w", e, from, to, domain.ErrInvalidTransition)
	}
	if !slices.Contains(roles, role) {
		return fmt.Errorf("%s %s -> %s as %s: %w", e, from, to, role, domain.ErrUnauthorized)
	}
	return nil
}
