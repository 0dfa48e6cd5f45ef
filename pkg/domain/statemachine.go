package domain

// ActionKind names a user-facing action the UI may offer on a record.
type ActionKind string

// Action kinds recognised by the state machine and the mutation session.
const (
	// ActionLapse moves a record into its lapsed state.
	ActionLapse ActionKind = "lapse"
	// ActionReactivate returns a lapsed record to its current state.
	ActionReactivate ActionKind = "reactivate"
	// ActionMarkDeceased marks a product owner as deceased (terminal).
	ActionMarkDeceased ActionKind = "mark_deceased"
	// ActionUpdateDetails edits a record's fields without changing status.
	ActionUpdateDetails ActionKind = "update"
	// ActionDelete removes the record from the set. Deletion is a
	// membership change, not a status value.
	ActionDelete ActionKind = "delete"
)

type transition struct {
	action ActionKind
	target Status
}

// stateMachine captures the legal actions per current status for one entity
// kind. transitions hold status changes; updatable gates field edits.
// Deletion is legal from every state for both kinds.
type stateMachine struct {
	entity      EntityType
	transitions map[Status][]transition
	updatable   map[Status]bool
}

var machines = map[EntityType]stateMachine{
	EntityProductOwner: {
		entity: EntityProductOwner,
		transitions: map[Status][]transition{
			OwnerActive: {
				{action: ActionLapse, target: OwnerLapsed},
				{action: ActionMarkDeceased, target: OwnerDeceased},
			},
			OwnerLapsed: {
				{action: ActionReactivate, target: OwnerActive},
				{action: ActionMarkDeceased, target: OwnerDeceased},
			},
			// deceased is terminal: delete only.
			OwnerDeceased: nil,
		},
		updatable: map[Status]bool{OwnerActive: true, OwnerLapsed: true},
	},
	EntityLegalDocument: {
		entity: EntityLegalDocument,
		transitions: map[Status][]transition{
			DocumentSigned: {
				{action: ActionLapse, target: DocumentLapsed},
			},
			DocumentLapsed: {
				{action: ActionReactivate, target: DocumentSigned},
			},
		},
		updatable: map[Status]bool{DocumentSigned: true, DocumentLapsed: true},
	},
}

// LegalActions returns the actions the UI may offer for a record of the
// given kind in its current status. The order is stable: status transitions
// in machine order, then update, then delete. Unknown statuses allow delete
// only, so malformed records can still be cleaned up.
func LegalActions(entity EntityType, current Status) []ActionKind {
	m, ok := machines[entity]
	if !ok {
		return nil
	}
	var actions []ActionKind
	for _, t := range m.transitions[current] {
		actions = append(actions, t.action)
	}
	if m.updatable[current] {
		actions = append(actions, ActionUpdateDetails)
	}
	actions = append(actions, ActionDelete)
	return actions
}

// ActionAllowed reports whether the action is legal in the current status.
func ActionAllowed(entity EntityType, current Status, action ActionKind) bool {
	for _, a := range LegalActions(entity, current) {
		if a == action {
			return true
		}
	}
	return false
}

// TransitionTarget resolves the status a legal transition action leads to.
// It returns false for non-transition actions and for actions that are not
// legal in the current status.
func TransitionTarget(entity EntityType, current Status, action ActionKind) (Status, bool) {
	m, ok := machines[entity]
	if !ok {
		return "", false
	}
	for _, t := range m.transitions[current] {
		if t.action == action {
			return t.target, true
		}
	}
	return "", false
}

// CanTransition reports whether a direct status change from one value to
// another is legal for the entity kind. A no-op change is always allowed.
func CanTransition(entity EntityType, from, to Status) bool {
	if from == to {
		return true
	}
	m, ok := machines[entity]
	if !ok {
		return false
	}
	for _, t := range m.transitions[from] {
		if t.target == to {
			return true
		}
	}
	return false
}
