package agent

import "fmt"

// Order is the Theory of Mind recursion depth of an agent.
type Order uint8

const (
	OrderZero   Order = iota // 0: reasons from direct observation
	OrderFirst               // 1: models an order-0 reasoner
	OrderSecond              // 2: models order-0 and order-1 reasoners
)

// String returns "order-0", "order-1" or "order-2".
func (o Order) String() string {
	if o > OrderSecond {
		return fmt.Sprintf("order-%d?", uint8(o))
	}
	return fmt.Sprintf("order-%d", uint8(o))
}

// Role is the communicative capability set of an agent.
type Role uint8

const (
	RolePlain     Role = iota // 0: decide and update only
	RoleSignaling             // 1: emits a signal before acting
	RoleReceiving             // 2: consumes signals emitted by others
)

// String returns the lowercase role name.
func (r Role) String() string {
	switch r {
	case RolePlain:
		return "plain"
	case RoleSignaling:
		return "signaling"
	case RoleReceiving:
		return "receiving"
	default:
		return "unknown"
	}
}

// Kind identifies an agent variant by order and role.
type Kind struct {
	Order Order
	Role  Role
}

// String returns e.g. "order-1/signaling".
func (k Kind) String() string { return k.Order.String() + "/" + k.Role.String() }

// Branch indices of an OrderBelief.
const (
	BranchZero  = 0 // the opponent is best explained by an order-0 model
	BranchFirst = 1 // the opponent is best explained by an order-1 model
)
