package ecs

// Entity is an opaque positive integer identity. Storage never inspects
// the value beyond comparing it for page/offset math; a world object
// layered on top decides what an Entity means.
type Entity int

// InvalidEntity is the zero value. No SparseSet ever contains it.
const InvalidEntity Entity = 0

// Valid reports whether e could legally be inserted into a SparseSet.
func (e Entity) Valid() bool {
	return e > 0
}
