package model

// Branch is a store location scoping product availability and orders.
type Branch struct {
	ID   int64
	Name string
}
