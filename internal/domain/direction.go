package domain

// Direction represents the swipe decision made on a shown target.
type Direction string

const (
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
	DirectionSuper Direction = "super"
)

// String returns the string representation of Direction.
func (d Direction) String() string {
	return string(d)
}

// IsValid checks if the direction is a recognized value.
func (d Direction) IsValid() bool {
	return d == DirectionLeft || d == DirectionRight || d == DirectionSuper
}
