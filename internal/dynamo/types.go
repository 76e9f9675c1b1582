package dynamo

// Vec2 is a point or displacement in the continuous simulation plane.
type Vec2 struct {
	X, Y float64
}

// Coefficients are the free parameters t0..t3 of a velocity field.
type Coefficients [4]float64

// Field maps a position to a displacement under a coefficient snapshot.
// Implementations must be side-effect free; they are shared by all workers.
type Field interface {
	Velocity(p Vec2, c Coefficients) Vec2
}

// FieldFunc adapts a plain function to Field.
type FieldFunc func(p Vec2, c Coefficients) Vec2

func (f FieldFunc) Velocity(p Vec2, c Coefficients) Vec2 {
	return f(p, c)
}

// Window is the rectangle of the plane that is rasterised. Width and
// Height are half-extents: seeds are drawn from [-Width, Width] x
// [-Height, Height] and that range maps onto the full pixel grid.
type Window struct {
	Width   float64
	Height  float64
	OffsetX float64
	OffsetY float64
}

// Configurable is implemented by fields exposing named parameters.
type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}
