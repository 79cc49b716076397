package model

// Observable is a named measured quantity with an allowed range
type Observable struct {
	Name string  `json:"name"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// Contains reports whether a value lies inside the observable range
func (o Observable) Contains(v float64) bool {
	return v >= o.Min && v <= o.Max
}

// Width returns the size of the observable range
func (o Observable) Width() float64 {
	return o.Max - o.Min
}
