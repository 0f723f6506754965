package model

import "github.com/go-gl/mathgl/mgl32"

// Triangle is a single triangle with a red, a green and a blue corner.
func Triangle() []Vertex {
	return []Vertex{
		{Position: mgl32.Vec2{0.0, -0.5}, Color: mgl32.Vec3{1, 0, 0}},
		{Position: mgl32.Vec2{0.5, 0.5}, Color: mgl32.Vec3{0, 1, 0}},
		{Position: mgl32.Vec2{-0.5, 0.5}, Color: mgl32.Vec3{0, 0, 1}},
	}
}

func midpoint(a, b Vertex) Vertex {
	return Vertex{
		Position: a.Position.Add(b.Position).Mul(0.5),
		Color:    a.Color.Add(b.Color).Mul(0.5),
	}
}

// Sierpinski subdivides the triangle abc depth times, keeping the three
// corner triangles at each level. It returns 3*3^depth vertices; a depth
// of 0 or less is the triangle itself.
func Sierpinski(depth int, a, b, c Vertex) []Vertex {
	if depth <= 0 {
		return []Vertex{a, b, c}
	}

	ab := midpoint(a, b)
	bc := midpoint(b, c)
	ca := midpoint(c, a)

	vertices := Sierpinski(depth-1, a, ab, ca)
	vertices = append(vertices, Sierpinski(depth-1, ab, b, bc)...)
	vertices = append(vertices, Sierpinski(depth-1, ca, bc, c)...)
	return vertices
}
