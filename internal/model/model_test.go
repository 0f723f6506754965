package model

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/core1_0"
)

func TestVertexLayout(t *testing.T) {
	bindings := BindingDescriptions()
	if len(bindings) != 1 {
		t.Fatalf("len(BindingDescriptions())\nhave %d\nwant 1", len(bindings))
	}
	if bindings[0].Stride != 20 {
		t.Fatalf("stride\nhave %d\nwant 20", bindings[0].Stride)
	}
	if bindings[0].InputRate != core1_0.VertexInputRateVertex {
		t.Fatalf("input rate\nhave %v\nwant %v", bindings[0].InputRate, core1_0.VertexInputRateVertex)
	}

	attributes := AttributeDescriptions()
	want := []struct {
		location, offset int
		format           core1_0.Format
	}{
		{0, 0, core1_0.FormatR32G32SignedFloat},
		{1, 8, core1_0.FormatR32G32B32SignedFloat},
	}
	if len(attributes) != len(want) {
		t.Fatalf("len(AttributeDescriptions())\nhave %d\nwant %d", len(attributes), len(want))
	}
	for i, w := range want {
		a := attributes[i]
		if a.Binding != 0 || a.Location != w.location || a.Offset != w.offset || a.Format != w.format {
			t.Fatalf("attribute %d\nhave location %d offset %d format %v\nwant location %d offset %d format %v",
				i, a.Location, a.Offset, a.Format, w.location, w.offset, w.format)
		}
	}
}

func TestEncodeMatchesLayout(t *testing.T) {
	vertices := Triangle()
	encoded, err := encode(vertices)
	if err != nil {
		t.Fatal(err)
	}
	if have, want := len(encoded), len(vertices)*BindingDescriptions()[0].Stride; have != want {
		t.Fatalf("encoded size\nhave %d\nwant %d", have, want)
	}

	// Second vertex: position (0.5, 0.5), color (0, 1, 0).
	second := encoded[20:40]
	floats := make([]float32, 5)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(second[i*4:]))
	}
	if want := []float32{0.5, 0.5, 0, 1, 0}; !equalFloats(floats, want) {
		t.Fatalf("second vertex\nhave %v\nwant %v", floats, want)
	}
}

func equalFloats(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNewRejectsShortVertexLists(t *testing.T) {
	for n := 0; n < MinVertexCount; n++ {
		m, err := New(nil, Triangle()[:n])
		if err == nil {
			t.Fatalf("New with %d vertices: want error", n)
		}
		if m != nil {
			t.Fatalf("New with %d vertices: have model alongside error", n)
		}
	}
}

func TestTriangle(t *testing.T) {
	v := Triangle()
	if len(v) != 3 {
		t.Fatalf("len(Triangle())\nhave %d\nwant 3", len(v))
	}
	want := []mgl32.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	for i := range v {
		if v[i].Color != want[i] {
			t.Fatalf("color %d\nhave %v\nwant %v", i, v[i].Color, want[i])
		}
	}
	if v[0].Position != (mgl32.Vec2{0, -0.5}) {
		t.Fatalf("top vertex\nhave %v\nwant %v", v[0].Position, mgl32.Vec2{0, -0.5})
	}
}

func TestSierpinski(t *testing.T) {
	tri := Triangle()
	a, b, c := tri[0], tri[1], tri[2]

	for depth, want := range []int{3, 9, 27, 81, 243} {
		if have := len(Sierpinski(depth, a, b, c)); have != want {
			t.Fatalf("len(Sierpinski(%d))\nhave %d\nwant %d", depth, have, want)
		}
	}

	if have := Sierpinski(-1, a, b, c); len(have) != 3 || have[0] != a || have[1] != b || have[2] != c {
		t.Fatalf("Sierpinski(-1)\nhave %v\nwant %v", have, tri)
	}

	v := Sierpinski(1, a, b, c)
	if v[0] != a || v[4] != b || v[8] != c {
		t.Fatalf("corners not kept\nhave %v %v %v\nwant %v %v %v", v[0], v[4], v[8], a, b, c)
	}

	ab := v[1]
	if want := (mgl32.Vec2{0.25, 0}); !ab.Position.ApproxEqual(want) {
		t.Fatalf("ab position\nhave %v\nwant %v", ab.Position, want)
	}
	if want := (mgl32.Vec3{0.5, 0.5, 0}); !ab.Color.ApproxEqual(want) {
		t.Fatalf("ab color\nhave %v\nwant %v", ab.Color, want)
	}
}
