package mesh

// Cube returns an 8-vertex unit cube centred on the origin. The front face (z = +0.5)
// is red and the back face (z = -0.5) is green.
//
// Returns:
//   - Mesh: the cube mesh labelled "Cube"
func Cube() Mesh {
	red := [3]float32{1, 0, 0}
	green := [3]float32{0, 1, 0}
	return NewMesh("Cube", []Vertex{
		{Position: [3]float32{-0.5, -0.5, 0.5}, Color: red},
		{Position: [3]float32{0.5, -0.5, 0.5}, Color: red},
		{Position: [3]float32{0.5, 0.5, 0.5}, Color: red},
		{Position: [3]float32{-0.5, 0.5, 0.5}, Color: red},

		{Position: [3]float32{-0.5, -0.5, -0.5}, Color: green},
		{Position: [3]float32{0.5, -0.5, -0.5}, Color: green},
		{Position: [3]float32{0.5, 0.5, -0.5}, Color: green},
		{Position: [3]float32{-0.5, 0.5, -0.5}, Color: green},
	})
}
