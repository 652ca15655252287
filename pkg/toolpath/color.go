package toolpath

import (
	"fmt"
	"hash/fnv"
)

// Color is a display color for a toolpath, stable across regenerations
// of the same operation.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Hex returns the #rrggbb form.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// palette holds visually distinct cut colors; assignment hashes the
// operation id so a regenerated operation keeps its color.
var palette = []Color{
	{0x1f, 0x77, 0xb4},
	{0xff, 0x7f, 0x0e},
	{0x2c, 0xa0, 0x2c},
	{0xd6, 0x27, 0x28},
	{0x94, 0x67, 0xbd},
	{0x8c, 0x56, 0x4b},
	{0xe3, 0x77, 0xc2},
	{0xbc, 0xbd, 0x22},
	{0x17, 0xbe, 0xcf},
}

// ColorFor returns the palette color for an operation id.
func ColorFor(id string) Color {
	h := fnv.New32a()
	h.Write([]byte(id))
	return palette[h.Sum32()%uint32(len(palette))]
}
