//go:build ignore

package main

import (
	"image"
	"image/color"
	"image/png"
	"os"
)

// Generates tray.png: five waveform bars on a transparent square.
// Run with: go run gen_icon.go
func main() {
	const size = 22
	img := image.NewRGBA(image.Rect(0, 0, size, size))

	heights := []int{8, 14, 18, 12, 6}
	const barW, gap = 2, 2
	total := len(heights)*barW + (len(heights)-1)*gap
	x0 := (size - total) / 2

	for i, h := range heights {
		x := x0 + i*(barW+gap)
		y0 := (size - h) / 2
		for dx := 0; dx < barW; dx++ {
			for dy := 0; dy < h; dy++ {
				img.Set(x+dx, y0+dy, color.RGBA{135, 255, 135, 255})
			}
		}
	}

	f, _ := os.Create("tray.png")
	defer f.Close()
	png.Encode(f, img)
}
