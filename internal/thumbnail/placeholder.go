package thumbnail

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	placeholderWidth  = 1600
	placeholderHeight = 900
)

// placeholderPNG synthesizes a neutral 16:9 stand-in image for one slide.
// It never fails: any drawing surprise still yields a flat-colored canvas.
func placeholderPNG(slideIndex int) []byte {
	canvas := image.NewRGBA(image.Rect(0, 0, placeholderWidth, placeholderHeight))
	background := color.RGBA{R: 30, G: 30, B: 30, A: 255}
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	frame := color.RGBA{R: 70, G: 70, B: 70, A: 255}
	thickness := 8
	bounds := canvas.Bounds().Inset(40)
	draw.Draw(canvas, image.Rect(bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Min.Y+thickness), image.NewUniform(frame), image.Point{}, draw.Src)
	draw.Draw(canvas, image.Rect(bounds.Min.X, bounds.Max.Y-thickness, bounds.Max.X, bounds.Max.Y), image.NewUniform(frame), image.Point{}, draw.Src)
	draw.Draw(canvas, image.Rect(bounds.Min.X, bounds.Min.Y, bounds.Min.X+thickness, bounds.Max.Y), image.NewUniform(frame), image.Point{}, draw.Src)
	draw.Draw(canvas, image.Rect(bounds.Max.X-thickness, bounds.Min.Y, bounds.Max.X, bounds.Max.Y), image.NewUniform(frame), image.Point{}, draw.Src)

	drawLabel(canvas, fmt.Sprintf("Slide %d", slideIndex))

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		// Encoding an in-memory RGBA cannot realistically fail; fall back
		// to an empty PNG-less payload rather than propagate.
		return nil
	}
	return buf.Bytes()
}

// drawLabel renders the label with the fixed 7x13 face into a small buffer
// and scales it up so it stays legible at thumbnail size.
func drawLabel(canvas *image.RGBA, label string) {
	face := basicfont.Face7x13
	textWidth := font.MeasureString(face, label).Ceil()
	if textWidth <= 0 {
		return
	}
	small := image.NewRGBA(image.Rect(0, 0, textWidth+2, face.Height+2))
	drawer := font.Drawer{
		Dst:  small,
		Src:  image.NewUniform(color.RGBA{R: 230, G: 230, B: 230, A: 255}),
		Face: face,
		Dot:  fixed.P(1, face.Ascent+1),
	}
	drawer.DrawString(label)

	const scale = 6
	scaledW := small.Bounds().Dx() * scale
	scaledH := small.Bounds().Dy() * scale
	target := image.Rect(
		(placeholderWidth-scaledW)/2,
		(placeholderHeight-scaledH)/2,
		(placeholderWidth+scaledW)/2,
		(placeholderHeight+scaledH)/2,
	)
	draw.NearestNeighbor.Scale(canvas, target, small, small.Bounds(), draw.Over, nil)
}
