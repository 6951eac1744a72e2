package preview

import (
	"image"
	"image/draw"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	xdraw "golang.org/x/image/draw"
)

const halfBlock = "▀"

// Render draws img on cols x rows terminal cells. Every cell shows two pixels,
// the upper one as foreground of a half block and the lower one as background.
func Render(img image.Image, cols, rows int) string {
	if cols <= 0 || rows <= 0 || img.Bounds().Empty() {
		return ""
	}
	scaled := image.NewRGBA(image.Rect(0, 0, cols, rows*2))
	xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Src, nil)

	var b strings.Builder
	for r := 0; r < rows; r++ {
		for x := 0; x < cols; x++ {
			style := lipgloss.NewStyle().
				Foreground(lipgloss.Color(hex(scaled, x, 2*r))).
				Background(lipgloss.Color(hex(scaled, x, 2*r+1)))
			b.WriteString(style.Render(halfBlock))
		}
		if r < rows-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func hex(img *image.RGBA, x, y int) string {
	c, _ := colorful.MakeColor(img.RGBAAt(x, y))
	return c.Hex()
}

// SideBySide places right next to left, top aligned.
func SideBySide(left, right image.Image) *image.RGBA {
	lb, rb := left.Bounds(), right.Bounds()
	h := max(lb.Dy(), rb.Dy())
	out := image.NewRGBA(image.Rect(0, 0, lb.Dx()+rb.Dx(), h))
	draw.Draw(out, image.Rect(0, 0, lb.Dx(), lb.Dy()), left, lb.Min, draw.Src)
	draw.Draw(out, image.Rect(lb.Dx(), 0, lb.Dx()+rb.Dx(), rb.Dy()), right, rb.Min, draw.Src)
	return out
}
