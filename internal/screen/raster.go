package screen

import (
	"image"
	"sync"
	"time"

	"github.com/vesaa/argonpanel/internal/errors"
	"github.com/vesaa/argonpanel/internal/models"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// fontSize in pixels; eight gives ~26 columns on a 128 px line.
const fontSize = 8

var (
	faceOnce sync.Once
	face     font.Face
	faceErr  error
)

func textFace() (font.Face, error) {
	faceOnce.Do(func() {
		f, err := opentype.Parse(gomono.TTF)
		if err != nil {
			faceErr = err
			return
		}
		face, faceErr = opentype.NewFace(f, &opentype.FaceOptions{
			Size:    fontSize,
			DPI:     72,
			Hinting: font.HintingFull,
		})
	})
	return face, faceErr
}

// NewBitmap returns a blank frame in the panel's native pixel layout.
func NewBitmap() *image1bit.VerticalLSB {
	return image1bit.NewVerticalLSB(image.Rect(0, 0, Width, Height))
}

// Render draws screen s for snap at time now. A panic while drawing is
// returned as a RENDER error so the caller can skip just this frame.
func Render(s Screen, snap models.Snapshot, now time.Time) (bm *image1bit.VerticalLSB, err error) {
	defer func() {
		if r := recover(); r != nil {
			bm = nil
			err = errors.Newf(errors.ErrRender, "draw %s: %v", s, r)
		}
	}()

	frame, err := Layout(s, snap, now)
	if err != nil {
		return nil, err
	}
	return Rasterize(frame)
}

// Rasterize paints frame onto a fresh bitmap.
func Rasterize(frame Frame) (*image1bit.VerticalLSB, error) {
	f, err := textFace()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrRender, "load font")
	}
	c := &canvas{bm: NewBitmap(), face: f}
	for _, op := range frame.Ops {
		op.draw(c)
	}
	return c.bm, nil
}

type canvas struct {
	bm   *image1bit.VerticalLSB
	face font.Face
}

func (c *canvas) set(x, y int, b image1bit.Bit) {
	if !(image.Point{X: x, Y: y}).In(c.bm.Rect) {
		return
	}
	c.bm.SetBit(x, y, b)
}

// fill sets every pixel in the inclusive rectangle (x0,y0)-(x1,y1).
func (c *canvas) fill(x0, y0, x1, y1 int, b image1bit.Bit) {
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			c.set(x, y, b)
		}
	}
}

func (t Text) draw(c *canvas) {
	d := font.Drawer{
		Dst:  c.bm,
		Src:  image.NewUniform(image1bit.On),
		Face: c.face,
		Dot:  fixed.P(t.X, t.Y+c.face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(t.S)
}

func (r Rule) draw(c *canvas) {
	c.fill(0, r.Y, Width-1, r.Y, image1bit.On)
}

func (b Bar) draw(c *canvas) {
	DrawProgressBar(c.bm, b.X, b.Y, b.W, b.H, b.Percent)
}

// FillWidth is the number of filled columns inside a bar of the given width.
func FillWidth(width, percent int) int {
	inner := width - 2
	if inner <= 0 {
		return 0
	}
	return inner * models.ClampPercent(percent) / 100
}

// DrawProgressBar draws a bordered bar covering (x,y)-(x+width,y+height)
// inclusive and fills it from the left in proportion to percent. At 0% only
// the border is drawn.
func DrawProgressBar(bm *image1bit.VerticalLSB, x, y, width, height, percent int) {
	c := &canvas{bm: bm}
	c.fill(x, y, x+width, y+height, image1bit.On)
	c.fill(x+1, y+1, x+width-1, y+height-1, image1bit.Off)

	if fill := FillWidth(width, percent); fill > 0 {
		c.fill(x+1, y+1, x+fill, y+height-1, image1bit.On)
	}
}
