package display

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/vesaa/argonpanel/internal/errors"
)

// PNGSink writes each committed frame to Path, scaled up so single pixels are
// visible on a desktop screen. It never touches hardware.
type PNGSink struct {
	Path  string
	Scale int // integer upscale factor; values below 1 mean 1
}

// Commit overwrites Path with the frame.
func (p *PNGSink) Commit(frame image.Image) error {
	scale := p.Scale
	if scale < 1 {
		scale = 1
	}
	b := frame.Bounds()
	out := imaging.Resize(frame, b.Dx()*scale, b.Dy()*scale, imaging.NearestNeighbor)
	if err := imaging.Save(out, p.Path); err != nil {
		return errors.Wrap(err, errors.ErrSink, "save "+p.Path)
	}
	return nil
}

// Close is a no-op.
func (p *PNGSink) Close() error { return nil }
