package engine

import (
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"
)

type renderState struct {
	images      map[string]*ebiten.Image
	missing     map[string]bool
	placeholder *ebiten.Image
}

func newRenderState() *renderState {
	ph := ebiten.NewImage(int(defaultBoxSize), int(defaultBoxSize))
	ph.Fill(color.RGBA{R: 0x80, G: 0x80, B: 0xa0, A: 0xff})
	return &renderState{
		images:      make(map[string]*ebiten.Image),
		missing:     make(map[string]bool),
		placeholder: ph,
	}
}

// Draw renders every visible object in registration order, so later
// registrations paint on top. Objects with no loadable costume get a
// labelled placeholder box instead of vanishing.
func (e *Engine) Draw(screen *ebiten.Image) {
	if e.headless {
		return
	}
	if e.render == nil {
		e.render = newRenderState()
	}
	for _, ctx := range e.objects {
		if ctx.destroyed || !ctx.Visible {
			continue
		}
		img := e.costumeImage(ctx)
		if img == nil {
			e.drawPlaceholder(screen, ctx)
			continue
		}
		w := float64(img.Bounds().Dx())
		h := float64(img.Bounds().Dy())
		ctx.BoxW, ctx.BoxH = w, h

		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(-w/2, -h/2)
		scale := ctx.Size / 100
		op.GeoM.Scale(scale, scale)
		op.GeoM.Rotate((ctx.Direction - 90) * math.Pi / 180)
		op.GeoM.Translate(ctx.X, ctx.Y)
		screen.DrawImage(img, op)
	}
}

func (e *Engine) costumeImage(ctx *Context) *ebiten.Image {
	if e.assets == nil {
		return nil
	}
	name := ctx.CostumeName()
	if name == "" {
		return nil
	}
	if img, ok := e.render.images[name]; ok {
		return img
	}
	if e.render.missing[name] {
		return nil
	}
	img, err := e.assets.CostumeImage(name)
	if err != nil {
		e.log.Warn("failed to load costume image", "costume", name, "error", err)
		e.render.missing[name] = true
		return nil
	}
	if img == nil {
		e.render.missing[name] = true
		return nil
	}
	e.render.images[name] = img
	return img
}

func (e *Engine) drawPlaceholder(screen *ebiten.Image, ctx *Context) {
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(-defaultBoxSize/2, -defaultBoxSize/2)
	scale := ctx.Size / 100
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(ctx.X, ctx.Y)
	screen.DrawImage(e.render.placeholder, op)

	label := ctx.CostumeName()
	if label == "" {
		label = ctx.Type.Name
	}
	text.Draw(screen, label, basicfont.Face7x13,
		int(ctx.X-defaultBoxSize/2), int(ctx.Y+defaultBoxSize/2+12), color.White)
}
