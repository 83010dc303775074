package main

import (
	"fmt"
	"image/color"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/plus3/scenery/scene"
)

// Spawner creates randomly placed moving boxes.
type Spawner struct {
	Rand   *rand.Rand
	Spread float32

	next int
}

func (sp *Spawner) New(s *scene.Scene) *scene.GameObject {
	sp.next++
	obj := scene.NewGameObject(s.Transforms(), fmt.Sprintf("body.%d", sp.next), s.Graphics())
	obj.SetPosition(sp.vec(sp.Spread))
	obj.SetVelocity(sp.vec(5))
	obj.SetPriority(uint32(sp.Rand.Intn(8)))
	obj.SetTint(color.RGBA{uint8(sp.Rand.Intn(256)), uint8(sp.Rand.Intn(256)), uint8(sp.Rand.Intn(256)), 255})
	obj.AddBoxCollider(mgl32.Vec3{1, 1, 1}, mgl32.Vec3{})
	return obj
}

func (sp *Spawner) vec(extent float32) mgl32.Vec3 {
	r := func() float32 { return (sp.Rand.Float32()*2 - 1) * extent }
	return mgl32.Vec3{r(), r(), r()}
}

// BounceSystem reverses a body's velocity on each axis where it has left the cube of
// half-size Spread.
type BounceSystem struct {
	Spread float32
}

func (b *BounceSystem) Update(frame *scene.UpdateFrame) {
	for _, e := range frame.Scene.Ordered() {
		obj, ok := e.(*scene.GameObject)
		if !ok {
			continue
		}
		pos, vel := obj.Position(), obj.Velocity()
		changed := false
		for i := range 3 {
			if (pos[i] > b.Spread && vel[i] > 0) || (pos[i] < -b.Spread && vel[i] < 0) {
				vel[i] = -vel[i]
				changed = true
			}
		}
		if changed {
			obj.SetVelocity(vel)
		}
	}
}

// ChurnSystem replaces one random body every Every frames through the frame commands.
type ChurnSystem struct {
	Spawner *Spawner
	Every   uint64

	Removed int
}

func (c *ChurnSystem) Update(frame *scene.UpdateFrame) {
	if c.Every == 0 || frame.Number%c.Every != 0 {
		return
	}
	names := frame.Scene.Names()
	if len(names) == 0 {
		return
	}
	victim := names[c.Spawner.Rand.Intn(len(names))]
	if victim == "sensor" {
		return
	}
	frame.Commands.Remove(victim)
	frame.Commands.Add(c.Spawner.New(frame.Scene))
	c.Removed++
}
