package models

import (
	"image"
	"time"
)

// Frame is one captured picture: interleaved BGR (or gray) pixels, row-major.
// A Frame is not modified after it leaves its capture worker; consumers that
// want to draw on it work on a Clone.
type Frame struct {
	Camera   int
	Seq      uint64
	Captured time.Time
	Width    int
	Height   int
	Channels int
	Pix      []byte
}

// NewFrame allocates a zeroed frame of the given geometry.
func NewFrame(width, height, channels int) *Frame {
	if width < 0 || height < 0 || channels < 0 {
		width, height, channels = 0, 0, 0
	}
	return &Frame{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]byte, width*height*channels),
	}
}

// Empty reports whether the frame carries no pixels.
func (f *Frame) Empty() bool {
	return f == nil || f.Width <= 0 || f.Height <= 0 || f.Channels <= 0 || len(f.Pix) < f.Width*f.Height*f.Channels
}

// Bounds returns the pixel rectangle of the frame.
func (f *Frame) Bounds() image.Rectangle {
	if f == nil {
		return image.Rectangle{}
	}
	return image.Rect(0, 0, f.Width, f.Height)
}

// Clone returns a deep copy.
func (f *Frame) Clone() *Frame {
	if f == nil {
		return nil
	}
	cp := *f
	cp.Pix = make([]byte, len(f.Pix))
	copy(cp.Pix, f.Pix)
	return &cp
}

// Crop copies the region r, clipped to the frame. The result is an empty
// frame when r does not overlap the picture.
func (f *Frame) Crop(r image.Rectangle) *Frame {
	if f.Empty() {
		return &Frame{}
	}
	r = r.Canon().Intersect(f.Bounds())
	if r.Empty() {
		return &Frame{Camera: f.Camera, Seq: f.Seq, Captured: f.Captured, Channels: f.Channels}
	}

	out := NewFrame(r.Dx(), r.Dy(), f.Channels)
	out.Camera, out.Seq, out.Captured = f.Camera, f.Seq, f.Captured

	stride := f.Width * f.Channels
	rowLen := r.Dx() * f.Channels
	for y := 0; y < r.Dy(); y++ {
		src := (r.Min.Y+y)*stride + r.Min.X*f.Channels
		copy(out.Pix[y*rowLen:(y+1)*rowLen], f.Pix[src:src+rowLen])
	}
	return out
}
