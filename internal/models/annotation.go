package models

import (
	"image"
	"image/color"
)

type AnnotationKind int

const (
	AnnotateBox AnnotationKind = iota
	AnnotateLabel
	AnnotateBanner
)

// Annotation is one drawing instruction applied to a frame by a painter.
type Annotation struct {
	Kind      AnnotationKind
	Rect      image.Rectangle // box outline
	At        image.Point     // text origin (bottom-left)
	Text      string
	Color     color.RGBA
	Thickness int
	Scale     float64
	Filled    bool // label drawn on a solid background
}
