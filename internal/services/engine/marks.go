package engine

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"surveillance/internal/models"
)

var (
	red   = color.RGBA{R: 255, A: 255}
	green = color.RGBA{G: 255, A: 255}
)

func weaponMarks(d models.Detection, subtype string) []models.Annotation {
	return []models.Annotation{
		{Kind: models.AnnotateBox, Rect: d.Box, Color: red, Thickness: 4},
		{
			Kind:      models.AnnotateLabel,
			At:        image.Pt(d.Box.Min.X, d.Box.Min.Y-10),
			Text:      "WEAPON: " + strings.ToUpper(subtype),
			Color:     red,
			Thickness: 2,
			Scale:     0.8,
			Filled:    true,
		},
	}
}

func personMarks(d models.Detection, matched bool) []models.Annotation {
	c, label := green, fmt.Sprintf("ID: %d", d.TrackID)
	if matched {
		c, label = red, label+" TARGET"
	}
	return []models.Annotation{
		{Kind: models.AnnotateBox, Rect: d.Box, Color: c, Thickness: 2},
		{
			Kind:      models.AnnotateLabel,
			At:        image.Pt(d.Box.Min.X, d.Box.Min.Y-10),
			Text:      label,
			Color:     c,
			Thickness: 2,
			Scale:     0.5,
		},
	}
}

func proximityBanner() models.Annotation {
	return models.Annotation{
		Kind:      models.AnnotateBanner,
		At:        image.Pt(50, 50),
		Text:      "PROXIMITY ALERT",
		Color:     red,
		Thickness: 3,
		Scale:     1,
	}
}
