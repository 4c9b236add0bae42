// Package render turns a validated ledger snapshot, its dependency graph,
// and a layout into structured render trees. Everything here is a pure
// function of its inputs; the wall clock is never read, so rendering the
// same snapshot twice yields identical trees.
package render

import (
	"image/color"

	"github.com/luvatrix/planops/internal/schema"
)

// StatusStyle is the single render-time lookup entry for a milestone
// status: one glyph for text charts, one emoji for markdown, one color for
// raster output. Presentation never infers status from the glyphs.
type StatusStyle struct {
	Glyph byte
	Emoji string
	Color color.RGBA
}

// MilestoneStyles maps each milestone status to its presentation.
var MilestoneStyles = map[schema.MilestoneStatus]StatusStyle{
	schema.MilestoneComplete:   {Glyph: '=', Emoji: "\U0001F7E2", Color: color.RGBA{R: 0x16, G: 0xA3, B: 0x4A, A: 0xFF}},
	schema.MilestoneInProgress: {Glyph: '#', Emoji: "\U0001F535", Color: color.RGBA{R: 0x25, G: 0x63, B: 0xEB, A: 0xFF}},
	schema.MilestonePlanned:    {Glyph: '~', Emoji: "⚪", Color: color.RGBA{R: 0x94, G: 0xA3, B: 0xB8, A: 0xFF}},
	schema.MilestoneAtRisk:     {Glyph: '!', Emoji: "\U0001F7E0", Color: color.RGBA{R: 0xF5, G: 0x9E, B: 0x0B, A: 0xFF}},
	schema.MilestoneBlocked:    {Glyph: 'x', Emoji: "\U0001F534", Color: color.RGBA{R: 0xDC, G: 0x26, B: 0x26, A: 0xFF}},
}

// StyleFor returns the presentation for a status, defaulting to Planned
// for anything unknown so charts degrade instead of panicking.
func StyleFor(status schema.MilestoneStatus) StatusStyle {
	if s, ok := MilestoneStyles[status]; ok {
		return s
	}
	return MilestoneStyles[schema.MilestonePlanned]
}
