package imaging

import (
	"bytes"
	"fmt"

	"github.com/fogleman/gg"
)

const (
	scorecardWidth  = 360
	scorecardHeight = 120
	maxStatusRunes  = 48
)

// Scorecard is the data drawn onto the score badge.
type Scorecard struct {
	Score     int
	Completed int
	Total     int
	Status    string
}

// RenderScorecard draws the badge and returns it as PNG bytes.
func RenderScorecard(card Scorecard) ([]byte, error) {
	dc := gg.NewContext(scorecardWidth, scorecardHeight)
	dc.SetHexColor("#1f2430")
	dc.Clear()

	dc.SetHexColor("#ffffff")
	dc.DrawStringAnchored(fmt.Sprintf("Score: %d", card.Score), scorecardWidth/2, 22, 0.5, 0.5)

	barX, barY := 20.0, 46.0
	barWidth, barHeight := float64(scorecardWidth-40), 18.0
	dc.SetHexColor("#3a4150")
	dc.DrawRoundedRectangle(barX, barY, barWidth, barHeight, 6)
	dc.Fill()

	if card.Total > 0 && card.Completed > 0 {
		ratio := float64(card.Completed) / float64(card.Total)
		if ratio > 1 {
			ratio = 1
		}
		dc.SetHexColor("#57f287")
		dc.DrawRoundedRectangle(barX, barY, barWidth*ratio, barHeight, 6)
		dc.Fill()
	}

	dc.SetHexColor("#ffffff")
	dc.DrawStringAnchored(fmt.Sprintf("%d / %d challenges", card.Completed, card.Total), scorecardWidth/2, barY+barHeight/2, 0.5, 0.5)

	dc.SetHexColor("#c9d1d9")
	dc.DrawStringAnchored(truncate(card.Status, maxStatusRunes), scorecardWidth/2, 96, 0.5, 0.5)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode scorecard: %w", err)
	}
	return buf.Bytes(), nil
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-3]) + "..."
}
