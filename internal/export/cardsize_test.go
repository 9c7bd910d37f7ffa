package export

import (
	"math"
	"testing"
)

func TestCR80MatchesPageMM(t *testing.T) {
	const mmPerPt = 25.4 / 72

	if got := CR80.Width * mmPerPt; math.Abs(got-cardLongEdgeMM) > 0.01 {
		t.Fatalf("CR80 width %.2fmm, want %.2fmm", got, cardLongEdgeMM)
	}
	if got := CR80.Height * mmPerPt; math.Abs(got-cardShortEdgeMM) > 0.01 {
		t.Fatalf("CR80 height %.2fmm, want %.2fmm", got, cardShortEdgeMM)
	}
}
