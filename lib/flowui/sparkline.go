// Copyright 2026 The Flowlog Authors
// SPDX-License-Identifier: Apache-2.0

package flowui

import "strings"

// sparkRunes are the eighth-block glyphs used to plot one value per
// column, lowest to highest.
var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// sparkline renders the last width values as a one-line chart. Values
// are scaled to the observed min/max; a flat series renders mid-height
// so a steady flow doesn't look like zero.
func sparkline(values []float64, width int) string {
	if width <= 0 || len(values) == 0 {
		return ""
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	low, high := values[0], values[0]
	for _, v := range values {
		if v < low {
			low = v
		}
		if v > high {
			high = v
		}
	}

	var b strings.Builder
	if high == low {
		mid := sparkRunes[len(sparkRunes)/2]
		for range values {
			b.WriteRune(mid)
		}
		return b.String()
	}

	scale := float64(len(sparkRunes)-1) / (high - low)
	for _, v := range values {
		b.WriteRune(sparkRunes[int((v-low)*scale+0.5)])
	}
	return b.String()
}
