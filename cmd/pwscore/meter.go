package main

import "strings"

const meterWidth = 40

const (
	ansiRed    = "\033[91m"
	ansiYellow = "\033[93m"
	ansiGreen  = "\033[92m"
	ansiReset  = "\033[0m"
)

// renderMeter 画出 40 格的强度条。低于满分 40% 为红色，低于 70% 为黄色，其余为绿色。
func renderMeter(score, maxScore int, color bool) string {
	filled := 0
	if maxScore > 0 {
		filled = min(max(score*meterWidth/maxScore, 0), meterWidth)
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", meterWidth-filled)
	if !color {
		return bar
	}
	return meterColor(score, maxScore) + bar + ansiReset
}

func meterColor(score, maxScore int) string {
	switch {
	case score*10 < maxScore*4:
		return ansiRed
	case score*10 < maxScore*7:
		return ansiYellow
	default:
		return ansiGreen
	}
}
