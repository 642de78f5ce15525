package bench

import (
	"regexp"
	"strconv"
	"strings"

	"wxbench/internal/db"
)

// The simulator prints a hierarchical timing table like:
//
//	Timing report (running total since start of sim)
//	Total time elapsed (ms) = 1 234.56
//	==================================================
//	| Scope                      | Time elapsed (ms) | % of total |
//	==================================================
//	| rk_solver/step             |            123.45 |      45.62 |
//	| ....variable_adjusters     |             67.89 |      25.10 |
//	==================================================
//
// Nesting is indicated by leading dots, 4 per level. We reconstruct the
// full scope path (e.g. "rk_solver/step/variable_adjusters").

var (
	// Matches a row like: | ....scope_name   |        123.45 |      45.62 |
	timingRowRe = regexp.MustCompile(`^\|\s+(\.*)(\S.*?)\s+\|\s+([\d ,]+\.?\d*)\s+\|\s+([\d.]+)\s+\|$`)

	timingTotalRe = regexp.MustCompile(`Total time elapsed \(ms\)\s*=\s*([\d ,]+\.?\d*)`)

	frameAdvanceRe = regexp.MustCompile(`Advanced from frame \d+ to \d+ in ([\d.]+(?:e[+-]?\d+)?)\s+seconds?`)
)

// ParseTimingReport parses the last timing report found in the output.
// The final report at end of sim is the authoritative running total.
// Frame advance times are collected from the entire output.
func ParseTimingReport(output string) Timing {
	lines := strings.Split(output, "\n")

	var timing Timing

	lastReportStart := -1
	for i, line := range lines {
		if strings.Contains(line, "Timing report") {
			lastReportStart = i
		}
		if m := frameAdvanceRe.FindStringSubmatch(line); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				timing.FrameTimesS = append(timing.FrameTimesS, v)
			}
		}
	}

	if lastReportStart < 0 {
		return timing
	}

	var scopeStack []string
	for _, line := range lines[lastReportStart:] {
		if m := timingTotalRe.FindStringSubmatch(line); m != nil {
			timing.TotalMS = parseGroupedNumber(m[1])
			continue
		}

		m := timingRowRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		dots, name, timeStr, pctStr := m[1], strings.TrimSpace(m[2]), m[3], m[4]
		depth := len(dots) / 4

		// Adjust scope stack to current depth
		if depth < len(scopeStack) {
			scopeStack = scopeStack[:depth]
		}
		scopeStack = append(scopeStack, name)

		pct, _ := strconv.ParseFloat(pctStr, 64)
		timing.Scopes = append(timing.Scopes, db.ScopeTiming{
			Scope:        strings.Join(scopeStack, "/"),
			ElapsedMS:    parseGroupedNumber(timeStr),
			PercentTotal: pct,
		})
	}

	return timing
}

// parseGroupedNumber parses a number that may carry space or comma
// thousands separators.
func parseGroupedNumber(s string) float64 {
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", "")
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
