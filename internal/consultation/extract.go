package consultation

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	reWeight = regexp.MustCompile(`(\d{2,3}(?:[.,]\d+)?)\s*(?:kg|quilos?|kilos?)\b`)
	reHeight = regexp.MustCompile(`(\d{3})\s*cm\b|(\d[.,]\d{2})\s*(?:m|metros?)\b`)
	reAge    = regexp.MustCompile(`(\d{1,3})\s*(?:anos|years?)\b`)
)

// fillFromMessage completes zero-valued anthropometric fields from numbers
// stated in a user message. Values already in UserData are kept.
func fillFromMessage(u *UserData, msg string) bool {
	m := strings.ToLower(msg)
	changed := false
	if u.WeightKg <= 0 {
		if g := reWeight.FindStringSubmatch(m); g != nil {
			if v, ok := parseNum(g[1]); ok && v >= 25 && v <= 400 {
				u.WeightKg = v
				changed = true
			}
		}
	}
	if u.HeightCm <= 0 {
		if g := reHeight.FindStringSubmatch(m); g != nil {
			var v float64
			var ok bool
			if g[1] != "" {
				v, ok = parseNum(g[1])
			} else if mv, mok := parseNum(g[2]); mok {
				v, ok = math.Round(mv*100), true
			}
			if ok && v >= 100 && v <= 250 {
				u.HeightCm = v
				changed = true
			}
		}
	}
	if u.Age <= 0 {
		if g := reAge.FindStringSubmatch(m); g != nil {
			if v, err := strconv.Atoi(g[1]); err == nil && v >= 2 && v <= 120 {
				u.Age = v
				changed = true
			}
		}
	}
	return changed
}

func parseNum(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	return v, err == nil
}
