package fuzzy

// approx locates the substring of text closest to pattern. It returns the
// normalised score errors/max(len(pattern), span) and the half-open rune
// range [start, end) of the chosen substring. Among equal scores the
// earliest start wins.
func approx(pattern, text []rune) (score float64, start, end int) {
	m, n := len(pattern), len(text)
	score, start, end = 1, 0, 0
	if m == 0 || n == 0 {
		return score, start, end
	}

	// Column-wise Sellers DP: d[i] is the cheapest alignment of pattern[:i]
	// against a substring of text ending at the current column, s[i] its
	// start column.
	prevD, curD := make([]int, m+1), make([]int, m+1)
	prevS, curS := make([]int, m+1), make([]int, m+1)
	for i := range prevD {
		prevD[i] = i
	}

	for j := 1; j <= n; j++ {
		curD[0], curS[0] = 0, j
		c := text[j-1]
		for i := 1; i <= m; i++ {
			cost := 1
			if pattern[i-1] == c {
				cost = 0
			}
			d, s := prevD[i-1]+cost, prevS[i-1]
			if v := curD[i-1] + 1; v < d {
				d, s = v, curS[i-1]
			}
			if v := prevD[i] + 1; v < d {
				d, s = v, prevS[i]
			}
			curD[i], curS[i] = d, s
		}

		if span := j - curS[m]; span > 0 {
			sc := float64(curD[m]) / float64(max(m, span))
			if sc < score || (sc == score && end > 0 && curS[m] < start) {
				score, start, end = sc, curS[m], j
			}
		}
		prevD, curD = curD, prevD
		prevS, curS = curS, prevS
	}
	return score, start, end
}

// alignedPositions returns the offsets in text[start:end] (as absolute
// indices) whose runes line up exactly with a pattern rune in an optimal
// alignment.
func alignedPositions(pattern, text []rune, start, end int) []int {
	sub := text[start:end]
	m, n := len(pattern), len(sub)
	d := make([][]int, m+1)
	for i := range d {
		d[i] = make([]int, n+1)
		d[i][0] = i
	}
	for k := 0; k <= n; k++ {
		d[0][k] = k
	}
	for i := 1; i <= m; i++ {
		for k := 1; k <= n; k++ {
			cost := 1
			if pattern[i-1] == sub[k-1] {
				cost = 0
			}
			d[i][k] = min(d[i-1][k-1]+cost, d[i-1][k]+1, d[i][k-1]+1)
		}
	}

	var pos []int
	i, k := m, n
	for i > 0 && k > 0 {
		switch {
		case pattern[i-1] == sub[k-1] && d[i][k] == d[i-1][k-1]:
			pos = append(pos, start+k-1)
			i, k = i-1, k-1
		case d[i][k] == d[i-1][k-1]+1:
			i, k = i-1, k-1
		case d[i][k] == d[i-1][k]+1:
			i--
		default:
			k--
		}
	}
	// Reverse into ascending order.
	for l, r := 0, len(pos)-1; l < r; l, r = l+1, r-1 {
		pos[l], pos[r] = pos[r], pos[l]
	}
	return pos
}

// occurrences returns the start offsets of every (possibly overlapping)
// exact occurrence of pattern in text.
func occurrences(pattern, text []rune) []int {
	m, n := len(pattern), len(text)
	if m == 0 || m > n {
		return nil
	}
	var out []int
outer:
	for s := 0; s+m <= n; s++ {
		for i := 0; i < m; i++ {
			if text[s+i] != pattern[i] {
				continue outer
			}
		}
		out = append(out, s)
	}
	return out
}

func hasPrefix(text, pattern []rune) bool {
	if len(pattern) > len(text) {
		return false
	}
	for i, r := range pattern {
		if text[i] != r {
			return false
		}
	}
	return true
}

func hasSuffix(text, pattern []rune) bool {
	off := len(text) - len(pattern)
	if off < 0 {
		return false
	}
	for i, r := range pattern {
		if text[off+i] != r {
			return false
		}
	}
	return true
}

func equalRunes(a, b []rune) bool {
	return len(a) == len(b) && hasPrefix(a, b)
}
