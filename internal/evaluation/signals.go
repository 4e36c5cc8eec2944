package evaluation

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// signals are the lexical features extracted from one answer. Every score
// is derived from them and nothing else.
type signals struct {
	words     int
	sentences []string
	avgLen    float64

	star        map[string]float64
	starAvg     float64
	starPresent int
	starOrdered bool

	sequence int
	fillers  int
	numbers  int
	units    int
	named    []string
	jargon   int
	explains int
	content  int

	ownVerbs   int
	firstWords int
	weWords    int

	// overlap is the share of expected signals mentioned, or -1 when the
	// question lists none.
	overlap        float64
	competency     string
	competencyHits int
}

func extractSignals(text, competency string, expected []string) *signals {
	lower := strings.ToLower(text)
	words := strings.Fields(lower)

	s := &signals{
		words:      len(words),
		competency: competency,
		overlap:    -1,
	}
	if s.words == 0 {
		s.star = map[string]float64{}
		return s
	}

	s.sentences = splitSentences(text)
	s.avgLen = float64(s.words) / float64(max(1, len(s.sentences)))

	s.star, s.starPresent, s.starOrdered = starCoverage(lower)
	for _, v := range s.star {
		s.starAvg += v
	}
	s.starAvg /= float64(len(starOrder))

	s.sequence = count(sequencePattern, lower)
	s.fillers = count(fillerPattern, lower)
	s.numbers = count(numberPattern, lower)
	s.units = count(unitPattern, lower)
	s.jargon = count(jargonPattern, lower)
	s.explains = count(explainPattern, lower)
	s.ownVerbs = count(ownershipVerbs, lower)
	s.firstWords = count(firstPerson, lower)
	s.weWords = count(collective, lower)

	named := make(map[string]struct{})
	content := make(map[string]struct{})
	for _, w := range words {
		tok := strings.Trim(w, tokenCutset)
		if _, ok := knownTools[tok]; ok {
			named[tok] = struct{}{}
		}
		if _, stop := stopWords[tok]; !stop && utf8.RuneCountInString(tok) >= 5 {
			content[tok] = struct{}{}
		}
	}
	for _, p := range properNouns(s.sentences) {
		named[p] = struct{}{}
	}
	s.named = make([]string, 0, len(named))
	for n := range named {
		s.named = append(s.named, n)
	}
	sort.Strings(s.named)
	s.content = len(content)

	if len(expected) > 0 {
		s.overlap = signalOverlap(lower, expected)
	}
	if p, ok := competencyPatterns[competency]; ok {
		s.competencyHits = count(p, lower)
	}

	return s
}

func count(p *regexp.Regexp, s string) int {
	return len(p.FindAllStringIndex(s, -1))
}

func splitSentences(text string) []string {
	var out []string
	for _, part := range sentenceSplit.Split(text, -1) {
		if strings.TrimSpace(part) != "" {
			out = append(out, part)
		}
	}
	return out
}

// starCoverage scores each STAR component. The answer is cut into four equal
// zones; a component gets a bonus when one of its markers sits in the zone
// matching its narrative position.
func starCoverage(lower string) (map[string]float64, int, bool) {
	out := make(map[string]float64, len(starOrder))
	size := len(lower)
	present := 0
	ordered := true
	prev := -1

	for i, name := range starOrder {
		matches := starPatterns[name].FindAllStringIndex(lower, -1)
		if len(matches) == 0 {
			out[name] = 0
			continue
		}

		inZone := false
		for _, m := range matches {
			if min(3, m[0]*4/size) == i {
				inZone = true
				break
			}
		}
		score := 0.6 * float64(len(matches))
		if inZone {
			score += 0.4
		}
		out[name] = math.Min(1, score)

		present++
		if matches[0][0] < prev {
			ordered = false
		}
		prev = matches[0][0]
	}

	return out, present, ordered && present >= 2
}

// properNouns collects capitalised words that do not open a sentence.
func properNouns(sentences []string) []string {
	var out []string
	for _, sentence := range sentences {
		words := strings.Fields(sentence)
		for i := 1; i < len(words); i++ {
			w := strings.Trim(words[i], tokenCutset)
			if w == "" || w == "I" {
				continue
			}
			first, _ := utf8.DecodeRuneInString(w)
			if !unicode.IsUpper(first) {
				continue
			}
			lw := strings.ToLower(w)
			if _, stop := stopWords[lw]; stop {
				continue
			}
			out = append(out, lw)
		}
	}
	return out
}

// signalOverlap is the fraction of expected signals for which any word of
// four or more letters appears, matched on its first five letters.
func signalOverlap(lower string, expected []string) float64 {
	hits := 0
	for _, sig := range expected {
		for _, w := range signalWord.FindAllString(strings.ToLower(sig), -1) {
			if len(w) < 4 {
				continue
			}
			prefix := w
			if len(prefix) > 5 {
				prefix = prefix[:5]
			}
			if strings.Contains(lower, prefix) {
				hits++
				break
			}
		}
	}
	return float64(hits) / float64(len(expected))
}
