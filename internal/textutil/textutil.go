// Package textutil replaces the characters of text nodes whose existing
// content may carry several fonts.
//
// The host refuses to write characters or fonts that have not been loaded,
// so every strategy loads each font it assigns before assigning it. All
// offsets are rune offsets.
package textutil

import (
	"context"
	"log"
	"strings"

	"github.com/ttfbridge/host/internal/document"
)

// Strategy selects how fonts are carried over when a node has mixed fonts.
type Strategy string

const (
	// StrategyDefault applies the font of the first character to the whole
	// new string.
	StrategyDefault Strategy = ""
	// StrategyPrevail applies the most frequent character font.
	StrategyPrevail Strategy = "prevail"
	// StrategyStrict re-applies each constant-font run of the old string to
	// the same offsets of the new string.
	StrategyStrict Strategy = "strict"
	// StrategyExperimental re-applies fonts per line and word.
	StrategyExperimental Strategy = "experimental"
)

// ParseStrategy maps a wire name to a Strategy. The empty name selects
// StrategyDefault.
func ParseStrategy(name string) (Strategy, bool) {
	switch s := Strategy(name); s {
	case StrategyDefault, StrategyPrevail, StrategyStrict, StrategyExperimental:
		return s, true
	}
	return "", false
}

// DefaultFallback is used when a font cannot be loaded.
var DefaultFallback = document.FontName{Family: "Inter", Style: "Regular"}

// FontLoader loads fonts before they are written. document.Store
// implements it.
type FontLoader interface {
	LoadFont(ctx context.Context, font document.FontName) error
}

type Options struct {
	FallbackFont *document.FontName
	Strategy     Strategy
}

func (o Options) fallback() document.FontName {
	if o.FallbackFont != nil && o.FallbackFont.Family != "" {
		return *o.FallbackFont
	}
	return DefaultFallback
}

// SetCharacters writes characters into node. It returns false when the host
// rejects the write; font problems fall back to the fallback font and are
// only logged.
func SetCharacters(ctx context.Context, loader FontLoader, node document.Text, characters string, opts Options) (bool, error) {
	fallback := opts.fallback()

	current, mixed := node.FontName()
	if mixed {
		switch opts.Strategy {
		case StrategyStrict:
			return setStrict(ctx, loader, node, characters, fallback)
		case StrategyExperimental:
			return setExperimental(ctx, loader, node, characters, fallback)
		}
	}

	if err := prepareFont(ctx, loader, node, current, mixed, opts.Strategy); err != nil {
		log.Printf("textutil: failed to load %q font and replaced with fallback %q: %v", current.String(), fallback.String(), err)
		if err := loader.LoadFont(ctx, fallback); err != nil {
			return false, err
		}
		if err := node.SetFontName(fallback); err != nil {
			return false, err
		}
	}

	if err := node.SetCharacters(characters); err != nil {
		log.Printf("textutil: failed to set characters on %s, skipped: %v", node.ID(), err)
		return false, nil
	}
	return true, nil
}

// prepareFont loads the font the new characters will use and, for mixed
// nodes, applies it to the whole node.
func prepareFont(ctx context.Context, loader FontLoader, node document.Text, current document.FontName, mixed bool, strategy Strategy) error {
	if !mixed {
		return loader.LoadFont(ctx, current)
	}
	var font document.FontName
	if strategy == StrategyPrevail {
		font = prevailingFont(node)
	} else {
		font, _ = node.RangeFontName(0, 1)
	}
	if err := loader.LoadFont(ctx, font); err != nil {
		return err
	}
	return node.SetFontName(font)
}

// prevailingFont returns the most frequent font over the first len-1
// characters. Ties go to the font seen first.
func prevailingFont(node document.Text) document.FontName {
	n := len([]rune(node.Characters()))
	counts := make(map[document.FontName]int)
	var order []document.FontName
	for i := 1; i < n; i++ {
		f, _ := node.RangeFontName(i-1, i)
		if counts[f] == 0 {
			order = append(order, f)
		}
		counts[f]++
	}
	if len(order) == 0 {
		f, _ := node.RangeFontName(0, 1)
		return f
	}
	best := order[0]
	for _, f := range order[1:] {
		if counts[f] > counts[best] {
			best = f
		}
	}
	return best
}

type fontRun struct {
	start, end int
	font       document.FontName
}

// fontRuns partitions the node into maximal constant-font runs.
func fontRuns(node document.Text) []fontRun {
	n := len([]rune(node.Characters()))
	var runs []fontRun
	for i := 0; i < n; {
		f, _ := node.RangeFontName(i, i+1)
		j := i + 1
		for j < n {
			g, _ := node.RangeFontName(j, j+1)
			if g != f {
				break
			}
			j++
		}
		runs = append(runs, fontRun{start: i, end: j, font: f})
		i = j
	}
	return runs
}

// setStrict keeps the old run offsets. Runs past the end of the new string
// are clamped or dropped, so fonts land on the wrong words whenever the new
// text has different run boundaries.
func setStrict(ctx context.Context, loader FontLoader, node document.Text, characters string, fallback document.FontName) (bool, error) {
	runs := fontRuns(node)
	if err := loader.LoadFont(ctx, fallback); err != nil {
		return false, err
	}
	if err := node.SetFontName(fallback); err != nil {
		return false, err
	}
	if err := node.SetCharacters(characters); err != nil {
		log.Printf("textutil: failed to set characters on %s, skipped: %v", node.ID(), err)
		return false, nil
	}
	length := len([]rune(characters))
	for _, r := range runs {
		end := min(r.end, length)
		if r.start >= end {
			continue
		}
		if err := loader.LoadFont(ctx, r.font); err != nil {
			log.Printf("textutil: failed to load %q, keeping fallback: %v", r.font.String(), err)
			continue
		}
		if err := node.SetRangeFontName(r.start, end, r.font); err != nil {
			log.Printf("textutil: failed to apply %q to [%d, %d): %v", r.font.String(), r.start, end, err)
		}
	}
	return true, nil
}

type delimitedFont struct {
	font      document.FontName
	delimiter rune
}

// segments splits [start, end) of s on delim into non-empty ranges.
func segments(s []rune, delim rune, start, end int) [][2]int {
	var out [][2]int
	from := start
	for i := start; i < end; i++ {
		if s[i] != delim {
			continue
		}
		if i > from {
			out = append(out, [2]int{from, i})
		}
		from = i + 1
	}
	if from < end {
		out = append(out, [2]int{from, end})
	}
	return out
}

// linearOrder lists the font of each line, or of each word on lines that
// mix fonts, in document order.
func linearOrder(node document.Text) []delimitedFont {
	chars := []rune(node.Characters())
	var tree []delimitedFont
	for _, line := range segments(chars, '\n', 0, len(chars)) {
		f, mixed := node.RangeFontName(line[0], line[1])
		if !mixed {
			tree = append(tree, delimitedFont{font: f, delimiter: '\n'})
			continue
		}
		for _, word := range segments(chars, ' ', line[0], line[1]) {
			wf, wordMixed := node.RangeFontName(word[0], word[1])
			if wordMixed {
				wf, _ = node.RangeFontName(word[0], word[0]+1)
			}
			tree = append(tree, delimitedFont{font: wf, delimiter: ' '})
		}
	}
	return tree
}

func setExperimental(ctx context.Context, loader FontLoader, node document.Text, characters string, fallback document.FontName) (bool, error) {
	tree := linearOrder(node)

	seen := map[document.FontName]bool{}
	for _, f := range append(fontsOf(tree), fallback) {
		if seen[f] {
			continue
		}
		seen[f] = true
		if err := loader.LoadFont(ctx, f); err != nil {
			return false, err
		}
	}
	if err := node.SetFontName(fallback); err != nil {
		return false, err
	}
	if err := node.SetCharacters(characters); err != nil {
		log.Printf("textutil: failed to set characters on %s, skipped: %v", node.ID(), err)
		return false, nil
	}

	chars := []rune(characters)
	prev := 0
	for _, t := range tree {
		if prev >= len(chars) {
			break
		}
		end := len(chars)
		if i := indexRune(chars, t.delimiter, prev); i > prev {
			end = i
		}
		if err := node.SetRangeFontName(prev, end, t.font); err != nil {
			log.Printf("textutil: failed to apply %q to [%d, %d): %v", t.font.String(), prev, end, err)
		}
		prev = end + 1
	}
	return true, nil
}

func fontsOf(tree []delimitedFont) []document.FontName {
	out := make([]document.FontName, 0, len(tree))
	for _, t := range tree {
		out = append(out, t.font)
	}
	return out
}

func indexRune(s []rune, r rune, from int) int {
	for i := from; i < len(s); i++ {
		if s[i] == r {
			return i
		}
	}
	return -1
}

var weightStyles = map[int]string{
	100: "Thin",
	200: "Extra Light",
	300: "Light",
	400: "Regular",
	500: "Medium",
	600: "Semi Bold",
	700: "Bold",
	800: "Extra Bold",
	900: "Black",
}

// FontStyleForWeight maps a CSS font weight to a font style name.
func FontStyleForWeight(weight int) string {
	if s, ok := weightStyles[weight]; ok {
		return s
	}
	return "Regular"
}

// WeightForStyle is the inverse of FontStyleForWeight. Unknown styles
// report 400.
func WeightForStyle(style string) int {
	s := strings.TrimSpace(strings.TrimSuffix(style, "Italic"))
	if s == "" {
		return 400
	}
	for w, name := range weightStyles {
		if strings.EqualFold(name, s) {
			return w
		}
	}
	return 400
}
