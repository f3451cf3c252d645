package resolver

import (
	"fmt"
	"regexp"
	"strings"
)

// Category-specific extraction heuristics. Each extractor derives candidate
// canonical keys from a detailed component string; candidates are checked
// against the category's table in the order they are produced. Extractors are
// deterministic pattern rules, not similarity scoring.

type extractor func(raw string) []string

var categoryExtractors = map[string][]extractor{
	"vga":      {extractDiscreteGraphics},
	"graphics": {extractDiscreteGraphics, extractIntegratedGraphics},
	"processor": {
		extractIntelCoreUltra,
		extractIntelCore,
		extractIntelEntry,
		extractRyzen,
	},
	"display": {extractDisplayPhrase},
	"storage": {extractStorage},
	"color":   {extractColor},
}

func extractCandidates(category, raw string) []string {
	extractors, ok := categoryExtractors[category]
	if !ok {
		return nil
	}
	var candidates []string
	seen := map[string]struct{}{}
	for _, extract := range extractors {
		for _, candidate := range extract(raw) {
			candidate = strings.TrimSpace(candidate)
			if candidate == "" {
				continue
			}
			if _, dup := seen[candidate]; dup {
				continue
			}
			seen[candidate] = struct{}{}
			candidates = append(candidates, candidate)
		}
	}
	return candidates
}

// discreteGraphicsRe captures the family marker and the numeric model that
// follows it, e.g. "NVIDIA GeForce RTX 3070 8GB" -> RTX, 3070.
var discreteGraphicsRe = regexp.MustCompile(`(?i)\b(rtx|gtx|rx|mx|arc)\s*-?\s*([a-z]?\d{3,4}[a-z]*)(?:\s+(ti|super|xt|xtx))?\b`)

func extractDiscreteGraphics(raw string) []string {
	match := discreteGraphicsRe.FindStringSubmatch(raw)
	if match == nil {
		return nil
	}
	family := normalizeGraphicsFamily(match[1])
	model := strings.ToUpper(match[2])
	var candidates []string
	if match[3] != "" {
		suffix := normalizeGraphicsSuffix(match[3])
		candidates = append(candidates, fmt.Sprintf("%s %s %s", family, model, suffix))
	}
	candidates = append(candidates, fmt.Sprintf("%s %s", family, model))
	return candidates
}

func normalizeGraphicsFamily(family string) string {
	if strings.EqualFold(family, "arc") {
		return "Arc"
	}
	return strings.ToUpper(family)
}

func normalizeGraphicsSuffix(suffix string) string {
	if strings.EqualFold(suffix, "ti") {
		return "Ti"
	}
	return strings.ToUpper(suffix)
}

var integratedGraphicsRe = regexp.MustCompile(`(?i)\b(iris\s+xe|uhd\s+graphics|radeon\s+graphics|radeon\s+\d{3}m)\b`)

func extractIntegratedGraphics(raw string) []string {
	match := integratedGraphicsRe.FindString(raw)
	if match == "" {
		return nil
	}
	// Collapse whitespace and title-case the known families.
	fields := strings.Fields(match)
	for i, field := range fields {
		switch strings.ToLower(field) {
		case "uhd":
			fields[i] = "UHD"
		case "xe":
			fields[i] = "Xe"
		default:
			fields[i] = titleWord(field)
		}
	}
	return []string{strings.Join(fields, " ")}
}

var intelCoreUltraRe = regexp.MustCompile(`(?i)\bcore\s+ultra\s+([579])\s+(\d{3}[a-z]{0,2})\b`)

func extractIntelCoreUltra(raw string) []string {
	match := intelCoreUltraRe.FindStringSubmatch(raw)
	if match == nil {
		return nil
	}
	return []string{fmt.Sprintf("Ultra %s %s", match[1], strings.ToUpper(match[2]))}
}

var intelCoreRe = regexp.MustCompile(`(?i)\bcore\s+(i[3579])[\s-]+(\d{4,5}[a-z0-9]{0,2})\b`)

func extractIntelCore(raw string) []string {
	match := intelCoreRe.FindStringSubmatch(raw)
	if match == nil {
		return nil
	}
	return []string{fmt.Sprintf("%s-%s", strings.ToLower(match[1]), strings.ToUpper(match[2]))}
}

var intelEntryRe = regexp.MustCompile(`(?i)\b(celeron|pentium|xeon|athlon)\s+([a-z]*\d[\w-]*)\b`)

func extractIntelEntry(raw string) []string {
	match := intelEntryRe.FindStringSubmatch(raw)
	if match == nil {
		return nil
	}
	return []string{fmt.Sprintf("%s %s", titleWord(match[1]), strings.ToUpper(match[2]))}
}

var ryzenRe = regexp.MustCompile(`(?i)\bryzen\s+(ai\s+)?([3579])\s+((?:hx\s+)?\d{3,4}[a-z]{0,3})\b`)

func extractRyzen(raw string) []string {
	match := ryzenRe.FindStringSubmatch(raw)
	if match == nil {
		return nil
	}
	model := strings.ToUpper(strings.Join(strings.Fields(match[3]), " "))
	if match[1] != "" {
		return []string{fmt.Sprintf("Ryzen AI %s %s", match[2], model)}
	}
	return []string{fmt.Sprintf("Ryzen %s %s", match[2], model)}
}

// displayPhraseRe matches the size + resolution (+ refresh rate) phrase
// variants product titles use, e.g. `15-inch FHD (144Hz)`, `15.6" QHD 165 Hz`.
var displayPhraseRe = regexp.MustCompile(`(?i)\b(\d{2}(?:\.\d)?)\s*(?:-?\s*inch\b|["”])?\s*(fhd\+?|qhd\+?|uhd\+?|wuxga|wqxga|oled|2k|4k|hd\+?)(?:\s*\(?\s*(\d{2,3})\s*hz\s*\)?)?`)

func extractDisplayPhrase(raw string) []string {
	match := displayPhraseRe.FindStringSubmatch(raw)
	if match == nil {
		return nil
	}
	size := match[1]
	resolution := strings.ToUpper(match[2])
	if strings.EqualFold(resolution, "oled") {
		resolution = "OLED"
	}

	sizes := []string{size}
	if idx := strings.IndexByte(size, '.'); idx != -1 {
		// "15.6" keys are often curated as the rounded-down "15".
		sizes = append(sizes, size[:idx])
	}

	var candidates []string
	for _, s := range sizes {
		if match[3] != "" {
			candidates = append(candidates, fmt.Sprintf("%s %s %sHz", s, resolution, match[3]))
		}
		candidates = append(candidates, fmt.Sprintf("%s %s", s, resolution))
	}
	return candidates
}

var storageRe = regexp.MustCompile(`(?i)\b(\d+)\s*(gb|tb)\b(?:[\w\s,.+-]*?\b(ssd|nvme|hdd|emmc))?`)

func extractStorage(raw string) []string {
	match := storageRe.FindStringSubmatch(raw)
	if match == nil {
		return nil
	}
	capacity := match[1] + strings.ToUpper(match[2])
	if match[3] == "" {
		return []string{capacity}
	}
	kind := strings.ToUpper(match[3])
	var candidates []string
	if kind == "NVME" {
		// NVMe drives are frequently curated under the plain SSD key.
		candidates = append(candidates, fmt.Sprintf("%s NVMe", capacity), fmt.Sprintf("%s SSD", capacity))
	} else {
		candidates = append(candidates, fmt.Sprintf("%s %s", capacity, kind))
	}
	candidates = append(candidates, capacity)
	return candidates
}

func extractColor(raw string) []string {
	// Strip parenthetical decorations and a trailing "color"/"colour" word:
	// "Platinum Silver (backlit keyboard)" -> "Platinum Silver".
	cleaned := raw
	if idx := strings.IndexByte(cleaned, '('); idx != -1 {
		cleaned = cleaned[:idx]
	}
	cleaned = strings.TrimSpace(cleaned)
	lower := strings.ToLower(cleaned)
	for _, suffix := range []string{" color", " colour"} {
		if strings.HasSuffix(lower, suffix) {
			cleaned = strings.TrimSpace(cleaned[:len(cleaned)-len(suffix)])
			break
		}
	}
	if cleaned == "" || cleaned == raw {
		return nil
	}
	return []string{cleaned}
}

// titleWord uppercases the first ASCII letter of an already-matched family
// name ("celeron" -> "Celeron").
func titleWord(word string) string {
	word = strings.ToLower(word)
	if word == "" {
		return word
	}
	return strings.ToUpper(word[:1]) + word[1:]
}
