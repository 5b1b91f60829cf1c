package ai

import "strings"

// Doc type hints that force a content class regardless of text heuristics.
const (
	DocTypeCode          = "code"
	DocTypeDocumentation = "documentation"
	DocTypePersonal      = "personal"
)

// codeKeywords are language keywords counted for keyword-density scoring.
// The set deliberately spans several mainstream languages; routing only needs
// "looks like code", not language identification.
var codeKeywords = map[string]bool{
	"func": true, "return": true, "import": true, "package": true,
	"def": true, "class": true, "const": true, "var": true, "let": true,
	"struct": true, "interface": true, "public": true, "private": true,
	"static": true, "void": true, "int": true, "string": true, "bool": true,
	"if": true, "else": true, "for": true, "while": true, "switch": true,
	"export": true, "from": true, "lambda": true, "fn": true, "impl": true,
}

// statement prefixes that strongly indicate source code when they open a line.
var codeLinePrefixes = []string{
	"import ", "from ", "package ", "func ", "def ", "class ", "#include",
	"using ", "export ", "const ", "let ", "var ", "pub fn", "impl ", "@",
}

// keywordDensityThreshold is the fraction of tokens that must be language
// keywords before plain text is classified as code.
const keywordDensityThreshold = 0.15

// LooksLikeCode applies cheap syntactic heuristics to decide whether text is
// source code: statement-like line openings, block/statement syntax density,
// and language keyword density.
func LooksLikeCode(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}

	lines := strings.Split(trimmed, "\n")
	prefixHits := 0
	syntaxHits := 0
	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}
		for _, prefix := range codeLinePrefixes {
			if strings.HasPrefix(stripped, prefix) {
				prefixHits++
				break
			}
		}
		if strings.HasSuffix(stripped, "{") || strings.HasSuffix(stripped, ";") ||
			strings.HasSuffix(stripped, "}") || strings.HasSuffix(stripped, "):") {
			syntaxHits++
		}
	}

	nonEmpty := 0
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			nonEmpty++
		}
	}
	if nonEmpty == 0 {
		return false
	}

	// Two or more import/declaration-style lines, or a third of lines ending
	// in block/statement syntax, is enough on its own.
	if prefixHits >= 2 {
		return true
	}
	if float64(syntaxHits)/float64(nonEmpty) > 0.33 && nonEmpty >= 3 {
		return true
	}

	// Otherwise fall back to keyword density over whitespace tokens.
	tokens := strings.Fields(trimmed)
	if len(tokens) < 5 {
		return false
	}
	keywordHits := 0
	for _, token := range tokens {
		cleaned := strings.Trim(strings.ToLower(token), "(){}[];:,.")
		if codeKeywords[cleaned] {
			keywordHits++
		}
	}
	return float64(keywordHits)/float64(len(tokens)) > keywordDensityThreshold
}
