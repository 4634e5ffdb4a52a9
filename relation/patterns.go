package relation

import "regexp"

// ---------------------------------------------------------------------------
// Relationship pattern catalog
// ---------------------------------------------------------------------------

// Pattern binds a relationship kind to one regular expression over French
// legal prose. Patterns are data, not code: the extraction algorithm is
// generic over any catalog. By convention capture group 1 is the document
// type token and group 2 the document number; a pattern whose groups differ
// says so via TypeGroup/NumberGroup (0 means "use the convention").
type Pattern struct {
	Kind        Kind
	Re          *regexp.Regexp
	TypeGroup   int
	NumberGroup int
}

func (p Pattern) typeGroup() int {
	if p.TypeGroup > 0 {
		return p.TypeGroup
	}
	return 1
}

func (p Pattern) numberGroup() int {
	if p.NumberGroup > 0 {
		return p.NumberGroup
	}
	return 2
}

// defaultCatalog lists the seven link kinds of Algerian legal drafting and
// the trigger vocabulary of each, in fixed enumeration order. Matching is
// case-insensitive and global (all occurrences). Patterns without a number
// capture never yield a relationship; they are kept so their vocabulary is
// documented alongside the productive forms.
var defaultCatalog = []Pattern{
	// Liens "vu": preamble citations of prior instruments.
	{Kind: KindVu, Re: regexp.MustCompile(`(?i)\bvu\s+la\s+(loi|ordonnance|décret|arrêté|décision|circulaire|instruction)\s+n[°]\s*([\d\-/]+)[^;]*`)},
	{Kind: KindVu, Re: regexp.MustCompile(`(?i)\bvu\s+le\s+(code|décret\s+législatif|décret\s+présidentiel|décret\s+exécutif)\s+n[°]\s*([\d\-/]+)[^;]*`)},
	{Kind: KindVu, Re: regexp.MustCompile(`(?i)\bvu\s+l'?(arrêté|instruction|décision)\s+(?:ministériel[le]?|interministériel[le]?)?\s*n[°]\s*([\d\-/]+)[^;]*`)},

	// Modifications législatives.
	{Kind: KindModification, Re: regexp.MustCompile(`(?i)\bmodifi[eé]\s+(?:et\s+complét[eé]\s+)?(?:la|le|l')\s*(loi|décret|arrêté|ordonnance)\s+n[°]\s*([\d\-/]+)`)},
	{Kind: KindModification, Re: regexp.MustCompile(`(?i)\bmodification\s+(?:de\s+)?(?:la|le|l')\s*(loi|décret|arrêté|ordonnance)\s+n[°]\s*([\d\-/]+)`)},
	{Kind: KindModification, Re: regexp.MustCompile(`(?i)\b(?:la|le|l')\s*(loi|décret|arrêté|ordonnance)\s+n[°]\s*([\d\-/]+)\s+(?:est\s+)?modifi[eé][es]?`)},

	// Abrogations et annulations, totales ou partielles.
	{Kind: KindAbrogation, Re: regexp.MustCompile(`(?i)\babrog[eé][es]?\s+(?:la|le|l')\s*(loi|décret|arrêté|ordonnance)\s+n[°]\s*([\d\-/]+)`)},
	{Kind: KindAbrogation, Re: regexp.MustCompile(`(?i)\b(?:la|le|l')\s*(loi|décret|arrêté|ordonnance)\s+n[°]\s*([\d\-/]+)\s+(?:est\s+)?abrog[eé][es]?`)},
	{Kind: KindAbrogation, Re: regexp.MustCompile(`(?i)\bannul[eé][es]?\s+(?:la|le|l')\s*(loi|décret|arrêté|ordonnance)\s+n[°]\s*([\d\-/]+)`)},
	// Partial repeal names the articles before the instrument; groups shift.
	{Kind: KindAbrogation, Re: regexp.MustCompile(`(?i)\babrog[eé][es]?\s+(?:les?\s+)?(?:articles?\s+)?([\d,\s\-et]+)\s+(?:de\s+)?(?:la|le|l')\s*(loi|décret|arrêté)\s+n[°]\s*([\d\-/]+)`), TypeGroup: 2, NumberGroup: 3},

	// Approbations et endossements.
	{Kind: KindApprobation, Re: regexp.MustCompile(`(?i)\bapprouv[eé][es]?\s+(?:par\s+)?(?:la|le|l')\s*(loi|décret|arrêté|ordonnance)\s+n[°]\s*([\d\-/]+)`)},
	{Kind: KindApprobation, Re: regexp.MustCompile(`(?i)\b(?:la|le|l')\s*(loi|décret|arrêté|ordonnance)\s+n[°]\s*([\d\-/]+)\s+approuv[eé][es]?`)},
	{Kind: KindApprobation, Re: regexp.MustCompile(`(?i)\bendoss[eé][es]?\s+(?:par\s+)?(?:la|le|l')\s*(loi|décret|arrêté|ordonnance)\s+n[°]\s*([\d\-/]+)`)},

	// Contrôle de conformité et de constitutionnalité.
	{Kind: KindControle, Re: regexp.MustCompile(`(?i)\bcontrôle\s+de\s+(?:conformité|constitutionnalité)\s+(?:de\s+)?(?:la|le|l')\s*(loi|décret|arrêté|ordonnance)\s+n[°]\s*([\d\-/]+)`)},
	{Kind: KindControle, Re: regexp.MustCompile(`(?i)\bconforme?\s+(?:à\s+)?(?:la\s+)?constitution[^,.]*`)},
	{Kind: KindControle, Re: regexp.MustCompile(`(?i)évaluation\s+constitutionnel[le]?\s+(?:de\s+)?(?:la|le|l')\s*(loi|décret|arrêté|ordonnance)\s+n[°]\s*([\d\-/]+)`)},

	// Extensions et applications.
	{Kind: KindExtension, Re: regexp.MustCompile(`(?i)étend[ue]?\s+(?:à|aux?)\s+[^.]*`)},
	{Kind: KindExtension, Re: regexp.MustCompile(`(?i)\bapplicable?\s+(?:à|aux?)\s+[^.]*`)},
	{Kind: KindExtension, Re: regexp.MustCompile(`(?i)\bapplication\s+(?:de\s+)?(?:la|le|l')\s*(loi|décret|arrêté|ordonnance)\s+n[°]\s*([\d\-/]+)\s+(?:à|aux?)\s+[^.]*`)},
	{Kind: KindExtension, Re: regexp.MustCompile(`(?i)élargissement\s+(?:de\s+la\s+)?portée\s+(?:de\s+)?(?:la|le|l')\s*(loi|décret|arrêté|ordonnance)\s+n[°]\s*([\d\-/]+)`)},

	// Annexes et listes complémentaires.
	{Kind: KindAnnexe, Re: regexp.MustCompile(`(?i)\bannexe[s]?\s+(?:à\s+)?(?:la|le|l')\s*(loi|décret|arrêté|ordonnance)\s+n[°]\s*([\d\-/]+)`)},
	{Kind: KindAnnexe, Re: regexp.MustCompile(`(?i)\bliste[s]?\s+(?:complémentaire[s]?\s+)?(?:à\s+)?(?:la|le|l')\s*(loi|décret|arrêté|ordonnance)\s+n[°]\s*([\d\-/]+)`)},
	{Kind: KindAnnexe, Re: regexp.MustCompile(`(?i)\bclassification[s]?\s+(?:de\s+)?(?:la|le|l')\s*(loi|décret|arrêté|ordonnance)\s+n[°]\s*([\d\-/]+)`)},
}

// DefaultCatalog returns a copy of the built-in pattern catalog. Callers
// needing extra locales or vocabulary can extend the copy and pass it to
// AnalyzeWithCatalog.
func DefaultCatalog() []Pattern {
	catalog := make([]Pattern, len(defaultCatalog))
	copy(catalog, defaultCatalog)
	return catalog
}

// ---------------------------------------------------------------------------
// Date patterns (official gazette dating style)
// ---------------------------------------------------------------------------

var (
	// Gregorian: "10 mai 2018". Groups: day, month, year.
	gregorianDatePattern = regexp.MustCompile(`(?i)(\d{1,2})\s+(janvier|février|mars|avril|mai|juin|juillet|août|septembre|octobre|novembre|décembre)\s+(\d{4})`)

	// Hijri months as transliterated in the gazette: "20 Chaoual 1439".
	hijriDatePattern = regexp.MustCompile(`(?i)(\d{1,2})\s+(?:moharram|safar|rabi'\s*(?:el\s+)?(?:aouel|ethani)|joumada\s+(?:el\s+)?(?:oula|ethania)|rajab|cha'bane?|ramadhan|chaoual|dhou\s+el\s+(?:kaada|hidja))\s+(\d{3,4})`)

	// "correspondant au 10 mai 2018": the Gregorian equivalent given after a
	// Hijri date. Groups: day, month, year.
	correspondenceDatePattern = regexp.MustCompile(`(?i)correspondant\s+(?:au\s+)?(\d{1,2})\s+(janvier|février|mars|avril|mai|juin|juillet|août|septembre|octobre|novembre|décembre)\s+(\d{4})`)
)

// ---------------------------------------------------------------------------
// Issuing-authority patterns
// ---------------------------------------------------------------------------

// institutionPatterns are tried in order; the first match wins.
var institutionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:ministère|minister)\s+(?:de\s+(?:la\s+|l'|du\s+|des\s+)?)?([^,.;]+)`),
	regexp.MustCompile(`(?i)(?:président|présidence)\s+de\s+la\s+république`),
	regexp.MustCompile(`(?i)premier\s+ministre`),
	regexp.MustCompile(`(?i)assemblée\s+populaire\s+nationale`),
	regexp.MustCompile(`(?i)conseil\s+(?:constitutionnel|d'?état|des\s+ministres)`),
	regexp.MustCompile(`(?i)autorité\s+(?:nationale\s+)?(?:[^,.;]+)`),
}
