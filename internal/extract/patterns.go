package extract

import "regexp"

// The pattern library: for each entity, an ordered list of rules per field.
// Order matters — the first pattern that matches anywhere in the text wins
// and later patterns for the same field are not attempted. Report text is
// bilingual (Spanish/English), so labels and character classes carry accented
// Latin letters. Fields with a fixed vocabulary (species, sex) get a trailing
// bare-alternation pattern that matches without a label prefix.

type fieldRule struct {
	field    string
	patterns []*regexp.Regexp
}

func compileAll(exprs ...string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		res = append(res, regexp.MustCompile(expr))
	}
	return res
}

var patientRules = []fieldRule{
	{field: "name", patterns: compileAll(
		`(?i)(?:paciente|patient|nombre|name)[\s:]+([A-Za-záéíóúñÁÉÍÓÚÑ\s]+?)(?:\n|,|;|\s{2,})`,
		`(?i)(?:mascota|pet)[\s:]+([A-Za-záéíóúñÁÉÍÓÚÑ\s]+?)(?:\n|,|;)`,
	)},
	{field: "species", patterns: compileAll(
		`(?i)(?:especie|species)[\s:]+([A-Za-záéíóúñÁÉÍÓÚÑ\s]+?)(?:\n|,|;)`,
		`(?i)\b(canino|felino|canine|feline|perro|gato|dog|cat)\b`,
	)},
	{field: "breed", patterns: compileAll(
		`(?i)(?:raza|breed)[\s:]+([A-Za-záéíóúñÁÉÍÓÚÑ\s]+?)(?:\n|,|;)`,
	)},
	{field: "age", patterns: compileAll(
		`(?i)(?:edad|age)[\s:]+(\d+\s*(?:años?|years?|meses?|months?|a|m))`,
	)},
	{field: "weight", patterns: compileAll(
		`(?i)(?:peso|weight)[\s:]+(\d+[.,]?\d*\s*(?:kg|lb|kilos?|pounds?))`,
	)},
	{field: "sex", patterns: compileAll(
		`(?i)(?:sexo|sex|g[eé]nero|gender)[\s:]+([A-Za-záéíóúñÁÉÍÓÚÑ\s]+?)(?:\n|,|;)`,
		`(?i)\b(macho|hembra|male|female|castrado|castrated|neutro|neutered)\b`,
	)},
	{field: "microchip_id", patterns: compileAll(
		`(?i)(?:microchip|chip)[\s:#]+([0-9A-Za-z-]+)`,
	)},
}

var ownerRules = []fieldRule{
	{field: "name", patterns: compileAll(
		`(?i)(?:propietario|owner|dueño|tutor)[\s:]+([A-Za-záéíóúñÁÉÍÓÚÑ\s]+?)(?:\n|,|;|\s{2,})`,
		`(?i)(?:cliente|client)[\s:]+([A-Za-záéíóúñÁÉÍÓÚÑ\s]+?)(?:\n|,|;)`,
	)},
	{field: "phone", patterns: compileAll(
		`(?i)(?:tel[eé]fono|phone|cel|m[oó]vil|mobile)[\s:]+([+\d\s()-]+)`,
	)},
	{field: "email", patterns: compileAll(
		`(?i)(?:email|correo|e-mail)[\s:]+([A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,})`,
		`(?i)\b([A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,})\b`,
	)},
	{field: "address", patterns: compileAll(
		`(?i)(?:direcci[oó]n|address|domicilio)[\s:]+([A-Za-z0-9áéíóúñÁÉÍÓÚÑ\s,#.-]+?)(?:\n|;)`,
	)},
}

var veterinarianRules = []fieldRule{
	{field: "name", patterns: compileAll(
		`(?i)(?:veterinario|veterinarian|m[eé]dico|doctor|dr\.?)[\s:]+([A-Za-záéíóúñÁÉÍÓÚÑ\s.]+?)(?:\n|,|;|\s{2,})`,
		`(?i)(?:atendido por|examined by|revisado por)[\s:]+([A-Za-záéíóúñÁÉÍÓÚÑ\s.]+?)(?:\n|,|;)`,
	)},
	{field: "license_number", patterns: compileAll(
		`(?i)(?:c[eé]dula|license|matr[ií]cula|registro)[\s:#]+([A-Z0-9-]+)`,
	)},
	{field: "clinic_name", patterns: compileAll(
		`(?i)(?:cl[ií]nica|clinic|hospital|centro)[\s:]+([A-Za-z0-9áéíóúñÁÉÍÓÚÑ\s.&]+?)(?:\n|,|;)`,
	)},
	{field: "specialization", patterns: compileAll(
		`(?i)(?:especialidad|especializaci[oó]n|specialization|specialty)[\s:]+([A-Za-záéíóúñÁÉÍÓÚÑ\s]+?)(?:\n|,|;)`,
	)},
}

// Section patterns. The capture runs up to the next recognized section header
// or the end of text ($ without (?m) anchors to end of input).
var (
	diagnosisSectionRe = regexp.MustCompile(
		`(?is)(?:diagn[oó]sticos?|diagnosis|hallazgos|findings|conclusi[oó]n(?:es)?|conclusions?)[\s:]+(.+?)(?:recomendaci|recommendation|tratamiento|treatment|medicaci|medication|$)`)
	recommendationSectionRe = regexp.MustCompile(
		`(?is)(?:recomendaci[oó]n(?:es)?|recommendations?|tratamientos?|indicaci[oó]n(?:es)?|plan)[\s:]+(.+?)(?:firma|signature|fecha|date|observaci|nota|$)`)

	bulletItemRe   = regexp.MustCompile(`[-•◦]\s*(.+)`)
	numberedItemRe = regexp.MustCompile(`\d+[.)-]\s*(.+)`)
)

// Keyword vocabularies for recommendation classification, tested in priority
// order: medication, then procedure, then followup.
var (
	medicationKeywords = []string{"medicamento", "medication", "mg", "ml", "tableta", "tablet", "dosis", "dose"}
	procedureKeywords  = []string{"cirug", "surgery", "operaci", "biopsia", "biopsy", "radiograf", "ecograf"}
	followupKeywords   = []string{"control", "seguimiento", "follow", "revisión", "cita", "appointment", "días", "semanas"}
)
