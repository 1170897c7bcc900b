// Package classifier implements a keyword-weighted intent classifier over
// a closed set of legal areas, each with a curated Spanish keyword list,
// scored by prefix/substring match and argmax'd (or "none").
package classifier

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Area is one of the closed legal areas the classifier can produce.
type Area string

const (
	AreaFiscal                Area = "Fiscal"
	AreaLaboral               Area = "Laboral"
	AreaPropiedadIntelectual  Area = "Propiedad Intelectual"
	AreaContabilidad          Area = "Contabilidad"
	AreaSubvenciones          Area = "Subvenciones"
	AreaSocietario            Area = "Societario"
	AreaAdministrativo        Area = "Administrativo"
	AreaNone                  Area = ""
)

var keywordsByArea = map[Area][]string{
	AreaFiscal: {
		"irpf", "iva", "impuesto", "deduccion", "deducible", "gastos deducibles",
		"retencion", "tributacion", "tributario", "hacienda", "declaracion renta",
		"autonomo", "epigrafe", "modelo 130", "modelo 303", "pago fraccionado",
		"base imponible", "cuota", "recargo", "sancion tributaria", "aeat",
	},
	AreaLaboral: {
		"contrato trabajo", "seguridad social", "cotizacion", "nomina", "despido",
		"jornada laboral", "convenio colectivo", "autonomo societario", "regimen general",
		"alta autonomo", "baja autonomo", "prestacion desempleo", "tarifa plana",
		"incapacidad temporal", "mutua", "inspeccion trabajo", "finiquito",
	},
	AreaPropiedadIntelectual: {
		"propiedad intelectual", "derechos de autor", "copyright", "licencia",
		"obra derivada", "dominio publico", "sgae", "cedro", "entidad gestion",
		"plagio", "registro propiedad intelectual", "derechos morales",
		"derechos de explotacion", "comunicacion publica", "reproduccion obra",
	},
	AreaContabilidad: {
		"contabilidad", "libro registro", "factura", "facturacion", "plan general contable",
		"balance", "cuenta de perdidas", "amortizacion", "asiento contable",
		"libro de ingresos", "libro de gastos", "estimacion directa", "estimacion objetiva",
	},
	AreaSubvenciones: {
		"subvencion", "ayuda publica", "convocatoria", "beca", "financiacion publica",
		"bases reguladoras", "justificacion subvencion", "subvenciones culturales",
		"ayudas cultura", "fondo next generation", "mecenazgo", "ministerio cultura",
	},
	AreaSocietario: {
		"sociedad limitada", "sociedad cooperativa", "estatutos sociales",
		"junta general", "administrador", "capital social", "registro mercantil",
		"socio", "disolucion sociedad", "asociacion cultural", "fundacion",
	},
	AreaAdministrativo: {
		"licencia municipal", "procedimiento administrativo", "recurso alzada",
		"silencio administrativo", "administracion publica", "boe", "reglamento",
		"ordenanza municipal", "autorizacion administrativa", "expediente administrativo",
	},
}

var stopWords = map[string]bool{
	"de": true, "la": true, "el": true, "los": true, "las": true, "un": true,
	"una": true, "y": true, "o": true, "en": true, "por": true, "para": true,
	"con": true, "del": true, "que": true, "es": true, "se": true, "al": true,
	"como": true, "mi": true, "su": true, "sus": true, "lo": true,
}

// fold lowercases and strips accents, so classification is accent-insensitive.
// golang.org/x/text gives the Unicode-correct normalisation path.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

// orderedAreas fixes the argmax scan order in Classify so that score ties
// between areas resolve deterministically instead of depending on map
// iteration order.
var orderedAreas = []Area{
	AreaFiscal, AreaLaboral, AreaPropiedadIntelectual, AreaContabilidad,
	AreaSubvenciones, AreaSocietario, AreaAdministrativo,
}

// Classify scores each area by keyword hit count and returns the argmax, or
// AreaNone if every area scores zero. Ties keep the first-scoring area in
// orderedAreas.
func Classify(query string) Area {
	folded := fold(query)

	best := AreaNone
	bestScore := 0
	for _, area := range orderedAreas {
		score := 0
		for _, kw := range keywordsByArea[area] {
			if strings.Contains(folded, fold(kw)) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = area
		}
	}
	return best
}

// ExtractKeywords tokenises on whitespace, lowercases, strips stopwords, and
// filters tokens shorter than 4 characters. Debugging aid only — the
// RAG pipeline consumes Classify, not this function.
func ExtractKeywords(query string) []string {
	folded := fold(query)
	fields := strings.Fields(folded)

	var out []string
	for _, f := range fields {
		f = strings.Trim(f, ".,;:!?¿¡()\"'")
		if len([]rune(f)) < 4 {
			continue
		}
		if stopWords[f] {
			continue
		}
		out = append(out, f)
	}
	return out
}
