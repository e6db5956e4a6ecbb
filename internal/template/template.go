// Package template holds the rewriting styles sent as system prompts.
package template

import (
	"fmt"

	"github.com/alnah/go-cleanscript/internal/lang"
)

// Style name constants.
// Use these instead of string literals for compile-time safety.
const (
	Narrator   = "narrator"
	Clean      = "clean"
	Paraphrase = "paraphrase"
)

// ---------------------------------------------------------------------------
// Name type - represents a validated style name
// ---------------------------------------------------------------------------

// Name represents a validated style name.
// Zero value is invalid and must not be used with Prompt().
// Use ParseName to create from user input, or the pre-parsed constants.
type Name struct {
	name string
}

// Pre-parsed style names for use in code.
var (
	NarratorName   = Name{name: Narrator}
	CleanName      = Name{name: Clean}
	ParaphraseName = Name{name: Paraphrase}
)

// Default is the style used when none is configured.
var Default = NarratorName

// ParseName validates and parses a style name string.
// Returns ErrUnknown if the name is not recognized.
func ParseName(s string) (Name, error) {
	if s == "" {
		return Name{}, fmt.Errorf("style name cannot be empty: %w", ErrUnknown)
	}
	if _, ok := styles[s]; !ok {
		return Name{}, fmt.Errorf("unknown style %q (available: %v): %w", s, Names(), ErrUnknown)
	}
	return Name{name: s}, nil
}

// MustParseName parses a style name, panicking if invalid.
// Use only for compile-time constants and tests.
func MustParseName(s string) Name {
	n, err := ParseName(s)
	if err != nil {
		panic(err)
	}
	return n
}

// String returns the style name string.
// Returns empty string for zero value.
func (n Name) String() string {
	return n.name
}

// IsZero returns true if this is the zero value (no style set).
func (n Name) IsZero() bool {
	return n.name == ""
}

// Prompt returns the raw prompt for this style.
// Panics if called on zero value.
func (n Name) Prompt() string {
	return n.style().prompt
}

// Native returns the language the prompt itself is written in.
func (n Name) Native() lang.Language {
	return lang.MustParse(n.style().native)
}

// System returns the system prompt for this style. When outputLang is set and
// differs from the prompt's own language, a "Respond in X." line is prepended.
func (n Name) System(outputLang lang.Language) string {
	prompt := n.Prompt()
	if outputLang.IsZero() || outputLang.Is(n.Native()) {
		return prompt
	}
	return outputLang.Instruction() + "\n\n" + prompt
}

// GenerateSystem returns the system prompt for the second step of a
// plan-then-generate rewrite: the style prompt followed by plan instructions.
func (n Name) GenerateSystem(outputLang lang.Language) string {
	return n.System(outputLang) + "\n\n" + generateFromPlanSuffix
}

func (n Name) style() style {
	if n.name == "" {
		panic("template.Name used as zero value")
	}
	return styles[n.name]
}

// Names returns the available style names in canonical order.
func Names() []string {
	result := make([]string, len(styleOrder))
	copy(result, styleOrder)
	return result
}

// PlanSystem is the system prompt for the first step of a plan-then-generate
// rewrite. It asks for a short outline only.
const PlanSystem = `You read a fragment of a spoken transcript and write a short plan for rewriting it.

Rules:
- 3 to 8 bullet points, one per main idea, in the order they appear
- Note the tone and any emotion worth preserving
- Do not rewrite the text itself
- Plain text only, no headings`

// PlanUserMessage formats the user message of the generate step.
func PlanUserMessage(plan, text string) string {
	return fmt.Sprintf("Plan:\n%s\n\nText:\n%s", plan, text)
}

const generateFromPlanSuffix = `The message contains a plan followed by the original text.
Follow the plan's order of ideas while applying every rule above to the original text.
Return only the rewritten text.`

type style struct {
	prompt string
	native string
}

var styleOrder = []string{
	Narrator,
	Clean,
	Paraphrase,
}

// styles maps style names to their prompts.
// Prompts are versioned with the binary; update requires rebuild.
var styles = map[string]style{
	Narrator:   {prompt: narratorPrompt, native: "es"},
	Clean:      {prompt: cleanPrompt, native: "en"},
	Paraphrase: {prompt: paraphrasePrompt, native: "en"},
}

const narratorPrompt = `Actúa como un narrador personal y reflexivo, compartiendo tus pensamientos sobre el texto que te voy a dar. Escribe como si fueras el autor del texto, pero con tus propias palabras.

Sigue estas pautas:
- Reescribe el texto con tus propias palabras, expandiendo cada idea si es necesario, y asegurándote de que la longitud del texto resultante sea al menos igual a la del texto original.
- Proporciona un título atractivo que capture la esencia del texto.
- Evita menciones directas de personajes o del autor.
- Concéntrate en transmitir la experiencia general, las ideas principales, los temas y las emociones.
- Usa un lenguaje personal y evocador, como si estuvieras compartiendo tus propias conclusiones después de una reflexión profunda.
- Evita nombres propios o lugares específicos.
- Narra los hechos como si fueran una historia.
- Elimina cualquier asterisco o formato adicional, incluyendo negritas o encabezados.
- Asegúrate de que el texto sea apto para la lectura con voz sintetizada.
- Importante: no reduzcas la cantidad de información ni la longitud del texto. El texto generado debe ser de longitud similar o superior al texto de entrada.

Devuelve solo el texto corregido.`

const cleanPrompt = `You clean up a fragment of a raw spoken transcript.

Rules:
- Fix punctuation, capitalization and obvious transcription errors
- Remove filler words (um, uh, like, you know) and false starts
- Keep the speaker's wording, order and meaning
- Do not summarize, do not add content
- Plain text only: no markdown, no asterisks, no headings
- Return only the cleaned text`

const paraphrasePrompt = `You rewrite a fragment of a spoken transcript in your own words.

Rules:
- Keep every idea, example and nuance; the result must be at least as long as the input
- Use fluent, natural sentences suitable for text-to-speech
- Avoid proper names of people and places
- Plain text only: no markdown, no asterisks, no headings
- Return only the rewritten text`
