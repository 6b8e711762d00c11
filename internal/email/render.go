package email

import (
	"bytes"
	"errors"
	"fmt"
	htemplate "html/template"
	"sort"
	"strconv"
	"strings"
	ttemplate "text/template"
	"time"
)

// ─── Errors ───

var (
	// ErrUnknownScenario indica un escenario no registrado.
	ErrUnknownScenario = errors.New("email: unknown scenario")

	// ErrTemplateDefect indica un set de templates incompleto para un
	// escenario/idioma: defecto de configuración, no un parcial válido.
	ErrTemplateDefect = errors.New("email: incomplete template set")
)

// MissingVarsError reporta todas las variables faltantes o con tipo
// incorrecto de una sola vez, antes de cualquier I/O.
type MissingVarsError struct {
	Scenario string
	Missing  []string
	Mistyped []string
}

func (e *MissingVarsError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "email: scenario %q:", e.Scenario)
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, " missing variables: %s", strings.Join(e.Missing, ", "))
	}
	if len(e.Mistyped) > 0 {
		if len(e.Missing) > 0 {
			b.WriteString(";")
		}
		fmt.Fprintf(&b, " mistyped variables: %s", strings.Join(e.Mistyped, ", "))
	}
	return b.String()
}

// ─── RenderedMessage ───

// RenderedMessage es el resultado efímero de un render: no se persiste.
type RenderedMessage struct {
	Subject string
	HTML    string
	Text    string
}

// ─── Renderer ───

type compiledSet struct {
	subject *ttemplate.Template
	html    *htemplate.Template
	text    *ttemplate.Template
}

// Renderer compila los templates embebidos una sola vez y renderiza
// mensajes por escenario e idioma. Es tenant-agnóstico y seguro para
// uso concurrente.
type Renderer struct {
	sets map[string]map[string]compiledSet
}

// NewRenderer compila todos los sets. Un escenario sin subject, HTML o
// texto en algún idioma es un defecto de configuración y falla acá.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{sets: make(map[string]map[string]compiledSet)}

	for lang, byScenario := range templateSets {
		r.sets[lang] = make(map[string]compiledSet, len(byScenario))
		for name, set := range byScenario {
			if set.Subject == "" || set.HTML == "" || set.Text == "" {
				return nil, fmt.Errorf("%w: scenario %q lang %q", ErrTemplateDefect, name, lang)
			}
			subj, err := ttemplate.New(name + "_subject").Parse(set.Subject)
			if err != nil {
				return nil, fmt.Errorf("email: parse subject %s/%s: %w", lang, name, err)
			}
			html, err := htemplate.New(name + "_html").Parse(set.HTML)
			if err != nil {
				return nil, fmt.Errorf("email: parse html %s/%s: %w", lang, name, err)
			}
			text, err := ttemplate.New(name + "_text").Parse(set.Text)
			if err != nil {
				return nil, fmt.Errorf("email: parse text %s/%s: %w", lang, name, err)
			}
			r.sets[lang][name] = compiledSet{subject: subj, html: html, text: text}
		}
	}

	// Todo escenario registrado tiene que existir en el idioma fallback.
	fb, ok := r.sets[FallbackLanguage]
	if !ok {
		return nil, fmt.Errorf("%w: no template set for fallback language %q", ErrTemplateDefect, FallbackLanguage)
	}
	for name := range scenarios {
		if _, ok := fb[name]; !ok {
			return nil, fmt.Errorf("%w: scenario %q absent from fallback language", ErrTemplateDefect, name)
		}
	}

	return r, nil
}

// Render valida el bag de variables contra el contrato del escenario y
// produce subject + cuerpo HTML + cuerpo texto. La resolución de idioma
// es: solicitado → fallback fijo, sin error. Los valores de variables
// se interpolan como datos: nunca se re-interpretan como template ni
// como markup (html/template escapa sin opt-out).
func (r *Renderer) Render(scenario, language string, vars map[string]any) (*RenderedMessage, error) {
	spec, ok := LookupScenario(scenario)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScenario, scenario)
	}

	data, err := validateVars(spec, vars)
	if err != nil {
		return nil, err
	}

	byScenario, ok := r.sets[language]
	if !ok {
		byScenario = r.sets[FallbackLanguage]
	}
	set, ok := byScenario[scenario]
	if !ok {
		// Idioma presente pero sin este escenario: mismo fallback silencioso.
		set, ok = r.sets[FallbackLanguage][scenario]
		if !ok {
			return nil, fmt.Errorf("%w: scenario %q", ErrTemplateDefect, scenario)
		}
	}

	var subjBuf, htmlBuf, textBuf bytes.Buffer
	if err := set.subject.Execute(&subjBuf, data); err != nil {
		return nil, fmt.Errorf("email: render subject: %w", err)
	}
	if err := set.html.Execute(&htmlBuf, data); err != nil {
		return nil, fmt.Errorf("email: render html: %w", err)
	}
	if err := set.text.Execute(&textBuf, data); err != nil {
		return nil, fmt.Errorf("email: render text: %w", err)
	}

	subject := strings.TrimSpace(subjBuf.String())
	html := htmlBuf.String()
	text := textBuf.String()
	if subject == "" || strings.TrimSpace(html) == "" || strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: scenario %q produced empty output", ErrTemplateDefect, scenario)
	}

	return &RenderedMessage{
		Subject: subject,
		HTML:    htmlHeader + html + htmlFooter,
		Text:    text,
	}, nil
}

// validateVars chequea requeridas y tipos, aplica defaults de opcionales
// y normaliza valores (fechas a string legible). Función pura.
func validateVars(spec Scenario, vars map[string]any) (map[string]any, error) {
	data := make(map[string]any, len(spec.Required)+len(spec.Optional))

	var missing, mistyped []string

	for _, v := range spec.Required {
		raw, ok := vars[v.Name]
		if !ok || raw == nil {
			missing = append(missing, v.Name)
			continue
		}
		norm, ok := normalize(raw, v.Type)
		if !ok {
			mistyped = append(mistyped, v.Name)
			continue
		}
		data[v.Name] = norm
	}

	for _, v := range spec.Optional {
		raw, ok := vars[v.Name]
		if !ok || raw == nil {
			data[v.Name] = v.Default
			continue
		}
		norm, ok := normalize(raw, v.Type)
		if !ok {
			mistyped = append(mistyped, v.Name)
			continue
		}
		data[v.Name] = norm
	}

	if len(missing) > 0 || len(mistyped) > 0 {
		sort.Strings(missing)
		sort.Strings(mistyped)
		return nil, &MissingVarsError{Scenario: spec.Name, Missing: missing, Mistyped: mistyped}
	}
	return data, nil
}

// normalize valida el tipo declarado y retorna el valor listo para
// interpolar. Las fechas aceptan time.Time o string RFC3339/YYYY-MM-DD.
func normalize(v any, typ string) (any, bool) {
	switch typ {
	case VarString:
		s, ok := v.(string)
		return s, ok

	case VarNumber:
		switch n := v.(type) {
		case int, int32, int64, float32, float64:
			return n, true
		case string:
			if _, err := strconv.ParseFloat(n, 64); err == nil {
				return n, true
			}
			return nil, false
		default:
			return nil, false
		}

	case VarDate:
		switch d := v.(type) {
		case time.Time:
			return d.Format("02 Jan 2006 15:04"), true
		case *time.Time:
			if d == nil {
				return nil, false
			}
			return d.Format("02 Jan 2006 15:04"), true
		case string:
			for _, layout := range []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02"} {
				if t, err := time.Parse(layout, d); err == nil {
					if layout == "2006-01-02" {
						return t.Format("02 Jan 2006"), true
					}
					return t.Format("02 Jan 2006 15:04"), true
				}
			}
			return nil, false
		default:
			return nil, false
		}

	default:
		return v, true
	}
}
