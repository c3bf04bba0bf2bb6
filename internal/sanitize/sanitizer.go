package sanitize

import (
	"html"
	"strings"
)

// entities как у htmlspecialchars(ENT_QUOTES): &quot; и &#039;
var quoteEntities = strings.NewReplacer("&#34;", "&quot;", "&#39;", "&#039;")

// Sanitizer экранирует HTML в строковых значениях запроса.
type Sanitizer struct{}

func NewSanitizer() *Sanitizer {
	return &Sanitizer{}
}

// Sanitize возвращает копию fields, где каждая строка прошла через
// html.EscapeString (< > & ' "). Остальные значения не трогаем.
func (s *Sanitizer) Sanitize(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for key, value := range fields {
		if str, ok := value.(string); ok {
			out[key] = quoteEntities.Replace(html.EscapeString(str))
			continue
		}
		out[key] = value
	}
	return out
}
