package config

// TemplateStyle holds the CSS-like style overrides applied to a template's pages
type TemplateStyle struct {
	Padding    string `mapstructure:"padding" json:"padding" yaml:"padding"`
	FontSize   string `mapstructure:"font_size" json:"font_size" yaml:"font_size"`
	FontFamily string `mapstructure:"font_family" json:"font_family" yaml:"font_family"`
}

// Document is the configuration consumed, never mutated, by recomputation
type Document struct {
	Categories []string
	Grades     []string
	Classes    []string
	LogoURL    string
	Templates  map[string]TemplateStyle
}

// FallbackStyle applies to templates without a configured style.
var FallbackStyle = TemplateStyle{Padding: "0", FontSize: "16px", FontFamily: "Arial, sans-serif"}

// DefaultDocument returns the initial configuration of a fresh installation
func DefaultDocument() Document {
	return Document{
		Categories: []string{"Português", "Matemática", "Ciências", "História", "Geografia", "Inglês"},
		Grades:     []string{"6º Ano", "7º Ano", "8º Ano", "9º Ano", "1º Ano EM", "2º Ano EM", "3º Ano EM"},
		Classes:    []string{"A", "B", "C", "D", "E"},
		Templates: map[string]TemplateStyle{
			"Prova Global":         {Padding: "1.5cm", FontSize: "10pt", FontFamily: "Arial, sans-serif"},
			"Microteste":           {Padding: "1.2cm", FontSize: "11pt", FontFamily: "Arial, sans-serif"},
			"Simuladinho":          {Padding: "1cm", FontSize: "9pt", FontFamily: "Times New Roman, serif"},
			"Simulado Enem":        {Padding: "1cm", FontSize: "9pt", FontFamily: "Times New Roman, serif"},
			"Simulado Tradicional": {Padding: "1cm", FontSize: "9pt", FontFamily: "Times New Roman, serif"},
			"Atividade":            {Padding: "1.5cm", FontSize: "10pt", FontFamily: "Arial, sans-serif"},
		},
	}
}

// Style returns the style for template, or FallbackStyle.
func (d Document) Style(template string) TemplateStyle {
	if st, ok := d.Templates[template]; ok {
		return st
	}
	return FallbackStyle
}

// Clone returns a deep copy
func (d Document) Clone() Document {
	c := Document{
		Categories: append([]string(nil), d.Categories...),
		Grades:     append([]string(nil), d.Grades...),
		Classes:    append([]string(nil), d.Classes...),
		LogoURL:    d.LogoURL,
		Templates:  make(map[string]TemplateStyle, len(d.Templates)),
	}
	for k, v := range d.Templates {
		c.Templates[k] = v
	}
	return c
}
