package config

// Policy is the per-template behaviour derived purely from the template name
type Policy struct {
	Template        string
	Columns         int
	Grouping        bool
	Composite       bool
	FirstPageHeader bool
}

var (
	singleSubject = []string{"Prova Global", "Microteste", "Atividade"}
	composite     = []string{"Simulado Enem", "Simulado Tradicional", "Simuladinho"}
)

// SingleSubjectTemplates lists the single-subject template names in display order
func SingleSubjectTemplates() []string { return append([]string(nil), singleSubject...) }

// CompositeTemplates lists the multi-subject template names in display order
func CompositeTemplates() []string { return append([]string(nil), composite...) }

// IsComposite reports whether name is a multi-subject template
func IsComposite(name string) bool {
	for _, c := range composite {
		if c == name {
			return true
		}
	}
	return false
}

// PolicyFor returns the policy of template name. Unknown names behave as
// single-subject templates.
func PolicyFor(name string) Policy {
	if IsComposite(name) {
		return Policy{Template: name, Columns: 2, Grouping: true, Composite: true}
	}
	return Policy{Template: name, Columns: 1, FirstPageHeader: true}
}
