package notifyselectionresults

import (
	"fmt"
	"strings"

	"coach-selection-workers/internal/models"
)

type template struct {
	subject string
	body    string
	sms     string
}

var templates = map[string]template{
	models.SelectionSelected: {
		subject: "You have been selected for {{projectTitle}}",
		body: "Dear {{name}},\n\n" +
			"Congratulations! You have been selected to coach on {{projectTitle}}. " +
			"The project team will contact you shortly with next steps.\n",
		sms: "Congratulations {{name}}, you have been selected for {{projectTitle}}.",
	},
	models.SelectionRejected: {
		subject: "Your application for {{projectTitle}}",
		body: "Dear {{name}},\n\n" +
			"Thank you for applying to {{projectTitle}}. " +
			"After careful review we are unable to offer you a place on this project.\n",
	},
}

// renderTemplate substitutes {{key}} placeholders and drops unknown ones.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	result := tmpl
	for k, v := range data {
		value := ""
		if v != nil {
			value = fmt.Sprintf("%v", v)
		}
		result = strings.ReplaceAll(result, "{{"+k+"}}", value)
	}

	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		result = result[:start] + result[start+end+2:]
	}
	return result
}
