package matching

import (
	"fmt"
	"strings"

	"redeploy/models"
)

const MaxSuggestions = 3

// BuildPrompt описывает заявку и весь список агентов на естественном языке.
// В список попадают и уже назначенные агенты, их статус указывается явно.
func BuildPrompt(p *models.PositionRequest, agents []models.Agent) string {
	var b strings.Builder

	b.WriteString("Actúa como un experto en Recursos Humanos. Analiza el siguiente pedido de puesto y la lista de agentes para reubicación.\n")
	b.WriteString("Evalúa la compatibilidad basándote en el perfil funcional, competencias y carga horaria.\n")
	fmt.Fprintf(&b, "Genera una lista de los %d mejores candidatos indicando un puntaje de compatibilidad (0-100) y una breve justificación.\n\n", MaxSuggestions)

	b.WriteString("PUESTO SOLICITADO:\n")
	fmt.Fprintf(&b, "- Organismo: %s\n", p.RequestingOrgName)
	fmt.Fprintf(&b, "- Área: %s\n", p.RequestingArea)
	fmt.Fprintf(&b, "- Perfil: %s\n", p.ProfileRequiredName)
	fmt.Fprintf(&b, "- Funciones: %s\n", oneLine(p.MainFunctions))
	fmt.Fprintf(&b, "- Horas: %d\n\n", p.HoursRequired)

	b.WriteString("AGENTES:\n")
	for _, a := range agents {
		fmt.Fprintf(&b, "- ID: %s, Nombre: %s, Perfil: %s, Competencias: %s, Horas: %d, Estado: %s\n",
			a.ID, a.FullName, a.ProfileName, oneLine(a.KeyCompetencies), a.WorkingHours, a.Status)
	}
	return b.String()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
