package matching

import (
	"strings"
	"testing"
	"time"

	"redeploy/models"

	"github.com/stretchr/testify/require"
)

func TestParseCandidates(t *testing.T) {
	text := `[
		{"agentId":"A-2","fullName":"Lucía Gómez","score":71.6,"reasoning":"Perfil similar"},
		{"agentId":"A-1","fullName":"Juan Pérez","score":92,"reasoning":"Experiencia en SAP"},
		{"agentId":"A-3","fullName":"Ana Ruiz","score":40,"reasoning":"Carga horaria menor"},
		{"agentId":"A-4","fullName":"Pablo Díaz","score":10,"reasoning":"Otro perfil"}
	]`
	got, err := ParseCandidates(text)
	require.NoError(t, err)
	require.Len(t, got, 4)
	require.Equal(t, "A-1", got[0].AgentID)
	require.Equal(t, 92, got[0].Score)
	require.Equal(t, "A-2", got[1].AgentID)
	require.Equal(t, 72, got[1].Score)
	require.Equal(t, "A-3", got[2].AgentID)
	require.Equal(t, "A-4", got[3].AgentID)
}

func TestParseCandidatesEmptyArray(t *testing.T) {
	got, err := ParseCandidates(" [] ")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestParseCandidatesRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"prose", "Here are the best candidates: Juan"},
		{"object instead of array", `{"agentId":"A-1","fullName":"x","score":1,"reasoning":"r"}`},
		{"truncated", `[{"agentId":"A-1","fullName":"x","score":1,`},
		{"missing field", `[{"agentId":"A-1","fullName":"x","score":1}]`},
		{"unknown field", `[{"agentId":"A-1","fullName":"x","score":1,"reasoning":"r","rank":1}]`},
		{"score as string", `[{"agentId":"A-1","fullName":"x","score":"90","reasoning":"r"}]`},
		{"score out of range", `[{"agentId":"A-1","fullName":"x","score":140,"reasoning":"r"}]`},
		{"negative score", `[{"agentId":"A-1","fullName":"x","score":-1,"reasoning":"r"}]`},
		{"null reasoning", `[{"agentId":"A-1","fullName":"x","score":50,"reasoning":null}]`},
		{"empty agent id", `[{"agentId":" ","fullName":"x","score":50,"reasoning":"r"}]`},
		{"element not object", `["A-1"]`},
		{"one bad element spoils all", `[{"agentId":"A-1","fullName":"x","score":50,"reasoning":"r"},{"agentId":2}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCandidates(tt.text)
			require.Error(t, err)
			require.Nil(t, got)
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	p := &models.PositionRequest{
		ID:                  "POS-2001",
		RequestingOrgName:   "Agencia de Recaudación",
		RequestingArea:      "Atención al Contribuyente",
		ProfileRequiredName: "Administrativo",
		MainFunctions:       "Recepción de trámites\ny carga en sistema",
		HoursRequired:       35,
		RequestDate:         models.NewDate(2024, time.June, 1),
	}
	agents := []models.Agent{
		{ID: "A-101", FullName: "Juan Pérez", ProfileName: "Administrativo", KeyCompetencies: "SAP", WorkingHours: 40, Status: models.AgentAvailable},
		{ID: "A-102", FullName: "Lucía Gómez", ProfileName: "Contable", KeyCompetencies: "Excel", WorkingHours: 30, Status: models.AgentAssigned},
	}

	prompt := BuildPrompt(p, agents)
	require.Contains(t, prompt, "Organismo: Agencia de Recaudación")
	require.Contains(t, prompt, "Área: Atención al Contribuyente")
	require.Contains(t, prompt, "Perfil: Administrativo")
	require.Contains(t, prompt, "Funciones: Recepción de trámites y carga en sistema")
	require.Contains(t, prompt, "Horas: 35")
	require.Contains(t, prompt, "ID: A-101, Nombre: Juan Pérez")
	// назначенные агенты тоже уходят оракулу
	require.Contains(t, prompt, "ID: A-102, Nombre: Lucía Gómez, Perfil: Contable, Competencias: Excel, Horas: 30, Estado: Assigned")
	require.Equal(t, 2, strings.Count(prompt, "- ID: "))
}
