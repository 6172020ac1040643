package taxonomy

import "github.com/crimson-sun/cronica/internal/model"

// Fallbacks for event types outside the tree.
const (
	OtherCategory = "other"
	OtherIcon     = "circle"
)

// DefaultRoots returns the built-in category tree.
func DefaultRoots() []*model.TaxonomyNode {
	return []*model.TaxonomyNode{
		{
			Name: "clinical_findings",
			Desc: "Hallazgos clínicos",
			Children: []*model.TaxonomyNode{
				{Name: model.TypeSymptom, Desc: "Síntoma detectado", Icon: "thermometer", Markers: []string{"síntoma"}},
				{Name: model.TypeVitalSign, Desc: "Signo vital registrado", Icon: "heart-pulse", Markers: []string{"signo vital", "signos vitales"}},
				{Name: model.TypeLabResult, Desc: "Resultado de laboratorio", Icon: "flask", Markers: []string{"laboratorio"}},
			},
		},
		{
			Name: "diagnoses",
			Desc: "Diagnósticos",
			Children: []*model.TaxonomyNode{
				{Name: model.TypeDiagnosis, Desc: "Diagnóstico identificado", Icon: "stethoscope", Markers: []string{"diagnóstico"}},
			},
		},
		{
			Name: "recordings",
			Desc: "Grabaciones",
			Children: []*model.TaxonomyNode{
				{Name: model.TypeRecording, Desc: "Grabación de la consulta", Icon: "microphone", Markers: []string{"grabación"}},
			},
		},
		{
			Name: "procedures",
			Desc: "Procedimientos",
			Children: []*model.TaxonomyNode{
				{Name: model.TypeProcedure, Desc: "Procedimiento realizado", Icon: "scalpel", Markers: []string{"procedimiento"}},
			},
		},
		{
			Name: "treatments",
			Desc: "Tratamientos",
			Children: []*model.TaxonomyNode{
				{Name: model.TypeMedication, Desc: "Medicamento indicado", Icon: "pill", Markers: []string{"medicamento", "medicación"}},
			},
		},
	}
}
