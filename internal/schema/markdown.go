package schema

import (
	"strings"

	"github.com/queryloom/queryloom/internal/models"
)

// ToMarkdown renders resolved table schemas as the compact, LLM-oriented
// document embedded in generation prompts:
//
//	# Table: appointments
//	- appointment_id (INTEGER, PK): Unique identifier for the appointment
//	- patient_id (INTEGER, FK → patients(patient_id)): ID of the patient
//
// Output is deterministic for a given input: table order follows the input
// slice and column order follows each table's resolved order, so repeated
// renders of an unchanged schema are byte-identical.
func ToMarkdown(tables []models.TableSchema) string {
	var lines []string

	for _, table := range tables {
		lines = append(lines, "# Table: "+table.TableName)
		if table.Error != "" {
			lines = append(lines, "- error: "+table.Error)
			lines = append(lines, "")
			continue
		}

		for _, col := range table.Columns {
			desc := strings.TrimSuffix(strings.TrimSpace(col.Description), ".")

			flags := make([]string, 0, 2)
			if col.IsPrimaryKey {
				flags = append(flags, "PK")
			}
			if col.IsForeignKey {
				if col.References != nil {
					flags = append(flags, "FK → "+col.References.Table+"("+col.References.Column+")")
				} else {
					flags = append(flags, "FK")
				}
			}

			attr := "(" + col.Type
			if len(flags) > 0 {
				attr += ", " + strings.Join(flags, ", ")
			}
			attr += ")"

			lines = append(lines, "- "+col.Name+" "+attr+": "+desc)
		}
		lines = append(lines, "")
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}
