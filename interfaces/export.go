package interfaces

import (
	"encoding/csv"
	"io"
	"time"

	"evidence-hub/domain"
)

var exportHeader = []string{
	"Title", "Company", "Customer Name", "Email", "Job Title", "Type", "Product",
	"Status", "Content", "Results", "Use Cases", "Created At", "Updated At", "File URL",
}

// WriteEvidenceCSV writes one row per record under a fixed header.
func WriteEvidenceCSV(w io.Writer, items []domain.Evidence) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, e := range items {
		row := []string{
			e.Title,
			e.Company,
			e.CustomerName,
			e.Email,
			domain.StringValue(e.JobTitle),
			string(e.EvidenceType),
			string(e.Product),
			string(e.Status),
			e.Content,
			domain.StringValue(e.Results),
			domain.StringValue(e.UseCases),
			e.CreatedAt.UTC().Format(time.RFC3339),
			e.UpdatedAt.UTC().Format(time.RFC3339),
			domain.StringValue(e.FileURL),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
