package transfer

// AirtableRecord is one record as returned by the Airtable list endpoint.
type AirtableRecord struct {
	ID     string                 `json:"id"`
	Fields map[string]interface{} `json:"fields"`
}

type AirtableListResponse struct {
	Records []AirtableRecord `json:"records"`
	Offset  string           `json:"offset,omitempty"`
}

// RecordUpdate is one entry of a PATCH batch.
type RecordUpdate struct {
	ID     string                 `json:"id"`
	Fields map[string]interface{} `json:"fields"`
}

type BatchUpdateRequest struct {
	Records []RecordUpdate `json:"records"`
}

type AirtableErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
