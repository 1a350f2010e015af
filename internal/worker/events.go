package worker

// ChunkEmbedPayload is the chunk.embed message body. One message per new or
// refreshed chunk; redelivery is harmless because the vector upsert is keyed
// on the chunk ID.
type ChunkEmbedPayload struct {
	ChunkID         string   `json:"chunk_id"`
	DocumentID      string   `json:"document_id"`
	Title           string   `json:"title"`
	DateCode        string   `json:"date_code"`
	ParagraphNumber int      `json:"paragraph_number"`
	StartPage       int      `json:"start_page"`
	EndPage         int      `json:"end_page"`
	Content         string   `json:"content"`
	SeriesTags      []string `json:"series_tags,omitempty"`

	CorrelationID string `json:"correlation_id"`
}
