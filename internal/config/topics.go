package config

const (
	// TopicChunkEmbed is the NSQ topic carrying chunk embedding tasks.
	// Ingestion publishes one message per new or refreshed chunk; the
	// embed worker consumes it and upserts the vector store.
	TopicChunkEmbed = "chunk.embed"
)
