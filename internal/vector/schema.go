package vector

import (
	"context"

	"github.com/weaviate/weaviate/entities/models"
)

// ClassName is the single Weaviate class holding one object per chunk.
const ClassName = "SermonChunk"

// SchemaClient defines the interface for Weaviate schema operations
type SchemaClient interface {
	ClassExists(ctx context.Context, className string) (bool, error)
	CreateClass(ctx context.Context, class *models.Class) error
	GetClass(ctx context.Context, className string) (*models.Class, error)
	AddProperty(ctx context.Context, className string, property *models.Property) error
}

// EnsureSchema checks if the required class exists and creates it if not.
// Vectors are supplied externally by the embed worker, so the class carries
// no vectorizer.
func EnsureSchema(ctx context.Context, client SchemaClient) error {
	exists, err := client.ClassExists(ctx, ClassName)
	if err != nil {
		return err
	}

	properties := []*models.Property{
		{
			Name:     "chunkId",
			DataType: []string{"string"}, // stable identity, exact match
		},
		{
			Name:     "documentId",
			DataType: []string{"string"}, // date code, exact match
		},
		{
			Name:     "paragraphNumber",
			DataType: []string{"int"},
		},
		{
			Name:     "startPage",
			DataType: []string{"int"},
		},
		{
			Name:     "endPage",
			DataType: []string{"int"},
		},
		{
			Name:     "content",
			DataType: []string{"text"},
		},
		{
			Name:     "seriesTags",
			DataType: []string{"string[]"},
		},
	}

	if !exists {
		class := &models.Class{
			Class:       ClassName,
			Description: "One paragraph of a sermon transcript",
			Vectorizer:  "none",
			Properties:  properties,
		}
		return client.CreateClass(ctx, class)
	}

	// Class exists, check for missing properties
	class, err := client.GetClass(ctx, ClassName)
	if err != nil {
		return err
	}

	existingProps := make(map[string]bool)
	for _, p := range class.Properties {
		existingProps[p.Name] = true
	}

	for _, p := range properties {
		if !existingProps[p.Name] {
			if err := client.AddProperty(ctx, ClassName, p); err != nil {
				return err
			}
		}
	}

	return nil
}
