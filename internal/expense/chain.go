package expense

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"playground/internal/logger"
	"playground/pkg/models"
)

// MetadataSource is one way of reading receipt metadata from a document.
type MetadataSource interface {
	Extract(ctx context.Context, content []byte, mimeType string) (models.TransferMetadata, error)
}

// Chain asks each source in turn and keeps the first value found for every
// field. Later sources are only consulted while fields are still empty.
type Chain struct {
	sources []MetadataSource
	log     zerolog.Logger
}

// NewChain returns a Chain over sources, skipping nil entries.
func NewChain(sources ...MetadataSource) *Chain {
	c := &Chain{log: logger.WithComponent("expense-chain")}
	for _, s := range sources {
		if s != nil {
			c.sources = append(c.sources, s)
		}
	}
	return c
}

// Len returns the number of configured sources.
func (c *Chain) Len() int {
	return len(c.sources)
}

// Extract implements relay.MetadataExtractor. It fails only when no source
// produced any field, returning the joined source errors.
func (c *Chain) Extract(ctx context.Context, content []byte, mimeType string) (models.TransferMetadata, error) {
	const op = "Chain.Extract"

	var meta models.TransferMetadata
	var errs []error
	for i, source := range c.sources {
		if !meta.Missing() {
			break
		}
		found, err := source.Extract(ctx, content, mimeType)
		if err != nil {
			c.log.Warn().Err(err).Int("source", i).Msg("Metadata source failed")
			errs = append(errs, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if filled := meta.FillFrom(found); len(filled) > 0 {
			c.log.Debug().Int("source", i).Strs("fields", filled).Msg("Metadata source filled fields")
		}
	}

	if meta == (models.TransferMetadata{}) {
		if len(errs) == 0 {
			return meta, NewExtractionError(op, ErrNoEntities, "no metadata sources configured")
		}
		return meta, NewExtractionError(op, ErrNoEntities, errors.Join(errs...).Error())
	}
	return meta, nil
}
