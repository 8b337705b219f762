package output

import (
	"context"

	"github.com/crimson-sun/recap/internal/model"
)

// Output defines the interface for summary destinations.
type Output interface {
	Write(ctx context.Context, summary model.Summary) error
	Close() error
}
