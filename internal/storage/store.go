package storage

import (
	"context"
	"errors"

	"genecards/internal/model"
)

var ErrNotInitialized = errors.New("store is not initialized")

// Store defines persistence operations for cards and their lineage.
type Store interface {
	Init(ctx context.Context) error
	SaveCard(ctx context.Context, card model.CardRecord) error
	GetCard(ctx context.Context, id string) (model.CardRecord, bool, error)
	ListCards(ctx context.Context) ([]model.CardRecord, error)
	DeleteCard(ctx context.Context, id string) error
	SaveLineage(ctx context.Context, record model.LineageRecord) error
	GetLineage(ctx context.Context, cardID string) (model.LineageRecord, bool, error)
}
