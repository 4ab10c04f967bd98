package operations

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/pdfdesk/pkg/pagination"
)

// System defines the operation history contract.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Operation], error)

	Find(ctx context.Context, id uuid.UUID) (*Operation, error)
	Record(ctx context.Context, cmd RecordCommand) (*Operation, error)
}
