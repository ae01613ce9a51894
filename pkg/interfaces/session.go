package interfaces

import (
	"context"

	"hybridmcp/internal/model"
)

// SessionStore stores plugin sessions with expiry
type SessionStore interface {
	Save(ctx context.Context, session *model.Session) error
	Get(ctx context.Context, kind model.SessionKind, id string) (*model.Session, error)
	List(ctx context.Context, kind model.SessionKind) ([]*model.Session, error)
	Delete(ctx context.Context, kind model.SessionKind, id string) error
}
