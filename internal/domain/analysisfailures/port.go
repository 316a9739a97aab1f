package analysisfailures

import "context"

// Repository defines persistence for analysis failures
type Repository interface {
	Save(ctx context.Context, f *Failure) error
	Latest(ctx context.Context, limit int) ([]*Failure, error)
}
