package core

import "context"

// Worker is a long-running background process, it returns when ctx is done or on a fatal error.
type Worker interface {
	Run(ctx context.Context) error
}
