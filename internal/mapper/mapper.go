package mapper

import "context"

// IMapper is implemented by every command of the tool.
type IMapper interface {
	RunMapper(ctx context.Context, opts *Options) error
}
