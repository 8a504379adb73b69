package registry

import (
	"github.com/vireohq/flowd/pkg/handlers/conditional"
	"github.com/vireohq/flowd/pkg/handlers/delay"
	"github.com/vireohq/flowd/pkg/handlers/end"
	"github.com/vireohq/flowd/pkg/handlers/httprequest"
	loghandler "github.com/vireohq/flowd/pkg/handlers/log"
	"github.com/vireohq/flowd/pkg/handlers/loop"
	"github.com/vireohq/flowd/pkg/handlers/start"
	"github.com/vireohq/flowd/pkg/handlers/transform"
)

// RegisterDefaultHandlers registers all built-in handler factories.
func (r *Registry) RegisterDefaultHandlers() {
	r.Register(start.NewStartHandlerFactory())
	r.Register(end.NewEndHandlerFactory())

	r.Register(transform.NewTransformHandlerFactory())
	r.Register(conditional.NewConditionalHandlerFactory())
	r.Register(loop.NewLoopHandlerFactory())

	r.Register(httprequest.NewHTTPRequestHandlerFactory())
	r.Register(loghandler.NewLogHandlerFactory())
	r.Register(delay.NewDelayHandlerFactory())
}
