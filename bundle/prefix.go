package bundle

import (
	"context"

	"github.com/evanw/esbuild/pkg/api"
)

// DefaultEngines are the oldest browsers stylesheets are prefixed for.
var DefaultEngines = []api.Engine{
	{Name: api.EngineChrome, Version: "58"},
	{Name: api.EngineEdge, Version: "16"},
	{Name: api.EngineFirefox, Version: "57"},
	{Name: api.EngineSafari, Version: "11"},
	{Name: api.EngineIOS, Version: "11"},
}

// Prefixer adds vendor prefixes by lowering css for older engines.
type Prefixer struct {
	engines []api.Engine
}

func NewPrefixer(engines ...api.Engine) *Prefixer {
	if len(engines) == 0 {
		engines = DefaultEngines
	}

	return &Prefixer{engines: engines}
}

func (p *Prefixer) Prefix(ctx context.Context, css []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := api.Transform(string(css), api.TransformOptions{
		Loader:           api.LoaderCSS,
		Engines:          p.engines,
		MinifyWhitespace: true,
		LogLevel:         api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		return nil, buildError(result.Errors)
	}

	return result.Code, nil
}
