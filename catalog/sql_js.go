//go:build js

package catalog

import (
	"context"
	"fmt"

	"duel-lite/battle"
)

func openSQL(_ context.Context, mode string, _ Options) (battle.Source, func() error, error) {
	return nil, nil, fmt.Errorf("%s catalog is not available on js", mode)
}
