package catalog

import (
	"context"
	"fmt"

	"github.com/levenlabs/go-lflag"
)

// Source loads a Catalog. Catalogs are loaded once at startup.
type Source interface {
	Load(ctx context.Context) (*Catalog, error)
	Close() error
}

// Configured sets up the catalog Source based on flags.
func Configured() Source {
	provider := lflag.String("catalog-provider", "builtin", "Price plan catalog source (available: builtin, yaml, firestore)")
	file := lflag.String("catalog-file", "", "Path to the YAML catalog used by --catalog-provider=yaml")

	var p struct{ Source }

	fs := ConfiguredFirestore()

	lflag.Do(func() {
		switch *provider {
		case "builtin":
			p.Source = BuiltinSource{}
		case "yaml":
			if *file == "" {
				panic("--catalog-file is required with --catalog-provider=yaml")
			}
			p.Source = YAMLSource{Path: *file}
		case "firestore":
			if err := fs.Init(context.Background()); err != nil {
				panic(fmt.Sprintf("firestore init failed: %v", err))
			}
			p.Source = fs
		default:
			panic(fmt.Sprintf("unknown catalog provider: %s", *provider))
		}
	})

	return &p
}

// Close implements Source.
func (BuiltinSource) Close() error { return nil }

// Close implements Source.
func (YAMLSource) Close() error { return nil }
