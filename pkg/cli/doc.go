// Package cli implements the millwork command-line interface.
//
// # Commands
//
//	millwork recipes  --catalog FILE [--satisfiable] [--group G]
//	millwork resolve  --catalog FILE --item ns:path[*count]
//	millwork simulate --catalog FILE --input ns:path*count [--ticks N] [--supply C]
//	millwork export   --catalog FILE [--to FILE|cm://ns/name|oci://registry/repo:tag]
//
// Catalogs are YAML RecipeCatalog documents read from a file or HTTP(S) URL.
// Results are written with pkg/serializer in yaml (default), json or table
// format to stdout, a file or a ConfigMap.
//
// # Global Flags
//
//	--log-level   debug, info, warn, error (env LOG_LEVEL)
//	--debug       shorthand for --log-level=debug
//
// Version information is embedded at build time using ldflags:
//
//	go build -ldflags="-X 'github.com/millwork-dev/millwork/pkg/cli.version=1.0.0'"
package cli
