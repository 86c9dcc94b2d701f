// cargohold-chaindump resolves a certificate chain from a local certificate
// store and writes the serialized chain to a file.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"

	"cargohold.io/cargohold/cert"
	"cargohold.io/cargohold/cidutil"
	"cargohold.io/cargohold/storage"
	"cargohold.io/cargohold/storage/badgerstore"
	"cargohold.io/cargohold/storage/fsstore"
)

type config struct {
	Store storeConfig `toml:"store"`
	Log   logConfig   `toml:"log"`
}

type storeConfig struct {
	// Backend selects the store driver: "fs" (default) or "badger".
	Backend string `toml:"backend"`

	// Path is the store container location (directory or database path).
	Path string `toml:"path"`

	// BasePath overrides the in-store certificate directory.
	BasePath string `toml:"base_path"`
}

type logConfig struct {
	Level string `toml:"level"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out, errOut io.Writer) int {
	flags := flag.NewFlagSet("cargohold-chaindump", flag.ContinueOnError)
	flags.SetOutput(errOut)
	cfgPath := flags.String("config", "chaindump.toml", "TOML configuration file")
	issuer := flags.String("issuer", "", "signature issuer to resolve (e.g. Root-CA00000003-XS00000020)")
	outPath := flags.String("out", "", "output file for the raw chain (default <issuer>.cert)")
	if err := flags.Parse(args); err != nil {
		return 2
	}
	if *issuer == "" {
		fmt.Fprintln(errOut, "missing required flag: -issuer")
		flags.Usage()
		return 2
	}

	var cfg config
	if _, err := toml.DecodeFile(*cfgPath, &cfg); err != nil {
		fmt.Fprintf(errOut, "loading config %s: %v\n", *cfgPath, err)
		return 1
	}

	logger, err := newLogger(errOut, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(errOut, "configuring logger: %v\n", err)
		return 1
	}

	opener, err := newOpener(cfg.Store)
	if err != nil {
		logger.Error().Err(err).Msg("configuring store backend")
		return 1
	}

	opts := []cert.Option{cert.WithLogger(logger)}
	if cfg.Store.BasePath != "" {
		opts = append(opts, cert.WithStorageBasePath(cfg.Store.BasePath))
	}
	sess := cert.NewSession(opener, cfg.Store.Path, opts...)

	raw, err := sess.GenerateRawChain(*issuer)
	if err != nil {
		logger.Error().Str("issuer", *issuer).Err(err).Msg("chain resolution failed")
		return 1
	}

	dest := *outPath
	if dest == "" {
		dest = *issuer + ".cert"
	}
	if err := os.WriteFile(dest, raw, 0o644); err != nil {
		logger.Error().Str("path", dest).Err(err).Msg("writing raw chain")
		return 1
	}

	logger.Info().Str("issuer", *issuer).Str("path", dest).
		Int("size", len(raw)).Str("fingerprint", cidutil.RawSHA256String(raw)).
		Msg("raw certificate chain written")
	fmt.Fprintln(out, dest)
	return 0
}

func newLogger(w io.Writer, level string) (zerolog.Logger, error) {
	lvl := zerolog.InfoLevel
	if level != "" {
		parsed, err := zerolog.ParseLevel(level)
		if err != nil {
			return zerolog.Nop(), err
		}
		lvl = parsed
	}
	output := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	return zerolog.New(output).Level(lvl).With().Timestamp().
		Str("app", "cargohold-chaindump").Logger(), nil
}

func newOpener(cfg storeConfig) (storage.Opener, error) {
	switch cfg.Backend {
	case "", "fs":
		return fsstore.Opener{}, nil
	case "badger":
		return badgerstore.Opener{}, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
