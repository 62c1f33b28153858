package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	fitcodec "github.com/lucasjlepore/fit-codec"
	"github.com/lucasjlepore/fit-codec/export"
	"github.com/lucasjlepore/fit-codec/internal/config"
	"github.com/lucasjlepore/fit-codec/internal/logger"
	"github.com/lucasjlepore/fit-codec/messages"
	"github.com/lucasjlepore/fit-codec/profile"
)

func main() {
	var (
		configPath = flag.String("config", "", "Config file (default: ./fitcodec.yaml if present)")
		outDir     = flag.String("out-dir", "", "Root directory for export bundles, one subdirectory per input")
		overwrite  = flag.Bool("overwrite", false, "Allow writing to non-empty output directories")
		copySource = flag.Bool("copy-source", false, "Copy each FIT file into its bundle as source.fit")
		zstdOut    = flag.Bool("zstd", false, "Write records.jsonl.zst instead of records.jsonl")
		msgpackOut = flag.Bool("msgpack", false, "Also write records.msgpack")
		parquetOut = flag.Bool("parquet", true, "Also write record_samples.parquet")
		strictCRC  = flag.Bool("strict-crc", false, "Fail files whose CRC does not match")
		workers    = flag.Int("workers", 0, "Files decoded in parallel")
		profileYML = flag.String("profile", "", "YAML profile overlay merged over the built-in profile")
		logLevel   = flag.String("log-level", "", "Log level: debug|info|warn|error")
		reencode   = flag.Bool("reencode", false, "Re-encode every decoded message and verify the result")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <file.fit> [more.fit ...]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	// Flags given on the command line win over config and environment.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "out-dir":
			cfg.Export.OutDir = *outDir
		case "overwrite":
			cfg.Export.Overwrite = *overwrite
		case "copy-source":
			cfg.Export.CopySource = *copySource
		case "zstd":
			cfg.Export.Zstd = *zstdOut
		case "msgpack":
			cfg.Export.Msgpack = *msgpackOut
		case "parquet":
			cfg.Export.Parquet = *parquetOut
		case "strict-crc":
			cfg.Decode.StrictCRC = *strictCRC
		case "workers":
			cfg.Decode.Workers = *workers
		case "profile":
			cfg.Decode.ProfilePath = *profileYML
		case "log-level":
			cfg.Log.Level = *logLevel
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	logger.Setup(cfg.Log.Level, cfg.Log.Format)
	log := logger.Get("fitdump")

	opts, err := decodeOptions(cfg)
	if err != nil {
		log.Error().Err(err).Msg("invalid decode options")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	paths := flag.Args()
	files, errs := fitcodec.DecodeFiles(ctx, paths, cfg.Decode.Workers, opts...)

	failed := false
	for i, path := range paths {
		if errs[i] != nil {
			log.Error().Err(errs[i]).Str("file", path).Msg("decode failed")
			failed = true
		}
		if files[i] == nil {
			continue
		}
		if err := exportOne(cfg, path, files[i], errs[i], *reencode, opts); err != nil {
			log.Error().Err(err).Str("file", path).Msg("export failed")
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func decodeOptions(cfg *config.Config) ([]fitcodec.Option, error) {
	opts := []fitcodec.Option{
		fitcodec.WithLogger(logger.Get("decoder")),
		fitcodec.WithRegistry(messages.Registry()),
	}
	if cfg.Decode.StrictCRC {
		opts = append(opts, fitcodec.WithStrictCRC())
	}
	if cfg.Decode.ProfilePath != "" {
		f, err := os.Open(cfg.Decode.ProfilePath)
		if err != nil {
			return nil, fmt.Errorf("open profile overlay: %w", err)
		}
		defer f.Close()
		overlay, err := profile.Load(f)
		if err != nil {
			return nil, fmt.Errorf("load profile overlay: %w", err)
		}
		opts = append(opts, fitcodec.WithProfile(profile.Default().Merge(overlay)))
	}
	return opts, nil
}

func exportOne(cfg *config.Config, path string, f *fitcodec.File, decodeErr error, reencode bool, opts []fitcodec.Option) error {
	log := logger.Get("fitdump").With().Str("file", path).Logger()

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	dir := filepath.Join(cfg.Export.OutDir, base+"_"+export.FormatVersion)
	result, err := export.Write(f, decodeErr, data, path, dir, export.Options{
		Overwrite:      cfg.Export.Overwrite,
		CopySourceFile: cfg.Export.CopySource,
		Zstd:           cfg.Export.Zstd,
		Msgpack:        cfg.Export.Msgpack,
		Parquet:        cfg.Export.Parquet,
	})
	if err != nil {
		return err
	}

	log.Info().
		Str("out_dir", result.OutputDir).
		Int("records", result.RecordCount).
		Int("definitions", result.DefinitionCount).
		Int("data_messages", result.DataMessageCount).
		Int("samples", result.SampleCount).
		Bool("header_crc_valid", result.HeaderCRCValid).
		Bool("file_crc_valid", result.FileCRCValid).
		Msg("export complete")

	if reencode {
		n, err := verifyReencode(f, opts)
		if err != nil {
			return fmt.Errorf("reencode: %w", err)
		}
		log.Info().Int("messages", n).Msg("reencode verified")
	}
	return nil
}
