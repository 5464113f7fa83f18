package cli

import (
	"github.com/spf13/cobra"

	"github.com/arthur-debert/envelope/pkg/config"
	"github.com/arthur-debert/envelope/pkg/engine"
	"github.com/arthur-debert/envelope/pkg/errors"
	"github.com/arthur-debert/envelope/pkg/filesystem"
	"github.com/arthur-debert/envelope/pkg/logging"
	"github.com/arthur-debert/envelope/pkg/materials"
	"github.com/arthur-debert/envelope/pkg/metadata"
	"github.com/arthur-debert/envelope/pkg/process"
	"github.com/arthur-debert/envelope/pkg/router"
)

// cryptoFlags holds the parsed options shared by encrypt and decrypt.
type cryptoFlags struct {
	input  string
	output string

	recursive   bool
	interactive bool
	noOverwrite bool
	suffix      string

	decodeInput  bool
	encodeOutput bool

	metadataOutput    string
	suppressMetadata  bool
	overwriteMetadata bool
	metadataFormat    string

	wrappingKey map[string]string
	caching     map[string]string

	encryptionContext map[string]string
	algorithm         string
	frameLength       int
	maxLength         int64
}

func newCryptoCmd(mode engine.Mode, configPath *string) *cobra.Command {
	f := &cryptoFlags{}

	short := "Encrypt files, directories, or stdin"
	example := `  # Encrypt a file into a directory
  envelope encrypt -i secrets.txt -o vault/ --wrapping-key passphrase=correct-horse --suppress-metadata

  # Encrypt a whole tree, recording metadata
  envelope encrypt -i src/ -o vault/ -r --wrapping-key passphrase=correct-horse --metadata-output audit.log

  # Pipe through stdin/stdout
  cat secrets.txt | envelope encrypt -i - -o - --wrapping-key passphrase=correct-horse --suppress-metadata > secrets.enc`
	if mode == engine.Decrypt {
		short = "Decrypt files, directories, or stdin"
		example = `  # Decrypt a file
  envelope decrypt -i vault/secrets.txt.encrypted -o secrets.txt --wrapping-key passphrase=correct-horse --suppress-metadata

  # Decrypt everything matching a pattern into a directory
  envelope decrypt -i 'vault/*.encrypted' -o plain/ --wrapping-key passphrase=correct-horse --suppress-metadata`
	}

	cmd := &cobra.Command{
		Use:     string(mode),
		Short:   short,
		Example: example,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCrypto(cmd, mode, f, *configPath)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.input, "input", "i", "", "Input file, directory, glob pattern, or - for stdin (required)")
	flags.StringVarP(&f.output, "output", "o", "", "Output file, directory, or - for stdout (required)")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")

	flags.BoolVarP(&f.recursive, "recursive", "r", false, "Process directories recursively")
	flags.BoolVar(&f.interactive, "interactive", false, "Ask before overwriting existing output files")
	flags.BoolVar(&f.noOverwrite, "no-overwrite", false, "Never overwrite existing output files")
	flags.StringVarP(&f.suffix, "suffix", "S", "", "Output filename suffix when writing into a directory")

	flags.BoolVar(&f.decodeInput, "decode", false, "Base64-decode input before processing")
	flags.BoolVar(&f.encodeOutput, "encode", false, "Base64-encode output after processing")

	flags.StringVar(&f.metadataOutput, "metadata-output", "", "File to write operation metadata records to, or - for stdout")
	flags.BoolVar(&f.suppressMetadata, "suppress-metadata", false, "Do not write operation metadata")
	flags.BoolVar(&f.overwriteMetadata, "overwrite-metadata", false, "Truncate the metadata file per record instead of appending")
	flags.StringVar(&f.metadataFormat, "metadata-format", "", "Metadata record format: json or xml")

	flags.StringToStringVar(&f.wrappingKey, "wrapping-key", nil, "Wrapping key configuration (key=<hex> or passphrase=<string>)")
	flags.StringToStringVar(&f.caching, "caching", nil, "Key caching configuration")

	flags.Int64Var(&f.maxLength, "max-length", 0, "Maximum frame payload size accepted when reading messages")

	if mode == engine.Encrypt {
		flags.StringToStringVarP(&f.encryptionContext, "encryption-context", "c", nil, "Encryption context key=value pairs")
		flags.StringVar(&f.algorithm, "algorithm", "", "Algorithm suite name")
		flags.IntVar(&f.frameLength, "frame-length", 0, "Frame payload size in bytes")
	}

	return cmd
}

func runCrypto(cmd *cobra.Command, mode engine.Mode, f *cryptoFlags, configPath string) error {
	logger := logging.GetLogger("cli")

	settings, err := config.Load(configPath)
	if err != nil {
		return err
	}

	target, err := buildMetadataTarget(cmd, f, settings)
	if err != nil {
		return err
	}

	provider, err := buildProvider(f, settings)
	if err != nil {
		return err
	}

	cfg, err := router.StreamConfigFromArgs(buildArgs(cmd, mode, f, settings), provider)
	if err != nil {
		return err
	}

	req := router.Request{
		Source:       f.input,
		Destination:  f.output,
		Recursive:    f.recursive,
		Interactive:  f.interactive,
		NoOverwrite:  f.noOverwrite,
		Suffix:       resolveSuffix(cmd, mode, f, settings),
		DecodeInput:  f.decodeInput,
		EncodeOutput: f.encodeOutput,
		Metadata:     target,
	}

	logger.Debug().
		Str("source", req.Source).
		Str("destination", req.Destination).
		Msg("Request assembled")
	done := logging.LogOperationStart(logger, string(mode))
	defer done()

	runner := process.NewRunner(engine.New(), filesystem.NewOS())
	if err := router.ProcessRequest(cfg, req, runner); err != nil {
		return wrapUnexpected(err)
	}
	return nil
}

// buildMetadataTarget resolves the metadata flags. Exactly one of
// --metadata-output and --suppress-metadata must be given.
func buildMetadataTarget(cmd *cobra.Command, f *cryptoFlags, settings *config.Settings) (metadata.Target, error) {
	if f.suppressMetadata {
		if f.metadataOutput != "" {
			return metadata.Target{}, errors.New(errors.ErrInvalidInput,
				"--metadata-output and --suppress-metadata are mutually exclusive")
		}
		return metadata.Suppressed(), nil
	}
	if f.metadataOutput == "" {
		return metadata.Target{}, errors.New(errors.ErrInvalidInput,
			"one of --metadata-output or --suppress-metadata is required")
	}

	writeMode := metadata.ModeAppend
	if f.overwriteMetadata {
		writeMode = metadata.ModeOverwrite
	}

	format := settings.Metadata.Format
	if cmd.Flags().Changed("metadata-format") {
		format = f.metadataFormat
	}
	switch metadata.Format(format) {
	case metadata.FormatJSON, metadata.FormatXML:
	default:
		return metadata.Target{}, errors.Newf(errors.ErrInvalidInput,
			"unknown metadata format: %s", format)
	}

	return metadata.New(f.metadataOutput, writeMode, metadata.Format(format)), nil
}

// buildProvider merges the config file's key material with the
// --wrapping-key flag; the flag wins key by key.
func buildProvider(f *cryptoFlags, settings *config.Settings) (materials.Provider, error) {
	var keyConfig map[string]string
	if len(settings.Key) > 0 || len(f.wrappingKey) > 0 {
		keyConfig = make(map[string]string, len(settings.Key)+len(f.wrappingKey))
		for k, v := range settings.Key {
			keyConfig[k] = v
		}
		for k, v := range f.wrappingKey {
			keyConfig[k] = v
		}
	}

	var cachingConfig map[string]string
	if len(settings.Caching) > 0 || len(f.caching) > 0 {
		cachingConfig = make(map[string]string, len(settings.Caching)+len(f.caching))
		for k, v := range settings.Caching {
			cachingConfig[k] = v
		}
		for k, v := range f.caching {
			cachingConfig[k] = v
		}
	}

	return materials.FromConfig(keyConfig, cachingConfig)
}

func buildArgs(cmd *cobra.Command, mode engine.Mode, f *cryptoFlags, settings *config.Settings) router.Args {
	args := router.Args{
		Action:            mode,
		EncryptionContext: f.encryptionContext,
	}

	if mode == engine.Encrypt {
		algorithm := settings.Encrypt.Algorithm
		if cmd.Flags().Changed("algorithm") {
			algorithm = f.algorithm
		}
		if algorithm != "" {
			args.Algorithm = &algorithm
		}

		frameLength := settings.Encrypt.FrameLength
		if cmd.Flags().Changed("frame-length") {
			frameLength = f.frameLength
		}
		if frameLength > 0 {
			args.FrameLength = &frameLength
		}
	}

	if cmd.Flags().Changed("max-length") {
		args.MaxLength = &f.maxLength
	}

	return args
}

func resolveSuffix(cmd *cobra.Command, mode engine.Mode, f *cryptoFlags, settings *config.Settings) *string {
	if cmd.Flags().Changed("suffix") {
		return &f.suffix
	}
	switch mode {
	case engine.Encrypt:
		if settings.Suffix.Encrypt != "" {
			return &settings.Suffix.Encrypt
		}
	case engine.Decrypt:
		if settings.Suffix.Decrypt != "" {
			return &settings.Suffix.Decrypt
		}
	}
	return nil
}

// wrapUnexpected hides internal failures behind a generic message; bad
// user arguments pass through with their original text.
func wrapUnexpected(err error) error {
	if err == nil || errors.IsBadUserArgument(err) {
		return err
	}
	return errors.Wrap(err, errors.ErrUnexpected,
		"Encountered unexpected error: increase verbosity to see details")
}
