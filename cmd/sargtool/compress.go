package main

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"

	"github.com/harshithgowdakt/orcsarg/internal/compression"
)

func (a *app) compressCommand() *cobra.Command {
	var decompress bool
	var modifiers []string
	cmd := &cobra.Command{
		Use:   "compress <in> <out>",
		Short: "frame a file in ORC compression chunks",
		Long: `
  Compresses a file into a stream of chunks, each preceded by the 3 byte ORC
  chunk header, using the configured codec and block size. With --decompress
  the stream is read back; codec and block size must match the writer's.
`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			codec, err := a.cfg.Compression.NewCodec()
			if err != nil {
				return err
			}
			mods, err := parseModifiers(modifiers)
			if err != nil {
				return err
			}
			codec = codec.Modify(mods...)

			in, err := os.ReadFile(args[0])
			if err != nil {
				return errors.Wrap(err, "read input")
			}
			var out []byte
			if decompress {
				out, err = compression.DecompressStream(codec, in, a.cfg.Compression.BlockSize)
			} else {
				out, err = compression.CompressStream(codec, in, a.cfg.Compression.BlockSize)
			}
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[1], out, 0o644); err != nil {
				return errors.Wrap(err, "write output")
			}
			level.Info(a.logger).Log(
				"msg", "done",
				"codec", codec.Kind(),
				"decompress", decompress,
				"in_bytes", len(in),
				"out_bytes", len(out),
			)
			return nil
		},
	}
	f := cmd.Flags()
	f.BoolVarP(&decompress, "decompress", "d", false, "Decompress instead of compressing.")
	f.StringSliceVar(&modifiers, "modifier", nil, "Codec modifiers: fastest, fast, default, text, binary.")
	return cmd
}

func parseModifiers(names []string) ([]compression.Modifier, error) {
	mods := make([]compression.Modifier, 0, len(names))
	for _, name := range names {
		m, err := compression.ParseModifier(name)
		if err != nil {
			return nil, err
		}
		mods = append(mods, m)
	}
	return mods, nil
}
