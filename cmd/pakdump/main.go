// The pakdump tool dumps the files stored in Kingdoms of Amalur: Re-Reckoning
// PAK containers, and can pack a directory back into one.
package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/gitMenv/pakdump"
	"github.com/gitMenv/pakdump/internal/config"
)

var versionGitCommit string
var versionBuildTime string

func codecNames() map[string]bool {
	names := make(map[string]bool, len(pakdump.DecompressionMethods))
	for name := range pakdump.DecompressionMethods {
		names[name] = true
	}
	return names
}

func codecList() []string {
	var list []string
	for name := range codecNames() {
		list = append(list, name)
	}
	sort.Strings(list)
	return list
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "log-level", Value: "info", Usage: "Set log level (panic, fatal, error, warn, info, debug, trace)", EnvVars: []string{"PAKDUMP_LOG_LEVEL"}},
		&cli.StringFlag{Name: "config", Usage: "Path to a TOML config file", EnvVars: []string{"PAKDUMP_CONFIG"}},
		&cli.StringFlag{Name: "codec", Value: pakdump.DefaultCodec, Usage: fmt.Sprintf("Chunk compression method %v", codecList()), EnvVars: []string{"PAKDUMP_CODEC"}},
	}
}

func extractFlags() []cli.Flag {
	return append(commonFlags(),
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Value: "dump", Usage: "Directory the files are dumped into", EnvVars: []string{"PAKDUMP_OUTPUT"}},
		&cli.IntFlag{Name: "workers", Value: 1, Usage: "Number of entries reassembled in parallel", EnvVars: []string{"PAKDUMP_WORKERS"}},
		&cli.BoolFlag{Name: "manifest", Usage: "Write manifest.json next to the dumped files", EnvVars: []string{"PAKDUMP_MANIFEST"}},
	)
}

// loadConfig merges the config file (if any) with the flags that were set.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return cfg, err
		}
	}
	if c.IsSet("output") {
		cfg.Output = c.String("output")
	}
	if c.IsSet("codec") {
		cfg.Codec = c.String("codec")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.IsSet("manifest") {
		cfg.Manifest = c.Bool("manifest")
	}
	if err := cfg.Validate(codecNames()); err != nil {
		return cfg, err
	}
	logLevel, _ := logrus.ParseLevel(cfg.LogLevel)
	logrus.SetLevel(logLevel)
	return cfg, nil
}

func inputPath(c *cli.Context) (string, error) {
	if c.NArg() < 1 {
		return "", errors.New("no input file given")
	}
	path := c.Args().First()
	if _, err := os.Stat(path); err != nil {
		return "", errors.Wrap(err, "input file")
	}
	return path, nil
}

func extract(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	path, err := inputPath(c)
	if err != nil {
		return err
	}
	dec, err := pakdump.GetDecompressor(cfg.Codec)
	if err != nil {
		return err
	}

	archive, err := pakdump.Open(path, pakdump.WithDecompressor(dec))
	if err != nil {
		return err
	}
	defer archive.Close()

	res, err := archive.Extract(cfg.Output, pakdump.ExtractOptions{
		Workers:  cfg.Workers,
		Manifest: cfg.Manifest,
	})
	if err != nil {
		return err
	}
	if err := res.Err(); err != nil {
		return err
	}
	logrus.Infof("done, %d files dumped into %s", len(res.Extracted()), cfg.Output)
	return nil
}

func list(c *cli.Context) error {
	if _, err := loadConfig(c); err != nil {
		return err
	}
	path, err := inputPath(c)
	if err != nil {
		return err
	}
	archive, err := pakdump.Open(path)
	if err != nil {
		return err
	}
	defer archive.Close()
	return printListing(c.App.Writer, archive)
}

func printListing(w io.Writer, archive *pakdump.Archive) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "NAME\tCRC\tOFFSET\tSIZE\tCHUNKS\tPACKED\n")
	for _, f := range archive.Files {
		info, err := archive.Payload(f)
		if err != nil {
			fmt.Fprintf(tw, "%s\t%08X\t%08X\t%d\t-\t%v\n", f.Name, f.ContentID, f.Offset, f.Size, err)
			continue
		}
		fmt.Fprintf(tw, "%s\t%08X\t%08X\t%d\t%d\t%d\n", f.Name, f.ContentID, f.Offset, f.Size, info.ChunkCount, info.CompressedSize())
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d files, %d special entries, name table at %08X\n",
		len(archive.Files), archive.SpecialCount, archive.Header.Offset(archive.Locator.Position))
	return err
}

func pack(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.NArg() < 2 {
		return errors.New("pack needs a source directory and an output file")
	}
	dir, out := c.Args().Get(0), c.Args().Get(1)
	return pakdump.PackDirectory(dir, out, pakdump.PackOptions{
		Codec:         cfg.Codec,
		PositionScale: uint32(c.Uint("position-scale")),
		ChunkSize:     uint32(c.Uint("chunk-size")),
	})
}

func newApp() *cli.App {
	version := fmt.Sprintf("%s.%s", versionGitCommit, versionBuildTime)

	app := &cli.App{
		Name:      "pakdump",
		Usage:     "Kingdoms of Amalur: Re-Reckoning PAK dumper",
		Version:   version,
		ArgsUsage: "<pak file>",
		Flags:     extractFlags(),
		Action:    extract,
	}
	app.Commands = []*cli.Command{
		{
			Name:      "extract",
			Usage:     "Dump all files of a PAK file",
			ArgsUsage: "<pak file>",
			Flags:     extractFlags(),
			Action:    extract,
		},
		{
			Name:      "list",
			Usage:     "List the files of a PAK file",
			ArgsUsage: "<pak file>",
			Flags:     commonFlags(),
			Action:    list,
		},
		{
			Name:      "pack",
			Usage:     "Pack a directory into a PAK file",
			ArgsUsage: "<directory> <pak file>",
			Flags: append(commonFlags(),
				&cli.UintFlag{Name: "chunk-size", Value: uint(pakdump.DefaultChunkTargetSize), Usage: "Uncompressed size of one chunk"},
				&cli.UintFlag{Name: "position-scale", Value: uint(pakdump.DefaultPositionScale), Usage: "Block alignment of stored positions"},
			),
			Action: pack,
		},
	}
	return app
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if err := newApp().Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}
