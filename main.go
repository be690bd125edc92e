package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/Abourass/pixels/palette"
	"github.com/Abourass/pixels/parallel"
	"github.com/Abourass/pixels/pixel"
)

var cli struct {
	Workers int `help:"Number of parallel workers. Values below 1 use all CPUs." default:"0"`

	Convert  pixel.CLICmd       `cmd:"" help:"Render images as pixel art"`
	Extract  palette.ExtractCmd `cmd:"" help:"Extract a color palette from an image"`
	Palettes palette.ListCmd    `cmd:"" help:"List built-in and saved palettes"`
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("pixels"),
		kong.Description("Pixel art renderer: pixelation, grayscale and palette remapping."),
		kong.UsageOnError(),
	)

	var err error
	switch kctx.Command() {
	case "convert":
		pool := parallel.Start(cli.Workers)
		err = cli.Convert.Run(pool.Do, pool.Wait)
	case "extract <image>":
		err = cli.Extract.Run()
	case "palettes":
		err = cli.Palettes.Run()
	default:
		err = kctx.PrintUsage(false)
	}

	if err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
