package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/farmworlds/cmd/farmworlds/commands"
	"git.home.luguber.info/inful/farmworlds/internal/foundation/errors"
	"git.home.luguber.info/inful/farmworlds/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("farmworlds"),
		kong.Description("Farm worlds persistence and task economy engine"),
		kong.Vars{"version": version.String()},
	)

	err := parser.Run(&commands.Global{Logger: slog.Default()}, cli)
	errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
